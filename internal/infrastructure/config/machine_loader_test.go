package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

const p1sYAML = `
id: bambu_p1s
brand: Bambu Lab
model: P1S
type: FDM
aliases: [P1S, " Bambu P1S "]
motion_system: CoreXY
enclosed: true
supports:
  ams: true
  input_shaping: true
max_nozzle_temp_c: 300
max_bed_temp_c: 110
material_presets:
  pla:
    nozzle_c: [190, 230]
    bed_c: [45, 65]
safe_speed_ranges:
  print: [20, 500]
  accel: [20000, 500]
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestParseMachine_FilamentYAML(t *testing.T) {
	m, err := ParseMachine("bambu_p1s.yaml", strings.NewReader(p1sYAML))
	require.NoError(t, err)

	assert.Equal(t, "bambu_p1s", m.ID)
	assert.Equal(t, []string{"P1S", "Bambu P1S"}, m.Aliases)
	assert.Equal(t, values.CategoryFilamentExtrusion, m.Category())
	assert.True(t, m.HasSupport("ams"))

	kind, ok := m.Kind.(*entities.FilamentExtrusion)
	require.True(t, ok)
	assert.Equal(t, 300.0, *kind.MaxNozzleTempC)
	require.Contains(t, kind.MaterialPresets, "PLA", "material names are upper-cased")
	assert.Equal(t, &entities.Range{Min: 190, Max: 230}, kind.MaterialPresets["PLA"].NozzleC)
	assert.Nil(t, kind.MaterialPresets["PLA"].FanPct)
	assert.Equal(t, &entities.Range{Min: 500, Max: 20000}, kind.Accel, "reversed ranges are normalized")
	assert.Nil(t, kind.TravelSpeed)
}

func TestParseMachine_DefaultMotionSystem(t *testing.T) {
	doc := strings.Replace(p1sYAML, "motion_system: CoreXY\n", "", 1)
	m, err := ParseMachine("bambu_p1s.yaml", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultMotionSystem, m.MotionSystem)
}

func TestParseMachine_ResinJSON(t *testing.T) {
	doc := `{"brand": "Elegoo", "model": "Mars 4", "type": "MSLA",
		"safe_speed_ranges": {"exposure_s": [1, 4], "lift_mm_min": [30, 120]}}`

	m, err := ParseMachine("elegoo_mars_4.json", strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "elegoo_mars_4", m.ID, "id falls back to the file name")
	kind, ok := m.Kind.(*entities.VatPhotopolymer)
	require.True(t, ok)
	assert.Equal(t, &entities.Range{Min: 1, Max: 4}, kind.ExposureS)
	assert.Empty(t, m.Support)
}

func TestParseMachine_Subtractive(t *testing.T) {
	doc := `
brand: Carbide 3D
model: Shapeoko 4
type: cnc-router
spindle_rpm_range: [10000, 30000]
max_feed_mm_min: 5000
rigidity_class: Light Industrial
`
	m, err := ParseMachine("shapeoko.yml", strings.NewReader(doc))
	require.NoError(t, err)

	kind, ok := m.Kind.(*entities.Subtractive)
	require.True(t, ok)
	assert.Equal(t, values.RigidityLightIndustrial, kind.Rigidity)
	assert.Equal(t, 5000.0, *kind.MaxFeedMMMin)
}

func TestParseMachine_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad yaml", "bad.yaml", "brand: [unclosed", "failed to decode profile YAML"},
		{"bad json", "bad.json", `{"brand": `, "failed to decode profile JSON"},
		{"empty", "empty.yaml", "", "schema validation failed"},
		{"missing model", "m.yaml", "brand: X\n", "schema validation failed"},
		{"unknown field", "m.yaml", "brand: X\nmodel: Y\ncolour: red\n", "schema validation failed"},
		{"range too long", "m.yaml", "brand: X\nmodel: Y\nspindle_rpm_range: [1, 2, 3]\n", "schema validation failed"},
		{"range of strings", "m.yaml", "brand: X\nmodel: Y\nsafe_speed_ranges:\n  print: [a, b]\n", "schema validation failed"},
		{"unknown type", "m.yaml", "brand: X\nmodel: Y\ntype: laser\n", "unknown machine type"},
		{"duplicate preset", "m.yaml", "brand: X\nmodel: Y\nmaterial_presets:\n  pla: {}\n  PLA: {}\n", "declared more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMachine(tt.file, strings.NewReader(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMachineLoader_Load(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a_bambu.yaml":     p1sYAML,
		"b_mars.json":      `{"id": "elegoo_mars_4", "brand": "Elegoo", "model": "Mars 4", "type": "MSLA"}`,
		"c_broken.yaml":    "brand: [",
		"d_duplicate.yml":  "id: BAMBU_P1S\nbrand: Other\nmodel: Clone\n",
		"_schema.json":     `{"not": "a machine"}`,
		".hidden.yaml":     "garbage",
		"README.md":        "# machines",
		"e_shapeoko.yaml":  "brand: Carbide 3D\nmodel: Shapeoko 4\ntype: CNC_Router\n",
		"notes.txt":        "ignored",
		"f_template.yaml~": "ignored",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o700))

	result, err := NewMachineLoader(dir, WithLogger(quietLogger()), WithConcurrency(2)).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, result.Files)
	ids := make([]string, 0, len(result.Machines))
	for _, m := range result.Machines {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"bambu_p1s", "elegoo_mars_4", "e_shapeoko"}, ids)
	assert.Equal(t, filepath.Join(dir, "a_bambu.yaml"), result.Machines[0].SourceFile)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, filepath.Join(dir, "c_broken.yaml"), result.Skipped[0].File)
	assert.Equal(t, filepath.Join(dir, "d_duplicate.yml"), result.Skipped[1].File)
	assert.Contains(t, result.Skipped[1].Error(), "duplicate machine id")
}

func TestMachineLoader_LogsSkippedFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{"broken.yaml": "brand: ["})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	result, err := NewMachineLoader(dir, WithLogger(logger)).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Machines)
	assert.Contains(t, buf.String(), "skipping machine profile")
	assert.Contains(t, buf.String(), "broken.yaml")
}

func TestMachineLoader_MissingDirectory(t *testing.T) {
	_, err := NewMachineLoader(filepath.Join(t.TempDir(), "absent")).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open machines directory")
}

func TestMachineLoader_CancelledContext(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.yaml": p1sYAML})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMachineLoader(dir, WithLogger(quietLogger())).Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMachineLoader_BundledProfiles(t *testing.T) {
	result, err := NewMachineLoader(filepath.Join("..", "..", "..", "config", "machines"), WithLogger(quietLogger())).
		Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Skipped)
	assert.GreaterOrEqual(t, len(result.Machines), 5)
	for _, m := range result.Machines {
		assert.NotEmpty(t, m.Brand, m.ID)
		assert.NotNil(t, m.Kind, m.ID)
	}
}

func TestLoadMachineFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"good.yaml": p1sYAML,
		"bad.yaml":  "brand: X\n",
	})

	m, err := LoadMachineFile(filepath.Join(dir, "good.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "bambu_p1s", m.ID)

	_, err = LoadMachineFile(filepath.Join(dir, "bad.yaml"))
	var malformed *entities.MalformedProfileError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, filepath.Join(dir, "bad.yaml"), malformed.File)
}

func TestIsProfileFile(t *testing.T) {
	assert.True(t, IsProfileFile("a.yaml"))
	assert.True(t, IsProfileFile("/x/a.YML"))
	assert.True(t, IsProfileFile("a.json"))
	assert.False(t, IsProfileFile("_schema.json"))
	assert.False(t, IsProfileFile(".a.yaml"))
	assert.False(t, IsProfileFile("a.toml"))
}

func TestMachineSchema_IsValidJSON(t *testing.T) {
	_, err := compiledMachineSchema()
	require.NoError(t, err)
	assert.Contains(t, string(MachineSchema()), "material_presets")
}
