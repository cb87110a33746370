package container

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tuneforge/tuneforge/internal/application/dto"
	apperrors "github.com/tuneforge/tuneforge/internal/application/errors"
	"github.com/tuneforge/tuneforge/internal/application/services"
)

const enderProfile = `id: creality_ender3_v2
brand: Creality
model: Ender-3 V2
type: FDM
aliases: [Ender 3 V2]
max_nozzle_temp_c: 240
max_bed_temp_c: 100
material_presets:
  PLA:
    nozzle_c: [190, 220]
    bed_c: [50, 70]
    fan_pct: [80, 100]
safe_speed_ranges:
  print: [20, 150]
  travel: [50, 200]
  accel: [300, 3000]
  jerk: [4, 12]
`

const marsProfile = `id: elegoo_mars_4
brand: Elegoo
model: Mars 4
type: MSLA
safe_speed_ranges:
  exposure_s: [1, 4]
  lift_mm_min: [30, 120]
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestNew_LoadsMachinesFromConfiguredDir(t *testing.T) {
	machines := t.TempDir()
	writeFile(t, machines, "ender.yaml", enderProfile)

	cfgDir := t.TempDir()
	cfgPath := filepath.Join(cfgDir, "config.yaml")
	writeFile(t, cfgDir, "config.yaml", "machines_dir: "+machines+"\noutput:\n  format: json\n")

	c, err := New(context.Background(), Options{Logger: quietLogger(), SystemConfigPath: cfgPath, Version: "1.2.3"})
	require.NoError(t, err)

	assert.Equal(t, machines, c.MachineLoader().Dir())
	assert.Equal(t, "json", c.SystemConfig().Output.Format)
	assert.Equal(t, 1, c.Registry().Len())

	resp, err := c.AnalyzeService().Analyze(context.Background(), dto.AnalyzeRequest{
		MachineID:  "ender 3 v2",
		Experience: "Beginner",
		Material:   "PLA",
	})
	require.NoError(t, err)
	assert.Equal(t, "creality_ender3_v2", resp.Machine.ID)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestNew_MachinesDirOverride(t *testing.T) {
	machines := t.TempDir()
	writeFile(t, machines, "mars.yaml", marsProfile)

	c, err := New(context.Background(), Options{Logger: quietLogger(), MachinesDir: machines})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Registry().Len())
}

func TestNew_Errors(t *testing.T) {
	t.Run("missing machines dir", func(t *testing.T) {
		_, err := New(context.Background(), Options{
			Logger:      quietLogger(),
			MachinesDir: filepath.Join(t.TempDir(), "missing"),
		})
		var configErr *apperrors.ConfigurationError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, "machines", configErr.Aspect)
	})

	t.Run("invalid system config", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "config.yaml", "defaults:\n  experience: Wizard\n")
		_, err := New(context.Background(), Options{
			Logger:           quietLogger(),
			SystemConfigPath: filepath.Join(dir, "config.yaml"),
			MachinesDir:      t.TempDir(),
		})
		var configErr *apperrors.ConfigurationError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, "system_config", configErr.Aspect)
		assert.Contains(t, err.Error(), "failed to load system config")
	})
}

func TestContainer_WatcherReloadsRegistry(t *testing.T) {
	defer goleak.VerifyNone(t)

	machines := t.TempDir()
	writeFile(t, machines, "ender.yaml", enderProfile)

	c, err := New(context.Background(), Options{Logger: quietLogger(), MachinesDir: machines})
	require.NoError(t, err)
	require.Equal(t, 1, c.Registry().Len())

	reports := make(chan *services.ReloadReport, 4)
	w, err := c.NewWatcher(func(r *services.ReloadReport) { reports <- r })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, machines, "mars.yaml", marsProfile)

	deadline := time.After(5 * time.Second)
	for c.Registry().Len() != 2 {
		select {
		case <-reports:
		case <-deadline:
			t.Fatal("registry was not reloaded")
		}
	}
	require.NoError(t, w.Stop())

	_, err = c.Registry().Resolve("elegoo_mars_4")
	assert.NoError(t, err)
}
