package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuneforge/tuneforge/internal/application/dto"
	apperrors "github.com/tuneforge/tuneforge/internal/application/errors"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

func p1s() *entities.MachineProfile {
	nozzle := 300.0
	bed := 110.0
	return &entities.MachineProfile{
		ID:           "bambu_p1s",
		Brand:        "Bambu Lab",
		Model:        "P1S",
		Aliases:      []string{"P1S"},
		MotionSystem: "CoreXY",
		Enclosed:     true,
		Support:      map[string]bool{"ams": true, "input_shaping": true},
		Kind: &entities.FilamentExtrusion{
			MaterialPresets: map[string]entities.MaterialPreset{
				"PLA": {
					NozzleC: &entities.Range{Min: 190, Max: 230},
					BedC:    &entities.Range{Min: 45, Max: 65},
					FanPct:  &entities.Range{Min: 80, Max: 100},
				},
			},
			MaxNozzleTempC: &nozzle,
			MaxBedTempC:    &bed,
			PrintSpeed:     &entities.Range{Min: 20, Max: 500},
			TravelSpeed:    &entities.Range{Min: 50, Max: 600},
			Accel:          &entities.Range{Min: 500, Max: 20000},
			Jerk:           &entities.Range{Min: 5, Max: 20},
		},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestAnalyzeService(machines ...*entities.MachineProfile) *AnalyzeService {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return NewAnalyzeService(NewStaticMachineRegistry(machines...), testLogger(),
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return fixed }),
		WithVersion("1.2.3"))
}

func TestAnalyzeService_Analyze(t *testing.T) {
	svc := newTestAnalyzeService(p1s())

	resp, err := svc.Analyze(context.Background(), dto.AnalyzeRequest{
		MachineID:   "P1S",
		Experience:  "Intermediate",
		Material:    "pla",
		Slicer:      "bambu",
		Predictions: []entities.Prediction{{IssueID: "stringing", Confidence: 0.8}},
		BaseProfile: map[string]float64{"nozzle_temperature": 210},
	})
	require.NoError(t, err)

	assert.Equal(t, "id-1", resp.ImageKey)
	assert.Equal(t, "id-2", resp.AnalysisID)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "bambu_p1s", resp.Machine.ID)
	assert.Equal(t, values.ExperienceIntermediate, resp.Experience)
	assert.Equal(t, "PLA", resp.Material)
	assert.False(t, resp.LowConfidence)
	assert.Equal(t, "alias", resp.Metadata.MatchedBy)

	require.Len(t, resp.Suggestions, 1)
	nozzle, ok := resp.Suggestions[0].Change("nozzle_temp")
	require.True(t, ok)
	assert.Equal(t, -10.0, *nozzle.Delta)
	assert.Equal(t, values.RiskMedium, resp.Suggestions[0].Risk)

	assert.Equal(t, 200.0, resp.Applied.Parameters["nozzle_temp"])
	assert.Equal(t, values.SlicerBambu, resp.SlicerProfileDiff.Slicer)
	entry := resp.SlicerProfileDiff.Parameters["nozzle_temperature"]
	assert.Equal(t, 200.0, entry.Value)
	assert.Equal(t, 210.0, *entry.Base)
}

func TestAnalyzeService_KeepsProvidedImageKey(t *testing.T) {
	svc := newTestAnalyzeService(p1s())

	resp, err := svc.Analyze(context.Background(), dto.AnalyzeRequest{MachineID: "bambu_p1s", ImageKey: "img-42"})
	require.NoError(t, err)
	assert.Equal(t, "img-42", resp.ImageKey)
	assert.Equal(t, "id-1", resp.AnalysisID)
	assert.True(t, resp.LowConfidence)
	assert.Equal(t, "general_tuning", resp.Suggestions[0].IssueID)
	assert.NotNil(t, resp.Predictions)
}

func TestAnalyzeService_MachineNotFound(t *testing.T) {
	svc := newTestAnalyzeService(p1s())

	_, err := svc.Analyze(context.Background(), dto.AnalyzeRequest{MachineID: "formlabs form 3"})
	require.Error(t, err)
	assert.True(t, entities.IsMachineNotFound(err))
}

func TestAnalyzeService_ValidationError(t *testing.T) {
	svc := newTestAnalyzeService(p1s())

	_, err := svc.Analyze(context.Background(), dto.AnalyzeRequest{MachineID: "bambu_p1s", Experience: "guru"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestAnalyzeService_CancelledContext(t *testing.T) {
	svc := newTestAnalyzeService(p1s())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, dto.AnalyzeRequest{MachineID: "bambu_p1s"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeService_ResponseJSONShape(t *testing.T) {
	svc := newTestAnalyzeService(p1s())

	resp, err := svc.Analyze(context.Background(), dto.AnalyzeRequest{
		MachineID:   "bambu_p1s",
		Experience:  "Beginner",
		Predictions: []entities.Prediction{{IssueID: "stringing", Confidence: 0.9}},
	})
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"analysis_id", "image_key", "machine", "suggestions", "applied", "slicer_profile_diff", "low_confidence"} {
		assert.Contains(t, decoded, key)
	}
	assert.NotContains(t, decoded, "Metadata")

	applied := decoded["applied"].(map[string]any)
	assert.Equal(t, []any{"retraction_distance", "travel_speed"}, applied["hidden_parameters"])
	assert.Equal(t, "Beginner", applied["experience_level"])
}

func TestAnalyzeService_Clamp(t *testing.T) {
	svc := newTestAnalyzeService(p1s())

	resp, err := svc.Clamp(context.Background(), dto.ClampRequest{
		MachineID:  "bambu_p1s",
		Experience: "Advanced",
		Parameters: entities.Parameters{"nozzle_temp": 350, "jerk": 10},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.Parameters{"nozzle_temp": 300, "jerk": 10}, resp.Applied.Parameters)
	assert.True(t, resp.Applied.ClampedToMachineLimits)

	_, err = svc.Clamp(context.Background(), dto.ClampRequest{MachineID: "bambu_p1s"})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = svc.Clamp(context.Background(), dto.ClampRequest{MachineID: "nope_nope_nope", Parameters: entities.Parameters{"x": 1}})
	assert.True(t, entities.IsMachineNotFound(err))
}

func TestAnalyzeService_ClampRejectsNonFiniteValues(t *testing.T) {
	svc := newTestAnalyzeService(p1s())

	_, err := svc.Clamp(context.Background(), dto.ClampRequest{
		MachineID:  "bambu_p1s",
		Experience: "Advanced",
		Parameters: entities.Parameters{"nozzle_temp": math.NaN()},
	})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = svc.Export(dto.ExportRequest{Slicer: "cura", Parameters: entities.Parameters{"nozzle_temp": math.Inf(1)}})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestAnalyzeService_Export(t *testing.T) {
	svc := newTestAnalyzeService()

	diff, err := svc.Export(dto.ExportRequest{Slicer: "cura", Parameters: entities.Parameters{"nozzle_temp": 205}})
	require.NoError(t, err)
	assert.Contains(t, diff.Parameters, "material_print_temperature")

	_, err = svc.Export(dto.ExportRequest{Slicer: "simplify3d"})
	assert.True(t, apperrors.IsValidationError(err))
}
