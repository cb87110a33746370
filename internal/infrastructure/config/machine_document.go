package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// machineDocument is the on-disk shape of a machine profile file.
// Category-specific fields are optional and only read for the matching type.
type machineDocument struct {
	ID              string                    `json:"id"`
	Brand           string                    `json:"brand"`
	Model           string                    `json:"model"`
	Type            string                    `json:"type"`
	Aliases         []string                  `json:"aliases"`
	MotionSystem    string                    `json:"motion_system"`
	Enclosed        bool                      `json:"enclosed"`
	Supports        map[string]bool           `json:"supports"`
	Capabilities    []string                  `json:"capabilities"`
	Notes           string                    `json:"notes"`
	MaterialPresets map[string]presetDocument `json:"material_presets"`
	MaxNozzleTempC  *float64                  `json:"max_nozzle_temp_c"`
	MaxBedTempC     *float64                  `json:"max_bed_temp_c"`
	SafeSpeedRanges speedRangesDocument       `json:"safe_speed_ranges"`
	SpindleRPMRange []float64                 `json:"spindle_rpm_range"`
	MaxFeedMMMin    *float64                  `json:"max_feed_mm_min"`
	RigidityClass   string                    `json:"rigidity_class"`
	BuildVolumeMM   []float64                 `json:"build_volume_mm"`
	WorkAreaMM      []float64                 `json:"workarea_mm"`
	NozzleDiameters []float64                 `json:"nozzle_diameters"`
}

type presetDocument struct {
	NozzleC []float64 `json:"nozzle_c"`
	BedC    []float64 `json:"bed_c"`
	FanPct  []float64 `json:"fan_pct"`
}

type speedRangesDocument struct {
	Print     []float64 `json:"print"`
	Travel    []float64 `json:"travel"`
	Accel     []float64 `json:"accel"`
	Jerk      []float64 `json:"jerk"`
	ExposureS []float64 `json:"exposure_s"`
	LiftMMMin []float64 `json:"lift_mm_min"`
}

// toProfile converts the document into a domain profile. A missing id falls
// back to the file name without extension.
func (d *machineDocument) toProfile(file string) (*entities.MachineProfile, error) {
	category, err := values.NewMachineCategory(d.Type)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(d.ID)
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}

	profile := &entities.MachineProfile{
		ID:           id,
		Brand:        strings.TrimSpace(d.Brand),
		Model:        strings.TrimSpace(d.Model),
		Aliases:      trimAll(d.Aliases),
		MotionSystem: strings.TrimSpace(d.MotionSystem),
		Enclosed:     d.Enclosed,
		Support:      d.Supports,
		Capabilities: d.Capabilities,
		Notes:        d.Notes,
		SourceFile:   file,
	}
	if profile.Support == nil {
		profile.Support = map[string]bool{}
	}

	switch category {
	case values.CategoryVatPhotopolymer:
		profile.Kind = &entities.VatPhotopolymer{
			ExposureS:     rangeOf(d.SafeSpeedRanges.ExposureS),
			LiftMMMin:     rangeOf(d.SafeSpeedRanges.LiftMMMin),
			BuildVolumeMM: d.BuildVolumeMM,
		}
	case values.CategorySubtractive:
		profile.Kind = &entities.Subtractive{
			SpindleRPM:   rangeOf(d.SpindleRPMRange),
			MaxFeedMMMin: d.MaxFeedMMMin,
			Rigidity:     values.NewRigidityClass(d.RigidityClass),
			WorkAreaMM:   d.WorkAreaMM,
		}
	default:
		kind := &entities.FilamentExtrusion{
			MaterialPresets: make(map[string]entities.MaterialPreset, len(d.MaterialPresets)),
			MaxNozzleTempC:  d.MaxNozzleTempC,
			MaxBedTempC:     d.MaxBedTempC,
			PrintSpeed:      rangeOf(d.SafeSpeedRanges.Print),
			TravelSpeed:     rangeOf(d.SafeSpeedRanges.Travel),
			Accel:           rangeOf(d.SafeSpeedRanges.Accel),
			Jerk:            rangeOf(d.SafeSpeedRanges.Jerk),
			NozzleDiameters: d.NozzleDiameters,
			BuildVolumeMM:   d.BuildVolumeMM,
		}
		if profile.MotionSystem == "" {
			profile.MotionSystem = entities.DefaultMotionSystem
		}
		for name, preset := range d.MaterialPresets {
			key := strings.ToUpper(strings.TrimSpace(name))
			if _, dup := kind.MaterialPresets[key]; dup {
				return nil, fmt.Errorf("material preset %q is declared more than once", key)
			}
			kind.MaterialPresets[key] = entities.MaterialPreset{
				NozzleC: rangeOf(preset.NozzleC),
				BedC:    rangeOf(preset.BedC),
				FanPct:  rangeOf(preset.FanPct),
			}
		}
		profile.Kind = kind
	}

	return profile, nil
}

func rangeOf(bounds []float64) *entities.Range {
	r, ok := entities.NewRange(bounds)
	if !ok {
		return nil
	}
	return &r
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
