package services

import (
	"strings"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
)

// DefaultMaterial is assumed when a request does not name one.
const DefaultMaterial = "PLA"

// Fallbacks used when a filament preset does not declare a range.
const (
	fallbackNozzleC = 210.0
	fallbackBedC    = 60.0
	fallbackFanPct  = 70.0
)

// Resin and subtractive defaults.
const (
	defaultExposureS      = 2.0
	defaultResinExposureS = 2.3
	defaultLiftMMMin      = 60.0
	defaultMaxFeedMMMin   = 6000.0
	defaultStepoverPct    = 40.0
	feedFraction          = 0.7
)

var defaultSpindleRPM = entities.Range{Min: 8000, Max: 18000}

// NormalizeMaterial upper-cases a material name, defaulting to PLA.
func NormalizeMaterial(material string) string {
	m := strings.ToUpper(strings.TrimSpace(material))
	if m == "" {
		return DefaultMaterial
	}
	return m
}

// BaselineDeriver computes starting parameter values for a machine and material.
// Experience does not change baselines; it only affects clamping and visibility.
type BaselineDeriver struct{}

// NewBaselineDeriver creates a new baseline deriver.
func NewBaselineDeriver() *BaselineDeriver {
	return &BaselineDeriver{}
}

// Derive returns the baseline parameters for machine and material.
// The parameter set depends on the machine category.
func (d *BaselineDeriver) Derive(machine *entities.MachineProfile, material string) entities.Parameters {
	material = NormalizeMaterial(material)

	switch kind := machine.Kind.(type) {
	case *entities.VatPhotopolymer:
		return d.resin(material)
	case *entities.Subtractive:
		return d.subtractive(kind)
	case *entities.FilamentExtrusion:
		return d.filament(machine, kind, material)
	default:
		return d.filament(machine, &entities.FilamentExtrusion{}, material)
	}
}

func (d *BaselineDeriver) filament(
	machine *entities.MachineProfile,
	kind *entities.FilamentExtrusion,
	material string,
) entities.Parameters {
	preset, _ := kind.Preset(material)

	nozzle := midpointOr(preset.NozzleC, fallbackNozzleC)
	bed := midpointOr(preset.BedC, fallbackBedC)
	fan := midpointOr(preset.FanPct, fallbackFanPct)

	fastFrame := isCartesianGantry(machine.Motion())

	printSpeed, travelSpeed, jerk := 90.0, 120.0, 8.0
	if fastFrame {
		printSpeed, travelSpeed, jerk = 120.0, 150.0, 12.0
	}

	accel := 3000.0
	if machine.HasSupport("input_shaping") {
		accel = 5000.0
	}

	retraction := 0.6
	if machine.HasSupport("ams") {
		retraction = 0.8
	}

	// Enclosed chambers hold heat: a warmer bed and little part cooling for ABS.
	if machine.Enclosed && material == "ABS" {
		maxBed := bed
		if kind.MaxBedTempC != nil {
			maxBed = *kind.MaxBedTempC
		}
		bed = min(bed+10, maxBed)
		fan = min(fan, 15)
	}

	return entities.Parameters{
		ParamNozzleTemp:         nozzle,
		ParamBedTemp:            bed,
		ParamPrintSpeed:         printSpeed,
		ParamTravelSpeed:        travelSpeed,
		ParamAccel:              accel,
		ParamJerk:               jerk,
		ParamFanSpeed:           fan,
		ParamFlowRate:           100.0,
		ParamRetractionDistance: retraction,
	}
}

func (d *BaselineDeriver) resin(material string) entities.Parameters {
	exposure := defaultExposureS
	if strings.HasPrefix(material, "RESIN") {
		exposure = defaultResinExposureS
	}
	return entities.Parameters{
		ParamExposureTime: exposure,
		ParamLiftSpeed:    defaultLiftMMMin,
	}
}

func (d *BaselineDeriver) subtractive(kind *entities.Subtractive) entities.Parameters {
	spindle := defaultSpindleRPM
	if kind.SpindleRPM != nil {
		spindle = *kind.SpindleRPM
	}

	maxFeed := defaultMaxFeedMMMin
	if kind.MaxFeedMMMin != nil && *kind.MaxFeedMMMin > 0 {
		maxFeed = *kind.MaxFeedMMMin
	}
	feed := maxFeed * feedFraction

	return entities.Parameters{
		ParamSpindleRPM: spindle.Midpoint(),
		ParamFeedRate:   feed,
		ParamDepthOfCut: kind.Rigidity.DefaultDepthOfCut(),
		ParamStepover:   defaultStepoverPct,
	}
}

// isCartesianGantry reports whether the motion system moves a light toolhead
// over a fixed bed (CoreXY, H-Bot), which tolerates higher speeds.
func isCartesianGantry(motion string) bool {
	switch strings.ToLower(strings.ReplaceAll(motion, "-", "")) {
	case "corexy", "hbot":
		return true
	default:
		return false
	}
}

func midpointOr(r *entities.Range, fallback float64) float64 {
	if r == nil {
		return fallback
	}
	return r.Midpoint()
}
