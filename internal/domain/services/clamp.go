package services

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// ExperiencePolicy holds the guard rails applied at one experience level.
type ExperiencePolicy struct {
	Level values.Experience
	// MaxFactor scales every upper bound to keep headroom below machine limits.
	MaxFactor float64
	// Note becomes Explanations[0] of every AppliedResult.
	Note string
}

var experiencePolicies = map[values.Experience]ExperiencePolicy{
	values.ExperienceBeginner: {
		Level:     values.ExperienceBeginner,
		MaxFactor: 0.85,
		Note:      "Beginner mode limits adjustments to core temperature and speed controls.",
	},
	values.ExperienceIntermediate: {
		Level:     values.ExperienceIntermediate,
		MaxFactor: 0.95,
		Note:      "Intermediate mode unlocks motion controls with moderate guard rails.",
	},
	values.ExperienceAdvanced: {
		Level:     values.ExperienceAdvanced,
		MaxFactor: 1.0,
		Note:      "Advanced mode exposes all tunables within machine limits.",
	},
}

// PolicyFor returns the policy for exp. Unknown levels get the Intermediate policy.
func PolicyFor(exp values.Experience) ExperiencePolicy {
	if p, ok := experiencePolicies[exp]; ok {
		return p
	}
	return experiencePolicies[values.DefaultExperience]
}

// bounds is an optional [lo, hi] pair; nil means unbounded on that side.
type bounds struct {
	lo *float64
	hi *float64
}

func bounded(lo, hi float64) bounds {
	return bounds{lo: &lo, hi: &hi}
}

func fromRange(r *entities.Range) bounds {
	if r == nil {
		return bounds{}
	}
	return bounded(r.Min, r.Max)
}

// SafetyClamp bounds proposed parameter values to a machine's safe envelope and
// hides parameters the user's experience level should not see.
type SafetyClamp struct{}

// NewSafetyClamp creates a new clamp engine.
func NewSafetyClamp() *SafetyClamp {
	return &SafetyClamp{}
}

// ClampToMachine bounds each target to the machine's safe range and filters
// by experience. Parameters are processed in name order so explanations are stable.
func (c *SafetyClamp) ClampToMachine(
	machine *entities.MachineProfile,
	targets entities.Parameters,
	exp values.Experience,
) entities.AppliedResult {
	policy := PolicyFor(exp)

	result := entities.AppliedResult{
		Parameters:       make(entities.Parameters, len(targets)),
		HiddenParameters: []string{},
		ExperienceLevel:  policy.Level,
		Explanations:     []string{policy.Note},
	}

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !VisibleAt(name, policy.Level) {
			result.HiddenParameters = append(result.HiddenParameters, name)
			continue
		}

		value := targets[name]
		b := c.boundsFor(machine, name)

		if b.lo != nil && value < *b.lo {
			value = *b.lo
			result.ClampedToMachineLimits = true
			result.Explanations = append(result.Explanations,
				fmt.Sprintf("Raised %s to machine minimum %s.", name, formatNumber(value)))
		}
		if b.hi != nil {
			effectiveMax := *b.hi
			if policy.MaxFactor < 1.0 {
				effectiveMax = round3(effectiveMax * policy.MaxFactor)
			}
			if b.lo != nil && effectiveMax < *b.lo {
				effectiveMax = *b.lo
			}
			if value > effectiveMax {
				value = effectiveMax
				result.ClampedToMachineLimits = true
				result.Explanations = append(result.Explanations,
					fmt.Sprintf("Reduced %s to %s based on limits.", name, formatNumber(value)))
			}
		}

		result.Parameters[name] = round3(value)
	}

	return result
}

// Bounds returns the declared safe range for param on machine, if any.
func (c *SafetyClamp) Bounds(machine *entities.MachineProfile, param string) (lo, hi *float64) {
	b := c.boundsFor(machine, param)
	return b.lo, b.hi
}

func (c *SafetyClamp) boundsFor(machine *entities.MachineProfile, param string) bounds {
	var b bounds

	switch kind := machine.Kind.(type) {
	case *entities.FilamentExtrusion:
		b = filamentBounds(kind, param)
	case *entities.VatPhotopolymer:
		b = resinBounds(kind, param)
	case *entities.Subtractive:
		b = subtractiveBounds(kind, param)
	}

	if b.lo != nil {
		lo := round3(*b.lo)
		b.lo = &lo
	}
	if b.hi != nil {
		hi := round3(*b.hi)
		b.hi = &hi
	}
	return b
}

func filamentBounds(kind *entities.FilamentExtrusion, param string) bounds {
	switch param {
	case ParamNozzleTemp:
		return presetBounds(kind, func(p entities.MaterialPreset) *entities.Range { return p.NozzleC }, kind.MaxNozzleTempC)
	case ParamBedTemp:
		return presetBounds(kind, func(p entities.MaterialPreset) *entities.Range { return p.BedC }, kind.MaxBedTempC)
	case ParamPrintSpeed:
		return fromRange(kind.PrintSpeed)
	case ParamTravelSpeed:
		return fromRange(kind.TravelSpeed)
	case ParamAccel:
		return fromRange(kind.Accel)
	case ParamJerk:
		return fromRange(kind.Jerk)
	case ParamFanSpeed:
		return bounded(0, 100)
	case ParamFlowRate:
		return bounded(80, 120)
	case ParamRetractionDistance:
		return bounded(0.2, 8)
	default:
		return bounds{}
	}
}

// presetBounds uses the lowest preset minimum across all materials as the
// floor and the machine's declared maximum as the ceiling.
func presetBounds(
	kind *entities.FilamentExtrusion,
	pick func(entities.MaterialPreset) *entities.Range,
	ceiling *float64,
) bounds {
	var b bounds
	if lo, ok := kind.MinPresetLow(pick); ok {
		b.lo = &lo
	}
	if ceiling != nil {
		hi := *ceiling
		b.hi = &hi
	}
	return b
}

func resinBounds(kind *entities.VatPhotopolymer, param string) bounds {
	switch param {
	case ParamExposureTime:
		return fromRange(kind.ExposureS)
	case ParamLiftSpeed:
		return fromRange(kind.LiftMMMin)
	default:
		return bounds{}
	}
}

func subtractiveBounds(kind *entities.Subtractive, param string) bounds {
	switch param {
	case ParamSpindleRPM:
		return fromRange(kind.SpindleRPM)
	case ParamFeedRate:
		lo := 100.0
		b := bounds{lo: &lo}
		if kind.MaxFeedMMMin != nil {
			hi := *kind.MaxFeedMMMin
			b.hi = &hi
		}
		return b
	case ParamDepthOfCut:
		return bounded(0.1, kind.Rigidity.MaxDepthOfCut())
	case ParamStepover:
		return bounded(1, 60)
	default:
		return bounds{}
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
