package services

import (
	"math"

	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// Canonical tunable parameter names.
const (
	ParamNozzleTemp         = "nozzle_temp"
	ParamBedTemp            = "bed_temp"
	ParamFanSpeed           = "fan_speed"
	ParamFlowRate           = "flow_rate"
	ParamPrintSpeed         = "print_speed"
	ParamTravelSpeed        = "travel_speed"
	ParamAccel              = "accel"
	ParamJerk               = "jerk"
	ParamRetractionDistance = "retraction_distance"
	ParamExposureTime       = "exposure_time"
	ParamLiftSpeed          = "lift_speed"
	ParamSpindleRPM         = "spindle_rpm"
	ParamFeedRate           = "feed_rate"
	ParamDepthOfCut         = "doc"
	ParamStepover           = "stepover"

	// ParamDryingRecommendation is an advisory 0/1 flag, never clamped.
	ParamDryingRecommendation = "drying_recommendation"
)

// visibilityTier is the minimum experience level at which a parameter is shown.
var visibilityTier = map[string]values.Experience{
	ParamNozzleTemp:   values.ExperienceBeginner,
	ParamBedTemp:      values.ExperienceBeginner,
	ParamFanSpeed:     values.ExperienceBeginner,
	ParamFlowRate:     values.ExperienceBeginner,
	ParamPrintSpeed:   values.ExperienceBeginner,
	ParamExposureTime: values.ExperienceBeginner,

	ParamTravelSpeed:        values.ExperienceIntermediate,
	ParamAccel:              values.ExperienceIntermediate,
	ParamRetractionDistance: values.ExperienceIntermediate,
	ParamLiftSpeed:          values.ExperienceIntermediate,
	ParamSpindleRPM:         values.ExperienceIntermediate,
	ParamFeedRate:           values.ExperienceIntermediate,
}

// MinimumExperience returns the lowest experience level that may see param.
// Parameters not listed are reserved for Advanced users.
func MinimumExperience(param string) values.Experience {
	if tier, ok := visibilityTier[param]; ok {
		return tier
	}
	return values.ExperienceAdvanced
}

// VisibleAt reports whether param is exposed at the given experience level.
func VisibleAt(param string, exp values.Experience) bool {
	return exp.AtLeast(MinimumExperience(param))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
