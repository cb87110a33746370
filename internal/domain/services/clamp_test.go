package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, 0.85, PolicyFor(values.ExperienceBeginner).MaxFactor)
	assert.Equal(t, 0.95, PolicyFor(values.ExperienceIntermediate).MaxFactor)
	assert.Equal(t, 1.0, PolicyFor(values.ExperienceAdvanced).MaxFactor)
	assert.Equal(t, values.ExperienceIntermediate, PolicyFor(values.Experience("Guru")).Level)
}

func TestSafetyClamp_ClampToMachine(t *testing.T) {
	tests := []struct {
		name        string
		exp         values.Experience
		targets     entities.Parameters
		want        entities.Parameters
		wantHidden  []string
		wantClamped bool
		wantDetails []string
	}{
		{
			name:    "within limits passes through",
			exp:     values.ExperienceIntermediate,
			targets: entities.Parameters{ParamNozzleTemp: 215, ParamPrintSpeed: 200},
			want:    entities.Parameters{ParamNozzleTemp: 215, ParamPrintSpeed: 200},
		},
		{
			name:        "intermediate reduces to 95 percent of max",
			exp:         values.ExperienceIntermediate,
			targets:     entities.Parameters{ParamNozzleTemp: 400, ParamAccel: 50000},
			want:        entities.Parameters{ParamNozzleTemp: 285, ParamAccel: 19000},
			wantClamped: true,
			wantDetails: []string{
				"Reduced accel to 19000 based on limits.",
				"Reduced nozzle_temp to 285 based on limits.",
			},
		},
		{
			name:        "beginner reduces to 85 percent and hides motion controls",
			exp:         values.ExperienceBeginner,
			targets:     entities.Parameters{ParamNozzleTemp: 400, ParamAccel: 50000, ParamJerk: 30},
			want:        entities.Parameters{ParamNozzleTemp: 255},
			wantHidden:  []string{ParamAccel, ParamJerk},
			wantClamped: true,
			wantDetails: []string{"Reduced nozzle_temp to 255 based on limits."},
		},
		{
			name:        "advanced clamps to the declared max",
			exp:         values.ExperienceAdvanced,
			targets:     entities.Parameters{ParamBedTemp: 150, ParamJerk: 30},
			want:        entities.Parameters{ParamBedTemp: 110, ParamJerk: 20},
			wantClamped: true,
			wantDetails: []string{
				"Reduced bed_temp to 110 based on limits.",
				"Reduced jerk to 20 based on limits.",
			},
		},
		{
			name:        "raises to lowest preset minimum",
			exp:         values.ExperienceAdvanced,
			targets:     entities.Parameters{ParamNozzleTemp: 100, ParamBedTemp: 10},
			want:        entities.Parameters{ParamNozzleTemp: 190, ParamBedTemp: 45},
			wantClamped: true,
			wantDetails: []string{
				"Raised bed_temp to machine minimum 45.",
				"Raised nozzle_temp to machine minimum 190.",
			},
		},
		{
			name:    "unknown parameter is unbounded for advanced",
			exp:     values.ExperienceAdvanced,
			targets: entities.Parameters{"mystery_param": 1e6},
			want:    entities.Parameters{"mystery_param": 1e6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSafetyClamp().ClampToMachine(bambuP1S(), tt.targets, tt.exp)

			assert.Equal(t, tt.want, got.Parameters)
			if tt.wantHidden == nil {
				assert.Empty(t, got.HiddenParameters)
			} else {
				assert.Equal(t, tt.wantHidden, got.HiddenParameters)
			}
			assert.Equal(t, tt.wantClamped, got.ClampedToMachineLimits)
			assert.Equal(t, tt.exp, got.ExperienceLevel)
			require.NotEmpty(t, got.Explanations)
			assert.Equal(t, PolicyFor(tt.exp).Note, got.Explanations[0])
			if tt.wantDetails == nil {
				assert.Empty(t, got.Details())
			} else {
				assert.Equal(t, tt.wantDetails, got.Details())
			}
		})
	}
}

func TestSafetyClamp_Idempotent(t *testing.T) {
	machines := []*entities.MachineProfile{bambuP1S(), enderBedslinger(), marsResin(), shapeoko(values.RigidityHobby)}
	targets := entities.Parameters{
		ParamNozzleTemp:         999,
		ParamBedTemp:            -5,
		ParamFanSpeed:           120,
		ParamFlowRate:           70,
		ParamPrintSpeed:         333.3333,
		ParamTravelSpeed:        1,
		ParamAccel:              12345.6789,
		ParamJerk:               100,
		ParamRetractionDistance: 0.05,
		ParamExposureTime:       9.87654,
		ParamLiftSpeed:          0,
		ParamSpindleRPM:         100000,
		ParamFeedRate:           7777.7,
		ParamDepthOfCut:         9,
		ParamStepover:           0,
	}

	c := NewSafetyClamp()
	for _, m := range machines {
		for _, exp := range values.AllExperiences() {
			t.Run(m.ID+"/"+exp.String(), func(t *testing.T) {
				once := c.ClampToMachine(m, targets, exp)
				twice := c.ClampToMachine(m, once.Parameters, exp)

				assert.Equal(t, once.Parameters, twice.Parameters)
				assert.False(t, twice.ClampedToMachineLimits)
				assert.Empty(t, twice.Details())
			})
		}
	}
}

func TestSafetyClamp_VisibilityMonotonic(t *testing.T) {
	targets := entities.Parameters{}
	for _, p := range []string{
		ParamNozzleTemp, ParamBedTemp, ParamFanSpeed, ParamFlowRate, ParamPrintSpeed,
		ParamTravelSpeed, ParamAccel, ParamJerk, ParamRetractionDistance,
		ParamExposureTime, ParamLiftSpeed, ParamSpindleRPM, ParamFeedRate,
		ParamDepthOfCut, ParamStepover, "mystery_param",
	} {
		targets[p] = 1
	}

	c := NewSafetyClamp()
	m := bambuP1S()
	beginner := c.ClampToMachine(m, targets, values.ExperienceBeginner)
	intermediate := c.ClampToMachine(m, targets, values.ExperienceIntermediate)
	advanced := c.ClampToMachine(m, targets, values.ExperienceAdvanced)

	assert.Subset(t, beginner.HiddenParameters, intermediate.HiddenParameters)
	assert.Subset(t, intermediate.HiddenParameters, advanced.HiddenParameters)
	assert.Empty(t, advanced.HiddenParameters)
	assert.Contains(t, beginner.HiddenParameters, ParamTravelSpeed)
	assert.Contains(t, intermediate.HiddenParameters, ParamJerk)
	assert.Contains(t, intermediate.HiddenParameters, "mystery_param")

	for name := range targets {
		_, visible := beginner.Parameters[name]
		assert.NotEqual(t, visible, beginner.IsHidden(name), name)
	}
}

func TestSafetyClamp_Bounds(t *testing.T) {
	c := NewSafetyClamp()

	tests := []struct {
		name    string
		machine *entities.MachineProfile
		param   string
		lo, hi  *float64
	}{
		{"nozzle", bambuP1S(), ParamNozzleTemp, ptr(190), ptr(300)},
		{"fan", bambuP1S(), ParamFanSpeed, ptr(0), ptr(100)},
		{"flow", bambuP1S(), ParamFlowRate, ptr(80), ptr(120)},
		{"retraction", bambuP1S(), ParamRetractionDistance, ptr(0.2), ptr(8)},
		{"exposure on fdm", bambuP1S(), ParamExposureTime, nil, nil},
		{"exposure", marsResin(), ParamExposureTime, ptr(1), ptr(4)},
		{"lift", marsResin(), ParamLiftSpeed, ptr(30), ptr(120)},
		{"feed", shapeoko(values.RigidityHobby), ParamFeedRate, ptr(100), ptr(5000)},
		{"doc hobby", shapeoko(values.RigidityHobby), ParamDepthOfCut, ptr(0.1), ptr(2)},
		{"doc industrial", shapeoko(values.RigidityIndustrial), ParamDepthOfCut, ptr(0.1), ptr(8)},
		{"stepover", shapeoko(values.RigidityHobby), ParamStepover, ptr(1), ptr(60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := c.Bounds(tt.machine, tt.param)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}

func TestSafetyClamp_FractionalBounds(t *testing.T) {
	m := marsResin()
	m.Kind.(*entities.VatPhotopolymer).ExposureS = rng(1.5, 3.3)

	got := NewSafetyClamp().ClampToMachine(m, entities.Parameters{ParamExposureTime: 10}, values.ExperienceBeginner)
	assert.Equal(t, 2.805, got.Parameters[ParamExposureTime])
	assert.Equal(t, []string{"Reduced exposure_time to 2.805 based on limits."}, got.Details())
}
