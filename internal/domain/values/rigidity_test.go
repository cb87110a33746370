package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRigidityClass(t *testing.T) {
	tests := []struct {
		input string
		want  RigidityClass
	}{
		{"hobby", RigidityHobby},
		{"", RigidityHobby},
		{" Hobby-Pro ", RigidityHobbyPro},
		{"light industrial", RigidityLightIndustrial},
		{"INDUSTRIAL", RigidityIndustrial},
		{"garage", RigidityClass("garage")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRigidityClass(tt.input))
		})
	}
}

func TestRigidityClass_DepthOfCut(t *testing.T) {
	tests := []struct {
		class       RigidityClass
		wantDefault float64
		wantMax     float64
	}{
		{RigidityHobby, 2, 2},
		{RigidityHobbyPro, 2, 3},
		{RigidityLightIndustrial, 3, 5},
		{RigidityIndustrial, 4, 8},
		{RigidityClass("garage"), 2, 3},
		{RigidityClass("light"), 3, 3},
		{RigidityClass("light_duty"), 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			assert.Equal(t, tt.wantDefault, tt.class.DefaultDepthOfCut())
			assert.Equal(t, tt.wantMax, tt.class.MaxDepthOfCut())
			assert.LessOrEqual(t, tt.class.DefaultDepthOfCut(), tt.class.MaxDepthOfCut())
		})
	}
}
