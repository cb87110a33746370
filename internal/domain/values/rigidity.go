package values

import "strings"

// RigidityClass is a coarse stiffness rating for subtractive machines.
// Unknown classes are kept verbatim and fall back to conservative limits.
type RigidityClass string

const (
	RigidityHobby           RigidityClass = "hobby"
	RigidityHobbyPro        RigidityClass = "hobby_pro"
	RigidityLightIndustrial RigidityClass = "light_industrial"
	RigidityIndustrial      RigidityClass = "industrial"
)

// NewRigidityClass normalizes a rigidity tag. Empty input means hobby.
func NewRigidityClass(s string) RigidityClass {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if key == "" {
		return RigidityHobby
	}
	return RigidityClass(key)
}

// DefaultDepthOfCut is the starting depth of cut in mm. Unlisted classes are
// matched by keyword, so "light" rates like light_industrial.
func (r RigidityClass) DefaultDepthOfCut() float64 {
	switch {
	case r == RigidityLightIndustrial:
		return 3.0
	case strings.Contains(string(r), "industrial"):
		return 4.0
	case strings.Contains(string(r), "light"):
		return 3.0
	default:
		return 2.0
	}
}

// MaxDepthOfCut is the safe upper bound for depth of cut in mm.
func (r RigidityClass) MaxDepthOfCut() float64 {
	switch r {
	case RigidityHobby:
		return 2.0
	case RigidityHobbyPro:
		return 3.0
	case RigidityLightIndustrial:
		return 5.0
	case RigidityIndustrial:
		return 8.0
	default:
		return 3.0
	}
}

func (r RigidityClass) String() string {
	return string(r)
}
