package values

import (
	"fmt"
	"strings"
)

// Experience is the user's self-reported skill level. It gates which tunables
// are surfaced and how much headroom below machine maximums is kept.
type Experience string

const (
	ExperienceBeginner     Experience = "Beginner"
	ExperienceIntermediate Experience = "Intermediate"
	ExperienceAdvanced     Experience = "Advanced"
)

// DefaultExperience is used when a request does not state a level.
const DefaultExperience = ExperienceIntermediate

// AllExperiences lists the levels from least to most experienced.
func AllExperiences() []Experience {
	return []Experience{ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced}
}

// NewExperience parses an experience level case-insensitively.
// An empty string yields DefaultExperience.
func NewExperience(s string) (Experience, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return ExperienceBeginner, nil
	case "intermediate":
		return ExperienceIntermediate, nil
	case "advanced":
		return ExperienceAdvanced, nil
	case "":
		return DefaultExperience, nil
	default:
		return "", fmt.Errorf("invalid experience level: %q (valid: Beginner, Intermediate, Advanced)", s)
	}
}

// Rank returns 0 for Beginner, 1 for Intermediate, 2 for Advanced and -1 otherwise.
func (e Experience) Rank() int {
	switch e {
	case ExperienceBeginner:
		return 0
	case ExperienceIntermediate:
		return 1
	case ExperienceAdvanced:
		return 2
	default:
		return -1
	}
}

// AtLeast reports whether e is at or above other.
func (e Experience) AtLeast(other Experience) bool {
	return e.Rank() >= other.Rank()
}

// Validate returns an error if the experience value is invalid
func (e Experience) Validate() error {
	if e.Rank() < 0 {
		return fmt.Errorf("invalid experience level: %q", string(e))
	}
	return nil
}

func (e Experience) String() string {
	return string(e)
}
