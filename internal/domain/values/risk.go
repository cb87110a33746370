package values

import (
	"fmt"
	"strings"
)

// Risk describes how likely a suggestion is to make things worse if applied blindly.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// NewRisk normalizes casing and whitespace ("Low", " MEDIUM ") into a Risk.
func NewRisk(s string) (Risk, error) {
	r := Risk(strings.ToLower(strings.TrimSpace(s)))
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// Validate returns an error if the risk value is invalid
func (r Risk) Validate() error {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return nil
	default:
		return fmt.Errorf("invalid risk: %q", string(r))
	}
}

// Level returns the numeric risk level (for ordering)
func (r Risk) Level() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

func (r Risk) String() string {
	return string(r)
}

// UnmarshalText implements encoding.TextUnmarshaler so loosely cased input
// is normalized at the boundary.
func (r *Risk) UnmarshalText(text []byte) error {
	risk, err := NewRisk(string(text))
	if err != nil {
		return err
	}
	*r = risk
	return nil
}
