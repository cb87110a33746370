package entities

import (
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// Prediction is one detected issue handed over by the upstream inference stage.
// Confidence is in [0,1]. Lists are neither sorted nor deduplicated.
type Prediction struct {
	IssueID    string  `json:"issue_id" yaml:"issue_id"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Parameters maps canonical parameter names (nozzle_temp, feed_rate, ...) to values.
type Parameters map[string]float64

// Clone returns an independent copy.
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Change is a single parameter adjustment inside a Suggestion.
// Delta is nil when the parameter has no baseline (for example advisory flags).
type Change struct {
	Param     string   `json:"param" yaml:"param"`
	NewTarget float64  `json:"new_target" yaml:"new_target"`
	Unit      string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Delta     *float64 `json:"delta,omitempty" yaml:"delta,omitempty"`
	RangeHint *Range   `json:"range_hint,omitempty" yaml:"range_hint,omitempty"`
}

// Suggestion bundles the changes proposed for one detected issue.
type Suggestion struct {
	IssueID                string      `json:"issue_id" yaml:"issue_id"`
	Changes                []Change    `json:"changes" yaml:"changes"`
	Why                    string      `json:"why" yaml:"why"`
	Risk                   values.Risk `json:"risk" yaml:"risk"`
	Confidence             float64     `json:"confidence" yaml:"confidence"`
	BeginnerNote           string      `json:"beginner_note,omitempty" yaml:"beginner_note,omitempty"`
	AdvancedNote           string      `json:"advanced_note,omitempty" yaml:"advanced_note,omitempty"`
	ClampedToMachineLimits bool        `json:"clamped_to_machine_limits" yaml:"clamped_to_machine_limits"`
}

// Change returns the change for param, if present.
func (s *Suggestion) Change(param string) (Change, bool) {
	for _, c := range s.Changes {
		if c.Param == param {
			return c, true
		}
	}
	return Change{}, false
}

// AppliedResult is the outcome of clamping a parameter set to a machine.
// Explanations[0] is a summary of the experience policy; the rest name
// individual parameters that were bounded.
type AppliedResult struct {
	Parameters             Parameters        `json:"parameters" yaml:"parameters"`
	HiddenParameters       []string          `json:"hidden_parameters" yaml:"hidden_parameters"`
	ExperienceLevel        values.Experience `json:"experience_level" yaml:"experience_level"`
	ClampedToMachineLimits bool              `json:"clamped_to_machine_limits" yaml:"clamped_to_machine_limits"`
	Explanations           []string          `json:"explanations" yaml:"explanations"`
}

// Details returns the parameter-specific explanations, skipping the summary line.
func (a *AppliedResult) Details() []string {
	if len(a.Explanations) <= 1 {
		return nil
	}
	return a.Explanations[1:]
}

// IsHidden reports whether param was withheld for the experience level.
func (a *AppliedResult) IsHidden(param string) bool {
	for _, h := range a.HiddenParameters {
		if h == param {
			return true
		}
	}
	return false
}
