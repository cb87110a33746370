package services

import (
	"strings"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// Low-confidence fallback thresholds.
const (
	MinTrustedConfidence    = 0.5
	GeneralTuningConfidence = 0.45
)

// PlanResult is the full output of one planning run.
type PlanResult struct {
	Suggestions   []entities.Suggestion
	LowConfidence bool
	// Applied is the clamp result for every clamped target across all suggestions.
	// Later suggestions override earlier ones for the same parameter.
	Applied entities.AppliedResult
}

// SuggestionPlanner turns detected issues into bounded parameter changes for
// one machine, material and experience level. A planner is cheap to build and
// meant to be used for a single request.
type SuggestionPlanner struct {
	machine    *entities.MachineProfile
	material   string
	experience values.Experience
	rules      []IssueRule
	deriver    *BaselineDeriver
	clamp      *SafetyClamp

	baseline entities.Parameters
}

// PlannerOption configures a SuggestionPlanner.
type PlannerOption func(*SuggestionPlanner)

// WithRules replaces the default rule table.
func WithRules(rules []IssueRule) PlannerOption {
	return func(p *SuggestionPlanner) {
		p.rules = rules
	}
}

// WithSafetyClamp injects the clamp engine.
func WithSafetyClamp(clamp *SafetyClamp) PlannerOption {
	return func(p *SuggestionPlanner) {
		p.clamp = clamp
	}
}

// WithBaselineDeriver injects the baseline deriver.
func WithBaselineDeriver(deriver *BaselineDeriver) PlannerOption {
	return func(p *SuggestionPlanner) {
		p.deriver = deriver
	}
}

// NewSuggestionPlanner creates a planner for machine. An empty material means PLA.
func NewSuggestionPlanner(
	machine *entities.MachineProfile,
	material string,
	experience values.Experience,
	opts ...PlannerOption,
) *SuggestionPlanner {
	p := &SuggestionPlanner{
		machine:    machine,
		material:   NormalizeMaterial(material),
		experience: PolicyFor(experience).Level,
		rules:      DefaultRules(),
		deriver:    NewBaselineDeriver(),
		clamp:      NewSafetyClamp(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Material returns the normalized material name.
func (p *SuggestionPlanner) Material() string {
	return p.material
}

// Experience returns the effective experience level.
func (p *SuggestionPlanner) Experience() values.Experience {
	return p.experience
}

// Baseline returns the cached baseline, deriving it on first use.
func (p *SuggestionPlanner) Baseline() entities.Parameters {
	if p.baseline == nil {
		p.baseline = p.deriver.Derive(p.machine, p.material)
	}
	return p.baseline
}

// Plan returns one suggestion per prediction and whether the low-confidence
// fallback was used.
func (p *SuggestionPlanner) Plan(predictions []entities.Prediction) ([]entities.Suggestion, bool) {
	result := p.Run(predictions)
	return result.Suggestions, result.LowConfidence
}

// Run plans predictions and also computes the aggregate applied parameters.
func (p *SuggestionPlanner) Run(predictions []entities.Prediction) PlanResult {
	var (
		suggestions []entities.Suggestion
		aggregate   = entities.Parameters{}
	)

	emit := func(pred entities.Prediction, rule IssueRule) {
		outcome := rule.Apply(p.ruleContext())
		suggestions = append(suggestions, p.buildSuggestion(pred, outcome))
		for _, adj := range outcome.Adjustments {
			if adj.RequiresClamp {
				aggregate[adj.Param] = adj.Target
			}
		}
	}

	lowConfidence := isLowConfidence(predictions)
	if lowConfidence {
		emit(entities.Prediction{IssueID: GeneralTuningIssue, Confidence: GeneralTuningConfidence}, GeneralRule())
	} else {
		for _, pred := range predictions {
			emit(pred, SelectRule(p.rules, pred.IssueID))
		}
	}

	return PlanResult{
		Suggestions:   suggestions,
		LowConfidence: lowConfidence,
		Applied:       p.clamp.ClampToMachine(p.machine, aggregate, p.experience),
	}
}

func isLowConfidence(predictions []entities.Prediction) bool {
	for _, pred := range predictions {
		if pred.Confidence >= MinTrustedConfidence {
			return false
		}
	}
	return true
}

func (p *SuggestionPlanner) ruleContext() RuleContext {
	return RuleContext{
		Machine:  p.machine,
		Material: p.material,
		Baseline: p.Baseline(),
	}
}

func (p *SuggestionPlanner) buildSuggestion(pred entities.Prediction, outcome RuleOutcome) entities.Suggestion {
	targets := entities.Parameters{}
	for _, adj := range outcome.Adjustments {
		if adj.RequiresClamp {
			targets[adj.Param] = adj.Target
		}
	}
	applied := p.clamp.ClampToMachine(p.machine, targets, p.experience)
	baseline := p.Baseline()

	changes := make([]entities.Change, 0, len(outcome.Adjustments))
	for _, adj := range outcome.Adjustments {
		target := adj.Target
		if adj.RequiresClamp {
			clamped, visible := applied.Parameters[adj.Param]
			if !visible {
				continue
			}
			target = clamped
		}

		change := entities.Change{
			Param:     adj.Param,
			NewTarget: target,
			Unit:      adj.Unit,
			RangeHint: adj.RangeHint,
		}
		if base, ok := baseline[adj.Param]; ok {
			delta := round3(target - base)
			change.Delta = &delta
		}
		changes = append(changes, change)
	}

	why := outcome.Why
	if details := applied.Details(); len(details) > 0 {
		why += " " + strings.Join(details, " ")
	}

	return entities.Suggestion{
		IssueID:                pred.IssueID,
		Changes:                changes,
		Why:                    why,
		Risk:                   outcome.Risk,
		Confidence:             pred.Confidence,
		BeginnerNote:           outcome.BeginnerNote,
		AdvancedNote:           outcome.AdvancedNote,
		ClampedToMachineLimits: applied.ClampedToMachineLimits,
	}
}
