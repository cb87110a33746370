package services

import (
	"strings"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// GeneralTuningIssue is the synthetic issue used when no prediction is trustworthy.
const GeneralTuningIssue = "general_tuning"

// Adjustment is a raw proposal produced by a rule before clamping.
type Adjustment struct {
	Param     string
	Target    float64
	Unit      string
	RangeHint *entities.Range
	// RequiresClamp routes the target through the SafetyClamp. Advisory flags skip it.
	RequiresClamp bool
}

// RuleOutcome is what an issue rule contributes to a Suggestion.
type RuleOutcome struct {
	Adjustments  []Adjustment
	Risk         values.Risk
	Why          string
	BeginnerNote string
	AdvancedNote string
}

// RuleContext is the read-only input every rule sees.
type RuleContext struct {
	Machine  *entities.MachineProfile
	Material string
	Baseline entities.Parameters
}

// offset proposes baseline[param] + delta. A parameter missing from the
// baseline contributes nothing.
func (c RuleContext) offset(param string, delta float64, unit string, lo, hi float64) []Adjustment {
	base, ok := c.Baseline[param]
	if !ok {
		return nil
	}
	return []Adjustment{{Param: param, Target: base + delta, Unit: unit, RangeHint: hint(lo, hi), RequiresClamp: true}}
}

// scale proposes baseline[param] * factor.
func (c RuleContext) scale(param string, factor float64, unit string, lo, hi float64) []Adjustment {
	base, ok := c.Baseline[param]
	if !ok {
		return nil
	}
	return []Adjustment{{Param: param, Target: base * factor, Unit: unit, RangeHint: hint(lo, hi), RequiresClamp: true}}
}

// absolute proposes a fixed value for a parameter the baseline knows about.
func (c RuleContext) absolute(param string, target float64, unit string, lo, hi float64) []Adjustment {
	if _, ok := c.Baseline[param]; !ok {
		return nil
	}
	return []Adjustment{{Param: param, Target: target, Unit: unit, RangeHint: hint(lo, hi), RequiresClamp: true}}
}

func hint(lo, hi float64) *entities.Range {
	return &entities.Range{Min: lo, Max: hi}
}

func collect(groups ...[]Adjustment) []Adjustment {
	var out []Adjustment
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// IssueRule pairs a predicate over issue identifiers with the rule to run.
type IssueRule struct {
	Name    string
	Matches func(issueID string) bool
	Apply   func(RuleContext) RuleOutcome
}

func containsFold(fragment string) func(string) bool {
	return func(issueID string) bool {
		return strings.Contains(strings.ToLower(issueID), fragment)
	}
}

// DefaultRules returns the rule table in evaluation order. The first rule whose
// predicate matches wins; GeneralRule handles everything else.
func DefaultRules() []IssueRule {
	return []IssueRule{
		{Name: "stringing", Matches: containsFold("string"), Apply: stringingRule},
		{Name: "under_extrusion", Matches: containsFold("under"), Apply: underExtrusionRule},
		{Name: "ringing", Matches: containsFold("ring"), Apply: ringingRule},
		{Name: "resin_peel", Matches: containsFold("peel"), Apply: resinPeelRule},
		{Name: "cnc_chatter", Matches: containsFold("chatter"), Apply: cncChatterRule},
	}
}

// GeneralRule is the fallback best-practice rule.
func GeneralRule() IssueRule {
	return IssueRule{
		Name:    "general_best_practice",
		Matches: func(string) bool { return true },
		Apply:   generalBestPracticeRule,
	}
}

// SelectRule returns the first rule matching issueID, or GeneralRule.
func SelectRule(rules []IssueRule, issueID string) IssueRule {
	for _, r := range rules {
		if r.Matches(issueID) {
			return r
		}
	}
	return GeneralRule()
}

func stringingRule(c RuleContext) RuleOutcome {
	hasAMS := c.Machine.HasSupport("ams")

	adjustments := collect(
		c.offset(ParamNozzleTemp, -10, "C", -15, -5),
		c.offset(ParamRetractionDistance, 1, "mm", 0.5, 1.5),
		c.offset(ParamTravelSpeed, 10, "mm/s", 5, 20),
	)
	if c.Machine.Category() == values.CategoryFilamentExtrusion {
		drying := 1.0
		if hasAMS {
			drying = 0
		}
		adjustments = append(adjustments, Adjustment{Param: ParamDryingRecommendation, Target: drying})
	}

	why := "Stringing detected; reducing nozzle temperature and increasing retraction fights ooze."
	if !hasAMS {
		why += " Include filament drying to remove absorbed moisture."
	}

	return RuleOutcome{
		Adjustments:  adjustments,
		Risk:         values.RiskMedium,
		Why:          why,
		BeginnerNote: "Run a retraction test cube after lowering temperatures to confirm improvements.",
		AdvancedNote: "Consider pressure advance or linear advance tuning if your slicer supports it.",
	}
}

func underExtrusionRule(c RuleContext) RuleOutcome {
	advanced := "Run an extrusion multiplier calibration and inspect hotend for partial clogs."
	if c.Machine.HasSupport("idex") || strings.EqualFold(c.Machine.Motion(), "IDEX") {
		advanced += " Calibrate both toolheads to avoid mismatch between extruders."
	}

	return RuleOutcome{
		Adjustments: collect(
			c.offset(ParamNozzleTemp, 8, "C", 5, 10),
			c.scale(ParamPrintSpeed, 0.85, "mm/s", -20, -10),
			c.absolute(ParamFlowRate, 103, "%", 2, 5),
		),
		Risk:         values.RiskMedium,
		Why:          "Under-extrusion cues suggest raising melt capacity and slowing print speed for consistency.",
		BeginnerNote: "Verify extruder gears are clean before increasing temperatures or flow.",
		AdvancedNote: advanced,
	}
}

func ringingRule(c RuleContext) RuleOutcome {
	accelScale, jerkScale := 0.8, 0.85
	if strings.EqualFold(c.Machine.Motion(), entities.DefaultMotionSystem) {
		accelScale, jerkScale = 0.6, 0.65
	}

	why := "Ghosting is mitigated by reducing accelerations and jerk, scaled to the motion system."
	if c.Machine.HasSupport("input_shaping") {
		why += " Input shaping allows recovering speed after vibrations are controlled."
	}

	return RuleOutcome{
		Adjustments: collect(
			c.scale(ParamAccel, accelScale, "mm/s^2", -3000, -500),
			c.scale(ParamJerk, jerkScale, "mm/s", -8, -2),
			c.scale(ParamPrintSpeed, 0.9, "mm/s", -15, -5),
		),
		Risk:         values.RiskLow,
		Why:          why,
		BeginnerNote: "Tighten belts before lowering acceleration to keep motion crisp.",
		AdvancedNote: "Capture resonance data with input shaping or accelerometer tools if available.",
	}
}

func resinPeelRule(c RuleContext) RuleOutcome {
	return RuleOutcome{
		Adjustments: collect(
			c.scale(ParamLiftSpeed, 0.85, "mm/min", -20, -5),
			c.scale(ParamExposureTime, 1.1, "s", 5, 15),
		),
		Risk:         values.RiskMedium,
		Why:          "Peel artifacts benefit from slower lifts and slightly longer exposures to ensure adhesion.",
		BeginnerNote: "Check vat film tension before adjusting lift speeds.",
		AdvancedNote: "Balance exposure increases with resin manufacturer's recommended maximums.",
	}
}

func cncChatterRule(c RuleContext) RuleOutcome {
	return RuleOutcome{
		Adjustments: collect(
			c.scale(ParamFeedRate, 0.8, "mm/min", -25, -10),
			c.scale(ParamDepthOfCut, 0.7, "mm", -2, -0.5),
			c.scale(ParamSpindleRPM, 1.05, "rpm", 5, 10),
		),
		Risk:         values.RiskMedium,
		Why:          "Reducing feed and depth of cut while slightly increasing spindle RPM mitigates chatter.",
		BeginnerNote: "Ensure tool stick-out is minimized before cutting more slowly.",
		AdvancedNote: "Dial in adaptive clearing strategies to maintain consistent chip load.",
	}
}

func generalBestPracticeRule(c RuleContext) RuleOutcome {
	var adjustments []Adjustment
	if _, ok := c.Baseline[ParamNozzleTemp]; ok {
		adjustments = collect(
			c.offset(ParamNozzleTemp, 0, "C", 0, 0),
			c.offset(ParamBedTemp, 0, "C", 0, 0),
		)
	}

	return RuleOutcome{
		Adjustments:  adjustments,
		Risk:         values.RiskLow,
		Why:          "Providing general tuning baselines because the model returned low confidence.",
		BeginnerNote: "Re-run calibration prints (flow cube, temperature tower) to gather more data.",
		AdvancedNote: "Capture higher-resolution photos and include notes about materials for better results.",
	}
}
