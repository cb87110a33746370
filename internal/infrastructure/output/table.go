package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/tuneforge/tuneforge/internal/application/dto"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/services"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// TableFormatter formats results as human-readable text.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer:      w,
		EnableColor: true, // Default to true, caller can disable
	}
}

// colorize returns the string wrapped in ANSI color codes if enabled.
func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

func (f *TableFormatter) rule() string {
	return f.colorize(strings.Repeat("─", 80), colorGray)
}

// FormatAnalysis writes suggestions, the applied parameter set and the slicer diff.
//
//nolint:errcheck // Table formatting errors are non-critical (best-effort terminal output)
func (f *TableFormatter) FormatAnalysis(resp *dto.AnalyzeResponse) error {
	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintf(f.writer, "Machine: %s (%s)\n", f.colorize(displayName(resp.Machine), colorBold), resp.Machine.ID)
	fmt.Fprintf(f.writer, "Experience: %s\n", resp.Experience)
	if resp.Material != "" {
		fmt.Fprintf(f.writer, "Material: %s\n", resp.Material)
	}
	fmt.Fprintf(f.writer, "Analysis: %s\n", resp.AnalysisID)
	fmt.Fprintln(f.writer)

	if resp.LowConfidence {
		fmt.Fprintln(f.writer, f.colorize("! Detection confidence is low; consider retaking the photo.", colorYellow))
		fmt.Fprintln(f.writer)
	}

	if len(resp.Suggestions) == 0 {
		fmt.Fprintln(f.writer, "No suggestions.")
	} else {
		fmt.Fprintln(f.writer, f.colorize("Suggestions:", colorBold))
		fmt.Fprintln(f.writer, f.rule())
		for _, s := range resp.Suggestions {
			f.formatSuggestion(s, resp.Experience)
		}
	}

	fmt.Fprintln(f.writer, f.rule())
	f.formatApplied(resp.Applied)

	if len(resp.SlicerProfileDiff.Parameters) > 0 {
		fmt.Fprintln(f.writer)
		fmt.Fprintln(f.writer, resp.SlicerProfileDiff.Markdown)
	}
	return nil
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatSuggestion(s entities.Suggestion, level values.Experience) {
	risk := f.colorize(strings.ToUpper(s.Risk.String()), riskColor(s.Risk))
	fmt.Fprintf(f.writer, "● %s  confidence %s  risk %s\n",
		f.colorize(s.IssueID, colorCyan), formatValue(s.Confidence), risk)
	if s.Why != "" {
		fmt.Fprintf(f.writer, "  Why: %s\n", s.Why)
	}

	for _, c := range s.Changes {
		line := fmt.Sprintf("    - %s → %s", c.Param, withUnit(c.NewTarget, c.Unit))
		if c.Delta != nil {
			line += fmt.Sprintf(" (%s)", signed(*c.Delta))
		}
		if c.RangeHint != nil {
			line += fmt.Sprintf(" [%s..%s]", formatValue(c.RangeHint.Min), formatValue(c.RangeHint.Max))
		}
		fmt.Fprintln(f.writer, line)
	}

	note := s.AdvancedNote
	if level == values.ExperienceBeginner || note == "" {
		note = s.BeginnerNote
	}
	if note != "" {
		fmt.Fprintf(f.writer, "  Note: %s\n", note)
	}
	if s.ClampedToMachineLimits {
		fmt.Fprintf(f.writer, "  %s\n", f.colorize("Clamped to machine limits", colorYellow))
	}
	fmt.Fprintln(f.writer)
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatApplied(applied entities.AppliedResult) {
	fmt.Fprintf(f.writer, "%s (%s):\n", f.colorize("Applied parameters", colorBold), applied.ExperienceLevel)

	if len(applied.Parameters) == 0 {
		fmt.Fprintln(f.writer, "  (none)")
	} else {
		tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
		for _, name := range sortedKeys(applied.Parameters) {
			fmt.Fprintf(tw, "  %s\t%s\n", name, formatValue(applied.Parameters[name]))
		}
		tw.Flush()
	}

	if len(applied.HiddenParameters) > 0 {
		fmt.Fprintf(f.writer, "  Hidden: %s\n", strings.Join(applied.HiddenParameters, ", "))
	}
	for _, e := range applied.Explanations {
		fmt.Fprintf(f.writer, "  - %s\n", e)
	}
}

// FormatClamp writes a bounded parameter set.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatClamp(resp *dto.ClampResponse) error {
	fmt.Fprintf(f.writer, "Machine: %s (%s)\n", f.colorize(displayName(resp.Machine), colorBold), resp.Machine.ID)
	fmt.Fprintln(f.writer, f.rule())
	f.formatApplied(resp.Applied)
	return nil
}

// FormatMachines writes one row per machine.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatMachines(machines []entities.MachineSummary) error {
	if len(machines) == 0 {
		fmt.Fprintln(f.writer, "No machines found.")
		return nil
	}

	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBRAND\tMODEL\tCATEGORY\tALIASES")
	for _, m := range machines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Brand, m.Model, m.Category, strings.Join(m.Aliases, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(f.writer, "\n%d machine(s)\n", len(machines))
	return nil
}

// FormatMachine writes the details of one machine.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatMachine(m entities.MachineSummary) error {
	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintf(f.writer, "%s (%s)\n", f.colorize(displayName(m), colorBold), m.ID)
	fmt.Fprintln(f.writer, f.rule())
	fmt.Fprintf(f.writer, "  Category: %s\n", m.Category)
	if m.MotionSystem != "" {
		fmt.Fprintf(f.writer, "  Motion: %s\n", m.MotionSystem)
	}
	fmt.Fprintf(f.writer, "  Enclosed: %t\n", m.Enclosed)
	if len(m.Aliases) > 0 {
		fmt.Fprintf(f.writer, "  Aliases: %s\n", strings.Join(m.Aliases, ", "))
	}
	if len(m.Materials) > 0 {
		fmt.Fprintf(f.writer, "  Materials: %s\n", strings.Join(m.Materials, ", "))
	}
	if m.MaxNozzleTempC != nil {
		fmt.Fprintf(f.writer, "  Max nozzle: %s °C\n", formatValue(*m.MaxNozzleTempC))
	}
	if m.MaxBedTempC != nil {
		fmt.Fprintf(f.writer, "  Max bed: %s °C\n", formatValue(*m.MaxBedTempC))
	}
	if m.MaxFeedMMMin != nil {
		fmt.Fprintf(f.writer, "  Max feed: %s mm/min\n", formatValue(*m.MaxFeedMMMin))
	}
	if m.RigidityClass != "" {
		fmt.Fprintf(f.writer, "  Rigidity: %s\n", m.RigidityClass)
	}

	if len(m.SafeRanges) > 0 {
		fmt.Fprintln(f.writer, "  Safe ranges:")
		names := make([]string, 0, len(m.SafeRanges))
		for name := range m.SafeRanges {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r := m.SafeRanges[name]
			fmt.Fprintf(f.writer, "    %s: %s..%s\n", name, formatValue(r.Min), formatValue(r.Max))
		}
	}

	var supported []string
	for flag, on := range m.Supports {
		if on {
			supported = append(supported, flag)
		}
	}
	if len(supported) > 0 {
		sort.Strings(supported)
		fmt.Fprintf(f.writer, "  Supports: %s\n", strings.Join(supported, ", "))
	}
	return nil
}

// FormatDiff writes the Markdown rendering of a slicer diff.
func (f *TableFormatter) FormatDiff(diff services.ProfileDiff) error {
	_, err := fmt.Fprintln(f.writer, diff.Markdown)
	return err
}

func displayName(m entities.MachineSummary) string {
	name := strings.TrimSpace(m.Brand + " " + m.Model)
	if name == "" {
		return m.ID
	}
	return name
}

func riskColor(r values.Risk) string {
	switch r {
	case values.RiskHigh:
		return colorRed
	case values.RiskMedium:
		return colorYellow
	default:
		return colorGreen
	}
}

func sortedKeys(p entities.Parameters) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func signed(v float64) string {
	if v > 0 {
		return "+" + formatValue(v)
	}
	return formatValue(v)
}

func withUnit(v float64, unit string) string {
	if unit == "" {
		return formatValue(v)
	}
	return formatValue(v) + " " + unit
}
