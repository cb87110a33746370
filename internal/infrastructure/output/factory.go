// Package output renders analysis results, machine listings and slicer
// diffs for the terminal or for other programs.
package output

import (
	"fmt"
	"io"

	"github.com/tuneforge/tuneforge/internal/application/dto"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/services"
)

// Formatter writes command results in one output format.
type Formatter interface {
	FormatAnalysis(resp *dto.AnalyzeResponse) error
	FormatClamp(resp *dto.ClampResponse) error
	FormatMachines(machines []entities.MachineSummary) error
	FormatMachine(machine entities.MachineSummary) error
	FormatDiff(diff services.ProfileDiff) error
}

// Options tune formatter behaviour.
type Options struct {
	// Indent pretty-prints JSON output.
	Indent bool
	// Color enables ANSI colors in table output.
	Color bool
}

// FormatterFactory creates formatters by name.
type FormatterFactory struct{}

// NewFormatterFactory creates a new formatter factory.
func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

// Create returns a formatter for the given format name.
func (f *FormatterFactory) Create(format string, writer io.Writer, options Options) (Formatter, error) {
	switch format {
	case "table":
		tf := NewTableFormatter(writer)
		tf.EnableColor = options.Color
		return tf, nil
	case "json":
		return NewJSONFormatter(writer, options.Indent), nil
	case "yaml":
		return NewYAMLFormatter(writer), nil
	default:
		return nil, fmt.Errorf(
			"unknown format: %s (supported: %v)",
			format, f.SupportedFormats(),
		)
	}
}

// SupportedFormats returns list of available format names.
func (f *FormatterFactory) SupportedFormats() []string {
	return []string{"table", "json", "yaml"}
}
