package output

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/tuneforge/tuneforge/internal/application/dto"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/services"
)

// YAMLFormatter formats results as YAML.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// FormatAnalysis writes the analysis as YAML.
func (f *YAMLFormatter) FormatAnalysis(resp *dto.AnalyzeResponse) error {
	return f.encode(resp)
}

// FormatClamp writes the clamp result as YAML.
func (f *YAMLFormatter) FormatClamp(resp *dto.ClampResponse) error {
	return f.encode(resp)
}

// FormatMachines writes the machine list as a YAML sequence.
func (f *YAMLFormatter) FormatMachines(machines []entities.MachineSummary) error {
	if machines == nil {
		machines = []entities.MachineSummary{}
	}
	return f.encode(machines)
}

// FormatMachine writes one machine as YAML.
func (f *YAMLFormatter) FormatMachine(machine entities.MachineSummary) error {
	return f.encode(machine)
}

// FormatDiff writes the slicer diff as YAML.
func (f *YAMLFormatter) FormatDiff(diff services.ProfileDiff) error {
	return f.encode(diff)
}

func (f *YAMLFormatter) encode(v any) error {
	encoder := yaml.NewEncoder(f.writer, yaml.Indent(2))

	if err := encoder.Encode(v); err != nil {
		return err
	}

	return encoder.Close()
}
