package output

import (
	"encoding/json"
	"io"

	"github.com/tuneforge/tuneforge/internal/application/dto"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/services"
)

// JSONFormatter formats results as JSON.
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSON formatter.
// If indent is true, the output will be pretty-printed with indentation.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{
		writer: w,
		indent: indent,
	}
}

// FormatAnalysis writes the analysis as JSON.
func (f *JSONFormatter) FormatAnalysis(resp *dto.AnalyzeResponse) error {
	return f.write(resp)
}

// FormatClamp writes the clamp result as JSON.
func (f *JSONFormatter) FormatClamp(resp *dto.ClampResponse) error {
	return f.write(resp)
}

// FormatMachines writes the machine list as a JSON array.
func (f *JSONFormatter) FormatMachines(machines []entities.MachineSummary) error {
	if machines == nil {
		machines = []entities.MachineSummary{}
	}
	return f.write(machines)
}

// FormatMachine writes one machine as JSON.
func (f *JSONFormatter) FormatMachine(machine entities.MachineSummary) error {
	return f.write(machine)
}

// FormatDiff writes the slicer diff as JSON.
func (f *JSONFormatter) FormatDiff(diff services.ProfileDiff) error {
	return f.write(diff)
}

func (f *JSONFormatter) write(v any) error {
	var data []byte
	var err error

	if f.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	if _, err = f.writer.Write(data); err != nil {
		return err
	}

	_, err = f.writer.Write([]byte("\n"))
	return err
}
