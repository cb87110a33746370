package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// slicerKeys maps canonical parameter names to each slicer's profile keys.
// Parameters without an entry keep their canonical name.
var slicerKeys = map[values.Slicer]map[string]string{
	values.SlicerCura: {
		ParamNozzleTemp:         "material_print_temperature",
		ParamBedTemp:            "material_bed_temperature",
		ParamPrintSpeed:         "speed_print",
		ParamTravelSpeed:        "speed_travel",
		ParamAccel:              "acceleration_print",
		ParamJerk:               "jerk_print",
		ParamFlowRate:           "material_flow",
		ParamFanSpeed:           "cool_fan_speed",
		ParamRetractionDistance: "retraction_amount",
	},
	values.SlicerPrusaSlicer: {
		ParamNozzleTemp:         "temperature",
		ParamBedTemp:            "bed_temperature",
		ParamPrintSpeed:         "perimeter_speed",
		ParamTravelSpeed:        "travel_speed",
		ParamAccel:              "perimeter_acceleration",
		ParamJerk:               "perimeter_jerk",
		ParamFanSpeed:           "fan_speed",
		ParamRetractionDistance: "retract_length",
	},
	values.SlicerBambu: {
		ParamNozzleTemp:         "nozzle_temperature",
		ParamBedTemp:            "bed_temperature",
		ParamPrintSpeed:         "print_speed",
		ParamTravelSpeed:        "travel_speed",
		ParamAccel:              "max_acceleration",
		ParamJerk:               "max_jerk",
		ParamFanSpeed:           "cooling_fan_speed",
		ParamFlowRate:           "flow_ratio",
		ParamRetractionDistance: "retraction_distance",
	},
	values.SlicerOrca: {
		ParamNozzleTemp:         "nozzle_temperature",
		ParamBedTemp:            "build_plate_temperature",
		ParamPrintSpeed:         "default_printing_speed",
		ParamTravelSpeed:        "default_travel_speed",
		ParamAccel:              "default_acceleration",
		ParamJerk:               "default_jerk",
		ParamFanSpeed:           "fan_speed",
		ParamFlowRate:           "flow_ratio",
		ParamRetractionDistance: "retraction_length",
	},
}

var slicerTitles = map[values.Slicer]string{
	values.SlicerGeneric:     "Generic",
	values.SlicerCura:        "Cura",
	values.SlicerPrusaSlicer: "PrusaSlicer",
	values.SlicerBambu:       "Bambu Studio",
	values.SlicerOrca:        "OrcaSlicer",
}

// SlicerKey returns the slicer-specific key for a canonical parameter.
func SlicerKey(slicer values.Slicer, param string) string {
	if key, ok := slicerKeys[slicer][param]; ok {
		return key
	}
	return param
}

// DiffEntry is one parameter in a slicer profile diff.
type DiffEntry struct {
	Value     float64         `json:"value" yaml:"value"`
	Base      *float64        `json:"base,omitempty" yaml:"base,omitempty"`
	Unit      string          `json:"unit,omitempty" yaml:"unit,omitempty"`
	RangeHint *entities.Range `json:"range_hint,omitempty" yaml:"range_hint,omitempty"`
	Clamped   bool            `json:"clamped,omitempty" yaml:"clamped,omitempty"`
}

// ProfileDiff is a set of slicer-keyed changes plus a Markdown rendering.
type ProfileDiff struct {
	Slicer     values.Slicer        `json:"slicer" yaml:"slicer"`
	Parameters map[string]DiffEntry `json:"parameters" yaml:"parameters"`
	Markdown   string               `json:"markdown" yaml:"markdown"`
}

// SlicerExporter converts suggestions into slicer profile diffs.
type SlicerExporter struct{}

// NewSlicerExporter creates a new exporter.
func NewSlicerExporter() *SlicerExporter {
	return &SlicerExporter{}
}

// FromSuggestions builds a diff from every change in suggestions. When two
// suggestions touch the same parameter the later one wins. Entries equal to
// the base profile value (keyed by slicer key) are dropped.
func (e *SlicerExporter) FromSuggestions(
	suggestions []entities.Suggestion,
	slicer values.Slicer,
	base map[string]float64,
) ProfileDiff {
	diff := ProfileDiff{Slicer: slicer, Parameters: map[string]DiffEntry{}}

	for _, s := range suggestions {
		for _, c := range s.Changes {
			key := SlicerKey(slicer, c.Param)
			entry := DiffEntry{
				Value:     round3(c.NewTarget),
				Unit:      c.Unit,
				RangeHint: c.RangeHint,
				Clamped:   s.ClampedToMachineLimits,
			}
			e.put(&diff, key, entry, base)
		}
	}

	diff.Markdown = e.Render(diff)
	return diff
}

// FromParameters builds a diff from a flat canonical parameter map.
func (e *SlicerExporter) FromParameters(
	changes entities.Parameters,
	slicer values.Slicer,
	base map[string]float64,
) ProfileDiff {
	diff := ProfileDiff{Slicer: slicer, Parameters: map[string]DiffEntry{}}
	for param, value := range changes {
		e.put(&diff, SlicerKey(slicer, param), DiffEntry{Value: round3(value)}, base)
	}
	diff.Markdown = e.Render(diff)
	return diff
}

func (e *SlicerExporter) put(diff *ProfileDiff, key string, entry DiffEntry, base map[string]float64) {
	if baseValue, ok := base[key]; ok {
		if baseValue == entry.Value {
			delete(diff.Parameters, key)
			return
		}
		b := baseValue
		entry.Base = &b
	}
	diff.Parameters[key] = entry
}

// Render formats the diff as a Markdown bullet list sorted by key.
func (e *SlicerExporter) Render(diff ProfileDiff) string {
	title, ok := slicerTitles[diff.Slicer]
	if !ok {
		title = diff.Slicer.String()
	}

	lines := []string{fmt.Sprintf("# %s profile diff", title), ""}
	if len(diff.Parameters) == 0 {
		lines = append(lines, "No parameter changes were required.")
		return strings.Join(lines, "\n")
	}

	keys := make([]string, 0, len(diff.Parameters))
	for k := range diff.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry := diff.Parameters[key]
		value := formatNumber(entry.Value)
		if entry.Unit != "" {
			value += " " + entry.Unit
		}
		line := fmt.Sprintf("- **%s** → %s", key, value)
		if entry.Base != nil {
			line = fmt.Sprintf("- **%s**: %s → %s", key, formatNumber(*entry.Base), value)
		}
		if entry.Clamped {
			line += " (clamped to machine limits)"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
