package entities

import (
	"sort"
	"strings"

	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// NewRange builds a Range from a [low, ..., high] list, using the first and
// last entries. It returns false for an empty list.
func NewRange(bounds []float64) (Range, bool) {
	if len(bounds) == 0 {
		return Range{}, false
	}
	lo, hi := bounds[0], bounds[len(bounds)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return Range{Min: lo, Max: hi}, true
}

// Midpoint returns the center of the range.
func (r Range) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// MachineKind is the category-specific part of a machine profile.
// Exactly one of FilamentExtrusion, VatPhotopolymer or Subtractive.
type MachineKind interface {
	Category() values.MachineCategory
	isMachineKind()
}

// MaterialPreset holds the manufacturer's recommended ranges for one material.
type MaterialPreset struct {
	NozzleC *Range `json:"nozzle_c,omitempty" yaml:"nozzle_c,omitempty"`
	BedC    *Range `json:"bed_c,omitempty" yaml:"bed_c,omitempty"`
	FanPct  *Range `json:"fan_pct,omitempty" yaml:"fan_pct,omitempty"`
}

// FilamentExtrusion describes FDM/FFF printers.
type FilamentExtrusion struct {
	MaterialPresets map[string]MaterialPreset
	MaxNozzleTempC  *float64
	MaxBedTempC     *float64
	PrintSpeed      *Range
	TravelSpeed     *Range
	Accel           *Range
	Jerk            *Range
	NozzleDiameters []float64
	BuildVolumeMM   []float64
}

func (*FilamentExtrusion) Category() values.MachineCategory {
	return values.CategoryFilamentExtrusion
}

func (*FilamentExtrusion) isMachineKind() {}

// Preset returns the preset for material, falling back to PLA.
func (f *FilamentExtrusion) Preset(material string) (MaterialPreset, bool) {
	if p, ok := f.MaterialPresets[strings.ToUpper(material)]; ok {
		return p, true
	}
	p, ok := f.MaterialPresets["PLA"]
	return p, ok
}

// MinPresetLow returns the smallest lower bound selected by pick across all presets.
func (f *FilamentExtrusion) MinPresetLow(pick func(MaterialPreset) *Range) (float64, bool) {
	found := false
	var lowest float64
	for _, preset := range f.MaterialPresets {
		r := pick(preset)
		if r == nil {
			continue
		}
		if !found || r.Min < lowest {
			lowest = r.Min
			found = true
		}
	}
	return lowest, found
}

// VatPhotopolymer describes MSLA/SLA/DLP resin printers.
type VatPhotopolymer struct {
	ExposureS     *Range
	LiftMMMin     *Range
	BuildVolumeMM []float64
}

func (*VatPhotopolymer) Category() values.MachineCategory {
	return values.CategoryVatPhotopolymer
}

func (*VatPhotopolymer) isMachineKind() {}

// Subtractive describes CNC routers and mills.
type Subtractive struct {
	SpindleRPM   *Range
	MaxFeedMMMin *float64
	Rigidity     values.RigidityClass
	WorkAreaMM   []float64
}

func (*Subtractive) Category() values.MachineCategory {
	return values.CategorySubtractive
}

func (*Subtractive) isMachineKind() {}

// DefaultMotionSystem is assumed for filament machines that do not declare one.
const DefaultMotionSystem = "BedSlinger"

// MachineProfile is an immutable machine description loaded from configuration.
type MachineProfile struct {
	ID           string
	Brand        string
	Model        string
	Aliases      []string
	MotionSystem string
	Enclosed     bool
	Support      map[string]bool
	Capabilities []string
	Notes        string
	SourceFile   string
	Kind         MachineKind
}

// Category returns the machine's process family.
func (m *MachineProfile) Category() values.MachineCategory {
	if m.Kind == nil {
		return values.CategoryFilamentExtrusion
	}
	return m.Kind.Category()
}

// Motion returns the declared motion system, or DefaultMotionSystem.
func (m *MachineProfile) Motion() string {
	if m.MotionSystem == "" {
		return DefaultMotionSystem
	}
	return m.MotionSystem
}

// HasSupport reports whether a capability flag such as "ams" is enabled.
func (m *MachineProfile) HasSupport(flag string) bool {
	return m.Support[flag]
}

// DisplayName returns "Brand Model", or the ID when both are empty.
func (m *MachineProfile) DisplayName() string {
	name := strings.TrimSpace(m.Brand + " " + m.Model)
	if name == "" {
		return m.ID
	}
	return name
}

// MachineSummary is a read-only projection of a MachineProfile for listings.
type MachineSummary struct {
	ID             string                 `json:"id" yaml:"id"`
	Brand          string                 `json:"brand" yaml:"brand"`
	Model          string                 `json:"model" yaml:"model"`
	Aliases        []string               `json:"aliases" yaml:"aliases"`
	Category       values.MachineCategory `json:"category" yaml:"category"`
	MotionSystem   string                 `json:"motion_system,omitempty" yaml:"motion_system,omitempty"`
	Enclosed       bool                   `json:"enclosed" yaml:"enclosed"`
	Supports       map[string]bool        `json:"supports,omitempty" yaml:"supports,omitempty"`
	Capabilities   []string               `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Materials      []string               `json:"materials,omitempty" yaml:"materials,omitempty"`
	SafeRanges     map[string]Range       `json:"safe_ranges,omitempty" yaml:"safe_ranges,omitempty"`
	MaxNozzleTempC *float64               `json:"max_nozzle_temp_c,omitempty" yaml:"max_nozzle_temp_c,omitempty"`
	MaxBedTempC    *float64               `json:"max_bed_temp_c,omitempty" yaml:"max_bed_temp_c,omitempty"`
	MaxFeedMMMin   *float64               `json:"max_feed_mm_min,omitempty" yaml:"max_feed_mm_min,omitempty"`
	RigidityClass  string                 `json:"rigidity_class,omitempty" yaml:"rigidity_class,omitempty"`
}

// Summary projects the profile into a MachineSummary.
func (m *MachineProfile) Summary() MachineSummary {
	s := MachineSummary{
		ID:           m.ID,
		Brand:        m.Brand,
		Model:        m.Model,
		Aliases:      append([]string{}, m.Aliases...),
		Category:     m.Category(),
		MotionSystem: m.MotionSystem,
		Enclosed:     m.Enclosed,
		Capabilities: append([]string(nil), m.Capabilities...),
		SafeRanges:   make(map[string]Range),
	}
	if len(m.Support) > 0 {
		s.Supports = make(map[string]bool, len(m.Support))
		for k, v := range m.Support {
			s.Supports[k] = v
		}
	}

	put := func(name string, r *Range) {
		if r != nil {
			s.SafeRanges[name] = *r
		}
	}

	switch kind := m.Kind.(type) {
	case *FilamentExtrusion:
		put("print", kind.PrintSpeed)
		put("travel", kind.TravelSpeed)
		put("accel", kind.Accel)
		put("jerk", kind.Jerk)
		s.MaxNozzleTempC = kind.MaxNozzleTempC
		s.MaxBedTempC = kind.MaxBedTempC
		for name := range kind.MaterialPresets {
			s.Materials = append(s.Materials, name)
		}
		sort.Strings(s.Materials)
	case *VatPhotopolymer:
		put("exposure_s", kind.ExposureS)
		put("lift_mm_min", kind.LiftMMMin)
	case *Subtractive:
		put("spindle_rpm", kind.SpindleRPM)
		s.MaxFeedMMMin = kind.MaxFeedMMMin
		s.RigidityClass = kind.Rigidity.String()
	}

	if len(s.SafeRanges) == 0 {
		s.SafeRanges = nil
	}
	return s
}
