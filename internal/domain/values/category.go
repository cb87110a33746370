package values

import (
	"fmt"
	"strings"
)

// MachineCategory is the fabrication process family a machine belongs to.
// It selects which baseline and clamp rules apply.
type MachineCategory string

const (
	CategoryFilamentExtrusion MachineCategory = "FilamentExtrusion"
	CategoryVatPhotopolymer   MachineCategory = "VatPhotopolymer"
	CategorySubtractive       MachineCategory = "Subtractive"
)

// NewMachineCategory maps a profile `type` field to a category.
// Both the category names and the common machine type tags are accepted.
func NewMachineCategory(s string) (MachineCategory, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)

	switch key {
	case "fdm", "fff", "filamentextrusion", "filament_extrusion", "":
		return CategoryFilamentExtrusion, nil
	case "msla", "sla", "dlp", "resin", "vatphotopolymer", "vat_photopolymer":
		return CategoryVatPhotopolymer, nil
	case "cnc", "cnc_router", "cnc_mill", "router", "mill", "subtractive":
		return CategorySubtractive, nil
	default:
		return "", fmt.Errorf("unknown machine type: %q", s)
	}
}

// Validate returns an error if the category value is invalid
func (c MachineCategory) Validate() error {
	switch c {
	case CategoryFilamentExtrusion, CategoryVatPhotopolymer, CategorySubtractive:
		return nil
	default:
		return fmt.Errorf("invalid machine category: %q", string(c))
	}
}

func (c MachineCategory) String() string {
	return string(c)
}
