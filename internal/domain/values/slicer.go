package values

import (
	"fmt"
	"strings"
)

// Slicer names a slicer whose profile keys suggestions can be exported to.
type Slicer string

const (
	SlicerGeneric     Slicer = "generic"
	SlicerCura        Slicer = "cura"
	SlicerPrusaSlicer Slicer = "prusaslicer"
	SlicerBambu       Slicer = "bambu"
	SlicerOrca        Slicer = "orca"
)

// NewSlicer parses a slicer name. Empty input yields SlicerGeneric.
func NewSlicer(s string) (Slicer, error) {
	sl := Slicer(strings.ToLower(strings.TrimSpace(s)))
	if sl == "" {
		return SlicerGeneric, nil
	}
	switch sl {
	case SlicerGeneric, SlicerCura, SlicerPrusaSlicer, SlicerBambu, SlicerOrca:
		return sl, nil
	default:
		return "", fmt.Errorf("unsupported slicer %q (valid: generic, cura, prusaslicer, bambu, orca)", s)
	}
}

func (s Slicer) String() string {
	return string(s)
}
