package entities

import (
	"errors"
	"fmt"
)

// MachineNotFoundError indicates a query matched no machine, exactly or fuzzily.
type MachineNotFoundError struct {
	Query string
}

func (e *MachineNotFoundError) Error() string {
	if e.Query == "" {
		return "machine not found: identifier cannot be empty"
	}
	return fmt.Sprintf("machine not found: %q was not found in the registry", e.Query)
}

// IsMachineNotFound reports whether err is or wraps a MachineNotFoundError.
func IsMachineNotFound(err error) bool {
	var target *MachineNotFoundError
	return errors.As(err, &target)
}

// MalformedProfileError indicates a machine profile file could not be used.
// The registry skips such files and keeps loading the rest.
type MalformedProfileError struct {
	Cause error
	File  string
}

func (e *MalformedProfileError) Error() string {
	return fmt.Sprintf("malformed machine profile %s: %v", e.File, e.Cause)
}

func (e *MalformedProfileError) Unwrap() error {
	return e.Cause
}
