package services

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
)

// MachineEnv defines the variables available during machine filter evaluation.
type MachineEnv struct {
	ID           string          `expr:"id"`
	Brand        string          `expr:"brand"`
	Model        string          `expr:"model"`
	Category     string          `expr:"category"`
	Motion       string          `expr:"motion"`
	Enclosed     bool            `expr:"enclosed"`
	Aliases      []string        `expr:"aliases"`
	Capabilities []string        `expr:"capabilities"`
	Materials    []string        `expr:"materials"`
	Supports     map[string]bool `expr:"supports"`
}

func newMachineEnv(s entities.MachineSummary) MachineEnv {
	supports := s.Supports
	if supports == nil {
		supports = map[string]bool{}
	}
	return MachineEnv{
		ID:           s.ID,
		Brand:        s.Brand,
		Model:        s.Model,
		Category:     s.Category.String(),
		Motion:       s.MotionSystem,
		Enclosed:     s.Enclosed,
		Aliases:      s.Aliases,
		Capabilities: s.Capabilities,
		Materials:    s.Materials,
		Supports:     supports,
	}
}

// CompileMachineFilter compiles a boolean filter expression such as
// `category == "FilamentExtrusion" && enclosed && supports["ams"]`.
func CompileMachineFilter(expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression, expr.Env(MachineEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid machine filter: %w", err)
	}
	return program, nil
}

// MachineFilter selects machine summaries with a compiled expression.
type MachineFilter struct {
	program *vm.Program
}

// NewMachineFilter creates a filter. A nil program matches every machine.
func NewMachineFilter(program *vm.Program) *MachineFilter {
	return &MachineFilter{program: program}
}

// Matches evaluates the filter against one machine.
func (f *MachineFilter) Matches(s entities.MachineSummary) (bool, error) {
	if f.program == nil {
		return true, nil
	}

	output, err := expr.Run(f.program, newMachineEnv(s))
	if err != nil {
		return false, fmt.Errorf("filter expression error for %s: %w", s.ID, err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression did not return boolean: %v", output)
	}
	return result, nil
}

// Apply returns the summaries that match, preserving order.
func (f *MachineFilter) Apply(summaries []entities.MachineSummary) ([]entities.MachineSummary, error) {
	out := make([]entities.MachineSummary, 0, len(summaries))
	for _, s := range summaries {
		ok, err := f.Matches(s)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}
