package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed machine.schema.json
var machineSchemaJSON []byte

const machineSchemaURL = "machine.schema.json"

var (
	machineSchemaOnce sync.Once
	machineSchema     *jsonschema.Schema
	machineSchemaErr  error
)

// MachineSchema returns the raw JSON Schema machine profiles are validated against.
func MachineSchema() []byte {
	return bytes.Clone(machineSchemaJSON)
}

func compiledMachineSchema() (*jsonschema.Schema, error) {
	machineSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource(machineSchemaURL, bytes.NewReader(machineSchemaJSON)); err != nil {
			machineSchemaErr = fmt.Errorf("failed to add machine schema resource: %w", err)
			return
		}
		machineSchema, machineSchemaErr = compiler.Compile(machineSchemaURL)
		if machineSchemaErr != nil {
			machineSchemaErr = fmt.Errorf("failed to compile machine schema: %w", machineSchemaErr)
		}
	})
	return machineSchema, machineSchemaErr
}

// validateMachineSchema checks a decoded JSON document (numbers as json.Number)
// against the embedded machine schema.
func validateMachineSchema(doc any) error {
	schema, err := compiledMachineSchema()
	if err != nil {
		return err
	}

	if err := schema.Validate(doc); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return formatSchemaValidationError(validationErr)
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// formatSchemaValidationError flattens the leaf causes into one readable error.
func formatSchemaValidationError(err *jsonschema.ValidationError) error {
	var messages []string

	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 && e.Message != "" {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(err)

	if len(messages) == 0 {
		return fmt.Errorf("schema validation failed")
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(messages, "; "))
}
