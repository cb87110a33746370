// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/infrastructure/system"
)

// MachineSource loads the full set of machine profiles from storage.
// Files that cannot be used are returned as skipped rather than failing the load.
type MachineSource interface {
	LoadMachines(ctx context.Context) ([]*entities.MachineProfile, []*entities.MalformedProfileError, error)
}

// MachineResolver resolves machine identifiers, aliases and near-miss names.
type MachineResolver interface {
	Resolve(query string) (*entities.MachineProfile, error)
}

// SystemConfigProvider loads system configuration.
type SystemConfigProvider interface {
	LoadConfig(ctx context.Context, path string) (*system.Config, error)
}
