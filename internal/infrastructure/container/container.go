// Package container provides dependency injection for the application.
package container

import (
	"context"
	"log/slog"

	apperrors "github.com/tuneforge/tuneforge/internal/application/errors"
	"github.com/tuneforge/tuneforge/internal/application/ports"
	"github.com/tuneforge/tuneforge/internal/application/services"
	"github.com/tuneforge/tuneforge/internal/infrastructure/config"
	"github.com/tuneforge/tuneforge/internal/infrastructure/system"
	"github.com/tuneforge/tuneforge/internal/infrastructure/watcher"
)

// Container holds all application dependencies.
type Container struct {
	systemCfg *system.Config
	loader    *config.MachineLoader
	registry  *services.MachineRegistry
	analyze   *services.AnalyzeService
	logger    *slog.Logger
}

// Options configure the container.
type Options struct {
	Logger           *slog.Logger
	SystemConfigPath string
	// MachinesDir overrides the directory from the system config.
	MachinesDir string
	Version     string
}

// New creates a new dependency injection container and loads the machine
// registry. Individual malformed profiles are skipped; an unreadable
// machines directory is an error.
func New(ctx context.Context, opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var systemConfig ports.SystemConfigProvider = system.NewConfigLoader()
	systemCfg, err := systemConfig.LoadConfig(ctx, opts.SystemConfigPath)
	if err != nil {
		return nil, apperrors.NewConfigurationError("system_config", "failed to load system config", err)
	}
	if opts.MachinesDir != "" {
		systemCfg.MachinesDir = opts.MachinesDir
	}

	loader := config.NewMachineLoader(systemCfg.MachinesDir, config.WithLogger(opts.Logger))
	registry := services.NewMachineRegistry(loader, opts.Logger)
	if _, err := registry.Reload(ctx); err != nil {
		return nil, apperrors.NewConfigurationError("machines", "cannot load machine profiles", err)
	}

	var analyzeOpts []services.AnalyzeOption
	if opts.Version != "" {
		analyzeOpts = append(analyzeOpts, services.WithVersion(opts.Version))
	}

	return &Container{
		systemCfg: systemCfg,
		loader:    loader,
		registry:  registry,
		analyze:   services.NewAnalyzeService(registry, opts.Logger, analyzeOpts...),
		logger:    opts.Logger,
	}, nil
}

// NewWatcher returns a watcher that reloads the registry whenever a profile in
// the machines directory changes. onReload, if set, receives each report.
func (c *Container) NewWatcher(onReload func(*services.ReloadReport)) (*watcher.MachineWatcher, error) {
	reload := func(ctx context.Context, files []string) error {
		c.logger.Debug("reloading machines", "changed", files)
		report, err := c.registry.Reload(ctx)
		if err != nil {
			return err
		}
		if onReload != nil {
			onReload(report)
		}
		return nil
	}

	return watcher.New(
		c.loader.Dir(),
		reload,
		watcher.WithLogger(c.logger),
		watcher.WithDebounce(c.systemCfg.DebounceDuration()),
	)
}

// AnalyzeService returns the analyze use case.
func (c *Container) AnalyzeService() *services.AnalyzeService {
	return c.analyze
}

// Registry returns the machine registry.
func (c *Container) Registry() *services.MachineRegistry {
	return c.registry
}

// MachineLoader returns the machine profile loader.
func (c *Container) MachineLoader() *config.MachineLoader {
	return c.loader
}

// SystemConfig returns the system configuration.
func (c *Container) SystemConfig() *system.Config {
	return c.systemCfg
}
