package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	apperrors "github.com/tuneforge/tuneforge/internal/application/errors"
	"github.com/tuneforge/tuneforge/internal/infrastructure/container"
	"github.com/tuneforge/tuneforge/internal/infrastructure/system"
	"github.com/tuneforge/tuneforge/internal/version"
)

// CommandContext provides common command dependencies.
// Container is nil for commands that only need the system config.
type CommandContext struct {
	Container *container.Container
	Config    *system.Config
	Logger    *slog.Logger
	Context   context.Context
	root      *rootOptions
}

// Setting resolves a string option from flag, environment, config file or fallback.
func (c *CommandContext) Setting(cmd *cobra.Command, flag, key, fallback string) string {
	return c.root.setting(cmd, flag, key, fallback)
}

// CommandHandler is a function that executes with initialized dependencies.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization:
// system config, machine registry and the analyze service.
//
// Usage:
//
//	cmd := &cobra.Command{
//	    Use: "list",
//	    RunE: withContainer(root, func(cc *CommandContext, cmd *cobra.Command, args []string) error {
//	        return render(cc.Container.Registry().ListSummaries())
//	    }),
//	}
func withContainer(root *rootOptions, handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()
		ctx := commandContext(cmd)

		c, err := container.New(ctx, container.Options{
			SystemConfigPath: root.configPath(),
			MachinesDir:      root.viper.GetString("machines_dir"),
			Version:          version.Get().Version,
			Logger:           logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		return handler(&CommandContext{
			Container: c,
			Config:    c.SystemConfig(),
			Logger:    logger,
			Context:   ctx,
			root:      root,
		}, cmd, args)
	}
}

// withSystemConfig wraps a handler that needs settings but no machine registry.
func withSystemConfig(root *rootOptions, handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()
		ctx := commandContext(cmd)

		cfg, err := system.NewConfigLoader().LoadConfig(ctx, root.configPath())
		if err != nil {
			return apperrors.NewConfigurationError("system_config", "failed to load system config", err)
		}
		if dir := root.viper.GetString("machines_dir"); dir != "" {
			cfg.MachinesDir = dir
		}

		return handler(&CommandContext{
			Config:  cfg,
			Logger:  logger,
			Context: ctx,
			root:    root,
		}, cmd, args)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
