package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tuneforge/tuneforge/internal/application/services"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
	domainservices "github.com/tuneforge/tuneforge/internal/domain/services"
	"github.com/tuneforge/tuneforge/internal/infrastructure/config"
)

func newMachinesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machines",
		Short: "List, inspect and validate machine profiles",
	}
	cmd.AddCommand(
		newMachinesListCmd(root),
		newMachinesShowCmd(root),
		newMachinesValidateCmd(root),
		newMachinesSchemaCmd(),
		newMachinesWatchCmd(root),
	)
	return cmd
}

func newMachinesListCmd(root *rootOptions) *cobra.Command {
	opts := DefaultCommonOptions()
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known machines",
		Long: `List every machine profile in the machines directory, sorted by brand and model.

Filtering:
  --filter 'category == "FilamentExtrusion" && enclosed'
  --filter 'supports["ams"]'
  --filter '"PETG" in materials'

Variables: id, brand, model, category, motion, enclosed, aliases,
capabilities, materials, supports.`,
		Args: cobra.NoArgs,
		RunE: withContainer(root, func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}

			summaries := cc.Container.Registry().ListSummaries()
			if filter != "" {
				program, err := domainservices.CompileMachineFilter(filter)
				if err != nil {
					return err
				}
				summaries, err = domainservices.NewMachineFilter(program).Apply(summaries)
				if err != nil {
					return err
				}
			}

			formatter, err := opts.Formatter(cc, cmd)
			if err != nil {
				return err
			}
			return formatter.FormatMachines(summaries)
		}),
	}

	opts.RegisterFlags(cmd)
	cmd.Flags().StringVar(&filter, "filter", "", "Filter expression (e.g. 'enclosed && supports[\"ams\"]')")
	return cmd
}

func newMachinesShowCmd(root *rootOptions) *cobra.Command {
	opts := DefaultCommonOptions()

	cmd := &cobra.Command{
		Use:   "show <machine>",
		Short: "Show one machine, found by id, alias or approximate name",
		Args:  cobra.MinimumNArgs(1),
		RunE: withContainer(root, func(cc *CommandContext, cmd *cobra.Command, args []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}

			query := strings.Join(args, " ")
			match, err := cc.Container.Registry().Lookup(query)
			if err != nil {
				return err
			}
			if match.Kind != services.MatchID {
				cc.Logger.Info("matched machine",
					"query", query,
					"machine", match.Machine.ID,
					"matched_by", match.Kind,
					"score", match.Score)
			}

			formatter, err := opts.Formatter(cc, cmd)
			if err != nil {
				return err
			}
			return formatter.FormatMachine(match.Machine.Summary())
		}),
	}

	opts.RegisterFlags(cmd)
	return cmd
}

func newMachinesValidateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [dir|file]",
		Short: "Validate a machine profile or every profile in a directory",
		Long: `Parse and schema-check every profile file. Exits non-zero when any file is
malformed or declares an id already used by an earlier file.

Given a single file, only that profile is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: withSystemConfig(root, func(cc *CommandContext, cmd *cobra.Command, args []string) error {
			dir := cc.Config.MachinesDir
			if len(args) == 1 {
				dir = args[0]
			}
			if info, err := os.Stat(dir); err == nil && info.Mode().IsRegular() {
				return validateMachineFile(cmd, dir)
			}

			result, err := config.NewMachineLoader(dir, config.WithLogger(cc.Logger)).Load(cc.Context)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range result.Machines {
				fmt.Fprintf(out, "✓ %s (%s)\n", filepath.Base(m.SourceFile), m.ID)
			}
			for _, s := range result.Skipped {
				fmt.Fprintf(out, "✗ %s: %v\n", filepath.Base(s.File), s.Cause)
			}
			fmt.Fprintf(out, "\n%d file(s): %d valid, %d malformed\n",
				result.Files, len(result.Machines), len(result.Skipped))

			if len(result.Skipped) > 0 {
				return fmt.Errorf("%d malformed machine profile(s) in %s", len(result.Skipped), dir)
			}
			return nil
		}),
	}
	return cmd
}

func validateMachineFile(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()
	m, err := config.LoadMachineFile(path)
	if err != nil {
		cause := err
		var malformed *entities.MalformedProfileError
		if errors.As(err, &malformed) {
			cause = malformed.Cause
		}
		fmt.Fprintf(out, "✗ %s: %v\n", filepath.Base(path), cause)
		return err
	}
	fmt.Fprintf(out, "✓ %s (%s)\n", filepath.Base(path), m.ID)
	return nil
}

func newMachinesSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema machine profiles are validated against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(config.MachineSchema())
			return err
		},
	}
}

func newMachinesWatchCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload machine profiles whenever the machines directory changes",
		Args:  cobra.NoArgs,
		RunE: withContainer(root, func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			w, err := cc.Container.NewWatcher(func(report *services.ReloadReport) {
				fmt.Fprintf(out, "%s reloaded %d machine(s), %d skipped\n",
					time.Now().Format(time.TimeOnly), report.Loaded, len(report.Skipped))
				for _, s := range report.Skipped {
					fmt.Fprintf(out, "  ✗ %s: %v\n", s.File, s.Cause)
				}
			})
			if err != nil {
				return err
			}
			if err := w.Start(cc.Context); err != nil {
				return err
			}

			fmt.Fprintf(out, "Watching %s with %d machine(s). Press Ctrl+C to stop.\n",
				cc.Container.MachineLoader().Dir(), cc.Container.Registry().Len())

			<-cc.Context.Done()
			return w.Stop()
		}),
	}
	return cmd
}
