package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tuneforge/tuneforge/internal/application/dto"
	"github.com/tuneforge/tuneforge/internal/application/services"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := DefaultCommonOptions()
	var (
		slicer   string
		sets     []string
		baseFile string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render parameter values as a slicer profile diff",
		Long: `Map canonical parameter names to a slicer's keys and render the changes.

  tuneforge export --slicer prusaslicer --set nozzle_temp=215 --base current.yaml

Values equal to the base profile are left out of the diff.`,
		Args: cobra.NoArgs,
		RunE: withSystemConfig(root, func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}
			params, err := parseAssignments(sets)
			if err != nil {
				return err
			}

			req := dto.ExportRequest{
				Slicer:     cc.Setting(cmd, "slicer", "defaults.slicer", cc.Config.Defaults.Slicer),
				Parameters: params,
			}
			if baseFile != "" {
				if req.BaseProfile, err = readBaseProfile(baseFile); err != nil {
					return err
				}
			}

			diff, err := services.NewAnalyzeService(nil, slog.Default()).Export(req)
			if err != nil {
				return err
			}

			formatter, err := opts.Formatter(cc, cmd)
			if err != nil {
				return err
			}
			return formatter.FormatDiff(diff)
		}),
	}

	cmd.Flags().StringVar(&slicer, "slicer", "", "Slicer: generic, cura, prusaslicer, bambu, orca")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Parameter as name=value (repeatable)")
	cmd.Flags().StringVar(&baseFile, "base", "", "Current slicer values (YAML or JSON map)")
	opts.RegisterFlags(cmd)
	return cmd
}
