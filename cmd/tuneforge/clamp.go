package main

import (
	"github.com/spf13/cobra"

	"github.com/tuneforge/tuneforge/internal/application/dto"
)

func newClampCmd(root *rootOptions) *cobra.Command {
	opts := DefaultCommonOptions()
	var (
		machine    string
		experience string
		sets       []string
	)

	cmd := &cobra.Command{
		Use:   "clamp",
		Short: "Bound a parameter set to a machine's safe limits",
		Long: `Clamp arbitrary parameter values to the selected machine and experience level.

  tuneforge clamp -m bambu_p1s --set nozzle_temp=320 --set print_speed=600

Parameters the experience level does not expose are listed as hidden.`,
		Args: cobra.NoArgs,
		RunE: withContainer(root, func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}
			params, err := parseAssignments(sets)
			if err != nil {
				return err
			}

			ctx, cancel := opts.ApplyToContext(cc.Context)
			defer cancel()

			resp, err := cc.Container.AnalyzeService().Clamp(ctx, dto.ClampRequest{
				MachineID:  machine,
				Experience: cc.Setting(cmd, "experience", "defaults.experience", cc.Config.Defaults.Experience),
				Parameters: params,
			})
			if err != nil {
				return err
			}

			formatter, err := opts.Formatter(cc, cmd)
			if err != nil {
				return err
			}
			return formatter.FormatClamp(resp)
		}),
	}

	cmd.Flags().StringVarP(&machine, "machine", "m", "", "Machine id, alias or name")
	cmd.Flags().StringVarP(&experience, "experience", "e", "", "Experience level: Beginner, Intermediate, Advanced")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Parameter as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("machine")
	opts.RegisterFlags(cmd)
	return cmd
}
