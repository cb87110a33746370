package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/tuneforge/tuneforge/internal/application/dto"
	"github.com/tuneforge/tuneforge/internal/domain/values"
	"github.com/tuneforge/tuneforge/internal/infrastructure/container"
)

type analyzeOptions struct {
	CommonOptions
	Machine         string
	Experience      string
	Material        string
	PredictionsFile string
	Issues          []string
	Slicer          string
	BaseFile        string
	ImageKey        string
	AppVersion      string
	NoInteractive   bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{CommonOptions: DefaultCommonOptions()}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Suggest parameter changes for detected print issues",
		Long: `Turn detected issues into machine-bounded parameter changes.

Issues come from a predictions document produced by the detection stage:

  image_key: img-123
  predictions:
    - issue_id: stringing
      confidence: 0.82

or from repeated --issue flags (--issue stringing=0.82). When the machine or
experience level is not given on a terminal, you are prompted for them.`,
		Args: cobra.NoArgs,
		RunE: withContainer(root, func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			return runAnalyze(cc, cmd, opts)
		}),
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Machine, "machine", "m", "", "Machine id, alias or name")
	f.StringVarP(&opts.Experience, "experience", "e", "", "Experience level: Beginner, Intermediate, Advanced")
	f.StringVar(&opts.Material, "material", "", "Material preset (e.g. PLA, PETG)")
	f.StringVarP(&opts.PredictionsFile, "predictions", "p", "", "Predictions document (YAML or JSON)")
	f.StringArrayVar(&opts.Issues, "issue", nil, "Detected issue as issue_id=confidence (repeatable)")
	f.StringVar(&opts.Slicer, "slicer", "", "Slicer for the profile diff: generic, cura, prusaslicer, bambu, orca")
	f.StringVar(&opts.BaseFile, "base", "", "Current slicer values (YAML or JSON map of slicer key to number)")
	f.StringVar(&opts.ImageKey, "image-key", "", "Image identifier (default: from predictions document, else generated)")
	f.StringVar(&opts.AppVersion, "app-version", "", "Client app version, checked against the minimum supported")
	f.BoolVar(&opts.NoInteractive, "no-interactive", false, "Never prompt; fail when required input is missing")
	opts.RegisterFlags(cmd)
	return cmd
}

func runAnalyze(cc *CommandContext, cmd *cobra.Command, opts *analyzeOptions) error {
	if err := opts.ValidateFlags(); err != nil {
		return err
	}

	req := dto.AnalyzeRequest{
		MachineID:  opts.Machine,
		Experience: cc.Setting(cmd, "experience", "defaults.experience", cc.Config.Defaults.Experience),
		Material:   cc.Setting(cmd, "material", "defaults.material", cc.Config.Defaults.Material),
		Slicer:     cc.Setting(cmd, "slicer", "defaults.slicer", cc.Config.Defaults.Slicer),
		AppVersion: opts.AppVersion,
		ImageKey:   opts.ImageKey,
	}

	if opts.PredictionsFile != "" {
		doc, err := readPredictions(opts.PredictionsFile)
		if err != nil {
			return err
		}
		req.Predictions = append(req.Predictions, doc.Predictions...)
		if req.ImageKey == "" {
			req.ImageKey = doc.ImageKey
		}
	}
	issues, err := parseIssues(opts.Issues)
	if err != nil {
		return err
	}
	req.Predictions = append(req.Predictions, issues...)

	if opts.BaseFile != "" {
		if req.BaseProfile, err = readBaseProfile(opts.BaseFile); err != nil {
			return err
		}
	}

	if !opts.NoInteractive && isTerminal(os.Stdin) {
		if err := promptAnalyze(cc.Container, &req, !cmd.Flags().Changed("experience")); err != nil {
			return err
		}
	}

	ctx, cancel := opts.ApplyToContext(cc.Context)
	defer cancel()

	resp, err := cc.Container.AnalyzeService().Analyze(ctx, req)
	if err != nil {
		return err
	}
	cc.Logger.Debug("analysis finished",
		"analysis_id", resp.AnalysisID,
		"matched_by", resp.Metadata.MatchedBy,
		"duration", resp.Metadata.Duration)

	formatter, err := opts.Formatter(cc, cmd)
	if err != nil {
		return err
	}
	return formatter.FormatAnalysis(resp)
}

// promptAnalyze asks for the machine when none was given and, if askExperience
// is set, confirms the experience level.
func promptAnalyze(c *container.Container, req *dto.AnalyzeRequest, askExperience bool) error {
	if req.MachineID == "" {
		summaries := c.Registry().ListSummaries()
		options := make([]huh.Option[string], 0, len(summaries))
		for _, s := range summaries {
			options = append(options, huh.NewOption(fmt.Sprintf("%s %s", s.Brand, s.Model), s.ID))
		}
		if len(options) > 0 {
			err := huh.NewSelect[string]().
				Title("Which machine printed this?").
				Options(options...).
				Value(&req.MachineID).
				Run()
			if err != nil {
				return err
			}
		}
	}

	if askExperience {
		options := make([]huh.Option[string], 0, len(values.AllExperiences()))
		for _, e := range values.AllExperiences() {
			options = append(options, huh.NewOption(e.String(), e.String()).Selected(e.String() == req.Experience))
		}
		err := huh.NewSelect[string]().
			Title("How much tuning detail do you want?").
			Options(options...).
			Value(&req.Experience).
			Run()
		if err != nil {
			return err
		}
	}
	return nil
}

func readPredictions(path string) (*dto.PredictionsDocument, error) {
	//nolint:gosec // G304: user-provided input file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}

	var doc dto.PredictionsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse predictions %s: %w", path, err)
	}
	return &doc, nil
}

func readBaseProfile(path string) (map[string]float64, error) {
	//nolint:gosec // G304: user-provided input file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read base profile: %w", err)
	}

	base := map[string]float64{}
	if err := yaml.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("failed to parse base profile %s: %w", path, err)
	}
	return base, nil
}
