package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/infrastructure/output"
)

// CommonOptions contains flags shared across commands that render results.
type CommonOptions struct {
	// Output
	Format string

	// Execution
	Timeout time.Duration

	NoColor bool
}

// DefaultCommonOptions returns sensible defaults. Format is left empty so the
// config file's output.format applies unless the flag is set.
func DefaultCommonOptions() CommonOptions {
	return CommonOptions{
		Timeout: 30 * time.Second,
	}
}

// RegisterFlags adds common flags to a cobra command.
func (opts *CommonOptions) RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"Timeout for the whole command (0 to disable)")
	cmd.Flags().StringVar(&opts.Format, "format", opts.Format,
		"Output format: table, json, yaml (default from config, else table)")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false,
		"Disable colored table output")
}

// ApplyToContext applies timeout to context.
// Returns new context and cancel function.
func (opts *CommonOptions) ApplyToContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	return ctx, func() {}
}

// ValidateFlags validates common options.
func (opts *CommonOptions) ValidateFlags() error {
	if opts.Format == "" {
		return nil
	}
	return validateFormat(opts.Format)
}

// Formatter resolves the output format (flag, TUNEFORGE_OUTPUT_FORMAT, config
// file, table) and creates a formatter writing to the command's stdout.
func (opts *CommonOptions) Formatter(cc *CommandContext, cmd *cobra.Command) (output.Formatter, error) {
	format := cc.Setting(cmd, "format", "output.format", cc.Config.Output.Format)
	if format == "" {
		format = "table"
	}
	if err := validateFormat(format); err != nil {
		return nil, err
	}

	w := cmd.OutOrStdout()
	return output.NewFormatterFactory().Create(format, w, output.Options{
		Indent: true,
		Color:  !opts.NoColor && isTerminal(w),
	})
}

func validateFormat(format string) error {
	supported := output.NewFormatterFactory().SupportedFormats()
	if !slices.Contains(supported, format) {
		return fmt.Errorf("invalid format: %s (valid: %s)", format, strings.Join(supported, ", "))
	}
	return nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// parseAssignments parses repeated key=value flags into a parameter set.
func parseAssignments(pairs []string) (entities.Parameters, error) {
	params := make(entities.Parameters, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected name=value", pair)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %q is not a number", key, raw)
		}
		params[key] = value
	}
	return params, nil
}

// parseIssues parses repeated issue_id=confidence flags.
func parseIssues(pairs []string) ([]entities.Prediction, error) {
	predictions := make([]entities.Prediction, 0, len(pairs))
	for _, pair := range pairs {
		id, raw, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid issue %q: expected issue_id=confidence", pair)
		}
		confidence, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid confidence for %s: %q is not a number", id, raw)
		}
		predictions = append(predictions, entities.Prediction{IssueID: id, Confidence: confidence})
	}
	return predictions, nil
}
