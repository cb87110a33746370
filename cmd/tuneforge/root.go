package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tuneforge/tuneforge/internal/infrastructure/system"
)

// rootOptions holds the persistent flags and the layered settings shared by
// every subcommand.
type rootOptions struct {
	cfgFile     string
	machinesDir string
	verbose     bool
	viper       *viper.Viper
}

// newRootCmd builds the application entry point.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{viper: viper.New()}

	cmd := &cobra.Command{
		Use:   "tuneforge",
		Short: "Machine-aware tuning suggestions for detected print failures",
		Long: `tuneforge turns the issues detected on a photo of a failed 3D print (or a
resin print, or a CNC cut) into concrete parameter changes. Every suggestion
is bounded by the safe limits of the selected machine and filtered by the
operator's experience level.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd.ErrOrStderr(), opts.verbose)
			return opts.initConfig(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.tuneforge/config.yaml)")
	pf.StringVar(&opts.machinesDir, "machines-dir", "", "directory of machine profiles (overrides config)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(
		newMachinesCmd(opts),
		newAnalyzeCmd(opts),
		newClampCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// initConfig layers configuration: flags over TUNEFORGE_* environment
// variables over the config file.
func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	v := o.viper
	v.SetEnvPrefix("TUNEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlag("machines_dir", cmd.Root().PersistentFlags().Lookup("machines-dir")); err != nil {
		return err
	}

	path := o.configPath()
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		slog.Debug("config file not readable by viper", "file", path, "error", err)
		return nil
	}
	slog.Debug("using config file", "file", v.ConfigFileUsed())
	return nil
}

// configPath returns --config, then TUNEFORGE_CONFIG, then the default location.
func (o *rootOptions) configPath() string {
	if o.cfgFile != "" {
		return o.cfgFile
	}
	if env := o.viper.GetString("config"); env != "" {
		return env
	}
	return system.DefaultConfigPath()
}

// setting resolves a string option: an explicitly set flag wins, then the
// environment or config file value under key, then fallback.
func (o *rootOptions) setting(cmd *cobra.Command, flag, key, fallback string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return f.Value.String()
	}
	if s := o.viper.GetString(key); s != "" {
		return s
	}
	return fallback
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Using TextHandler for CLI friendliness
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
