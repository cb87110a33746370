// Package system provides infrastructure for system-level configuration.
// This covers the user's config file (~/.tuneforge/config.yaml): where machine
// profiles live and the defaults applied when a command omits a flag.
package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/tuneforge/tuneforge/internal/domain/values"
)

// Default values used when no config file exists.
const (
	DefaultMachinesDir   = "config/machines"
	DefaultWatchDebounce = 300 * time.Millisecond
	DefaultOutputFormat  = "table"
)

// Config represents the global configuration file (~/.tuneforge/config.yaml).
type Config struct {
	// MachinesDir is the directory of machine profile files.
	MachinesDir string         `yaml:"machines_dir"`
	Defaults    DefaultsConfig `yaml:"defaults"`
	Watch       WatchConfig    `yaml:"watch"`
	Output      OutputConfig   `yaml:"output"`
}

// DefaultsConfig holds per-request defaults.
type DefaultsConfig struct {
	Experience string `yaml:"experience"`
	Material   string `yaml:"material"`
	Slicer     string `yaml:"slicer"`
}

// WatchConfig configures the machine directory watcher.
type WatchConfig struct {
	// Debounce is a Go duration string such as "300ms".
	Debounce string `yaml:"debounce"`
}

// OutputConfig configures result rendering.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// DebounceDuration parses Watch.Debounce, falling back to DefaultWatchDebounce.
func (c *Config) DebounceDuration() time.Duration {
	if c.Watch.Debounce == "" {
		return DefaultWatchDebounce
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return DefaultWatchDebounce
	}
	return d
}

// Validate checks that configured defaults are recognized values.
func (c *Config) Validate() error {
	var errs []error
	if _, err := values.NewExperience(c.Defaults.Experience); err != nil {
		errs = append(errs, fmt.Errorf("defaults.experience: %w", err))
	}
	if _, err := values.NewSlicer(c.Defaults.Slicer); err != nil {
		errs = append(errs, fmt.Errorf("defaults.slicer: %w", err))
	}
	if c.Watch.Debounce != "" {
		if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("watch.debounce: %q is not a positive duration", c.Watch.Debounce))
		}
	}
	return errors.Join(errs...)
}

// ConfigLoader loads system configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new system config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// DefaultConfig returns a Config with safe defaults for all fields.
// This is used when no system config file exists.
func DefaultConfig() *Config {
	return &Config{
		MachinesDir: DefaultMachinesDir,
		Defaults: DefaultsConfig{
			Experience: values.DefaultExperience.String(),
			Material:   "PLA",
			Slicer:     values.SlicerGeneric.String(),
		},
		Watch:  WatchConfig{Debounce: DefaultWatchDebounce.String()},
		Output: OutputConfig{Format: DefaultOutputFormat},
	}
}

// DefaultConfigPath returns ~/.tuneforge/config.yaml, or an empty string when
// the home directory cannot be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tuneforge", "config.yaml")
}

// Load loads the system configuration from the specified path.
// If the file does not exist, returns DefaultConfig() with safe defaults.
// Fields the file leaves empty keep their defaults.
func (l *ConfigLoader) Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	//nolint:gosec // G304: path is user-provided config file, validated to exist above
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid system config %s: %w", path, err)
	}

	return config, nil
}

// LoadConfig implements ports.SystemConfigProvider.
func (l *ConfigLoader) LoadConfig(ctx context.Context, path string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.Load(path)
}
