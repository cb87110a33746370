// Package config loads machine profiles from a directory of YAML or JSON files.
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"golang.org/x/sync/errgroup"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
)

// profileExtensions lists the file extensions recognized as machine profiles.
var profileExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// IsProfileFile reports whether name looks like a loadable machine profile.
// Files starting with an underscore or a dot are ignored.
func IsProfileFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") {
		return false
	}
	return profileExtensions[strings.ToLower(filepath.Ext(base))]
}

// LoadResult is the outcome of scanning a machines directory.
type LoadResult struct {
	// Machines holds the usable profiles in file name order.
	Machines []*entities.MachineProfile
	// Skipped holds one error per file that could not be used.
	Skipped []*entities.MalformedProfileError
	// Files is the number of candidate files found.
	Files int
}

// MachineLoader reads machine profiles from a directory.
type MachineLoader struct {
	dir         string
	logger      *slog.Logger
	concurrency int
}

// MachineLoaderOption configures a MachineLoader.
type MachineLoaderOption func(*MachineLoader)

// WithLogger sets the logger used for skipped-file warnings.
func WithLogger(logger *slog.Logger) MachineLoaderOption {
	return func(l *MachineLoader) {
		l.logger = logger
	}
}

// WithConcurrency limits how many files are parsed at once.
func WithConcurrency(n int) MachineLoaderOption {
	return func(l *MachineLoader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// NewMachineLoader creates a loader for dir.
func NewMachineLoader(dir string, opts ...MachineLoaderOption) *MachineLoader {
	l := &MachineLoader{
		dir:         dir,
		logger:      slog.Default(),
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the directory this loader scans.
func (l *MachineLoader) Dir() string {
	return l.dir
}

// Load parses every profile file in the directory. A file that fails to parse,
// fails schema validation or repeats an earlier id is skipped and reported in
// LoadResult.Skipped. Only an unreadable directory or a cancelled context is fatal.
func (l *MachineLoader) Load(ctx context.Context) (*LoadResult, error) {
	start := time.Now()

	// Security: Use os.OpenRoot to keep reads inside the machines directory
	root, err := os.OpenRoot(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open machines directory: %w", err)
	}
	defer func() {
		_ = root.Close() // Best-effort cleanup
	}()

	entries, err := fs.ReadDir(root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list machines directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !IsProfileFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	type parsed struct {
		profile *entities.MachineProfile
		err     error
	}
	results := make([]parsed, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			profile, err := l.loadFile(root, name)
			results[i] = parsed{profile: profile, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &LoadResult{Files: len(names)}
	seen := make(map[string]string, len(names))
	for i, r := range results {
		path := filepath.Join(l.dir, names[i])
		if r.err != nil {
			result.Skipped = append(result.Skipped, &entities.MalformedProfileError{File: path, Cause: r.err})
			continue
		}
		key := strings.ToLower(r.profile.ID)
		if first, dup := seen[key]; dup {
			result.Skipped = append(result.Skipped, &entities.MalformedProfileError{
				File:  path,
				Cause: fmt.Errorf("duplicate machine id %q (already defined in %s)", r.profile.ID, first),
			})
			continue
		}
		seen[key] = names[i]
		result.Machines = append(result.Machines, r.profile)
	}

	for _, skipped := range result.Skipped {
		l.logger.Warn("skipping machine profile", "file", skipped.File, "error", skipped.Cause)
	}
	l.logger.Debug("machine directory scanned",
		"dir", l.dir,
		"files", result.Files,
		"loaded", len(result.Machines),
		"skipped", len(result.Skipped),
		"duration", time.Since(start))

	return result, nil
}

// LoadMachines implements ports.MachineSource.
func (l *MachineLoader) LoadMachines(ctx context.Context) ([]*entities.MachineProfile, []*entities.MalformedProfileError, error) {
	result, err := l.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return result.Machines, result.Skipped, nil
}

func (l *MachineLoader) loadFile(root *os.Root, name string) (*entities.MachineProfile, error) {
	file, err := root.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer func() {
		_ = file.Close() // Best-effort cleanup
	}()

	profile, err := ParseMachine(name, file)
	if err != nil {
		return nil, err
	}
	profile.SourceFile = filepath.Join(l.dir, name)
	return profile, nil
}

// LoadMachineFile parses a single profile file outside of a directory scan.
func LoadMachineFile(path string) (*entities.MachineProfile, error) {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open profile directory: %w", err)
	}
	defer func() {
		_ = root.Close() // Best-effort cleanup
	}()

	file, err := root.Open(filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer func() {
		_ = file.Close() // Best-effort cleanup
	}()

	profile, err := ParseMachine(path, file)
	if err != nil {
		return nil, &entities.MalformedProfileError{File: path, Cause: err}
	}
	profile.SourceFile = path
	return profile, nil
}

// ParseMachine decodes one profile. name selects the format by extension
// (.json is read as JSON, anything else as YAML) and provides the fallback id.
func ParseMachine(name string, r io.Reader) (*entities.MachineProfile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	if !strings.EqualFold(filepath.Ext(name), ".json") {
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode profile YAML: %w", err)
		}
	}

	var raw any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode profile JSON: %w", err)
	}
	if err := validateMachineSchema(raw); err != nil {
		return nil, err
	}

	var doc machineDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode profile fields: %w", err)
	}
	return doc.toProfile(name)
}
