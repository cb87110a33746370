package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tuneforge/tuneforge/internal/application/ports"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
	domainservices "github.com/tuneforge/tuneforge/internal/domain/services"
)

// FuzzyThreshold is the minimum similarity a fuzzy match must reach.
const FuzzyThreshold = 0.6

// fuzzyEpsilon absorbs float error so a score of exactly 0.6 is accepted.
const fuzzyEpsilon = 1e-9

// MatchKind says how a query was resolved.
type MatchKind string

const (
	MatchID    MatchKind = "id"
	MatchAlias MatchKind = "alias"
	MatchFuzzy MatchKind = "fuzzy"
)

// Match describes a successful lookup.
type Match struct {
	Machine *entities.MachineProfile
	Kind    MatchKind
	// Key is the index key that matched, lowercased.
	Key   string
	Score float64
}

type fuzzyKey struct {
	key     string
	machine *entities.MachineProfile
}

// machineIndex is an immutable snapshot. It is built off to the side and
// published with a single pointer swap.
type machineIndex struct {
	machines []*entities.MachineProfile // sorted by id
	byID     map[string]*entities.MachineProfile
	byAlias  map[string]*entities.MachineProfile
	fuzzy    []fuzzyKey
	skipped  []*entities.MalformedProfileError
	loadedAt time.Time
}

func buildIndex(machines []*entities.MachineProfile, skipped []*entities.MalformedProfileError) *machineIndex {
	sorted := make([]*entities.MachineProfile, 0, len(machines))
	sorted = append(sorted, machines...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].ID) < strings.ToLower(sorted[j].ID)
	})

	idx := &machineIndex{
		byID:     make(map[string]*entities.MachineProfile, len(sorted)),
		byAlias:  make(map[string]*entities.MachineProfile),
		skipped:  append([]*entities.MalformedProfileError(nil), skipped...),
		loadedAt: time.Now(),
	}

	for _, m := range sorted {
		id := normalizeKey(m.ID)
		if id == "" {
			continue
		}
		if _, dup := idx.byID[id]; dup {
			idx.skipped = append(idx.skipped, &entities.MalformedProfileError{
				File:  m.SourceFile,
				Cause: fmt.Errorf("duplicate machine id %q", m.ID),
			})
			continue
		}
		idx.byID[id] = m
		idx.machines = append(idx.machines, m)
	}

	// Second pass so every id is known before aliases claim keys.
	for _, m := range idx.machines {
		idx.addFuzzy(normalizeKey(m.ID), m)
		for _, alias := range m.Aliases {
			key := normalizeKey(alias)
			if key == "" {
				continue
			}
			if _, taken := idx.byAlias[key]; !taken {
				idx.byAlias[key] = m
			}
			idx.addFuzzy(key, m)
		}
		brand, model := normalizeKey(m.Brand), normalizeKey(m.Model)
		idx.addFuzzy(strings.TrimSpace(brand+" "+model), m)
		idx.addFuzzy(model, m)
	}

	return idx
}

func (idx *machineIndex) addFuzzy(key string, m *entities.MachineProfile) {
	if key == "" {
		return
	}
	idx.fuzzy = append(idx.fuzzy, fuzzyKey{key: key, machine: m})
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ReloadReport summarizes a registry reload.
type ReloadReport struct {
	Loaded   int
	Skipped  []*entities.MalformedProfileError
	Duration time.Duration
}

// MachineRegistry indexes machine profiles for exact and fuzzy lookup.
// Lookups read an immutable snapshot; Reload builds a new one and swaps it in,
// so concurrent readers never see a partially built index.
type MachineRegistry struct {
	source ports.MachineSource
	logger *slog.Logger

	index    atomic.Pointer[machineIndex]
	reloadMu sync.Mutex
}

// NewMachineRegistry creates an empty registry backed by source.
// Call Reload before the first lookup.
func NewMachineRegistry(source ports.MachineSource, logger *slog.Logger) *MachineRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &MachineRegistry{source: source, logger: logger}
	r.index.Store(buildIndex(nil, nil))
	return r
}

// NewStaticMachineRegistry creates a registry over a fixed set of machines.
func NewStaticMachineRegistry(machines ...*entities.MachineProfile) *MachineRegistry {
	r := NewMachineRegistry(nil, nil)
	r.Replace(machines)
	return r
}

// Reload reads every profile from the source and atomically replaces the index.
// If the source fails outright the previous index stays in place.
func (r *MachineRegistry) Reload(ctx context.Context) (*ReloadReport, error) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	if r.source == nil {
		return nil, fmt.Errorf("machine registry has no source to reload from")
	}

	start := time.Now()
	machines, skipped, err := r.source.LoadMachines(ctx)
	if err != nil {
		r.logger.Error("machine reload failed, keeping previous registry",
			"error", err,
			"machines", r.Len())
		return nil, fmt.Errorf("reloading machines: %w", err)
	}

	idx := buildIndex(machines, skipped)
	r.index.Store(idx)

	report := &ReloadReport{
		Loaded:   len(idx.machines),
		Skipped:  idx.skipped,
		Duration: time.Since(start),
	}
	r.logger.Info("machines loaded",
		"count", report.Loaded,
		"skipped", len(report.Skipped),
		"duration", report.Duration)
	return report, nil
}

// Replace swaps in an index built from machines without consulting the source.
func (r *MachineRegistry) Replace(machines []*entities.MachineProfile) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()
	r.index.Store(buildIndex(machines, nil))
}

// Resolve finds a machine by id, alias or fuzzy name.
func (r *MachineRegistry) Resolve(query string) (*entities.MachineProfile, error) {
	match, err := r.Lookup(query)
	if err != nil {
		return nil, err
	}
	return match.Machine, nil
}

// Lookup resolves query and reports how it matched. Exact id beats alias,
// alias beats fuzzy. Among fuzzy candidates the highest score wins; on a tie
// the first indexed key wins (machines in id order, then id, aliases,
// "brand model", model).
func (r *MachineRegistry) Lookup(query string) (Match, error) {
	q := normalizeKey(query)
	if q == "" {
		return Match{}, &entities.MachineNotFoundError{}
	}

	idx := r.index.Load()
	if m, ok := idx.byID[q]; ok {
		return Match{Machine: m, Kind: MatchID, Key: q, Score: 1}, nil
	}
	if m, ok := idx.byAlias[q]; ok {
		return Match{Machine: m, Kind: MatchAlias, Key: q, Score: 1}, nil
	}

	var best *fuzzyKey
	bestScore := -1.0
	for i := range idx.fuzzy {
		candidate := &idx.fuzzy[i]
		if score := domainservices.Similarity(q, candidate.key); score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if best == nil || bestScore < FuzzyThreshold-fuzzyEpsilon {
		return Match{}, &entities.MachineNotFoundError{Query: strings.TrimSpace(query)}
	}
	return Match{Machine: best.machine, Kind: MatchFuzzy, Key: best.key, Score: bestScore}, nil
}

// Machines returns every indexed machine sorted by id.
func (r *MachineRegistry) Machines() []*entities.MachineProfile {
	idx := r.index.Load()
	return append([]*entities.MachineProfile(nil), idx.machines...)
}

// ListSummaries returns a summary per machine, sorted by brand then model.
func (r *MachineRegistry) ListSummaries() []entities.MachineSummary {
	idx := r.index.Load()
	out := make([]entities.MachineSummary, 0, len(idx.machines))
	for _, m := range idx.machines {
		out = append(out, m.Summary())
	}
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := strings.ToLower(out[i].Brand), strings.ToLower(out[j].Brand)
		if bi != bj {
			return bi < bj
		}
		return strings.ToLower(out[i].Model) < strings.ToLower(out[j].Model)
	})
	return out
}

// Skipped returns the files rejected by the most recent load.
func (r *MachineRegistry) Skipped() []*entities.MalformedProfileError {
	return append([]*entities.MalformedProfileError(nil), r.index.Load().skipped...)
}

// Len returns the number of indexed machines.
func (r *MachineRegistry) Len() int {
	return len(r.index.Load().machines)
}

// LoadedAt returns when the current index was built.
func (r *MachineRegistry) LoadedAt() time.Time {
	return r.index.Load().loadedAt
}
