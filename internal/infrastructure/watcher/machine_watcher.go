// Package watcher reloads machine profiles when the machines directory changes.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tuneforge/tuneforge/internal/infrastructure/config"
)

// ChangeHandler is invoked once per debounced batch of profile file changes.
// files holds the base names that changed, sorted.
type ChangeHandler func(ctx context.Context, files []string) error

// Stats reports watcher activity.
type Stats struct {
	Events  int
	Batches int
	Errors  int
	Last    time.Time
}

// MachineWatcher monitors a machines directory and batches profile changes.
type MachineWatcher struct {
	dir      string
	debounce time.Duration
	onChange ChangeHandler
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	mu      sync.RWMutex
	running bool
	stats   Stats
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Option configures a MachineWatcher.
type Option func(*MachineWatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *MachineWatcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets the quiet period before a batch is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *MachineWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for dir. It does not start watching until Start.
func New(dir string, onChange ChangeHandler, opts ...Option) (*MachineWatcher, error) {
	if onChange == nil {
		return nil, errors.New("change handler is required")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &MachineWatcher{
		dir:      dir,
		debounce: 300 * time.Millisecond,
		onChange: onChange,
		logger:   slog.Default(),
		watcher:  fw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. The watcher runs until Stop is called or ctx ends.
func (w *MachineWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("watcher already running")
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.run(ctx)

	w.logger.Info("watching machine profiles", "dir", w.dir, "debounce", w.debounce)
	return nil
}

// Stop ends watching and releases the underlying file watcher.
func (w *MachineWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	close(w.stopCh)
	doneCh := w.doneCh
	w.mu.Unlock()

	<-doneCh
	return w.watcher.Close()
}

// Stats returns a snapshot of watcher activity.
func (w *MachineWatcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *MachineWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name, relevant := w.relevant(event)
			if !relevant {
				continue
			}
			pending[name] = struct{}{}
			w.record(func(s *Stats) { s.Events++ })
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			files := make([]string, 0, len(pending))
			for name := range pending {
				files = append(files, name)
			}
			sort.Strings(files)
			clear(pending)
			w.deliver(ctx, files)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.record(func(s *Stats) { s.Errors++ })
			w.logger.Warn("machine watcher error", "error", err)
		}
	}
}

func (w *MachineWatcher) relevant(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	name := filepath.Base(event.Name)
	if !config.IsProfileFile(name) {
		return "", false
	}
	w.logger.Debug("machine profile changed", "file", name, "op", event.Op.String())
	return name, true
}

func (w *MachineWatcher) deliver(ctx context.Context, files []string) {
	w.record(func(s *Stats) {
		s.Batches++
		s.Last = time.Now()
	})
	if err := w.onChange(ctx, files); err != nil {
		w.logger.Error("machine reload failed", "files", files, "error", err)
	}
}

func (w *MachineWatcher) record(update func(*Stats)) {
	w.mu.Lock()
	update(&w.stats)
	w.mu.Unlock()
}
