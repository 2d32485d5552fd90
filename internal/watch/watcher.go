// Package watch runs a handler once for every recording that appears in a
// folder.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/metrics"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/replay"
)

// Handler processes one finished recording.
type Handler func(ctx context.Context, path string) error

// Config configures a Watcher.
type Config struct {
	// Dir is the folder to watch.
	Dir string

	// Settle is how long a file must go without writes before it is handled.
	// Default: 2 seconds
	Settle time.Duration

	// Backfill handles recordings already in Dir when the watcher starts.
	Backfill bool

	// Handler is called for each recording, one at a time.
	Handler Handler

	// Logger for watcher events. Default: slog.Default().
	Logger *slog.Logger
}

// Watcher watches a recordings folder.
type Watcher struct {
	dir      string
	settle   time.Duration
	backfill bool
	handler  Handler
	logger   *slog.Logger

	pending  map[string]time.Time
	done     map[string]struct{}
	stopChan chan struct{}
	stopOnce sync.Once

	metrics *metrics.PipelineMetrics
}

// Stats reports how many recordings were handled.
type Stats struct {
	Handled int
	Failed  int
}

// New creates a Watcher.
func New(config Config) (*Watcher, error) {
	if config.Dir == "" {
		return nil, errors.New("watch directory cannot be empty")
	}
	if config.Handler == nil {
		return nil, errors.New("watch handler cannot be nil")
	}
	if config.Settle <= 0 {
		config.Settle = 2 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Watcher{
		dir:      config.Dir,
		settle:   config.Settle,
		backfill: config.Backfill,
		handler:  config.Handler,
		logger:   config.Logger,
		pending:  make(map[string]time.Time),
		done:     make(map[string]struct{}),
		stopChan: make(chan struct{}),
		metrics:  metrics.NewPipelineMetrics(),
	}, nil
}

// Start watches the folder until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	if w.backfill {
		existing, err := replay.ListRecordings(w.dir)
		if err != nil {
			return err
		}
		w.logger.Info("Backfilling recordings", "dir", w.dir, "count", len(existing))
		for _, path := range existing {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.handle(ctx, path)
		}
	}

	w.logger.Info("Watching for recordings", "dir", w.dir, "settle", w.settle)

	tick := w.settle / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopChan:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.observe(event)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", werr)
		case now := <-ticker.C:
			for _, path := range w.due(now) {
				w.handle(ctx, path)
			}
		}
	}
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

// Stats returns the handled and failed counts so far.
func (w *Watcher) Stats() Stats {
	s := w.metrics.Snapshot()
	return Stats{Handled: int(s.Processed), Failed: int(s.Failed)}
}

// Metrics returns processing latency and outcome statistics.
func (w *Watcher) Metrics() metrics.PipelineStats {
	return w.metrics.Snapshot()
}

func (w *Watcher) observe(event fsnotify.Event) {
	if !replay.IsRecording(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if _, seen := w.done[event.Name]; seen {
		return
	}
	w.pending[event.Name] = time.Now()
}

// due returns pending files whose last write is at least settle old, in
// path order.
func (w *Watcher) due(now time.Time) []string {
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	for _, path := range ready {
		delete(w.pending, path)
	}
	return ready
}

func (w *Watcher) handle(ctx context.Context, path string) {
	if _, seen := w.done[path]; seen {
		return
	}
	w.done[path] = struct{}{}

	start := time.Now()
	err := w.handler(ctx, path)
	w.metrics.Record(time.Since(start), err)

	if err != nil {
		w.logger.Error("Failed to process recording", "path", path, "error", err)
		return
	}
	w.logger.Info("Processed recording", "path", path, "elapsed", time.Since(start))
}
