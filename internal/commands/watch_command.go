package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/analysis"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/events"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/watch"
)

// WatchCommand processes every recording that appears in a folder until
// the context is cancelled.
type WatchCommand struct {
	BaseCommand
	analyzer *analysis.Analyzer
	dir      string
	settle   time.Duration
	backfill bool
	opts     ProcessOptions
	executor *CommandExecutor

	watcher *watch.Watcher
}

// NewWatchCommand creates a command watching dir.
func NewWatchCommand(analyzer *analysis.Analyzer, dir string, settle time.Duration, backfill bool, opts ProcessOptions) *WatchCommand {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &WatchCommand{
		BaseCommand: BaseCommand{
			name:        "Watch",
			description: fmt.Sprintf("Watch %s for new recordings", dir),
		},
		analyzer: analyzer,
		dir:      dir,
		settle:   settle,
		backfill: backfill,
		opts:     opts,
		executor: NewCommandExecutor(0, opts.Logger),
	}
}

// Execute blocks while watching. Cancelling ctx is a normal stop.
func (c *WatchCommand) Execute(ctx context.Context) error {
	w, err := watch.New(watch.Config{
		Dir:      c.dir,
		Settle:   c.settle,
		Backfill: c.backfill,
		Logger:   c.opts.Logger,
		Handler: func(ctx context.Context, path string) error {
			err := c.executor.Execute(ctx, NewProcessCommand(c.analyzer, path, c.opts))
			if err != nil {
				c.opts.Events.Dispatch(events.NewEvent(ctx, events.RecordingFailed,
					events.FailedMessage{Path: path, Error: err.Error()}))
			}
			return err
		},
	})
	if err != nil {
		return err
	}
	c.watcher = w

	err = w.Start(ctx)
	m := w.Metrics()
	c.opts.Logger.Info("Watch stopped",
		"handled", m.Processed,
		"failed", m.Failed,
		"p50_ms", m.Latency.P50,
		"p95_ms", m.Latency.P95,
		"uptime", m.Uptime)
	c.opts.Events.Dispatch(events.NewEvent(context.WithoutCancel(ctx), events.WatchStopped, events.StoppedMessage{
		Dir:     c.dir,
		Handled: m.Processed,
		Failed:  m.Failed,
		Uptime:  m.Uptime,
	}))
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Stats reports the recordings handled so far.
func (c *WatchCommand) Stats() watch.Stats {
	if c.watcher == nil {
		return watch.Stats{}
	}
	return c.watcher.Stats()
}
