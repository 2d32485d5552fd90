package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/analysis"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/events"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage"
)

// ProcessOptions configures ProcessCommand.
type ProcessOptions struct {
	// Service archives the report when set.
	Service *storage.Service

	// Chart writes the HTML chart when set.
	Chart *ChartOptions

	// Events receives a RecordingProcessed event per success. May be nil.
	Events *events.Dispatcher

	Logger *slog.Logger
}

// ProcessCommand runs the full pipeline for one recording: analyse, then
// optionally archive and chart. Watch mode runs one per new recording.
type ProcessCommand struct {
	BaseCommand
	analyzer *analysis.Analyzer
	path     string
	opts     ProcessOptions
	steps    *CommandExecutor

	// Report holds the analysis after Execute.
	Report *analysis.Report
}

// NewProcessCommand creates a command processing the recording at path.
func NewProcessCommand(analyzer *analysis.Analyzer, path string, opts ProcessOptions) *ProcessCommand {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ProcessCommand{
		BaseCommand: BaseCommand{
			name:        "Process",
			description: fmt.Sprintf("Analyse %s", path),
		},
		analyzer: analyzer,
		path:     path,
		opts:     opts,
		steps:    NewCommandExecutor(0, opts.Logger),
	}
}

// Execute runs the pipeline. Any failure aborts the remaining steps and
// rolls back the ones already done, so a failed recording leaves no new
// archive entry behind.
func (c *ProcessCommand) Execute(ctx context.Context) error {
	report, err := c.analyzer.Analyze(ctx, c.path)
	if err != nil {
		return err
	}
	c.Report = report

	msg := events.ProcessedMessage{
		Path:        c.path,
		ActionCount: len(report.Raw),
		Duration:    report.Summary.Duration,
	}
	for _, p := range report.Summary.Players {
		msg.Players = append(msg.Players, p.Name)
	}

	if c.opts.Service != nil {
		archive := NewArchiveCommand(c.opts.Service, report)
		if err := c.steps.Execute(ctx, archive); err != nil {
			return err
		}
		msg.MatchID = archive.Match.ID
		msg.NewMatch = archive.CanUndo()
		c.opts.Logger.Debug("Archived", "path", c.path, "id", msg.MatchID, "new", msg.NewMatch)
	}

	if c.opts.Chart != nil {
		opts := *c.opts.Chart
		opts.OutputPath = ""
		chart := NewChartCommand(c.analyzer, c.path, opts)
		if err := chart.render(report); err != nil {
			c.rollback(ctx)
			return err
		}
		if len(chart.Written) > 0 {
			msg.ChartPath = chart.Written[0]
		}
	}

	c.opts.Events.Dispatch(events.NewEvent(ctx, events.RecordingProcessed, msg))
	return nil
}

func (c *ProcessCommand) rollback(ctx context.Context) {
	done := c.steps.GetHistory()
	if len(done) == 0 {
		return
	}
	names := make([]string, len(done))
	for i, cmd := range done {
		names[i] = cmd.GetName()
	}

	if err := c.steps.Rollback(context.WithoutCancel(ctx)); err != nil {
		c.opts.Logger.Warn("Rollback failed", "path", c.path, "steps", names, "error", err)
		return
	}
	c.opts.Logger.Info("Rolled back", "path", c.path, "steps", names)
}
