package commands

import (
	"context"
	"fmt"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/actions"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/analysis"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/export"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/timeline"
)

// DescribedRow is a raw table row with the action's description.
type DescribedRow struct {
	Player         string `json:"player" csv:"player"`
	RelativeMinute int    `json:"relative_minute" csv:"relative_minute"`
	Type           string `json:"type" csv:"type"`
	Description    string `json:"description" csv:"description"`
}

// TableCommand writes the raw action table of one recording.
type TableCommand struct {
	BaseCommand
	analyzer *analysis.Analyzer
	path     string
	describe bool
	out      Output

	// Rows holds the table after Execute.
	Rows []timeline.RawRow
}

// NewTableCommand creates a command writing the raw table for path.
// With describe set every row carries the action description.
func NewTableCommand(analyzer *analysis.Analyzer, path string, describe bool, out Output) *TableCommand {
	return &TableCommand{
		BaseCommand: BaseCommand{
			name:        "Table",
			description: fmt.Sprintf("Write raw action table of %s to %s", path, out.target()),
		},
		analyzer: analyzer,
		path:     path,
		describe: describe,
		out:      out,
	}
}

// Execute builds and writes the table.
func (c *TableCommand) Execute(ctx context.Context) error {
	rows, err := c.analyzer.RawTable(ctx, c.path)
	if err != nil {
		return err
	}
	c.Rows = rows

	if !c.describe {
		return c.out.write(rows)
	}

	described := make([]DescribedRow, len(rows))
	for i, r := range rows {
		described[i] = DescribedRow{
			Player:         r.Player,
			RelativeMinute: r.RelativeMinute,
			Type:           r.Type,
			Description:    actions.DescribeOrTag(r.Type),
		}
	}
	return c.out.write(described)
}

// AggregateCommand writes the aggregated count table, or the per-player APM
// summary, of one recording.
type AggregateCommand struct {
	BaseCommand
	analyzer *analysis.Analyzer
	path     string
	apm      bool
	out      Output

	// Table holds the aggregated table after Execute.
	Table *timeline.AggregatedTable
}

// NewAggregateCommand creates a command writing aggregated counts for path.
func NewAggregateCommand(analyzer *analysis.Analyzer, path string, apm bool, out Output) *AggregateCommand {
	what := "aggregated action counts"
	if apm {
		what = "APM summary"
	}
	return &AggregateCommand{
		BaseCommand: BaseCommand{
			name:        "Aggregate",
			description: fmt.Sprintf("Write %s of %s to %s", what, path, out.target()),
		},
		analyzer: analyzer,
		path:     path,
		apm:      apm,
		out:      out,
	}
}

// Execute builds and writes the table.
func (c *AggregateCommand) Execute(ctx context.Context) error {
	table, err := c.analyzer.AggregatedTable(ctx, c.path)
	if err != nil {
		return err
	}
	c.Table = table

	if c.apm {
		return c.out.write(table.APMSummary())
	}
	return c.out.write(table.Rows())
}

// SummaryCommand writes the match summary of one recording. CSV output has
// one row per player.
type SummaryCommand struct {
	BaseCommand
	analyzer *analysis.Analyzer
	path     string
	out      Output
}

// NewSummaryCommand creates a command writing the summary for path.
func NewSummaryCommand(analyzer *analysis.Analyzer, path string, out Output) *SummaryCommand {
	return &SummaryCommand{
		BaseCommand: BaseCommand{
			name:        "Summary",
			description: fmt.Sprintf("Write match summary of %s to %s", path, out.target()),
		},
		analyzer: analyzer,
		path:     path,
		out:      out,
	}
}

// Execute extracts and writes the summary.
func (c *SummaryCommand) Execute(ctx context.Context) error {
	ms, err := c.analyzer.Summary(ctx, c.path)
	if err != nil {
		return err
	}

	if c.out.Format == export.FormatCSV {
		return c.out.write(export.SummaryRows(ms))
	}
	return c.out.write(ms)
}
