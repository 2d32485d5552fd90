// Package analysis runs the single-file pipeline: decode a recording, build
// its action tables and extract its summary.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/actions"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/charts"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/replay"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/summary"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/timeline"
)

// Config configures an Analyzer.
type Config struct {
	// Reader decodes recordings. Default: replay.NewJSONReader().
	Reader replay.Reader

	// Exclude lists action types dropped from the aggregated table in
	// addition to the defaults.
	Exclude []string

	// Logger for pipeline diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Analyzer runs the pipeline for one recording at a time.
type Analyzer struct {
	reader     replay.Reader
	exclusions actions.ExclusionSet
	builder    *timeline.Builder
	logger     *slog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(config Config) *Analyzer {
	if config.Reader == nil {
		config.Reader = replay.NewJSONReader()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Analyzer{
		reader:     config.Reader,
		exclusions: actions.NewExclusionSet(config.Exclude...),
		builder:    timeline.NewBuilder(timeline.BuilderConfig{Reader: config.Reader, Logger: config.Logger}),
		logger:     config.Logger,
	}
}

// Exclusions returns every action type the aggregated table drops.
func (a *Analyzer) Exclusions() []string {
	return a.exclusions.Tags()
}

// Report is the complete result of analysing one recording.
type Report struct {
	Path       string
	Raw        []timeline.RawRow
	Aggregated *timeline.AggregatedTable
	Summary    *summary.MatchSummary
	Exclusions []string
}

// Analyze decodes the recording at path once and derives every output from
// it. Any failure aborts the run; no partial report is returned.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	match, s, err := replay.ParseFile(a.reader, path)
	if err != nil {
		return nil, err
	}

	raw, err := timeline.RawTable(match, a.logger)
	if err != nil {
		return nil, fmt.Errorf("build raw table for %s: %w", path, err)
	}

	agg, err := timeline.Aggregate(match, a.exclusions, a.logger)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", path, err)
	}

	ms := summary.Extract(s)

	a.logger.Info("Analyzed recording",
		"path", path,
		"players", len(ms.Players),
		"actions", len(raw),
		"counted", agg.Total())

	return &Report{
		Path:       path,
		Raw:        raw,
		Aggregated: agg,
		Summary:    ms,
		Exclusions: a.Exclusions(),
	}, nil
}

// RawTable builds only the raw table for path.
func (a *Analyzer) RawTable(ctx context.Context, path string) ([]timeline.RawRow, error) {
	return a.builder.BuildRawTable(ctx, path)
}

// AggregatedTable builds only the aggregated table for path.
func (a *Analyzer) AggregatedTable(ctx context.Context, path string) (*timeline.AggregatedTable, error) {
	return a.builder.BuildAggregatedTable(ctx, path, a.exclusions.Tags())
}

// Summary extracts only the summary for path.
func (a *Analyzer) Summary(ctx context.Context, path string) (*summary.MatchSummary, error) {
	return summary.ExtractFile(ctx, a.reader, path)
}

// TeamCategories are the category column names of TeamMetricRows.
var TeamCategories = []string{"team", "player"}

// TeamMetricRows turns a report into wide rows keyed by (team, player) with
// one metric column per action type. Players that are on no team are
// grouped under "-".
func TeamMetricRows(report *Report) []charts.MetricRow {
	teamOf := make(map[string]string)
	if report.Summary != nil {
		names := make(map[int]string, len(report.Summary.Players))
		for _, p := range report.Summary.Players {
			names[p.Number] = p.Name
		}
		for i, team := range report.Summary.Teams {
			for _, n := range team {
				if name, ok := names[n]; ok {
					teamOf[name] = "Team " + strconv.Itoa(i+1)
				}
			}
		}
	}

	var rows []charts.MetricRow
	for _, player := range report.Aggregated.Players() {
		team, ok := teamOf[player]
		if !ok {
			team = "-"
		}
		metrics := make(map[string]float64)
		for _, tt := range report.Aggregated.PlayerTypeTotals(player) {
			metrics[tt.Type] = float64(tt.Count)
		}
		rows = append(rows, charts.MetricRow{
			Categories: []string{team, player},
			Metrics:    metrics,
		})
	}
	return rows
}
