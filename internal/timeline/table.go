package timeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/actions"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/replay"
)

// RawRow is one action with its minute offset.
type RawRow struct {
	Player         string `json:"player" csv:"player"`
	RelativeMinute int    `json:"relative_minute" csv:"relative_minute"`
	Type           string `json:"type" csv:"type"`
}

// RawTable returns one row per action in match. Minute 0 is anchored on the
// earliest action of the whole recording; nothing is excluded.
func RawTable(match *replay.Match, logger *slog.Logger) ([]RawRow, error) {
	records := Records(match, logger)

	anchor, err := Anchor(records)
	if err != nil {
		return nil, err
	}

	rows := make([]RawRow, len(records))
	for i, r := range records {
		rows[i] = RawRow{
			Player:         r.Player,
			RelativeMinute: RelativeMinute(r.Timestamp, anchor),
			Type:           r.Type,
		}
	}
	return rows, nil
}

// Aggregate drops excluded action types, anchors minute 0 on the earliest
// remaining action and counts actions per (player, minute, type).
func Aggregate(match *replay.Match, exclusions actions.ExclusionSet, logger *slog.Logger) (*AggregatedTable, error) {
	records := Records(match, logger)
	kept := Filter(records, func(r Record) bool {
		return !exclusions.Excludes(r.Type)
	})

	anchor, err := Anchor(kept)
	if err != nil {
		return nil, fmt.Errorf("%d of %d actions left after excluding %v: %w",
			len(kept), len(records), exclusions.Tags(), err)
	}

	return Group(kept, anchor), nil
}

// BuilderConfig configures a Builder.
type BuilderConfig struct {
	// Reader decodes recordings. Default: replay.NewJSONReader().
	Reader replay.Reader

	// Logger receives per-record diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Builder builds action tables from recording files.
type Builder struct {
	reader replay.Reader
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(config BuilderConfig) *Builder {
	if config.Reader == nil {
		config.Reader = replay.NewJSONReader()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Builder{reader: config.Reader, logger: config.Logger}
}

// BuildRawTable parses the recording at path and returns its raw table.
func (b *Builder) BuildRawTable(ctx context.Context, path string) ([]RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	match, err := replay.ParseMatchFile(b.reader, path)
	if err != nil {
		return nil, err
	}

	rows, err := RawTable(match, b.logger)
	if err != nil {
		return nil, fmt.Errorf("build raw table for %s: %w", path, err)
	}

	b.logger.Debug("Built raw table", "path", path, "rows", len(rows))
	return rows, nil
}

// BuildAggregatedTable parses the recording at path and returns its
// aggregated counts. exclude is added to the default exclusions.
func (b *Builder) BuildAggregatedTable(ctx context.Context, path string, exclude []string) (*AggregatedTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	match, err := replay.ParseMatchFile(b.reader, path)
	if err != nil {
		return nil, err
	}

	table, err := Aggregate(match, actions.NewExclusionSet(exclude...), b.logger)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", path, err)
	}

	b.logger.Debug("Built aggregated table",
		"path", path,
		"groups", table.Len(),
		"actions", table.Total())
	return table, nil
}
