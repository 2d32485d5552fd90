package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/analysis"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage/models"
)

// ArchiveCommand stores an analysed report in the match archive. Undo
// removes the match again when this command created it.
type ArchiveCommand struct {
	BaseCommand
	service *storage.Service
	report  *analysis.Report

	// Match is the archived row after Execute.
	Match   *models.Match
	created bool
}

// NewArchiveCommand creates a command archiving report.
func NewArchiveCommand(service *storage.Service, report *analysis.Report) *ArchiveCommand {
	return &ArchiveCommand{
		BaseCommand: BaseCommand{
			name:        "Archive",
			description: fmt.Sprintf("Archive analysis of %s", report.Path),
		},
		service: service,
		report:  report,
	}
}

// Execute archives the report.
func (c *ArchiveCommand) Execute(ctx context.Context) error {
	m, created, err := c.service.Archive(ctx, storage.Entry{
		Path:          c.report.Path,
		Summary:       c.report.Summary,
		Table:         c.report.Aggregated,
		ExcludedTypes: c.report.Exclusions,
	})
	if err != nil {
		return err
	}
	c.Match = m
	c.created = created
	return nil
}

// CanUndo reports whether Execute added a new match.
func (c *ArchiveCommand) CanUndo() bool {
	return c.created
}

// Undo deletes the match added by Execute.
func (c *ArchiveCommand) Undo(ctx context.Context) error {
	if !c.created {
		return c.BaseCommand.Undo(ctx)
	}
	if err := c.service.Delete(ctx, c.Match.ID); err != nil {
		return err
	}
	c.created = false
	return nil
}

// HistoryRow is one archived match in history output.
type HistoryRow struct {
	ID          string `json:"id" csv:"id"`
	AnalyzedAt  string `json:"analyzed_at" csv:"analyzed_at"`
	Map         string `json:"map" csv:"map"`
	Diplomacy   string `json:"diplomacy" csv:"diplomacy"`
	Duration    string `json:"duration" csv:"duration"`
	StartTime   string `json:"start_time" csv:"start_time"`
	WinningTeam *int   `json:"winning_team" csv:"winning_team"`
	Players     int    `json:"players" csv:"players"`
	Actions     int    `json:"actions" csv:"actions"`
	Excluded    string `json:"excluded" csv:"excluded"`
	Path        string `json:"path" csv:"path"`
}

// HistoryCommand lists archived matches.
type HistoryCommand struct {
	BaseCommand
	service *storage.Service
	filter  models.MatchFilter
	out     Output

	// Rows holds the listed matches after Execute.
	Rows []HistoryRow
}

// NewHistoryCommand creates a command listing archived matches.
func NewHistoryCommand(service *storage.Service, filter models.MatchFilter, out Output) *HistoryCommand {
	return &HistoryCommand{
		BaseCommand: BaseCommand{
			name:        "History",
			description: fmt.Sprintf("List archived matches to %s", out.target()),
		},
		service: service,
		filter:  filter,
		out:     out,
	}
}

// Execute lists and writes the matches.
func (c *HistoryCommand) Execute(ctx context.Context) error {
	matches, err := c.service.History(ctx, c.filter)
	if err != nil {
		return err
	}

	rows := make([]HistoryRow, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, HistoryRow{
			ID:          m.ID,
			AnalyzedAt:  m.AnalyzedAt.Format("2006-01-02 15:04"),
			Map:         m.MapName,
			Diplomacy:   m.Diplomacy,
			Duration:    m.Duration,
			StartTime:   m.StartTime,
			WinningTeam: m.WinningTeam,
			Players:     m.PlayerCount,
			Actions:     m.ActionCount,
			Excluded:    strings.Join(m.ExcludedTypes, ","),
			Path:        m.FilePath,
		})
	}
	c.Rows = rows
	return c.out.write(rows)
}

// DeleteCommand removes an archived match and its counts.
type DeleteCommand struct {
	BaseCommand
	service *storage.Service
	id      string
	out     io.Writer
}

// NewDeleteCommand creates a command deleting the match with id.
func NewDeleteCommand(service *storage.Service, id string, out io.Writer) *DeleteCommand {
	if out == nil {
		out = os.Stdout
	}
	return &DeleteCommand{
		BaseCommand: BaseCommand{
			name:        "Delete",
			description: fmt.Sprintf("Delete archived match %s", id),
		},
		service: service,
		id:      id,
		out:     out,
	}
}

// Execute deletes the match. An unknown id returns storage.ErrNotFound.
func (c *DeleteCommand) Execute(ctx context.Context) error {
	if err := c.service.Delete(ctx, c.id); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.out, "deleted: %s\n", c.id)
	return err
}

// MigrateCommand runs archive schema migrations.
type MigrateCommand struct {
	BaseCommand
	dbPath string
	action string
	out    io.Writer
}

// NewMigrateCommand creates a command running action ("up", "down" or
// "version") against the archive at dbPath.
func NewMigrateCommand(dbPath, action string, out io.Writer) *MigrateCommand {
	if out == nil {
		out = os.Stdout
	}
	return &MigrateCommand{
		BaseCommand: BaseCommand{
			name:        "Migrate",
			description: fmt.Sprintf("Migrate %s on %s", action, dbPath),
		},
		dbPath: dbPath,
		action: action,
		out:    out,
	}
}

// Execute runs the migration action.
func (c *MigrateCommand) Execute(ctx context.Context) (err error) {
	mgr, err := storage.NewMigrationManager(c.dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	switch c.action {
	case "up":
		err = mgr.Up()
	case "down":
		err = mgr.Down()
	case "version":
	default:
		return fmt.Errorf("unknown migrate action %q (use up, down or version)", c.action)
	}
	if err != nil {
		return err
	}

	version, dirty, err := mgr.Version()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.out, "version: %d dirty: %v\n", version, dirty)
	return err
}
