// Package repository provides data access layers for archived matches.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("match not found")

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MatchRepository handles database operations for archived matches.
type MatchRepository interface {
	// Create inserts a match and its aggregated counts.
	Create(ctx context.Context, match *models.Match, counts []models.ActionCount) error

	// Replace overwrites the match with match.ID and swaps its counts.
	Replace(ctx context.Context, match *models.Match, counts []models.ActionCount) error

	// GetByID retrieves a match by its ID.
	GetByID(ctx context.Context, id string) (*models.Match, error)

	// GetByHash retrieves a match by the hash of its recording file.
	GetByHash(ctx context.Context, hash string) (*models.Match, error)

	// List returns matches newest first.
	List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error)

	// GetCounts returns the aggregated counts stored for a match.
	GetCounts(ctx context.Context, matchID string) ([]models.ActionCount, error)

	// Delete removes a match and its counts.
	Delete(ctx context.Context, id string) error

	// WithTx returns a repository bound to tx.
	WithTx(tx *sql.Tx) MatchRepository
}

type matchRepository struct {
	db DBTX
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(db DBTX) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) WithTx(tx *sql.Tx) MatchRepository {
	return &matchRepository{db: tx}
}

func (r *matchRepository) Create(ctx context.Context, match *models.Match, counts []models.ActionCount) error {
	query := `
		INSERT INTO matches (
			id, file_hash, file_path, map_name, diplomacy, duration, start_time,
			winning_team, player_count, action_count, excluded_types, summary_json, analyzed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var winningTeam any
	if match.WinningTeam != nil {
		winningTeam = *match.WinningTeam
	}

	_, err := r.db.ExecContext(ctx, query,
		match.ID,
		match.FileHash,
		match.FilePath,
		match.MapName,
		match.Diplomacy,
		match.Duration,
		match.StartTime,
		winningTeam,
		match.PlayerCount,
		match.ActionCount,
		strings.Join(match.ExcludedTypes, ","),
		match.SummaryJSON,
		match.AnalyzedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	return r.insertCounts(ctx, match.ID, counts)
}

func (r *matchRepository) Replace(ctx context.Context, match *models.Match, counts []models.ActionCount) error {
	query := `
		UPDATE matches SET
			file_path = ?, map_name = ?, diplomacy = ?, duration = ?, start_time = ?,
			winning_team = ?, player_count = ?, action_count = ?, excluded_types = ?,
			summary_json = ?, analyzed_at = ?
		WHERE id = ?
	`

	var winningTeam any
	if match.WinningTeam != nil {
		winningTeam = *match.WinningTeam
	}

	res, err := r.db.ExecContext(ctx, query,
		match.FilePath,
		match.MapName,
		match.Diplomacy,
		match.Duration,
		match.StartTime,
		winningTeam,
		match.PlayerCount,
		match.ActionCount,
		strings.Join(match.ExcludedTypes, ","),
		match.SummaryJSON,
		match.AnalyzedAt.UTC(),
		match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM action_counts WHERE match_id = ?", match.ID); err != nil {
		return fmt.Errorf("failed to delete action counts: %w", err)
	}
	return r.insertCounts(ctx, match.ID, counts)
}

func (r *matchRepository) insertCounts(ctx context.Context, matchID string, counts []models.ActionCount) error {
	query := `
		INSERT INTO action_counts (match_id, player, relative_minute, action_type, count)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, c := range counts {
		if _, err := r.db.ExecContext(ctx, query, matchID, c.Player, c.RelativeMinute, c.ActionType, c.Count); err != nil {
			return fmt.Errorf("failed to insert action count: %w", err)
		}
	}
	return nil
}

const matchColumns = `
	id, file_hash, file_path, map_name, diplomacy, duration, start_time,
	winning_team, player_count, action_count, excluded_types, summary_json, analyzed_at
`

func (r *matchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+matchColumns+" FROM matches WHERE id = ?", id)
	return scanMatch(row)
}

func (r *matchRepository) GetByHash(ctx context.Context, hash string) (*models.Match, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+matchColumns+" FROM matches WHERE file_hash = ?", hash)
	return scanMatch(row)
}

func (r *matchRepository) List(ctx context.Context, filter models.MatchFilter) (_ []*models.Match, err error) {
	query := "SELECT " + matchColumns + " FROM matches WHERE 1=1"
	var args []any

	if filter.MapName != "" {
		query += " AND map_name = ?"
		args = append(args, filter.MapName)
	}
	if filter.Since != nil {
		query += " AND analyzed_at >= ?"
		args = append(args, filter.Since.UTC())
	}
	query += " ORDER BY analyzed_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close rows: %w", closeErr)
		}
	}()

	var matches []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

func (r *matchRepository) GetCounts(ctx context.Context, matchID string) (_ []models.ActionCount, err error) {
	query := `
		SELECT a.player, a.relative_minute, a.action_type, a.count
		FROM action_counts a
		WHERE a.match_id = ?
		ORDER BY a.rowid
	`
	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query action counts: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close rows: %w", closeErr)
		}
	}()

	var counts []models.ActionCount
	for rows.Next() {
		c := models.ActionCount{MatchID: matchID}
		if err := rows.Scan(&c.Player, &c.RelativeMinute, &c.ActionType, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan action count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action counts: %w", err)
	}
	return counts, nil
}

func (r *matchRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM action_counts WHERE match_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete action counts: %w", err)
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM matches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(s scanner) (*models.Match, error) {
	m := &models.Match{}
	var winningTeam sql.NullInt64
	var excluded string
	var analyzedAt time.Time

	err := s.Scan(
		&m.ID,
		&m.FileHash,
		&m.FilePath,
		&m.MapName,
		&m.Diplomacy,
		&m.Duration,
		&m.StartTime,
		&winningTeam,
		&m.PlayerCount,
		&m.ActionCount,
		&excluded,
		&m.SummaryJSON,
		&analyzedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}

	if winningTeam.Valid {
		team := int(winningTeam.Int64)
		m.WinningTeam = &team
	}
	if excluded != "" {
		m.ExcludedTypes = strings.Split(excluded, ",")
	}
	m.AnalyzedAt = analyzedAt
	return m, nil
}
