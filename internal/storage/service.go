package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage/models"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage/repository"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/summary"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/timeline"
)

// ErrNotFound is returned when no archived match has the requested ID.
var ErrNotFound = repository.ErrNotFound

// Entry is everything archived for one analysed recording.
type Entry struct {
	Path          string
	Summary       *summary.MatchSummary
	Table         *timeline.AggregatedTable
	ExcludedTypes []string
}

// Service provides high-level operations on the match archive.
type Service struct {
	db      *DB
	matches repository.MatchRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new storage service.
func NewService(db *DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:      db,
		matches: repository.NewMatchRepository(db.Conn()),
		logger:  logger,
		now:     time.Now,
	}
}

// Archive stores entry. A recording whose contents were archived before is
// not stored twice: the existing row is returned with created=false. When
// the earlier run used different exclusions its counts are replaced with
// entry's, keeping the same ID.
func (s *Service) Archive(ctx context.Context, entry Entry) (match *models.Match, created bool, err error) {
	if entry.Summary == nil || entry.Table == nil {
		return nil, false, fmt.Errorf("archive entry needs a summary and a table")
	}

	hash, err := HashFile(entry.Path)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.matches.GetByHash(ctx, hash)
	switch {
	case err == nil:
		if sameExclusions(existing.ExcludedTypes, entry.ExcludedTypes) {
			s.logger.Debug("recording already archived", "path", entry.Path, "id", existing.ID)
			return existing, false, nil
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, fmt.Errorf("failed to look up recording: %w", err)
	default:
		existing = nil
	}

	summaryJSON, err := json.Marshal(entry.Summary)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode summary: %w", err)
	}

	match = &models.Match{
		ID:            uuid.New().String(),
		FileHash:      hash,
		FilePath:      entry.Path,
		MapName:       entry.Summary.Map.Name,
		Diplomacy:     entry.Summary.Diplomacy.Type,
		Duration:      entry.Summary.Duration,
		StartTime:     entry.Summary.StartTime,
		WinningTeam:   entry.Summary.WinningTeam,
		PlayerCount:   len(entry.Summary.Players),
		ActionCount:   entry.Table.Total(),
		ExcludedTypes: entry.ExcludedTypes,
		SummaryJSON:   string(summaryJSON),
		AnalyzedAt:    s.now().UTC(),
	}
	if existing != nil {
		match.ID = existing.ID
	}

	rows := entry.Table.Rows()
	counts := make([]models.ActionCount, 0, len(rows))
	for _, r := range rows {
		counts = append(counts, models.ActionCount{
			MatchID:        match.ID,
			Player:         r.Player,
			RelativeMinute: r.RelativeMinute,
			ActionType:     r.Type,
			Count:          r.Count,
		})
	}

	err = s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if existing != nil {
			return s.matches.WithTx(tx).Replace(ctx, match, counts)
		}
		return s.matches.WithTx(tx).Create(ctx, match, counts)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to archive %s: %w", entry.Path, err)
	}

	if existing != nil {
		s.logger.Info("re-archived match with new exclusions",
			"id", match.ID,
			"path", entry.Path,
			"previous", strings.Join(existing.ExcludedTypes, ","),
			"excluded", strings.Join(match.ExcludedTypes, ","))
		return match, false, nil
	}

	s.logger.Info("archived match", "id", match.ID, "path", entry.Path, "actions", match.ActionCount)
	return match, true, nil
}

// sameExclusions compares two exclusion lists ignoring order.
func sameExclusions(a, b []string) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// History lists archived matches, newest first.
func (s *Service) History(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	return s.matches.List(ctx, filter)
}

// Match returns one archived match.
func (s *Service) Match(ctx context.Context, id string) (*models.Match, error) {
	return s.matches.GetByID(ctx, id)
}

// Table rebuilds the aggregated table stored for a match.
func (s *Service) Table(ctx context.Context, id string) (*timeline.AggregatedTable, error) {
	counts, err := s.matches.GetCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	rows := make([]timeline.AggregatedRow, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, timeline.AggregatedRow{
			Player:         c.Player,
			RelativeMinute: c.RelativeMinute,
			Type:           c.ActionType,
			Count:          c.Count,
		})
	}
	return timeline.NewAggregatedTable(rows), nil
}

// Summary decodes the summary stored for a match.
func (s *Service) Summary(ctx context.Context, id string) (*summary.MatchSummary, error) {
	m, err := s.matches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var ms summary.MatchSummary
	if err := json.Unmarshal([]byte(m.SummaryJSON), &ms); err != nil {
		return nil, fmt.Errorf("failed to decode stored summary: %w", err)
	}
	return &ms, nil
}

// Delete removes a match from the archive.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.matches.WithTx(tx).Delete(ctx, id)
	})
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}

// HashFile returns the hex sha256 of the file at path.
func HashFile(path string) (sum string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open recording: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close recording: %w", closeErr)
		}
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash recording: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
