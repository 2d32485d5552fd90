package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage/models"
	_ "modernc.org/sqlite"
)

// setupMatchTestDB creates an in-memory database with the archive tables.
func setupMatchTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE matches (
			id TEXT PRIMARY KEY,
			file_hash TEXT NOT NULL UNIQUE,
			file_path TEXT NOT NULL,
			map_name TEXT NOT NULL DEFAULT '',
			diplomacy TEXT NOT NULL DEFAULT '',
			duration TEXT NOT NULL DEFAULT '',
			start_time TEXT NOT NULL DEFAULT '?',
			winning_team INTEGER,
			player_count INTEGER NOT NULL DEFAULT 0,
			action_count INTEGER NOT NULL DEFAULT 0,
			excluded_types TEXT NOT NULL DEFAULT '',
			summary_json TEXT NOT NULL DEFAULT '{}',
			analyzed_at DATETIME NOT NULL
		);

		CREATE TABLE action_counts (
			match_id TEXT NOT NULL,
			player TEXT NOT NULL,
			relative_minute INTEGER NOT NULL,
			action_type TEXT NOT NULL,
			count INTEGER NOT NULL CHECK(count > 0),
			PRIMARY KEY (match_id, player, relative_minute, action_type)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Error closing database: %v", err)
		}
	})
	return db
}

func testMatch(id, hash string, analyzedAt time.Time) *models.Match {
	team := 1
	return &models.Match{
		ID:            id,
		FileHash:      hash,
		FilePath:      "/recs/" + id + ".aoe2record",
		MapName:       "Arabia",
		Diplomacy:     "TG",
		Duration:      "1:01:01",
		StartTime:     "2024-01-15 10:30:00",
		WinningTeam:   &team,
		PlayerCount:   4,
		ActionCount:   8,
		ExcludedTypes: []string{"GAME", "DE_TRANSFORM"},
		SummaryJSON:   `{"map":"Arabia"}`,
		AnalyzedAt:    analyzedAt,
	}
}

func TestMatchRepository_CreateAndGet(t *testing.T) {
	db := setupMatchTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	counts := []models.ActionCount{
		{Player: "Alice", RelativeMinute: 0, ActionType: "MOVE", Count: 2},
		{Player: "Bob", RelativeMinute: 0, ActionType: "BUILD", Count: 1},
	}
	if err := repo.Create(ctx, testMatch("m1", "hash1", now), counts); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FileHash != "hash1" {
		t.Errorf("expected hash1, got %s", got.FileHash)
	}
	if got.WinningTeam == nil || *got.WinningTeam != 1 {
		t.Errorf("expected winning team 1, got %v", got.WinningTeam)
	}
	if len(got.ExcludedTypes) != 2 || got.ExcludedTypes[0] != "GAME" {
		t.Errorf("unexpected excluded types: %v", got.ExcludedTypes)
	}
	if !got.AnalyzedAt.Equal(now) {
		t.Errorf("expected analyzed_at %v, got %v", now, got.AnalyzedAt)
	}

	byHash, err := repo.GetByHash(ctx, "hash1")
	if err != nil {
		t.Fatalf("GetByHash failed: %v", err)
	}
	if byHash.ID != "m1" {
		t.Errorf("expected m1, got %s", byHash.ID)
	}

	stored, err := repo.GetCounts(ctx, "m1")
	if err != nil {
		t.Fatalf("GetCounts failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 counts, got %d", len(stored))
	}
	if stored[0].Player != "Alice" || stored[0].Count != 2 {
		t.Errorf("unexpected first count: %+v", stored[0])
	}
}

func TestMatchRepository_NullWinningTeam(t *testing.T) {
	db := setupMatchTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	m := testMatch("m1", "hash1", time.Now())
	m.WinningTeam = nil
	m.ExcludedTypes = nil
	if err := repo.Create(ctx, m, nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.WinningTeam != nil {
		t.Errorf("expected nil winning team, got %d", *got.WinningTeam)
	}
	if got.ExcludedTypes != nil {
		t.Errorf("expected nil excluded types, got %v", got.ExcludedTypes)
	}
}

func TestMatchRepository_NotFound(t *testing.T) {
	db := setupMatchTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByHash(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMatchRepository_DuplicateHash(t *testing.T) {
	db := setupMatchTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, testMatch("m1", "same", time.Now()), nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, testMatch("m2", "same", time.Now()), nil); err == nil {
		t.Error("expected unique constraint error for duplicate hash")
	}
}

func TestMatchRepository_List(t *testing.T) {
	db := setupMatchTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		m := testMatch(id, "hash-"+id, base.Add(time.Duration(i)*time.Hour))
		if id == "b" {
			m.MapName = "Arena"
		}
		if err := repo.Create(ctx, m, nil); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
	}

	tests := []struct {
		name   string
		filter models.MatchFilter
		want   []string
	}{
		{"all newest first", models.MatchFilter{}, []string{"c", "b", "a"}},
		{"limit", models.MatchFilter{Limit: 1}, []string{"c"}},
		{"map", models.MatchFilter{MapName: "Arabia"}, []string{"c", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d matches, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestMatchRepository_Delete(t *testing.T) {
	db := setupMatchTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	counts := []models.ActionCount{{Player: "Alice", RelativeMinute: 0, ActionType: "MOVE", Count: 1}}
	if err := repo.Create(ctx, testMatch("m1", "h", time.Now()), counts); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Delete(ctx, "m1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	left, err := repo.GetCounts(ctx, "m1")
	if err != nil {
		t.Fatalf("GetCounts failed: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("expected counts to be removed, got %d", len(left))
	}
}

func TestMatchRepository_Replace(t *testing.T) {
	db := setupMatchTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	counts := []models.ActionCount{
		{Player: "Alice", RelativeMinute: 0, ActionType: "MOVE", Count: 3},
		{Player: "Alice", RelativeMinute: 1, ActionType: "BUILD", Count: 1},
	}
	if err := repo.Create(ctx, testMatch("m1", "h", time.Now()), counts); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated := testMatch("m1", "h", time.Now())
	updated.ExcludedTypes = []string{"DE_TRANSFORM", "GAME", "MOVE"}
	updated.ActionCount = 1
	if err := repo.Replace(ctx, updated, counts[1:]); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ActionCount != 1 || len(got.ExcludedTypes) != 3 {
		t.Errorf("match not updated: %+v", got)
	}

	left, err := repo.GetCounts(ctx, "m1")
	if err != nil {
		t.Fatalf("GetCounts failed: %v", err)
	}
	if len(left) != 1 || left[0].ActionType != "BUILD" {
		t.Errorf("counts = %+v, want only the BUILD row", left)
	}

	if err := repo.Replace(ctx, testMatch("missing", "x", time.Now()), nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Replace of unknown id = %v, want ErrNotFound", err)
	}
}
