package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/replay/replaytest"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage/models"
)

func testService(t *testing.T) *storage.Service {
	t.Helper()
	db, err := storage.Open(storage.DefaultConfig(":memory:"))
	require.NoError(t, err)
	svc := storage.NewService(db, quietLogger())
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestProcessAndArchive(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	path := replaytest.WriteFile(t, "match.json", replaytest.TwoVsTwo)
	chartDir := t.TempDir()

	process := NewProcessCommand(testAnalyzer(), path, ProcessOptions{
		Service: svc,
		Chart:   &ChartOptions{OutputDir: chartDir, Logger: quietLogger()},
		Logger:  quietLogger(),
	})
	require.NoError(t, process.Execute(ctx))
	require.NotNil(t, process.Report)
	assert.FileExists(t, filepath.Join(chartDir, "match_chart.html"))

	var buf bytes.Buffer
	history := NewHistoryCommand(svc, models.MatchFilter{}, Output{Writer: &buf})
	require.NoError(t, history.Execute(ctx))

	var rows []HistoryRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Arabia", rows[0].Map)
	assert.Equal(t, 8, rows[0].Actions)
	assert.Equal(t, "DE_TRANSFORM,GAME", rows[0].Excluded)
	assert.Equal(t, path, rows[0].Path)
}

func TestArchiveCommand_Undo(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	path := replaytest.WriteFile(t, "match.json", replaytest.TwoVsTwo)

	report, err := testAnalyzer().Analyze(ctx, path)
	require.NoError(t, err)

	e := NewCommandExecutor(0, quietLogger())
	first := NewArchiveCommand(svc, report)
	require.NoError(t, e.Execute(ctx, first))
	assert.True(t, first.CanUndo())

	// Archiving the same recording again is a no-op and cannot be undone.
	second := NewArchiveCommand(svc, report)
	require.NoError(t, e.Execute(ctx, second))
	assert.False(t, second.CanUndo())
	assert.Equal(t, first.Match.ID, second.Match.ID)
	assert.Len(t, e.GetHistory(), 1)

	require.NoError(t, e.Undo(ctx))
	_, err = svc.Match(ctx, first.Match.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, NewMigrateCommand(dbPath, "up", &buf).Execute(ctx))
	assert.Equal(t, "version: 1 dirty: false\n", buf.String())

	buf.Reset()
	require.NoError(t, NewMigrateCommand(dbPath, "version", &buf).Execute(ctx))
	assert.Equal(t, "version: 1 dirty: false\n", buf.String())

	buf.Reset()
	require.NoError(t, NewMigrateCommand(dbPath, "down", &buf).Execute(ctx))
	assert.Equal(t, "version: 0 dirty: false\n", buf.String())

	assert.Error(t, NewMigrateCommand(dbPath, "sideways", &buf).Execute(ctx))
}

func TestProcessCommand_ChartFailureRollsBackArchive(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	path := replaytest.WriteFile(t, "match.json", replaytest.TwoVsTwo)

	// A regular file where the chart directory should be makes rendering fail.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	process := NewProcessCommand(testAnalyzer(), path, ProcessOptions{
		Service: svc,
		Chart:   &ChartOptions{OutputDir: blocker, Logger: quietLogger()},
		Logger:  quietLogger(),
	})
	require.Error(t, process.Execute(ctx))

	matches, err := svc.History(ctx, models.MatchFilter{})
	require.NoError(t, err)
	assert.Empty(t, matches, "the archived match is removed when a later step fails")
}

func TestProcessCommand_ChartFailureKeepsExistingMatch(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	path := replaytest.WriteFile(t, "match.json", replaytest.TwoVsTwo)

	require.NoError(t, NewProcessCommand(testAnalyzer(), path, ProcessOptions{Service: svc, Logger: quietLogger()}).Execute(ctx))

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	process := NewProcessCommand(testAnalyzer(), path, ProcessOptions{
		Service: svc,
		Chart:   &ChartOptions{OutputDir: blocker, Logger: quietLogger()},
		Logger:  quietLogger(),
	})
	require.Error(t, process.Execute(ctx))

	matches, err := svc.History(ctx, models.MatchFilter{})
	require.NoError(t, err)
	assert.Len(t, matches, 1, "a match archived by an earlier run is not rolled back")
}

func TestDeleteCommand(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	path := replaytest.WriteFile(t, "match.json", replaytest.TwoVsTwo)

	report, err := testAnalyzer().Analyze(ctx, path)
	require.NoError(t, err)
	archive := NewArchiveCommand(svc, report)
	require.NoError(t, archive.Execute(ctx))

	var buf bytes.Buffer
	require.NoError(t, NewDeleteCommand(svc, archive.Match.ID, &buf).Execute(ctx))
	assert.Equal(t, "deleted: "+archive.Match.ID+"\n", buf.String())

	_, err = svc.Match(ctx, archive.Match.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, NewDeleteCommand(svc, archive.Match.ID, &buf).Execute(ctx), storage.ErrNotFound)
}
