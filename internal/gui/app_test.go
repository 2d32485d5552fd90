package gui

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"fyne.io/fyne/v2/test"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/analysis"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/charts"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/replay/replaytest"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage"
)

func testReport(t *testing.T) *analysis.Report {
	t.Helper()
	path := replaytest.WriteFile(t, "match.json", replaytest.TwoVsTwo)
	a := analysis.NewAnalyzer(analysis.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	report, err := a.Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return report
}

func TestApp_SummaryText(t *testing.T) {
	a := NewApp(test.NewTempApp(t), testReport(t), nil, charts.DefaultFyneChartConfig())
	text := a.SummaryText()

	for _, want := range []string{
		"Map: Arabia (Tiny)",
		"Duration: 1:01:01",
		"Started: 2024-01-15 10:30 UTC",
		"Winner: Team 1 (Alice, Carol)",
		"W 1. Alice - Franks",
		"Alice: 1.5",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary text missing %q:\n%s", want, text)
		}
	}
}

func TestApp_ContentTabs(t *testing.T) {
	report := testReport(t)

	a := NewApp(test.NewTempApp(t), report, nil, charts.DefaultFyneChartConfig())
	if got := len(a.Content().Items); got != 2 {
		t.Errorf("expected 2 tabs without an archive, got %d", got)
	}

	db, err := storage.Open(storage.DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	svc := storage.NewService(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer svc.Close()

	withHistory := NewApp(test.NewTempApp(t), report, svc, charts.DefaultFyneChartConfig())
	tabs := withHistory.Content()
	if got := len(tabs.Items); got != 3 {
		t.Fatalf("expected 3 tabs with an archive, got %d", got)
	}
	if tabs.Items[2].Text != "History" {
		t.Errorf("expected History tab, got %q", tabs.Items[2].Text)
	}
}

func TestApp_Window(t *testing.T) {
	a := NewApp(test.NewTempApp(t), testReport(t), nil, charts.DefaultFyneChartConfig())
	w := a.Window()
	if w == nil || w.Content() == nil {
		t.Fatal("expected window with content")
	}
	if a.Window() != w {
		t.Error("Window should be created once")
	}
}
