// Package gui shows an analysed recording in a desktop window.
package gui

import (
	"context"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/analysis"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/charts"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage/models"
)

// App represents the viewer window.
type App struct {
	app     fyne.App
	window  fyne.Window
	report  *analysis.Report
	service *storage.Service // Nullable: history tab is hidden without an archive
	config  charts.FyneChartConfig
	ctx     context.Context
}

// NewApp creates a viewer for report. fyneApp may be nil to create the
// default application.
func NewApp(fyneApp fyne.App, report *analysis.Report, service *storage.Service, config charts.FyneChartConfig) *App {
	if fyneApp == nil {
		fyneApp = app.New()
	}
	return &App{
		app:     fyneApp,
		report:  report,
		service: service,
		config:  config,
		ctx:     context.Background(),
	}
}

// Run opens the window and blocks until it is closed.
func (a *App) Run() {
	a.Window().ShowAndRun()
}

// Window creates the window with its content without showing it.
func (a *App) Window() fyne.Window {
	if a.window != nil {
		return a.window
	}
	a.window = a.app.NewWindow("AoE Recording: " + a.report.Path)
	a.window.Resize(fyne.NewSize(a.config.Width+40, 800))
	a.window.SetContent(a.Content())
	return a.window
}

// Content builds the tabbed window content.
func (a *App) Content() *container.AppTabs {
	tabs := container.NewAppTabs(
		container.NewTabItem("Charts", charts.NewDesktopView(a.report.Aggregated, a.config)),
		container.NewTabItem("Summary", a.createSummaryView()),
	)
	if a.service != nil {
		tabs.Append(container.NewTabItem("History", a.createHistoryView()))
	}
	return tabs
}

// SummaryText renders the report's match summary as plain text.
func (a *App) SummaryText() string {
	s := a.report.Summary
	var b strings.Builder

	fmt.Fprintf(&b, "Map: %s (%s)\n", s.Map.Name, s.Map.Size)
	fmt.Fprintf(&b, "Diplomacy: %s %s\n", s.Diplomacy.Type, s.Diplomacy.TeamSize)
	fmt.Fprintf(&b, "Duration: %s\n", s.Duration)
	fmt.Fprintf(&b, "Started: %s\n", s.StartTime)
	if s.WinningTeam != nil {
		fmt.Fprintf(&b, "Winner: Team %d (%s)\n", *s.WinningTeam, strings.Join(s.WinningTeamPlayers, ", "))
	} else {
		b.WriteString("Winner: unknown\n")
	}

	b.WriteString("\nPlayers\n=======\n")
	for _, p := range s.Players {
		mark := " "
		if p.Winner {
			mark = "W"
		}
		fmt.Fprintf(&b, "%s %d. %s - %s\n", mark, p.Number, p.Name, p.Civilization)
	}

	b.WriteString("\nAPM\n===\n")
	for _, row := range a.report.Aggregated.APMSummary() {
		fmt.Fprintf(&b, "%s: %.1f\n", row.Player, row.APM)
	}
	return b.String()
}

func (a *App) createSummaryView() fyne.CanvasObject {
	label := widget.NewLabel(a.SummaryText())
	label.Wrapping = fyne.TextWrapWord
	return container.NewScroll(label)
}

// createHistoryView lists the most recent archived matches.
func (a *App) createHistoryView() fyne.CanvasObject {
	matches, err := a.service.History(a.ctx, models.MatchFilter{Limit: 20})
	if err != nil {
		return widget.NewLabel(fmt.Sprintf("Error: %v", err))
	}
	if len(matches) == 0 {
		return widget.NewLabel("No matches archived")
	}

	var content strings.Builder
	content.WriteString("Recent Matches\n==============\n\n")
	for _, m := range matches {
		winner := "-"
		if m.WinningTeam != nil {
			winner = fmt.Sprintf("Team %d", *m.WinningTeam)
		}
		fmt.Fprintf(&content, "%s | %s | %s | %s | %s\n",
			m.AnalyzedAt.Format("2006-01-02 15:04"),
			m.MapName,
			m.Diplomacy,
			m.Duration,
			winner,
		)
	}

	label := widget.NewLabel(content.String())
	label.Wrapping = fyne.TextWrapWord
	return container.NewScroll(label)
}
