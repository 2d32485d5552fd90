// Package charts renders aggregated action tables as stacked bar charts,
// either as interactive HTML or on a desktop canvas.
package charts

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/timeline"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string // Page title
	YAxisLabel string // Y-axis label
	XAxisLabel string // X-axis label
	Width      string // Chart width (e.g., "1200px")
	Height     string // Chart height (e.g., "500px")
	Theme      string // Chart theme
	ShowLegend bool   // Show legend
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Title:      "Actions per minute",
		YAxisLabel: "Count of Actions",
		XAxisLabel: "Relative Minute",
		Width:      "1200px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
	}
}

// Segment is one block of a stacked bar: a single action type in a single minute.
type Segment struct {
	Type   string
	Minute int
	Count  int
	Color  string
}

// LegendEntry is an action type's total share of a player's actions.
type LegendEntry struct {
	Type    string
	Count   int
	Percent float64
	Color   string
}

// Label returns the legend text, e.g. "MOVE (120, 45.5%)".
func (e LegendEntry) Label() string {
	return fmt.Sprintf("%s (%d, %.1f%%)", e.Type, e.Count, e.Percent)
}

// PlayerChart is the backend-independent description of one player's chart.
type PlayerChart struct {
	Player  string
	Minutes []int
	// Stack lists action types bottom to top, largest player total first.
	Stack  []LegendEntry
	Counts map[string][]int // type -> count per entry of Minutes
	APM    float64
}

// Title returns the chart title for the player.
func (c PlayerChart) Title() string {
	return fmt.Sprintf("Actions for %s", c.Player)
}

// APMLabel returns the average actions per minute annotation.
func (c PlayerChart) APMLabel() string {
	return fmt.Sprintf("Avg APM: %.1f", c.APM)
}

// Segments returns the non-empty stacked blocks for one minute column,
// bottom to top.
func (c PlayerChart) Segments(column int) []Segment {
	var segs []Segment
	for _, entry := range c.Stack {
		count := c.Counts[entry.Type][column]
		if count == 0 {
			continue
		}
		segs = append(segs, Segment{Type: entry.Type, Minute: c.Minutes[column], Count: count, Color: entry.Color})
	}
	return segs
}

// ColumnTotal returns the stacked height of a minute column.
func (c PlayerChart) ColumnTotal(column int) int {
	total := 0
	for _, entry := range c.Stack {
		total += c.Counts[entry.Type][column]
	}
	return total
}

// BuildPlayerCharts lays out one chart per player, in first-appearance order.
// colors must cover every type in table; use ColorMap(table.Types()).
func BuildPlayerCharts(table *timeline.AggregatedTable, colors map[string]string) []PlayerChart {
	players := table.Players()
	out := make([]PlayerChart, 0, len(players))
	for _, player := range players {
		minutes := table.Minutes(player)
		totals := table.PlayerTypeTotals(player)

		chart := PlayerChart{
			Player:  player,
			Minutes: minutes,
			Counts:  make(map[string][]int, len(totals)),
			APM:     table.PlayerAPM(player),
		}
		for _, tt := range totals {
			chart.Stack = append(chart.Stack, LegendEntry{
				Type:    tt.Type,
				Count:   tt.Count,
				Percent: tt.Percent,
				Color:   colors[tt.Type],
			})
			chart.Counts[tt.Type] = table.Series(player, tt.Type, minutes)
		}
		out = append(out, chart)
	}
	return out
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
