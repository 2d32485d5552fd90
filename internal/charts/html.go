package charts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/timeline"
)

const segmentTooltip = "{a}<br/>Minute: {b}<br/>Count: {c}"

// HTMLRenderer writes interactive stacked bar charts with go-echarts.
type HTMLRenderer struct {
	config ChartConfig
}

// NewHTMLRenderer creates a renderer with the given configuration.
func NewHTMLRenderer(config ChartConfig) *HTMLRenderer {
	return &HTMLRenderer{config: config}
}

// PlayerBars builds one stacked bar chart per player.
func (r *HTMLRenderer) PlayerBars(table *timeline.AggregatedTable) []*charts.Bar {
	colors := ColorMap(table.Types())
	layouts := BuildPlayerCharts(table, colors)

	bars := make([]*charts.Bar, 0, len(layouts))
	for _, layout := range layouts {
		bars = append(bars, r.playerBar(layout))
	}
	return bars
}

func (r *HTMLRenderer) playerBar(layout PlayerChart) *charts.Bar {
	bar := charts.NewBar()

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  r.config.Width,
			Height: r.config.Height,
			Theme:  r.config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    layout.Title(),
			Subtitle: layout.APMLabel(),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: segmentTooltip,
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(r.config.ShowLegend),
			Orient: "vertical",
			Right:  "0",
			Top:    "middle",
		}),
		charts.WithGridOpts(opts.Grid{
			Right: "22%",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: r.config.XAxisLabel,
			Type: "category",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: r.config.YAxisLabel,
		}),
	)

	xLabels := make([]string, len(layout.Minutes))
	for i, m := range layout.Minutes {
		xLabels[i] = strconv.Itoa(m)
	}
	bar.SetXAxis(xLabels)

	for _, entry := range layout.Stack {
		counts := layout.Counts[entry.Type]
		data := make([]opts.BarData, len(counts))
		for i, c := range counts {
			data[i] = opts.BarData{Value: c}
		}

		bar.AddSeries(entry.Label(), data,
			charts.WithBarChartOpts(opts.BarChart{
				Stack: "actions",
			}),
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color: entry.Color,
			}),
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)
	}

	return bar
}

// Render writes a page with every player's chart to w.
func (r *HTMLRenderer) Render(w io.Writer, table *timeline.AggregatedTable) error {
	if table.Len() == 0 {
		return fmt.Errorf("no data to chart")
	}

	page := components.NewPage()
	page.PageTitle = r.config.Title
	for _, bar := range r.PlayerBars(table) {
		page.AddCharts(bar)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderFile writes the chart page to outputPath, creating parent directories.
func (r *HTMLRenderer) RenderFile(table *timeline.AggregatedTable, outputPath string) (err error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return r.Render(f, table)
}
