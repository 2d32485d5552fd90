package charts

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// TotalMetric is the metric name Unpivot uses for per-group totals.
const TotalMetric = "total"

// MetricRow is one wide row: category values plus named numeric columns.
type MetricRow struct {
	Categories []string
	Metrics    map[string]float64
}

// MeltedRow is one long-form value of a MetricRow.
type MeltedRow struct {
	Categories []string
	Metric     string
	Count      float64
}

// Unpivot turns wide rows into long rows, one per metric, and appends one
// TotalMetric row per distinct category combination. Metrics within a row are
// emitted in sorted order; totals follow in first-appearance order.
func Unpivot(rows []MetricRow) []MeltedRow {
	var melted []MeltedRow
	totals := make(map[string]float64)
	var groups [][]string

	for _, row := range rows {
		key := strings.Join(row.Categories, "\x00")
		if _, ok := totals[key]; !ok {
			totals[key] = 0
			groups = append(groups, row.Categories)
		}

		names := make([]string, 0, len(row.Metrics))
		for name := range row.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			v := row.Metrics[name]
			melted = append(melted, MeltedRow{Categories: row.Categories, Metric: name, Count: v})
			totals[key] += v
		}
	}

	for _, group := range groups {
		melted = append(melted, MeltedRow{
			Categories: group,
			Metric:     TotalMetric,
			Count:      totals[strings.Join(group, "\x00")],
		})
	}
	return melted
}

// CategoryLabel joins category values for an axis label.
func CategoryLabel(categories []string) string {
	return strings.Join(categories, " / ")
}

// CategoryBar stacks every metric of melted rows per category combination and
// overlays the TotalMetric rows as labelled points.
func CategoryBar(melted []MeltedRow, title string, categoryNames []string, config ChartConfig) (*charts.Bar, error) {
	var labels []string
	index := make(map[string]int)
	var metrics []string
	seenMetric := make(map[string]bool)

	for _, row := range melted {
		label := CategoryLabel(row.Categories)
		if _, ok := index[label]; !ok {
			index[label] = len(labels)
			labels = append(labels, label)
		}
		if row.Metric != TotalMetric && !seenMetric[row.Metric] {
			seenMetric[row.Metric] = true
			metrics = append(metrics, row.Metric)
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no data to chart")
	}
	sort.Strings(metrics)

	values := make(map[string][]float64, len(metrics)+1)
	for _, m := range append(metrics, TotalMetric) {
		values[m] = make([]float64, len(labels))
	}
	for _, row := range melted {
		values[row.Metric][index[CategoryLabel(row.Categories)]] += row.Count
	}

	xName := ""
	if len(categoryNames) == 2 {
		xName = fmt.Sprintf("%s grouped by %s", categoryNames[1], categoryNames[0])
	} else if len(categoryNames) > 0 {
		xName = strings.Join(categoryNames, " / ")
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(config.ShowLegend),
			Bottom: "0",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: xName,
			Type: "category",
			AxisLabel: &opts.AxisLabel{
				Rotate: 90,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
	)
	bar.SetXAxis(labels)

	colors := ColorMap(metrics)
	for _, m := range metrics {
		data := make([]opts.BarData, len(labels))
		for i, v := range values[m] {
			data[i] = opts.BarData{Value: v}
		}
		bar.AddSeries(m, data,
			charts.WithBarChartOpts(opts.BarChart{Stack: "metrics"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colors[m]}),
		)
	}

	totalData := make([]opts.LineData, len(labels))
	for i, v := range values[TotalMetric] {
		totalData[i] = opts.LineData{Value: v}
	}
	line := charts.NewLine()
	line.SetXAxis(labels).
		AddSeries(TotalMetric, totalData,
			charts.WithLabelOpts(opts.Label{
				Show:     opts.Bool(true),
				Position: "top",
			}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#333333"}),
		)
	bar.Overlap(line)

	return bar, nil
}

// RenderCategoryStackedChart writes a CategoryBar chart to w.
func RenderCategoryStackedChart(w io.Writer, melted []MeltedRow, title string, categoryNames []string, config ChartConfig) error {
	bar, err := CategoryBar(melted, title, categoryNames, config)
	if err != nil {
		return err
	}
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
