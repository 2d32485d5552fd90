package charts

import (
	"bytes"
	"strings"
	"testing"
)

func TestUnpivot(t *testing.T) {
	rows := []MetricRow{
		{Categories: []string{"Team 1", "Alice"}, Metrics: map[string]float64{"MOVE": 3, "BUILD": 1}},
		{Categories: []string{"Team 2", "Bob"}, Metrics: map[string]float64{"QUEUE": 2}},
	}

	melted := Unpivot(rows)

	want := []MeltedRow{
		{Categories: []string{"Team 1", "Alice"}, Metric: "BUILD", Count: 1},
		{Categories: []string{"Team 1", "Alice"}, Metric: "MOVE", Count: 3},
		{Categories: []string{"Team 2", "Bob"}, Metric: "QUEUE", Count: 2},
		{Categories: []string{"Team 1", "Alice"}, Metric: TotalMetric, Count: 4},
		{Categories: []string{"Team 2", "Bob"}, Metric: TotalMetric, Count: 2},
	}

	if len(melted) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(melted), len(want), melted)
	}
	for i := range want {
		if melted[i].Metric != want[i].Metric || melted[i].Count != want[i].Count ||
			CategoryLabel(melted[i].Categories) != CategoryLabel(want[i].Categories) {
			t.Errorf("row %d = %+v, want %+v", i, melted[i], want[i])
		}
	}
}

func TestUnpivot_RepeatedCategories(t *testing.T) {
	rows := []MetricRow{
		{Categories: []string{"A"}, Metrics: map[string]float64{"x": 1}},
		{Categories: []string{"A"}, Metrics: map[string]float64{"y": 2}},
	}

	melted := Unpivot(rows)
	last := melted[len(melted)-1]
	if last.Metric != TotalMetric || last.Count != 3 {
		t.Errorf("expected one total of 3, got %+v", last)
	}
	if len(melted) != 3 {
		t.Errorf("expected 3 rows, got %d", len(melted))
	}
}

func TestRenderCategoryStackedChart(t *testing.T) {
	melted := Unpivot([]MetricRow{
		{Categories: []string{"Team 1", "Alice"}, Metrics: map[string]float64{"MOVE": 3}},
		{Categories: []string{"Team 2", "Bob"}, Metrics: map[string]float64{"QUEUE": 2}},
	})

	var buf bytes.Buffer
	err := RenderCategoryStackedChart(&buf, melted, "Actions by team", []string{"team", "player"}, DefaultChartConfig())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"Actions by team", "Team 1 / Alice", "player grouped by team"} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestCategoryBar_Empty(t *testing.T) {
	if _, err := CategoryBar(nil, "empty", nil, DefaultChartConfig()); err == nil {
		t.Error("expected error for empty input")
	}
}
