package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/summary"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/timeline"
)

func sampleRows() []timeline.AggregatedRow {
	return []timeline.AggregatedRow{
		{Player: "Alice", RelativeMinute: 0, Type: "MOVE", Count: 2},
		{Player: "Bob, the Builder", RelativeMinute: 1, Type: "BUILD", Count: 1},
	}
}

func TestExportJSON(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "aggregated.json")

	exporter := NewExporter(Options{
		Format:     FormatJSON,
		FilePath:   filePath,
		PrettyJSON: true,
		Overwrite:  true,
	})

	if err := exporter.Export(sampleRows()); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read export file: %v", err)
	}

	var result []map[string]interface{}
	if err := json.Unmarshal(content, &result); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result))
	}
	if result[0]["relative_minute"] != float64(0) || result[0]["count"] != float64(2) {
		t.Errorf("unexpected first record %v", result[0])
	}
}

func TestExportCSV(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "out", "aggregated.csv")

	exporter := NewExporter(Options{
		Format:    FormatCSV,
		FilePath:  filePath,
		Overwrite: true,
	})

	if err := exporter.Export(sampleRows()); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read export file: %v", err)
	}

	want := "player,relative_minute,type,count\nAlice,0,MOVE,2\n\"Bob, the Builder\",1,BUILD,1\n"
	if string(content) != want {
		t.Errorf("CSV content mismatch:\n%s\nwant:\n%s", content, want)
	}
}

func TestExportNoOverwrite(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "existing.csv")
	if err := os.WriteFile(filePath, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	exporter := NewExporter(Options{Format: FormatCSV, FilePath: filePath})
	err := exporter.Export(sampleRows())
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected already exists error, got %v", err)
	}
}

func TestWrite_CSVRequiresStructSlice(t *testing.T) {
	var buf bytes.Buffer

	if err := Write(&buf, FormatCSV, map[string]int{"a": 1}, false); err == nil {
		t.Error("expected error for non-slice")
	}
	if err := Write(&buf, FormatCSV, []int{1, 2}, false); err == nil {
		t.Error("expected error for slice of non-structs")
	}
	if err := Write(&buf, Format("xml"), sampleRows(), false); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestWrite_EmptySliceWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, []timeline.RawRow{}, false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if buf.String() != "player,relative_minute,type\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestSummaryRows(t *testing.T) {
	eapm := 40
	s := &summary.MatchSummary{
		Teams: [][]int{{1, 3}, {2}},
		Players: []summary.PlayerStats{
			{Number: 1, Name: "Alice", Winner: true, EAPM: &eapm},
			{Number: 2, Name: "Bob"},
			{Number: 5, Name: "Observer"},
		},
		Duration:  "1:05",
		StartTime: "?",
	}
	s.Map.Name = "Arabia"

	rows := SummaryRows(s)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Team != "1" || rows[1].Team != "2" || rows[2].Team != "" {
		t.Errorf("unexpected teams: %q %q %q", rows[0].Team, rows[1].Team, rows[2].Team)
	}

	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, rows, false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[1] != "1,Alice,1,,,true,40,Arabia,1:05,?" {
		t.Errorf("unexpected row %q", lines[1])
	}
	if lines[2] != "2,Bob,2,,,false,,Arabia,1:05,?" {
		t.Errorf("nil EAPM should be empty: %q", lines[2])
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"csv": FormatCSV, "CSV": FormatCSV, " json ": FormatJSON, "": FormatJSON}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("expected error for xlsx")
	}
}

func TestGenerateFilename(t *testing.T) {
	tests := []struct {
		path, kind string
		format     Format
		want       string
	}{
		{"/recs/MP Replay v101.aoe2record.json", "aggregated", FormatCSV, "MP Replay v101_aggregated.csv"},
		{"match.json", "summary", FormatJSON, "match_summary.json"},
		{"noext", "raw", FormatCSV, "noext_raw.csv"},
	}
	for _, tt := range tests {
		if got := GenerateFilename(tt.path, tt.kind, tt.format); got != tt.want {
			t.Errorf("GenerateFilename(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
