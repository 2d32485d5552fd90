package timeline

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// Key identifies one aggregated group.
type Key struct {
	Player string
	Minute int
	Type   string
}

// AggregatedRow is one group of the aggregated table.
type AggregatedRow struct {
	Player         string `json:"player" csv:"player"`
	RelativeMinute int    `json:"relative_minute" csv:"relative_minute"`
	Type           string `json:"type" csv:"type"`
	Count          int    `json:"count" csv:"count"`
}

// TypeTotal is one action type's share of a player's actions.
type TypeTotal struct {
	Type    string
	Count   int
	Percent float64
}

// APMRow is a player's average actions per minute.
type APMRow struct {
	Player  string  `json:"player" csv:"player"`
	Actions int     `json:"actions" csv:"actions"`
	Minutes int     `json:"minutes" csv:"minutes"`
	APM     float64 `json:"apm" csv:"apm"`
}

// AggregatedTable holds action counts keyed by (player, minute, type).
// It is not modified after construction.
type AggregatedTable struct {
	counts  map[Key]int
	players []string
	total   int
}

// Group counts records per (player, minute, type), measuring minutes from anchor.
func Group(records []Record, anchor time.Duration) *AggregatedTable {
	t := &AggregatedTable{counts: make(map[Key]int)}
	seen := make(map[string]bool)
	for _, r := range records {
		if !seen[r.Player] {
			seen[r.Player] = true
			t.players = append(t.players, r.Player)
		}
		t.counts[Key{Player: r.Player, Minute: RelativeMinute(r.Timestamp, anchor), Type: r.Type}]++
		t.total++
	}
	return t
}

// NewAggregatedTable rebuilds a table from rows, summing duplicate keys.
// Rows with a non-positive count are skipped.
func NewAggregatedTable(rows []AggregatedRow) *AggregatedTable {
	t := &AggregatedTable{counts: make(map[Key]int)}
	seen := make(map[string]bool)
	for _, row := range rows {
		if row.Count <= 0 {
			continue
		}
		if !seen[row.Player] {
			seen[row.Player] = true
			t.players = append(t.players, row.Player)
		}
		t.counts[Key{Player: row.Player, Minute: row.RelativeMinute, Type: row.Type}] += row.Count
		t.total += row.Count
	}
	return t
}

// Len returns the number of groups.
func (t *AggregatedTable) Len() int {
	return len(t.counts)
}

// Total returns the number of actions counted.
func (t *AggregatedTable) Total() int {
	return t.total
}

// Count returns the count for key, or 0.
func (t *AggregatedTable) Count(key Key) int {
	return t.counts[key]
}

// Players returns player names in order of first appearance.
func (t *AggregatedTable) Players() []string {
	return append([]string(nil), t.players...)
}

// Types returns every action type in the table, sorted.
func (t *AggregatedTable) Types() []string {
	types := lo.Uniq(lo.MapToSlice(t.counts, func(k Key, _ int) string { return k.Type }))
	sort.Strings(types)
	return types
}

// Minutes returns the distinct minutes in which player acted, ascending.
func (t *AggregatedTable) Minutes(player string) []int {
	var minutes []int
	for k := range t.counts {
		if k.Player == player {
			minutes = append(minutes, k.Minute)
		}
	}
	minutes = lo.Uniq(minutes)
	sort.Ints(minutes)
	return minutes
}

// PlayerTotal returns the number of actions counted for player.
func (t *AggregatedTable) PlayerTotal(player string) int {
	total := 0
	for k, c := range t.counts {
		if k.Player == player {
			total += c
		}
	}
	return total
}

// PlayerTypeTotals returns player's per-type totals, largest first.
// Ties are ordered by type name.
func (t *AggregatedTable) PlayerTypeTotals(player string) []TypeTotal {
	byType := make(map[string]int)
	total := 0
	for k, c := range t.counts {
		if k.Player == player {
			byType[k.Type] += c
			total += c
		}
	}

	totals := make([]TypeTotal, 0, len(byType))
	for typ, c := range byType {
		pct := 0.0
		if total > 0 {
			pct = float64(c) / float64(total) * 100
		}
		totals = append(totals, TypeTotal{Type: typ, Count: c, Percent: pct})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Count != totals[j].Count {
			return totals[i].Count > totals[j].Count
		}
		return totals[i].Type < totals[j].Type
	})
	return totals
}

// PlayerAPM returns player's actions divided by the distinct minutes they acted in.
func (t *AggregatedTable) PlayerAPM(player string) float64 {
	minutes := len(t.Minutes(player))
	if minutes == 0 {
		return 0
	}
	return float64(t.PlayerTotal(player)) / float64(minutes)
}

// APMSummary returns one APMRow per player, in first-appearance order.
func (t *AggregatedTable) APMSummary() []APMRow {
	return lo.Map(t.players, func(player string, _ int) APMRow {
		return APMRow{
			Player:  player,
			Actions: t.PlayerTotal(player),
			Minutes: len(t.Minutes(player)),
			APM:     t.PlayerAPM(player),
		}
	})
}

// Series returns player's counts of typ at each of minutes.
func (t *AggregatedTable) Series(player, typ string, minutes []int) []int {
	series := make([]int, len(minutes))
	for i, m := range minutes {
		series[i] = t.counts[Key{Player: player, Minute: m, Type: typ}]
	}
	return series
}

// Rows returns the table ordered by player appearance, minute, then type.
// The order is for presentation only.
func (t *AggregatedTable) Rows() []AggregatedRow {
	rank := make(map[string]int, len(t.players))
	for i, p := range t.players {
		rank[p] = i
	}

	rows := make([]AggregatedRow, 0, len(t.counts))
	for k, c := range t.counts {
		rows = append(rows, AggregatedRow{Player: k.Player, RelativeMinute: k.Minute, Type: k.Type, Count: c})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if rank[a.Player] != rank[b.Player] {
			return rank[a.Player] < rank[b.Player]
		}
		if a.RelativeMinute != b.RelativeMinute {
			return a.RelativeMinute < b.RelativeMinute
		}
		return a.Type < b.Type
	})
	return rows
}
