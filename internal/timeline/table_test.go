package timeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/actions"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/replay"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/replay/replaytest"
)

func parseFixture(t *testing.T, doc string) *replay.Match {
	t.Helper()
	match, err := replay.NewJSONReader().ParseMatch(strings.NewReader(doc))
	require.NoError(t, err)
	return match
}

func TestRawTable(t *testing.T) {
	match := parseFixture(t, replaytest.TwoVsTwo)

	rows, err := RawTable(match, nil)
	require.NoError(t, err)

	want := []RawRow{
		{"Alice", 0, "GAME"},
		{"Alice", 0, "MOVE"},
		{"Bob", 0, "QUEUE"},
		{"Alice", 0, "MOVE"},
		{"Carol", 0, "DE_TRANSFORM"},
		{"Bob", 1, "BUILD"},
		{"Alice", 1, "RESEARCH"},
		{"Dave", 1, "MOVE"},
		{"7", 2, "FLARE"},
		{"Carol", 3, "DE_UNKNOWN_999"},
	}
	assert.Equal(t, want, rows)
}

func TestRawTable_Empty(t *testing.T) {
	match := &replay.Match{Players: []replay.Player{{Number: 1, Name: "Solo"}}}

	_, err := RawTable(match, nil)
	assert.ErrorIs(t, err, ErrNoActions)
}

func TestAggregate(t *testing.T) {
	match := parseFixture(t, replaytest.TwoVsTwo)

	table, err := Aggregate(match, actions.NewExclusionSet(), nil)
	require.NoError(t, err)

	// The anchor is the first MOVE at 2s, so Bob's BUILD at 61.5s is still minute 0.
	want := []AggregatedRow{
		{"Alice", 0, "MOVE", 2},
		{"Alice", 1, "RESEARCH", 1},
		{"Bob", 0, "BUILD", 1},
		{"Bob", 0, "QUEUE", 1},
		{"Dave", 1, "MOVE", 1},
		{"7", 2, "FLARE", 1},
		{"Carol", 3, "DE_UNKNOWN_999", 1},
	}
	assert.Equal(t, want, table.Rows())
	assert.Equal(t, 7, table.Len())
	assert.Equal(t, 8, table.Total())
	assert.Equal(t, []string{"Alice", "Bob", "Dave", "7", "Carol"}, table.Players())
	assert.Equal(t, []string{"BUILD", "DE_UNKNOWN_999", "FLARE", "MOVE", "QUEUE", "RESEARCH"}, table.Types())
}

func TestAggregate_CallerExclusions(t *testing.T) {
	match := parseFixture(t, replaytest.TwoVsTwo)

	table, err := Aggregate(match, actions.NewExclusionSet("MOVE"), nil)
	require.NoError(t, err)

	assert.Equal(t, 5, table.Total())
	assert.Equal(t, 1, table.Count(Key{Player: "Alice", Minute: 0, Type: "RESEARCH"}))
	assert.Equal(t, 1, table.Count(Key{Player: "7", Minute: 2, Type: "FLARE"}))
	for _, row := range table.Rows() {
		assert.NotEqual(t, "MOVE", row.Type)
	}
}

func TestAggregate_DefaultExclusionsAlwaysApplied(t *testing.T) {
	match := parseFixture(t, replaytest.TwoVsTwo)

	for _, set := range []actions.ExclusionSet{{}, actions.NewExclusionSet(), actions.NewExclusionSet([]string{}...)} {
		table, err := Aggregate(match, set, nil)
		require.NoError(t, err)
		for _, row := range table.Rows() {
			assert.NotEqual(t, "GAME", row.Type)
			assert.NotEqual(t, "DE_TRANSFORM", row.Type)
		}
	}
}

func TestAggregate_OnlyExcludedActions(t *testing.T) {
	match := parseFixture(t, replaytest.GameOnly)

	_, err := Aggregate(match, actions.NewExclusionSet(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoActions))

	// The raw table has no filter, so the same recording still has an anchor.
	rows, err := RawTable(match, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestPlayerNames_Resolve(t *testing.T) {
	names := NewPlayerNames([]string{"Alice", "Bob"})

	tests := []struct {
		name   string
		ref    replay.PlayerRef
		want   string
		wantOK bool
	}{
		{"first", replay.PlayerRef{Number: 1, Valid: true}, "Alice", true},
		{"last", replay.PlayerRef{Number: 2, Valid: true}, "Bob", true},
		{"gaia", replay.PlayerRef{Number: 0, Valid: true}, "0", false},
		{"past end", replay.PlayerRef{Number: 3, Valid: true}, "3", false},
		{"missing", replay.PlayerRef{}, UnknownPlayer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := names.Resolve(tt.ref)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestPlayerRefForms_ResolveIdentically(t *testing.T) {
	doc := `{
		"players": [{"number": 1, "name": "Alice"}, {"number": 2, "name": "Bob"}],
		"actions": [
			{"timestamp": 0, "player": 2, "type": "MOVE"},
			{"timestamp": 1000, "player": {"number": 2, "name": "Bob", "civilization": "Huns"}, "type": "MOVE"}
		]
	}`
	match := parseFixture(t, doc)

	records := Records(match, nil)
	require.Len(t, records, 2)
	assert.Equal(t, "Bob", records[0].Player)
	assert.Equal(t, records[0].Player, records[1].Player)
}

func TestRelativeMinute(t *testing.T) {
	anchor := 2 * time.Second
	tests := []struct {
		ts   time.Duration
		want int
	}{
		{2 * time.Second, 0},
		{61*time.Second + 999*time.Millisecond, 0},
		{62 * time.Second, 1},
		{2*time.Second + 10*time.Minute, 10},
	}
	for _, tt := range tests {
		if got := RelativeMinute(tt.ts, anchor); got != tt.want {
			t.Errorf("RelativeMinute(%v, %v) = %d, want %d", tt.ts, anchor, got, tt.want)
		}
	}
}

// randomMatch builds a match with shuffled timestamps and a mix of tags.
func randomMatch(rng *rand.Rand, n int) *replay.Match {
	tags := []string{"MOVE", "QUEUE", "BUILD", "GAME", "DE_TRANSFORM", "FLARE", "DE_UNKNOWN_77"}
	match := &replay.Match{
		Players: []replay.Player{{Number: 1, Name: "A"}, {Number: 2, Name: "B"}, {Number: 3, Name: "C"}},
	}
	base := time.Duration(rng.Intn(5000)) * time.Millisecond
	for i := 0; i < n; i++ {
		match.Actions = append(match.Actions, replay.Action{
			Timestamp: replay.Timestamp(base + time.Duration(rng.Intn(40*60*1000))*time.Millisecond),
			Player:    replay.PlayerRef{Number: rng.Intn(5), Valid: true},
			Type:      tags[rng.Intn(len(tags))],
		})
	}
	return match
}

func TestProperties_RandomMatches(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 50; iter++ {
		match := randomMatch(rng, 1+rng.Intn(300))
		t.Run(fmt.Sprintf("match_%d", iter), func(t *testing.T) {
			records := Records(match, nil)

			// Raw: minutes are non-negative, the earliest action is minute 0,
			// and minutes never decrease as time advances.
			rows, err := RawTable(match, nil)
			require.NoError(t, err)

			order := make([]int, len(records))
			for i := range order {
				order[i] = i
			}
			sort.SliceStable(order, func(a, b int) bool {
				return records[order[a]].Timestamp < records[order[b]].Timestamp
			})

			assert.Equal(t, 0, rows[order[0]].RelativeMinute)
			prev := 0
			for _, idx := range order {
				m := rows[idx].RelativeMinute
				assert.GreaterOrEqual(t, m, 0)
				assert.GreaterOrEqual(t, m, prev)
				prev = m
			}

			// Aggregated: counts sum to the number of kept records and the
			// earliest kept record lands in minute 0.
			exclusions := actions.NewExclusionSet("FLARE")
			kept := Filter(records, func(r Record) bool { return !exclusions.Excludes(r.Type) })

			table, err := Aggregate(match, exclusions, nil)
			if len(kept) == 0 {
				assert.ErrorIs(t, err, ErrNoActions)
				return
			}
			require.NoError(t, err)

			sum := 0
			minMinute := -1
			for _, row := range table.Rows() {
				sum += row.Count
				if minMinute == -1 || row.RelativeMinute < minMinute {
					minMinute = row.RelativeMinute
				}
			}
			assert.Equal(t, len(kept), sum)
			assert.Equal(t, len(kept), table.Total())
			assert.Equal(t, 0, minMinute)
		})
	}
}

func TestBuilder_Files(t *testing.T) {
	path := replaytest.WriteFile(t, "match.json", replaytest.TwoVsTwo)
	builder := NewBuilder(BuilderConfig{})
	ctx := context.Background()

	rows, err := builder.BuildRawTable(ctx, path)
	require.NoError(t, err)
	assert.Len(t, rows, 10)

	table, err := builder.BuildAggregatedTable(ctx, path, []string{"FLARE"})
	require.NoError(t, err)
	assert.Equal(t, 7, table.Total())
}

func TestBuilder_Errors(t *testing.T) {
	builder := NewBuilder(BuilderConfig{})
	ctx := context.Background()

	broken := replaytest.WriteFile(t, "broken.json", "not json")
	_, err := builder.BuildAggregatedTable(ctx, broken, nil)
	assert.ErrorIs(t, err, replay.ErrInvalidReplay)

	empty := replaytest.WriteFile(t, "game-only.json", replaytest.GameOnly)
	_, err = builder.BuildAggregatedTable(ctx, empty, nil)
	assert.ErrorIs(t, err, ErrNoActions)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = builder.BuildRawTable(cancelled, empty)
	assert.ErrorIs(t, err, context.Canceled)
}
