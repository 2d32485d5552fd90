// Package timeline turns a recording's action stream into per-player,
// per-minute action tables.
package timeline

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/replay"
)

// ErrNoActions is returned when there are no actions to anchor minute 0 on.
var ErrNoActions = errors.New("no actions to anchor relative minutes")

// UnknownPlayer is the display name used for actions without a player reference.
const UnknownPlayer = "?"

// Record is one normalised action.
type Record struct {
	Player    string
	Timestamp time.Duration
	Type      string
}

// PlayerNames maps 1-based player numbers to display names.
type PlayerNames struct {
	names []string
}

// NewPlayerNames builds the mapping from the recording's player list, in order.
func NewPlayerNames(names []string) PlayerNames {
	return PlayerNames{names: append([]string(nil), names...)}
}

// Resolve returns the display name for ref. References outside the player
// list resolve to their decimal number and report ok == false.
func (p PlayerNames) Resolve(ref replay.PlayerRef) (name string, ok bool) {
	if !ref.Valid {
		return UnknownPlayer, false
	}
	if ref.Number >= 1 && ref.Number <= len(p.names) {
		return p.names[ref.Number-1], true
	}
	return strconv.Itoa(ref.Number), false
}

// Records normalises every action in match. Unresolvable player references
// are kept and logged at debug level.
func Records(match *replay.Match, logger *slog.Logger) []Record {
	if logger == nil {
		logger = slog.Default()
	}

	names := NewPlayerNames(match.PlayerNames())
	records := make([]Record, 0, len(match.Actions))
	unresolved := 0
	for _, action := range match.Actions {
		name, ok := names.Resolve(action.Player)
		if !ok {
			unresolved++
			logger.Debug("Unresolved player reference",
				"player", name,
				"type", action.Type,
				"timestamp", action.Timestamp.Duration())
		}
		records = append(records, Record{
			Player:    name,
			Timestamp: action.Timestamp.Duration(),
			Type:      action.Type,
		})
	}

	if unresolved > 0 {
		logger.Warn("Actions with unresolved players", "count", unresolved)
	}
	return records
}

// Filter returns the records for which keep returns true.
func Filter(records []Record, keep func(Record) bool) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Anchor returns the earliest timestamp in records.
func Anchor(records []Record) (time.Duration, error) {
	if len(records) == 0 {
		return 0, ErrNoActions
	}
	anchor := records[0].Timestamp
	for _, r := range records[1:] {
		if r.Timestamp < anchor {
			anchor = r.Timestamp
		}
	}
	return anchor, nil
}

// RelativeMinute returns the whole minutes elapsed from anchor to ts.
func RelativeMinute(ts, anchor time.Duration) int {
	return int((ts - anchor) / time.Minute)
}
