// Package replay decodes recorded match documents into actions, players and
// summary metadata.
package replay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PlayerRef identifies the player that issued an action.
// In a recording it is either a bare player number or a player object
// carrying a "number" field; both decode to the same value.
type PlayerRef struct {
	Number int
	Valid  bool
}

// UnmarshalJSON accepts a number, a numeric string, an object with a
// "number" field, or null.
func (p *PlayerRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = PlayerRef{}
		return nil
	}

	switch data[0] {
	case '{':
		var obj struct {
			Number *int `json:"number"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode player object: %w", err)
		}
		if obj.Number == nil {
			*p = PlayerRef{}
			return nil
		}
		*p = PlayerRef{Number: *obj.Number, Valid: true}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode player string: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("player reference %q is not a number", s)
		}
		*p = PlayerRef{Number: n, Valid: true}
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("decode player number: %w", err)
		}
		*p = PlayerRef{Number: int(f), Valid: true}
		return nil
	}
}

// MarshalJSON writes the bare player number, or null when unset.
func (p PlayerRef) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(p.Number)), nil
}

// Timestamp is the elapsed match time at which an action was issued.
type Timestamp time.Duration

// Duration returns the timestamp as a time.Duration.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t)
}

// UnmarshalJSON accepts either milliseconds as a number or a clock string
// of the form H:MM:SS[.ffffff].
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("timestamp is null")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode timestamp string: %w", err)
		}
		d, err := ParseClock(s)
		if err != nil {
			return err
		}
		*t = Timestamp(d)
		return nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("decode timestamp milliseconds: %w", err)
	}
	d, err := toDuration(ms, time.Millisecond)
	if err != nil {
		return fmt.Errorf("timestamp %s: %w", data, err)
	}
	*t = Timestamp(d)
	return nil
}

// toDuration converts v units to a Duration. NaN, infinities, negative
// values and values beyond the Duration range are rejected.
func toDuration(v float64, unit time.Duration) (time.Duration, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("out of range: %w", ErrInvalidReplay)
	}
	if v > float64(math.MaxInt64)/float64(unit) {
		return 0, fmt.Errorf("out of range: %w", ErrInvalidReplay)
	}
	return time.Duration(v * float64(unit)), nil
}

// MarshalJSON writes the timestamp in milliseconds.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(time.Duration(t).Milliseconds(), 10)), nil
}

// ParseClock parses an elapsed-time string such as "0:01:05.250000",
// "1:05" or "65.5". Days prefixed as "1 day, 0:00:00" are also accepted.
func ParseClock(s string) (time.Duration, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp: %w", ErrInvalidReplay)
	}

	var days int64
	if idx := strings.Index(s, ","); idx != -1 {
		dayPart := strings.Fields(s[:idx])
		if len(dayPart) == 0 {
			return 0, fmt.Errorf("invalid timestamp %q: %w", orig, ErrInvalidReplay)
		}
		n, err := strconv.ParseInt(dayPart[0], 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day count in timestamp %q: %w", orig, ErrInvalidReplay)
		}
		days = n
		s = strings.TrimSpace(s[idx+1:])
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q: %w", orig, ErrInvalidReplay)
	}

	total := float64(days) * 24 * 3600
	var clock float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0, fmt.Errorf("invalid timestamp %q: %w", orig, ErrInvalidReplay)
		}
		clock = clock*60 + v
	}

	d, err := toDuration(total+clock, time.Second)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", orig, err)
	}
	return d, nil
}

// Action is a single command captured in the recording.
type Action struct {
	Timestamp Timestamp       `json:"timestamp"`
	Player    PlayerRef       `json:"player"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Player is the identity and result of one participant.
type Player struct {
	Number       int       `json:"number"`
	Name         string    `json:"name"`
	Civilization string    `json:"civilization,omitempty"`
	Color        string    `json:"color,omitempty"`
	Winner       bool      `json:"winner"`
	EAPM         *int      `json:"eapm,omitempty"`
	Rating       *int      `json:"rate_snapshot,omitempty"`
	Position     []float64 `json:"position,omitempty"`
}

// String returns the player's display name.
func (p Player) String() string {
	return p.Name
}

// Diplomacy describes how players are arranged into sides.
type Diplomacy struct {
	Type     string `json:"type"`
	TeamSize string `json:"team_size,omitempty"`
}

// MapInfo describes the map the match was played on.
type MapInfo struct {
	Name string `json:"name"`
	Size string `json:"size,omitempty"`
	Seed *int64 `json:"seed,omitempty"`
}

// Match is the decoded action stream of a recording.
type Match struct {
	Players []Player
	Actions []Action
}

// PlayerNames returns the display names in recording order.
func (m *Match) PlayerNames() []string {
	names := make([]string, len(m.Players))
	for i, p := range m.Players {
		names[i] = p.Name
	}
	return names
}

// Summary exposes the descriptive metadata of a recording.
type Summary interface {
	Diplomacy() Diplomacy
	Map() MapInfo
	Teams() [][]int
	Players() []Player
	// Duration returns the match length in milliseconds.
	Duration() int64
	// Played returns the start time, if the recording carries one.
	Played() (time.Time, bool)
}
