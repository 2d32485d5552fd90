// Package replaytest provides recording fixtures for tests.
package replaytest

import (
	"os"
	"path/filepath"
	"testing"
)

// TwoVsTwo is a small 2v2 recording. Player 1 and 3 win. Actions span three
// minutes and include the meta tags GAME and DE_TRANSFORM, a player given as
// an object, and an action for player 7 who is not in the player list.
const TwoVsTwo = `{
  "players": [
    {"number": 1, "name": "Alice", "civilization": "Franks", "color": "Blue", "winner": true},
    {"number": 2, "name": "Bob", "civilization": "Mongols", "color": "Red", "winner": false},
    {"number": 3, "name": "Carol", "civilization": "Britons", "color": "Green", "winner": true},
    {"number": 4, "name": "Dave", "civilization": "Aztecs", "color": "Yellow", "winner": false}
  ],
  "actions": [
    {"timestamp": "0:00:00.500000", "player": 1, "type": "GAME"},
    {"timestamp": "0:00:02", "player": 1, "type": "MOVE"},
    {"timestamp": "0:00:05", "player": {"number": 2, "name": "Bob"}, "type": "QUEUE"},
    {"timestamp": "0:00:10", "player": 1, "type": "MOVE"},
    {"timestamp": "0:00:40", "player": 3, "type": "DE_TRANSFORM"},
    {"timestamp": "0:01:01.500000", "player": 2, "type": "BUILD"},
    {"timestamp": 62500, "player": 1, "type": "RESEARCH"},
    {"timestamp": "0:01:59", "player": 4, "type": "MOVE"},
    {"timestamp": "0:02:30", "player": 7, "type": "FLARE"},
    {"timestamp": "0:03:10", "player": 3, "type": "DE_UNKNOWN_999"}
  ],
  "diplomacy": {"type": "TG", "team_size": "2v2"},
  "map": {"name": "Arabia", "size": "Tiny"},
  "teams": [[1, 3], [2, 4]],
  "duration": 3661000,
  "played": 1705314600
}`

// GameOnly is a recording whose only actions are default-excluded meta tags.
const GameOnly = `{
  "players": [{"number": 1, "name": "Solo", "winner": false}],
  "actions": [
    {"timestamp": 1000, "player": 1, "type": "GAME"},
    {"timestamp": 2000, "player": 1, "type": "DE_TRANSFORM"}
  ],
  "teams": [[1]],
  "duration": 65000
}`

// Skirmish is a 1v1 without a recorded winner or start time.
const Skirmish = `{
  "players": [
    {"number": 1, "name": "Erin", "civilization": "Mongols", "winner": false},
    {"number": 2, "name": "Finn", "civilization": "Aztecs", "winner": false}
  ],
  "actions": [
    {"timestamp": "0:00:05", "player": 1, "type": "QUEUE"},
    {"timestamp": "0:00:40", "player": 2, "type": "MOVE"},
    {"timestamp": "0:01:10", "player": 1, "type": "MOVE"},
    {"timestamp": "0:02:30", "player": 2, "type": "RESIGN"}
  ],
  "diplomacy": {"type": "1v1", "team_size": "1v1"},
  "map": {"name": "Arena", "size": "Tiny"},
  "teams": [[1], [2]],
  "duration": 150000
}`

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
