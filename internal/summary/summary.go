// Package summary describes a recorded match: sides, map, duration, start
// time and the winning team.
package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/replay"
)

// UnknownStartTime is shown when a recording has no start timestamp.
const UnknownStartTime = "?"

// PlayerStats is the per-player part of a match summary.
type PlayerStats struct {
	Number       int       `json:"number"`
	Name         string    `json:"name"`
	Civilization string    `json:"civilization,omitempty"`
	Color        string    `json:"color,omitempty"`
	Winner       bool      `json:"winner"`
	EAPM         *int      `json:"eapm,omitempty"`
	Rating       *int      `json:"rating,omitempty"`
	Position     []float64 `json:"position,omitempty"`
}

// MatchSummary is the descriptive record of one match.
type MatchSummary struct {
	Diplomacy          replay.Diplomacy `json:"diplomacy"`
	Map                replay.MapInfo   `json:"map"`
	Teams              [][]int          `json:"teams"`
	Players            []PlayerStats    `json:"players"`
	Duration           string           `json:"duration"`
	WinningTeam        *int             `json:"winning_team"`
	WinningTeamPlayers []string         `json:"winning_team_players"`
	StartTime          string           `json:"start_time"`
}

// Extract assembles the summary record from s.
func Extract(s replay.Summary) *MatchSummary {
	teams := s.Teams()
	players := s.Players()

	stats := make([]PlayerStats, len(players))
	for i, p := range players {
		stats[i] = PlayerStats{
			Number:       p.Number,
			Name:         p.Name,
			Civilization: p.Civilization,
			Color:        p.Color,
			Winner:       p.Winner,
			EAPM:         p.EAPM,
			Rating:       p.Rating,
			Position:     p.Position,
		}
	}

	winningTeam, winners := ResolveWinner(teams, players)
	played, ok := s.Played()

	if teams == nil {
		teams = [][]int{}
	}

	return &MatchSummary{
		Diplomacy:          s.Diplomacy(),
		Map:                s.Map(),
		Teams:              teams,
		Players:            stats,
		Duration:           FormatDuration(s.Duration()),
		WinningTeam:        winningTeam,
		WinningTeamPlayers: winners,
		StartTime:          FormatStartTime(played, ok),
	}
}

// ExtractFile reads the summary of the recording at path.
func ExtractFile(ctx context.Context, reader replay.Reader, path string) (*MatchSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := replay.ParseSummaryFile(reader, path)
	if err != nil {
		return nil, err
	}
	return Extract(s), nil
}

// ResolveWinner returns the 1-based index of the first team, in the given
// order, that contains a winning player, and the names of that team's
// players in team order. It returns nil and an empty slice when no player
// is marked as a winner.
func ResolveWinner(teams [][]int, players []replay.Player) (*int, []string) {
	winners := make(map[int]bool)
	names := make(map[int]string, len(players))
	for _, p := range players {
		names[p.Number] = p.Name
		if p.Winner {
			winners[p.Number] = true
		}
	}

	if len(winners) == 0 {
		return nil, []string{}
	}

	for i, team := range teams {
		for _, number := range team {
			if !winners[number] {
				continue
			}
			index := i + 1
			members := make([]string, 0, len(team))
			for _, n := range team {
				if name, ok := names[n]; ok {
					members = append(members, name)
				}
			}
			return &index, members
		}
	}

	return nil, []string{}
}

// FormatDuration renders milliseconds as H:MM:SS, or M:SS under an hour.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatStartTime renders t in UTC as "2006-01-02 15:04 UTC", or "?" when
// the start time is not known.
func FormatStartTime(t time.Time, ok bool) string {
	if !ok || t.IsZero() {
		return UnknownStartTime
	}
	return t.UTC().Format("2006-01-02 15:04") + " UTC"
}
