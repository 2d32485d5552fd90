package export

import (
	"strconv"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/summary"
)

// SummaryPlayerRow flattens one player of a match summary for CSV output.
type SummaryPlayerRow struct {
	Number       int    `csv:"number"`
	Name         string `csv:"name"`
	Team         string `csv:"team"`
	Civilization string `csv:"civilization"`
	Color        string `csv:"color"`
	Winner       bool   `csv:"winner"`
	EAPM         *int   `csv:"eapm"`
	Map          string `csv:"map"`
	Duration     string `csv:"duration"`
	StartTime    string `csv:"start_time"`
}

// SummaryRows flattens s into one row per player. Team is the 1-based team
// index, or empty when the player is on no team.
func SummaryRows(s *summary.MatchSummary) []SummaryPlayerRow {
	teamOf := make(map[int]string)
	for i, team := range s.Teams {
		for _, n := range team {
			if _, ok := teamOf[n]; !ok {
				teamOf[n] = strconv.Itoa(i + 1)
			}
		}
	}

	rows := make([]SummaryPlayerRow, len(s.Players))
	for i, p := range s.Players {
		rows[i] = SummaryPlayerRow{
			Number:       p.Number,
			Name:         p.Name,
			Team:         teamOf[p.Number],
			Civilization: p.Civilization,
			Color:        p.Color,
			Winner:       p.Winner,
			EAPM:         p.EAPM,
			Map:          s.Map.Name,
			Duration:     s.Duration,
			StartTime:    s.StartTime,
		}
	}
	return rows
}
