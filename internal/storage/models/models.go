package models

import "time"

// Match is one analysed recording stored in the archive.
type Match struct {
	ID            string
	FileHash      string // sha256 of the recording bytes
	FilePath      string
	MapName       string
	Diplomacy     string
	Duration      string // "H:MM:SS"
	StartTime     string // "?" when the recording has no start time
	WinningTeam   *int   // Nullable
	PlayerCount   int
	ActionCount   int
	ExcludedTypes []string
	SummaryJSON   string
	AnalyzedAt    time.Time
}

// ActionCount is one aggregated (player, minute, type) cell of a stored match.
type ActionCount struct {
	MatchID        string
	Player         string
	RelativeMinute int
	ActionType     string
	Count          int
}

// MatchFilter narrows History queries.
type MatchFilter struct {
	MapName string
	Since   *time.Time
	Limit   int
}
