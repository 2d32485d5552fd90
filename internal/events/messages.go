package events

// Event types.
const (
	RecordingProcessed = "recording:processed"
	RecordingFailed    = "recording:failed"
	WatchStopped       = "watch:stopped"
)

// ProcessedMessage is the payload of RecordingProcessed.
type ProcessedMessage struct {
	Path        string
	MatchID     string // empty when archiving is off
	NewMatch    bool
	Players     []string
	ActionCount int
	Duration    string
	ChartPath   string
}

// FailedMessage is the payload of RecordingFailed.
type FailedMessage struct {
	Path  string
	Error string
}

// StoppedMessage is the payload of WatchStopped.
type StoppedMessage struct {
	Dir     string
	Handled uint64
	Failed  uint64
	Uptime  string
}
