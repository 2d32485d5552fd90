package events

import (
	"log/slog"
	"strings"
)

// LoggingObserver logs every event with slog.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates an observer writing to logger, or slog.Default().
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent logs the event details.
func (o *LoggingObserver) OnEvent(event Event) error {
	switch msg := event.Payload.(type) {
	case ProcessedMessage:
		o.logger.Info("Recording processed",
			"path", msg.Path,
			"players", strings.Join(msg.Players, ", "),
			"actions", msg.ActionCount,
			"duration", msg.Duration,
			"match_id", msg.MatchID,
			"chart", msg.ChartPath)
	case FailedMessage:
		o.logger.Error("Recording failed", "path", msg.Path, "error", msg.Error)
	case StoppedMessage:
		o.logger.Info("Watch stopped", "dir", msg.Dir, "handled", msg.Handled, "failed", msg.Failed, "uptime", msg.Uptime)
	default:
		o.logger.Debug("Event", "type", event.Type)
	}
	return nil
}

// Name returns the observer's name.
func (o *LoggingObserver) Name() string { return "LoggingObserver" }

// ShouldHandle returns true for all events.
func (o *LoggingObserver) ShouldHandle(string) bool { return true }

// FuncObserver adapts a function to Observer, filtered to the given types.
// No types means every event.
type FuncObserver struct {
	name  string
	types map[string]bool
	fn    func(Event) error
}

// NewFuncObserver creates an observer calling fn.
func NewFuncObserver(name string, fn func(Event) error, types ...string) *FuncObserver {
	o := &FuncObserver{name: name, fn: fn}
	if len(types) > 0 {
		o.types = make(map[string]bool, len(types))
		for _, t := range types {
			o.types[t] = true
		}
	}
	return o
}

// OnEvent calls the wrapped function.
func (o *FuncObserver) OnEvent(event Event) error { return o.fn(event) }

// Name returns the observer's name.
func (o *FuncObserver) Name() string { return o.name }

// ShouldHandle reports whether eventType is one of the filtered types.
func (o *FuncObserver) ShouldHandle(eventType string) bool {
	return o.types == nil || o.types[eventType]
}
