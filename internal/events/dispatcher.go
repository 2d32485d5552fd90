// Package events fans pipeline notifications out to registered observers.
package events

import (
	"context"
	"log/slog"
	"sync"
)

// Event represents a pipeline event dispatched to observers.
type Event struct {
	// Type is the event type, e.g. "recording:processed".
	Type string

	// Payload is one of the message types in this package.
	Payload any

	Context context.Context
}

// Observer defines the interface for objects that want to be notified of events.
type Observer interface {
	// OnEvent is called when an event is dispatched.
	OnEvent(event Event) error

	// Name returns a human-readable name for logging.
	Name() string

	// ShouldHandle returns true if this observer wants events of eventType.
	ShouldHandle(eventType string) bool
}

// Dispatcher notifies registered observers of events, in registration order.
// Safe for concurrent use.
type Dispatcher struct {
	observers []Observer
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil logger uses slog.Default().
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Register adds an observer.
func (d *Dispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	d.logger.Debug("Registered observer", "observer", observer.Name())
}

// Unregister removes an observer.
func (d *Dispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			d.logger.Debug("Unregistered observer", "observer", observer.Name())
			return
		}
	}
}

// Dispatch sends event to every interested observer. A failing observer is
// logged and does not stop delivery to the rest. A nil Dispatcher drops events.
func (d *Dispatcher) Dispatch(event Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			d.logger.Warn("Observer failed to handle event",
				"observer", observer.Name(), "event", event.Type, "error", err)
		}
	}
}

// ObserverCount returns the number of registered observers.
func (d *Dispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// NewEvent creates an Event carrying payload.
func NewEvent[T any](ctx context.Context, eventType string, payload T) Event {
	return Event{Type: eventType, Payload: payload, Context: ctx}
}

// PayloadAs extracts a typed payload from an Event.
func PayloadAs[T any](event Event) (T, bool) {
	typed, ok := event.Payload.(T)
	return typed, ok
}
