package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcher_FiltersByType(t *testing.T) {
	d := NewDispatcher(nil)

	var all, failed []string
	d.Register(NewFuncObserver("all", func(e Event) error {
		all = append(all, e.Type)
		return nil
	}))
	d.Register(NewFuncObserver("failed", func(e Event) error {
		failed = append(failed, e.Type)
		return nil
	}, RecordingFailed))

	ctx := context.Background()
	d.Dispatch(NewEvent(ctx, RecordingProcessed, ProcessedMessage{Path: "a"}))
	d.Dispatch(NewEvent(ctx, RecordingFailed, FailedMessage{Path: "b", Error: "boom"}))

	if len(all) != 2 {
		t.Errorf("all observer got %v, want 2 events", all)
	}
	if len(failed) != 1 || failed[0] != RecordingFailed {
		t.Errorf("failed observer got %v, want [%s]", failed, RecordingFailed)
	}
}

func TestDispatcher_ObserverErrorDoesNotStopDelivery(t *testing.T) {
	d := NewDispatcher(nil)
	d.Register(NewFuncObserver("broken", func(Event) error { return errors.New("broken") }))

	delivered := false
	d.Register(NewFuncObserver("ok", func(Event) error {
		delivered = true
		return nil
	}))

	d.Dispatch(NewEvent(context.Background(), WatchStopped, StoppedMessage{}))
	if !delivered {
		t.Error("second observer was not notified")
	}
}

func TestDispatcher_Unregister(t *testing.T) {
	d := NewDispatcher(nil)
	obs := NewLoggingObserver(nil)
	d.Register(obs)
	if d.ObserverCount() != 1 {
		t.Fatalf("ObserverCount() = %d, want 1", d.ObserverCount())
	}
	d.Unregister(obs)
	if d.ObserverCount() != 0 {
		t.Errorf("ObserverCount() = %d, want 0", d.ObserverCount())
	}
}

func TestDispatcher_NilDropsEvents(t *testing.T) {
	var d *Dispatcher
	d.Dispatch(NewEvent(context.Background(), WatchStopped, StoppedMessage{}))
}

func TestPayloadAs(t *testing.T) {
	e := NewEvent(context.Background(), RecordingProcessed, ProcessedMessage{Path: "x.json", ActionCount: 3})

	msg, ok := PayloadAs[ProcessedMessage](e)
	if !ok || msg.ActionCount != 3 {
		t.Errorf("PayloadAs() = %+v, %v", msg, ok)
	}
	if _, ok := PayloadAs[FailedMessage](e); ok {
		t.Error("PayloadAs() matched the wrong type")
	}
}
