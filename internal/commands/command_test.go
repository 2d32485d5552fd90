package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeCommand struct {
	BaseCommand
	err      error
	undoable bool
	runs     int
	undone   int
	onUndo   func()
}

func newFake(name string, undoable bool, err error) *fakeCommand {
	return &fakeCommand{BaseCommand: BaseCommand{name: name, description: "fake " + name}, undoable: undoable, err: err}
}

func (f *fakeCommand) Execute(context.Context) error {
	f.runs++
	return f.err
}

func (f *fakeCommand) CanUndo() bool { return f.undoable }

func (f *fakeCommand) Undo(context.Context) error {
	f.undone++
	if f.onUndo != nil {
		f.onUndo()
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCommandExecutor_Execute(t *testing.T) {
	e := NewCommandExecutor(0, quietLogger())
	ctx := context.Background()

	plain := newFake("plain", false, nil)
	undoable := newFake("undoable", true, nil)
	if err := e.ExecuteAll(ctx, []Command{plain, undoable}); err != nil {
		t.Fatalf("ExecuteAll failed: %v", err)
	}
	if plain.runs != 1 || undoable.runs != 1 {
		t.Errorf("expected each command to run once, got %d and %d", plain.runs, undoable.runs)
	}
	if got := len(e.GetHistory()); got != 1 {
		t.Fatalf("expected 1 undoable command in history, got %d", got)
	}

	if err := e.Undo(ctx); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if undoable.undone != 1 {
		t.Error("expected Undo to reach the command")
	}
	if err := e.Undo(ctx); err == nil {
		t.Error("expected error with empty history")
	}
}

func TestCommandExecutor_StopsOnFailure(t *testing.T) {
	e := NewCommandExecutor(0, quietLogger())
	boom := errors.New("boom")

	first := newFake("first", false, boom)
	second := newFake("second", false, nil)
	err := e.ExecuteAll(context.Background(), []Command{first, second})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if second.runs != 0 {
		t.Error("second command should not run after a failure")
	}
}

func TestCommandExecutor_MaxHistory(t *testing.T) {
	e := NewCommandExecutor(2, quietLogger())
	ctx := context.Background()

	var cmds []*fakeCommand
	for _, name := range []string{"a", "b", "c"} {
		cmd := newFake(name, true, nil)
		cmds = append(cmds, cmd)
		if err := e.Execute(ctx, cmd); err != nil {
			t.Fatal(err)
		}
	}

	history := e.GetHistory()
	if len(history) != 2 {
		t.Fatalf("expected history of 2, got %d", len(history))
	}
	if history[0].GetName() != "b" || history[1].GetName() != "c" {
		t.Errorf("expected oldest entry dropped, got %s, %s", history[0].GetName(), history[1].GetName())
	}
}

func TestBaseCommand_NoUndo(t *testing.T) {
	c := &BaseCommand{name: "x", description: "does x"}
	if c.CanUndo() {
		t.Error("base command should not be undoable")
	}
	if err := c.Undo(context.Background()); err == nil {
		t.Error("expected undo error")
	}
	if c.GetName() != "x" || c.GetDescription() != "does x" {
		t.Error("unexpected name or description")
	}
}

func TestCommandExecutor_Rollback(t *testing.T) {
	e := NewCommandExecutor(0, quietLogger())
	ctx := context.Background()

	var order []string
	first := newFake("first", true, nil)
	second := newFake("second", true, nil)
	first.onUndo = func() { order = append(order, "first") }
	second.onUndo = func() { order = append(order, "second") }

	if err := e.ExecuteAll(ctx, []Command{first, second}); err != nil {
		t.Fatalf("ExecuteAll failed: %v", err)
	}
	if err := e.Rollback(ctx); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("undo order = %v, want [second first]", order)
	}
	if len(e.GetHistory()) != 0 {
		t.Error("history should be empty after rollback")
	}
}
