// Package commands implements each CLI operation as a Command object run by
// a CommandExecutor.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Command represents an encapsulated operation that can be executed.
type Command interface {
	// Execute performs the command's operation.
	Execute(ctx context.Context) error

	// GetName returns a human-readable name for this command.
	GetName() string

	// GetDescription returns a detailed description of what this command does.
	GetDescription() string

	// CanUndo returns true if this command supports undo operations.
	CanUndo() bool

	// Undo reverses the command's operation (if supported).
	Undo(ctx context.Context) error
}

// CommandExecutor runs commands and keeps the undoable ones in a history.
type CommandExecutor struct {
	commandHistory []Command
	maxHistory     int
	logger         *slog.Logger
}

// NewCommandExecutor creates a new command executor.
// maxHistory specifies how many commands to keep in history (0 = unlimited).
func NewCommandExecutor(maxHistory int, logger *slog.Logger) *CommandExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandExecutor{
		commandHistory: make([]Command, 0),
		maxHistory:     maxHistory,
		logger:         logger,
	}
}

// Execute runs a command and adds it to the history.
func (e *CommandExecutor) Execute(ctx context.Context, cmd Command) error {
	e.logger.Debug("Executing command", "command", cmd.GetName(), "description", cmd.GetDescription())

	start := time.Now()
	if err := cmd.Execute(ctx); err != nil {
		return fmt.Errorf("command %s failed: %w", cmd.GetName(), err)
	}
	e.logger.Debug("Command finished", "command", cmd.GetName(), "elapsed", time.Since(start))

	if cmd.CanUndo() {
		e.addToHistory(cmd)
	}
	return nil
}

// ExecuteAll executes multiple commands in sequence.
// If any command fails, execution stops and returns the error.
func (e *CommandExecutor) ExecuteAll(ctx context.Context, commands []Command) error {
	for i, cmd := range commands {
		if err := e.Execute(ctx, cmd); err != nil {
			return fmt.Errorf("command %d (%s) failed: %w", i, cmd.GetName(), err)
		}
	}
	return nil
}

// Undo reverses the most recent undoable command.
func (e *CommandExecutor) Undo(ctx context.Context) error {
	if len(e.commandHistory) == 0 {
		return fmt.Errorf("no commands to undo")
	}

	cmd := e.commandHistory[len(e.commandHistory)-1]
	if err := cmd.Undo(ctx); err != nil {
		return fmt.Errorf("failed to undo command %s: %w", cmd.GetName(), err)
	}

	e.commandHistory = e.commandHistory[:len(e.commandHistory)-1]
	return nil
}

// Rollback undoes every command in the history, newest first. It stops at
// the first command that fails to undo.
func (e *CommandExecutor) Rollback(ctx context.Context) error {
	for len(e.commandHistory) > 0 {
		if err := e.Undo(ctx); err != nil {
			return err
		}
	}
	return nil
}

// GetHistory returns a copy of the command history.
func (e *CommandExecutor) GetHistory() []Command {
	history := make([]Command, len(e.commandHistory))
	copy(history, e.commandHistory)
	return history
}

func (e *CommandExecutor) addToHistory(cmd Command) {
	e.commandHistory = append(e.commandHistory, cmd)
	if e.maxHistory > 0 && len(e.commandHistory) > e.maxHistory {
		e.commandHistory = e.commandHistory[len(e.commandHistory)-e.maxHistory:]
	}
}

// BaseCommand provides default GetName, GetDescription and no-undo behavior.
type BaseCommand struct {
	name        string
	description string
}

// GetName returns the command name.
func (c *BaseCommand) GetName() string {
	return c.name
}

// GetDescription returns the command description.
func (c *BaseCommand) GetDescription() string {
	return c.description
}

// CanUndo returns false by default.
func (c *BaseCommand) CanUndo() bool {
	return false
}

// Undo returns an error by default.
func (c *BaseCommand) Undo(ctx context.Context) error {
	return fmt.Errorf("command %s does not support undo", c.name)
}
