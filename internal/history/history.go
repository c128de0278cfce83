// Package history applies editing commands to an ordered list of move notations.
//
// The engine treats history editing as a narrow capability so it does not care
// whether the list is edited in-process or by an external executable.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mcoot/signedchess/internal/rules"
)

// Command is an editing operation on a move list
type Command string

const (
	CommandAdd   Command = "add"
	CommandUndo  Command = "undo"
	CommandRedo  Command = "redo" // Same as add; the argument is the move being redone
	CommandList  Command = "list"
	CommandClear Command = "clear"
)

// Result is the outcome of applying a command
type Result struct {
	Moves   []string
	Removed string // Set by undo when a move was removed
}

// Authority applies commands to move lists
type Authority interface {
	Apply(ctx context.Context, moves []string, cmd Command, arg string) (Result, error)
}

var (
	// ErrRejected means the authority refused the command, e.g. an illegal move
	ErrRejected = errors.New("history command rejected")
	// ErrUnavailable means the authority could not be reached or timed out
	ErrUnavailable = errors.New("history authority unavailable")

	ErrMissingMove    = errors.New("missing move")
	ErrUnknownCommand = errors.New("unknown command")
)

// Edit applies cmd to moves without any legality checks. The input is never modified.
func Edit(moves []string, cmd Command, arg string) (Result, error) {
	out := make([]string, 0, len(moves)+1)
	for _, m := range moves {
		if m != "" {
			out = append(out, m)
		}
	}

	switch cmd {
	case CommandAdd, CommandRedo:
		if arg == "" {
			return Result{}, ErrMissingMove
		}
		return Result{Moves: append(out, arg)}, nil
	case CommandUndo:
		if len(out) == 0 {
			return Result{Moves: out}, nil
		}
		last := out[len(out)-1]
		return Result{Moves: out[:len(out)-1], Removed: last}, nil
	case CommandList:
		return Result{Moves: out}, nil
	case CommandClear:
		return Result{Moves: []string{}}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}

// Local applies commands in-process. When a rules authority is configured,
// additions that do not replay legally are rejected.
type Local struct {
	rules rules.Authority
}

// NewLocal creates an in-process authority. rulesAuthority may be nil to skip legality checks.
func NewLocal(rulesAuthority rules.Authority) *Local {
	return &Local{rules: rulesAuthority}
}

var _ Authority = (*Local)(nil)

// Apply implements Authority
func (l *Local) Apply(ctx context.Context, moves []string, cmd Command, arg string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	res, err := Validate(l.rules, moves, cmd, arg)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return res, nil
}

// Validate runs Edit and, for additions, checks the new list against the rules authority
func Validate(rulesAuthority rules.Authority, moves []string, cmd Command, arg string) (Result, error) {
	res, err := Edit(moves, cmd, arg)
	if err != nil {
		return Result{}, err
	}
	if rulesAuthority != nil && (cmd == CommandAdd || cmd == CommandRedo) {
		if _, err := rulesAuthority.Evaluate(res.Moves); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

// FormatMoves renders a move list in the one-notation-per-line file format
func FormatMoves(moves []string) string {
	return strings.Join(moves, "\n")
}

// ParseMoves reads the one-notation-per-line format, skipping blank lines
func ParseMoves(data string) []string {
	moves := []string{}
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		moves = append(moves, line)
	}
	return moves
}
