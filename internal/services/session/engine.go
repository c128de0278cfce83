// Package session implements the authoritative session engine: creation,
// join admission, signed move submission, undo/redo/reset and terminal
// detection. Every mutation runs under the store's single-writer-per-session
// discipline and is published to observers only after it commits.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/signedchess/internal/dependencies/clock"
	"github.com/mcoot/signedchess/internal/dependencies/random"
	"github.com/mcoot/signedchess/internal/history"
	"github.com/mcoot/signedchess/internal/model"
	"github.com/mcoot/signedchess/internal/rules"
	"github.com/mcoot/signedchess/internal/signature"
	"github.com/mcoot/signedchess/internal/storage"
)

const (
	idPrefix      = "chess-"
	idLength      = 12
	idAlphabet    = "0123456789abcdef"
	maxIDAttempts = 5

	// MaxNotationLength matches the longest line the history file format accepts
	MaxNotationLength = 32
)

// Publisher fans committed changes out to a session's observers
type Publisher interface {
	Publish(id model.SessionID, kind model.EventKind, payload any)
}

// errUnchanged aborts a mutation that turned out to be a no-op
var errUnchanged = errors.New("unchanged")

// Engine is the session state machine
type Engine struct {
	store     storage.Storage
	history   history.Authority
	rules     rules.Authority
	verifier  signature.Verifier
	publisher Publisher
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
}

// NewEngine creates a new session Engine
func NewEngine(
	store storage.Storage,
	historyAuthority history.Authority,
	rulesAuthority rules.Authority,
	verifier signature.Verifier,
	publisher Publisher,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		store:     store,
		history:   historyAuthority,
		rules:     rulesAuthority,
		verifier:  verifier,
		publisher: publisher,
		clock:     clock,
		random:    random,
		logger:    logger.With(slog.String("component", "session")),
	}
}

// Create starts a new session with white bound to whitePublicKey
func (e *Engine) Create(ctx context.Context, whitePublicKey string) (*model.Session, error) {
	whitePublicKey = strings.TrimSpace(whitePublicKey)
	if err := validateKey(whitePublicKey); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		suffix := e.random.String(idLength, idAlphabet)
		if len(suffix) != idLength {
			return nil, fmt.Errorf("generate session id: got %q", suffix)
		}

		session := &model.Session{
			ID:        model.SessionID(idPrefix + suffix),
			Players:   model.Players{White: whitePublicKey},
			MoveLog:   []string{},
			RedoLog:   []string{},
			Status:    model.StatusWaiting,
			UpdatedAt: e.clock.Now(),
		}

		err := e.store.CreateSession(ctx, session)
		if errors.Is(err, model.ErrSessionExists) {
			continue
		}
		if err != nil {
			e.logger.Error("failed to create session",
				slog.String("session_id", string(session.ID)),
				slog.String("error", err.Error()),
			)
			return nil, err
		}

		e.logger.Info("session created", slog.String("session_id", string(session.ID)))
		return session.Clone(), nil
	}

	return nil, fmt.Errorf("generate session id: %w after %d attempts", model.ErrSessionExists, maxIDAttempts)
}

// Get returns the current state of a session
func (e *Engine) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return e.store.GetSession(ctx, id)
}

// Join binds black to blackPublicKey and activates the session. Repeating the
// join with the already bound key succeeds without changing anything.
func (e *Engine) Join(ctx context.Context, id model.SessionID, blackPublicKey string) (*model.Session, error) {
	blackPublicKey = strings.TrimSpace(blackPublicKey)

	var unchanged *model.Session
	updated, err := e.store.MutateSession(ctx, id, func(s *model.Session) error {
		if s.Status != model.StatusWaiting {
			if blackPublicKey != "" && s.Players.Black == blackPublicKey {
				unchanged = s.Clone()
				return errUnchanged
			}
			return model.ErrSessionFull
		}
		if err := validateKey(blackPublicKey); err != nil {
			return err
		}

		s.Players.Black = blackPublicKey
		s.Status = model.StatusActive
		s.UpdatedAt = e.clock.Now()
		return nil
	})
	if errors.Is(err, errUnchanged) {
		e.logger.Debug("player rejoined", slog.String("session_id", string(id)))
		return unchanged, nil
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("player joined", slog.String("session_id", string(id)))
	e.publisher.Publish(id, model.EventStart, updated.Clone())
	return updated, nil
}

// SubmitMove applies a signed move from the player whose turn it is. The
// signature must cover the session id and notation joined by signature.Separator.
func (e *Engine) SubmitMove(ctx context.Context, id model.SessionID, notation, publicKey, sig string) (*model.Session, error) {
	var position rules.Position
	updated, err := e.store.MutateSession(ctx, id, func(s *model.Session) error {
		if s.Status != model.StatusActive {
			return fmt.Errorf("%w: moves are not accepted while %s", model.ErrForbidden, s.Status)
		}
		if notation == "" || publicKey == "" || sig == "" {
			return fmt.Errorf("%w: move, publicKey and signature are required", model.ErrInvalidRequest)
		}
		if err := ValidateNotation(notation); err != nil {
			return err
		}
		if publicKey != s.ExpectedKey() {
			return fmt.Errorf("%w: not your turn, %s to move", model.ErrUnauthorized, s.Turn())
		}
		if !e.verifier.Verify(publicKey, signature.MoveMessage(s.ID, notation), sig) {
			return fmt.Errorf("%w: signature does not verify", model.ErrUnauthorized)
		}

		res, err := e.apply(ctx, s.MoveLog, history.CommandAdd, notation)
		if err != nil {
			return err
		}
		position, err = e.rules.Evaluate(res.Moves)
		if err != nil {
			if errors.Is(err, rules.ErrIllegalMove) {
				return fmt.Errorf("%w: %v", model.ErrMoveRejected, err)
			}
			return fmt.Errorf("%w: %v", model.ErrExternalFailure, err)
		}

		s.MoveLog = res.Moves
		s.RedoLog = []string{}
		if position.Terminal {
			s.Status = model.StatusReview
		}
		s.UpdatedAt = e.clock.Now()
		return nil
	})
	if err != nil {
		e.logger.Debug("move refused",
			slog.String("session_id", string(id)),
			slog.String("move", notation),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	e.logger.Info("move applied",
		slog.String("session_id", string(id)),
		slog.String("move", notation),
		slog.Int("ply", len(updated.MoveLog)),
	)
	if position.Terminal {
		e.logger.Info("session entered review",
			slog.String("session_id", string(id)),
			slog.String("reason", string(position.Reason)),
		)
		e.publisher.Publish(id, model.EventEnd, model.EndPayload{Status: model.StatusReview, Reason: position.Reason})
	}
	e.publisher.Publish(id, model.EventUpdate, updated.Clone())
	return updated, nil
}

// Undo takes back the last move of a finished game and stacks it for redo
func (e *Engine) Undo(ctx context.Context, id model.SessionID) (*model.Session, error) {
	updated, err := e.store.MutateSession(ctx, id, func(s *model.Session) error {
		if s.Status != model.StatusReview {
			return fmt.Errorf("%w: undo is only available after the game is over", model.ErrForbidden)
		}
		res, err := e.apply(ctx, s.MoveLog, history.CommandUndo, "")
		if err != nil {
			return err
		}
		if res.Removed != "" {
			s.RedoLog = append(s.RedoLog, res.Removed)
		}
		s.MoveLog = res.Moves
		s.UpdatedAt = e.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("move undone",
		slog.String("session_id", string(id)),
		slog.Int("ply", len(updated.MoveLog)),
	)
	e.publisher.Publish(id, model.EventUpdate, updated.Clone())
	return updated, nil
}

// Redo replays the most recently undone move. Terminal detection is not re-run.
func (e *Engine) Redo(ctx context.Context, id model.SessionID) (*model.Session, error) {
	updated, err := e.store.MutateSession(ctx, id, func(s *model.Session) error {
		if s.Status != model.StatusActive && s.Status != model.StatusReview {
			return fmt.Errorf("%w: redo is not available while %s", model.ErrForbidden, s.Status)
		}
		if len(s.RedoLog) == 0 {
			return model.ErrNothingToRedo
		}

		notation := s.RedoLog[len(s.RedoLog)-1]
		res, err := e.apply(ctx, s.MoveLog, history.CommandRedo, notation)
		if err != nil {
			return err
		}
		s.MoveLog = res.Moves
		s.RedoLog = []string{}
		s.UpdatedAt = e.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("move redone",
		slog.String("session_id", string(id)),
		slog.Int("ply", len(updated.MoveLog)),
	)
	e.publisher.Publish(id, model.EventUpdate, updated.Clone())
	return updated, nil
}

// Reset wipes the move log of a finished game. The session stays in review.
func (e *Engine) Reset(ctx context.Context, id model.SessionID) (*model.Session, error) {
	updated, err := e.store.MutateSession(ctx, id, func(s *model.Session) error {
		if s.Status != model.StatusReview {
			return fmt.Errorf("%w: reset is only available after the game is over", model.ErrForbidden)
		}
		res, err := e.apply(ctx, s.MoveLog, history.CommandClear, "")
		if err != nil {
			return err
		}
		s.MoveLog = res.Moves
		s.UpdatedAt = e.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("session reset", slog.String("session_id", string(id)))
	e.publisher.Publish(id, model.EventUpdate, updated.Clone())
	return updated, nil
}

// apply runs a history command and translates its failures into engine errors
func (e *Engine) apply(ctx context.Context, moves []string, cmd history.Command, arg string) (history.Result, error) {
	res, err := e.history.Apply(ctx, moves, cmd, arg)
	if err == nil {
		if res.Moves == nil {
			res.Moves = []string{}
		}
		return res, nil
	}

	e.logger.Warn("history command failed",
		slog.String("command", string(cmd)),
		slog.String("error", err.Error()),
	)
	if errors.Is(err, history.ErrRejected) && (cmd == history.CommandAdd || cmd == history.CommandRedo) {
		return history.Result{}, fmt.Errorf("%w: %v", model.ErrMoveRejected, err)
	}
	return history.Result{}, fmt.Errorf("%w: %v", model.ErrExternalFailure, err)
}

// ValidateNotation checks that a move notation can be stored in the history
// format and signed unambiguously
func ValidateNotation(notation string) error {
	switch {
	case notation == "":
		return fmt.Errorf("%w: move is required", model.ErrInvalidRequest)
	case len(notation) > MaxNotationLength:
		return fmt.Errorf("%w: move longer than %d bytes", model.ErrInvalidRequest, MaxNotationLength)
	case strings.Contains(notation, signature.Separator):
		return fmt.Errorf("%w: move must not contain %q", model.ErrInvalidRequest, signature.Separator)
	case strings.ContainsAny(notation, "\r\n"):
		return fmt.Errorf("%w: move must be a single line", model.ErrInvalidRequest)
	}
	return nil
}

func validateKey(publicKey string) error {
	if publicKey == "" {
		return fmt.Errorf("%w: public key is required", model.ErrInvalidRequest)
	}
	if _, err := signature.ParsePublicKey(publicKey); err != nil {
		return fmt.Errorf("%w: malformed public key", model.ErrInvalidRequest)
	}
	return nil
}
