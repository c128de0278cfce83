package storage

import (
	"context"

	"github.com/mcoot/signedchess/internal/model"
)

// MutateFunc transforms a private copy of a session. Returning an error
// discards the copy and leaves the stored session untouched.
type MutateFunc func(session *model.Session) error

// Storage defines the interface for session persistence
type Storage interface {
	// CreateSession stores a new session. It fails with model.ErrSessionExists on id collision.
	CreateSession(ctx context.Context, session *model.Session) error
	// GetSession returns a copy of the committed session
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	SessionExists(ctx context.Context, id model.SessionID) (bool, error)
	// MutateSession applies fn with mutual exclusion against other mutations of
	// the same id and commits the result only if fn succeeds. It returns the committed copy.
	MutateSession(ctx context.Context, id model.SessionID, fn MutateFunc) (*model.Session, error)
}
