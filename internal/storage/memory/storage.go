package memory

import (
	"context"
	"sync"

	"github.com/mcoot/signedchess/internal/model"
	"github.com/mcoot/signedchess/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Sessions live for the lifetime of the instance.
type Storage struct {
	mu       sync.RWMutex
	sessions map[model.SessionID]*model.Session

	writers storage.KeyedMutex
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions: make(map[model.SessionID]*model.Session),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) CreateSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return model.ErrSessionExists
	}
	session.Revision = 1
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *Storage) SessionExists(ctx context.Context, id model.SessionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok, nil
}

func (s *Storage) MutateSession(ctx context.Context, id model.SessionID, fn storage.MutateFunc) (*model.Session, error) {
	unlock := s.writers.Lock(id)
	defer unlock()

	// Readers keep seeing the committed session while fn runs
	current, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	revision := current.Revision

	if err := fn(current); err != nil {
		return nil, err
	}
	current.Revision = revision + 1

	s.mu.Lock()
	s.sessions[id] = current.Clone()
	s.mu.Unlock()

	return current, nil
}

// Count returns the number of stored sessions
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
