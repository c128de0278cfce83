package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/signedchess/internal/model"
	"github.com/mcoot/signedchess/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Sessions are stored as JSON documents, one key per session.
type Storage struct {
	client *redis.Client
	cfg    Config

	// writers serializes mutations within this process so WATCH only has to
	// arbitrate between server instances
	writers storage.KeyedMutex
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) CreateSession(ctx context.Context, session *model.Session) error {
	session.Revision = 1
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, sessionKey(session.ID), data, s.cfg.SessionTTL).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrSessionExists
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return s.getSession(ctx, s.client, id)
}

func (s *Storage) SessionExists(ctx context.Context, id model.SessionID) (bool, error) {
	exists, err := s.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) MutateSession(ctx context.Context, id model.SessionID, fn storage.MutateFunc) (*model.Session, error) {
	unlock := s.writers.Lock(id)
	defer unlock()

	key := sessionKey(id)
	attempts := max(s.cfg.MaxRetries, 1)

	var committed *model.Session
	txf := func(tx *redis.Tx) error {
		current, err := s.getSession(ctx, tx, id)
		if err != nil {
			return err
		}
		revision := current.Revision

		if err := fn(current); err != nil {
			return err
		}
		current.Revision = revision + 1

		data, err := json.Marshal(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.cfg.SessionTTL)
			return nil
		})
		if err != nil {
			return err
		}
		committed = current
		return nil
	}

	for i := 0; i < attempts; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return committed, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		// Another instance committed first; fn runs again against the new state
	}
	return nil, model.ErrConflict
}

func (s *Storage) getSession(ctx context.Context, c redis.Cmdable, id model.SessionID) (*model.Session, error) {
	data, err := c.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if session.MoveLog == nil {
		session.MoveLog = []string{}
	}
	if session.RedoLog == nil {
		session.RedoLog = []string{}
	}
	return &session, nil
}
