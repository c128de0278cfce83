package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/signedchess/internal/model"
)

// SessionSource loads the current state of a session
type SessionSource interface {
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
}

// Broadcaster publishes session events to rooms and brings new subscribers
// up to date with a snapshot of the current state
type Broadcaster struct {
	hubManager *HubManager
	sessions   SessionSource
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, sessions SessionSource, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		sessions:   sessions,
		logger:     logger.With(slog.String("component", "broadcaster")),
	}
}

// Publish delivers an event to every subscriber of the session's room
func (b *Broadcaster) Publish(id model.SessionID, kind model.EventKind, payload any) {
	hub := b.hubManager.GetHub(id)
	if hub == nil {
		return
	}

	msg, err := NewMessage(kind, payload)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("session_id", string(id)),
			slog.String("event", string(kind)),
			slog.Any("error", err))
		return
	}
	hub.Broadcast(msg)
}

// Subscribe adds client to the session's room and queues the current state
// for it. Failures are reported to that client only, and returned.
func (b *Broadcaster) Subscribe(ctx context.Context, client *Client, id model.SessionID) error {
	if id == "" {
		client.offer(errorMessage("Session id is required"))
		return fmt.Errorf("%w: session id is required", model.ErrInvalidRequest)
	}

	// Join before reading so no commit can fall between snapshot and membership
	hub := b.hubManager.Join(id, client)

	session, err := b.sessions.GetSession(ctx, id)
	if err != nil {
		b.hubManager.Leave(id, client)
		text := "Could not load session"
		if errors.Is(err, model.ErrSessionNotFound) {
			text = "Session not found"
		}
		client.offer(errorMessage(text))
		return err
	}

	msg, err := NewMessage(model.EventUpdate, session)
	if err != nil {
		b.hubManager.Leave(id, client)
		return err
	}
	hub.Deliver(client, msg)

	b.logger.Debug("client subscribed",
		slog.String("session_id", string(id)),
		slog.String("client_id", client.id))
	return nil
}

// Unsubscribe removes client from the session's room
func (b *Broadcaster) Unsubscribe(client *Client, id model.SessionID) {
	b.hubManager.Leave(id, client)
}
