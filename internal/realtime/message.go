// Package realtime fans session state out to connected observers.
//
// Each session id has a room (Hub) holding the connections subscribed to it.
// Connections speak either websocket (bidirectional, JSON envelopes) or
// server-sent events (read-only, one session per stream).
package realtime

import (
	"encoding/json"

	"github.com/mcoot/signedchess/internal/model"
)

// Client-to-server websocket events
const (
	EventSubscribe   = "session:subscribe"
	EventUnsubscribe = "session:unsubscribe"
)

// Message is the envelope exchanged over realtime connections
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`

	// revision orders session:update messages per connection; zero means unordered
	revision uint64
}

// NewMessage encodes payload into a message. Sessions carry their revision along.
func NewMessage(kind model.EventKind, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg := Message{Event: string(kind), Data: data}
	if session, ok := payload.(*model.Session); ok && kind == model.EventUpdate {
		msg.revision = session.Revision
	}
	return msg, nil
}

// errorMessage builds the connection-scoped error event
func errorMessage(text string) Message {
	data, _ := json.Marshal(model.ErrorPayload{Message: text})
	return Message{Event: string(model.EventError), Data: data}
}
