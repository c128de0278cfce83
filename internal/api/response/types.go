package response

import (
	"github.com/mcoot/signedchess/internal/model"
)

// CreateSessionResponse is returned by session creation
type CreateSessionResponse struct {
	OK        bool           `json:"ok"`
	SessionID string         `json:"sessionId"`
	Session   *model.Session `json:"session"`
}

// SessionResponse wraps the state of a session after a successful operation.
// The session encodes exactly as it does in realtime session:update events.
type SessionResponse struct {
	OK      bool           `json:"ok"`
	Session *model.Session `json:"session"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	OK bool `json:"ok"`
}

// Created builds the response for a new session
func Created(s *model.Session) CreateSessionResponse {
	return CreateSessionResponse{OK: true, SessionID: string(s.ID), Session: s}
}

// Of builds the response for an existing session
func Of(s *model.Session) SessionResponse {
	return SessionResponse{OK: true, Session: s}
}
