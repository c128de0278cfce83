package model

// EventKind identifies a realtime event delivered to a session room
type EventKind string

const (
	EventUpdate EventKind = "session:update"
	EventStart  EventKind = "session:start"
	EventEnd    EventKind = "session:end"

	// EventError is delivered only to the connection whose request failed
	EventError EventKind = "error"
)

// Reason explains why a position is terminal
type Reason string

const (
	ReasonCheckmate            Reason = "Checkmate"
	ReasonStalemate            Reason = "Stalemate"
	ReasonThreefoldRepetition  Reason = "Threefold Repetition"
	ReasonInsufficientMaterial Reason = "Insufficient Material"
	ReasonGameOver             Reason = "Game Over"
)

// EndPayload is carried by the end event
type EndPayload struct {
	Status Status `json:"status"`
	Reason Reason `json:"reason"`
}

// ErrorPayload is carried by the error event
type ErrorPayload struct {
	Message string `json:"message"`
}
