package model

import (
	"encoding/json"
	"time"
)

// SessionID uniquely identifies a session. It doubles as the realtime room name.
type SessionID string

// Color identifies one side of the board
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Status represents the current phase of a session
type Status string

const (
	StatusWaiting Status = "waiting" // Created, awaiting the second player
	StatusActive  Status = "active"  // Both players bound, game in progress
	StatusReview  Status = "review"  // Terminal position reached; undo/redo/reset unlocked
)

// Players maps each color to the hex-encoded public key bound to it.
// Black is empty until the join operation binds it, and encodes as null.
type Players struct {
	White string `json:"white"`
	Black string `json:"black"`
}

// MarshalJSON implements json.Marshaler
func (p Players) MarshalJSON() ([]byte, error) {
	var black *string
	if p.Black != "" {
		black = &p.Black
	}
	return json.Marshal(struct {
		White string  `json:"white"`
		Black *string `json:"black"`
	}{p.White, black})
}

// Session is one two-party game with its own players, move history and status
type Session struct {
	ID        SessionID `json:"id"`
	Players   Players   `json:"players"`
	MoveLog   []string  `json:"moves"`
	RedoLog   []string  `json:"redoMoves"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Revision is incremented by the store on every committed mutation
	Revision uint64 `json:"revision"`
}

// Turn returns the color expected to move next, derived from move log parity
func (s *Session) Turn() Color {
	if len(s.MoveLog)%2 == 0 {
		return White
	}
	return Black
}

// ExpectedKey returns the public key of the player whose turn it is.
// It is empty while black is unbound.
func (s *Session) ExpectedKey() string {
	if s.Turn() == White {
		return s.Players.White
	}
	return s.Players.Black
}

// Clone returns a deep copy safe to mutate independently
func (s *Session) Clone() *Session {
	c := *s
	c.MoveLog = cloneStrings(s.MoveLog)
	c.RedoLog = cloneStrings(s.RedoLog)
	return &c
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
