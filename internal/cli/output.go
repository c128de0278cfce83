package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/signedchess/internal/model"
	"github.com/mcoot/signedchess/internal/rules"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case *model.Session:
		o.printSession(v)
	case CreateResult:
		_, _ = fmt.Fprintf(o.w, "Session created: %s\n", v.SessionID)
		o.printSession(v.Session)
	case KeyInfo:
		o.printKeyInfo(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// CreateResult is returned by session creation
type CreateResult struct {
	OK        bool           `json:"ok"`
	SessionID string         `json:"sessionId"`
	Session   *model.Session `json:"session"`
}

// SessionResult wraps a session returned by the API
type SessionResult struct {
	OK      bool           `json:"ok"`
	Session *model.Session `json:"session"`
}

// KeyInfo describes a stored key pair without its private half
type KeyInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	PublicKey string `json:"publicKey"`
}

// HealthResult response type
type HealthResult struct {
	OK bool `json:"ok"`
}

func (o *Output) printSession(s *model.Session) {
	if s == nil {
		return
	}
	_, _ = fmt.Fprintf(o.w, "Session: %s\n", s.ID)
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", s.Status)
	_, _ = fmt.Fprintf(o.w, "White: %s\n", abbreviate(s.Players.White))
	if s.Players.Black != "" {
		_, _ = fmt.Fprintf(o.w, "Black: %s\n", abbreviate(s.Players.Black))
	} else {
		_, _ = fmt.Fprintln(o.w, "Black: (waiting)")
	}
	if s.Status == model.StatusActive {
		_, _ = fmt.Fprintf(o.w, "To move: %s\n", s.Turn())
	}
	if len(s.MoveLog) > 0 {
		_, _ = fmt.Fprintf(o.w, "Moves: %s\n", numberMoves(s.MoveLog))
	}
	if len(s.RedoLog) > 0 {
		_, _ = fmt.Fprintf(o.w, "Redo: %s\n", strings.Join(s.RedoLog, " "))
	}

	pos, err := rules.New().Evaluate(s.MoveLog)
	if err != nil {
		return
	}
	if pos.Terminal {
		_, _ = fmt.Fprintf(o.w, "Result: %s\n", pos.Reason)
	}
	_, _ = fmt.Fprintf(o.w, "\n%s", pos.Board)
}

func (o *Output) printKeyInfo(k KeyInfo) {
	_, _ = fmt.Fprintf(o.w, "Key: %s (%s)\n", k.Name, k.Path)
	_, _ = fmt.Fprintf(o.w, "Public key: %s\n", k.PublicKey)
}

func (o *Output) printHealthResult(h HealthResult) {
	status := "unhealthy"
	if h.OK {
		status = "ok"
	}
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", status)
}

// numberMoves renders a move list as "1. e4 e5 2. Nf3"
func numberMoves(moves []string) string {
	var b strings.Builder
	for i, m := range moves {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i%2 == 0 {
			fmt.Fprintf(&b, "%d. ", i/2+1)
		}
		b.WriteString(m)
	}
	return b.String()
}

func abbreviate(key string) string {
	if len(key) <= 20 {
		return key
	}
	return key[:10] + "..." + key[len(key)-8:]
}
