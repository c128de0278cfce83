package realtime

import (
	"errors"
	"net/http"
	"time"

	"github.com/mcoot/signedchess/internal/model"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush
var ErrStreamingUnsupported = errors.New("streaming unsupported")

// ServeSSE streams a single session's events to a read-only observer.
// Errors are returned only before the stream starts, so the caller can still
// write an ordinary error response.
func ServeSSE(w http.ResponseWriter, r *http.Request, broadcaster *Broadcaster, sessionID model.SessionID) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}

	client := NewClient()
	if err := broadcaster.Subscribe(r.Context(), client, sessionID); err != nil {
		return err
	}
	defer func() {
		broadcaster.Unsubscribe(client, sessionID)
		client.Close()
	}()

	// The stream outlives the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-client.send:
			if _, err := w.Write(formatSSEMessage(msg)); err != nil {
				return nil
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return nil
			}
			flusher.Flush()

		case <-client.closed:
			return nil

		case <-r.Context().Done():
			return nil
		}
	}
}

// formatSSEMessage renders a message as an SSE event. Payloads are compact
// JSON, so they always fit on a single data line.
func formatSSEMessage(msg Message) []byte {
	data := msg.Data
	if len(data) == 0 {
		data = []byte("null")
	}
	out := make([]byte, 0, len(msg.Event)+len(data)+16)
	out = append(out, "event: "...)
	out = append(out, msg.Event...)
	out = append(out, "\ndata: "...)
	out = append(out, data...)
	out = append(out, "\n\n"...)
	return out
}
