package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/signedchess/internal/model"
	"github.com/mcoot/signedchess/internal/realtime"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool
	var count int

	cmd := &cobra.Command{
		Use:   "watch <session-id>",
		Short: "Stream realtime events from a session",
		Long: `Subscribe to a session over the server's websocket and print events as they arrive.

Events:
  - session:update: current state (sent on subscribe and after every change)
  - session:start:  the second player joined
  - session:end:    the game reached a terminal position
  - error:          the subscription failed

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchSession(ctx, cmd.OutOrStdout(), model.SessionID(args[0]), jsonOutput, count)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many events (0 streams until interrupted)")

	return cmd
}

// WatchEvent is a received realtime event
type WatchEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// websocketURL derives the realtime endpoint from the API base URL
func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server url scheme %q", u.Scheme)
	}
	u.Path += "/ws"
	return u.String(), nil
}

func watchSession(ctx context.Context, w io.Writer, id model.SessionID, jsonOutput bool, count int) error {
	wsURL, err := websocketURL(cfg.ServerURL)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unblock the read loop on interrupt
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(realtime.Message{Event: realtime.EventSubscribe, Data: data}); err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintf(w, "Watching session %s\n", id)
	}

	for received := 0; count == 0 || received < count; received++ {
		var msg realtime.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					_, _ = fmt.Fprintln(w, "Disconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		printWatchEvent(w, WatchEvent{Time: time.Now(), Event: msg.Event, Data: msg.Data}, jsonOutput)

		if msg.Event == string(model.EventError) {
			var payload model.ErrorPayload
			_ = json.Unmarshal(msg.Data, &payload)
			return errors.New(payload.Message)
		}
	}
	return nil
}

func printWatchEvent(w io.Writer, evt WatchEvent, jsonOutput bool) {
	if jsonOutput {
		jsonData, _ := json.Marshal(evt)
		_, _ = fmt.Fprintln(w, string(jsonData))
		return
	}

	timestamp := evt.Time.Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, evt.Event, summarize(evt))
}

// summarize renders an event payload on one line
func summarize(evt WatchEvent) string {
	switch model.EventKind(evt.Event) {
	case model.EventUpdate, model.EventStart:
		var s model.Session
		if err := json.Unmarshal(evt.Data, &s); err != nil {
			break
		}
		summary := fmt.Sprintf("status=%s moves=%d", s.Status, len(s.MoveLog))
		if len(s.MoveLog) > 0 {
			summary += " last=" + s.MoveLog[len(s.MoveLog)-1]
		}
		return summary
	case model.EventEnd:
		var end model.EndPayload
		if err := json.Unmarshal(evt.Data, &end); err != nil {
			break
		}
		return fmt.Sprintf("%s (status=%s)", end.Reason, end.Status)
	case model.EventError:
		var payload model.ErrorPayload
		if err := json.Unmarshal(evt.Data, &payload); err != nil {
			break
		}
		return payload.Message
	}
	return string(evt.Data)
}
