package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/signedchess/internal/model"
)

// WebSocketHandler serves the bidirectional realtime channel
type WebSocketHandler struct {
	broadcaster *Broadcaster
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(broadcaster *Broadcaster, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Observers may be served from any origin
			},
		},
		logger: logger.With(slog.String("component", "websocket")),
	}
}

// ServeHTTP upgrades the connection and runs it until either side closes
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := NewClient()
	h.logger.Info("client connected",
		slog.String("client_id", client.id),
		slog.String("remote_addr", r.RemoteAddr))

	go h.writePump(conn, client)
	h.readPump(r, conn, client)
}

// readPump handles inbound events. It owns the subscription set.
func (h *WebSocketHandler) readPump(r *http.Request, conn *websocket.Conn, client *Client) {
	subscriptions := make(map[model.SessionID]struct{})
	defer func() {
		for id := range subscriptions {
			h.broadcaster.Unsubscribe(client, id)
		}
		client.Close()
		_ = conn.Close()
		h.logger.Info("client disconnected",
			slog.String("client_id", client.id),
			slog.Duration("connection_duration", time.Since(client.connectedAt)))
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.Warn("websocket read error", slog.String("client_id", client.id), slog.Any("error", err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			client.offer(errorMessage("Malformed message"))
			continue
		}

		switch msg.Event {
		case EventSubscribe:
			id, ok := parseSessionID(msg.Data)
			if !ok {
				client.offer(errorMessage("Session id is required"))
				continue
			}
			if _, already := subscriptions[id]; already {
				// Resend the snapshot, as a reconnecting client expects
				h.broadcaster.Unsubscribe(client, id)
				delete(subscriptions, id)
			}
			if err := h.broadcaster.Subscribe(r.Context(), client, id); err == nil {
				subscriptions[id] = struct{}{}
			}

		case EventUnsubscribe:
			if id, ok := parseSessionID(msg.Data); ok {
				h.broadcaster.Unsubscribe(client, id)
				delete(subscriptions, id)
			}

		default:
			client.offer(errorMessage("Unknown event " + msg.Event))
		}
	}
}

// writePump drains the client's queue and keeps the connection alive
func (h *WebSocketHandler) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				client.Close()
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.Close()
				return
			}

		case <-client.closed:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// parseSessionID accepts either a bare JSON string or {"sessionId": "..."}
func parseSessionID(data json.RawMessage) (model.SessionID, bool) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return model.SessionID(id), id != ""
	}
	var wrapped struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		return model.SessionID(wrapped.SessionID), wrapped.SessionID != ""
	}
	return "", false
}
