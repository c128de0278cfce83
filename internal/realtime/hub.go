package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/signedchess/internal/model"
)

// delivery addresses a message to a single member of a hub
type delivery struct {
	client *Client
	msg    Message
}

// registration asks the hub loop to add a client; joined is closed once it is a member
type registration struct {
	client *Client
	joined chan struct{}
}

// Hub manages the clients subscribed to a single session
type Hub struct {
	sessionID model.SessionID
	// members maps each client to the revision of the last update it was sent
	members map[*Client]uint64
	mu      sync.RWMutex
	logger  *slog.Logger
	onEmpty func(*Hub)

	// Channels for managing clients
	register   chan registration
	unregister chan *Client
	broadcast  chan Message
	direct     chan delivery
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a session. onEmpty, if set, is called from a
// separate goroutine whenever the last member leaves.
func NewHub(sessionID model.SessionID, logger *slog.Logger, onEmpty func(*Hub)) *Hub {
	return &Hub{
		sessionID:  sessionID,
		members:    make(map[*Client]uint64),
		logger:     logger.With(slog.String("session_id", string(sessionID))),
		onEmpty:    onEmpty,
		register:   make(chan registration),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 256),
		direct:     make(chan delivery, 16),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("hub started")
	for {
		select {
		case reg := <-h.register:
			h.mu.Lock()
			h.members[reg.client] = 0
			count := len(h.members)
			h.mu.Unlock()
			close(reg.joined)
			h.logger.Info("client registered",
				slog.String("client_id", reg.client.id),
				slog.Int("total_clients", count))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.Lock()
			var slow []*Client
			for client := range h.members {
				if !h.deliverLocked(client, msg) {
					slow = append(slow, client)
				}
			}
			h.mu.Unlock()
			h.evict(slow)

		case d := <-h.direct:
			h.mu.Lock()
			_, member := h.members[d.client]
			ok := !member || h.deliverLocked(d.client, d.msg)
			h.mu.Unlock()
			if !ok {
				h.evict([]*Client{d.client})
			}

		case <-h.done:
			h.mu.Lock()
			count := len(h.members)
			for client := range h.members {
				client.Close()
				delete(h.members, client)
			}
			h.mu.Unlock()
			h.logger.Debug("hub stopped", slog.Int("disconnected_clients", count))
			return
		}
	}
}

// deliverLocked sends msg to client unless it is an update older than one
// already delivered. It returns false if the client could not keep up.
// The caller holds h.mu for writing.
func (h *Hub) deliverLocked(client *Client, msg Message) bool {
	if msg.revision > 0 {
		last := h.members[client]
		if msg.revision <= last {
			return true
		}
		h.members[client] = msg.revision
	}
	return client.offer(msg)
}

// evict drops clients whose queues overflowed. They must resubscribe to catch up.
func (h *Hub) evict(clients []*Client) {
	for _, client := range clients {
		h.logger.Warn("client evicted - send buffer full", slog.String("client_id", client.id))
		client.Close()
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.members[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.members, client)
	count := len(h.members)
	h.mu.Unlock()

	h.logger.Info("client unregistered",
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", count))

	if count == 0 && h.onEmpty != nil {
		go h.onEmpty(h)
	}
}

// Register adds a client to the hub and returns once it is a member. It returns
// false if the hub has been closed.
func (h *Hub) Register(client *Client) bool {
	reg := registration{client: client, joined: make(chan struct{})}
	select {
	case h.register <- reg:
	case <-h.done:
		return false
	}
	<-reg.joined
	return true
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a message to all members
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("broadcast dropped - hub buffer full", slog.String("event", msg.Event))
	}
}

// Deliver sends a message to one member, ordered with respect to broadcasts
func (h *Hub) Deliver(client *Client, msg Message) {
	select {
	case h.direct <- delivery{client: client, msg: msg}:
	case <-h.done:
	}
}

// Close shuts down the hub and closes all member clients
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// HubManager manages hubs for all sessions
type HubManager struct {
	hubs   map[model.SessionID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.SessionID]*Hub),
		logger: logger.With(slog.String("component", "realtime")),
	}
}

// Join registers client with the session's hub, creating the hub if needed
func (m *HubManager) Join(sessionID model.SessionID, client *Client) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		hub, ok := m.hubs[sessionID]
		if !ok {
			hub = NewHub(sessionID, m.logger, m.reap)
			m.hubs[sessionID] = hub
			go hub.Run()
		}
		if hub.Register(client) {
			return hub
		}
		// Closed underneath us; replace it
		delete(m.hubs, sessionID)
	}
}

// Leave unregisters client from the session's hub. Empty hubs are reaped.
func (m *HubManager) Leave(sessionID model.SessionID, client *Client) {
	if hub := m.GetHub(sessionID); hub != nil {
		hub.Unregister(client)
	}
}

// GetHub returns the hub for a session, or nil if it doesn't exist
func (m *HubManager) GetHub(sessionID model.SessionID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[sessionID]
}

// HubCount returns the number of live hubs
func (m *HubManager) HubCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}

// reap removes hub if it is still current and still empty. Join holds the
// same lock until its client is a member, so a hub cannot gain one mid-reap.
func (m *HubManager) reap(hub *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hubs[hub.sessionID] != hub || hub.ClientCount() > 0 {
		return
	}
	hub.Close()
	delete(m.hubs, hub.sessionID)
	m.logger.Debug("empty hub removed", slog.String("session_id", string(hub.sessionID)))
}

// Close shuts down every hub and disconnects all clients
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
	m.logger.Info("realtime hubs closed")
}
