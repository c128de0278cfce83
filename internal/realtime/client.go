package realtime

import (
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Time between keepalive pings. Must be less than pongWait.
	pingPeriod = 30 * time.Second

	// Maximum inbound message size
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 64
)

// Client is one realtime connection. A websocket client may be a member of
// several rooms; all of them feed the same outbound queue.
type Client struct {
	id          string
	send        chan Message
	closed      chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time
}

// NewClient creates a client with a fresh connection id
func NewClient() *Client {
	id, err := gonanoid.New()
	if err != nil {
		id = time.Now().Format("20060102150405.000000000")
	}
	return &Client{
		id:          id,
		send:        make(chan Message, sendBufferSize),
		closed:      make(chan struct{}),
		connectedAt: time.Now(),
	}
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

// Messages returns the outbound queue drained by the transport
func (c *Client) Messages() <-chan Message {
	return c.send
}

// Done is closed once the client has been shut down
func (c *Client) Done() <-chan struct{} {
	return c.closed
}

// Close marks the client as finished. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// offer queues msg without blocking. It reports false if the queue is full
// or the client is closed.
func (c *Client) offer(msg Message) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}
