package ws

import (
	"errors"
	"sync"
)

// ErrClientClosed is returned by writes to a closed connection.
var ErrClientClosed = errors.New("client connection closed")

// wire is the subset of *websocket.Conn the hub pushes through.
type wire interface {
	WriteJSON(v any) error
	Close() error
}

// Client wraps one live connection. Writes are mutex-serialized: pushes to
// this connection originate from other users' read loops.
type Client struct {
	userID string

	mu     sync.Mutex
	conn   wire
	closed bool
}

func NewClient(conn wire, userID string) *Client {
	return &Client{conn: conn, userID: userID}
}

func (c *Client) UserID() string {
	return c.userID
}

func (c *Client) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	return c.conn.WriteJSON(v)
}

// Close shuts the underlying connection; subsequent writes fail. Safe to
// call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		_ = c.conn.Close()
	}
}
