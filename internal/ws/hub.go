package ws

import "sync"

// Hub is the presence registry: a process-wide mapping from user id to the
// user's single live connection. It is rebuilt from scratch on restart and
// all mutation is mutex-serialized because connect and disconnect events
// for the same user can race on different goroutines.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Client
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*Client)}
}

// Bind registers the connection for a user. Any previous connection is
// closed: the last connection wins, which is the reconnection policy.
func (h *Hub) Bind(userID string, c *Client) {
	h.mu.Lock()
	prev := h.conns[userID]
	h.conns[userID] = c
	h.mu.Unlock()

	if prev != nil && prev != c {
		prev.Close()
	}
}

// Unbind removes the binding, but only while it still points at the given
// connection: a reconnect's bind must not be clobbered by the stale
// connection's deferred cleanup. A nil connection removes unconditionally.
func (h *Hub) Unbind(userID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.conns[userID]; ok && (c == nil || cur == c) {
		delete(h.conns, userID)
	}
}

// Lookup returns the user's current connection, if any.
func (h *Hub) Lookup(userID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[userID]
	return c, ok
}
