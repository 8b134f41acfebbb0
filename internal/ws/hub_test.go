package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeWire records frames written to it in place of a real websocket.
type fakeWire struct {
	mu     sync.Mutex
	frames []any
	closed bool
}

func (f *fakeWire) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, v)
	return nil
}

func (f *fakeWire) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeWire) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestHubBindLastWriterWins(t *testing.T) {
	hub := NewHub()

	w1 := &fakeWire{}
	w2 := &fakeWire{}
	c1 := NewClient(w1, "alice")
	c2 := NewClient(w2, "alice")

	hub.Bind("alice", c1)
	hub.Bind("alice", c2)

	got, ok := hub.Lookup("alice")
	assert.True(t, ok)
	assert.Same(t, c2, got)

	// the superseded connection is closed
	assert.True(t, w1.isClosed())
	assert.False(t, w2.isClosed())
}

func TestHubUnbind(t *testing.T) {
	hub := NewHub()
	c := NewClient(&fakeWire{}, "alice")
	hub.Bind("alice", c)

	hub.Unbind("alice", c)
	_, ok := hub.Lookup("alice")
	assert.False(t, ok)
}

func TestHubUnbindStaleConnectionKeepsReconnect(t *testing.T) {
	hub := NewHub()
	stale := NewClient(&fakeWire{}, "alice")
	fresh := NewClient(&fakeWire{}, "alice")

	hub.Bind("alice", stale)
	hub.Bind("alice", fresh)

	// the stale connection's deferred cleanup fires after the reconnect
	hub.Unbind("alice", stale)

	got, ok := hub.Lookup("alice")
	assert.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestClientWriteAfterClose(t *testing.T) {
	c := NewClient(&fakeWire{}, "alice")
	c.Close()
	assert.ErrorIs(t, c.WriteJSON("x"), ErrClientClosed)
}
