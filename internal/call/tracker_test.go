package call_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/secret-tech/aag-backend-go/internal/call"
	"github.com/secret-tech/aag-backend-go/internal/domain"
)

func TestSetReady(t *testing.T) {
	t.Run("UnknownSession", func(t *testing.T) {
		tr := call.NewTracker(0)
		_, _, err := tr.SetReady("alice:bob", "alice")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("OneSideReadyIsNotEnough", func(t *testing.T) {
		tr := call.NewTracker(0)
		tr.Start("alice:bob", "alice", "bob")

		ready, _, err := tr.SetReady("alice:bob", "alice")
		assert.NoError(t, err)
		assert.False(t, ready)
	})

	t.Run("BothReadySignalsCallerExactlyOnce", func(t *testing.T) {
		tr := call.NewTracker(0)
		tr.Start("alice:bob", "alice", "bob")

		_, _, err := tr.SetReady("alice:bob", "bob")
		assert.NoError(t, err)

		ready, caller, err := tr.SetReady("alice:bob", "alice")
		assert.NoError(t, err)
		assert.True(t, ready)
		assert.Equal(t, "alice", caller)

		// repeated readiness must not trigger a second signal
		ready, _, err = tr.SetReady("alice:bob", "alice")
		assert.NoError(t, err)
		assert.False(t, ready)
	})

	t.Run("NonPartyUser", func(t *testing.T) {
		tr := call.NewTracker(0)
		tr.Start("alice:bob", "alice", "bob")

		_, _, err := tr.SetReady("alice:bob", "carol")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestEnd(t *testing.T) {
	tr := call.NewTracker(0)
	tr.Start("alice:bob", "alice", "bob")
	assert.True(t, tr.Active("alice:bob"))

	tr.End("alice:bob")
	assert.False(t, tr.Active("alice:bob"))

	_, _, err := tr.SetReady("alice:bob", "alice")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// ending twice is harmless
	tr.End("alice:bob")
}

func TestRingExpiry(t *testing.T) {
	tr := call.NewTracker(20 * time.Millisecond)
	tr.Start("alice:bob", "alice", "bob")

	assert.Eventually(t, func() bool {
		return !tr.Active("alice:bob")
	}, time.Second, 10*time.Millisecond)

	_, _, err := tr.SetReady("alice:bob", "alice")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRestartSupersedesSession(t *testing.T) {
	tr := call.NewTracker(0)
	tr.Start("alice:bob", "alice", "bob")
	_, _, err := tr.SetReady("alice:bob", "alice")
	assert.NoError(t, err)

	// a second call for the same conversation resets readiness
	tr.Start("alice:bob", "bob", "alice")

	ready, caller, err := tr.SetReady("alice:bob", "bob")
	assert.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, "bob", caller)
}
