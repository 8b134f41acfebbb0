// Package call tracks the setup handshake of a peer-to-peer call between
// exactly two users. Sessions are ephemeral, keyed by conversation id, and
// never persisted; a process restart forgets all of them.
package call

import (
	"fmt"
	"sync"
	"time"

	"github.com/secret-tech/aag-backend-go/internal/domain"
)

type session struct {
	caller      string
	callee      string
	callerReady bool
	calleeReady bool
	signalled   bool
	expire      *time.Timer
}

// Tracker holds the active call sessions. All mutation is serialized by a
// mutex: two im-ready events for the same session may race on the event
// loop's worker goroutines.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*session
	ringTTL  time.Duration
}

// NewTracker creates a tracker. Sessions expire ringTTL after Start so an
// unanswered call cannot leak; a non-positive TTL disables expiry.
func NewTracker(ringTTL time.Duration) *Tracker {
	return &Tracker{
		sessions: make(map[string]*session),
		ringTTL:  ringTTL,
	}
}

// Start creates a session in the ringing state. A new call for the same
// conversation supersedes any previous session.
func (t *Tracker) Start(conversationID, callerID, calleeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.sessions[conversationID]; ok && prev.expire != nil {
		prev.expire.Stop()
	}

	s := &session{caller: callerID, callee: calleeID}
	if t.ringTTL > 0 {
		s.expire = time.AfterFunc(t.ringTTL, func() { t.drop(conversationID, s) })
	}
	t.sessions[conversationID] = s
}

// drop removes the session if it is still the current one for the
// conversation; a session started after the timer fired must survive.
func (t *Tracker) drop(conversationID string, s *session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.sessions[conversationID]; ok && cur == s {
		delete(t.sessions, conversationID)
	}
}

// SetReady flips the ready flag of one party. The first time both flags are
// set it returns ready=true together with the caller id, exactly once per
// session: the caller is always the one instructed to initiate the media
// offer. Signalling readiness for an unknown session, or from a user who is
// not a party to it, is a caller error.
func (t *Tracker) SetReady(conversationID, userID string) (ready bool, callerID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[conversationID]
	if !ok {
		return false, "", fmt.Errorf("%w: %s", domain.ErrSessionNotFound, conversationID)
	}

	switch userID {
	case s.caller:
		s.callerReady = true
	case s.callee:
		s.calleeReady = true
	default:
		return false, "", fmt.Errorf("%w: user %s is not part of the call", domain.ErrInvalidInput, userID)
	}

	if s.callerReady && s.calleeReady && !s.signalled {
		s.signalled = true
		return true, s.caller, nil
	}
	return false, s.caller, nil
}

// End removes the session on accept, decline or hangup. Ending an already
// gone session is a no-op.
func (t *Tracker) End(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[conversationID]; ok {
		if s.expire != nil {
			s.expire.Stop()
		}
		delete(t.sessions, conversationID)
	}
}

// Active reports whether a session exists for the conversation.
func (t *Tracker) Active(conversationID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.sessions[conversationID]
	return ok
}
