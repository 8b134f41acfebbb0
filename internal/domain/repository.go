package domain

import "context"

// UserRepository defines the read side of the user store plus the single
// mutation this core performs: recording conversation membership.
// Lookups return (nil, nil) when no record exists.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	// AddConversation appends the conversation id to the user's list.
	// The append must be atomic and idempotent (insert-if-absent), so two
	// concurrent establishment attempts cannot duplicate the entry.
	AddConversation(ctx context.Context, userID, conversationID string) error
	// CountByConversation reports how many users hold the conversation id.
	// A conversation exists only when exactly two do.
	CountByConversation(ctx context.Context, conversationID string) (int64, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	// ListForConversation returns up to limit messages ordered by timestamp
	// descending. When before is non-nil only messages strictly older than
	// it are returned.
	ListForConversation(ctx context.Context, conversationID string, before *int64, limit int) ([]*Message, error)
	// LatestForConversation returns the most recent message, or (nil, nil)
	// when the conversation has none.
	LatestForConversation(ctx context.Context, conversationID string) (*Message, error)
}

// Notifier is the hand-off contract for out-of-band delivery when the
// addressed user has no live connection. Implementations are
// fire-and-forget: delivery is not confirmed and errors are not surfaced.
type Notifier interface {
	NotifyMessage(ctx context.Context, receiver *User, m *Message)
	NotifyCall(ctx context.Context, receiver, caller *User, conversationID string)
}
