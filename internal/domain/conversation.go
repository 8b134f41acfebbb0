package domain

import (
	"fmt"
	"strings"
)

// conversationSeparator joins the two participant ids of a conversation.
const conversationSeparator = ":"

// ConversationID derives the canonical identifier for the conversation
// between two users. The lower id always comes first, so the same pair
// yields the same identifier regardless of who initiates.
func ConversationID(a, b string) string {
	if a <= b {
		return a + conversationSeparator + b
	}
	return b + conversationSeparator + a
}

// Counterpart returns the participant of the conversation that is not
// selfID. It fails with ErrInvalidInput when the identifier does not
// decompose into exactly two non-empty parts, or when selfID is not one of
// them. A user conversing with themselves has no counterpart.
func Counterpart(selfID, conversationID string) (string, error) {
	parts := strings.Split(conversationID, conversationSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("%w: malformed conversation id %q", ErrInvalidInput, conversationID)
	}

	var other string
	switch selfID {
	case parts[0]:
		other = parts[1]
	case parts[1]:
		other = parts[0]
	default:
		return "", fmt.Errorf("%w: user %s is not part of conversation %s", ErrInvalidInput, selfID, conversationID)
	}
	if other == selfID {
		return "", fmt.Errorf("%w: conversation %s has no counterpart for %s", ErrInvalidInput, conversationID, selfID)
	}
	return other, nil
}
