package domain

import "time"

// User is owned by the user-management service. This core only reads user
// records, with one exception: the conversations list, which it appends to
// when a conversation is established.
type User struct {
	ID            string       `bson:"_id" json:"id"`
	Email         string       `bson:"email" json:"email"`
	FirstName     string       `bson:"firstName" json:"firstName"`
	LastName      string       `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Picture       string       `bson:"picture,omitempty" json:"picture,omitempty"`
	Services      UserServices `bson:"services" json:"-"`
	Conversations []string     `bson:"conversations" json:"conversations"`
	CreatedAt     time.Time    `bson:"createdAt" json:"createdAt"`
}

// UserServices carries the identifiers a user holds with external services.
type UserServices struct {
	Facebook  string `bson:"facebook,omitempty" json:"facebook,omitempty"`
	OneSignal string `bson:"oneSignal,omitempty" json:"oneSignal,omitempty"`
}

// Summary projects a user into the form embedded in messages and previews.
func (u *User) Summary() *MessageUser {
	return &MessageUser{
		ID:     u.ID,
		Name:   u.FirstName,
		Avatar: u.Picture,
	}
}

// MessageUser is the participant summary stored inside a message.
type MessageUser struct {
	ID     string `bson:"_id" json:"_id"`
	Name   string `bson:"name" json:"name"`
	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// Message belongs to exactly one conversation. A nil Sender marks a system
// message narrating a lifecycle event; messages are immutable once stored.
type Message struct {
	ID           string       `bson:"_id,omitempty" json:"id"`
	Conversation string       `bson:"conversation" json:"conversation"`
	Timestamp    int64        `bson:"timestamp" json:"timestamp"`
	Text         string       `bson:"message" json:"message"`
	Sender       *MessageUser `bson:"user,omitempty" json:"user,omitempty"`
	Receiver     *MessageUser `bson:"receiver,omitempty" json:"receiver,omitempty"`
	System       bool         `bson:"system" json:"system"`
	CreatedAt    time.Time    `bson:"createdAt" json:"createdAt"`
}

// NewMessage builds a user-to-user message with a fresh ordering key.
func NewMessage(sender, receiver *MessageUser, conversationID, text string) *Message {
	now := time.Now().UTC()
	return &Message{
		Conversation: conversationID,
		Timestamp:    now.UnixMilli(),
		Text:         text,
		Sender:       sender,
		Receiver:     receiver,
		CreatedAt:    now,
	}
}

// NewSystemMessage builds a message with no human sender.
func NewSystemMessage(conversationID, text string) *Message {
	now := time.Now().UTC()
	return &Message{
		Conversation: conversationID,
		Timestamp:    now.UnixMilli(),
		Text:         text,
		System:       true,
		CreatedAt:    now,
	}
}

// ConversationPreview is a read-only projection of a conversation: the two
// participant summaries plus the single most recent message. It is produced
// on demand and never persisted.
type ConversationPreview struct {
	ID       string       `json:"id"`
	User     *MessageUser `json:"user"`
	Friend   *MessageUser `json:"friend"`
	Messages []*Message   `json:"messages"`
}
