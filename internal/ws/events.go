package ws

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/secret-tech/aag-backend-go/internal/domain"
)

// Inbound event types.
const (
	EventSendMessage              = "send-message"
	EventListMessages             = "list-messages"
	EventListConversations        = "list-conversations"
	EventFindOrCreateConversation = "find-or-create-conversation"
	EventCall                     = "call"
	EventAcceptCall               = "accept-call"
	EventDeclineCall              = "decline-call"
	EventHangup                   = "hangup"
	EventImReady                  = "im-ready"
	EventOffer                    = "offer"
	EventAnswer                   = "answer"
	EventIce                      = "ice"
)

// Outbound event types.
const (
	EventReceiveMessage   = "receive-message"
	EventMessages         = "messages"
	EventConversations    = "conversations"
	EventConversation     = "conversation"
	EventIncomingCall     = "incoming-call"
	EventCallerShouldInit = "caller-should-init"
	EventError            = "error"
)

// Envelope is the wire form of every event in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OutEvent is a typed outbound envelope.
type OutEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type SendMessagePayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Text           string `json:"text" validate:"required"`
}

type ListMessagesPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Before         *int64 `json:"before,omitempty"`
}

type FindConversationPayload struct {
	OtherUserID string `json:"otherUserId" validate:"required"`
}

// CallPayload is shared by every call-control event that addresses a
// conversation: call, accept-call, decline-call, hangup and im-ready.
type CallPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

// SignalPayload addresses an opaque offer/answer/ice payload; everything
// besides the conversation id is relayed verbatim.
type SignalPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

// Event is the decoded inbound event. Exactly one payload field matching
// Type is populated; Raw keeps the undecoded payload for verbatim relay of
// signaling events.
type Event struct {
	Type string
	Raw  json.RawMessage

	SendMessage      *SendMessagePayload
	ListMessages     *ListMessagesPayload
	FindConversation *FindConversationPayload
	Call             *CallPayload
	Signal           *SignalPayload
}

var validate = validator.New()

// DecodeEvent parses an inbound frame into its tagged variant. Unknown
// types and payloads missing required fields fail with ErrInvalidInput.
func DecodeEvent(data []byte) (*Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed event: %v", domain.ErrInvalidInput, err)
	}

	ev := &Event{Type: env.Type, Raw: env.Payload}
	switch env.Type {
	case EventSendMessage:
		ev.SendMessage = &SendMessagePayload{}
		return ev, decodePayload(env.Payload, ev.SendMessage)
	case EventListMessages:
		ev.ListMessages = &ListMessagesPayload{}
		return ev, decodePayload(env.Payload, ev.ListMessages)
	case EventListConversations:
		return ev, nil
	case EventFindOrCreateConversation:
		ev.FindConversation = &FindConversationPayload{}
		return ev, decodePayload(env.Payload, ev.FindConversation)
	case EventCall, EventAcceptCall, EventDeclineCall, EventHangup, EventImReady:
		ev.Call = &CallPayload{}
		return ev, decodePayload(env.Payload, ev.Call)
	case EventOffer, EventAnswer, EventIce:
		ev.Signal = &SignalPayload{}
		return ev, decodePayload(env.Payload, ev.Signal)
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidInput, env.Type)
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("%w: malformed payload: %v", domain.ErrInvalidInput, err)
		}
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
