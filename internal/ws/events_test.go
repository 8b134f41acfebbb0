package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secret-tech/aag-backend-go/internal/domain"
)

func TestDecodeEvent(t *testing.T) {
	t.Run("SendMessage", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"send-message","payload":{"conversationId":"a:b","text":"hi"}}`))
		require.NoError(t, err)
		require.NotNil(t, ev.SendMessage)
		assert.Equal(t, "a:b", ev.SendMessage.ConversationID)
		assert.Equal(t, "hi", ev.SendMessage.Text)
	})

	t.Run("ListMessagesWithCursor", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"list-messages","payload":{"conversationId":"a:b","before":1700000000000}}`))
		require.NoError(t, err)
		require.NotNil(t, ev.ListMessages)
		require.NotNil(t, ev.ListMessages.Before)
		assert.Equal(t, int64(1700000000000), *ev.ListMessages.Before)
	})

	t.Run("ListConversationsNeedsNoPayload", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"list-conversations"}`))
		require.NoError(t, err)
		assert.Equal(t, EventListConversations, ev.Type)
	})

	t.Run("CallControlShareOnePayload", func(t *testing.T) {
		for _, typ := range []string{EventCall, EventAcceptCall, EventDeclineCall, EventHangup, EventImReady} {
			ev, err := DecodeEvent([]byte(`{"type":"` + typ + `","payload":{"conversationId":"a:b"}}`))
			require.NoError(t, err, typ)
			require.NotNil(t, ev.Call, typ)
			assert.Equal(t, "a:b", ev.Call.ConversationID)
		}
	})

	t.Run("SignalKeepsRawPayload", func(t *testing.T) {
		raw := `{"conversationId":"a:b","sdp":{"type":"offer","body":"v=0"}}`
		ev, err := DecodeEvent([]byte(`{"type":"offer","payload":` + raw + `}`))
		require.NoError(t, err)
		require.NotNil(t, ev.Signal)
		assert.Equal(t, "a:b", ev.Signal.ConversationID)
		assert.JSONEq(t, raw, string(ev.Raw))
	})

	t.Run("MissingRequiredField", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"type":"send-message","payload":{"conversationId":"a:b"}}`))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = DecodeEvent([]byte(`{"type":"call"}`))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"type":"join-room","payload":{}}`))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`not json`))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
