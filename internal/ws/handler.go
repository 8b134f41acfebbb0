package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/secret-tech/aag-backend-go/internal/call"
	"github.com/secret-tech/aag-backend-go/internal/domain"
	"github.com/secret-tech/aag-backend-go/internal/security"
	"github.com/secret-tech/aag-backend-go/internal/service"
)

const maxFrameSize = 64 * 1024

// Liveness deadlines for the gateway loop. A peer that stops answering
// pings is unbound after pongWait, so a half-open connection cannot shadow
// the notification fallback. Vars, not consts: tests shorten them.
var (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Router authenticates incoming real-time connections, binds them into the
// presence hub and dispatches inbound events to the chat service and the
// call tracker. Each event is handled in isolation: a failure is reported
// to the triggering connection only and never ends the read loop.
type Router struct {
	hub     *Hub
	tracker *call.Tracker
	chats   *service.ChatService
	users   *service.UserService
	tokens  *security.TokenService
	notify  domain.Notifier
	log     *zap.SugaredLogger

	allowedOrigins []string
}

func NewRouter(
	hub *Hub,
	tracker *call.Tracker,
	chats *service.ChatService,
	users *service.UserService,
	tokens *security.TokenService,
	notify domain.Notifier,
	log *zap.SugaredLogger,
	allowedOrigins []string,
) *Router {
	return &Router{
		hub:            hub,
		tracker:        tracker,
		chats:          chats,
		users:          users,
		tokens:         tokens,
		notify:         notify,
		log:            log,
		allowedOrigins: allowedOrigins,
	}
}

// Handler returns the HTTP handler for the /ws endpoint. The token comes
// from the ?token query parameter or an Authorization: Bearer header;
// verification failures reject the connection before the upgrade.
func (rt *Router) Handler() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			// native app clients send no Origin header
			origin := r.Header.Get("Origin")
			return origin == "" || lo.Contains(rt.allowedOrigins, strings.ToLower(origin))
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = bearerToken(r.Header.Get("Authorization"))
		}
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		result, err := rt.tokens.Verify(token)
		if err != nil {
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}
		user, err := rt.users.GetByLogin(r.Context(), result.Login)
		if err != nil {
			http.Error(w, "user not found", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := NewClient(conn, user.ID)
		rt.hub.Bind(user.ID, client)
		rt.log.Infow("user connected", "user", user.ID)
		defer func() {
			rt.hub.Unbind(user.ID, client)
			client.Close()
			rt.log.Infow("user disconnected", "user", user.ID)
		}()

		ctx := r.Context()

		// the handshake always opens with the conversation list
		if err := rt.pushConversations(ctx, client); err != nil {
			rt.log.Warnw("initial conversations push", "user", user.ID, "err", err)
		}

		conn.SetReadLimit(maxFrameSize)
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		stop := make(chan struct{})
		defer close(stop)
		go pingLoop(conn, stop)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ev, err := DecodeEvent(data)
			if err != nil {
				rt.sendError(client, "", err)
				continue
			}
			if err := rt.dispatch(ctx, user, client, ev); err != nil {
				rt.log.Warnw("event failed", "type", ev.Type, "user", user.ID, "err", err)
				rt.sendError(client, ev.Type, err)
			}
		}
	}
}

// pingLoop keeps the connection's read deadline honest. WriteControl is
// safe to call concurrently with the hub's WriteJSON pushes.
func pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

func bearerToken(header string) string {
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	return ""
}

func (rt *Router) dispatch(ctx context.Context, user *domain.User, client *Client, ev *Event) error {
	switch ev.Type {
	case EventSendMessage:
		return rt.handleSendMessage(ctx, user, client, ev.SendMessage)
	case EventListMessages:
		return rt.handleListMessages(ctx, client, ev.ListMessages)
	case EventListConversations:
		return rt.pushConversations(ctx, client)
	case EventFindOrCreateConversation:
		return rt.handleFindOrCreate(ctx, client, ev.FindConversation)
	case EventCall:
		return rt.handleCall(ctx, user, client, ev.Call)
	case EventAcceptCall, EventDeclineCall, EventHangup:
		return rt.handleCallEnd(ctx, user, client, ev.Type, ev.Call)
	case EventImReady:
		return rt.handleImReady(ctx, user, ev.Call)
	case EventOffer, EventAnswer, EventIce:
		return rt.handleSignal(user, ev)
	default:
		// DecodeEvent rejects unknown types before dispatch
		return nil
	}
}

func (rt *Router) handleSendMessage(ctx context.Context, user *domain.User, client *Client, p *SendMessagePayload) error {
	msg, err := rt.chats.SendMessage(ctx, user, p.ConversationID, p.Text)
	if err != nil {
		return err
	}

	if receiver, ok := rt.hub.Lookup(msg.Receiver.ID); ok {
		if err := receiver.WriteJSON(OutEvent{Type: EventReceiveMessage, Payload: msg}); err != nil {
			rt.log.Warnw("push message", "receiver", msg.Receiver.ID, "err", err)
		}
		if err := rt.pushConversations(ctx, receiver); err != nil {
			rt.log.Warnw("push conversations", "receiver", msg.Receiver.ID, "err", err)
		}
	} else {
		receiver, err := rt.users.GetByID(ctx, msg.Receiver.ID)
		if err != nil {
			return err
		}
		rt.notify.NotifyMessage(ctx, receiver, msg)
	}

	return rt.pushConversations(ctx, client)
}

func (rt *Router) handleListMessages(ctx context.Context, client *Client, p *ListMessagesPayload) error {
	if _, err := domain.Counterpart(client.UserID(), p.ConversationID); err != nil {
		return err
	}
	msgs, err := rt.chats.FetchMessages(ctx, p.ConversationID, p.Before)
	if err != nil {
		return err
	}
	return client.WriteJSON(OutEvent{Type: EventMessages, Payload: map[string]any{
		"conversationId": p.ConversationID,
		"messages":       msgs,
	}})
}

func (rt *Router) handleFindOrCreate(ctx context.Context, client *Client, p *FindConversationPayload) error {
	preview, created, err := rt.chats.FindOrCreateConversation(ctx, client.UserID(), p.OtherUserID)
	if err != nil {
		return err
	}
	if err := client.WriteJSON(OutEvent{Type: EventConversation, Payload: preview}); err != nil {
		return err
	}
	if !created {
		return nil
	}
	if other, ok := rt.hub.Lookup(p.OtherUserID); ok {
		if err := rt.pushConversations(ctx, other); err != nil {
			rt.log.Warnw("push conversations", "user", p.OtherUserID, "err", err)
		}
	}
	return rt.pushConversations(ctx, client)
}

func (rt *Router) handleCall(ctx context.Context, user *domain.User, client *Client, p *CallPayload) error {
	calleeID, err := domain.Counterpart(user.ID, p.ConversationID)
	if err != nil {
		return err
	}

	rt.tracker.Start(p.ConversationID, user.ID, calleeID)

	if callee, ok := rt.hub.Lookup(calleeID); ok {
		return callee.WriteJSON(OutEvent{Type: EventIncomingCall, Payload: map[string]any{
			"conversationId": p.ConversationID,
			"user":           user.Summary(),
		}})
	}

	// callee offline: narrate the missed call and fall back to push
	callee, err := rt.users.GetByID(ctx, calleeID)
	if err != nil {
		return err
	}
	if _, err := rt.chats.SendSystemMessage(ctx, p.ConversationID, "Incoming call from "+user.FirstName); err != nil {
		return err
	}
	rt.notify.NotifyCall(ctx, callee, user, p.ConversationID)
	return rt.pushConversations(ctx, client)
}

func (rt *Router) handleCallEnd(ctx context.Context, user *domain.User, client *Client, eventType string, p *CallPayload) error {
	counterpartID, err := domain.Counterpart(user.ID, p.ConversationID)
	if err != nil {
		return err
	}

	rt.tracker.End(p.ConversationID)

	var text string
	switch eventType {
	case EventAcceptCall:
		text = "Call started"
	case EventDeclineCall:
		text = "Call declined by " + user.FirstName
	case EventHangup:
		text = "Call ended"
	}
	if _, err := rt.chats.SendSystemMessage(ctx, p.ConversationID, text); err != nil {
		return err
	}

	if counterpart, ok := rt.hub.Lookup(counterpartID); ok {
		if err := counterpart.WriteJSON(OutEvent{Type: eventType, Payload: map[string]any{
			"conversationId": p.ConversationID,
			"user":           user.Summary(),
		}}); err != nil {
			rt.log.Warnw("push call event", "type", eventType, "user", counterpartID, "err", err)
		}
		if err := rt.pushConversations(ctx, counterpart); err != nil {
			rt.log.Warnw("push conversations", "user", counterpartID, "err", err)
		}
	}
	return rt.pushConversations(ctx, client)
}

func (rt *Router) handleImReady(ctx context.Context, user *domain.User, p *CallPayload) error {
	ready, callerID, err := rt.tracker.SetReady(p.ConversationID, user.ID)
	if err != nil {
		return err
	}
	if !ready {
		return nil
	}
	// only the caller initiates the media offer; the callee waits for it
	if caller, ok := rt.hub.Lookup(callerID); ok {
		return caller.WriteJSON(OutEvent{Type: EventCallerShouldInit, Payload: map[string]any{
			"conversationId": p.ConversationID,
		}})
	}
	return nil
}

// handleSignal relays offer/answer/ice payloads verbatim. These are
// best-effort once a call is set up: an absent counterpart drops the event.
func (rt *Router) handleSignal(user *domain.User, ev *Event) error {
	counterpartID, err := domain.Counterpart(user.ID, ev.Signal.ConversationID)
	if err != nil {
		return err
	}
	counterpart, ok := rt.hub.Lookup(counterpartID)
	if !ok {
		return nil
	}
	return counterpart.WriteJSON(Envelope{Type: ev.Type, Payload: ev.Raw})
}

// pushConversations reloads the user record and sends the preview list.
// The reload matters: the membership list may have changed since connect.
func (rt *Router) pushConversations(ctx context.Context, client *Client) error {
	previews, err := rt.chats.ListConversations(ctx, client.UserID())
	if err != nil {
		return err
	}
	return client.WriteJSON(OutEvent{Type: EventConversations, Payload: previews})
}

func (rt *Router) sendError(client *Client, eventType string, err error) {
	payload := map[string]string{"message": err.Error()}
	if eventType != "" {
		payload["event"] = eventType
	}
	if werr := client.WriteJSON(OutEvent{Type: EventError, Payload: payload}); werr != nil {
		rt.log.Warnw("send error event", "user", client.UserID(), "err", werr)
	}
}
