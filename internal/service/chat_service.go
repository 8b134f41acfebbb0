package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/secret-tech/aag-backend-go/internal/domain"
)

const conversationCreatedText = "Conversation created"

// ChatService creates and reads messages and establishes conversations.
// Routing to connections is the signaling router's job, not this service's:
// the only side effect here is persistence.
type ChatService struct {
	users    domain.UserRepository
	messages domain.MessageRepository
	log      *zap.SugaredLogger

	pageSize int
}

func NewChatService(users domain.UserRepository, messages domain.MessageRepository, log *zap.SugaredLogger, pageSize int) *ChatService {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &ChatService{
		users:    users,
		messages: messages,
		log:      log,
		pageSize: pageSize,
	}
}

// SendMessage validates the receiver and the conversation, then persists a
// new message with a fresh timestamp.
func (s *ChatService) SendMessage(ctx context.Context, sender *domain.User, conversationID, text string) (*domain.Message, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: message text must not be empty", domain.ErrInvalidInput)
	}

	receiverID, err := domain.Counterpart(sender.ID, conversationID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.users.GetByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("get receiver: %w", err)
	}
	if receiver == nil {
		return nil, fmt.Errorf("%w: receiver %s", domain.ErrUserNotFound, receiverID)
	}

	exists, err := s.conversationExists(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrConversationNotFound, conversationID)
	}

	msg := domain.NewMessage(sender.Summary(), receiver.Summary(), conversationID, text)
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}
	return msg, nil
}

// SendSystemMessage persists a message with no human sender, used to
// narrate conversation and call lifecycle events.
func (s *ChatService) SendSystemMessage(ctx context.Context, conversationID, text string) (*domain.Message, error) {
	msg := domain.NewSystemMessage(conversationID, text)
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store system message: %w", err)
	}
	return msg, nil
}

// FetchMessages returns one page of history, newest first. A non-nil before
// cursor restricts the page to messages strictly older than it.
func (s *ChatService) FetchMessages(ctx context.Context, conversationID string, before *int64) ([]*domain.Message, error) {
	msgs, err := s.messages.ListForConversation(ctx, conversationID, before, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	return msgs, nil
}

// ListConversations resolves a preview for every conversation the user
// holds. One counterpart lookup and one message lookup per conversation;
// lists are expected to be short, so the read amplification is accepted.
// Entries whose counterpart record has gone are skipped rather than failing
// the whole list.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]*domain.ConversationPreview, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}

	previews := make([]*domain.ConversationPreview, 0, len(user.Conversations))
	for _, conversationID := range user.Conversations {
		preview, err := s.previewConversation(ctx, user, conversationID)
		if err != nil {
			s.log.Warnw("skipping conversation preview", "conversation", conversationID, "user", userID, "err", err)
			continue
		}
		previews = append(previews, preview)
	}
	return previews, nil
}

// FindOrCreateConversation computes the canonical identifier for the pair
// and establishes the conversation if it does not exist yet. The returned
// flag reports whether it was newly created. Membership writes go through
// the repository's atomic insert-if-absent, so concurrent calls for the
// same pair cannot duplicate list entries.
func (s *ChatService) FindOrCreateConversation(ctx context.Context, userID, otherID string) (*domain.ConversationPreview, bool, error) {
	if userID == "" || otherID == "" {
		return nil, false, fmt.Errorf("%w: both user ids are required", domain.ErrInvalidInput)
	}
	if userID == otherID {
		return nil, false, fmt.Errorf("%w: cannot converse with yourself", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, false, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	friend, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		return nil, false, fmt.Errorf("get friend: %w", err)
	}
	if friend == nil {
		return nil, false, fmt.Errorf("%w: %s", domain.ErrUserNotFound, otherID)
	}

	conversationID := domain.ConversationID(userID, otherID)

	exists, err := s.conversationExists(ctx, conversationID)
	if err != nil {
		return nil, false, err
	}
	if exists {
		preview, err := s.previewConversation(ctx, user, conversationID)
		return preview, false, err
	}

	if err := s.users.AddConversation(ctx, user.ID, conversationID); err != nil {
		return nil, false, err
	}
	if err := s.users.AddConversation(ctx, friend.ID, conversationID); err != nil {
		return nil, false, err
	}
	created, err := s.SendSystemMessage(ctx, conversationID, conversationCreatedText)
	if err != nil {
		return nil, false, err
	}

	return &domain.ConversationPreview{
		ID:       conversationID,
		User:     user.Summary(),
		Friend:   friend.Summary(),
		Messages: []*domain.Message{created},
	}, true, nil
}

// conversationExists checks the derived existence rule: exactly two user
// records hold the identifier in their conversations list.
func (s *ChatService) conversationExists(ctx context.Context, conversationID string) (bool, error) {
	n, err := s.users.CountByConversation(ctx, conversationID)
	if err != nil {
		return false, fmt.Errorf("count members: %w", err)
	}
	return n == 2, nil
}

func (s *ChatService) previewConversation(ctx context.Context, user *domain.User, conversationID string) (*domain.ConversationPreview, error) {
	friendID, err := domain.Counterpart(user.ID, conversationID)
	if err != nil {
		return nil, err
	}
	friend, err := s.users.GetByID(ctx, friendID)
	if err != nil {
		return nil, fmt.Errorf("get friend: %w", err)
	}
	if friend == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, friendID)
	}

	latest, err := s.messages.LatestForConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("latest message: %w", err)
	}
	if latest == nil {
		latest, err = s.SendSystemMessage(ctx, conversationID, conversationCreatedText)
		if err != nil {
			return nil, err
		}
	}

	return &domain.ConversationPreview{
		ID:       conversationID,
		User:     user.Summary(),
		Friend:   friend.Summary(),
		Messages: []*domain.Message{latest},
	}, nil
}
