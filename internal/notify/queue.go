// Package notify hands messages and missed calls off to the push
// notification worker through redis-backed queues. The hand-off is
// fire-and-forget: this core never waits for delivery confirmation.
package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/secret-tech/aag-backend-go/internal/domain"
)

// Queue names consumed by the notification worker.
const (
	MessageQueue = "message-notifications"
	CallQueue    = "call-notifications"
)

const conversationURLScheme = "askagirl://app/chat/conversation/"

type Queue struct {
	rdb *redis.Client
	log *zap.SugaredLogger
}

func NewQueue(rdb *redis.Client, log *zap.SugaredLogger) *Queue {
	return &Queue{rdb: rdb, log: log}
}

var _ domain.Notifier = (*Queue)(nil)

// job is the OneSignal-shaped payload the worker expects.
type job struct {
	ID               string            `json:"id"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	Data             map[string]any    `json:"data"`
	URL              string            `json:"url"`
	IncludePlayerIDs []string          `json:"include_player_ids"`
}

// NotifyMessage enqueues a push notification for an offline receiver.
// Users without a push address are skipped.
func (q *Queue) NotifyMessage(ctx context.Context, receiver *domain.User, m *domain.Message) {
	if receiver.Services.OneSignal == "" || m.Sender == nil {
		return
	}
	q.push(ctx, MessageQueue, job{
		ID:       uuid.NewString(),
		Headings: en(m.Sender.Name),
		Contents: en(m.Text),
		Data: map[string]any{
			"review":      false,
			"userId":      m.Sender.ID,
			"userPicture": m.Sender.Avatar,
			"userName":    m.Sender.Name,
		},
		URL:              conversationURLScheme + m.Conversation,
		IncludePlayerIDs: []string{receiver.Services.OneSignal},
	})
}

// NotifyCall enqueues a missed-call notification for an offline callee.
func (q *Queue) NotifyCall(ctx context.Context, receiver, caller *domain.User, conversationID string) {
	if receiver.Services.OneSignal == "" {
		return
	}
	q.push(ctx, CallQueue, job{
		ID:       uuid.NewString(),
		Headings: en(caller.FirstName + " tried to call you"),
		Contents: en("You've missed a call from " + caller.FirstName),
		Data: map[string]any{
			"review":      false,
			"userId":      caller.ID,
			"userPicture": caller.Picture,
			"userName":    caller.FirstName,
		},
		URL:              conversationURLScheme + conversationID,
		IncludePlayerIDs: []string{receiver.Services.OneSignal},
	})
}

func (q *Queue) push(ctx context.Context, queue string, j job) {
	b, err := json.Marshal(j)
	if err != nil {
		q.log.Errorw("marshal notification", "queue", queue, "err", err)
		return
	}
	if err := q.rdb.LPush(ctx, queue, b).Err(); err != nil {
		q.log.Errorw("enqueue notification", "queue", queue, "err", err)
	}
}

func en(text string) map[string]string {
	return map[string]string{"en": text}
}
