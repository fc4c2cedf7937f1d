package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"chat-direct/contract"
	"chat-direct/domain"
	"chat-direct/domain/event"
	"chat-direct/errors"
	"chat-direct/moderation"
	"chat-direct/observability"
)

// SendResult reports what happened to a single outbound message.
// Delivered means the receiver held a live session and the push was
// accepted; PushFailed means a live session existed but refused the
// event. In both failure cases the message is already persisted.
type SendResult struct {
	Message    domain.Message
	Delivered  bool
	PushFailed bool
}

// Pipeline runs a message from validation through persistence to
// realtime delivery. Persistence is the commit point: once Append
// succeeds the message exists regardless of what the push does.
type Pipeline struct {
	store      contract.MessageStore
	index      contract.MessageIndex
	registry   contract.IRegistry
	moderator  moderation.Moderator
	monitoring *observability.MonitoringManager
	log        *slog.Logger
}

func NewPipeline(
	store contract.MessageStore,
	index contract.MessageIndex,
	registry contract.IRegistry,
	moderator moderation.Moderator,
	monitoring *observability.MonitoringManager,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		store:      store,
		index:      index,
		registry:   registry,
		moderator:  moderator,
		monitoring: monitoring,
		log:        log,
	}
}

// Send validates, censors, persists then pushes one message.
// Validation failures return before any state is touched.
func (p *Pipeline) Send(ctx context.Context, senderID, receiverID, content string) (SendResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return SendResult{}, errors.ErrEmptyContent
	}
	if strings.TrimSpace(receiverID) == "" {
		return SendResult{}, errors.ErrEmptyReceiver
	}

	censored, matched := p.moderator.Censor(content)
	if len(matched) > 0 {
		p.log.Info("censored outbound message",
			"sender", senderID, "words", len(matched))
	}

	message := domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    censored,
		Language:   moderation.DetectLanguage(censored),
		CreatedAt:  time.Now().UTC(),
	}

	if err := p.store.Append(message); err != nil {
		return SendResult{}, fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}

	if err := p.index.Index(message); err != nil {
		// Search lags behind but the conversation is intact.
		p.log.Warn("failed to index message", "id", message.ID, "error", err)
	}

	result := SendResult{Message: message}

	session, online := p.registry.Lookup(receiverID)
	if !online {
		p.monitoring.IncrDeliveryMiss()
		return result, nil
	}

	if err := session.Consume(ctx, event.MessageDelivered{Message: message}); err != nil {
		p.monitoring.IncrPushFailure()
		p.log.Warn("failed to push message to live session",
			"id", message.ID, "receiver", receiverID, "error", err)
		result.PushFailed = true
		return result, nil
	}

	p.monitoring.IncrDelivered()
	result.Delivered = true
	return result, nil
}
