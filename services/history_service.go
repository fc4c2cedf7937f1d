package services

import (
	"context"
	"strings"

	"chat-direct/contract"
	"chat-direct/domain"
	"chat-direct/errors"
)

type IHistoryService interface {
	Conversation(callerID, otherID string) ([]domain.Message, error)
	Search(ctx context.Context, callerID, query string, limit int) ([]domain.Message, error)
}

// HistoryService reads conversations and searches past messages on
// behalf of one authenticated caller. Scoping is structural: both
// lookups are keyed by the caller's identity, so a user can never read
// a conversation they are not part of.
type HistoryService struct {
	store contract.MessageStore
	index contract.MessageIndex
}

func NewHistoryService(store contract.MessageStore, index contract.MessageIndex) IHistoryService {
	return &HistoryService{store: store, index: index}
}

// Conversation returns the full exchange between the caller and one
// other user, oldest first.
func (s *HistoryService) Conversation(callerID, otherID string) ([]domain.Message, error) {
	if strings.TrimSpace(otherID) == "" {
		return nil, errors.ErrEmptyReceiver
	}
	return s.store.Conversation(callerID, otherID)
}

// Search runs a full-text query over every conversation the caller
// participates in.
func (s *HistoryService) Search(ctx context.Context, callerID, query string, limit int) ([]domain.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.ErrEmptyContent
	}
	return s.index.Search(ctx, callerID, query, limit)
}
