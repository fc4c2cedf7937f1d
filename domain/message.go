// Package domain contains core concepts of the messaging system.
// This file defines Message records and related rules.
// Messages are immutable once persisted.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable one-to-one chat message.
// Ordering inside a conversation is by CreatedAt, ties broken by
// insertion order into the store.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Language   string    `json:"language,omitempty"` // ISO 639-1 code, best-effort detection
	CreatedAt  time.Time `json:"created_at"`
}
