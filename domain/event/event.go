// Package event defines the transient notifications pushed to live
// sessions. Events are signals, not stored state: a client that missed
// one reconstructs presence from the directory, not from event history.
package event

import "chat-direct/domain"

type DomainEvent interface {
	isDomainEvent()
}

// MessageDelivered carries a persisted message to its receiver's session.
// It is only ever emitted after the message is durable.
type MessageDelivered struct {
	Message domain.Message
}

func (MessageDelivered) isDomainEvent() {}

// PresenceChanged announces that a user came online or went offline.
// Broadcast to every registered session except the user's own.
type PresenceChanged struct {
	UserID   string
	Username string
	Online   bool
}

func (PresenceChanged) isDomainEvent() {}

// DeliveryFailed is a best-effort signal to the sender's own session
// that a realtime push after persistence did not reach the receiver.
// The message itself is durable and recoverable via history fetch.
type DeliveryFailed struct {
	MessageID string
	Reason    string
}

func (DeliveryFailed) isDomainEvent() {}
