// Package ws carries the realtime protocol: one WebSocket connection
// per authenticated user, JSON frames with a type discriminator.
package ws

import (
	"encoding/json"
	"fmt"

	"chat-direct/domain"
	"chat-direct/domain/event"
)

// Frame type discriminators on the wire.
const (
	TypeSendMessage    = "send_message"
	TypeReceiveMessage = "receive_message"
	TypeUserStatus     = "user_status"
	TypeError          = "error"
)

// ClientFrame is what a connected client may send.
// Only send_message is accepted; anything else is answered with an
// error frame and the connection stays open.
type ClientFrame struct {
	Type       string `json:"type"`
	ReceiverID string `json:"receiver_id,omitempty"`
	Content    string `json:"content,omitempty"`
}

// ReceiveMessageFrame delivers a persisted message to its receiver.
type ReceiveMessageFrame struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

// UserStatusFrame announces a presence transition of another user.
type UserStatusFrame struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsOnline bool   `json:"is_online"`
}

// ErrorFrame reports a per-frame failure to the sender. The session
// survives an error frame; only protocol violations close it.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EncodeEvent renders a domain event as its wire frame.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	switch evt := e.(type) {
	case event.MessageDelivered:
		return json.Marshal(ReceiveMessageFrame{
			Type:    TypeReceiveMessage,
			Message: evt.Message,
		})
	case event.PresenceChanged:
		return json.Marshal(UserStatusFrame{
			Type:     TypeUserStatus,
			UserID:   evt.UserID,
			Username: evt.Username,
			IsOnline: evt.Online,
		})
	case event.DeliveryFailed:
		return json.Marshal(ErrorFrame{
			Type:    TypeError,
			Code:    "delivery_failed",
			Message: fmt.Sprintf("message %s was stored but could not be pushed: %s", evt.MessageID, evt.Reason),
		})
	default:
		return nil, fmt.Errorf("no wire encoding for event %T", e)
	}
}

func encodeError(code, message string) []byte {
	frame, _ := json.Marshal(ErrorFrame{Type: TypeError, Code: code, Message: message})
	return frame
}
