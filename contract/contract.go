//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-direct/domain"
	"chat-direct/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives transient events destined for one live session.
// Consume must not block: delivery is best-effort and a slow consumer
// is reported through the returned error, never by stalling the caller.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Session is the live connection handle registered for a user.
// Exactly one Session may be registered per user identity at a time.
type Session interface {
	EventSink
	UserID() string
	Close() error
}

// IRegistry is the in-memory mapping from user identity to live session.
// All operations are linearizable under a single exclusion domain.
type IRegistry interface {
	Register(userID string, s Session) (previous Session, replaced bool)
	DeregisterOwned(userID string, s Session) bool
	Lookup(userID string) (Session, bool)
	Snapshot() map[string]Session
	Count() int
}

// TokenVerifier resolves a bearer credential to a user identity.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// MessageStore is the durable, append-only conversation store.
type MessageStore interface {
	Append(m domain.Message) error
	Conversation(userA, userB string) ([]domain.Message, error)
}

// MessageIndex is the full-text index over persisted messages.
// Indexing is best-effort: a failure never blocks delivery.
type MessageIndex interface {
	Index(m domain.Message) error
	Search(ctx context.Context, userID, query string, limit int) ([]domain.Message, error)
}

// UserDirectory owns account records and the persisted online flag.
type UserDirectory interface {
	CreateUser(username, email, hashedPassword, avatarURL string) (domain.User, error)
	GetUserByEmail(email string) (domain.User, error)
	GetUserByID(id string) (domain.User, error)
	ListOthers(excludeID string) ([]domain.PublicUser, error)
	SetOnline(id string, online bool) error
}
