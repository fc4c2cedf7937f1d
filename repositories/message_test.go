package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-direct/domain"
)

func newTestMessage(sender, receiver, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		CreatedAt:  at,
	}
}

func Test_Append_And_Fetch_Conversation_Oldest_First(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, slog.Default(), nil)
	at := time.Now().UTC()

	// Given messages flowing in both directions of the same pair
	messages := []domain.Message{
		newTestMessage("alice", "bob", "hello bob", at),
		newTestMessage("bob", "alice", "hello alice", at.Add(1*time.Minute)),
		newTestMessage("alice", "bob", "how are you", at.Add(2*time.Minute)),
	}
	for _, m := range messages {
		req.NoError(repository.Append(m))
	}

	// When fetching the conversation, from either participant's side
	fetched, err := repository.Conversation("alice", "bob")
	req.NoError(err)
	mirrored, err := repository.Conversation("bob", "alice")
	req.NoError(err)

	// Then both directions share one history, oldest first
	req.Equal(messages, fetched)
	req.Equal(messages, mirrored)
}

func Test_Conversation_Isolation_Between_Pairs(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, slog.Default(), nil)
	at := time.Now().UTC()

	req.NoError(repository.Append(newTestMessage("alice", "bob", "for bob", at)))
	req.NoError(repository.Append(newTestMessage("alice", "clara", "for clara", at)))

	fetched, err := repository.Conversation("alice", "bob")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("for bob", fetched[0].Content)
}

func Test_Conversation_Limit_Keeps_Most_Recent(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	limit := 2
	repository := NewMessageRepository(db, slog.Default(), &limit)
	at := time.Now().UTC()

	all := []domain.Message{
		newTestMessage("alice", "bob", "first", at),
		newTestMessage("bob", "alice", "second", at.Add(1*time.Minute)),
		newTestMessage("alice", "bob", "third", at.Add(2*time.Minute)),
	}
	for _, m := range all {
		req.NoError(repository.Append(m))
	}

	fetched, err := repository.Conversation("alice", "bob")
	req.NoError(err)

	// Then only the most recent messages survive, still oldest first
	req.Len(fetched, limit)
	req.Equal("second", fetched[0].Content)
	req.Equal("third", fetched[1].Content)
}

func Test_Same_Timestamp_Keeps_Insertion_Order(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, slog.Default(), nil)
	at := time.Now().UTC()

	first := newTestMessage("alice", "bob", "same instant A", at)
	second := newTestMessage("alice", "bob", "same instant B", at)
	req.NoError(repository.Append(first))
	req.NoError(repository.Append(second))

	fetched, err := repository.Conversation("alice", "bob")
	req.NoError(err)
	req.Len(fetched, 2)
	// Ties are broken by the message UUID in the key; both must survive
	req.ElementsMatch([]string{"same instant A", "same instant B"},
		[]string{fetched[0].Content, fetched[1].Content})
}

func Test_Empty_Conversation_Returns_No_Messages(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, slog.Default(), nil)

	fetched, err := repository.Conversation("alice", "nobody")
	req.NoError(err)
	req.Empty(fetched)
}
