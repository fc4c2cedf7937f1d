package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"chat-direct/domain"
)

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

// NewMessageRepository builds the durable conversation store.
// limitMessages caps how many of the most recent messages a conversation
// fetch returns; nil means unlimited.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// conversationKey identifies the pair of users independently of who is
// sender and who is receiver, so both directions share one prefix.
func conversationKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + "~" + userB
}

// Append persists a message in BadgerDB.
// The key is formatted as "conv:{pair}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the message UUID as a collision disconnector
//     if two messages arrive at the same nanosecond.
//
// Exactly one logical append per call; the store never mutates a message.
func (m MessageRepository) Append(message domain.Message) error {
	key := fmt.Sprintf("conv:%s:%019d:%s",
		conversationKey(message.SenderID, message.ReceiverID),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// Conversation retrieves every message exchanged between the two users,
// oldest first. Thanks to the padded timestamp in the key, a reverse
// prefix scan yields the most recent messages first; the collected slice
// is flipped back so callers always see chronological order even when
// limitMessages truncates the history.
func (m MessageRepository) Conversation(userA, userB string) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("conv:%s:", conversationKey(userA, userB))
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key of this conversation
		seekKey := append([]byte{}, prefix...)
		seekKey = append(seekKey, []byte("9999999999999999999")...)

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(raw) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			err := item.Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var message domain.Message
		if err = json.Unmarshal(b, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return lo.Reverse(messages), nil
}

// CountConversations reports how many distinct conversation pairs exist,
// used by the inspection tooling only.
func (m MessageRepository) CountConversations() (int, error) {
	pairs := make(map[string]struct{})
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte("conv:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			parts := strings.SplitN(string(it.Item().Key()), ":", 3)
			if len(parts) == 3 {
				pairs[parts[1]] = struct{}{}
			}
		}
		return nil
	})
	return len(pairs), err
}
