// Package search maintains a full-text index over persisted messages.
// Indexing is best-effort: the durable store is the source of truth and
// an index failure never blocks message delivery.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"chat-direct/domain"
)

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Index makes one persisted message searchable. Both participants are
// indexed under the same field so a single term query scopes results to
// conversations the caller takes part in.
func (i *MessageIndex) Index(m domain.Message) error {
	doc := bluge.NewDocument(m.ID.String()).
		AddField(bluge.NewTextField("content", m.Content).StoreValue()).
		AddField(bluge.NewKeywordField("sender", m.SenderID).StoreValue()).
		AddField(bluge.NewKeywordField("receiver", m.ReceiverID).StoreValue()).
		AddField(bluge.NewKeywordField("participant", m.SenderID)).
		AddField(bluge.NewKeywordField("participant", m.ReceiverID)).
		AddField(bluge.NewKeywordField("created_at", m.CreatedAt.UTC().Format(time.RFC3339Nano)).StoreValue())

	return i.writer.Update(doc.ID(), doc)
}

// Search returns the messages matching the query, restricted to
// conversations the given user participates in.
func (i *MessageIndex) Search(ctx context.Context, userID, query string, limit int) ([]domain.Message, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Failed to close index reader", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("content")).
		AddMust(bluge.NewTermQuery(userID).SetField("participant"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var results []domain.Message
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var m domain.Message
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				m.ID, _ = uuid.Parse(string(value))
			case "content":
				m.Content = string(value)
			case "sender":
				m.SenderID = string(value)
			case "receiver":
				m.ReceiverID = string(value)
			case "created_at":
				m.CreatedAt, _ = time.Parse(time.RFC3339Nano, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, nil
}
