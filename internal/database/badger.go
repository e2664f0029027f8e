package database

import (
	"context"
	"encoding/json"
	"fmt"

	"chat-relay/internal/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const messagePrefix = "msg:"

// BadgerStore is an embedded history store for single-node deployments.
type BadgerStore struct {
	db *badger.DB
}

var _ MessageRepository = (*BadgerStore)(nil)

func OpenBadgerStore(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// AppendMessage stores the message under "msg:{unix_nanos_019d}:{uuid}" so
// keys sort chronologically and same-nanosecond writes never collide.
func (s *BadgerStore) AppendMessage(ctx context.Context, msg models.ChatMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	key := fmt.Sprintf("%s%019d:%s", messagePrefix, msg.Timestamp.UnixNano(), msg.ID)
	value, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// RecentFeed walks the keyspace backwards from the newest message.
func (s *BadgerStore) RecentFeed(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.ChatMessage{}, nil
	}

	messages := make([]models.ChatMessage, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(append(prefix, 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var msg models.ChatMessage
				if err := json.Unmarshal(value, &msg); err != nil {
					return err
				}
				messages = append(messages, msg)
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
	return messages, nil
}
