package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
)

var _ contract.IMessageRepository = (*MessageRepository)(nil)

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

// NewMessageRepository caps ListMessages to the most recent limitMessages
// entries when the limit is set.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// CreateMessage persists a message in BadgerDB.
// The key is formatted as "msg:{chat_id}:{timestamp_padded}:{uuid}" so a
// prefix scan returns a chat's history in chronological order, and a
// secondary index resolves a message id to its key.
func (m *MessageRepository) CreateMessage(_ context.Context, message domain.Message) (domain.Message, error) {
	key := messageKey(message.ChatID, message.CreatedAt, message.ID)
	err := m.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, key, fromMessage(message)); err != nil {
			return err
		}
		return txn.Set(messageIdxKey(message.ID), key)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

func (m *MessageRepository) FindMessage(_ context.Context, messageID string) (domain.Message, error) {
	var record MessageRecord
	err := m.db.View(func(txn *badger.Txn) error {
		key, err := getString(txn, messageIdxKey(messageID))
		if err != nil {
			return err
		}
		return getJSON(txn, []byte(key), &record)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(record), nil
}

// ListMessages scans backwards from the newest message so the limit keeps
// the most recent ones, then returns them oldest first.
func (m *MessageRepository) ListMessages(_ context.Context, chatID string) ([]domain.Message, error) {
	var records []MessageRecord
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messageScan(chatID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp: msg:{chat}:9999999999999999999
		seekKey := append(slices.Clone(prefix), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(records) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			var record MessageRecord
			err := it.Item().Value(func(value []byte) error {
				return jsonUnmarshal(value, &record)
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		messages = append(messages, toMessage(records[i]))
	}
	return messages, nil
}

// UpdateMessage rewrites the record in place: sender, chat and creation time
// are immutable so the key never moves.
func (m *MessageRepository) UpdateMessage(_ context.Context, message domain.Message) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		key, err := getString(txn, messageIdxKey(message.ID))
		if err != nil {
			return err
		}
		return setJSON(txn, []byte(key), fromMessage(message))
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrMessageNotFound
	}
	return err
}

func (m *MessageRepository) DeleteMessage(_ context.Context, messageID string) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		key, err := getString(txn, messageIdxKey(messageID))
		if err != nil {
			return err
		}
		if err := txn.Delete([]byte(key)); err != nil {
			return err
		}
		return txn.Delete(messageIdxKey(messageID))
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrMessageNotFound
	}
	return err
}
