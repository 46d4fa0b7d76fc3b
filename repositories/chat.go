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
	"strings"

	"github.com/dgraph-io/badger/v4"
)

var _ contract.IChatRepository = (*ChatRepository)(nil)

type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChatRepository(db *badger.DB, log *slog.Logger) *ChatRepository {
	return &ChatRepository{db: db, log: log}
}

func (r *ChatRepository) FindChat(_ context.Context, chatID string) (domain.Chat, error) {
	var record ChatRecord
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, chatKey(chatID), &record)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Chat{}, errors.ErrChatNotFound
	}
	if err != nil {
		return domain.Chat{}, err
	}
	return toChat(record), nil
}

// FindChatsByParticipant walks the participant index, most recently updated first.
func (r *ChatRepository) FindChatsByParticipant(_ context.Context, accountID string) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := participantScan(accountID)
		for _, key := range scanKeys(txn, prefix) {
			chatID := strings.TrimPrefix(string(key), string(prefix))
			var record ChatRecord
			if err := getJSON(txn, chatKey(chatID), &record); err != nil {
				if stderrors.Is(err, badger.ErrKeyNotFound) {
					r.log.Warn("Dangling participant index", "account_id", accountID, "chat_id", chatID)
					continue
				}
				return err
			}
			chats = append(chats, toChat(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(chats, func(a, b domain.Chat) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return chats, nil
}

func (r *ChatRepository) FindDirectChat(ctx context.Context, accountID, friendID string) (domain.Chat, error) {
	var chatID string
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getString(txn, directKey(accountID, friendID))
		chatID = id
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Chat{}, errors.ErrChatNotFound
	}
	if err != nil {
		return domain.Chat{}, err
	}
	return r.FindChat(ctx, chatID)
}

// CreateChat stores the chat together with its participant index entries.
func (r *ChatRepository) CreateChat(_ context.Context, chat domain.Chat) (domain.Chat, error) {
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(chatKey(chat.ID)); err == nil {
			return fmt.Errorf("chat %s already exists", chat.ID)
		}
		if err := setJSON(txn, chatKey(chat.ID), fromChat(chat)); err != nil {
			return err
		}
		for _, accountID := range chat.Participants.Values() {
			if err := txn.Set(participantKey(accountID, chat.ID), []byte{}); err != nil {
				return err
			}
		}
		if chat.Kind == domain.ChatDirect {
			ids := chat.Participants.Values()
			if len(ids) == 2 {
				return txn.Set(directKey(ids[0], ids[1]), []byte(chat.ID))
			}
		}
		return nil
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

// UpdateChat rewrites the record and moves index entries of participants
// that joined or left.
func (r *ChatRepository) UpdateChat(_ context.Context, chat domain.Chat) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		var previous ChatRecord
		if err := getJSON(txn, chatKey(chat.ID), &previous); err != nil {
			return err
		}
		before := domain.NewSet(previous.Participants...)
		for _, accountID := range before.Values() {
			if !chat.Participants.Has(accountID) {
				if err := txn.Delete(participantKey(accountID, chat.ID)); err != nil {
					return err
				}
			}
		}
		for _, accountID := range chat.Participants.Values() {
			if !before.Has(accountID) {
				if err := txn.Set(participantKey(accountID, chat.ID), []byte{}); err != nil {
					return err
				}
			}
		}
		return setJSON(txn, chatKey(chat.ID), fromChat(chat))
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrChatNotFound
	}
	return err
}

// DeleteChat removes the chat, its index entries and every message it owns.
func (r *ChatRepository) DeleteChat(_ context.Context, chatID string) error {
	var keys [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		var record ChatRecord
		if err := getJSON(txn, chatKey(chatID), &record); err != nil {
			return err
		}
		keys = append(keys, chatKey(chatID))
		for _, accountID := range record.Participants {
			keys = append(keys, participantKey(accountID, chatID))
		}
		if domain.ChatKind(record.Kind) == domain.ChatDirect && len(record.Participants) == 2 {
			keys = append(keys, directKey(record.Participants[0], record.Participants[1]))
		}
		for _, key := range scanKeys(txn, messageScan(chatID)) {
			keys = append(keys, key, messageIdxKey(messageIDFromKey(key)))
		}
		return nil
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrChatNotFound
	}
	if err != nil {
		return err
	}

	// A write batch splits large cascades into several transactions.
	wb := r.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}
	r.log.Debug("Chat deleted", "chat_id", chatID, "keys", len(keys))
	return nil
}
