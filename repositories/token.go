package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

var _ contract.ITokenRepository = (*TokenRepository)(nil)

type TokenRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewTokenRepository(db *badger.DB, log *slog.Logger) *TokenRepository {
	return &TokenRepository{db: db, log: log}
}

// SaveToken upserts: an account keeps at most one device token.
func (r *TokenRepository) SaveToken(_ context.Context, token domain.DeviceToken) (domain.DeviceToken, error) {
	err := r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, tokenKey(token.AccountID), token)
	})
	if err != nil {
		return domain.DeviceToken{}, err
	}
	return token, nil
}

func (r *TokenRepository) FindToken(_ context.Context, accountID string) (domain.DeviceToken, error) {
	var token domain.DeviceToken
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, tokenKey(accountID), &token)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.DeviceToken{}, errors.ErrTokenAbsent
	}
	if err != nil {
		return domain.DeviceToken{}, err
	}
	token.UpdatedAt = token.UpdatedAt.UTC()
	return token, nil
}
