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

var _ contract.IAccountRepository = (*AccountRepository)(nil)

type AccountRecord struct {
	ID            string `json:"id"`
	CredentialsID string `json:"credentials_id"`
	DisplayName   string `json:"display_name"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Status        string `json:"status,omitempty"`
}

// AccountRepository reads accounts owned by the identity subsystem.
// SaveAccount only exists for seeding.
type AccountRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewAccountRepository(db *badger.DB, log *slog.Logger) *AccountRepository {
	return &AccountRepository{db: db, log: log}
}

func (r *AccountRepository) FindAccount(_ context.Context, accountID string) (domain.Account, error) {
	var record AccountRecord
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, accountKey(accountID), &record)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Account{}, errors.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return toAccount(record), nil
}

func (r *AccountRepository) FindAccountByCredentials(_ context.Context, credentialsID string) (domain.Account, error) {
	var record AccountRecord
	err := r.db.View(func(txn *badger.Txn) error {
		accountID, err := getString(txn, credentialsKey(credentialsID))
		if err != nil {
			return err
		}
		return getJSON(txn, accountKey(accountID), &record)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Account{}, errors.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return toAccount(record), nil
}

func (r *AccountRepository) SaveAccount(_ context.Context, account domain.Account) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, accountKey(account.ID), fromAccount(account)); err != nil {
			return err
		}
		return txn.Set(credentialsKey(account.CredentialsID), []byte(account.ID))
	})
}

func fromAccount(account domain.Account) AccountRecord {
	return AccountRecord{
		ID:            account.ID,
		CredentialsID: account.CredentialsID,
		DisplayName:   account.DisplayName,
		AvatarURL:     account.AvatarURL,
		Status:        account.Status,
	}
}

func toAccount(record AccountRecord) domain.Account {
	return domain.Account{
		ID:            record.ID,
		CredentialsID: record.CredentialsID,
		DisplayName:   record.DisplayName,
		AvatarURL:     record.AvatarURL,
		Status:        record.Status,
	}
}
