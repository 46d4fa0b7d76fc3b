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

var _ contract.IFriendshipGate = (*FriendshipRepository)(nil)

// FriendshipRepository backs the friendship gate. The friend request
// lifecycle lives elsewhere; SaveFriendship is used when seeding.
type FriendshipRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewFriendshipRepository(db *badger.DB, log *slog.Logger) *FriendshipRepository {
	return &FriendshipRepository{db: db, log: log}
}

func (r *FriendshipRepository) FindFriendship(_ context.Context, accountID, friendID string) (domain.Friendship, error) {
	var friendship domain.Friendship
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, friendshipKey(accountID, friendID), &friendship)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Friendship{}, errors.ErrFriendshipAbsent
	}
	if err != nil {
		return domain.Friendship{}, err
	}
	friendship.UpdatedAt = friendship.UpdatedAt.UTC()
	return friendship, nil
}

func (r *FriendshipRepository) SaveFriendship(_ context.Context, friendship domain.Friendship) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, friendshipKey(friendship.AccountIDs[0], friendship.AccountIDs[1]), friendship)
	})
}
