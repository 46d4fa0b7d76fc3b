package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_Find_By_Credentials(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewAccountRepository(openDB(t), slog.Default())
	account := domain.Account{
		ID:            uuid.NewString(),
		CredentialsID: uuid.NewString(),
		DisplayName:   "Chloe Garza",
		AvatarURL:     "https://randomuser.me/api/portraits/women/5.jpg",
		Status:        "around",
	}
	req.NoError(repository.SaveAccount(ctx, account))

	byID, err := repository.FindAccount(ctx, account.ID)
	req.NoError(err)
	req.Equal(account, byID)

	byCredentials, err := repository.FindAccountByCredentials(ctx, account.CredentialsID)
	req.NoError(err)
	req.Equal(account, byCredentials)

	_, err = repository.FindAccountByCredentials(ctx, uuid.NewString())
	req.ErrorIs(err, errors.ErrAccountNotFound)
}

func TestTokenRepository_Upsert(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewTokenRepository(openDB(t), slog.Default())
	accountID := uuid.NewString()

	_, err := repository.FindToken(ctx, accountID)
	req.ErrorIs(err, errors.ErrTokenAbsent)

	// When the device registers twice
	_, err = repository.SaveToken(ctx, domain.DeviceToken{AccountID: accountID, Token: "first", UpdatedAt: time.Now().UTC()})
	req.NoError(err)
	second := domain.DeviceToken{AccountID: accountID, Token: "second", UpdatedAt: time.Now().UTC()}
	_, err = repository.SaveToken(ctx, second)
	req.NoError(err)

	// Then only the last token is kept
	found, err := repository.FindToken(ctx, accountID)
	req.NoError(err)
	req.Equal(second, found)
}

func TestFriendshipRepository_Pair_Is_Unordered(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewFriendshipRepository(openDB(t), slog.Default())
	alice, bob := uuid.NewString(), uuid.NewString()
	friendship := domain.NewFriendship(bob, alice, domain.FriendAccepted, time.Now().UTC())
	req.NoError(repository.SaveFriendship(ctx, friendship))

	found, err := repository.FindFriendship(ctx, alice, bob)
	req.NoError(err)
	req.Equal(friendship, found)
	req.True(found.Accepted())

	_, err = repository.FindFriendship(ctx, alice, uuid.NewString())
	req.ErrorIs(err, errors.ErrFriendshipAbsent)
}
