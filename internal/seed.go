package internal

import (
	"chat-relay/domain"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DemoNames are the accounts created by the seeder. Their ids are derived
// from the name so every run and every client agrees on them.
var DemoNames = []string{"alice", "bob", "carol", "dave"}

type DemoFriendship struct {
	RequestedBy string
	Addressee   string
	Status      domain.FriendStatus
}

var DemoFriendships = []DemoFriendship{
	{RequestedBy: "alice", Addressee: "bob", Status: domain.FriendAccepted},
	{RequestedBy: "bob", Addressee: "carol", Status: domain.FriendAccepted},
	{RequestedBy: "carol", Addressee: "alice", Status: domain.FriendAccepted},
	{RequestedBy: "dave", Addressee: "alice", Status: domain.FriendRequested},
}

var demoNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("chat-relay"))

func DemoAccount(name string) domain.Account {
	return domain.Account{
		ID:            uuid.NewSHA1(demoNamespace, []byte("account:"+name)).String(),
		CredentialsID: "cred-" + name,
		DisplayName:   name,
	}
}

type accountWriter interface {
	SaveAccount(ctx context.Context, account domain.Account) error
}

type friendshipWriter interface {
	SaveFriendship(ctx context.Context, friendship domain.Friendship) error
}

// Seeder fills an empty store with the demo accounts, their friendships and
// the direct chats of accepted friends. Running it again is harmless.
type Seeder struct {
	accounts    accountWriter
	friendships friendshipWriter
	chats       services.IChatService
	log         *slog.Logger
}

func NewSeeder(accounts accountWriter, friendships friendshipWriter, chats services.IChatService, log *slog.Logger) *Seeder {
	return &Seeder{accounts: accounts, friendships: friendships, chats: chats, log: log}
}

func (s *Seeder) Seed(ctx context.Context) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0, len(DemoNames))
	for _, name := range DemoNames {
		account := DemoAccount(name)
		if err := s.accounts.SaveAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("seed account %s: %w", name, err)
		}
		accounts = append(accounts, account)
	}

	now := time.Now().UTC()
	for _, f := range DemoFriendships {
		requester, addressee := DemoAccount(f.RequestedBy), DemoAccount(f.Addressee)
		friendship := domain.NewFriendship(requester.ID, addressee.ID, f.Status, now)
		if err := s.friendships.SaveFriendship(ctx, friendship); err != nil {
			return nil, fmt.Errorf("seed friendship %s/%s: %w", f.RequestedBy, f.Addressee, err)
		}
		if !friendship.Accepted() {
			continue
		}
		identity := domain.NewIdentity(requester.CredentialsID, requester)
		chat, err := s.chats.OpenDirectChat(ctx, identity, addressee.ID)
		if err != nil {
			return nil, fmt.Errorf("open direct chat %s/%s: %w", f.RequestedBy, f.Addressee, err)
		}
		s.log.Debug("Direct chat ready", "chat_id", chat.ID, "between", []string{f.RequestedBy, f.Addressee})
	}
	return accounts, nil
}
