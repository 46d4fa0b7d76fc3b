package gateway

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/notification"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx        context.Context
	verifier   *auth.Verifier
	chats      *repositories.ChatRepository
	accounts   *repositories.AccountRepository
	registry   *runtime.Registry
	dispatcher *notification.Dispatcher
	gateway    *Gateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	f := &fixture{
		ctx:        context.Background(),
		verifier:   auth.NewVerifier("test-secret", "chat-relay", time.Hour),
		chats:      repositories.NewChatRepository(db, log),
		accounts:   repositories.NewAccountRepository(db, log),
		registry:   runtime.NewRegistry(),
		dispatcher: notification.NewDispatcher(100, nil, log),
	}
	messages := repositories.NewMessageRepository(db, log, nil)
	identities := services.NewIdentityService(f.verifier, f.accounts, log)
	delivery := services.NewDeliveryService(f.chats, messages, f.accounts, f.registry, f.dispatcher, services.NewChatLocks(), time.Second, log)
	f.gateway = NewGateway(identities, f.registry, delivery, 64, time.Second, log)
	return f
}

// account stores an account and returns it with a bearer token for it.
func (f *fixture) account(t *testing.T, name string) (domain.Account, string) {
	t.Helper()
	account := domain.Account{ID: uuid.NewString(), CredentialsID: uuid.NewString(), DisplayName: name}
	require.NoError(t, f.accounts.SaveAccount(f.ctx, account))
	token, err := f.verifier.GenerateToken(account.CredentialsID)
	require.NoError(t, err)
	return account, "Bearer " + token
}

func (f *fixture) group(t *testing.T, accounts ...domain.Account) domain.Chat {
	t.Helper()
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	chat, err := f.chats.CreateChat(f.ctx, domain.NewGroupChat("climbing", "", ids, time.Now().UTC()))
	require.NoError(t, err)
	return chat
}

// drain returns what is queued on the sink without waiting.
func drain(s *Sink) []event.Event {
	var out []event.Event
	for {
		select {
		case e := <-s.Events():
			out = append(out, e)
		default:
			return out
		}
	}
}

func names(events []event.Event) []event.Name {
	out := make([]event.Name, 0, len(events))
	for _, e := range events {
		out = append(out, e.Name())
	}
	return out
}
