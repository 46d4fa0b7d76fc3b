package services

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recordingSink keeps every event it accepted. A closed sink refuses all.
type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
	closed bool
}

func (s *recordingSink) Consume(_ context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrConnectionClosed
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Events() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Event(nil), s.events...)
}

func (s *recordingSink) Names() []event.Name {
	var names []event.Name
	for _, e := range s.Events() {
		names = append(names, e.Name())
	}
	return names
}

func (s *recordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

type fixture struct {
	ctx        context.Context
	log        *slog.Logger
	chats      *repositories.ChatRepository
	messages   *repositories.MessageRepository
	accounts   *repositories.AccountRepository
	registry   *runtime.Registry
	dispatcher *mocks.MockINotificationDispatcher
	locks      *ChatLocks
	delivery   *DeliveryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	f := &fixture{
		ctx:        context.Background(),
		log:        log,
		chats:      repositories.NewChatRepository(db, log),
		messages:   repositories.NewMessageRepository(db, log, nil),
		accounts:   repositories.NewAccountRepository(db, log),
		registry:   runtime.NewRegistry(),
		dispatcher: mocks.NewMockINotificationDispatcher(ctrl),
		locks:      NewChatLocks(),
	}
	f.delivery = NewDeliveryService(f.chats, f.messages, f.accounts, f.registry, f.dispatcher, f.locks, time.Second, log)
	return f
}

func (f *fixture) account(t *testing.T, name string) domain.Identity {
	t.Helper()
	account := domain.Account{ID: uuid.NewString(), CredentialsID: uuid.NewString(), DisplayName: name}
	require.NoError(t, f.accounts.SaveAccount(f.ctx, account))
	return domain.NewIdentity(account.CredentialsID, account)
}

func (f *fixture) group(t *testing.T, members ...domain.Identity) domain.Chat {
	t.Helper()
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.AccountID)
	}
	chat, err := f.chats.CreateChat(f.ctx, domain.NewGroupChat("climbing", "", ids, time.Now().UTC()))
	require.NoError(t, err)
	return chat
}

// online registers a recording sink for identity and returns its origin.
func (f *fixture) online(identity domain.Identity) (Origin, *recordingSink) {
	sink := &recordingSink{}
	f.registry.Connect(identity.AccountID, sink)
	return Origin{Identity: identity, Sink: sink}, sink
}

func (f *fixture) reload(t *testing.T, chatID string) domain.Chat {
	t.Helper()
	chat, err := f.chats.FindChat(f.ctx, chatID)
	require.NoError(t, err)
	return chat
}

func textCommand(chatID, text string) domain.SendMessageCommand {
	return domain.SendMessageCommand{ChatID: chatID, Type: domain.MessageText, Text: text}
}

// blockingSink holds the first push until release is closed, keeping the
// sender inside SendMessage.
type blockingSink struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingSink() *blockingSink {
	return &blockingSink{entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *blockingSink) Consume(context.Context, event.Event) error {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return nil
}

// sendHeldByPeer starts a send from origin whose push to peer blocks, and
// returns once the send is inside the chat lock.
func (f *fixture) sendHeldByPeer(t *testing.T, origin Origin, peer domain.Identity, chatID string) (*blockingSink, <-chan error) {
	t.Helper()
	sink := newBlockingSink()
	f.registry.Connect(peer.AccountID, sink)
	sent := make(chan error, 1)
	go func() {
		_, err := f.delivery.SendMessage(f.ctx, origin, textCommand(chatID, "on my way"))
		sent <- err
	}()
	select {
	case <-sink.entered:
	case <-time.After(time.Second):
		t.Fatal("send never reached the peer")
	}
	return sink, sent
}
