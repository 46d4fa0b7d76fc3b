//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the outbound side of one live connection.
// Consume never blocks: a full or closed sink returns an error.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// IRegistry maps an account to its single live connection.
type IRegistry interface {
	Connect(accountID string, sink EventSink)
	Disconnect(sink EventSink)
	Lookup(accountID string) (EventSink, bool)
}

type IChatRepository interface {
	FindChat(ctx context.Context, chatID string) (domain.Chat, error)
	FindChatsByParticipant(ctx context.Context, accountID string) ([]domain.Chat, error)
	FindDirectChat(ctx context.Context, accountID, friendID string) (domain.Chat, error)
	CreateChat(ctx context.Context, chat domain.Chat) (domain.Chat, error)
	UpdateChat(ctx context.Context, chat domain.Chat) error
	DeleteChat(ctx context.Context, chatID string) error
}

type IMessageRepository interface {
	FindMessage(ctx context.Context, messageID string) (domain.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]domain.Message, error)
	CreateMessage(ctx context.Context, message domain.Message) (domain.Message, error)
	UpdateMessage(ctx context.Context, message domain.Message) error
	DeleteMessage(ctx context.Context, messageID string) error
}

type IAccountRepository interface {
	FindAccount(ctx context.Context, accountID string) (domain.Account, error)
	FindAccountByCredentials(ctx context.Context, credentialsID string) (domain.Account, error)
	SaveAccount(ctx context.Context, account domain.Account) error
}

type ITokenRepository interface {
	SaveToken(ctx context.Context, token domain.DeviceToken) (domain.DeviceToken, error)
	FindToken(ctx context.Context, accountID string) (domain.DeviceToken, error)
}

// IFriendshipGate answers whether two accounts are friends.
type IFriendshipGate interface {
	FindFriendship(ctx context.Context, accountID, friendID string) (domain.Friendship, error)
}

// INotificationDispatcher is best effort: it only pushes when a device token is on file.
type INotificationDispatcher interface {
	Dispatch(ctx context.Context, accountID string, notification domain.Notification) error
}

// IPusher hands a notification to the push provider.
type IPusher interface {
	Push(ctx context.Context, job domain.PushJob) error
}
