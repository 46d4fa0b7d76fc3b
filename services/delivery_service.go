package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IDeliveryService interface {
	SendMessage(ctx context.Context, origin Origin, cmd domain.SendMessageCommand) (domain.Message, error)
	MarkSeen(ctx context.Context, origin Origin, chatID string) (domain.Chat, error)
	MarkDelivered(ctx context.Context, origin Origin, chatID string) (domain.Chat, error)
	Sync(ctx context.Context, origin Origin) ([]domain.ChatView, error)
	UpdateMessage(ctx context.Context, origin Origin, cmd domain.UpdateMessageCommand) (domain.Message, error)
	DeleteMessage(ctx context.Context, origin Origin, messageID string) error
}

// Origin is the caller of an operation: who it is and where its
// confirmations go. Sink is nil for REST callers, which read the returned value.
type Origin struct {
	Identity domain.Identity
	Sink     contract.EventSink
}

var _ IDeliveryService = (*DeliveryService)(nil)

// DeliveryService persists messages, keeps the seen and delivered sets of
// each chat and routes events to online participants, falling back to push
// notifications for the ones who cannot be reached.
type DeliveryService struct {
	chats       contract.IChatRepository
	messages    contract.IMessageRepository
	accounts    contract.IAccountRepository
	registry    contract.IRegistry
	dispatcher  contract.INotificationDispatcher
	locks       *ChatLocks
	sinkTimeout time.Duration
	log         *slog.Logger
	now         func() time.Time
}

func NewDeliveryService(
	chats contract.IChatRepository,
	messages contract.IMessageRepository,
	accounts contract.IAccountRepository,
	registry contract.IRegistry,
	dispatcher contract.INotificationDispatcher,
	locks *ChatLocks,
	sinkTimeout time.Duration,
	log *slog.Logger) *DeliveryService {
	return &DeliveryService{
		chats:       chats,
		messages:    messages,
		accounts:    accounts,
		registry:    registry,
		dispatcher:  dispatcher,
		locks:       locks,
		sinkTimeout: sinkTimeout,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SendMessage stores the message, resets the chat to "only the sender has
// it" and reaches every other participant exactly once: by a direct push
// when online and accepting, by a notification otherwise.
func (s *DeliveryService) SendMessage(ctx context.Context, origin Origin, cmd domain.SendMessageCommand) (domain.Message, error) {
	sender := origin.Identity.AccountID
	unlock := s.locks.lock(cmd.ChatID)

	chat, err := s.participantChat(ctx, cmd.ChatID, sender)
	if err != nil {
		unlock()
		return domain.Message{}, err
	}

	at := s.now()
	message, err := s.messages.CreateMessage(ctx, domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		Type:      cmd.Type,
		Text:      cmd.Text,
		Image:     cmd.Image,
		SenderID:  sender,
		CreatedAt: at,
		UpdatedAt: at,
	})
	if err != nil {
		unlock()
		return domain.Message{}, fmt.Errorf("create message in chat %s: %w", chat.ID, err)
	}

	chat.ResetForMessage(sender)
	var delivered []string
	for _, peer := range chat.Others(sender) {
		if s.pushTo(ctx, peer, event.MessageCreated{ChatID: chat.ID, Message: message}) {
			chat.MarkDelivered(peer)
			delivered = append(delivered, peer)
			continue
		}
		s.notify(ctx, peer, origin.Identity.DisplayName, message)
	}

	chat.UpdatedAt = at
	err = s.chats.UpdateChat(ctx, chat)
	unlock()
	if err != nil {
		return domain.Message{}, fmt.Errorf("update chat %s: %w", chat.ID, err)
	}

	s.confirm(ctx, origin, event.MessageSent{ChatID: chat.ID, Message: message})
	for _, accountID := range delivered {
		s.fanout(ctx, chat, accountID, event.ChatDelivered{ChatID: chat.ID, AccountID: accountID})
	}
	s.log.Debug("Message sent", "chat_id", chat.ID, "message_id", message.ID, "delivered", len(delivered))
	return message, nil
}

// MarkSeen is idempotent: storage and peers only hear about a change.
func (s *DeliveryService) MarkSeen(ctx context.Context, origin Origin, chatID string) (domain.Chat, error) {
	accountID := origin.Identity.AccountID
	chat, changed, err := s.mark(ctx, chatID, accountID, (*domain.Chat).MarkSeen)
	if err != nil {
		return domain.Chat{}, err
	}
	if changed {
		s.fanout(ctx, chat, accountID, event.ChatSeen{ChatID: chat.ID, AccountID: accountID})
	}
	s.confirm(ctx, origin, event.SeenAcked{ChatID: chat.ID})
	return chat, nil
}

func (s *DeliveryService) MarkDelivered(ctx context.Context, origin Origin, chatID string) (domain.Chat, error) {
	accountID := origin.Identity.AccountID
	chat, changed, err := s.mark(ctx, chatID, accountID, (*domain.Chat).MarkDelivered)
	if err != nil {
		return domain.Chat{}, err
	}
	if changed {
		s.fanout(ctx, chat, accountID, event.ChatDelivered{ChatID: chat.ID, AccountID: accountID})
	}
	s.confirm(ctx, origin, event.DeliveredAcked{ChatID: chat.ID})
	return chat, nil
}

// Sync marks every chat of the caller as delivered to them, then replies
// with the full picture: chats, participant accounts and history.
func (s *DeliveryService) Sync(ctx context.Context, origin Origin) ([]domain.ChatView, error) {
	accountID := origin.Identity.AccountID
	chats, err := s.chats.FindChatsByParticipant(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list chats of %s: %w", accountID, err)
	}

	accounts := make(map[string]domain.Account)
	views := make([]domain.ChatView, 0, len(chats))
	for _, listed := range chats {
		chat, changed, err := s.mark(ctx, listed.ID, accountID, (*domain.Chat).MarkDelivered)
		if stderrors.Is(err, errors.ErrChatNotFound) || stderrors.Is(err, errors.ErrNotParticipant) {
			// Deleted or regrouped between listing and locking.
			continue
		}
		if err != nil {
			return nil, err
		}
		if changed {
			s.fanout(ctx, chat, accountID, event.ChatDelivered{ChatID: chat.ID, AccountID: accountID})
		}

		messages, err := s.messages.ListMessages(ctx, chat.ID)
		if err != nil {
			return nil, fmt.Errorf("list messages of chat %s: %w", chat.ID, err)
		}
		participants, err := s.participantAccounts(ctx, chat, accounts)
		if err != nil {
			return nil, err
		}
		views = append(views, domain.NewChatView(chat, participants, messages))
	}

	s.confirm(ctx, origin, event.ChatsSynced{Chats: views})
	return views, nil
}

// UpdateMessage replaces the text of a message. IMAGE messages are rejected
// before anything is written.
func (s *DeliveryService) UpdateMessage(ctx context.Context, origin Origin, cmd domain.UpdateMessageCommand) (domain.Message, error) {
	message, err := s.messages.FindMessage(ctx, cmd.MessageID)
	if err != nil {
		return domain.Message{}, err
	}
	if !message.Editable() {
		return domain.Message{}, errors.ErrImageImmutable
	}

	message.Text = cmd.Text
	message.UpdatedAt = s.now()
	if err := s.messages.UpdateMessage(ctx, message); err != nil {
		return domain.Message{}, fmt.Errorf("update message %s: %w", message.ID, err)
	}

	if chat, err := s.chats.FindChat(ctx, message.ChatID); err == nil {
		s.fanout(ctx, chat, origin.Identity.AccountID, event.MessageUpdated{ChatID: chat.ID, Message: message})
	} else {
		s.log.Warn("Chat of updated message unreadable", "chat_id", message.ChatID, "error", err)
	}
	s.confirm(ctx, origin, event.MessageEdited{ChatID: message.ChatID, Message: message})
	return message, nil
}

func (s *DeliveryService) DeleteMessage(ctx context.Context, origin Origin, messageID string) error {
	message, err := s.messages.FindMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.messages.DeleteMessage(ctx, message.ID); err != nil {
		return fmt.Errorf("delete message %s: %w", message.ID, err)
	}

	if chat, err := s.chats.FindChat(ctx, message.ChatID); err == nil {
		s.fanout(ctx, chat, origin.Identity.AccountID, event.MessageDeleted{ChatID: chat.ID, MessageID: message.ID})
	} else {
		s.log.Warn("Chat of deleted message unreadable", "chat_id", message.ChatID, "error", err)
	}
	s.confirm(ctx, origin, event.MessageRemoved{ChatID: message.ChatID, MessageID: message.ID})
	return nil
}

// mark applies one set mutation under the chat lock and persists it only
// when it changed something.
func (s *DeliveryService) mark(
	ctx context.Context,
	chatID, accountID string,
	apply func(*domain.Chat, string) bool) (domain.Chat, bool, error) {
	unlock := s.locks.lock(chatID)
	defer unlock()

	chat, err := s.participantChat(ctx, chatID, accountID)
	if err != nil {
		return domain.Chat{}, false, err
	}
	if !apply(&chat, accountID) {
		return chat, false, nil
	}
	if err := s.chats.UpdateChat(ctx, chat); err != nil {
		return domain.Chat{}, false, fmt.Errorf("update chat %s: %w", chat.ID, err)
	}
	return chat, true, nil
}

func (s *DeliveryService) participantChat(ctx context.Context, chatID, accountID string) (domain.Chat, error) {
	chat, err := s.chats.FindChat(ctx, chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !chat.HasParticipant(accountID) {
		return domain.Chat{}, errors.ErrNotParticipant
	}
	return chat, nil
}

// participantAccounts resolves accounts once per sync. An account missing
// from the store still shows up with its id.
func (s *DeliveryService) participantAccounts(
	ctx context.Context,
	chat domain.Chat,
	cache map[string]domain.Account) ([]domain.Account, error) {
	ids := chat.Participants.Values()
	result := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		account, ok := cache[id]
		if !ok {
			found, err := s.accounts.FindAccount(ctx, id)
			switch {
			case stderrors.Is(err, errors.ErrAccountNotFound):
				found = domain.Account{ID: id}
			case err != nil:
				return nil, fmt.Errorf("find account %s: %w", id, err)
			}
			account = found
			cache[id] = account
		}
		result = append(result, account)
	}
	return result, nil
}

// pushTo reports whether accountID is online and its connection accepted e.
func (s *DeliveryService) pushTo(ctx context.Context, accountID string, e event.Event) bool {
	sink, ok := s.registry.Lookup(accountID)
	if !ok {
		return false
	}
	sinkCtx, cancel := context.WithTimeout(ctx, s.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, e); err != nil {
		s.log.Debug("Sink rejected event", "account_id", accountID, "event", e.Name(), "error", err)
		return false
	}
	return true
}

// fanout sends e to every online participant of chat except one.
func (s *DeliveryService) fanout(ctx context.Context, chat domain.Chat, except string, e event.Event) {
	for _, accountID := range lo.Without(chat.Participants.Values(), except) {
		s.pushTo(ctx, accountID, e)
	}
}

func (s *DeliveryService) notify(ctx context.Context, accountID, senderName string, message domain.Message) {
	notification := domain.NewMessageNotification(senderName, message)
	if err := s.dispatcher.Dispatch(ctx, accountID, notification); err != nil {
		s.log.Warn("Notification not dispatched", "account_id", accountID, "message_id", message.ID, "error", err)
	}
}

func (s *DeliveryService) confirm(ctx context.Context, origin Origin, e event.Event) {
	if origin.Sink == nil {
		return
	}
	sinkCtx, cancel := context.WithTimeout(ctx, s.sinkTimeout)
	defer cancel()
	if err := origin.Sink.Consume(sinkCtx, e); err != nil {
		s.log.Debug("Confirmation dropped", "account_id", origin.Identity.AccountID, "event", e.Name(), "error", err)
	}
}
