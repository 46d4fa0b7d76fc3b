package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

type IChatService interface {
	AuthorizeParticipants(ctx context.Context, requesterID string, candidateIDs []string) error
	CreateGroupChat(ctx context.Context, identity domain.Identity, cmd domain.CreateGroupCommand) (domain.Chat, error)
	UpdateGroupChat(ctx context.Context, identity domain.Identity, cmd domain.UpdateGroupCommand) (domain.Chat, error)
	DeleteGroupChat(ctx context.Context, identity domain.Identity, chatID string) error
	OpenDirectChat(ctx context.Context, identity domain.Identity, friendID string) (domain.Chat, error)
}

var _ IChatService = (*ChatService)(nil)

// ChatService owns chat membership. Only accepted friends of the requester
// can be put in a chat with them.
type ChatService struct {
	chats   contract.IChatRepository
	friends contract.IFriendshipGate
	locks   *ChatLocks
	log     *slog.Logger
	now     func() time.Time
}

// NewChatService takes the locks of the DeliveryService so group changes
// and deliveries never interleave on one chat.
func NewChatService(chats contract.IChatRepository, friends contract.IFriendshipGate, locks *ChatLocks, log *slog.Logger) *ChatService {
	return &ChatService{
		chats:   chats,
		friends: friends,
		locks:   locks,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AuthorizeParticipants accepts the whole batch or nothing.
func (s *ChatService) AuthorizeParticipants(ctx context.Context, requesterID string, candidateIDs []string) error {
	for _, candidate := range lo.Without(lo.Uniq(candidateIDs), requesterID) {
		ok, err := s.areFriends(ctx, requesterID, candidate)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Debug("Candidate is not a friend", "requester_id", requesterID, "candidate_id", candidate)
			return errors.ErrNotFriends
		}
	}
	return nil
}

func (s *ChatService) CreateGroupChat(ctx context.Context, identity domain.Identity, cmd domain.CreateGroupCommand) (domain.Chat, error) {
	participants, err := withRequester(identity.AccountID, cmd.Participants)
	if err != nil {
		return domain.Chat{}, err
	}
	if err := s.AuthorizeParticipants(ctx, identity.AccountID, participants); err != nil {
		return domain.Chat{}, err
	}

	chat, err := s.chats.CreateChat(ctx, domain.NewGroupChat(cmd.Name, cmd.ImageURL, participants, s.now()))
	if err != nil {
		return domain.Chat{}, fmt.Errorf("create group chat: %w", err)
	}
	s.log.Info("Group chat created", "chat_id", chat.ID, "participants", chat.Participants.Len())
	return chat, nil
}

// UpdateGroupChat renames the group and replaces its participants wholesale.
// The requester always stays in the group.
func (s *ChatService) UpdateGroupChat(ctx context.Context, identity domain.Identity, cmd domain.UpdateGroupCommand) (domain.Chat, error) {
	unlock := s.locks.lock(cmd.ChatID)
	defer unlock()

	chat, err := s.groupOf(ctx, identity, cmd.ChatID)
	if err != nil {
		return domain.Chat{}, err
	}
	participants, err := withRequester(identity.AccountID, cmd.Participants)
	if err != nil {
		return domain.Chat{}, err
	}
	if err := s.AuthorizeParticipants(ctx, identity.AccountID, participants); err != nil {
		return domain.Chat{}, err
	}

	chat.ReplaceParticipants(participants)
	chat.Name = cmd.Name
	chat.ImageURL = cmd.ImageURL
	chat.UpdatedAt = s.now()
	if err := s.chats.UpdateChat(ctx, chat); err != nil {
		return domain.Chat{}, fmt.Errorf("update group chat %s: %w", chat.ID, err)
	}
	return chat, nil
}

// DeleteGroupChat removes the group and its history. Any participant may do it.
func (s *ChatService) DeleteGroupChat(ctx context.Context, identity domain.Identity, chatID string) error {
	unlock := s.locks.lock(chatID)
	defer unlock()

	chat, err := s.groupOf(ctx, identity, chatID)
	if err != nil {
		return err
	}
	if err := s.chats.DeleteChat(ctx, chat.ID); err != nil {
		return fmt.Errorf("delete group chat %s: %w", chat.ID, err)
	}
	s.log.Info("Group chat deleted", "chat_id", chat.ID)
	return nil
}

// OpenDirectChat returns the direct chat between two friends, creating it
// the first time. It runs when a friendship gets accepted.
func (s *ChatService) OpenDirectChat(ctx context.Context, identity domain.Identity, friendID string) (domain.Chat, error) {
	if friendID == identity.AccountID {
		return domain.Chat{}, errors.Validation(errors.CodeParticipantsIllegal)
	}
	ok, err := s.areFriends(ctx, identity.AccountID, friendID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !ok {
		return domain.Chat{}, errors.ErrNotFriends
	}

	unlock := s.locks.lockPair(identity.AccountID, friendID)
	defer unlock()
	chat, err := s.chats.FindDirectChat(ctx, identity.AccountID, friendID)
	if err == nil {
		return chat, nil
	}
	if !stderrors.Is(err, errors.ErrChatNotFound) {
		return domain.Chat{}, fmt.Errorf("find direct chat: %w", err)
	}
	chat, err = s.chats.CreateChat(ctx, domain.NewDirectChat(identity.AccountID, friendID, s.now()))
	if err != nil {
		return domain.Chat{}, fmt.Errorf("create direct chat: %w", err)
	}
	s.log.Info("Direct chat opened", "chat_id", chat.ID)
	return chat, nil
}

func (s *ChatService) areFriends(ctx context.Context, accountID, friendID string) (bool, error) {
	friendship, err := s.friends.FindFriendship(ctx, accountID, friendID)
	if stderrors.Is(err, errors.ErrFriendshipAbsent) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find friendship: %w", err)
	}
	return friendship.Accepted(), nil
}

func (s *ChatService) groupOf(ctx context.Context, identity domain.Identity, chatID string) (domain.Chat, error) {
	chat, err := s.chats.FindChat(ctx, chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !chat.IsGroup() {
		return domain.Chat{}, errors.ErrNotGroupChat
	}
	if !chat.HasParticipant(identity.AccountID) {
		return domain.Chat{}, errors.ErrNotParticipant
	}
	return chat, nil
}

// withRequester adds the requester to the candidates; a group needs at least
// one other member.
func withRequester(requesterID string, candidates []string) ([]string, error) {
	participants := lo.Uniq(append([]string{requesterID}, candidates...))
	if len(participants) < 2 {
		return nil, errors.Validation(errors.CodeParticipantsIllegal)
	}
	return participants, nil
}
