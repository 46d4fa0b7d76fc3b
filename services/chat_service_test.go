package services

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newChatService(t *testing.T) (*fixture, *ChatService, *mocks.MockIFriendshipGate) {
	f := newFixture(t)
	gate := mocks.NewMockIFriendshipGate(gomock.NewController(t))
	return f, NewChatService(f.chats, gate, f.locks, f.log), gate
}

func accepted(a, b string) domain.Friendship {
	return domain.NewFriendship(a, b, domain.FriendAccepted, time.Now())
}

func TestCreateGroupChat_All_Friends(t *testing.T) {
	req := require.New(t)
	f, service, gate := newChatService(t)
	alice, bob, carol := f.account(t, "Alice"), f.account(t, "Bob"), f.account(t, "Carol")

	// Given Alice is friend with Bob and Carol
	gate.EXPECT().FindFriendship(gomock.Any(), alice.AccountID, bob.AccountID).Return(accepted(alice.AccountID, bob.AccountID), nil)
	gate.EXPECT().FindFriendship(gomock.Any(), alice.AccountID, carol.AccountID).Return(accepted(carol.AccountID, alice.AccountID), nil)

	// When she creates a group with both
	chat, err := service.CreateGroupChat(f.ctx, alice, domain.CreateGroupCommand{
		Participants: []string{bob.AccountID, carol.AccountID, bob.AccountID},
		Name:         "climbing",
	})

	// Then the group holds the three of them
	req.NoError(err)
	req.Equal(domain.ChatGroup, chat.Kind)
	req.True(chat.Participants.Equal(domain.NewSet(alice.AccountID, bob.AccountID, carol.AccountID)))
	stored := f.reload(t, chat.ID)
	req.Equal("climbing", stored.Name)
	req.Zero(stored.SeenBy.Len())
}

func TestCreateGroupChat_One_Stranger_Rejects_All(t *testing.T) {
	tests := []struct {
		name       string
		friendship domain.Friendship
		err        error
	}{
		{"no friendship", domain.Friendship{}, errors.ErrFriendshipAbsent},
		{"pending request", domain.NewFriendship("x", "y", domain.FriendRequested, time.Now()), nil},
		{"declined request", domain.NewFriendship("x", "y", domain.FriendDeclined, time.Now()), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			f, service, gate := newChatService(t)
			alice, bob, stranger := f.account(t, "Alice"), f.account(t, "Bob"), f.account(t, "Stranger")

			gate.EXPECT().FindFriendship(gomock.Any(), alice.AccountID, bob.AccountID).Return(accepted(alice.AccountID, bob.AccountID), nil).AnyTimes()
			gate.EXPECT().FindFriendship(gomock.Any(), alice.AccountID, stranger.AccountID).Return(tt.friendship, tt.err)

			_, err := service.CreateGroupChat(f.ctx, alice, domain.CreateGroupCommand{
				Participants: []string{bob.AccountID, stranger.AccountID},
				Name:         "party",
			})

			// Then no chat exists, not even for the friend
			req.ErrorIs(err, errors.ErrNotFriends)
			req.Equal(errors.KindAuthorization, errors.KindOf(err))
			chats, err := f.chats.FindChatsByParticipant(f.ctx, alice.AccountID)
			req.NoError(err)
			req.Empty(chats)
		})
	}
}

func TestCreateGroupChat_Gate_Failure_Is_Internal(t *testing.T) {
	req := require.New(t)
	f, service, gate := newChatService(t)
	alice := f.account(t, "Alice")
	gate.EXPECT().FindFriendship(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Friendship{}, fmt.Errorf("disk on fire"))

	_, err := service.CreateGroupChat(f.ctx, alice, domain.CreateGroupCommand{Participants: []string{uuid.NewString()}, Name: "x"})

	req.Error(err)
	req.Equal(errors.KindInternal, errors.KindOf(err))
}

func TestCreateGroupChat_Needs_Someone_Else(t *testing.T) {
	req := require.New(t)
	f, service, _ := newChatService(t)
	alice := f.account(t, "Alice")

	_, err := service.CreateGroupChat(f.ctx, alice, domain.CreateGroupCommand{Participants: []string{alice.AccountID}, Name: "me"})

	req.Equal([]errors.Code{errors.CodeParticipantsIllegal}, errors.CodesOf(err))
}

func TestUpdateGroupChat_Replaces_Participants(t *testing.T) {
	req := require.New(t)
	f, service, gate := newChatService(t)
	alice, bob, carol, dan := f.account(t, "Alice"), f.account(t, "Bob"), f.account(t, "Carol"), f.account(t, "Dan")
	gate.EXPECT().FindFriendship(gomock.Any(), alice.AccountID, gomock.Any()).
		DoAndReturn(func(_ any, a, b string) (domain.Friendship, error) { return accepted(a, b), nil }).
		AnyTimes()

	// Given a group where Bob and Carol have seen the last message
	chat := f.group(t, alice, bob, carol)
	chat.SeenBy = domain.NewSet(bob.AccountID, carol.AccountID)
	req.NoError(f.chats.UpdateChat(f.ctx, chat))

	// When Alice swaps Carol for Dan
	updated, err := service.UpdateGroupChat(f.ctx, alice, domain.UpdateGroupCommand{
		ChatID:       chat.ID,
		Participants: []string{bob.AccountID, dan.AccountID},
		Name:         "bouldering",
	})

	// Then Carol is gone from members and from seen
	req.NoError(err)
	req.True(updated.Participants.Equal(domain.NewSet(alice.AccountID, bob.AccountID, dan.AccountID)))
	stored := f.reload(t, chat.ID)
	req.Equal("bouldering", stored.Name)
	req.Equal([]string{bob.AccountID}, stored.SeenBy.Values())
	carolChats, err := f.chats.FindChatsByParticipant(f.ctx, carol.AccountID)
	req.NoError(err)
	req.Empty(carolChats)
}

func TestUpdateGroupChat_Rejections(t *testing.T) {
	f, service, gate := newChatService(t)
	alice, bob, mallory := f.account(t, "Alice"), f.account(t, "Bob"), f.account(t, "Mallory")
	gate.EXPECT().FindFriendship(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, a, b string) (domain.Friendship, error) { return accepted(a, b), nil }).
		AnyTimes()
	group := f.group(t, alice, bob)
	direct, err := f.chats.CreateChat(f.ctx, domain.NewDirectChat(alice.AccountID, bob.AccountID, time.Now()))
	require.NoError(t, err)

	tests := []struct {
		name     string
		identity domain.Identity
		chatID   string
		expected error
	}{
		{"direct chat", alice, direct.ID, errors.ErrNotGroupChat},
		{"outsider", mallory, group.ID, errors.ErrNotParticipant},
		{"unknown chat", alice, uuid.NewString(), errors.ErrChatNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			_, err := service.UpdateGroupChat(f.ctx, tt.identity, domain.UpdateGroupCommand{
				ChatID:       tt.chatID,
				Participants: []string{bob.AccountID},
				Name:         "x",
			})
			req.ErrorIs(err, tt.expected)
			req.ErrorIs(service.DeleteGroupChat(f.ctx, tt.identity, tt.chatID), tt.expected)
		})
	}
}

func TestDeleteGroupChat_Cascades_Without_Friendship_Check(t *testing.T) {
	req := require.New(t)
	f, service, gate := newChatService(t)
	alice, bob := f.account(t, "Alice"), f.account(t, "Bob")
	gate.EXPECT().FindFriendship(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	chat := f.group(t, alice, bob)
	aliceOrigin, _ := f.online(alice)
	f.online(bob)
	message, err := f.delivery.SendMessage(f.ctx, aliceOrigin, textCommand(chat.ID, "bye"))
	req.NoError(err)

	req.NoError(service.DeleteGroupChat(f.ctx, bob, chat.ID))

	_, err = f.chats.FindChat(f.ctx, chat.ID)
	req.ErrorIs(err, errors.ErrChatNotFound)
	_, err = f.messages.FindMessage(f.ctx, message.ID)
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func TestOpenDirectChat_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	f, service, gate := newChatService(t)
	alice, bob := f.account(t, "Alice"), f.account(t, "Bob")
	gate.EXPECT().FindFriendship(gomock.Any(), gomock.Any(), gomock.Any()).Return(accepted(alice.AccountID, bob.AccountID), nil).Times(2)

	first, err := service.OpenDirectChat(f.ctx, alice, bob.AccountID)
	req.NoError(err)
	second, err := service.OpenDirectChat(f.ctx, bob, alice.AccountID)
	req.NoError(err)

	req.Equal(first.ID, second.ID)
	req.Equal(domain.ChatDirect, second.Kind)
	req.Equal(2, second.Participants.Len())
}

func TestOpenDirectChat_Rejections(t *testing.T) {
	req := require.New(t)
	f, service, gate := newChatService(t)
	alice, bob := f.account(t, "Alice"), f.account(t, "Bob")
	gate.EXPECT().FindFriendship(gomock.Any(), alice.AccountID, bob.AccountID).Return(domain.Friendship{}, errors.ErrFriendshipAbsent)

	_, err := service.OpenDirectChat(f.ctx, alice, bob.AccountID)
	req.ErrorIs(err, errors.ErrNotFriends)

	_, err = service.OpenDirectChat(f.ctx, alice, alice.AccountID)
	req.Equal([]errors.Code{errors.CodeParticipantsIllegal}, errors.CodesOf(err))
}

func TestUpdateGroupChat_Waits_For_In_Flight_Send(t *testing.T) {
	req := require.New(t)
	f, service, gate := newChatService(t)
	alice, bob, carol, dave := f.account(t, "Alice"), f.account(t, "Bob"), f.account(t, "Carol"), f.account(t, "Dave")
	gate.EXPECT().FindFriendship(gomock.Any(), alice.AccountID, gomock.Any()).
		DoAndReturn(func(_ any, a, b string) (domain.Friendship, error) { return accepted(a, b), nil }).
		AnyTimes()
	f.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	chat := f.group(t, alice, bob, carol)
	aliceOrigin, _ := f.online(alice)

	// Given Alice's message is still being pushed to Bob
	bobSink, sent := f.sendHeldByPeer(t, aliceOrigin, bob, chat.ID)

	// When Alice swaps Carol for Dave meanwhile
	updated := make(chan error, 1)
	go func() {
		_, err := service.UpdateGroupChat(f.ctx, alice, domain.UpdateGroupCommand{
			ChatID:       chat.ID,
			Participants: []string{bob.AccountID, dave.AccountID},
			Name:         "climbing",
		})
		updated <- err
	}()

	// Then the update waits for the send to finish
	select {
	case err := <-updated:
		req.Failf("update ran during the send", "error: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(bobSink.release)
	req.NoError(<-sent)
	req.NoError(<-updated)

	// And the send did not write Carol back
	stored := f.reload(t, chat.ID)
	req.True(stored.Participants.Equal(domain.NewSet(alice.AccountID, bob.AccountID, dave.AccountID)))
	carolChats, err := f.chats.FindChatsByParticipant(f.ctx, carol.AccountID)
	req.NoError(err)
	req.Empty(carolChats)
	daveChats, err := f.chats.FindChatsByParticipant(f.ctx, dave.AccountID)
	req.NoError(err)
	req.Len(daveChats, 1)
}

func TestDeleteGroupChat_Leaves_No_Message_Of_In_Flight_Send(t *testing.T) {
	req := require.New(t)
	f, service, _ := newChatService(t)
	alice, bob := f.account(t, "Alice"), f.account(t, "Bob")
	f.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	chat := f.group(t, alice, bob)
	aliceOrigin, _ := f.online(alice)

	// Given Alice's message is still being pushed to Bob
	bobSink, sent := f.sendHeldByPeer(t, aliceOrigin, bob, chat.ID)

	// When Bob deletes the group meanwhile
	deleted := make(chan error, 1)
	go func() { deleted <- service.DeleteGroupChat(f.ctx, bob, chat.ID) }()
	close(bobSink.release)
	req.NoError(<-sent)
	req.NoError(<-deleted)

	// Then neither the chat nor its history survive
	_, err := f.chats.FindChat(f.ctx, chat.ID)
	req.ErrorIs(err, errors.ErrChatNotFound)
	messages, err := f.messages.ListMessages(f.ctx, chat.ID)
	req.NoError(err)
	req.Empty(messages)
}

func TestOpenDirectChat_Concurrent_Calls_Share_One_Chat(t *testing.T) {
	req := require.New(t)
	f, service, gate := newChatService(t)
	alice, bob := f.account(t, "Alice"), f.account(t, "Bob")
	gate.EXPECT().FindFriendship(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(accepted(alice.AccountID, bob.AccountID), nil).
		AnyTimes()

	// When both friends open their chat at the same time, several times
	const calls = 8
	ids := make(chan string, calls)
	failures := make(chan error, calls)
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		identity, friend := alice, bob
		if i%2 == 1 {
			identity, friend = bob, alice
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			chat, err := service.OpenDirectChat(f.ctx, identity, friend.AccountID)
			if err != nil {
				failures <- err
				return
			}
			ids <- chat.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(failures)

	// Then a single direct chat exists
	for err := range failures {
		req.NoError(err)
	}
	var first string
	for id := range ids {
		if first == "" {
			first = id
		}
		req.Equal(first, id)
	}
	chats, err := f.chats.FindChatsByParticipant(f.ctx, alice.AccountID)
	req.NoError(err)
	req.Len(chats, 1)
}
