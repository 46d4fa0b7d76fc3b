package api

import (
	"bytes"
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/notification"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	router   *gin.Engine
	verifier *auth.Verifier
	accounts *repositories.AccountRepository
	chats    *repositories.ChatRepository
	tokens   *repositories.TokenRepository
	gate     *mocks.MockIFriendshipGate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	f := &fixture{
		verifier: auth.NewVerifier("test-secret", "chat-relay", time.Hour),
		accounts: repositories.NewAccountRepository(db, log),
		chats:    repositories.NewChatRepository(db, log),
		tokens:   repositories.NewTokenRepository(db, log),
		gate:     mocks.NewMockIFriendshipGate(gomock.NewController(t)),
	}
	messages := repositories.NewMessageRepository(db, log, nil)
	registry := runtime.NewRegistry()
	identities := services.NewIdentityService(f.verifier, f.accounts, log)
	locks := services.NewChatLocks()
	delivery := services.NewDeliveryService(f.chats, messages, f.accounts, registry,
		notification.NewDispatcher(10, nil, log), locks, time.Second, log)
	handlers := NewHandlers(
		services.NewChatService(f.chats, f.gate, locks, log),
		delivery,
		services.NewTokenService(f.tokens, log),
		log)
	f.router = NewRouter(handlers, identities, func(c *gin.Context) { c.Status(http.StatusTeapot) }, log)
	return f
}

func (f *fixture) account(t *testing.T) (domain.Account, string) {
	t.Helper()
	account := domain.Account{ID: uuid.NewString(), CredentialsID: uuid.NewString(), DisplayName: "Alice"}
	require.NoError(t, f.accounts.SaveAccount(context.Background(), account))
	token, err := f.verifier.GenerateToken(account.CredentialsID)
	require.NoError(t, err)
	return account, "Bearer " + token
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	request := httptest.NewRequest(method, path, bytes.NewReader(raw))
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", token)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func befriend(f *fixture) {
	f.gate.EXPECT().FindFriendship(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a, b string) (domain.Friendship, error) {
			return domain.NewFriendship(a, b, domain.FriendAccepted, time.Now()), nil
		}).AnyTimes()
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{errors.ErrIllegalAction, http.StatusBadRequest},
		{errors.ErrNotFriends, http.StatusBadRequest},
		{errors.ErrNotGroupChat, http.StatusBadRequest},
		{errors.ErrChatNotFound, http.StatusNotFound},
		{errors.ErrUnauthenticated, http.StatusForbidden},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			require.Equal(t, tt.expected, StatusOf(tt.err))
		})
	}
}

func TestRouter_Requires_Bearer(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	for _, token := range []string{"", "Bearer forged"} {
		recorder := f.do(t, http.MethodPost, "/api/v1/chat/group", token, map[string]any{})
		req.Equal(http.StatusForbidden, recorder.Code)
		req.JSONEq(`{"errors":["UNAUTHENTICATED"]}`, recorder.Body.String())
	}
}

func TestRouter_Group_Lifecycle(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	befriend(f)
	alice, token := f.account(t)
	bob, carol := uuid.NewString(), uuid.NewString()

	// Create
	recorder := f.do(t, http.MethodPost, "/api/v1/chat/group", token, map[string]any{
		"participants": []string{bob, carol},
		"name":         "climbing",
		"imageUrl":     "https://img.example.com/group.png",
	})
	req.Equal(http.StatusCreated, recorder.Code, recorder.Body.String())
	var created domain.Chat
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &created))
	req.True(created.Participants.Equal(domain.NewSet(alice.ID, bob, carol)))

	// Update
	recorder = f.do(t, http.MethodPut, "/api/v1/chat/group", token, map[string]any{
		"chatId":       created.ID,
		"participants": []string{bob},
		"name":         "bouldering",
	})
	req.Equal(http.StatusOK, recorder.Code, recorder.Body.String())
	var updated domain.Chat
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &updated))
	req.Equal("bouldering", updated.Name)
	req.Equal(2, updated.Participants.Len())

	// Delete
	recorder = f.do(t, http.MethodDelete, "/api/v1/chat/group", token, map[string]any{"chatId": created.ID})
	req.Equal(http.StatusNoContent, recorder.Code)
	recorder = f.do(t, http.MethodDelete, "/api/v1/chat/group", token, map[string]any{"chatId": created.ID})
	req.Equal(http.StatusNotFound, recorder.Code)
	req.JSONEq(`{"errors":["CHAT_NOT_FOUND"]}`, recorder.Body.String())
}

func TestRouter_Create_Group_Validation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	_, token := f.account(t)

	recorder := f.do(t, http.MethodPost, "/api/v1/chat/group", token, map[string]any{
		"participants": []string{"not-a-uuid"},
		"imageUrl":     "nope",
	})

	req.Equal(http.StatusBadRequest, recorder.Code)
	req.JSONEq(`{"errors":["PARTICIPANTS_ILLEGAL","GROUP_NAME_MISSING","IMAGE_URL_ILLEGAL"]}`, recorder.Body.String())

	request := httptest.NewRequest(http.MethodPost, "/api/v1/chat/group", bytes.NewReader([]byte("{")))
	request.Header.Set("Authorization", token)
	recorder = httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	req.Equal(http.StatusBadRequest, recorder.Code)
	req.JSONEq(`{"errors":["ILLEGAL_ACTION"]}`, recorder.Body.String())
}

func TestRouter_Create_Group_With_Stranger(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	_, token := f.account(t)
	f.gate.EXPECT().FindFriendship(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Friendship{}, errors.ErrFriendshipAbsent)

	recorder := f.do(t, http.MethodPost, "/api/v1/chat/group", token, map[string]any{
		"participants": []string{uuid.NewString()},
		"name":         "party",
	})

	req.Equal(http.StatusBadRequest, recorder.Code)
	req.JSONEq(`{"errors":["NOT_FRIENDS"]}`, recorder.Body.String())
}

func TestRouter_Direct_Chat_And_Delivery(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	befriend(f)
	alice, token := f.account(t)
	bob := uuid.NewString()

	recorder := f.do(t, http.MethodPost, "/api/v1/chat/direct", token, map[string]any{"accountId": bob})
	req.Equal(http.StatusOK, recorder.Code, recorder.Body.String())
	var direct domain.Chat
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &direct))
	req.Equal(domain.ChatDirect, direct.Kind)

	recorder = f.do(t, http.MethodPost, "/api/v1/message/delivery", token, map[string]any{"chatId": direct.ID})
	req.Equal(http.StatusOK, recorder.Code, recorder.Body.String())
	var delivered domain.Chat
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &delivered))
	req.Equal([]string{alice.ID}, delivered.DeliveredTo.Values())

	recorder = f.do(t, http.MethodPost, "/api/v1/message/delivery", token, map[string]any{"chatId": uuid.NewString()})
	req.Equal(http.StatusNotFound, recorder.Code)
}

func TestRouter_Save_Token_Upserts(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice, token := f.account(t)

	req.Equal(http.StatusOK, f.do(t, http.MethodPost, "/api/v1/notification/token", token, map[string]any{"token": "first"}).Code)
	req.Equal(http.StatusOK, f.do(t, http.MethodPost, "/api/v1/notification/token", token, map[string]any{"token": "second"}).Code)

	stored, err := f.tokens.FindToken(context.Background(), alice.ID)
	req.NoError(err)
	req.Equal("second", stored.Token)

	recorder := f.do(t, http.MethodPost, "/api/v1/notification/token", token, map[string]any{})
	req.Equal(http.StatusBadRequest, recorder.Code)
	req.JSONEq(`{"errors":["TOKEN_MISSING"]}`, recorder.Body.String())
}

func TestRouter_Websocket_Route_Is_Public(t *testing.T) {
	f := newFixture(t)
	request := httptest.NewRequest(http.MethodGet, "/ws", nil)
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusTeapot, recorder.Code)
}
