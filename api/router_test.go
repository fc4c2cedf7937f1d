package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-direct/auth"
	"chat-direct/domain"
	"chat-direct/moderation"
	"chat-direct/observability"
	"chat-direct/repositories"
	"chat-direct/runtime"
	"chat-direct/search"
	"chat-direct/services"
	"chat-direct/ws"
)

type apiFixture struct {
	router   *gin.Engine
	users    repositories.UserRepository
	messages repositories.MessageRepository
	index    *search.MessageIndex
	tokens   *auth.TokenManager
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	req := require.New(t)
	log := slog.New(slog.DiscardHandler)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })

	users := repositories.NewUserRepository(db, log)
	messages := repositories.NewMessageRepository(db, log, nil)
	index := search.NewMessageIndex(writer, log)

	moderator, err := moderation.NewModerator([]string{"idiot"}, '*', log)
	req.NoError(err)

	tokens := auth.NewTokenManager("api-test-secret", time.Hour)
	registry := runtime.NewRegistry()
	monitoring := observability.NewMonitoringManager(log)
	broadcaster := runtime.NewBroadcaster(registry, monitoring, log)
	pipeline := runtime.NewPipeline(messages, index, registry, moderator, monitoring, log)

	authSvc := services.NewAuthService(users, tokens)
	history := services.NewHistoryService(messages, index)

	wsHandler := ws.NewHandler(tokens, users, registry, broadcaster, pipeline, monitoring, log, 16)
	handler := NewHandler(authSvc, history, users, 50, log)

	gin.SetMode(gin.TestMode)
	return &apiFixture{
		router:   NewRouter(handler, wsHandler, tokens),
		users:    users,
		messages: messages,
		index:    index,
		tokens:   tokens,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(encoded)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	request := httptest.NewRequest(method, path, payload)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func (f *apiFixture) signup(t *testing.T, username string) (domain.PublicUser, string) {
	t.Helper()
	req := require.New(t)

	recorder := f.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "C0mplex&Secret!!",
	})
	req.Equal(http.StatusCreated, recorder.Code)

	var response struct {
		User  domain.PublicUser `json:"user"`
		Token string            `json:"token"`
	}
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	req.NotEmpty(response.Token)
	return response.User, response.Token
}

func TestAPI_Signup_And_Login(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	user, _ := fixture.signup(t, "alice")
	req.Equal("alice", user.Username)

	// Duplicate email is refused
	duplicate := fixture.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "C0mplex&Secret!!",
	})
	req.Equal(http.StatusConflict, duplicate.Code)

	// Weak password is refused before any write
	weak := fixture.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "short",
	})
	req.Equal(http.StatusBadRequest, weak.Code)

	// Login with the right credentials issues a working token
	login := fixture.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "C0mplex&Secret!!",
	})
	req.Equal(http.StatusOK, login.Code)

	var response struct {
		Token string `json:"token"`
	}
	req.NoError(json.Unmarshal(login.Body.Bytes(), &response))
	userID, err := fixture.tokens.Verify(response.Token)
	req.NoError(err)
	req.Equal(user.ID, userID)

	// Wrong password is a generic 401
	bad := fixture.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "WrongPassword1!!",
	})
	req.Equal(http.StatusUnauthorized, bad.Code)
}

func TestAPI_Protected_Routes_Require_Token(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	for _, path := range []string{"/api/users", "/api/messages/some-id", "/api/search?q=x"} {
		recorder := fixture.do(t, http.MethodGet, path, "", nil)
		req.Equal(http.StatusUnauthorized, recorder.Code, path)
	}
}

func TestAPI_ListUsers_Excludes_Caller(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	_, aliceToken := fixture.signup(t, "alice")
	bob, _ := fixture.signup(t, "bob")

	recorder := fixture.do(t, http.MethodGet, "/api/users", aliceToken, nil)
	req.Equal(http.StatusOK, recorder.Code)

	var others []domain.PublicUser
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &others))
	req.Len(others, 1)
	req.Equal(bob.ID, others[0].ID)
}

func TestAPI_Conversation_Returns_Both_Directions_Oldest_First(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	alice, aliceToken := fixture.signup(t, "alice")
	bob, _ := fixture.signup(t, "bob")

	base := time.Now().UTC()
	for i, m := range []domain.Message{
		{ID: uuid.New(), SenderID: alice.ID, ReceiverID: bob.ID, Content: "hi bob"},
		{ID: uuid.New(), SenderID: bob.ID, ReceiverID: alice.ID, Content: "hi alice"},
	} {
		m.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		req.NoError(fixture.messages.Append(m))
	}

	recorder := fixture.do(t, http.MethodGet, "/api/messages/"+bob.ID, aliceToken, nil)
	req.Equal(http.StatusOK, recorder.Code)

	var history []domain.Message
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &history))
	req.Len(history, 2)
	req.Equal("hi bob", history[0].Content)
	req.Equal("hi alice", history[1].Content)
}

func TestAPI_Search_Scoped_To_Caller(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	alice, aliceToken := fixture.signup(t, "alice")
	bob, _ := fixture.signup(t, "bob")

	message := domain.Message{
		ID:         uuid.New(),
		SenderID:   alice.ID,
		ReceiverID: bob.ID,
		Content:    "let us talk about badgers",
		CreatedAt:  time.Now().UTC(),
	}
	req.NoError(fixture.messages.Append(message))
	req.NoError(fixture.index.Index(message))

	recorder := fixture.do(t, http.MethodGet, fmt.Sprintf("/api/search?q=%s", "badgers"), aliceToken, nil)
	req.Equal(http.StatusOK, recorder.Code)

	var hits []domain.Message
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &hits))
	req.Len(hits, 1)
	req.Equal(message.ID, hits[0].ID)

	// Missing query is a 400
	missing := fixture.do(t, http.MethodGet, "/api/search", aliceToken, nil)
	req.Equal(http.StatusBadRequest, missing.Code)
}
