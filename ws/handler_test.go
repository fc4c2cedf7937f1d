package ws

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"chat-direct/auth"
	"chat-direct/domain"
	"chat-direct/moderation"
	"chat-direct/observability"
	"chat-direct/repositories"
	"chat-direct/runtime"
	"chat-direct/search"
)

type testServer struct {
	srv      *httptest.Server
	tokens   *auth.TokenManager
	users    repositories.UserRepository
	messages repositories.MessageRepository
	registry *runtime.Registry
}

func newTestServer(t *testing.T) *testServer {
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

	tokens := auth.NewTokenManager("handler-test-secret", time.Hour)
	registry := runtime.NewRegistry()
	monitoring := observability.NewMonitoringManager(log)
	broadcaster := runtime.NewBroadcaster(registry, monitoring, log)
	pipeline := runtime.NewPipeline(messages, index, registry, moderator, monitoring, log)

	handler := NewHandler(tokens, users, registry, broadcaster, pipeline, monitoring, log, 16)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", handler.Handle)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		srv:      srv,
		tokens:   tokens,
		users:    users,
		messages: messages,
		registry: registry,
	}
}

func (ts *testServer) createUser(t *testing.T, username string) (domain.User, string) {
	t.Helper()
	req := require.New(t)
	user, err := ts.users.CreateUser(username, username+"@example.com", "not-a-real-hash", "")
	req.NoError(err)
	token, err := ts.tokens.GenerateToken(user.ID, user.Roles)
	req.NoError(err)
	return user, token
}

func (ts *testServer) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, out any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(out))
}

func TestHandler_Rejects_Missing_Token_Before_Upgrade(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	// Then the handshake is refused with a plain HTTP error
	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// And no session was registered
	req.Zero(ts.registry.Count())
}

func TestHandler_Rejects_Forged_Token(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	other := auth.NewTokenManager("some-other-secret", time.Hour)
	forged, err := other.GenerateToken("intruder", []string{"user"})
	req.NoError(err)

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws?token=" + forged
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_Message_Reaches_Online_Receiver_And_Store(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	alice, aliceToken := ts.createUser(t, "alice")
	bob, bobToken := ts.createUser(t, "bob")

	// Given alice is connected
	aliceConn := ts.dial(t, aliceToken)

	// When bob connects, alice hears about it
	bobConn := ts.dial(t, bobToken)

	var status UserStatusFrame
	readFrame(t, aliceConn, &status)
	req.Equal(TypeUserStatus, status.Type)
	req.Equal(bob.ID, status.UserID)
	req.Equal("bob", status.Username)
	req.True(status.IsOnline)

	// When alice sends bob a message
	req.NoError(aliceConn.WriteJSON(ClientFrame{
		Type:       TypeSendMessage,
		ReceiverID: bob.ID,
		Content:    "hi bob",
	}))

	// Then bob receives it live
	var received ReceiveMessageFrame
	readFrame(t, bobConn, &received)
	req.Equal(TypeReceiveMessage, received.Type)
	req.Equal(alice.ID, received.Message.SenderID)
	req.Equal(bob.ID, received.Message.ReceiverID)
	req.Equal("hi bob", received.Message.Content)

	// And the message is durable
	history, err := ts.messages.Conversation(alice.ID, bob.ID)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(received.Message.ID, history[0].ID)
}

func TestHandler_Disconnect_Broadcasts_Offline(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	alice, aliceToken := ts.createUser(t, "alice")
	_, bobToken := ts.createUser(t, "bob")

	aliceConn := ts.dial(t, aliceToken)
	bobConn := ts.dial(t, bobToken)

	// Drain the online transition so the next frame is the offline one
	var online UserStatusFrame
	readFrame(t, aliceConn, &online)
	req.True(online.IsOnline)

	// When alice disconnects
	req.NoError(aliceConn.Close())

	// Then bob is told alice went offline
	var offline UserStatusFrame
	readFrame(t, bobConn, &offline)
	req.Equal(TypeUserStatus, offline.Type)
	req.Equal(alice.ID, offline.UserID)
	req.False(offline.IsOnline)

	// And her persisted flag follows
	require.Eventually(t, func() bool {
		stored, err := ts.users.GetUserByID(alice.ID)
		return err == nil && !stored.IsOnline
	}, 2*time.Second, 50*time.Millisecond)
}

func TestHandler_Whitespace_Message_Writes_Nothing(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	alice, aliceToken := ts.createUser(t, "alice")
	bob, _ := ts.createUser(t, "bob")

	aliceConn := ts.dial(t, aliceToken)

	// When alice sends whitespace only
	req.NoError(aliceConn.WriteJSON(ClientFrame{
		Type:       TypeSendMessage,
		ReceiverID: bob.ID,
		Content:    "   \n ",
	}))

	// Then she gets an error frame back
	var frame ErrorFrame
	readFrame(t, aliceConn, &frame)
	req.Equal(TypeError, frame.Type)
	req.Equal("invalid_message", frame.Code)

	// And nothing was persisted
	history, err := ts.messages.Conversation(alice.ID, bob.ID)
	req.NoError(err)
	req.Empty(history)
}

func TestHandler_Reconnect_Replaces_Previous_Session(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	alice, aliceToken := ts.createUser(t, "alice")
	_, bobToken := ts.createUser(t, "bob")

	first := ts.dial(t, aliceToken)
	bobConn := ts.dial(t, bobToken)

	var online UserStatusFrame
	readFrame(t, first, &online)
	req.True(online.IsOnline)

	// When alice reconnects from a second client
	second := ts.dial(t, aliceToken)

	// Then the stale connection is closed by the server
	req.NoError(first.SetReadDeadline(time.Now().Add(2 * time.Second)))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}

	// And alice stays registered exactly once
	req.Equal(2, ts.registry.Count())

	// And messages still reach her through the new connection
	req.NoError(bobConn.WriteJSON(ClientFrame{
		Type:       TypeSendMessage,
		ReceiverID: alice.ID,
		Content:    "still there?",
	}))

	var received ReceiveMessageFrame
	for {
		readFrame(t, second, &received)
		if received.Type == TypeReceiveMessage {
			break
		}
	}
	req.Equal("still there?", received.Message.Content)
}
