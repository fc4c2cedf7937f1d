package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chat-direct/contract"
	"chat-direct/domain/event"
	"chat-direct/observability"
	"chat-direct/runtime"
)

// Handler authenticates, upgrades and supervises one realtime
// connection per request. Credentials are verified before the upgrade:
// a bad token is refused with a plain 401 and never touches the
// registry or the directory.
type Handler struct {
	tokens      contract.TokenVerifier
	users       contract.UserDirectory
	registry    contract.IRegistry
	broadcaster *runtime.Broadcaster
	pipeline    *runtime.Pipeline
	monitoring  *observability.MonitoringManager
	log         *slog.Logger
	bufferSize  int
	upgrader    websocket.Upgrader
}

func NewHandler(
	tokens contract.TokenVerifier,
	users contract.UserDirectory,
	registry contract.IRegistry,
	broadcaster *runtime.Broadcaster,
	pipeline *runtime.Pipeline,
	monitoring *observability.MonitoringManager,
	log *slog.Logger,
	bufferSize int,
) *Handler {
	return &Handler{
		tokens:      tokens,
		users:       users,
		registry:    registry,
		broadcaster: broadcaster,
		pipeline:    pipeline,
		monitoring:  monitoring,
		log:         log,
		bufferSize:  bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect cross-origin in development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// bearerToken pulls the credential from ?token= or the Authorization
// header. Browser WebSocket clients cannot set headers, so the query
// parameter is the primary channel.
func bearerToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

// Handle is the gin endpoint upgrading GET /ws.
func (h *Handler) Handle(c *gin.Context) {
	userID, err := h.tokens.Verify(bearerToken(c))
	if err != nil {
		h.monitoring.IncrRejectedHandshake()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}

	user, err := h.users.GetUserByID(userID)
	if err != nil {
		h.monitoring.IncrRejectedHandshake()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.log.Warn("websocket upgrade failed", "user", userID, "error", err)
		return
	}

	session := NewSession(conn, userID, h.bufferSize, h.log)
	h.serve(c, session, user.Username)
}

// serve runs the session lifecycle to completion: register, announce,
// pump, then tear down. It returns when the connection dies.
func (h *Handler) serve(c *gin.Context, session *Session, username string) {
	ctx := c.Request.Context()
	userID := session.UserID()

	previous, replaced := h.registry.Register(userID, session)
	if replaced {
		// Newer connection wins; the old one is cut loose and its own
		// teardown will find it no longer owns the registration.
		h.log.Info("replacing live session", "user", userID)
		_ = previous.Close()
	}
	h.monitoring.ConnectionOpened()
	h.log.Info("user connected", "user", userID, "username", username, "online", h.registry.Count())

	if err := h.users.SetOnline(userID, true); err != nil {
		h.log.Warn("failed to persist online flag", "user", userID, "error", err)
	}
	h.broadcaster.Announce(ctx, userID, username, true)

	go session.writePump()
	session.readPump(func(frame ClientFrame) {
		h.dispatch(c, session, frame)
	})

	owned := h.registry.DeregisterOwned(userID, session)
	h.monitoring.ConnectionClosed()
	h.log.Info("user disconnected", "user", userID, "owned", owned, "online", h.registry.Count())

	// Only the session that still owns the registration flips the
	// persisted flag and announces the departure; a replaced session
	// going away must not mark its successor offline.
	if owned {
		if err := h.users.SetOnline(userID, false); err != nil {
			h.log.Warn("failed to persist offline flag", "user", userID, "error", err)
		}
		h.broadcaster.Announce(ctx, userID, username, false)
	}
}

func (h *Handler) dispatch(c *gin.Context, session *Session, frame ClientFrame) {
	switch frame.Type {
	case TypeSendMessage:
		h.handleSend(c, session, frame)
	default:
		session.sendError("unknown_type", "unsupported frame type: "+frame.Type)
	}
}

func (h *Handler) handleSend(c *gin.Context, session *Session, frame ClientFrame) {
	result, err := h.pipeline.Send(c.Request.Context(), session.UserID(), frame.ReceiverID, frame.Content)
	if err != nil {
		session.sendError("invalid_message", err.Error())
		return
	}
	if result.PushFailed {
		failure := event.DeliveryFailed{
			MessageID: result.Message.ID.String(),
			Reason:    "receiver session rejected the push",
		}
		if err := session.Consume(c.Request.Context(), failure); err != nil {
			h.log.Warn("failed to report delivery failure to sender",
				"user", session.UserID(), "error", err)
		}
	}
}
