// Package api exposes the REST surface: account management and
// conversation history. Realtime traffic lives on /ws, not here.
package api

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-direct/auth"
	"chat-direct/contract"
	"chat-direct/errors"
	"chat-direct/services"
)

type Handler struct {
	auth        services.IAuthService
	history     services.IHistoryService
	users       contract.UserDirectory
	searchLimit int
	log         *slog.Logger
}

func NewHandler(authSvc services.IAuthService, history services.IHistoryService, users contract.UserDirectory, searchLimit int, log *slog.Logger) *Handler {
	return &Handler{
		auth:        authSvc,
		history:     history,
		users:       users,
		searchLimit: searchLimit,
		log:         log,
	}
}

type signupBody struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	AvatarURL string `json:"avatar_url"`
}

func (h *Handler) Signup(c *gin.Context) {
	var body signupBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.auth.Signup(body.Username, body.Email, body.Password, body.AvatarURL)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"user": user.Public(), "token": token})
	case stderrors.Is(err, errors.ErrEmailTaken), stderrors.Is(err, errors.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case stderrors.Is(err, errors.ErrInvalidPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("signup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
	}
}

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.auth.Login(body.Email, body.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"user": user.Public(), "token": token})
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		h.log.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
	}
}

// ListUsers returns everyone except the caller, for the contact list.
func (h *Handler) ListUsers(c *gin.Context) {
	others, err := h.users.ListOthers(auth.CurrentUserID(c))
	if err != nil {
		h.log.Error("listing users failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing users failed"})
		return
	}
	c.JSON(http.StatusOK, others)
}

// Conversation returns the full exchange between the caller and the
// user in the path, oldest first.
func (h *Handler) Conversation(c *gin.Context) {
	messages, err := h.history.Conversation(auth.CurrentUserID(c), c.Param("userId"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, messages)
	case stderrors.Is(err, errors.ErrEmptyReceiver):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing peer id"})
	default:
		h.log.Error("conversation fetch failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "conversation fetch failed"})
	}
}

// Search runs a full-text query over the caller's conversations.
// ?q= is required; ?limit= caps results below the configured maximum.
func (h *Handler) Search(c *gin.Context) {
	limit := h.searchLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed < limit {
			limit = parsed
		}
	}

	messages, err := h.history.Search(c.Request.Context(), auth.CurrentUserID(c), c.Query("q"), limit)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, messages)
	case stderrors.Is(err, errors.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
	default:
		h.log.Error("search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
	}
}
