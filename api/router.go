package api

import (
	"github.com/gin-gonic/gin"

	"chat-direct/auth"
	"chat-direct/ws"
)

// NewRouter wires the REST surface and the realtime endpoint.
// The websocket handler does its own credential check before the
// upgrade, so /ws sits outside the REST middleware chain.
func NewRouter(handler *Handler, wsHandler *ws.Handler, tokens *auth.TokenManager) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/ws", wsHandler.Handle)

	public := router.Group("/api/auth")
	{
		public.POST("/signup", handler.Signup)
		public.POST("/login", handler.Login)
	}

	authorized := router.Group("/api")
	authorized.Use(auth.Middleware(tokens))
	{
		authorized.GET("/users", handler.ListUsers)
		authorized.GET("/messages/:userId", handler.Conversation)
		authorized.GET("/search", handler.Search)
	}

	return router
}
