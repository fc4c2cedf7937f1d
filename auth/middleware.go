package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// UserIDKey is the gin context key under which the authenticated
	// user's identity is stored for downstream handlers.
	UserIDKey = "user_id"
	RolesKey  = "roles"
)

// Middleware returns a gin handler that validates the bearer token of
// every request and injects the resolved identity into the context.
// Requests without a valid token are rejected with 401 and never reach
// the protected handlers.
func Middleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RolesKey, claims.Roles)
		c.Next()
	}
}

// CurrentUserID reads the identity injected by Middleware.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
