package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ntuon/taskapp/internal/database/models"
	"github.com/ntuon/taskapp/internal/database/service"
)

// Context keys set for downstream handlers.
const (
	ContextUserKey  = "user"
	ContextTokenKey = "token"
)

// AuthMiddleware resolves a Bearer token to an authenticated user
type AuthMiddleware struct {
	service service.AuthService
	logger  *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware instance
func NewAuthMiddleware(service service.AuthService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		logger:  logger,
	}
}

// RequireAuth validates the presented token and sets the resolved user and
// the raw token string in the context. The token must both carry a valid
// signature and still be present in the user's active token list.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.logger.Warn("⚠️ [Middleware] Missing Authorization header")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please authenticate"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.logger.Warn("⚠️ [Middleware] Invalid Authorization header format")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please authenticate"})
			c.Abort()
			return
		}

		tokenString := parts[1]

		user, err := m.service.Authenticate(tokenString)
		if err != nil {
			m.logger.Warn("⚠️ [Middleware] Authentication failed", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please authenticate"})
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTokenKey, tokenString)
		m.logger.Debug("✅ [Middleware] Token validated", "user_id", user.ID)

		c.Next()
	}
}

// CurrentUser returns the authenticated user previously attached by
// RequireAuth.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// CurrentToken returns the raw token string of the current session.
func CurrentToken(c *gin.Context) string {
	return c.GetString(ContextTokenKey)
}
