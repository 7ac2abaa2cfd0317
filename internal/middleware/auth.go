package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by the middleware chain.
const (
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
)

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(tokenString string) (int64, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// caller's id under UserIDKey.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, no token"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			return
		}

		// 2. --- Validate Token ---
		userID, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, token failed"})
			return
		}

		// 3. --- Success ---
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the id AuthMiddleware stored on the context.
func UserID(c *gin.Context) (int64, bool) {
	raw, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := raw.(int64)
	return id, ok
}

// TokenFromQuery copies a ?token= query parameter into the Authorization
// header when none is set. Browsers cannot send headers on WebSocket upgrades.
func TokenFromQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}
