package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

//
// --- Role-Based Middleware ---
//
// AdminMiddleware runs AFTER AuthMiddleware. It reads the 'userID' from the
// context, loads that user's role, and only lets admins through.
//

func AdminMiddleware(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get userID from AuthMiddleware
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
			return
		}

		// 2. Load the user's role
		user, err := users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database error checking role"})
			return
		}

		// 3. Check permission
		if user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not authorized as an admin"})
			return
		}

		// 4. Success! Add role to context and proceed.
		c.Set(UserRoleKey, user.Role)
		c.Next()
	}
}
