package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

// --- User Registration ---

// RegisterUserInput is separate from models.User because we never accept
// an id or a role from the caller.
type RegisterUserInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register handles POST /api/auth/register.
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterUserInput
	if !bindJSON(c, &input) {
		return
	}
	ctx := c.Request.Context()
	emailAddr := strings.ToLower(strings.TrimSpace(input.Email))

	// 2. --- Reject taken emails ---
	if _, err := h.Users.GetUserByEmail(ctx, emailAddr); err == nil {
		h.respondError(c, apperr.Validation("User already exists"))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.respondError(c, apperr.Internal(err))
		return
	}

	// 3. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	// 4. --- Save to Database ---
	now := time.Now().UTC()
	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        emailAddr,
		PasswordHash: password.Hash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Users.CreateUser(ctx, user); err != nil {
		// The unique index catches a concurrent registration.
		if errors.Is(err, store.ErrDuplicate) {
			h.respondError(c, apperr.Validation("User already exists"))
			return
		}
		h.respondError(c, apperr.Internal(err))
		return
	}

	// 5. --- Issue a token ---
	token, err := h.Tokens.GenerateToken(user.ID)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	h.Logger.WithField("user_id", user.ID).Info("User registered")
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// --- User Login ---

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input) {
		return
	}

	// 1. --- Find the user ---
	user, err := h.Users.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondError(c, apperr.Unauthenticated("Invalid email or password"))
			return
		}
		h.respondError(c, apperr.Internal(err))
		return
	}

	// 2. --- Check the password ---
	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}
	if !match {
		h.respondError(c, apperr.Unauthenticated("Invalid email or password"))
		return
	}

	// 3. --- Issue a token ---
	token, err := h.Tokens.GenerateToken(user.ID)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// GetMe handles GET /api/auth/me.
func (h *Handlers) GetMe(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	user, err := h.Users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, storeError(err, "User not found"))
		return
	}
	c.JSON(http.StatusOK, user)
}
