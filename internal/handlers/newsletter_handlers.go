package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

type NewsletterInput struct {
	Email string `json:"email" binding:"required,email"`
}

// Subscribe handles POST /api/newsletter/subscribe
func (h *Handlers) Subscribe(c *gin.Context) {
	var input NewsletterInput
	if !bindJSON(c, &input) {
		return
	}

	sub := &models.Subscriber{
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Subscribers.Subscribe(c.Request.Context(), sub); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.respondError(c, apperr.Validation("Email already subscribed"))
			return
		}
		h.respondError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Subscribed successfully"})
}

// Unsubscribe handles POST /api/newsletter/unsubscribe
func (h *Handlers) Unsubscribe(c *gin.Context) {
	var input NewsletterInput
	if !bindJSON(c, &input) {
		return
	}
	if err := h.Subscribers.Unsubscribe(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email))); err != nil {
		h.respondError(c, storeError(err, "Email not subscribed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed successfully"})
}

// ListSubscribers handles GET /api/newsletter (admin).
func (h *Handlers) ListSubscribers(c *gin.Context) {
	subs, err := h.Subscribers.ListSubscribers(c.Request.Context())
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, subs)
}
