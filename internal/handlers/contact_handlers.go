package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/email"
	"github.com/01moynul/storefront-golang/internal/models"
)

type ContactInput struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required,max=5000"`
}

// SubmitContact handles POST /api/contact. The message is stored first; the
// notification mail to the shop inbox is best effort.
func (h *Handlers) SubmitContact(c *gin.Context) {
	var input ContactInput
	if !bindJSON(c, &input) {
		return
	}
	ctx := c.Request.Context()

	// 1. --- Persist ---
	msg := &models.ContactMessage{
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Subject:   strings.TrimSpace(input.Subject),
		Message:   input.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Messages.CreateContactMessage(ctx, msg); err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	// 2. --- Notify the shop ---
	if h.Mailer != nil && h.ContactInbox != "" {
		if err := h.Mailer.Send(ctx, email.ContactNotification(h.ContactInbox, msg)); err != nil {
			h.Logger.WithError(err).WithField("message_id", msg.ID).Warn("Failed to send contact notification")
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Message sent successfully", "id": msg.ID})
}

// ListContactMessages handles GET /api/contact (admin).
func (h *Handlers) ListContactMessages(c *gin.Context) {
	messages, err := h.Messages.ListContactMessages(c.Request.Context())
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, messages)
}
