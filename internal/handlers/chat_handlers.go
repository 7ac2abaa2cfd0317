package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/models"
)

const chatHistoryLimit = 20

// ChatInput defines the structure of the JSON request body.
type ChatInput struct {
	SessionID string `json:"sessionId" binding:"omitempty,max=64"`
	Message   string `json:"message" binding:"required,max=2000"`
}

// Chat handles POST /api/chat. A new session id is minted when none is sent.
func (h *Handlers) Chat(c *gin.Context) {
	// 1. Parse Input
	var input ChatInput
	if !bindJSON(c, &input) {
		return
	}
	ctx := c.Request.Context()
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	message := strings.TrimSpace(input.Message)

	// 2. Load the earlier turns of this session
	history, err := h.Chats.ListChatMessages(ctx, sessionID)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}
	if len(history) > chatHistoryLimit {
		history = history[len(history)-chatHistoryLimit:]
	}

	// 3. Ask the assistant
	reply, err := h.Assistant.Reply(ctx, history, message)
	if err != nil {
		h.respondError(c, apperr.Upstream("Assistant unavailable", nil, err))
		return
	}

	// 4. Save both turns; a failed write is only logged
	now := time.Now().UTC()
	for _, m := range []*models.ChatMessage{
		{SessionID: sessionID, Role: models.ChatRoleUser, Content: message, CreatedAt: now},
		{SessionID: sessionID, Role: models.ChatRoleAssistant, Content: reply, CreatedAt: now},
	} {
		if err := h.Chats.AppendChatMessage(ctx, m); err != nil {
			h.Logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to save chat history")
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "reply": reply})
}

// GetChatHistory handles GET /api/chat/:sessionId
func (h *Handlers) GetChatHistory(c *gin.Context) {
	messages, err := h.Chats.ListChatMessages(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, messages)
}
