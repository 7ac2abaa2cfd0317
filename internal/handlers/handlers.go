package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/ai"
	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/email"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/pricing"
	"github.com/01moynul/storefront-golang/internal/store"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Users       store.Users
	Products    store.Products
	Orders      store.Orders
	Posts       store.Posts
	Messages    store.Messages
	Subscribers store.Subscribers
	Wishlists   store.Wishlists
	Chats       store.Chats

	Checkout  *checkout.Service
	Tokens    *auth.TokenManager
	Assistant ai.Assistant

	Mailer       email.Sender
	ContactInbox string

	Pricing   pricing.Policy
	UploadDir string
	BaseURL   string

	Logger *logrus.Logger
}

// respondError renders err as {"error": message}. Upstream failures also
// carry the gateway's payload; internal failures are logged and masked.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := apperr.As(err)
	if appErr.Kind == apperr.KindInternal {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Internal server error")
	}

	body := gin.H{"error": appErr.Message}
	if len(appErr.Payload) > 0 {
		body["gateway"] = appErr.Payload
	}
	c.JSON(appErr.Kind.HTTPStatus(), body)
}

// bindJSON binds and validates the request body, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// caller resolves the authenticated user and whether they are an admin.
func (h *Handlers) caller(c *gin.Context) (checkout.Caller, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return checkout.Caller{}, apperr.Unauthenticated("Not authorized")
	}
	user, err := h.Users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return checkout.Caller{}, apperr.Unauthenticated("Not authorized")
		}
		return checkout.Caller{}, apperr.Internal(err)
	}
	return checkout.Caller{UserID: user.ID, IsAdmin: user.IsAdmin()}, nil
}

func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid id")
	}
	return id, nil
}

// storeError maps store sentinels onto request errors.
func storeError(err error, notFound string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(notFound)
	default:
		return apperr.Internal(err)
	}
}

// FlexibleID accepts an id sent either as a JSON number or a numeric string.
type FlexibleID int64

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "" || text == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = FlexibleID(n)
	return nil
}
