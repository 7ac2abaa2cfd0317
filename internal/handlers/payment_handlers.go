package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/01moynul/storefront-golang/internal/checkout"
)

//
// --- Paystack Handlers ---
//
// Payment is two calls: initialize returns the reference the hosted widget
// needs, and verify is called with that reference once the widget reports back.
//

type InitializePaymentInput struct {
	OrderID FlexibleID      `json:"orderId" binding:"required"`
	Email   string          `json:"email" binding:"omitempty,email"`
	Amount  decimal.Decimal `json:"amount"`
}

// InitializePayment handles POST /api/orders/paystack/initialize
func (h *Handlers) InitializePayment(c *gin.Context) {
	caller, err := h.caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var input InitializePaymentInput
	if !bindJSON(c, &input) {
		return
	}

	auth, err := h.Checkout.InitializePayment(c.Request.Context(), caller, checkout.InitializeInput{
		OrderID: int64(input.OrderID),
		Email:   strings.TrimSpace(input.Email),
		Amount:  input.Amount,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, auth)
}

type VerifyPaymentInput struct {
	Reference string `json:"reference" binding:"required"`
}

// VerifyPayment handles POST /api/orders/paystack/verify
func (h *Handlers) VerifyPayment(c *gin.Context) {
	caller, err := h.caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var input VerifyPaymentInput
	if !bindJSON(c, &input) {
		return
	}

	order, err := h.Checkout.VerifyPayment(c.Request.Context(), caller, strings.TrimSpace(input.Reference))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
