package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/models"
)

//
// --- Order Handlers ---
//

type CreateOrderInput struct {
	OrderItems      []models.OrderItem     `json:"orderItems" binding:"dive"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      *decimal.Decimal       `json:"itemsPrice" binding:"required"`
	TaxPrice        *decimal.Decimal       `json:"taxPrice" binding:"required"`
	ShippingPrice   *decimal.Decimal       `json:"shippingPrice" binding:"required"`
	TotalPrice      *decimal.Decimal       `json:"totalPrice"`
}

// CreateOrder handles POST /api/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	// 1. --- Who is ordering ---
	caller, err := h.caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 2. --- Bind & Validate ---
	var input CreateOrderInput
	if !bindJSON(c, &input) {
		return
	}

	// 3. --- Place it ---
	order, err := h.Checkout.CreateOrder(c.Request.Context(), caller, checkout.CreateOrderInput{
		Items:           input.OrderItems,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		ItemsPrice:      *input.ItemsPrice,
		TaxPrice:        *input.TaxPrice,
		ShippingPrice:   *input.ShippingPrice,
		TotalPrice:      input.TotalPrice,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetMyOrders handles GET /api/orders/myorders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	caller, err := h.caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	orders, err := h.Checkout.MyOrders(c.Request.Context(), caller)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrderDetails handles GET /api/orders/:id (owner or admin).
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	caller, err := h.caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.Checkout.GetOrder(c.Request.Context(), caller, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrders handles GET /api/orders (admin).
func (h *Handlers) GetOrders(c *gin.Context) {
	orders, err := h.Checkout.AllOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

type UpdateStatusInput struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PUT /api/orders/:id/status (admin).
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var input UpdateStatusInput
	if !bindJSON(c, &input) {
		return
	}
	order, err := h.Checkout.UpdateStatus(c.Request.Context(), id, input.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
