package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/01moynul/storefront-golang/internal/apperr"
)

// AdminStats is the payload of GET /api/admin/stats.
type AdminStats struct {
	TotalOrders   int             `json:"totalOrders"`
	PaidOrders    int             `json:"paidOrders"`
	PendingOrders int             `json:"pendingOrders"`
	Revenue       decimal.Decimal `json:"revenue"`
	TotalUsers    int             `json:"totalUsers"`
	TotalProducts int             `json:"totalProducts"`
}

// GetAdminStats handles GET /api/admin/stats
func (h *Handlers) GetAdminStats(c *gin.Context) {
	ctx := c.Request.Context()

	// 1. Orders and revenue
	orderStats, err := h.Orders.OrderStats(ctx)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	// 2. Users
	users, err := h.Users.CountUsers(ctx)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	// 3. Products
	products, err := h.Products.CountProducts(ctx)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	c.JSON(http.StatusOK, AdminStats{
		TotalOrders:   orderStats.TotalOrders,
		PaidOrders:    orderStats.PaidOrders,
		PendingOrders: orderStats.PendingOrders,
		Revenue:       orderStats.Revenue,
		TotalUsers:    users,
		TotalProducts: products,
	})
}

// GetPricing handles GET /api/pricing so clients quote carts with the server's policy.
func (h *Handlers) GetPricing(c *gin.Context) {
	c.JSON(http.StatusOK, h.Pricing)
}
