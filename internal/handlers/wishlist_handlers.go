package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/middleware"
)

//
// --- Wishlist Handlers (login required) ---
//

// GetWishlist handles GET /api/wishlist
func (h *Handlers) GetWishlist(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	products, err := h.Wishlists.ListWishlist(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, products)
}

type WishlistInput struct {
	ProductID FlexibleID `json:"productId" binding:"required"`
}

// AddToWishlist handles POST /api/wishlist. Adding a listed product again is a no-op.
func (h *Handlers) AddToWishlist(c *gin.Context) {
	var input WishlistInput
	if !bindJSON(c, &input) {
		return
	}
	ctx := c.Request.Context()
	userID, _ := middleware.UserID(c)
	productID := int64(input.ProductID)

	if _, err := h.Products.GetProductByID(ctx, productID); err != nil {
		h.respondError(c, storeError(err, "Product not found"))
		return
	}
	if err := h.Wishlists.AddToWishlist(ctx, userID, productID); err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	products, err := h.Wishlists.ListWishlist(ctx, userID)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, products)
}

// RemoveFromWishlist handles DELETE /api/wishlist/:productId
func (h *Handlers) RemoveFromWishlist(c *gin.Context) {
	productID, err := paramID(c, "productId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	userID, _ := middleware.UserID(c)
	if err := h.Wishlists.RemoveFromWishlist(c.Request.Context(), userID, productID); err != nil {
		h.respondError(c, storeError(err, "Product not in wishlist"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from wishlist"})
}
