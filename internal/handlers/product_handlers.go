package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

// --- Public Catalog ---

// ListProducts handles GET /api/products?keyword=&category=&page=&pageSize=
func (h *Handlers) ListProducts(c *gin.Context) {
	// 1. --- Read the filter ---
	filter := store.ProductFilter{
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", defaultPageSize),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > maxPageSize {
		filter.PageSize = defaultPageSize
	}
	if raw := c.Query("category"); raw != "" {
		category := models.Category(strings.ToLower(raw))
		if !category.Valid() {
			h.respondError(c, apperr.Validation("Invalid category"))
			return
		}
		filter.Category = category
	}

	// 2. --- Query ---
	products, total, err := h.Products.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	pages := (total + filter.PageSize - 1) / filter.PageSize
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"page":     filter.Page,
		"pages":    pages,
		"total":    total,
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// GetProductBySlug handles GET /api/products/slug/:slug
func (h *Handlers) GetProductBySlug(c *gin.Context) {
	product, err := h.Products.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, storeError(err, "Product not found"))
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetProduct handles GET /api/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	product, err := h.Products.GetProductByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, storeError(err, "Product not found"))
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- Admin Catalog ---

type ProductInput struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Category    models.Category  `json:"category" binding:"required"`
	Image       string           `json:"image"`
	Stock       int              `json:"stock" binding:"gte=0"`
}

func (in ProductInput) validate() error {
	if in.Price.IsNegative() {
		return apperr.Validation("Price must not be negative")
	}
	if !in.Category.Valid() {
		return apperr.Validation("Invalid category")
	}
	return nil
}

// CreateProduct handles POST /api/products (admin).
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input ProductInput
	if !bindJSON(c, &input) {
		return
	}
	if err := input.validate(); err != nil {
		h.respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	// 1. --- Slug from name, unique ---
	productSlug, err := uniqueSlug(ctx, input.Name, h.Products.ProductSlugExists)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	// 2. --- Save ---
	now := time.Now().UTC()
	product := &models.Product{
		Slug:        productSlug,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       *input.Price,
		Category:    input.Category,
		Image:       input.Image,
		Stock:       input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Products.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.respondError(c, apperr.Validation("Product slug already exists"))
			return
		}
		h.respondError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/:id (admin). The slug and the
// review-derived rating are left as they are.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var input ProductInput
	if !bindJSON(c, &input) {
		return
	}
	if err := input.validate(); err != nil {
		h.respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	product, err := h.Products.GetProductByID(ctx, id)
	if err != nil {
		h.respondError(c, storeError(err, "Product not found"))
		return
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = *input.Price
	product.Category = input.Category
	product.Image = input.Image
	product.Stock = input.Stock
	product.UpdatedAt = time.Now().UTC()

	if err := h.Products.UpdateProduct(ctx, product); err != nil {
		h.respondError(c, storeError(err, "Product not found"))
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/:id (admin).
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Products.DeleteProduct(c.Request.Context(), id); err != nil {
		h.respondError(c, storeError(err, "Product not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed"})
}

// --- Reviews ---

// GetReviews handles GET /api/products/:id/reviews
func (h *Handlers) GetReviews(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Products.GetProductByID(ctx, id); err != nil {
		h.respondError(c, storeError(err, "Product not found"))
		return
	}
	reviews, err := h.Products.ListReviews(ctx, id)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, reviews)
}

type ReviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// CreateReview handles POST /api/products/:id/reviews (auth).
func (h *Handlers) CreateReview(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var input ReviewInput
	if !bindJSON(c, &input) {
		return
	}
	ctx := c.Request.Context()

	userID, _ := middleware.UserID(c)
	user, err := h.Users.GetUserByID(ctx, userID)
	if err != nil {
		h.respondError(c, storeError(err, "User not found"))
		return
	}

	review := &models.Review{
		ProductID: id,
		UserID:    user.ID,
		Name:      user.Name,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: time.Now().UTC(),
	}
	product, err := h.Products.AddReview(ctx, review)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.respondError(c, apperr.Validation("Product already reviewed"))
			return
		}
		h.respondError(c, storeError(err, "Product not found"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"review":     review,
		"rating":     product.Rating,
		"numReviews": product.NumReviews,
	})
}
