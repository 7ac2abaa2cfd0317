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

// ListPosts handles GET /api/blog
func (h *Handlers) ListPosts(c *gin.Context) {
	posts, err := h.Posts.ListPosts(c.Request.Context())
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost handles GET /api/blog/:slug
func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.Posts.GetPostBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, storeError(err, "Post not found"))
		return
	}
	c.JSON(http.StatusOK, post)
}

type PostInput struct {
	Title  string `json:"title" binding:"required"`
	Body   string `json:"body" binding:"required"`
	Author string `json:"author"`
	Image  string `json:"image"`
}

// CreatePost handles POST /api/blog (admin).
func (h *Handlers) CreatePost(c *gin.Context) {
	var input PostInput
	if !bindJSON(c, &input) {
		return
	}
	ctx := c.Request.Context()

	postSlug, err := uniqueSlug(ctx, input.Title, h.Posts.PostSlugExists)
	if err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	now := time.Now().UTC()
	post := &models.BlogPost{
		Slug:      postSlug,
		Title:     strings.TrimSpace(input.Title),
		Body:      input.Body,
		Author:    input.Author,
		Image:     input.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Posts.CreatePost(ctx, post); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.respondError(c, apperr.Validation("Post slug already exists"))
			return
		}
		h.respondError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpdatePost handles PUT /api/blog/:id (admin).
func (h *Handlers) UpdatePost(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var input PostInput
	if !bindJSON(c, &input) {
		return
	}
	ctx := c.Request.Context()

	post, err := h.Posts.GetPostByID(ctx, id)
	if err != nil {
		h.respondError(c, storeError(err, "Post not found"))
		return
	}
	post.Title = strings.TrimSpace(input.Title)
	post.Body = input.Body
	post.Author = input.Author
	post.Image = input.Image
	post.UpdatedAt = time.Now().UTC()

	if err := h.Posts.UpdatePost(ctx, post); err != nil {
		h.respondError(c, storeError(err, "Post not found"))
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost handles DELETE /api/blog/:id (admin).
func (h *Handlers) DeletePost(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Posts.DeletePost(c.Request.Context(), id); err != nil {
		h.respondError(c, storeError(err, "Post not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post removed"})
}
