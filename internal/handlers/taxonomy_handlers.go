package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/01moynul/storefront-golang/internal/models"
)

const maxSlugAttempts = 20

// uniqueSlug derives a URL slug from name, appending -2, -3, ... until exists
// reports the slug as free.
func uniqueSlug(ctx context.Context, name string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "item"
	}

	candidate := base
	for i := 2; i <= maxSlugAttempts; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}

// GetCategories handles GET /api/categories.
func (h *Handlers) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories})
}
