package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/01moynul/storefront-golang/internal/apperr"
)

var allowedImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// UploadFile handles POST /api/upload (admin).
// It saves the image under UploadDir and returns its public URL.
func (h *Handlers) UploadFile(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		h.respondError(c, apperr.Validation("No file uploaded"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		h.respondError(c, apperr.Validation("Images only (jpg, jpeg, png, gif, webp)"))
		return
	}

	// 2. Create the uploads directory if it doesn't exist
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	// 3. Generate a safe unique filename (uuid + extension)
	newFilename := uuid.NewString() + ext
	savePath := filepath.Join(h.UploadDir, newFilename)

	// 4. Save the file
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		h.respondError(c, apperr.Internal(err))
		return
	}

	// 5. Return the public URL
	publicURL := fmt.Sprintf("%s/uploads/%s", strings.TrimRight(h.BaseURL, "/"), newFilename)
	c.JSON(http.StatusOK, gin.H{"url": publicURL})
}
