package api

import (
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// allowedImageTypes maps acceptable upload extensions to their MIME prefixes.
var allowedImageTypes = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// DetectWildlife handles POST /api/v2/detect. It accepts a multipart image
// upload, runs one detection-to-notification cycle, and returns the outcome
// summary. The uploaded file is removed once the cycle completes.
func (c *Controller) DetectWildlife(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		return c.HandleError(ctx, err, "Please upload an image file", http.StatusBadRequest)
	}

	if c.Settings.Upload.MaxSize > 0 && fileHeader.Size > c.Settings.Upload.MaxSize {
		return c.HandleError(ctx, nil,
			fmt.Sprintf("File too large. Maximum size is %dMB.", c.Settings.Upload.MaxSize/(1024*1024)),
			http.StatusBadRequest)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedImageTypes[ext] || !strings.HasPrefix(contentType, "image/") {
		return c.HandleError(ctx, nil, "Only image files are allowed", http.StatusBadRequest)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read uploaded file", http.StatusBadRequest)
	}
	defer src.Close()

	image, err := io.ReadAll(src)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read uploaded file", http.StatusBadRequest)
	}

	// Keep a copy on disk for the duration of the cycle, removed afterwards.
	imagePath, err := c.saveUpload(image, ext)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to store uploaded file", http.StatusInternalServerError)
	}
	defer os.Remove(imagePath)

	if c.apiLogger != nil {
		c.apiLogger.Info("processing wildlife detection",
			"file", filepath.Base(imagePath),
			"size", len(image))
	}

	summary, err := c.Handler.Handle(ctx.Request().Context(), image)
	if err != nil {
		return c.HandleError(ctx, err, "Wildlife detection failed", statusForError(err))
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"alert":   summary.Alert,
		"message": summary.Message,
		"data": map[string]any{
			"detections":      summary.Detections,
			"location":        summary.Location,
			"alertsSent":      summary.AlertsSent,
			"totalRecipients": summary.TotalRecipients,
			"timestamp":       summary.Timestamp.Format(time.RFC3339),
		},
	})
}

// saveUpload writes the image under the upload directory with a unique
// wildlife-prefixed name and returns the path.
func (c *Controller) saveUpload(image []byte, ext string) (string, error) {
	dir := c.Settings.Upload.Path
	if dir == "" {
		dir = "uploads/"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	name := fmt.Sprintf("wildlife-%d-%d%s", time.Now().UnixMilli(), rand.IntN(1_000_000_000), ext)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return path, nil
}
