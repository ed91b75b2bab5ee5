package api

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/wildwatch/wildwatch-go/internal/conf"
	"github.com/wildwatch/wildwatch-go/internal/datastore"
	"github.com/wildwatch/wildwatch-go/internal/errors"
)

// RegisterRecipientRequest is the registration payload.
type RegisterRecipientRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	LocationCode string `json:"location_code"`
}

// RegisterRecipient handles POST /api/v2/recipients
func (c *Controller) RegisterRecipient(ctx echo.Context) error {
	var req RegisterRecipientRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	if err := validateRegistration(&req); err != nil {
		return c.HandleError(ctx, err, err.Error(), http.StatusBadRequest)
	}

	recipient := &datastore.Recipient{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		LocationCode: strings.TrimSpace(req.LocationCode),
	}

	if err := c.DS.CreateRecipient(ctx.Request().Context(), recipient); err != nil {
		if errors.HasCategory(err, errors.CategoryConflict) {
			return c.HandleError(ctx, err, "A recipient is already registered with this email address", http.StatusConflict)
		}
		return c.HandleError(ctx, err, "Registration failed. Please try again.", statusForError(err))
	}

	c.statsCache.Delete(statsCacheKey)

	if c.apiLogger != nil {
		c.apiLogger.Info("recipient registered",
			"email", recipient.Email,
			"location_code", recipient.LocationCode)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration successful! You will receive wildlife alerts for your area.",
		"data":    recipient,
	})
}

// GetRecipients handles GET /api/v2/recipients
func (c *Controller) GetRecipients(ctx echo.Context) error {
	recipients, err := c.DS.AllRecipients(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to fetch recipients", statusForError(err))
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"count":   len(recipients),
		"data":    recipients,
	})
}

// GetRecipientsByLocation handles GET /api/v2/recipients/location/:code
func (c *Controller) GetRecipientsByLocation(ctx echo.Context) error {
	code := ctx.Param("code")
	if !conf.ValidLocationCode(code) {
		return c.HandleError(ctx, nil, "Location code must be exactly 6 digits", http.StatusBadRequest)
	}

	recipients, err := c.DS.RecipientsByLocation(ctx.Request().Context(), code)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to fetch recipients", statusForError(err))
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success":       true,
		"count":         len(recipients),
		"location_code": code,
		"data":          recipients,
	})
}

// GetRecipientStats handles GET /api/v2/recipients/stats
func (c *Controller) GetRecipientStats(ctx echo.Context) error {
	if cached, found := c.statsCache.Get(statsCacheKey); found {
		return ctx.JSON(http.StatusOK, map[string]any{
			"success": true,
			"data":    cached,
		})
	}

	stats, err := c.DS.Stats(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to fetch statistics", statusForError(err))
	}
	c.statsCache.SetDefault(statsCacheKey, stats)

	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    stats,
	})
}

// validateRegistration checks the registration payload. These rules mirror
// the recipient model constraints: name 2..50 characters, valid email
// format, 6-digit location code.
func validateRegistration(req *RegisterRecipientRequest) error {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	code := strings.TrimSpace(req.LocationCode)

	if name == "" || email == "" || code == "" {
		return errors.Newf("all fields (name, email, location_code) are required").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if len(name) < 2 || len(name) > 50 {
		return errors.Newf("name must be between 2 and 50 characters").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.Newf("please provide a valid email address").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if !conf.ValidLocationCode(code) {
		return errors.Newf("location code must be exactly 6 digits").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}
