// Package api wires the HTTP surface: recipient registration, the detection
// upload endpoint, health and metrics.
package api

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wildwatch/wildwatch-go/internal/alert"
	"github.com/wildwatch/wildwatch-go/internal/conf"
	"github.com/wildwatch/wildwatch-go/internal/datastore"
	"github.com/wildwatch/wildwatch-go/internal/errors"
	"github.com/wildwatch/wildwatch-go/internal/logging"
	"github.com/wildwatch/wildwatch-go/internal/observability"
)

const (
	// statsCacheTTL bounds how stale the aggregate stats endpoint may be.
	statsCacheTTL = 30 * time.Second
	statsCacheKey = "recipient-stats"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo       *echo.Echo
	Group      *echo.Group
	DS         datastore.Interface
	Settings   *conf.Settings
	Handler    *alert.Handler
	Metrics    *observability.Metrics
	apiLogger  *slog.Logger
	statsCache *cache.Cache
	startTime  time.Time
}

// New creates the API controller and registers all routes.
func New(settings *conf.Settings, ds datastore.Interface, handler *alert.Handler, metrics *observability.Metrics) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if settings.Upload.MaxSize > 0 {
		e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
			// Header and multipart framing overhead on top of the image itself
			Limit: strconv.FormatInt(settings.Upload.MaxSize+1024*1024, 10),
		}))
	}

	c := &Controller{
		Echo:       e,
		DS:         ds,
		Settings:   settings,
		Handler:    handler,
		Metrics:    metrics,
		apiLogger:  logging.ForService("api"),
		statsCache: cache.New(statsCacheTTL, 2*statsCacheTTL),
		startTime:  time.Now(),
	}

	c.Group = e.Group("/api/v2")
	c.initRoutes()

	return c
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Echo.GET("/healthz", c.HealthCheck)
	if c.Metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(
			promhttp.HandlerFor(c.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	c.Group.POST("/recipients", c.RegisterRecipient)
	c.Group.GET("/recipients", c.GetRecipients)
	c.Group.GET("/recipients/location/:code", c.GetRecipientsByLocation)
	c.Group.GET("/recipients/stats", c.GetRecipientStats)

	c.Group.POST("/detect", c.DetectWildlife)
}

// Start begins serving on the configured port. Blocks until shutdown.
func (c *Controller) Start() error {
	return c.Echo.Start(":" + c.Settings.WebServer.Port)
}

// Shutdown stops the HTTP server gracefully.
func (c *Controller) Shutdown(ctx context.Context) error {
	return c.Echo.Shutdown(ctx)
}

// HealthCheck handles the API health check endpoint
func (c *Controller) HealthCheck(ctx echo.Context) error {
	response := map[string]any{
		"status":    "healthy",
		"version":   c.Settings.Version,
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(c.startTime).String(),
	}

	dbStatus := "connected"
	if _, err := c.DS.Stats(ctx.Request().Context()); err != nil {
		dbStatus = "disconnected"
		response["database_error"] = err.Error()
	}
	response["database_status"] = dbStatus

	return ctx.JSON(http.StatusOK, response)
}

// ErrorResponse is the error envelope returned by every failing endpoint.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	correlationID := generateCorrelationID()

	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
}

// generateCorrelationID creates a short unique identifier for error tracking
// using cryptographic randomness.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError constructs and returns an appropriate error response
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	if c.apiLogger != nil {
		var errorStr string
		if err != nil {
			errorStr = err.Error()
		} else {
			errorStr = message
		}
		c.apiLogger.Error("API Error",
			"correlation_id", errorResp.CorrelationID,
			"message", message,
			"error", errorStr,
			"code", code,
			"path", ctx.Request().URL.Path,
			"method", ctx.Request().Method,
			"ip", ctx.RealIP(),
		)
	}

	return ctx.JSON(code, errorResp)
}

// statusForError maps the error taxonomy onto HTTP status codes. The core
// signals structured error kinds; only this boundary layer knows about HTTP.
func statusForError(err error) int {
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryDetection, errors.CategoryTimeout, errors.CategoryNetwork:
		return http.StatusBadGateway
	case errors.CategoryDatabase:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
