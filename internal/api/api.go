// Package api exposes the learning engine over HTTP: threshold resolution,
// feedback intake and the operational reporting surface.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/sportea/modtune/internal/conf"
	"github.com/sportea/modtune/internal/datastore"
	"github.com/sportea/modtune/internal/learning"
	"github.com/sportea/modtune/internal/logging"
	"github.com/sportea/modtune/internal/observability"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Engine   *learning.Engine
	Settings *conf.Settings

	logger          *slog.Logger
	loggerClose     func() error
	metrics         *observability.Metrics
	startTime       time.Time
	feedbackLimiter echo.MiddlewareFunc
}

// New creates a controller and registers all routes on the given Echo
// instance.
func New(e *echo.Echo, ds datastore.Interface, engine *learning.Engine, settings *conf.Settings, m *observability.Metrics) *Controller {
	c := &Controller{
		Echo:      e,
		DS:        ds,
		Engine:    engine,
		Settings:  settings,
		metrics:   m,
		startTime: time.Now(),
	}

	logPath := "logs/api.log"
	if settings != nil && settings.WebServer.LogPath != "" {
		logPath = settings.WebServer.LogPath
	}
	logger, closeFunc, err := logging.NewFileLogger(logPath, "api", slog.LevelInfo)
	if err != nil {
		logger = logging.ForService("api")
		closeFunc = func() error { return nil }
		logger.Warn("api file logger unavailable, using service logger",
			"log_path", logPath,
			"error", err)
	}
	c.logger = logger
	c.loggerClose = closeFunc

	c.feedbackLimiter = c.newFeedbackLimiter()
	c.initRoutes()
	return c
}

// initRoutes wires the route tree under /api/v2.
func (c *Controller) initRoutes() {
	c.Group = c.Echo.Group("/api/v2")
	c.Group.Use(middleware.Recover())

	c.Group.GET("/health", c.HealthCheck)
	c.Group.GET("/thresholds", c.GetThresholds)
	c.Group.POST("/feedback", c.PostFeedback, c.feedbackLimiter)

	learningGroup := c.Group.Group("/learning")
	learningGroup.GET("/metrics", c.GetLearningMetrics)
	learningGroup.GET("/history", c.GetAdjustmentHistory)
	learningGroup.GET("/contexts", c.GetContexts)
	learningGroup.GET("/parameters", c.GetParameters)
	learningGroup.POST("/parameters/reload", c.ReloadParameters)

	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// newFeedbackLimiter builds the per-client rate limiter guarding the feedback
// endpoint. Admin feedback is low-volume; a burst above the configured rate
// indicates a runaway client.
func (c *Controller) newFeedbackLimiter() echo.MiddlewareFunc {
	limit := rate.Limit(5)
	burst := 10
	if c.Settings != nil {
		if c.Settings.WebServer.FeedbackRateLimit > 0 {
			limit = rate.Limit(c.Settings.WebServer.FeedbackRateLimit)
		}
		if c.Settings.WebServer.FeedbackRateBurst > 0 {
			burst = c.Settings.WebServer.FeedbackRateBurst
		}
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      limit,
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
	})
}

// Shutdown releases controller resources.
func (c *Controller) Shutdown() {
	if c.loggerClose != nil {
		if err := c.loggerClose(); err != nil {
			logging.ForService("api").Warn("failed to close api log file", "error", err)
		}
	}
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// HandleError logs an error with a correlation id and sends the standard
// error envelope.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	correlationID := uuid.NewString()[:8]

	c.logger.Error(message,
		"error", err,
		"correlation_id", correlationID,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
		"code", code)

	return ctx.JSON(code, &ErrorResponse{
		Error:         err.Error(),
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	})
}

// HealthCheck reports service liveness and uptime.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime_seconds": time.Since(c.startTime).Seconds(),
	})
}
