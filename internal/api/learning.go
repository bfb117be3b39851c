// learning.go: operational reporting endpoints over the learning engine
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// maxHistoryDays caps how far back the history endpoint will scan.
const maxHistoryDays = 90

// GetLearningMetrics returns the aggregated performance report.
func (c *Controller) GetLearningMetrics(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.Engine.GetPerformanceMetrics())
}

// GetAdjustmentHistory returns raw audit-trail rows. The optional days query
// parameter widens the window from its 7-day default.
func (c *Controller) GetAdjustmentHistory(ctx echo.Context) error {
	days := 7
	if raw := ctx.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxHistoryDays {
			return c.HandleError(ctx, echo.NewHTTPError(http.StatusBadRequest),
				"days must be between 1 and 90", http.StatusBadRequest)
		}
		days = parsed
	}

	since := time.Now().AddDate(0, 0, -days)
	adjustments, err := c.DS.GetRecentAdjustments(since)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read adjustment history", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"since":       since.Format(time.RFC3339),
		"count":       len(adjustments),
		"adjustments": adjustments,
	})
}

// GetContexts lists every threshold context row for the admin surface.
func (c *Controller) GetContexts(ctx echo.Context) error {
	contexts, err := c.DS.GetAllThresholdContexts()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list threshold contexts", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"count":    len(contexts),
		"contexts": contexts,
	})
}

// GetParameters returns the engine's current learning parameter snapshot.
func (c *Controller) GetParameters(ctx echo.Context) error {
	params := c.Engine.Params()
	return ctx.JSON(http.StatusOK, map[string]float64{
		"learning_rate":            params.LearningRate,
		"exploration_rate":         params.ExplorationRate,
		"max_adjustment_per_cycle": params.MaxAdjustmentPerCycle,
	})
}

// ReloadParameters re-resolves learning parameters from the store.
func (c *Controller) ReloadParameters(ctx echo.Context) error {
	c.Engine.ReloadParams()
	return c.GetParameters(ctx)
}
