// thresholds.go: threshold resolution endpoint for moderation callers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sportea/modtune/internal/learning"
)

// GetThresholds resolves the adaptive threshold triple for the caller's
// context attributes. Resolution never fails; a degraded store yields the
// static safe triple.
func (c *Controller) GetThresholds(ctx echo.Context) error {
	attrs := &learning.ContextAttributes{
		SportID:     ctx.QueryParam("sport_id"),
		UserID:      ctx.QueryParam("user_id"),
		LanguageMix: ctx.QueryParam("language_mix"),
		TimePeriod:  ctx.QueryParam("time_period"),
	}
	if raw := ctx.QueryParam("content_length"); raw != "" {
		if length, err := strconv.Atoi(raw); err == nil && length >= 0 {
			attrs.ContentLength = length
		}
	}

	resolved := c.Engine.GetAdaptiveThresholds(attrs)
	return ctx.JSON(http.StatusOK, resolved)
}
