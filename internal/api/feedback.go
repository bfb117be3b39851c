// feedback.go: admin feedback intake endpoint
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sportea/modtune/internal/datastore"
	"github.com/sportea/modtune/internal/errors"
	"github.com/sportea/modtune/internal/learning"
)

// FeedbackResponse is the envelope returned after processing one feedback
// event. Adjustment is omitted when no threshold moved.
type FeedbackResponse struct {
	Success     bool                        `json:"success"`
	SignalID    uint                        `json:"signal_id"`
	ReferenceID string                      `json:"reference_id"`
	Adjustment  *learning.AppliedAdjustment `json:"adjustment,omitempty"`
}

// PostFeedback accepts one admin decision and runs the learning pipeline.
// Validation problems and missing contexts map to 4xx; persistence failures
// map to 500 so the admin UI can retry.
func (c *Controller) PostFeedback(ctx echo.Context) error {
	var fb learning.Feedback
	if err := ctx.Bind(&fb); err != nil {
		return c.HandleError(ctx, err, "Invalid feedback payload", http.StatusBadRequest)
	}

	result, err := c.Engine.ProcessFeedback(&fb)
	if err != nil {
		switch {
		case errors.Is(err, datastore.ErrContextNotFound):
			return c.HandleError(ctx, err, "Learning context not found", http.StatusNotFound)
		case errors.Is(err, datastore.ErrSignalAlreadyProcessed):
			return c.HandleError(ctx, err, "Signal already processed", http.StatusConflict)
		case errors.Is(err, datastore.ErrTierOrderViolation):
			return c.HandleError(ctx, err, "Adjustment would invert threshold ordering", http.StatusConflict)
		}
		var enhanced *errors.EnhancedError
		if errors.As(err, &enhanced) && enhanced.GetCategory() == string(errors.CategoryValidation) {
			return c.HandleError(ctx, err, "Invalid feedback", http.StatusBadRequest)
		}
		return c.HandleError(ctx, err, "Failed to process feedback", http.StatusInternalServerError)
	}

	c.logger.Info("feedback processed",
		"signal_id", result.SignalID,
		"reference_id", result.ReferenceID,
		"adjusted", result.Adjustment != nil,
		"ip", ctx.RealIP())

	return ctx.JSON(http.StatusOK, &FeedbackResponse{
		Success:     true,
		SignalID:    result.SignalID,
		ReferenceID: result.ReferenceID,
		Adjustment:  result.Adjustment,
	})
}
