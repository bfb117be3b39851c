// history.go: read operations over the append-only adjustment audit trail
package datastore

import (
	"time"

	"github.com/sportea/modtune/internal/errors"
)

// GetRecentAdjustments returns history rows created at or after since, newest
// first.
func (ds *DataStore) GetRecentAdjustments(since time.Time) ([]ThresholdAdjustment, error) {
	start := time.Now()
	var adjustments []ThresholdAdjustment
	err := ds.DB.Where("created_at >= ?", since).
		Order("created_at DESC").
		Find(&adjustments).Error
	ds.recordOp("get_recent_adjustments", start, err)
	if err != nil {
		return nil, dbError(err, "get_recent_adjustments", errors.PriorityMedium,
			"since", since.Format(time.RFC3339),
			"table", "adaptive_threshold_history")
	}
	return adjustments, nil
}

// CountAdjustments returns the total number of history rows.
func (ds *DataStore) CountAdjustments() (int64, error) {
	start := time.Now()
	var count int64
	err := ds.DB.Model(&ThresholdAdjustment{}).Count(&count).Error
	ds.recordOp("count_adjustments", start, err)
	if err != nil {
		return 0, dbError(err, "count_adjustments", errors.PriorityMedium,
			"table", "adaptive_threshold_history")
	}
	return count, nil
}

// GetAdjustmentSummary aggregates history rows since the given time by
// context type and threshold type.
func (ds *DataStore) GetAdjustmentSummary(since time.Time) ([]AdjustmentSummary, error) {
	start := time.Now()
	var summary []AdjustmentSummary
	err := ds.DB.Model(&ThresholdAdjustment{}).
		Select("context_type, threshold_type, COUNT(*) AS adjustments, "+
			"AVG(confidence_score) AS avg_confidence, "+
			"AVG(ABS(new_value - old_value)) AS avg_magnitude").
		Where("created_at >= ?", since).
		Group("context_type, threshold_type").
		Order("context_type ASC, threshold_type ASC").
		Scan(&summary).Error
	ds.recordOp("get_adjustment_summary", start, err)
	if err != nil {
		return nil, dbError(err, "get_adjustment_summary", errors.PriorityMedium,
			"since", since.Format(time.RFC3339),
			"table", "adaptive_threshold_history")
	}
	return summary, nil
}
