// reporter.go: aggregates the audit trail for operational dashboards
package learning

import (
	"math"
	"time"
)

// reportingWindow bounds the "recent" slice of the audit trail.
const reportingWindow = 7 * 24 * time.Hour

// GetPerformanceMetrics aggregates the adjustment history: a per-bucket
// summary, the raw adjustments of the last seven days, the all-time count and
// the average recent magnitude. Pure read; empty history yields zeros, and
// storage failures degrade to an empty report rather than an error.
func (e *Engine) GetPerformanceMetrics() *PerformanceMetrics {
	report := &PerformanceMetrics{
		Summary:           []SummaryRow{},
		RecentAdjustments: []AdjustmentRow{},
	}
	since := e.now().Add(-reportingWindow)

	recent, err := e.ds.GetRecentAdjustments(since)
	if err != nil {
		getLogger().Warn("recent adjustments unavailable", "error", err)
		return report
	}

	var totalMagnitude float64
	for _, adj := range recent {
		totalMagnitude += math.Abs(adj.NewValue - adj.OldValue)
		report.RecentAdjustments = append(report.RecentAdjustments, AdjustmentRow{
			ContextType:   adj.ContextType,
			ContextValue:  adj.ContextValue,
			ThresholdType: adj.ThresholdType,
			OldValue:      adj.OldValue,
			NewValue:      adj.NewValue,
			Reason:        adj.AdjustmentReason,
			Confidence:    adj.ConfidenceScore,
			CreatedAt:     adj.CreatedAt.Format(time.RFC3339),
		})
	}
	if len(recent) > 0 {
		report.AvgAdjustmentMagnitude = totalMagnitude / float64(len(recent))
	}

	if total, err := e.ds.CountAdjustments(); err == nil {
		report.TotalAdjustments = total
	} else {
		getLogger().Warn("adjustment count unavailable", "error", err)
	}

	summary, err := e.ds.GetAdjustmentSummary(since)
	if err != nil {
		getLogger().Warn("adjustment summary unavailable", "error", err)
		return report
	}
	for _, row := range summary {
		report.Summary = append(report.Summary, SummaryRow{
			ContextType:   row.ContextType,
			ThresholdType: row.ThresholdType,
			Adjustments:   row.Adjustments,
			AvgConfidence: row.AvgConfidence,
			AvgMagnitude:  row.AvgMagnitude,
		})
	}

	return report
}
