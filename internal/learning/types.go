// types.go: request and result types exchanged with the engine's callers
package learning

// AlgorithmVersion is stamped on every history row so audit consumers can
// distinguish adjustments made under different update rules.
const AlgorithmVersion = "v1.0"

// Admin decisions accepted by ProcessFeedback.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Reputation tiers derived from completed hosted activities.
const (
	ReputationNewUser         = "new_user"
	ReputationRegularUser     = "regular_user"
	ReputationExperiencedUser = "experienced_user"
)

// Time-of-day buckets derived from the current hour.
const (
	TimePeriodPeakHours = "peak_hours"
	TimePeriodDayHours  = "day_hours"
	TimePeriodOffHours  = "off_hours"
)

// DefaultLanguageMix is assumed when the caller supplies no language mix.
const DefaultLanguageMix = "mixed_language"

// ContextAttributes is the loosely populated attribute bag a moderation-scoring
// caller provides when asking for thresholds. All fields are optional.
type ContextAttributes struct {
	SportID       string `json:"sport_id"`
	UserID        string `json:"user_id"`
	ContentLength int    `json:"content_length"`
	LanguageMix   string `json:"language_mix"`
	TimePeriod    string `json:"time_period"`
}

// Thresholds is the resolved risk threshold triple returned to moderation
// callers. ContextID is nil when the triple came from global defaults or the
// static fallback.
type Thresholds struct {
	HighRisk        float64 `json:"high_risk"`
	MediumRisk      float64 `json:"medium_risk"`
	LowRisk         float64 `json:"low_risk"`
	ContextID       *uint   `json:"context_id"`
	LearningEnabled bool    `json:"learning_enabled"`
}

// Feedback is one admin decision on a flagged item, as submitted by the
// moderation UI.
type Feedback struct {
	ModerationResultID string  `json:"moderation_result_id"`
	QueueItemID        string  `json:"queue_item_id"`
	AdminDecision      string  `json:"admin_decision"` // approve or reject
	OriginalScore      float64 `json:"original_score"`
	OriginalThreshold  float64 `json:"original_threshold"`
	ContextID          *uint   `json:"context_id,omitempty"`
	UserPatternID      *uint   `json:"user_pattern_id,omitempty"`
	AdminNotes         string  `json:"admin_notes,omitempty"`
}

// AppliedAdjustment describes one threshold change that was persisted.
type AppliedAdjustment struct {
	ContextID     uint    `json:"context_id"`
	ContextType   string  `json:"context_type"`
	ContextValue  string  `json:"context_value"`
	ThresholdType string  `json:"threshold_type"`
	OldValue      float64 `json:"old_value"`
	NewValue      float64 `json:"new_value"`
	Reason        string  `json:"reason"`
	Confidence    float64 `json:"confidence"`
	Explored      bool    `json:"explored"`
}

// FeedbackResult reports the outcome of one processed feedback event.
// Adjustment is nil when the computed magnitude fell below the no-op floor or
// the signal carried no context to adjust.
type FeedbackResult struct {
	SignalID    uint               `json:"signal_id"`
	ReferenceID string             `json:"reference_id"`
	Adjustment  *AppliedAdjustment `json:"adjustment,omitempty"`
}

// PerformanceMetrics aggregates the recent audit trail for dashboards.
type PerformanceMetrics struct {
	Summary                []SummaryRow    `json:"summary"`
	RecentAdjustments      []AdjustmentRow `json:"recent_adjustments"`
	TotalAdjustments       int64           `json:"total_adjustments"`
	AvgAdjustmentMagnitude float64         `json:"avg_adjustment_magnitude"`
}

// SummaryRow is one context-type/threshold-type aggregation bucket.
type SummaryRow struct {
	ContextType   string  `json:"context_type"`
	ThresholdType string  `json:"threshold_type"`
	Adjustments   int64   `json:"adjustments"`
	AvgConfidence float64 `json:"avg_confidence"`
	AvgMagnitude  float64 `json:"avg_magnitude"`
}

// AdjustmentRow is one audit trail entry in reporter output.
type AdjustmentRow struct {
	ContextType   string  `json:"context_type"`
	ContextValue  string  `json:"context_value"`
	ThresholdType string  `json:"threshold_type"`
	OldValue      float64 `json:"old_value"`
	NewValue      float64 `json:"new_value"`
	Reason        string  `json:"reason"`
	Confidence    float64 `json:"confidence"`
	CreatedAt     string  `json:"created_at"`
}

// decisionOutcome classifies one admin decision against the score and
// threshold that were in force, computed once and reused for strength,
// direction and reason text.
type decisionOutcome int

const (
	outcomeFalsePositive decisionOutcome = iota // approval of an item the score flagged
	outcomeFalseNegative                        // rejection of an item the score passed
	outcomeConfirmedCorrect                     // admin agreed with the score
)

// String returns the outcome label used in logs and metrics.
func (o decisionOutcome) String() string {
	switch o {
	case outcomeFalsePositive:
		return "false_positive"
	case outcomeFalseNegative:
		return "false_negative"
	default:
		return "confirmed_correct"
	}
}
