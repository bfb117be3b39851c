// model.go defines the data model for the adaptive threshold learning engine
package datastore

import "time"

// Context types recognized by the resolver, in priority order.
const (
	ContextTypeSportCategory  = "sport_category"
	ContextTypeUserReputation = "user_reputation"
	ContextTypeTimePeriod     = "time_period"
	ContextTypeLanguageMix    = "language_mix"
)

// Threshold tier names as stored in history rows.
const (
	ThresholdTypeHighRisk   = "high_risk"
	ThresholdTypeMediumRisk = "medium_risk"
	ThresholdTypeLowRisk    = "low_risk"
)

// Learning signal types.
const (
	SignalTypeAdminApproval  = "admin_approval"
	SignalTypeAdminRejection = "admin_rejection"
)

// ThresholdContext is a named decision bucket holding its own risk threshold
// triple. Rows are created by seeding and mutated only by the adjustment
// pipeline; they are never deleted during normal operation.
type ThresholdContext struct {
	ID                  uint    `gorm:"primaryKey"`
	ContextType         string  `gorm:"size:32;not null;uniqueIndex:idx_context_type_identifier;index"`
	ContextIdentifier   string  `gorm:"size:128;not null;uniqueIndex:idx_context_type_identifier"`
	HighRiskThreshold   float64 `gorm:"not null"`
	MediumRiskThreshold float64 `gorm:"not null"`
	LowRiskThreshold    float64 `gorm:"not null"`
	LearningEnabled     bool    `gorm:"not null;default:true"`
	Version             int64   `gorm:"not null;default:0"` // optimistic concurrency token
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// LearningSignal is one quantified piece of evidence derived from a single
// admin decision. Immutable after processing except for the processed fields.
type LearningSignal struct {
	ID                 uint   `gorm:"primaryKey"`
	ReferenceID        string `gorm:"size:36;index"` // engine-assigned UUID for external reference
	ModerationResultID string `gorm:"size:64;index"`
	QueueItemID        string `gorm:"size:64"`
	SignalType         string `gorm:"size:24;not null;index"`
	SignalStrength     float64
	ConfidenceLevel    float64
	OriginalScore      float64
	OriginalThreshold  float64
	ContextID          *uint `gorm:"index"`
	UserPatternID      *uint
	AdminNotes         string `gorm:"type:text"`
	Processed          bool   `gorm:"not null;default:false;index"`
	ProcessingTime     *time.Time
	// ThresholdAdjustmentApplied is the actual delta written to the context
	// row, nil until the signal has been processed.
	ThresholdAdjustmentApplied *float64
	CreatedAt                  time.Time
}

// TableName keeps the original storage layout name.
func (LearningSignal) TableName() string { return "learning_feedback_signals" }

// ThresholdAdjustment is an append-only audit entry recording one applied
// adjustment. Rows are never mutated or deleted.
type ThresholdAdjustment struct {
	ID               uint   `gorm:"primaryKey"`
	ContextType      string `gorm:"size:32;index"`
	ContextValue     string `gorm:"size:128"`
	ThresholdType    string `gorm:"size:16;not null"`
	OldValue         float64
	NewValue         float64
	AdjustmentReason string `gorm:"type:text"`
	ConfidenceScore  float64
	AlgorithmVersion string    `gorm:"size:16"`
	CreatedAt        time.Time `gorm:"index"`
}

// TableName keeps the original storage layout name.
func (ThresholdAdjustment) TableName() string { return "adaptive_threshold_history" }

// LearningParameter is a named global tunable with a float value.
type LearningParameter struct {
	ID             uint   `gorm:"primaryKey"`
	ParameterName  string `gorm:"size:64;uniqueIndex;not null"`
	ParameterValue float64
	Description    string `gorm:"type:text"`
	UpdatedAt      time.Time
}

// UserBehaviorPattern holds per-user admin decision counters used as a
// secondary context-matching signal. Counters are incremented, never
// decremented.
type UserBehaviorPattern struct {
	ID              uint   `gorm:"primaryKey"`
	UserID          string `gorm:"size:64;uniqueIndex"`
	AdminApprovals  int    `gorm:"not null;default:0"`
	AdminRejections int    `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ModerationSettings is the single global defaults row read as fallback when
// no learning context matches. Owned by the moderation scorer; this engine
// only reads it.
type ModerationSettings struct {
	ID                  uint `gorm:"primaryKey"`
	HighRiskThreshold   float64
	MediumRiskThreshold float64
	LowRiskThreshold    float64
	UpdatedAt           time.Time
}

// TableName keeps the original storage layout name.
func (ModerationSettings) TableName() string { return "content_moderation_settings" }

// HostedActivity is a minimal projection of the platform's activity table,
// read only to derive user reputation tiers from completed hosted activities.
type HostedActivity struct {
	ID        uint   `gorm:"primaryKey"`
	HostID    string `gorm:"size:64;index:idx_hosted_activities_host_status"`
	Status    string `gorm:"size:24;index:idx_hosted_activities_host_status"`
	CreatedAt time.Time
}

// AdjustmentSummary is a per context-type/threshold-type aggregation over the
// audit trail, used by the performance reporter.
type AdjustmentSummary struct {
	ContextType   string  `json:"context_type"`
	ThresholdType string  `json:"threshold_type"`
	Adjustments   int64   `json:"adjustments"`
	AvgConfidence float64 `json:"avg_confidence"`
	AvgMagnitude  float64 `json:"avg_magnitude"`
}
