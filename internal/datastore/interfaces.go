// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sportea/modtune/internal/conf"
	"github.com/sportea/modtune/internal/observability/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Sentinel errors surfaced by adjustment application. Callers compare with
// errors.Is.
var (
	ErrContextNotFound        = newSentinel("threshold context not found")
	ErrSignalAlreadyProcessed = newSentinel("learning signal already processed")
	ErrTierOrderViolation     = newSentinel("adjustment would invert threshold tier ordering")
	ErrConcurrentUpdate       = newSentinel("concurrent update detected, retry")
)

// Interface abstracts the underlying database implementation and defines the
// operations the learning engine needs.
type Interface interface {
	Open() error
	Close() error

	// Threshold contexts
	GetThresholdContext(contextType, identifier string) (*ThresholdContext, error)
	GetThresholdContextByID(id uint) (*ThresholdContext, error)
	GetAllThresholdContexts() ([]ThresholdContext, error)
	SaveThresholdContext(tc *ThresholdContext) error
	ApplyThresholdAdjustment(req *AdjustmentRequest) (*AdjustmentResult, error)

	// Learning signals
	SaveLearningSignal(signal *LearningSignal) error
	GetLearningSignal(id uint) (*LearningSignal, error)

	// Audit history
	GetRecentAdjustments(since time.Time) ([]ThresholdAdjustment, error)
	CountAdjustments() (int64, error)
	GetAdjustmentSummary(since time.Time) ([]AdjustmentSummary, error)

	// Learning parameters
	GetLearningParameter(name string) (float64, error)
	SaveLearningParameter(param *LearningParameter) error

	// User behavior patterns
	IncrementUserPattern(patternID uint, approved bool) error
	GetUserBehaviorPattern(userID string) (*UserBehaviorPattern, error)

	// Collaborator reads
	GetModerationDefaults() (*ModerationSettings, error)
	CountCompletedHostedActivities(hostID string) (int64, error)
}

// AdjustmentRequest carries everything the store needs to apply one bounded
// threshold adjustment as a single transaction.
type AdjustmentRequest struct {
	ContextID        uint
	ThresholdType    string  // high_risk, medium_risk or low_risk
	Magnitude        float64 // signed, already clamped to the per-cycle cap
	MinBound         float64 // tier safety bound, inclusive
	MaxBound         float64 // tier safety bound, inclusive
	Reason           string
	Confidence       float64
	AlgorithmVersion string
	SignalID         uint
	EnforceTierOrder bool
}

// AdjustmentResult reports the applied adjustment.
type AdjustmentResult struct {
	OldValue   float64
	NewValue   float64
	Context    *ThresholdContext
	Adjustment *ThresholdAdjustment
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB      *gorm.DB
	metrics *metrics.DatastoreMetrics
}

// New creates a new datastore instance based on the provided settings.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// SetMetrics attaches datastore metrics. Safe to leave unset; all recording
// helpers are nil-tolerant.
func (ds *DataStore) SetMetrics(m *metrics.DatastoreMetrics) {
	ds.metrics = m
}

// recordOp records one database operation outcome.
func (ds *DataStore) recordOp(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ds.metrics.RecordOperation(operation, status, time.Since(start).Seconds())
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(
		&ThresholdContext{},
		&LearningSignal{},
		&ThresholdAdjustment{},
		&LearningParameter{},
		&UserBehaviorPattern{},
		&ModerationSettings{},
		&HostedActivity{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}

	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}

// tierColumn maps a threshold type to its context table column.
func tierColumn(thresholdType string) (string, error) {
	switch thresholdType {
	case ThresholdTypeHighRisk:
		return "high_risk_threshold", nil
	case ThresholdTypeMediumRisk:
		return "medium_risk_threshold", nil
	case ThresholdTypeLowRisk:
		return "low_risk_threshold", nil
	default:
		return "", validationError("unknown threshold type", "threshold_type", thresholdType)
	}
}

// tierValue reads the tier's current value from a context row.
func tierValue(tc *ThresholdContext, thresholdType string) (float64, error) {
	switch thresholdType {
	case ThresholdTypeHighRisk:
		return tc.HighRiskThreshold, nil
	case ThresholdTypeMediumRisk:
		return tc.MediumRiskThreshold, nil
	case ThresholdTypeLowRisk:
		return tc.LowRiskThreshold, nil
	default:
		return 0, validationError("unknown threshold type", "threshold_type", thresholdType)
	}
}
