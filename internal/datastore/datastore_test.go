package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportea/modtune/internal/conf"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := &SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func seedContext(t *testing.T, store *SQLiteStore, high, medium, low float64) *ThresholdContext {
	t.Helper()
	tc := &ThresholdContext{
		ContextType:         ContextTypeSportCategory,
		ContextIdentifier:   "5",
		HighRiskThreshold:   high,
		MediumRiskThreshold: medium,
		LowRiskThreshold:    low,
		LearningEnabled:     true,
	}
	require.NoError(t, store.SaveThresholdContext(tc))
	require.NotZero(t, tc.ID)
	return tc
}

func seedSignal(t *testing.T, store *SQLiteStore, contextID uint) *LearningSignal {
	t.Helper()
	signal := &LearningSignal{
		ReferenceID:       "ref-1",
		SignalType:        SignalTypeAdminApproval,
		SignalStrength:    0.7,
		ConfidenceLevel:   0.8,
		OriginalScore:     0.85,
		OriginalThreshold: 0.80,
		ContextID:         &contextID,
	}
	require.NoError(t, store.SaveLearningSignal(signal))
	require.NotZero(t, signal.ID)
	return signal
}

func highRiskRequest(contextID, signalID uint, magnitude float64) *AdjustmentRequest {
	return &AdjustmentRequest{
		ContextID:        contextID,
		ThresholdType:    ThresholdTypeHighRisk,
		Magnitude:        magnitude,
		MinBound:         0.70,
		MaxBound:         0.95,
		Reason:           "Admin feedback indicates false positive, increase threshold to improve accuracy",
		Confidence:       0.56,
		AlgorithmVersion: "v1.0",
		SignalID:         signalID,
	}
}

func TestSaveThresholdContextUpsert(t *testing.T) {
	store := newTestStore(t)
	tc := seedContext(t, store, 0.80, 0.50, 0.20)

	// Saving the same type/identifier again updates in place.
	update := &ThresholdContext{
		ContextType:         ContextTypeSportCategory,
		ContextIdentifier:   "5",
		HighRiskThreshold:   0.82,
		MediumRiskThreshold: 0.50,
		LowRiskThreshold:    0.20,
		LearningEnabled:     true,
	}
	require.NoError(t, store.SaveThresholdContext(update))
	assert.Equal(t, tc.ID, update.ID)

	stored, err := store.GetThresholdContext(ContextTypeSportCategory, "5")
	require.NoError(t, err)
	assert.InDelta(t, 0.82, stored.HighRiskThreshold, 1e-9)
}

func TestSaveThresholdContextPersistsZeroValues(t *testing.T) {
	store := newTestStore(t)
	tc := seedContext(t, store, 0.80, 0.50, 0.20)

	// Zero-valued fields must survive the upsert: disabling a context and
	// zeroing a threshold are legitimate writes.
	tc.LearningEnabled = false
	tc.LowRiskThreshold = 0
	require.NoError(t, store.SaveThresholdContext(tc))

	stored, err := store.GetThresholdContextByID(tc.ID)
	require.NoError(t, err)
	assert.False(t, stored.LearningEnabled)
	assert.Zero(t, stored.LowRiskThreshold)
	assert.InDelta(t, 0.80, stored.HighRiskThreshold, 1e-9)
}

func TestGetThresholdContextFiltersDisabled(t *testing.T) {
	store := newTestStore(t)
	tc := seedContext(t, store, 0.80, 0.50, 0.20)

	tc.LearningEnabled = false
	require.NoError(t, store.SaveThresholdContext(tc))

	_, err := store.GetThresholdContext(ContextTypeSportCategory, "5")
	assert.ErrorIs(t, err, ErrContextNotFound)

	// Lookup by id ignores the flag.
	byID, err := store.GetThresholdContextByID(tc.ID)
	require.NoError(t, err)
	assert.False(t, byID.LearningEnabled)
}

func TestApplyThresholdAdjustment(t *testing.T) {
	store := newTestStore(t)
	tc := seedContext(t, store, 0.80, 0.50, 0.20)
	signal := seedSignal(t, store, tc.ID)

	result, err := store.ApplyThresholdAdjustment(highRiskRequest(tc.ID, signal.ID, 0.05))
	require.NoError(t, err)
	assert.InDelta(t, 0.80, result.OldValue, 1e-9)
	assert.InDelta(t, 0.85, result.NewValue, 1e-9)
	assert.Equal(t, int64(1), result.Context.Version)

	stored, err := store.GetThresholdContextByID(tc.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, stored.HighRiskThreshold, 1e-9)
	assert.Equal(t, int64(1), stored.Version)

	processed, err := store.GetLearningSignal(signal.ID)
	require.NoError(t, err)
	assert.True(t, processed.Processed)
	require.NotNil(t, processed.ProcessingTime)
	require.NotNil(t, processed.ThresholdAdjustmentApplied)
	assert.InDelta(t, 0.05, *processed.ThresholdAdjustmentApplied, 1e-9)

	history, err := store.GetRecentAdjustments(time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ThresholdTypeHighRisk, history[0].ThresholdType)
	assert.Equal(t, "v1.0", history[0].AlgorithmVersion)
}

func TestApplyThresholdAdjustmentClampsToBounds(t *testing.T) {
	store := newTestStore(t)
	tc := seedContext(t, store, 0.94, 0.50, 0.20)
	signal := seedSignal(t, store, tc.ID)

	result, err := store.ApplyThresholdAdjustment(highRiskRequest(tc.ID, signal.ID, 0.30))
	require.NoError(t, err)
	assert.InDelta(t, 0.95, result.NewValue, 1e-9)
}

func TestApplyThresholdAdjustmentIdempotence(t *testing.T) {
	store := newTestStore(t)
	tc := seedContext(t, store, 0.80, 0.50, 0.20)
	signal := seedSignal(t, store, tc.ID)

	_, err := store.ApplyThresholdAdjustment(highRiskRequest(tc.ID, signal.ID, 0.05))
	require.NoError(t, err)

	_, err = store.ApplyThresholdAdjustment(highRiskRequest(tc.ID, signal.ID, 0.05))
	assert.ErrorIs(t, err, ErrSignalAlreadyProcessed)

	stored, err := store.GetThresholdContextByID(tc.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, stored.HighRiskThreshold, 1e-9)

	count, err := store.CountAdjustments()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestApplyThresholdAdjustmentMissingContext(t *testing.T) {
	store := newTestStore(t)
	tc := seedContext(t, store, 0.80, 0.50, 0.20)
	signal := seedSignal(t, store, tc.ID)

	_, err := store.ApplyThresholdAdjustment(highRiskRequest(tc.ID+100, signal.ID, 0.05))
	assert.ErrorIs(t, err, ErrContextNotFound)

	// Nothing was applied: the signal stays claimable.
	stored, err := store.GetLearningSignal(signal.ID)
	require.NoError(t, err)
	assert.False(t, stored.Processed)
}

func TestApplyThresholdAdjustmentTierOrder(t *testing.T) {
	store := newTestStore(t)
	tc := seedContext(t, store, 0.72, 0.71, 0.20)
	signal := seedSignal(t, store, tc.ID)

	req := highRiskRequest(tc.ID, signal.ID, -0.02)
	req.EnforceTierOrder = true
	_, err := store.ApplyThresholdAdjustment(req)
	assert.ErrorIs(t, err, ErrTierOrderViolation)

	// Without enforcement the same adjustment goes through.
	req.EnforceTierOrder = false
	result, err := store.ApplyThresholdAdjustment(req)
	require.NoError(t, err)
	assert.InDelta(t, 0.70, result.NewValue, 1e-9)
}

func TestApplyThresholdAdjustmentUnknownTier(t *testing.T) {
	store := newTestStore(t)
	tc := seedContext(t, store, 0.80, 0.50, 0.20)
	signal := seedSignal(t, store, tc.ID)

	req := highRiskRequest(tc.ID, signal.ID, 0.05)
	req.ThresholdType = "extreme_risk"
	_, err := store.ApplyThresholdAdjustment(req)
	assert.Error(t, err)
}

func TestLearningParameterRoundTrip(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetLearningParameter("global_learning_rate")
	assert.Error(t, err)

	require.NoError(t, store.SaveLearningParameter(&LearningParameter{
		ParameterName:  "global_learning_rate",
		ParameterValue: 0.1,
	}))
	value, err := store.GetLearningParameter("global_learning_rate")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, value, 1e-9)

	// Saving again updates rather than duplicating.
	require.NoError(t, store.SaveLearningParameter(&LearningParameter{
		ParameterName:  "global_learning_rate",
		ParameterValue: 0.2,
	}))
	value, err = store.GetLearningParameter("global_learning_rate")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, value, 1e-9)
}

func TestIncrementUserPattern(t *testing.T) {
	store := newTestStore(t)

	pattern := &UserBehaviorPattern{UserID: "user-1"}
	require.NoError(t, store.DB.Create(pattern).Error)

	require.NoError(t, store.IncrementUserPattern(pattern.ID, true))
	require.NoError(t, store.IncrementUserPattern(pattern.ID, true))
	require.NoError(t, store.IncrementUserPattern(pattern.ID, false))

	stored, err := store.GetUserBehaviorPattern("user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.AdminApprovals)
	assert.Equal(t, 1, stored.AdminRejections)

	err = store.IncrementUserPattern(pattern.ID+100, true)
	assert.Error(t, err)
}

func TestGetAdjustmentSummary(t *testing.T) {
	store := newTestStore(t)
	tc := seedContext(t, store, 0.80, 0.50, 0.20)

	first := seedSignal(t, store, tc.ID)
	_, err := store.ApplyThresholdAdjustment(highRiskRequest(tc.ID, first.ID, 0.05))
	require.NoError(t, err)

	second := seedSignal(t, store, tc.ID)
	_, err = store.ApplyThresholdAdjustment(highRiskRequest(tc.ID, second.ID, -0.03))
	require.NoError(t, err)

	summary, err := store.GetAdjustmentSummary(time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, ContextTypeSportCategory, summary[0].ContextType)
	assert.Equal(t, int64(2), summary[0].Adjustments)
	assert.InDelta(t, 0.04, summary[0].AvgMagnitude, 1e-9)
}

func TestCountCompletedHostedActivities(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.DB.Create(&HostedActivity{HostID: "host-1", Status: "completed"}).Error)
	}
	require.NoError(t, store.DB.Create(&HostedActivity{HostID: "host-1", Status: "cancelled"}).Error)

	count, err := store.CountCompletedHostedActivities("host-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = store.CountCompletedHostedActivities("host-2")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetModerationDefaults(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetModerationDefaults()
	assert.Error(t, err)

	require.NoError(t, store.DB.Create(&ModerationSettings{
		HighRiskThreshold:   0.8,
		MediumRiskThreshold: 0.5,
		LowRiskThreshold:    0.2,
	}).Error)

	defaults, err := store.GetModerationDefaults()
	require.NoError(t, err)
	assert.InDelta(t, 0.8, defaults.HighRiskThreshold, 1e-9)
}
