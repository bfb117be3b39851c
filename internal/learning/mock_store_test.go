package learning

import (
	"fmt"
	"sync"
	"time"

	"github.com/sportea/modtune/internal/datastore"
)

// fakeStore is an in-memory datastore.Interface for engine tests. The
// adjustment application releases its lock between read and write so lost
// updates are observable if the engine fails to serialize.
type fakeStore struct {
	mu sync.Mutex

	contexts    map[uint]*datastore.ThresholdContext
	signals     map[uint]*datastore.LearningSignal
	history     []datastore.ThresholdAdjustment
	params      map[string]float64
	increments  map[uint]int
	activities  map[string]int64
	defaults    *datastore.ModerationSettings
	nextSignal  uint
	nextContext uint

	// applyDelay widens the read-modify-write window in ApplyThresholdAdjustment.
	applyDelay time.Duration

	failContextLookup bool
	failDefaults      bool
	failHistory       bool
	failSaveSignal    bool
	failIncrement     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contexts:   make(map[uint]*datastore.ThresholdContext),
		signals:    make(map[uint]*datastore.LearningSignal),
		params:     make(map[string]float64),
		increments: make(map[uint]int),
		activities: make(map[string]int64),
	}
}

func (f *fakeStore) addContext(tc datastore.ThresholdContext) *datastore.ThresholdContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextContext++
	tc.ID = f.nextContext
	f.contexts[tc.ID] = &tc
	return &tc
}

func (f *fakeStore) Open() error  { return nil }
func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) GetThresholdContext(contextType, identifier string) (*datastore.ThresholdContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failContextLookup {
		return nil, fmt.Errorf("storage unavailable")
	}
	for _, tc := range f.contexts {
		if tc.ContextType == contextType && tc.ContextIdentifier == identifier && tc.LearningEnabled {
			copied := *tc
			return &copied, nil
		}
	}
	return nil, datastore.ErrContextNotFound
}

func (f *fakeStore) GetThresholdContextByID(id uint) (*datastore.ThresholdContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tc, ok := f.contexts[id]
	if !ok {
		return nil, datastore.ErrContextNotFound
	}
	copied := *tc
	return &copied, nil
}

func (f *fakeStore) GetAllThresholdContexts() ([]datastore.ThresholdContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]datastore.ThresholdContext, 0, len(f.contexts))
	for _, tc := range f.contexts {
		out = append(out, *tc)
	}
	return out, nil
}

func (f *fakeStore) SaveThresholdContext(tc *datastore.ThresholdContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tc.ID == 0 {
		f.nextContext++
		tc.ID = f.nextContext
	}
	copied := *tc
	f.contexts[tc.ID] = &copied
	return nil
}

func (f *fakeStore) ApplyThresholdAdjustment(req *datastore.AdjustmentRequest) (*datastore.AdjustmentResult, error) {
	f.mu.Lock()
	signal, ok := f.signals[req.SignalID]
	if !ok {
		f.mu.Unlock()
		return nil, fmt.Errorf("signal %d not found", req.SignalID)
	}
	if signal.Processed {
		f.mu.Unlock()
		return nil, datastore.ErrSignalAlreadyProcessed
	}
	tc, ok := f.contexts[req.ContextID]
	if !ok {
		f.mu.Unlock()
		return nil, datastore.ErrContextNotFound
	}
	oldValue := tierValueOf(tc, req.ThresholdType)
	f.mu.Unlock()

	// Unlocked window: a second unsynchronized caller would clobber us here.
	if f.applyDelay > 0 {
		time.Sleep(f.applyDelay)
	}

	newValue := oldValue + req.Magnitude
	if newValue < req.MinBound {
		newValue = req.MinBound
	}
	if newValue > req.MaxBound {
		newValue = req.MaxBound
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	setTierValue(tc, req.ThresholdType, newValue)
	tc.Version++
	now := time.Now()

	adjustment := datastore.ThresholdAdjustment{
		ContextType:      tc.ContextType,
		ContextValue:     tc.ContextIdentifier,
		ThresholdType:    req.ThresholdType,
		OldValue:         oldValue,
		NewValue:         newValue,
		AdjustmentReason: req.Reason,
		ConfidenceScore:  req.Confidence,
		AlgorithmVersion: req.AlgorithmVersion,
		CreatedAt:        now,
	}
	f.history = append(f.history, adjustment)

	applied := newValue - oldValue
	signal.Processed = true
	signal.ProcessingTime = &now
	signal.ThresholdAdjustmentApplied = &applied

	updated := *tc
	return &datastore.AdjustmentResult{
		OldValue:   oldValue,
		NewValue:   newValue,
		Context:    &updated,
		Adjustment: &adjustment,
	}, nil
}

func (f *fakeStore) SaveLearningSignal(signal *datastore.LearningSignal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaveSignal {
		return fmt.Errorf("storage unavailable")
	}
	f.nextSignal++
	signal.ID = f.nextSignal
	signal.CreatedAt = time.Now()
	copied := *signal
	f.signals[signal.ID] = &copied
	return nil
}

func (f *fakeStore) GetLearningSignal(id uint) (*datastore.LearningSignal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	signal, ok := f.signals[id]
	if !ok {
		return nil, fmt.Errorf("signal %d not found", id)
	}
	copied := *signal
	return &copied, nil
}

func (f *fakeStore) GetRecentAdjustments(since time.Time) ([]datastore.ThresholdAdjustment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHistory {
		return nil, fmt.Errorf("storage unavailable")
	}
	var out []datastore.ThresholdAdjustment
	for _, adj := range f.history {
		if !adj.CreatedAt.Before(since) {
			out = append(out, adj)
		}
	}
	return out, nil
}

func (f *fakeStore) CountAdjustments() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHistory {
		return 0, fmt.Errorf("storage unavailable")
	}
	return int64(len(f.history)), nil
}

func (f *fakeStore) GetAdjustmentSummary(since time.Time) ([]datastore.AdjustmentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHistory {
		return nil, fmt.Errorf("storage unavailable")
	}
	type key struct{ contextType, thresholdType string }
	buckets := make(map[key]*datastore.AdjustmentSummary)
	var order []key
	for _, adj := range f.history {
		if adj.CreatedAt.Before(since) {
			continue
		}
		k := key{adj.ContextType, adj.ThresholdType}
		bucket, ok := buckets[k]
		if !ok {
			bucket = &datastore.AdjustmentSummary{ContextType: k.contextType, ThresholdType: k.thresholdType}
			buckets[k] = bucket
			order = append(order, k)
		}
		bucket.Adjustments++
		bucket.AvgConfidence += adj.ConfidenceScore
		delta := adj.NewValue - adj.OldValue
		if delta < 0 {
			delta = -delta
		}
		bucket.AvgMagnitude += delta
	}
	out := make([]datastore.AdjustmentSummary, 0, len(order))
	for _, k := range order {
		bucket := buckets[k]
		bucket.AvgConfidence /= float64(bucket.Adjustments)
		bucket.AvgMagnitude /= float64(bucket.Adjustments)
		out = append(out, *bucket)
	}
	return out, nil
}

func (f *fakeStore) GetLearningParameter(name string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.params[name]
	if !ok {
		return 0, fmt.Errorf("parameter %s not found", name)
	}
	return v, nil
}

func (f *fakeStore) SaveLearningParameter(param *datastore.LearningParameter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params[param.ParameterName] = param.ParameterValue
	return nil
}

func (f *fakeStore) IncrementUserPattern(patternID uint, approved bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIncrement {
		return fmt.Errorf("storage unavailable")
	}
	f.increments[patternID]++
	return nil
}

func (f *fakeStore) GetUserBehaviorPattern(userID string) (*datastore.UserBehaviorPattern, error) {
	return nil, fmt.Errorf("pattern for %s not found", userID)
}

func (f *fakeStore) GetModerationDefaults() (*datastore.ModerationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDefaults || f.defaults == nil {
		return nil, fmt.Errorf("moderation settings unavailable")
	}
	copied := *f.defaults
	return &copied, nil
}

func (f *fakeStore) CountCompletedHostedActivities(hostID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count, ok := f.activities[hostID]
	if !ok {
		return 0, nil
	}
	return count, nil
}

func tierValueOf(tc *datastore.ThresholdContext, thresholdType string) float64 {
	switch thresholdType {
	case datastore.ThresholdTypeHighRisk:
		return tc.HighRiskThreshold
	case datastore.ThresholdTypeMediumRisk:
		return tc.MediumRiskThreshold
	default:
		return tc.LowRiskThreshold
	}
}

func setTierValue(tc *datastore.ThresholdContext, thresholdType string, value float64) {
	switch thresholdType {
	case datastore.ThresholdTypeHighRisk:
		tc.HighRiskThreshold = value
	case datastore.ThresholdTypeMediumRisk:
		tc.MediumRiskThreshold = value
	default:
		tc.LowRiskThreshold = value
	}
}
