// engine.go: the adaptive threshold learning engine
package learning

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sportea/modtune/internal/conf"
	"github.com/sportea/modtune/internal/datastore"
	"github.com/sportea/modtune/internal/errors"
	"github.com/sportea/modtune/internal/observability/metrics"
)

// applyRetries bounds how many times an adjustment is retried after losing an
// optimistic concurrency race.
const applyRetries = 3

// Engine coordinates context resolution, signal construction, adjustment
// computation and bounded persistence. One instance serves all callers; all
// methods are safe for concurrent use.
type Engine struct {
	ds       datastore.Interface
	settings *conf.Settings

	paramsMu sync.RWMutex
	params   Params

	// now and rng are injectable for deterministic tests.
	now func() time.Time
	rng func() float64

	cache    *cache.Cache
	cacheTTL time.Duration

	locks contextLocks

	metrics *metrics.LearningMetrics
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithClock overrides the time source used for time-period derivation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand overrides the random source used for the exploration draw. The
// function must return values in [0,1).
func WithRand(rng func() float64) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithMetrics attaches learning metrics. All recording is nil-tolerant, so
// leaving this unset is fine.
func WithMetrics(m *metrics.LearningMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New builds an engine over the given store. Learning parameters are resolved
// once from the parameter table with configured defaults as fallback; call
// ReloadParams to pick up changes.
func New(ds datastore.Interface, settings *conf.Settings, opts ...Option) *Engine {
	e := &Engine{
		ds:       ds,
		settings: settings,
		now:      time.Now,
		rng:      rand.Float64,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.params = LoadParams(ds, settings)

	if settings != nil && settings.Learning.CacheTTLSeconds > 0 {
		e.cacheTTL = time.Duration(settings.Learning.CacheTTLSeconds) * time.Second
		// Cleanup interval 0 keeps the cache janitor goroutine out of the
		// picture; entries expire lazily on Get, which is enough for a
		// short-TTL read cache.
		e.cache = cache.New(e.cacheTTL, 0)
	}

	return e
}

// Params returns the current parameter snapshot.
func (e *Engine) Params() Params {
	e.paramsMu.RLock()
	defer e.paramsMu.RUnlock()
	return e.params
}

// ReloadParams re-resolves learning parameters from the store.
func (e *Engine) ReloadParams() {
	p := LoadParams(e.ds, e.settings)
	e.paramsMu.Lock()
	e.params = p
	e.paramsMu.Unlock()

	getLogger().Info("learning parameters reloaded",
		"learning_rate", p.LearningRate,
		"exploration_rate", p.ExplorationRate,
		"max_adjustment_per_cycle", p.MaxAdjustmentPerCycle)
}

// GetAdaptiveThresholds resolves the threshold triple for a request. It never
// returns an error: a storage failure degrades to the static safe triple so
// the moderation caller always gets a usable answer.
func (e *Engine) GetAdaptiveThresholds(attrs *ContextAttributes) *Thresholds {
	if attrs == nil {
		attrs = &ContextAttributes{}
	}

	key := e.cacheKey(attrs)
	if e.cache != nil {
		if cached, found := e.cache.Get(key); found {
			e.metrics.RecordCacheOp("hit")
			if t, ok := cached.(Thresholds); ok {
				resolved := t
				return &resolved
			}
		}
		e.metrics.RecordCacheOp("miss")
	}

	resolved := e.resolveThresholds(attrs)

	if e.cache != nil {
		e.cache.Set(key, *resolved, e.cacheTTL)
	}
	return resolved
}

// resolveThresholds runs the uncached resolution chain: stored context, then
// global moderation defaults, then the static fallback.
func (e *Engine) resolveThresholds(attrs *ContextAttributes) *Thresholds {
	tc, err := e.lookupContext(attrs)
	if err != nil {
		getLogger().Warn("context resolution failed, serving static fallback",
			"error", err)
		e.metrics.RecordThresholdLookup("fallback")
		return staticFallback()
	}

	if tc != nil {
		e.metrics.RecordThresholdLookup("context")
		contextID := tc.ID
		return &Thresholds{
			HighRisk:        tc.HighRiskThreshold,
			MediumRisk:      tc.MediumRiskThreshold,
			LowRisk:         tc.LowRiskThreshold,
			ContextID:       &contextID,
			LearningEnabled: tc.LearningEnabled,
		}
	}

	defaults, err := e.ds.GetModerationDefaults()
	if err != nil {
		getLogger().Warn("moderation defaults unavailable, serving static fallback",
			"error", err)
		e.metrics.RecordThresholdLookup("fallback")
		return staticFallback()
	}

	e.metrics.RecordThresholdLookup("global")
	return &Thresholds{
		HighRisk:        defaults.HighRiskThreshold,
		MediumRisk:      defaults.MediumRiskThreshold,
		LowRisk:         defaults.LowRiskThreshold,
		ContextID:       nil,
		LearningEnabled: false,
	}
}

// cacheKey builds the read-cache key from the resolvable attributes.
func (e *Engine) cacheKey(attrs *ContextAttributes) string {
	timePeriod := attrs.TimePeriod
	if timePeriod == "" {
		timePeriod = timePeriodForHour(e.now().Hour())
	}
	languageMix := attrs.LanguageMix
	if languageMix == "" {
		languageMix = DefaultLanguageMix
	}
	return fmt.Sprintf("%s|%s|%s|%s", attrs.SportID, attrs.UserID, timePeriod, languageMix)
}

// ProcessFeedback runs the full learning pipeline for one admin decision:
// persist the signal, compute the proposed adjustment, and apply it under the
// tier's safety bounds. A nil Adjustment in the result means the signal was
// recorded but no threshold moved.
func (e *Engine) ProcessFeedback(fb *Feedback) (*FeedbackResult, error) {
	start := time.Now()

	if err := validateFeedback(fb); err != nil {
		e.metrics.RecordFeedbackError("validate")
		return nil, err
	}

	signalType := signalTypeForDecision(fb.AdminDecision)
	outcome := classifyOutcome(signalType, fb.OriginalScore, fb.OriginalThreshold)

	signal := buildSignal(fb, outcome)
	if err := e.ds.SaveLearningSignal(signal); err != nil {
		e.metrics.RecordFeedbackError("save_signal")
		return nil, err
	}
	e.metrics.RecordSignal(signalType, outcome.String())

	result := &FeedbackResult{
		SignalID:    signal.ID,
		ReferenceID: signal.ReferenceID,
	}

	applied, err := e.applyProposal(fb, signal, outcome)
	if err != nil {
		e.metrics.RecordFeedbackError("apply")
		return nil, err
	}
	result.Adjustment = applied

	e.updateUserPattern(fb)

	e.metrics.RecordFeedbackDuration(time.Since(start).Seconds())
	return result, nil
}

// applyProposal computes the adjustment a signal proposes and applies it
// transactionally. Returns nil with no error when nothing should move.
func (e *Engine) applyProposal(fb *Feedback, signal *datastore.LearningSignal, outcome decisionOutcome) (*AppliedAdjustment, error) {
	if e.settings != nil && !e.settings.Learning.Enabled {
		e.metrics.RecordAdjustmentSkipped("learning_disabled")
		return nil, nil
	}

	proposal := computeAdjustment(signal, outcome, e.Params(), e.rng)
	if proposal == nil {
		e.metrics.RecordAdjustmentSkipped("below_floor")
		getLogger().Debug("adjustment below no-op floor, signal recorded only",
			"signal_id", signal.ID,
			"outcome", outcome.String())
		return nil, nil
	}
	if proposal.explored {
		e.metrics.RecordExploration()
	}

	if fb.ContextID == nil {
		// A computed adjustment with nowhere to land is a caller error:
		// the feedback referenced no learning context.
		e.metrics.RecordFeedbackError("no_context")
		return nil, datastore.ErrContextNotFound
	}

	minBound, maxBound := tierBounds(proposal.thresholdType)
	enforceTierOrder := e.settings != nil && e.settings.Learning.EnforceTierOrder

	req := &datastore.AdjustmentRequest{
		ContextID:        *fb.ContextID,
		ThresholdType:    proposal.thresholdType,
		Magnitude:        proposal.magnitude,
		MinBound:         minBound,
		MaxBound:         maxBound,
		Reason:           adjustmentReason(signal.SignalType, proposal.magnitude),
		Confidence:       signal.ConfidenceLevel * signal.SignalStrength,
		AlgorithmVersion: AlgorithmVersion,
		SignalID:         signal.ID,
		EnforceTierOrder: enforceTierOrder,
	}

	applied, err := e.applyWithRetry(*fb.ContextID, req)
	if err != nil {
		return nil, err
	}

	applied.Explored = proposal.explored
	return applied, nil
}

// applyWithRetry serializes same-context applications in-process and retries
// a bounded number of times when a cross-process writer wins the version race.
func (e *Engine) applyWithRetry(contextID uint, req *datastore.AdjustmentRequest) (*AppliedAdjustment, error) {
	lock := e.locks.forContext(contextID)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < applyRetries; attempt++ {
		res, err := e.ds.ApplyThresholdAdjustment(req)
		if err != nil {
			if errors.Is(err, datastore.ErrConcurrentUpdate) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return e.recordApplied(req, res), nil
	}
	return nil, lastErr
}

// recordApplied converts a store result into the caller-facing adjustment and
// records its metrics and cache invalidation.
func (e *Engine) recordApplied(req *datastore.AdjustmentRequest, res *datastore.AdjustmentResult) *AppliedAdjustment {
	delta := res.NewValue - res.OldValue
	direction := "decrease"
	if delta > 0 {
		direction = "increase"
	}
	e.metrics.RecordAdjustmentApplied(res.Context.ContextType, req.ThresholdType, direction, delta)

	if e.cache != nil {
		// Resolution depends on attributes, not context ids, so drop the
		// whole read cache rather than chase derived keys.
		e.cache.Flush()
		e.metrics.RecordCacheOp("invalidate")
	}

	getLogger().Info("threshold adjusted",
		"context_type", res.Context.ContextType,
		"context_identifier", res.Context.ContextIdentifier,
		"threshold_type", req.ThresholdType,
		"old_value", res.OldValue,
		"new_value", res.NewValue,
		"confidence", req.Confidence)

	return &AppliedAdjustment{
		ContextID:     res.Context.ID,
		ContextType:   res.Context.ContextType,
		ContextValue:  res.Context.ContextIdentifier,
		ThresholdType: req.ThresholdType,
		OldValue:      res.OldValue,
		NewValue:      res.NewValue,
		Reason:        req.Reason,
		Confidence:    req.Confidence,
	}
}

// updateUserPattern bumps the submitting user's decision counters.
// Best-effort: a failure here never fails the feedback request.
func (e *Engine) updateUserPattern(fb *Feedback) {
	if fb.UserPatternID == nil {
		return
	}
	approved := fb.AdminDecision == DecisionApprove
	if err := e.ds.IncrementUserPattern(*fb.UserPatternID, approved); err != nil {
		getLogger().Warn("user pattern update failed",
			"pattern_id", *fb.UserPatternID,
			"error", err)
	}
}

// validateFeedback rejects malformed feedback before anything is persisted.
func validateFeedback(fb *Feedback) error {
	if fb == nil {
		return errors.Newf("feedback cannot be nil").
			Component("learning").
			Category(errors.CategoryValidation).
			Build()
	}
	if fb.AdminDecision != DecisionApprove && fb.AdminDecision != DecisionReject {
		return errors.Newf("admin decision must be %q or %q, got %q",
			DecisionApprove, DecisionReject, fb.AdminDecision).
			Component("learning").
			Category(errors.CategoryValidation).
			Context("admin_decision", fb.AdminDecision).
			Build()
	}
	if fb.OriginalScore < 0 || fb.OriginalScore > 1 {
		return errors.Newf("original score must be in [0,1], got %g", fb.OriginalScore).
			Component("learning").
			Category(errors.CategoryValidation).
			Context("original_score", fb.OriginalScore).
			Build()
	}
	if fb.OriginalThreshold < 0 || fb.OriginalThreshold > 1 {
		return errors.Newf("original threshold must be in [0,1], got %g", fb.OriginalThreshold).
			Component("learning").
			Category(errors.CategoryValidation).
			Context("original_threshold", fb.OriginalThreshold).
			Build()
	}
	return nil
}

// contextLocks hands out one mutex per context id so same-context adjustments
// serialize while different contexts proceed in parallel.
type contextLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func (c *contextLocks) forContext(id uint) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks == nil {
		c.locks = make(map[uint]*sync.Mutex)
	}
	lock, ok := c.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[id] = lock
	}
	return lock
}
