// Package metrics provides Prometheus metric collectors for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LearningMetrics contains Prometheus metrics for the adaptive threshold
// learning engine.
type LearningMetrics struct {
	thresholdLookupsTotal    *prometheus.CounterVec
	signalsTotal             *prometheus.CounterVec
	adjustmentsAppliedTotal  *prometheus.CounterVec
	adjustmentsSkippedTotal  *prometheus.CounterVec
	adjustmentMagnitudeHist  *prometheus.HistogramVec
	feedbackErrorsTotal      *prometheus.CounterVec
	feedbackDurationSeconds  prometheus.Histogram
	thresholdCacheOpsTotal   *prometheus.CounterVec
	explorationTriggersTotal prometheus.Counter
}

// NewLearningMetrics creates and registers learning engine metrics.
func NewLearningMetrics(registry *prometheus.Registry) (*LearningMetrics, error) {
	m := &LearningMetrics{
		thresholdLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modtune_threshold_lookups_total",
			Help: "Threshold lookups by resolution source (context, global, fallback)",
		}, []string{"source"}),
		signalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modtune_learning_signals_total",
			Help: "Learning signals built, by signal type and decision outcome",
		}, []string{"signal_type", "outcome"}),
		adjustmentsAppliedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modtune_adjustments_applied_total",
			Help: "Applied threshold adjustments by context type, threshold type and direction",
		}, []string{"context_type", "threshold_type", "direction"}),
		adjustmentsSkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modtune_adjustments_skipped_total",
			Help: "Adjustments skipped before application, by reason",
		}, []string{"reason"}),
		adjustmentMagnitudeHist: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modtune_adjustment_magnitude",
			Help:    "Absolute applied adjustment magnitude",
			Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1},
		}, []string{"threshold_type"}),
		feedbackErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modtune_feedback_errors_total",
			Help: "Feedback processing failures by pipeline stage",
		}, []string{"stage"}),
		feedbackDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "modtune_feedback_duration_seconds",
			Help:    "End to end feedback processing duration",
			Buckets: prometheus.DefBuckets,
		}),
		thresholdCacheOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modtune_threshold_cache_operations_total",
			Help: "Threshold cache operations by result (hit, miss, invalidate)",
		}, []string{"result"}),
		explorationTriggersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modtune_exploration_triggers_total",
			Help: "Number of adjustments amplified by the exploration factor",
		}),
	}

	collectors := []prometheus.Collector{
		m.thresholdLookupsTotal,
		m.signalsTotal,
		m.adjustmentsAppliedTotal,
		m.adjustmentsSkippedTotal,
		m.adjustmentMagnitudeHist,
		m.feedbackErrorsTotal,
		m.feedbackDurationSeconds,
		m.thresholdCacheOpsTotal,
		m.explorationTriggersTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordThresholdLookup records a threshold lookup and its resolution source.
func (m *LearningMetrics) RecordThresholdLookup(source string) {
	if m == nil {
		return
	}
	m.thresholdLookupsTotal.WithLabelValues(source).Inc()
}

// RecordSignal records a built learning signal.
func (m *LearningMetrics) RecordSignal(signalType, outcome string) {
	if m == nil {
		return
	}
	m.signalsTotal.WithLabelValues(signalType, outcome).Inc()
}

// RecordAdjustmentApplied records an applied adjustment.
func (m *LearningMetrics) RecordAdjustmentApplied(contextType, thresholdType, direction string, magnitude float64) {
	if m == nil {
		return
	}
	m.adjustmentsAppliedTotal.WithLabelValues(contextType, thresholdType, direction).Inc()
	if magnitude < 0 {
		magnitude = -magnitude
	}
	m.adjustmentMagnitudeHist.WithLabelValues(thresholdType).Observe(magnitude)
}

// RecordAdjustmentSkipped records an adjustment that never reached the store.
func (m *LearningMetrics) RecordAdjustmentSkipped(reason string) {
	if m == nil {
		return
	}
	m.adjustmentsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordFeedbackError records a feedback pipeline failure.
func (m *LearningMetrics) RecordFeedbackError(stage string) {
	if m == nil {
		return
	}
	m.feedbackErrorsTotal.WithLabelValues(stage).Inc()
}

// RecordFeedbackDuration records end to end feedback processing time in seconds.
func (m *LearningMetrics) RecordFeedbackDuration(seconds float64) {
	if m == nil {
		return
	}
	m.feedbackDurationSeconds.Observe(seconds)
}

// RecordCacheOp records a threshold cache operation.
func (m *LearningMetrics) RecordCacheOp(result string) {
	if m == nil {
		return
	}
	m.thresholdCacheOpsTotal.WithLabelValues(result).Inc()
}

// RecordExploration records an exploration-amplified adjustment.
func (m *LearningMetrics) RecordExploration() {
	if m == nil {
		return
	}
	m.explorationTriggersTotal.Inc()
}
