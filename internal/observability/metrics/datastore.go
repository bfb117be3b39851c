// Package metrics provides datastore metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for datastore operations
type DatastoreMetrics struct {
	dbOperationsTotal      *prometheus.CounterVec
	dbOperationDuration    *prometheus.HistogramVec
	dbOperationErrorsTotal *prometheus.CounterVec
}

// NewDatastoreMetrics creates and registers datastore metrics.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{
		dbOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modtune_db_operations_total",
			Help: "Database operations by operation name and status",
		}, []string{"operation", "status"}),
		dbOperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modtune_db_operation_duration_seconds",
			Help:    "Database operation duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		dbOperationErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modtune_db_operation_errors_total",
			Help: "Database operation errors by operation name",
		}, []string{"operation"}),
	}

	for _, c := range []prometheus.Collector{
		m.dbOperationsTotal,
		m.dbOperationDuration,
		m.dbOperationErrorsTotal,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordOperation records a completed database operation.
func (m *DatastoreMetrics) RecordOperation(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
	m.dbOperationDuration.WithLabelValues(operation).Observe(seconds)
	if status == "error" {
		m.dbOperationErrorsTotal.WithLabelValues(operation).Inc()
	}
}
