// Package middleware provides cross-cutting concerns for the combination engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-combo/internal/ports"
)

// Metric names understood by PrometheusMetrics. Unknown names passed to
// RecordCounter, RecordGauge or RecordHistogram are still recorded, under
// the generic vectors keyed by metric name.
const (
	MetricExecutions    = "combination_executions_total"
	MetricSamples       = "samples"
	MetricEstimators    = "estimators"
	MetricCombinedScore = "combined_score"

	// OperationExecute labels the latency of a single unit execution.
	OperationExecute = "unit_execute"
)

// Status label values for MetricExecutions.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It tracks execution latency, outcome counts, input dimensions and the
// distribution of combined scores per unit and strategy.
type PrometheusMetrics struct {
	executionLatency *prometheus.HistogramVec
	executions       *prometheus.CounterVec
	events           *prometheus.CounterVec
	dimensions       *prometheus.GaugeVec
	combinedScores   *prometheus.HistogramVec
	values           *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// all required metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWith(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsWith registers the metrics with reg instead of the
// global registry. Registering twice with the same registry panics.
func NewPrometheusMetricsWith(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		executionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "combination_duration_seconds",
				Help:    "Execution time of combination operations.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"operation", "strategy", "unit"},
		),
		executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricExecutions,
				Help: "Total number of unit executions by outcome.",
			},
			[]string{"strategy", "status", "unit"},
		),
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "combination_events_total",
				Help: "Other countable combination events.",
			},
			[]string{"event", "unit"},
		),
		dimensions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "combination_matrix_dimension",
				Help: "Shape of the most recent input matrix per unit.",
			},
			[]string{"dimension", "unit"},
		),
		combinedScores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "combination_combined_score",
				Help:    "Distribution of combined scores.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"strategy", "unit"},
		),
		values: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "combination_values",
				Help:    "Distribution of other recorded values.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"metric", "unit"},
		),
	}
}

// label returns labels[key], or "unknown" when it is missing or empty.
func label(labels map[string]string, key string) string {
	if v := labels[key]; v != "" {
		return v
	}
	return "unknown"
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.executionLatency.WithLabelValues(
		operation, label(labels, "strategy"), label(labels, "unit"),
	).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	unit := label(labels, "unit")
	switch metric {
	case MetricExecutions:
		pm.executions.WithLabelValues(label(labels, "strategy"), label(labels, "status"), unit).Add(value)
	default:
		pm.events.WithLabelValues(metric, unit).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.dimensions.WithLabelValues(metric, label(labels, "unit")).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	unit := label(labels, "unit")
	switch metric {
	case MetricCombinedScore:
		pm.combinedScores.WithLabelValues(label(labels, "strategy"), unit).Observe(value)
	default:
		pm.values.WithLabelValues(metric, unit).Observe(value)
	}
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
