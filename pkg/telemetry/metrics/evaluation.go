package metrics

import (
	"time"

	"shahin-hq/mizan/pkg/config"
	"shahin-hq/mizan/pkg/decision"

	"github.com/prometheus/client_golang/prometheus"
)

// EvaluationMetrics tracks rule evaluation activity.
//
// Metrics:
//   - mizan_engine_rule_evaluations_total: Evaluations by rule code and result
//   - mizan_engine_rule_evaluation_duration_seconds: Per-rule evaluation duration
//   - mizan_engine_evaluation_batches_total: Completed evaluation batches
//   - mizan_engine_evaluation_batch_records: Records committed per batch
//   - mizan_engine_evaluation_batch_duration_seconds: Batch wall time
type EvaluationMetrics struct {
	// Per-rule evaluations by result
	evaluationsTotal *prometheus.CounterVec

	// Per-rule evaluation duration histogram
	evaluationDuration *prometheus.HistogramVec

	// Completed batches
	batchesTotal prometheus.Counter

	// Records per batch
	batchRecords prometheus.Histogram

	// Batch duration
	batchDuration prometheus.Histogram
}

// NewEvaluationMetrics creates and registers evaluation metrics with the
// provided registry.
func NewEvaluationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EvaluationMetrics {
	em := &EvaluationMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_evaluations_total",
				Help:      "Total number of rule evaluations",
			},
			[]string{"rule_code", "result"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_evaluation_duration_seconds",
				Help:      "Duration of a single rule evaluation in seconds",
				Buckets:   cfg.EvaluationDurationBuckets,
			},
			[]string{"rule_code"},
		),

		batchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_batches_total",
				Help:      "Total number of completed evaluation batches",
			},
		),

		batchRecords: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_batch_records",
				Help:      "Number of records committed per evaluation batch",
				Buckets:   prometheus.LinearBuckets(1, 5, 10),
			},
		),

		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_batch_duration_seconds",
				Help:      "Wall time of a full evaluation batch in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
	}

	registry.MustRegister(
		em.evaluationsTotal,
		em.evaluationDuration,
		em.batchesTotal,
		em.batchRecords,
		em.batchDuration,
	)

	return em
}

// RecordEvaluation records a single rule evaluation outcome.
func (em *EvaluationMetrics) RecordEvaluation(ruleCode string, result decision.EvaluationResult, duration time.Duration) {
	em.evaluationsTotal.WithLabelValues(ruleCode, string(result)).Inc()
	em.evaluationDuration.WithLabelValues(ruleCode).Observe(duration.Seconds())
}

// RecordBatch records a completed evaluation batch.
func (em *EvaluationMetrics) RecordBatch(records int, duration time.Duration) {
	em.batchesTotal.Inc()
	em.batchRecords.Observe(float64(records))
	em.batchDuration.Observe(duration.Seconds())
}
