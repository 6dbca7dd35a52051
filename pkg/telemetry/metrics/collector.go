package metrics

import (
	"time"

	"shahin-hq/mizan/pkg/config"
	"shahin-hq/mizan/pkg/decision"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in Mizan.
// It manages metric registration and provides a unified interface for
// recording metrics across the evaluation pipeline.
//
// Collector implements the dispatcher's Observer interface, so it can be
// attached with rules.WithObserver(collector).
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Rule evaluation metrics
	evaluationMetrics *EvaluationMetrics

	// Snapshot, artifact, and override metrics
	pipelineMetrics *PipelineMetrics

	// Integrity sweep metrics
	integrityMetrics *IntegrityMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.EvaluationDurationBuckets) == 0 {
		cfg.EvaluationDurationBuckets = append([]float64(nil), config.DefaultEvaluationDurationBuckets...)
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.evaluationMetrics = NewEvaluationMetrics(cfg, registry)
	c.pipelineMetrics = NewPipelineMetrics(cfg, registry)
	c.integrityMetrics = NewIntegrityMetrics(cfg, registry)

	return c
}

// RuleEvaluated records the outcome of a single rule evaluation.
// It satisfies the dispatcher's Observer interface.
func (c *Collector) RuleEvaluated(ruleCode string, result decision.EvaluationResult, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.evaluationMetrics.RecordEvaluation(ruleCode, result, duration)
}

// BatchCompleted records a finished evaluation batch. The wizard identifier
// is deliberately ignored to keep label cardinality bounded.
func (c *Collector) BatchCompleted(_ string, records int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.evaluationMetrics.RecordBatch(records, duration)
}

// RecordSnapshot records a captured answer snapshot.
func (c *Collector) RecordSnapshot(final bool) {
	if !c.config.Enabled {
		return
	}

	c.pipelineMetrics.RecordSnapshot(final)
}

// RecordArtifactTransition records a derivation outcome for an artifact.
// Transition is one of "created", "superseded", "unchanged", "deactivated".
func (c *Collector) RecordArtifactTransition(transition string, count int) {
	if !c.config.Enabled {
		return
	}

	c.pipelineMetrics.RecordArtifactTransition(transition, count)
}

// RecordOverride records a manual override applied to a decision.
func (c *Collector) RecordOverride() {
	if !c.config.Enabled {
		return
	}

	c.pipelineMetrics.RecordOverride()
}

// RecordSweep records the result of an integrity sweep.
func (c *Collector) RecordSweep(snapshots, violations int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.integrityMetrics.RecordSweep(snapshots, violations, duration)
}

// RecordReplayDivergence records divergences found during a replay
// verification run.
func (c *Collector) RecordReplayDivergence(count int) {
	if !c.config.Enabled {
		return
	}

	c.integrityMetrics.RecordReplayDivergence(count)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
