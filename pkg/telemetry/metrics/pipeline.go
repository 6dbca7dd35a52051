package metrics

import (
	"shahin-hq/mizan/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics tracks snapshot, artifact, and override activity.
//
// Metrics:
//   - mizan_engine_snapshots_total: Captured answer snapshots by finality
//   - mizan_engine_artifact_transitions_total: Artifact derivation outcomes
//   - mizan_engine_overrides_total: Manual decision overrides
type PipelineMetrics struct {
	// Snapshots captured, labeled draft or final
	snapshotsTotal *prometheus.CounterVec

	// Artifact transitions, labeled created/superseded/unchanged/deactivated
	artifactTransitions *prometheus.CounterVec

	// Manual overrides applied
	overridesTotal prometheus.Counter
}

// NewPipelineMetrics creates and registers pipeline metrics with the
// provided registry.
func NewPipelineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PipelineMetrics {
	pm := &PipelineMetrics{
		snapshotsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "snapshots_total",
				Help:      "Total number of captured answer snapshots",
			},
			[]string{"finality"},
		),

		artifactTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "artifact_transitions_total",
				Help:      "Total number of derived artifact transitions",
			},
			[]string{"transition"},
		),

		overridesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "overrides_total",
				Help:      "Total number of manual decision overrides",
			},
		),
	}

	registry.MustRegister(
		pm.snapshotsTotal,
		pm.artifactTransitions,
		pm.overridesTotal,
	)

	return pm
}

// RecordSnapshot records a captured snapshot.
func (pm *PipelineMetrics) RecordSnapshot(final bool) {
	finality := "draft"
	if final {
		finality = "final"
	}
	pm.snapshotsTotal.WithLabelValues(finality).Inc()
}

// RecordArtifactTransition records derivation outcomes for a batch.
func (pm *PipelineMetrics) RecordArtifactTransition(transition string, count int) {
	if count <= 0 {
		return
	}
	pm.artifactTransitions.WithLabelValues(transition).Add(float64(count))
}

// RecordOverride records a manual override.
func (pm *PipelineMetrics) RecordOverride() {
	pm.overridesTotal.Inc()
}
