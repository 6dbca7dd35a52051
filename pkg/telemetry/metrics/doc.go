// Package metrics provides Prometheus instrumentation for the decision
// engine.
//
// The Collector owns a prometheus.Registry and groups metrics by concern:
// rule evaluation counts and latencies, pipeline activity (snapshots,
// derived artifacts, overrides), and integrity sweep results. The Collector
// satisfies the dispatcher's Observer interface so it can be plugged
// directly into the evaluation loop.
//
// Label cardinality stays bounded: metrics are labeled by rule code and
// result, never by wizard or snapshot identifiers.
package metrics
