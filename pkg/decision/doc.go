// Package decision defines the core entities of the Mizan compliance
// decision engine: answer snapshots, rule evaluation records, derived
// artifacts, and explainability records, together with the error taxonomy
// shared by every stage of the pipeline.
//
// # Entities
//
// The engine turns tenant-supplied wizard answers into auditable
// compliance conclusions. Data flows one way through four immutable
// record families, all keyed by wizard ID:
//
//	AnswerSnapshot        versioned capture of the answers at one step
//	RuleEvaluationRecord  per-rule outcome of evaluating a snapshot
//	DerivedArtifact       versioned compliance conclusion (package,
//	                      baseline, overlay, evidence requirement,
//	                      risk profile)
//	ExplainabilityRecord  human-facing justification with an additive
//	                      override envelope
//
// Rows are created exactly once and never updated in place. The only
// permitted mutations are flag flips that preserve history: a snapshot
// can be marked final, an artifact version can be deactivated when it is
// superseded, and an explanation can receive an override annotation that
// leaves the original decision untouched.
//
// # Error Taxonomy
//
// Five error classes cover the pipeline. Only EvaluationError is ever
// recovered: a faulting rule is recorded with ResultError and the batch
// continues. Everything else surfaces to the caller:
//
//	EncodingError     unserializable answer payload (pkg/canonical)
//	ConcurrencyError  overlapping capture/evaluate for one wizard
//	IntegrityError    stored hash does not match recomputed hash
//	EvaluationError   one rule condition faulted (recovered locally)
//	ValidationError   malformed rule set supplied by host configuration
package decision
