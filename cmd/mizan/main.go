// Mizan is a deterministic compliance decision engine for regulated
// onboarding.
//
// It captures wizard answer snapshots, evaluates declarative applicability
// rules against them, derives versioned compliance artifacts, and records
// an explainability trail for every decision:
//   - Append-only, hash-chained snapshot and evaluation records
//   - Deterministic rule evaluation with full replay verification
//   - Artifact derivation with supersede-based versioning
//   - JSON / CSV audit export and scheduled integrity sweeps
//
// Usage:
//
//	# Evaluate a completed wizard step
//	mizan evaluate --wizard wiz-1 --answers answers.json
//
//	# Replay a stored run and verify determinism
//	mizan replay --wizard wiz-1
//
//	# Export a wizard's full audit trail
//	mizan export --wizard wiz-1 --format csv
//
//	# Verify stored hashes
//	mizan verify
//
//	# Validate rule and policy files
//	mizan lint --rules rules.yaml
package main

func main() {
	Execute()
}
