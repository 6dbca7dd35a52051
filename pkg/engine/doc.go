// Package engine orchestrates the full decision pipeline for a wizard step:
// capture the answer snapshot, evaluate the rule set, reconcile derived
// artifacts, and generate explanations.
//
// The engine serializes runs per wizard. A second run arriving while one is
// in flight for the same wizard fails immediately with a ConcurrencyError
// rather than queueing, so callers keep control over retry policy. Runs for
// different wizards proceed in parallel.
//
// The active rule set can be swapped atomically with SetRuleSet, which is
// how the file watcher applies hot reloads. In-flight runs finish with the
// set they started with.
package engine
