// Package derive reconciles matched rule evaluations into versioned
// derived artifacts.
//
// Reconciliation is append-only: a conclusion that appears for the first
// time gets version 1, a changed conclusion gets a new version while the
// old row is deactivated, an identical conclusion is left untouched, and
// a conclusion no longer produced has its active row deactivated. Rows
// are never deleted or rewritten, so the full history of what the engine
// concluded and when remains queryable.
//
// When several matched rules produce the same output code in one run, the
// winner is chosen deterministically: highest confidence first, then the
// strictest applicability, then the lowest rule code lexically.
package derive
