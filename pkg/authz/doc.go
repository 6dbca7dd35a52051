// Package authz provides a request-time authorization decision function
// with the same discipline as the decision engine: a pure evaluator over
// declared policies, and an append-only log of every decision taken.
//
// Decide is a pure function. Identical arguments always yield an identical
// Decision; it reads no ambient state and has no side effects. The
// Evaluator wraps Decide with decision logging, and Enforce additionally
// turns a deny into an AuthorizationDenied error.
//
// Policies are matched in a fixed order, priority ascending with ties
// broken by code, first match wins, default deny.
package authz
