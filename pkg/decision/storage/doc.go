// Package storage provides persistence backends for the decision store.
//
// Two implementations of decision.Storage are available:
//
//   - SQLiteStorage: the production backend. Flat, ID-referenced tables
//     keyed by wizard ID plus version, WAL mode for concurrent readers,
//     and unique indexes that enforce the append-only invariants at the
//     database level (one version per wizard snapshot, at most one active
//     artifact per output code).
//   - MemoryStorage: an in-memory map-backed implementation for tests.
//
// Both backends refuse to update immutable columns. Supersession and
// overrides are expressed as flag flips and envelope fills on otherwise
// frozen rows.
package storage
