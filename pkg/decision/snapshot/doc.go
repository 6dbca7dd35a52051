// Package snapshot implements the answer snapshot store: append-only,
// versioned, hash-stamped captures of wizard answer state.
//
// Capture canonicalizes the answers, computes the content hash, and
// appends the next version for the wizard. Versions are allocated
// optimistically; if a competing run wins the version race the database
// unique index rejects the insert and Capture surfaces a
// ConcurrencyError for the caller to retry.
//
// Capturing a payload byte-identical to the wizard's latest snapshot is
// a no-op: the existing snapshot is returned and no version is
// allocated. This keeps the version history free of churn the same way
// re-derivation refuses to re-version unchanged artifacts. Callers that
// need to distinguish the cases inspect Capture's created flag.
//
// Verify recomputes a snapshot's hash from its stored payload. A
// mismatch is an IntegrityError: it signals tampering or corruption and
// is never repaired, only reported.
package snapshot
