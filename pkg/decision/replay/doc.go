// Package replay re-derives past evaluation runs and compares them
// against the stored records.
//
// Replay is the audit answer to "would the engine decide the same thing
// today": it verifies the snapshot's content hash first, then recomputes
// every rule outcome from the record's own input context and compares
// result, confidence, output payload, and reasons byte for byte.
// Identity, timestamps, and durations are excluded from the comparison
// since they legitimately differ between runs.
package replay
