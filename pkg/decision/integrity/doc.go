// Package integrity provides scheduled verification sweeps over the
// decision store.
//
// A sweep recomputes the content hash of every stored snapshot and
// reports mismatches. Records are immutable, so a mismatch is never
// repaired automatically; it is surfaced for investigation. The sweeper
// runs on a cron schedule and can also be invoked on demand.
package integrity
