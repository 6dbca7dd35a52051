// Package explain generates human-facing justification records for the
// decisions an evaluation run produced.
//
// Every explanation is tied back to the evaluation record that decided
// it, carries the structured factors the rule actually read, and is
// bilingual where the rule set provides Arabic text. The decision field
// is write-once; reviewer overrides are recorded in a separate envelope
// alongside the original, never over it, so the machine's conclusion
// stays auditable after a human disagrees with it.
package explain
