// Package rules implements the rule model and the rule dispatcher.
//
// Rules are declarative condition-to-output mappings supplied by the
// host application's configuration as YAML, never authored by end
// users. A rule's condition is drawn from a fixed set of kinds (equals,
// in, contains, exists, numeric thresholds, and the all/any/not
// combinators) evaluated by a finite dispatcher; there is no expression
// language to parse.
//
// # Ordering
//
// Rules are evaluated in a fixed order: declared priority ascending,
// ties broken by rule code lexical order. The ordering is part of the
// determinism contract — given the same snapshot and rule set, two runs
// produce the same records in the same sequence.
//
// # Fault Isolation
//
// A rule whose condition faults is recorded with ResultError and the
// captured detail; evaluation of the remaining rules continues. A rule
// whose required input fields are absent from the context is recorded
// as ResultSkipped. The batch never aborts because of one rule.
//
// # Sources
//
// FileSource loads rule sets from YAML files, mirroring how the host
// ships its policy configuration, and Watcher (fsnotify) reloads them
// on change. Builtin returns the embedded rule set that mirrors the
// host's built-in applicability rules (SAMA, NCA, PCI DSS, PDPL, and
// the jurisdiction/sector overlays).
package rules
