// Package export writes wizard audit trails in JSON and CSV form.
//
// The JSON exporter produces a complete bundle for one wizard: every
// snapshot, every evaluation record, every artifact version including
// superseded ones, and every explanation with its override envelope.
// The CSV exporter flattens evaluation records for spreadsheet review.
// Both verify snapshot hashes before writing anything; a bundle that
// fails integrity would be evidence of nothing.
package export
