// Package logging provides structured logging for the decision engine with
// automatic PII redaction.
//
// Onboarding answers flow through the evaluation pipeline and carry contact
// emails, phone numbers, national identifiers, IBANs, and payment details.
// None of that may reach a log sink in the clear, so the Logger runs every
// argument through a Redactor before handing it to slog.
//
// The Logger wraps log/slog and supports json, text, and console output
// formats. Context helpers attach the wizard, actor, and request identifiers
// that correlate log lines across a single evaluation run.
package logging
