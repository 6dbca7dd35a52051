package decision

import "fmt"

// ConcurrencyError indicates an overlapping capture or evaluation for the
// same wizard. Per-wizard runs are strictly serialized; the caller should
// retry after the in-flight run completes.
type ConcurrencyError struct {
	WizardID  string // Wizard whose run conflicted
	Operation string // Operation that was rejected ("capture", "evaluate")
}

// Error implements the error interface.
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency error [wizard=%s, operation=%s]: another run is in flight", e.WizardID, e.Operation)
}

// NewConcurrencyError creates a new ConcurrencyError.
func NewConcurrencyError(wizardID, operation string) *ConcurrencyError {
	return &ConcurrencyError{WizardID: wizardID, Operation: operation}
}

// IntegrityError indicates that a stored hash no longer matches its
// recomputed value. It signals tampering or corruption and must never be
// auto-repaired.
type IntegrityError struct {
	SnapshotID string // Snapshot that failed verification
	Stored     string // Hash stored with the row
	Computed   string // Hash recomputed from the payload
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error [snapshot=%s]: stored hash %s does not match computed hash %s",
		e.SnapshotID, e.Stored, e.Computed)
}

// NewIntegrityError creates a new IntegrityError.
func NewIntegrityError(snapshotID, stored, computed string) *IntegrityError {
	return &IntegrityError{SnapshotID: snapshotID, Stored: stored, Computed: computed}
}

// EvaluationError captures a fault raised while evaluating a single
// rule's condition. It is recovered locally: the dispatcher records the
// rule with ResultError and continues with the remaining rules.
type EvaluationError struct {
	RuleCode string // Rule whose condition faulted
	Cause    error  // Underlying fault
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error [rule=%s]: %v", e.RuleCode, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// NewEvaluationError creates a new EvaluationError.
func NewEvaluationError(ruleCode string, cause error) *EvaluationError {
	return &EvaluationError{RuleCode: ruleCode, Cause: cause}
}

// ValidationError indicates a malformed rule set supplied by host
// configuration. It is fatal at rule-set load time, before any wizard
// data is touched.
type ValidationError struct {
	RuleCode string // Offending rule, if attributable to one
	Field    string // Offending field within the rule definition
	Message  string // What is wrong
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.RuleCode != "" && e.Field != "":
		return fmt.Sprintf("validation error [rule=%s, field=%s]: %s", e.RuleCode, e.Field, e.Message)
	case e.RuleCode != "":
		return fmt.Sprintf("validation error [rule=%s]: %s", e.RuleCode, e.Message)
	default:
		return fmt.Sprintf("validation error: %s", e.Message)
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(ruleCode, field, message string) *ValidationError {
	return &ValidationError{RuleCode: ruleCode, Field: field, Message: message}
}

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory")
	Operation string // Operation that failed ("insert_snapshot", "query", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// ExportError represents a failure while exporting an audit trail.
type ExportError struct {
	Format  string // Export format ("json", "csv")
	Records int    // Records written before the failure
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, records=%d]: %v", e.Format, e.Records, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, records int, cause error) *ExportError {
	return &ExportError{Format: format, Records: records, Cause: cause}
}

// OverrideError indicates a rejected override attempt, such as targeting
// a record with IsOverridable=false.
type OverrideError struct {
	RecordID string // Explainability record targeted
	Message  string // Why the override was rejected
}

// Error implements the error interface.
func (e *OverrideError) Error() string {
	return fmt.Sprintf("override error [record=%s]: %s", e.RecordID, e.Message)
}

// NewOverrideError creates a new OverrideError.
func NewOverrideError(recordID, message string) *OverrideError {
	return &OverrideError{RecordID: recordID, Message: message}
}
