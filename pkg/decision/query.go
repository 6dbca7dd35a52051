package decision

// QueryNoLimit disables the row cap on a Query. Callers that must see the
// complete record set, such as replay and audit export, use this instead
// of guessing a limit large enough.
const QueryNoLimit = -1

// Query filters reads against the decision store. Zero-valued fields are
// ignored. WizardID is required for every query; the engine never reads
// across wizard boundaries.
type Query struct {
	// WizardID scopes the query to one wizard session. Required.
	WizardID string

	// SnapshotID restricts evaluation records to one evaluation run.
	SnapshotID string

	// OutputType restricts artifacts to one family.
	OutputType OutputType

	// SubjectType restricts explanations to one decision type.
	SubjectType DecisionType

	// SubjectCode restricts explanations to one subject.
	SubjectCode string

	// ActiveOnly restricts artifacts to currently active versions.
	ActiveOnly bool

	// Limit caps the number of rows returned. Zero means the backend
	// default (100); QueryNoLimit disables the cap.
	Limit int

	// Offset skips rows for pagination.
	Offset int
}

// Validate reports whether the query is well-formed.
func (q *Query) Validate() error {
	if q.WizardID == "" {
		return NewValidationError("", "wizard_id", "query requires a wizard ID")
	}
	if q.OutputType != "" && !q.OutputType.Valid() {
		return NewValidationError("", "output_type", "unknown output type "+string(q.OutputType))
	}
	return nil
}
