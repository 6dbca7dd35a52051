package decision

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("decision: record not found")

// Storage persists the four record families. Implementations must be safe
// for concurrent use across wizards; the engine serializes writes within
// a wizard itself.
//
// All Insert methods are append-only and atomic per record: a row is
// either fully written or not written at all. The only permitted updates
// are SetSnapshotFinal, DeactivateArtifact, and ApplyOverride, each of
// which flips flags or fills the override envelope without touching the
// immutable columns.
type Storage interface {
	// InsertSnapshot appends a snapshot row. Inserting a (wizard,
	// version) pair that already exists is a ConcurrencyError: it means
	// a competing run captured the same version first.
	InsertSnapshot(ctx context.Context, snapshot *AnswerSnapshot) error

	// GetSnapshot returns one snapshot by ID, or ErrNotFound.
	GetSnapshot(ctx context.Context, id string) (*AnswerSnapshot, error)

	// LatestSnapshot returns the highest-version snapshot for a wizard,
	// or ErrNotFound if the wizard has none.
	LatestSnapshot(ctx context.Context, wizardID string) (*AnswerSnapshot, error)

	// ListSnapshots returns a wizard's snapshots ordered by version
	// ascending.
	ListSnapshots(ctx context.Context, wizardID string) ([]*AnswerSnapshot, error)

	// SetSnapshotFinal marks a snapshot as the wizard's final capture.
	SetSnapshotFinal(ctx context.Context, id string) error

	// WizardIDs returns every wizard ID with at least one snapshot,
	// ordered ascending. Used by integrity sweeps and exports.
	WizardIDs(ctx context.Context) ([]string, error)

	// InsertEvaluation appends one evaluation record.
	InsertEvaluation(ctx context.Context, record *RuleEvaluationRecord) error

	// ListEvaluations returns evaluation records matching the query,
	// ordered by rule code ascending for stable comparison.
	ListEvaluations(ctx context.Context, query *Query) ([]*RuleEvaluationRecord, error)

	// InsertArtifact appends one artifact version row.
	InsertArtifact(ctx context.Context, artifact *DerivedArtifact) error

	// ActiveArtifacts returns the currently active artifact versions for
	// a wizard, ordered by priority then output code.
	ActiveArtifacts(ctx context.Context, wizardID string) ([]*DerivedArtifact, error)

	// Artifacts returns every artifact version row for a wizard, active
	// and superseded, ordered by output code then version ascending.
	Artifacts(ctx context.Context, wizardID string) ([]*DerivedArtifact, error)

	// ArtifactVersions returns every version row for a (wizard, output
	// code), ordered by version ascending.
	ArtifactVersions(ctx context.Context, wizardID, outputCode string) ([]*DerivedArtifact, error)

	// LastArtifactVersion returns the highest version number recorded
	// for a (wizard, output code), active or not. Zero when none exists.
	LastArtifactVersion(ctx context.Context, wizardID, outputCode string) (int, error)

	// DeactivateArtifact flips IsActive to false on one artifact row and
	// records when. Deactivating an already inactive row is a no-op.
	DeactivateArtifact(ctx context.Context, id string, at time.Time) error

	// InsertExplanation appends one explainability record.
	InsertExplanation(ctx context.Context, record *ExplainabilityRecord) error

	// GetExplanation returns one explainability record by ID, or
	// ErrNotFound.
	GetExplanation(ctx context.Context, id string) (*ExplainabilityRecord, error)

	// ListExplanations returns explainability records matching the
	// query, ordered by generation time descending.
	ListExplanations(ctx context.Context, query *Query) ([]*ExplainabilityRecord, error)

	// ApplyOverride fills the override envelope on one explainability
	// record. The original decision column is never written. Overriding
	// a record that already carries an override is an OverrideError.
	ApplyOverride(ctx context.Context, id string, override *Override) error

	// Close releases resources held by the backend.
	Close() error
}
