package snapshot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shahin-hq/mizan/pkg/canonical"
	"shahin-hq/mizan/pkg/decision"
)

// CaptureRequest describes one completed wizard step to snapshot.
type CaptureRequest struct {
	// WizardID identifies the wizard session.
	WizardID string

	// StepNumber is the wizard step that was completed.
	StepNumber int

	// SectionCode identifies the wizard section.
	SectionCode string

	// Answers is the field-name-to-value answer payload for the step.
	Answers map[string]any

	// Actor is who completed the step.
	Actor string
}

// Store captures and verifies answer snapshots on top of a
// decision.Storage backend.
type Store struct {
	storage decision.Storage
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a snapshot store backed by the given storage.
func NewStore(storage decision.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		logger:  slog.Default().With("component", "decision.snapshot"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capture canonicalizes and hashes the answers and appends the next
// snapshot version for the wizard. It returns the stored snapshot and
// whether a new version was created.
//
// Identical consecutive captures are idempotent: when the canonical
// payload equals the wizard's latest snapshot payload, the latest
// snapshot is returned with created=false and no version is allocated.
//
// Errors: EncodingError for unserializable answers, ConcurrencyError
// when a competing capture allocates the version first.
func (s *Store) Capture(ctx context.Context, req *CaptureRequest) (*decision.AnswerSnapshot, bool, error) {
	if req.WizardID == "" {
		return nil, false, decision.NewValidationError("", "wizard_id", "capture requires a wizard ID")
	}

	payload, digest, err := canonical.HashAnswers(req.Answers)
	if err != nil {
		return nil, false, err
	}

	version := 1
	latest, err := s.storage.LatestSnapshot(ctx, req.WizardID)
	switch {
	case err == nil:
		if bytes.Equal(latest.Payload, payload) {
			s.logger.Debug("identical payload, capture is a no-op",
				"wizard_id", req.WizardID,
				"version", latest.Version,
			)
			return latest, false, nil
		}
		version = latest.Version + 1
	case errors.Is(err, decision.ErrNotFound):
		// First capture for this wizard.
	default:
		return nil, false, err
	}

	snap := &decision.AnswerSnapshot{
		ID:          uuid.NewString(),
		WizardID:    req.WizardID,
		Version:     version,
		StepNumber:  req.StepNumber,
		SectionCode: req.SectionCode,
		Payload:     payload,
		ContentHash: digest,
		CreatedBy:   req.Actor,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.storage.InsertSnapshot(ctx, snap); err != nil {
		return nil, false, err
	}

	s.logger.Info("snapshot captured",
		"wizard_id", req.WizardID,
		"version", snap.Version,
		"step", req.StepNumber,
		"section", req.SectionCode,
		"content_hash", digest,
	)

	return snap, true, nil
}

// Verify recomputes the snapshot's hash from its stored payload and
// compares it against the stored hash. A mismatch is an IntegrityError
// and must never be silently repaired.
func (s *Store) Verify(snap *decision.AnswerSnapshot) error {
	computed := canonical.Hash(snap.Payload)
	if computed != snap.ContentHash {
		s.logger.Error("snapshot failed integrity verification",
			"snapshot_id", snap.ID,
			"wizard_id", snap.WizardID,
			"stored_hash", snap.ContentHash,
			"computed_hash", computed,
		)
		return decision.NewIntegrityError(snap.ID, snap.ContentHash, computed)
	}
	return nil
}

// Get returns one snapshot by ID.
func (s *Store) Get(ctx context.Context, id string) (*decision.AnswerSnapshot, error) {
	return s.storage.GetSnapshot(ctx, id)
}

// Latest returns the wizard's most recent snapshot.
func (s *Store) Latest(ctx context.Context, wizardID string) (*decision.AnswerSnapshot, error) {
	return s.storage.LatestSnapshot(ctx, wizardID)
}

// List returns all of a wizard's snapshots ordered by version.
func (s *Store) List(ctx context.Context, wizardID string) ([]*decision.AnswerSnapshot, error) {
	return s.storage.ListSnapshots(ctx, wizardID)
}

// MarkFinal flags a snapshot as the wizard's final capture. The payload
// and hash stay frozen; only the flag flips.
func (s *Store) MarkFinal(ctx context.Context, id string) error {
	if err := s.storage.SetSnapshotFinal(ctx, id); err != nil {
		return err
	}
	s.logger.Info("snapshot marked final", "snapshot_id", id)
	return nil
}
