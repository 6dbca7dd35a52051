package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"shahin-hq/mizan/pkg/decision"
)

// MemoryStorage implements decision.Storage using in-memory maps. It is
// intended for testing only and should not be used in production.
type MemoryStorage struct {
	mu           sync.RWMutex
	snapshots    map[string]*decision.AnswerSnapshot
	evaluations  map[string]*decision.RuleEvaluationRecord
	artifacts    map[string]*decision.DerivedArtifact
	explanations map[string]*decision.ExplainabilityRecord
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		snapshots:    make(map[string]*decision.AnswerSnapshot),
		evaluations:  make(map[string]*decision.RuleEvaluationRecord),
		artifacts:    make(map[string]*decision.DerivedArtifact),
		explanations: make(map[string]*decision.ExplainabilityRecord),
	}
}

// InsertSnapshot appends a snapshot row.
func (s *MemoryStorage) InsertSnapshot(ctx context.Context, snapshot *decision.AnswerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.snapshots {
		if existing.WizardID == snapshot.WizardID && existing.Version == snapshot.Version {
			return decision.NewConcurrencyError(snapshot.WizardID, "capture")
		}
	}

	copied := *snapshot
	s.snapshots[snapshot.ID] = &copied
	return nil
}

// GetSnapshot returns one snapshot by ID.
func (s *MemoryStorage) GetSnapshot(ctx context.Context, id string) (*decision.AnswerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return nil, decision.ErrNotFound
	}
	copied := *snap
	return &copied, nil
}

// LatestSnapshot returns the highest-version snapshot for a wizard.
func (s *MemoryStorage) LatestSnapshot(ctx context.Context, wizardID string) (*decision.AnswerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *decision.AnswerSnapshot
	for _, snap := range s.snapshots {
		if snap.WizardID != wizardID {
			continue
		}
		if latest == nil || snap.Version > latest.Version {
			latest = snap
		}
	}
	if latest == nil {
		return nil, decision.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

// ListSnapshots returns a wizard's snapshots ordered by version ascending.
func (s *MemoryStorage) ListSnapshots(ctx context.Context, wizardID string) ([]*decision.AnswerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snapshots []*decision.AnswerSnapshot
	for _, snap := range s.snapshots {
		if snap.WizardID == wizardID {
			copied := *snap
			snapshots = append(snapshots, &copied)
		}
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Version < snapshots[j].Version
	})
	return snapshots, nil
}

// SetSnapshotFinal marks a snapshot as the wizard's final capture.
func (s *MemoryStorage) SetSnapshotFinal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return decision.ErrNotFound
	}
	snap.IsFinal = true
	return nil
}

// WizardIDs returns every wizard ID with at least one snapshot.
func (s *MemoryStorage) WizardIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, snap := range s.snapshots {
		if !seen[snap.WizardID] {
			seen[snap.WizardID] = true
			ids = append(ids, snap.WizardID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// InsertEvaluation appends one evaluation record.
func (s *MemoryStorage) InsertEvaluation(ctx context.Context, record *decision.RuleEvaluationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.evaluations[record.ID] = &copied
	return nil
}

// ListEvaluations returns evaluation records matching the query.
func (s *MemoryStorage) ListEvaluations(ctx context.Context, query *decision.Query) ([]*decision.RuleEvaluationRecord, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*decision.RuleEvaluationRecord
	for _, rec := range s.evaluations {
		if rec.WizardID != query.WizardID {
			continue
		}
		if query.SnapshotID != "" && rec.SnapshotID != query.SnapshotID {
			continue
		}
		copied := *rec
		records = append(records, &copied)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].EvaluatedAt.Equal(records[j].EvaluatedAt) {
			return records[i].EvaluatedAt.Before(records[j].EvaluatedAt)
		}
		return records[i].RuleCode < records[j].RuleCode
	})
	return paginate(records, query.Offset, limitOrDefault(query.Limit)), nil
}

// InsertArtifact appends one artifact version row.
func (s *MemoryStorage) InsertArtifact(ctx context.Context, artifact *decision.DerivedArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *artifact
	s.artifacts[artifact.ID] = &copied
	return nil
}

// ActiveArtifacts returns currently active artifact versions for a wizard.
func (s *MemoryStorage) ActiveArtifacts(ctx context.Context, wizardID string) ([]*decision.DerivedArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var artifacts []*decision.DerivedArtifact
	for _, art := range s.artifacts {
		if art.WizardID == wizardID && art.IsActive {
			copied := *art
			artifacts = append(artifacts, &copied)
		}
	}
	sort.Slice(artifacts, func(i, j int) bool {
		if artifacts[i].Priority != artifacts[j].Priority {
			return artifacts[i].Priority < artifacts[j].Priority
		}
		return artifacts[i].OutputCode < artifacts[j].OutputCode
	})
	return artifacts, nil
}

// Artifacts returns every artifact version row for a wizard.
func (s *MemoryStorage) Artifacts(ctx context.Context, wizardID string) ([]*decision.DerivedArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var artifacts []*decision.DerivedArtifact
	for _, art := range s.artifacts {
		if art.WizardID == wizardID {
			copied := *art
			artifacts = append(artifacts, &copied)
		}
	}
	sort.Slice(artifacts, func(i, j int) bool {
		if artifacts[i].OutputCode != artifacts[j].OutputCode {
			return artifacts[i].OutputCode < artifacts[j].OutputCode
		}
		return artifacts[i].Version < artifacts[j].Version
	})
	return artifacts, nil
}

// ArtifactVersions returns every version row for a (wizard, output code).
func (s *MemoryStorage) ArtifactVersions(ctx context.Context, wizardID, outputCode string) ([]*decision.DerivedArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var artifacts []*decision.DerivedArtifact
	for _, art := range s.artifacts {
		if art.WizardID == wizardID && art.OutputCode == outputCode {
			copied := *art
			artifacts = append(artifacts, &copied)
		}
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Version < artifacts[j].Version
	})
	return artifacts, nil
}

// LastArtifactVersion returns the highest version recorded for a (wizard,
// output code).
func (s *MemoryStorage) LastArtifactVersion(ctx context.Context, wizardID, outputCode string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	last := 0
	for _, art := range s.artifacts {
		if art.WizardID == wizardID && art.OutputCode == outputCode && art.Version > last {
			last = art.Version
		}
	}
	return last, nil
}

// DeactivateArtifact flips IsActive off on one artifact row.
func (s *MemoryStorage) DeactivateArtifact(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	art, ok := s.artifacts[id]
	if !ok || !art.IsActive {
		return nil
	}
	art.IsActive = false
	deactivated := at
	art.DeactivatedAt = &deactivated
	return nil
}

// InsertExplanation appends one explainability record.
func (s *MemoryStorage) InsertExplanation(ctx context.Context, record *decision.ExplainabilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := copyExplanation(record)
	s.explanations[record.ID] = copied
	return nil
}

// GetExplanation returns one explainability record by ID.
func (s *MemoryStorage) GetExplanation(ctx context.Context, id string) (*decision.ExplainabilityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.explanations[id]
	if !ok {
		return nil, decision.ErrNotFound
	}
	return copyExplanation(rec), nil
}

// ListExplanations returns explainability records matching the query.
func (s *MemoryStorage) ListExplanations(ctx context.Context, query *decision.Query) ([]*decision.ExplainabilityRecord, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*decision.ExplainabilityRecord
	for _, rec := range s.explanations {
		if rec.WizardID != query.WizardID {
			continue
		}
		if query.SubjectType != "" && rec.SubjectType != query.SubjectType {
			continue
		}
		if query.SubjectCode != "" && rec.SubjectCode != query.SubjectCode {
			continue
		}
		records = append(records, copyExplanation(rec))
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].GeneratedAt.Equal(records[j].GeneratedAt) {
			return records[i].GeneratedAt.After(records[j].GeneratedAt)
		}
		return records[i].SubjectCode < records[j].SubjectCode
	})
	return paginate(records, query.Offset, limitOrDefault(query.Limit)), nil
}

// ApplyOverride fills the override envelope on one explainability record.
func (s *MemoryStorage) ApplyOverride(ctx context.Context, id string, override *decision.Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.explanations[id]
	if !ok {
		return decision.ErrNotFound
	}
	if rec.Override != nil {
		return decision.NewOverrideError(id, "record already carries an override")
	}
	copied := *override
	rec.Override = &copied
	return nil
}

// Close releases resources held by the backend.
func (s *MemoryStorage) Close() error {
	return nil
}

// CorruptSnapshot overwrites a stored snapshot payload without touching
// its hash. It exists so integrity failure paths can be exercised in
// tests; there is no production caller.
func (s *MemoryStorage) CorruptSnapshot(id string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.snapshots[id]; ok {
		snap.Payload = payload
	}
}

func copyExplanation(rec *decision.ExplainabilityRecord) *decision.ExplainabilityRecord {
	copied := *rec
	copied.Factors = append([]decision.Factor(nil), rec.Factors...)
	copied.References = append([]string(nil), rec.References...)
	if rec.Override != nil {
		override := *rec.Override
		copied.Override = &override
	}
	return &copied
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
