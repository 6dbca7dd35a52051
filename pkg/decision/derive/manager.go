package derive

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"shahin-hq/mizan/pkg/decision"
	"shahin-hq/mizan/pkg/decision/rules"
)

// Result summarizes one reconciliation run.
type Result struct {
	// Created holds first-version artifacts for new conclusions.
	Created []*decision.DerivedArtifact

	// Superseded holds the new versions inserted over changed conclusions.
	Superseded []*decision.DerivedArtifact

	// Unchanged holds active artifacts whose conclusion was re-produced
	// identically. No rows were written for these.
	Unchanged []*decision.DerivedArtifact

	// Deactivated holds previously active artifacts whose conclusion was
	// not produced in this run.
	Deactivated []*decision.DerivedArtifact
}

// Active returns the artifacts active after the run, ordered as stored.
func (r *Result) Active() []*decision.DerivedArtifact {
	active := make([]*decision.DerivedArtifact, 0,
		len(r.Created)+len(r.Superseded)+len(r.Unchanged))
	active = append(active, r.Created...)
	active = append(active, r.Superseded...)
	active = append(active, r.Unchanged...)
	return active
}

// candidate pairs a matched evaluation record with the production of the
// rule that emitted it.
type candidate struct {
	record *decision.RuleEvaluationRecord
	rule   *rules.Rule
}

// Manager reconciles evaluation batches into artifact versions.
type Manager struct {
	storage decision.Storage
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a derivation manager backed by the given storage.
func NewManager(storage decision.Storage, opts ...Option) *Manager {
	m := &Manager{
		storage: storage,
		logger:  slog.Default().With("component", "decision.derive"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reconcile folds the batch's matched records into the wizard's artifact
// set. The rule set must be the one the batch was evaluated with; it maps
// each record back to the production that shaped its output payload.
func (m *Manager) Reconcile(ctx context.Context, wizardID string, set *rules.RuleSet, records []*decision.RuleEvaluationRecord) (*Result, error) {
	winners, err := m.selectWinners(set, records)
	if err != nil {
		return nil, err
	}

	active, err := m.storage.ActiveArtifacts(ctx, wizardID)
	if err != nil {
		return nil, err
	}
	activeByCode := make(map[string]*decision.DerivedArtifact, len(active))
	for _, art := range active {
		activeByCode[art.OutputCode] = art
	}

	result := &Result{}
	now := m.now()

	for _, code := range sortedCodes(winners) {
		cand := winners[code]
		current := activeByCode[code]

		if current != nil && unchangedConclusion(current, cand) {
			result.Unchanged = append(result.Unchanged, current)
			continue
		}

		next, err := m.storage.LastArtifactVersion(ctx, wizardID, code)
		if err != nil {
			return nil, err
		}
		next++

		if current != nil {
			if err := m.storage.DeactivateArtifact(ctx, current.ID, now); err != nil {
				return nil, err
			}
		}

		artifact := m.buildArtifact(wizardID, cand, next, now)
		if err := m.storage.InsertArtifact(ctx, artifact); err != nil {
			return nil, err
		}

		if current != nil {
			result.Superseded = append(result.Superseded, artifact)
		} else {
			result.Created = append(result.Created, artifact)
		}
	}

	// Conclusions the run no longer supports lose their active version.
	for _, art := range active {
		if _, produced := winners[art.OutputCode]; produced {
			continue
		}
		if err := m.storage.DeactivateArtifact(ctx, art.ID, now); err != nil {
			return nil, err
		}
		result.Deactivated = append(result.Deactivated, art)
	}

	m.logger.Info("artifacts reconciled",
		"wizard_id", wizardID,
		"created", len(result.Created),
		"superseded", len(result.Superseded),
		"unchanged", len(result.Unchanged),
		"deactivated", len(result.Deactivated))
	return result, nil
}

// selectWinners maps each produced output code to its winning candidate.
func (m *Manager) selectWinners(set *rules.RuleSet, records []*decision.RuleEvaluationRecord) (map[string]candidate, error) {
	winners := make(map[string]candidate)
	for _, record := range records {
		if record.Result != decision.ResultMatched {
			continue
		}
		rule, ok := set.Get(record.RuleCode)
		if !ok {
			return nil, decision.NewValidationError(record.RuleCode, "",
				"evaluation record references a rule absent from the rule set")
		}

		cand := candidate{record: record, rule: rule}
		code := rule.Produces.OutputCode
		current, exists := winners[code]
		if !exists || beats(cand, current) {
			winners[code] = cand
		}
	}
	return winners, nil
}

// beats reports whether a should win over b for the same output code.
func beats(a, b candidate) bool {
	if a.record.ConfidenceScore != b.record.ConfidenceScore {
		return a.record.ConfidenceScore > b.record.ConfidenceScore
	}
	ar, br := a.rule.Produces.Applicability.Rank(), b.rule.Produces.Applicability.Rank()
	if ar != br {
		return ar < br
	}
	return a.rule.Code < b.rule.Code
}

// unchangedConclusion reports whether the candidate reproduces the active
// artifact exactly, so no new version is warranted.
func unchangedConclusion(current *decision.DerivedArtifact, cand candidate) bool {
	p := cand.rule.Produces
	return bytes.Equal(current.Payload, cand.record.OutputPayload) &&
		current.Applicability == p.Applicability &&
		current.OutputType == p.OutputType &&
		current.OutputName == p.OutputName &&
		current.Priority == p.Priority
}

func (m *Manager) buildArtifact(wizardID string, cand candidate, version int, now time.Time) *decision.DerivedArtifact {
	p := cand.rule.Produces
	return &decision.DerivedArtifact{
		ID:                 uuid.NewString(),
		WizardID:           wizardID,
		OutputType:         p.OutputType,
		OutputCode:         p.OutputCode,
		OutputName:         p.OutputName,
		OutputNameAr:       p.OutputNameAr,
		Payload:            cand.record.OutputPayload,
		Applicability:      p.Applicability,
		Priority:           p.Priority,
		SourceEvaluationID: cand.record.ID,
		Version:            version,
		IsActive:           true,
		DerivedAt:          now,
	}
}

func sortedCodes(winners map[string]candidate) []string {
	codes := make([]string, 0, len(winners))
	for code := range winners {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
