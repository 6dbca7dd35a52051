package replay

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"shahin-hq/mizan/pkg/canonical"
	"shahin-hq/mizan/pkg/decision"
	"shahin-hq/mizan/pkg/decision/rules"
)

// Divergence is one field where the recomputed outcome differs from the
// stored record.
type Divergence struct {
	// RuleCode identifies the diverging record.
	RuleCode string `json:"rule_code"`

	// Field names what differed ("result", "output_payload", ...).
	Field string `json:"field"`

	// Stored is the value the original run recorded.
	Stored string `json:"stored"`

	// Recomputed is the value replay produced.
	Recomputed string `json:"recomputed"`
}

// Report is the outcome of replaying one evaluation run.
type Report struct {
	// WizardID and SnapshotID identify the replayed run.
	WizardID   string `json:"wizard_id"`
	SnapshotID string `json:"snapshot_id"`

	// Records is how many stored records were replayed.
	Records int `json:"records"`

	// Divergences lists every mismatch. Empty means the run reproduced
	// exactly.
	Divergences []Divergence `json:"divergences,omitempty"`
}

// Clean reports whether the replay reproduced the stored run exactly.
func (r *Report) Clean() bool {
	return len(r.Divergences) == 0
}

// Verifier replays stored evaluation runs.
type Verifier struct {
	storage decision.Storage
	logger  *slog.Logger
}

// NewVerifier creates a verifier backed by the given storage.
func NewVerifier(storage decision.Storage) *Verifier {
	return &Verifier{
		storage: storage,
		logger:  slog.Default().With("component", "decision.replay"),
	}
}

// Replay recomputes the run recorded for one snapshot and compares it
// against the stored records. The rule set must contain the rule versions
// the run was evaluated with; a version drift is reported as a
// divergence, not an error.
//
// Errors: ErrNotFound for an unknown snapshot, IntegrityError when the
// snapshot payload no longer matches its stored hash.
func (v *Verifier) Replay(ctx context.Context, wizardID, snapshotID string, set *rules.RuleSet) (*Report, error) {
	snap, err := v.storage.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	if snap.WizardID != wizardID {
		return nil, decision.ErrNotFound
	}

	// Tampered inputs invalidate everything downstream; verify before
	// recomputing anything.
	if computed := canonical.Hash(snap.Payload); computed != snap.ContentHash {
		return nil, decision.NewIntegrityError(snap.ID, snap.ContentHash, computed)
	}

	// Every stored record must be replayed; the backend's default row cap
	// would silently truncate large rule sets.
	records, err := v.storage.ListEvaluations(ctx, &decision.Query{
		WizardID:   wizardID,
		SnapshotID: snapshotID,
		Limit:      decision.QueryNoLimit,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, decision.ErrNotFound
	}

	report := &Report{
		WizardID:   wizardID,
		SnapshotID: snapshotID,
		Records:    len(records),
	}

	for _, record := range records {
		report.Divergences = append(report.Divergences, v.replayRecord(record, set)...)
	}

	if report.Clean() {
		v.logger.Info("replay verified",
			"wizard_id", wizardID,
			"snapshot_id", snapshotID,
			"records", report.Records)
	} else {
		v.logger.Warn("replay diverged",
			"wizard_id", wizardID,
			"snapshot_id", snapshotID,
			"divergences", len(report.Divergences))
	}
	return report, nil
}

// replayRecord recomputes one record from its own stored input context,
// so the comparison is unaffected by answers or artifacts that changed
// after the original run.
func (v *Verifier) replayRecord(record *decision.RuleEvaluationRecord, set *rules.RuleSet) []Divergence {
	rule, ok := set.Get(record.RuleCode)
	if !ok {
		return []Divergence{{
			RuleCode:   record.RuleCode,
			Field:      "rule",
			Stored:     record.RuleVersion,
			Recomputed: "absent from rule set",
		}}
	}
	if rule.Version != record.RuleVersion {
		return []Divergence{{
			RuleCode:   record.RuleCode,
			Field:      "rule_version",
			Stored:     record.RuleVersion,
			Recomputed: rule.Version,
		}}
	}

	inputContext := map[string]any{}
	if len(record.InputContext) > 0 {
		decoded, err := canonical.Decode(record.InputContext)
		if err != nil {
			return []Divergence{{
				RuleCode:   record.RuleCode,
				Field:      "input_context",
				Stored:     string(record.InputContext),
				Recomputed: fmt.Sprintf("undecodable: %v", err),
			}}
		}
		inputContext = decoded
	}

	outcome := rules.Recompute(rule, inputContext)

	var divergences []Divergence
	diverge := func(field, stored, recomputed string) {
		divergences = append(divergences, Divergence{
			RuleCode:   record.RuleCode,
			Field:      field,
			Stored:     stored,
			Recomputed: recomputed,
		})
	}

	if outcome.Result != record.Result {
		diverge("result", string(record.Result), string(outcome.Result))
	}
	if outcome.ConfidenceScore != record.ConfidenceScore {
		diverge("confidence_score",
			fmt.Sprintf("%v", record.ConfidenceScore),
			fmt.Sprintf("%v", outcome.ConfidenceScore))
	}
	if !bytes.Equal(outcome.OutputPayload, record.OutputPayload) {
		diverge("output_payload", string(record.OutputPayload), string(outcome.OutputPayload))
	}
	if outcome.ReasonText != record.ReasonText {
		diverge("reason_text", record.ReasonText, outcome.ReasonText)
	}
	if outcome.ReasonTextAr != record.ReasonTextAr {
		diverge("reason_text_ar", record.ReasonTextAr, outcome.ReasonTextAr)
	}
	return divergences
}

// ReplayLatest replays the run recorded for the wizard's most recent
// snapshot.
func (v *Verifier) ReplayLatest(ctx context.Context, wizardID string, set *rules.RuleSet) (*Report, error) {
	snap, err := v.storage.LatestSnapshot(ctx, wizardID)
	if err != nil {
		return nil, err
	}
	return v.Replay(ctx, wizardID, snap.ID, set)
}
