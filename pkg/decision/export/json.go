package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"shahin-hq/mizan/pkg/canonical"
	"shahin-hq/mizan/pkg/decision"
)

// Bundle is the complete audit trail for one wizard session.
type Bundle struct {
	// WizardID identifies the exported session.
	WizardID string `json:"wizard_id"`

	// ExportedAt is when the bundle was assembled.
	ExportedAt time.Time `json:"exported_at"`

	// Snapshots holds every captured snapshot, version ascending.
	Snapshots []*decision.AnswerSnapshot `json:"snapshots"`

	// Evaluations holds every evaluation record.
	Evaluations []*decision.RuleEvaluationRecord `json:"evaluations"`

	// Artifacts holds every artifact version, superseded rows included.
	Artifacts []*decision.DerivedArtifact `json:"artifacts"`

	// Explanations holds every explainability record with its override
	// envelope.
	Explanations []*decision.ExplainabilityRecord `json:"explanations"`
}

// JSONExporter exports wizard audit bundles as JSON.
type JSONExporter struct {
	storage decision.Storage
	logger  *slog.Logger
	now     func() time.Time

	// Pretty enables indented output.
	Pretty bool

	// MaxRecords, when positive, refuses exports larger than this many
	// evaluation records instead of truncating them.
	MaxRecords int
}

// NewJSONExporter creates a JSON exporter backed by the given storage.
func NewJSONExporter(storage decision.Storage, pretty bool) *JSONExporter {
	return &JSONExporter{
		storage: storage,
		logger:  slog.Default().With("component", "decision.export"),
		now:     time.Now,
		Pretty:  pretty,
	}
}

// Export assembles the wizard's full audit trail and writes it as one
// JSON document. Every snapshot hash is verified before anything is
// written; an IntegrityError aborts the export.
func (e *JSONExporter) Export(ctx context.Context, wizardID string, w io.Writer) error {
	bundle, err := e.assemble(ctx, wizardID)
	if err != nil {
		return err
	}

	var data []byte
	if e.Pretty {
		data, err = json.MarshalIndent(bundle, "", "  ")
	} else {
		data, err = json.Marshal(bundle)
	}
	if err != nil {
		return decision.NewExportError("json", 0, err)
	}

	if _, err := w.Write(data); err != nil {
		return decision.NewExportError("json", len(bundle.Evaluations), err)
	}

	e.logger.Info("audit bundle exported",
		"wizard_id", wizardID,
		"snapshots", len(bundle.Snapshots),
		"evaluations", len(bundle.Evaluations),
		"artifacts", len(bundle.Artifacts),
		"explanations", len(bundle.Explanations))
	return nil
}

func (e *JSONExporter) assemble(ctx context.Context, wizardID string) (*Bundle, error) {
	snapshots, err := e.storage.ListSnapshots(ctx, wizardID)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, decision.ErrNotFound
	}
	for _, snap := range snapshots {
		if computed := canonical.Hash(snap.Payload); computed != snap.ContentHash {
			return nil, decision.NewIntegrityError(snap.ID, snap.ContentHash, computed)
		}
	}

	// An audit bundle is the complete history; the backend's default row
	// cap must not truncate it.
	evaluations, err := e.storage.ListEvaluations(ctx, &decision.Query{
		WizardID: wizardID,
		Limit:    decision.QueryNoLimit,
	})
	if err != nil {
		return nil, err
	}
	if e.MaxRecords > 0 && len(evaluations) > e.MaxRecords {
		return nil, decision.NewExportError("json", 0,
			fmt.Errorf("wizard has %d records, exceeding the configured maximum of %d", len(evaluations), e.MaxRecords))
	}

	artifacts, err := e.storage.Artifacts(ctx, wizardID)
	if err != nil {
		return nil, err
	}

	explanations, err := e.storage.ListExplanations(ctx, &decision.Query{
		WizardID: wizardID,
		Limit:    decision.QueryNoLimit,
	})
	if err != nil {
		return nil, err
	}

	return &Bundle{
		WizardID:     wizardID,
		ExportedAt:   e.now(),
		Snapshots:    snapshots,
		Evaluations:  evaluations,
		Artifacts:    artifacts,
		Explanations: explanations,
	}, nil
}
