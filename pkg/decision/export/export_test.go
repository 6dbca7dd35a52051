package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"shahin-hq/mizan/pkg/decision"
	"shahin-hq/mizan/pkg/decision/derive"
	"shahin-hq/mizan/pkg/decision/explain"
	"shahin-hq/mizan/pkg/decision/rules"
	"shahin-hq/mizan/pkg/decision/snapshot"
	"shahin-hq/mizan/pkg/decision/storage"
)

func seedWizard(t *testing.T, store *storage.MemoryStorage, wizardID string) {
	t.Helper()
	ctx := context.Background()

	set, err := rules.Builtin()
	if err != nil {
		t.Fatal(err)
	}

	snap, _, err := snapshot.NewStore(store).Capture(ctx, &snapshot.CaptureRequest{
		WizardID:    wizardID,
		StepNumber:  1,
		SectionCode: "ORG_PROFILE",
		Answers: map[string]any{
			"country":           "SA",
			"sector":            "banking",
			"handles_card_data": true,
		},
		Actor: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	records, err := rules.NewDispatcher(store).Evaluate(ctx, snap, set)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := derive.NewManager(store).Reconcile(ctx, wizardID, set, records); err != nil {
		t.Fatal(err)
	}
	if _, err := explain.NewGenerator(store).Generate(ctx, wizardID, set, records); err != nil {
		t.Fatal(err)
	}
}

func TestJSONExportBundle(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()
	seedWizard(t, store, "wiz-json")

	var buf bytes.Buffer
	if err := NewJSONExporter(store, true).Export(context.Background(), "wiz-json", &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	var bundle Bundle
	if err := json.Unmarshal(buf.Bytes(), &bundle); err != nil {
		t.Fatalf("bundle is not valid JSON: %v", err)
	}
	if bundle.WizardID != "wiz-json" {
		t.Errorf("wizard_id = %s", bundle.WizardID)
	}
	if len(bundle.Snapshots) != 1 {
		t.Errorf("snapshots = %d, want 1", len(bundle.Snapshots))
	}
	if len(bundle.Evaluations) != 7 {
		t.Errorf("evaluations = %d, want 7", len(bundle.Evaluations))
	}
	if len(bundle.Artifacts) == 0 {
		t.Error("bundle carries no artifacts")
	}
	if len(bundle.Explanations) == 0 {
		t.Error("bundle carries no explanations")
	}
}

func TestJSONExportRefusesTamperedSnapshot(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()
	seedWizard(t, store, "wiz-bad")

	snaps, err := store.ListSnapshots(context.Background(), "wiz-bad")
	if err != nil {
		t.Fatal(err)
	}
	store.CorruptSnapshot(snaps[0].ID, []byte(`{"country":"AE"}`))

	var buf bytes.Buffer
	err = NewJSONExporter(store, false).Export(context.Background(), "wiz-bad", &buf)
	var ierr *decision.IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing must be written when integrity fails")
	}
}

func TestJSONExportUnknownWizard(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	var buf bytes.Buffer
	err := NewJSONExporter(store, false).Export(context.Background(), "nope", &buf)
	if !errors.Is(err, decision.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// padEvaluations grows the wizard's history until it holds total
// evaluation records, well past the storage backend's default row cap.
func padEvaluations(t *testing.T, store *storage.MemoryStorage, wizardID string, total int) {
	t.Helper()
	ctx := context.Background()

	snaps, err := store.ListSnapshots(ctx, wizardID)
	if err != nil {
		t.Fatal(err)
	}
	existing, err := store.ListEvaluations(ctx, &decision.Query{WizardID: wizardID, Limit: decision.QueryNoLimit})
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	for i := len(existing); i < total; i++ {
		rec := &decision.RuleEvaluationRecord{
			ID:          uuid.NewString(),
			WizardID:    wizardID,
			SnapshotID:  snaps[0].ID,
			RuleCode:    fmt.Sprintf("RULE_PAD_%03d", i),
			RuleVersion: "1.0",
			Result:      decision.ResultNotMatched,
			ReasonText:  "condition not met",
			EvaluatedAt: now,
		}
		if err := store.InsertEvaluation(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
}

func TestJSONExportFullHistory(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()
	seedWizard(t, store, "wiz-full")
	padEvaluations(t, store, "wiz-full", 130)

	var buf bytes.Buffer
	if err := NewJSONExporter(store, false).Export(context.Background(), "wiz-full", &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	var bundle Bundle
	if err := json.Unmarshal(buf.Bytes(), &bundle); err != nil {
		t.Fatalf("bundle is not valid JSON: %v", err)
	}
	if len(bundle.Evaluations) != 130 {
		t.Errorf("evaluations = %d, want 130 (history must not be truncated)", len(bundle.Evaluations))
	}
}

func TestExportRefusesOversizedHistory(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()
	seedWizard(t, store, "wiz-huge")
	padEvaluations(t, store, "wiz-huge", 130)

	jsonExp := NewJSONExporter(store, false)
	jsonExp.MaxRecords = 50
	var buf bytes.Buffer
	err := jsonExp.Export(context.Background(), "wiz-huge", &buf)
	var expErr *decision.ExportError
	if !errors.As(err, &expErr) {
		t.Fatalf("expected ExportError, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing must be written when the export is refused")
	}

	csvExp := NewCSVExporter(store, true)
	csvExp.MaxRecords = 50
	buf.Reset()
	if err := csvExp.Export(context.Background(), "wiz-huge", &buf); !errors.As(err, &expErr) {
		t.Fatalf("expected ExportError, got %v", err)
	}
}

func TestCSVExport(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()
	seedWizard(t, store, "wiz-csv")

	var buf bytes.Buffer
	if err := NewCSVExporter(store, true).Export(context.Background(), "wiz-csv", &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 8 { // header + 7 records
		t.Fatalf("rows = %d, want 8", len(rows))
	}
	if rows[0][0] != "id" || rows[0][3] != "rule_code" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	for _, row := range rows[1:] {
		if len(row) != len(evaluationHeader()) {
			t.Errorf("row width = %d, want %d", len(row), len(evaluationHeader()))
		}
		if row[1] != "wiz-csv" {
			t.Errorf("wizard_id column = %q", row[1])
		}
	}
}
