package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"shahin-hq/mizan/pkg/decision"
)

func TestMemoryStorage_SnapshotVersionConflict(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()
	wizardID := uuid.NewString()

	if err := storage.InsertSnapshot(ctx, testSnapshot(t, wizardID, 1)); err != nil {
		t.Fatalf("InsertSnapshot(v1) failed: %v", err)
	}

	err := storage.InsertSnapshot(ctx, testSnapshot(t, wizardID, 1))
	var concErr *decision.ConcurrencyError
	if !errors.As(err, &concErr) {
		t.Fatalf("error = %v, want *ConcurrencyError", err)
	}

	// Same version under a different wizard is fine; isolation is per
	// wizard ID.
	if err := storage.InsertSnapshot(ctx, testSnapshot(t, uuid.NewString(), 1)); err != nil {
		t.Errorf("cross-wizard insert failed: %v", err)
	}
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()
	wizardID := uuid.NewString()

	snap := testSnapshot(t, wizardID, 1)
	if err := storage.InsertSnapshot(ctx, snap); err != nil {
		t.Fatalf("InsertSnapshot() failed: %v", err)
	}

	got, err := storage.GetSnapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}
	got.ContentHash = "tampered"

	again, err := storage.GetSnapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}
	if again.ContentHash == "tampered" {
		t.Error("mutating a returned snapshot leaked into the store")
	}
}

func TestMemoryStorage_EvaluationLimits(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()
	wizardID := uuid.NewString()
	now := time.Now().UTC()

	const total = 103
	for i := 0; i < total; i++ {
		rec := &decision.RuleEvaluationRecord{
			ID:          uuid.NewString(),
			WizardID:    wizardID,
			SnapshotID:  uuid.NewString(),
			RuleCode:    fmt.Sprintf("RULE_%03d", i),
			RuleVersion: "1.0",
			Result:      decision.ResultNotMatched,
			EvaluatedAt: now,
		}
		if err := storage.InsertEvaluation(ctx, rec); err != nil {
			t.Fatalf("InsertEvaluation(%s) failed: %v", rec.RuleCode, err)
		}
	}

	capped, err := storage.ListEvaluations(ctx, &decision.Query{WizardID: wizardID})
	if err != nil {
		t.Fatalf("ListEvaluations() failed: %v", err)
	}
	if len(capped) != 100 {
		t.Errorf("default limit returned %d rows, want 100", len(capped))
	}

	all, err := storage.ListEvaluations(ctx, &decision.Query{WizardID: wizardID, Limit: decision.QueryNoLimit})
	if err != nil {
		t.Fatalf("ListEvaluations(QueryNoLimit) failed: %v", err)
	}
	if len(all) != total {
		t.Errorf("QueryNoLimit returned %d rows, want %d", len(all), total)
	}
}

func TestMemoryStorage_ArtifactActiveSet(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()
	wizardID := uuid.NewString()
	now := time.Now().UTC()

	insert := func(code string, version int, active bool, priority int) *decision.DerivedArtifact {
		t.Helper()
		art := &decision.DerivedArtifact{
			ID:                 uuid.NewString(),
			WizardID:           wizardID,
			OutputType:         decision.OutputTypeOverlay,
			OutputCode:         code,
			OutputName:         code,
			Payload:            []byte(`{"overlay_kind":"SECTOR","trigger_condition":"sector == banking"}`),
			Applicability:      decision.ApplicabilityMandatory,
			Priority:           priority,
			SourceEvaluationID: uuid.NewString(),
			Version:            version,
			IsActive:           active,
			DerivedAt:          now,
		}
		if err := storage.InsertArtifact(ctx, art); err != nil {
			t.Fatalf("InsertArtifact(%s v%d) failed: %v", code, version, err)
		}
		return art
	}

	insert("OVL_SECTOR_BANKING", 1, false, 2)
	insert("OVL_SECTOR_BANKING", 2, true, 2)
	insert("OVL_KSA", 1, true, 1)

	active, err := storage.ActiveArtifacts(ctx, wizardID)
	if err != nil {
		t.Fatalf("ActiveArtifacts() failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active set size = %d, want 2", len(active))
	}
	if active[0].OutputCode != "OVL_KSA" {
		t.Errorf("active[0] = %s, want OVL_KSA (priority order)", active[0].OutputCode)
	}

	last, err := storage.LastArtifactVersion(ctx, wizardID, "OVL_SECTOR_BANKING")
	if err != nil {
		t.Fatalf("LastArtifactVersion() failed: %v", err)
	}
	if last != 2 {
		t.Errorf("LastArtifactVersion() = %d, want 2", last)
	}
}

func TestMemoryStorage_OverridePreservesDecision(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	rec := &decision.ExplainabilityRecord{
		ID:            uuid.NewString(),
		WizardID:      uuid.NewString(),
		SubjectType:   decision.DecisionTypeFrameworkSelection,
		SubjectCode:   "PKG_SAMA",
		Decision:      decision.DecisionMandatory,
		PrimaryReason: "mandatory for banking",
		IsOverridable: true,
		GeneratedAt:   time.Now().UTC(),
	}
	if err := storage.InsertExplanation(ctx, rec); err != nil {
		t.Fatalf("InsertExplanation() failed: %v", err)
	}

	override := &decision.Override{
		By:            "reviewer",
		At:            time.Now().UTC(),
		NewDecision:   decision.DecisionOptional,
		Justification: "scoped out",
	}
	if err := storage.ApplyOverride(ctx, rec.ID, override); err != nil {
		t.Fatalf("ApplyOverride() failed: %v", err)
	}

	got, err := storage.GetExplanation(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetExplanation() failed: %v", err)
	}
	if got.Decision != decision.DecisionMandatory {
		t.Errorf("Decision = %s, want MANDATORY", got.Decision)
	}
	if got.Override == nil || got.Override.NewDecision != decision.DecisionOptional {
		t.Errorf("override not recorded: %+v", got.Override)
	}

	if err := storage.ApplyOverride(ctx, rec.ID, override); err == nil {
		t.Error("second override accepted, want OverrideError")
	}
}
