package derive

import (
	"context"
	"testing"
	"time"

	"shahin-hq/mizan/pkg/canonical"
	"shahin-hq/mizan/pkg/decision"
	"shahin-hq/mizan/pkg/decision/rules"
	"shahin-hq/mizan/pkg/decision/snapshot"
	"shahin-hq/mizan/pkg/decision/storage"
)

// runBatch captures answers, evaluates the set, and reconciles, returning
// the reconciliation result. It is the full decision pipeline minus
// explanations.
func runBatch(t *testing.T, store decision.Storage, set *rules.RuleSet, wizardID string, answers map[string]any) *Result {
	t.Helper()
	ctx := context.Background()

	snaps := snapshot.NewStore(store)
	snap, _, err := snaps.Capture(ctx, &snapshot.CaptureRequest{
		WizardID:    wizardID,
		StepNumber:  1,
		SectionCode: "ORG_PROFILE",
		Answers:     answers,
		Actor:       "tester",
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	records, err := rules.NewDispatcher(store).Evaluate(ctx, snap, set)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	result, err := NewManager(store).Reconcile(ctx, wizardID, set, records)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	return result
}

func activeCodes(t *testing.T, store decision.Storage, wizardID string) map[string]*decision.DerivedArtifact {
	t.Helper()
	active, err := store.ActiveArtifacts(context.Background(), wizardID)
	if err != nil {
		t.Fatal(err)
	}
	byCode := make(map[string]*decision.DerivedArtifact, len(active))
	for _, art := range active {
		byCode[art.OutputCode] = art
	}
	return byCode
}

func TestReconcileFullPipelineForBank(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	set, err := rules.Builtin()
	if err != nil {
		t.Fatal(err)
	}

	result := runBatch(t, store, set, "wiz-bank", map[string]any{
		"country":           "SA",
		"sector":            "banking",
		"processes_pii":     true,
		"handles_card_data": true,
	})

	// A Saudi bank handling cards and PII gets SAMA, PCI, PDPL, the two
	// overlays, and a risk profile. NCA does not apply.
	wantCodes := []string{
		"OVL_KSA_JURISDICTION", "OVL_SECTOR_BANKING",
		"PKG_SAMA", "PKG_PCI_DSS", "PKG_PDPL", "RISK_PROFILE",
	}
	if len(result.Created) != len(wantCodes) {
		t.Fatalf("created = %d artifacts, want %d", len(result.Created), len(wantCodes))
	}

	byCode := activeCodes(t, store, "wiz-bank")
	for _, code := range wantCodes {
		art, ok := byCode[code]
		if !ok {
			t.Errorf("missing active artifact %s", code)
			continue
		}
		if art.Version != 1 {
			t.Errorf("%s version = %d, want 1", code, art.Version)
		}
		if art.SourceEvaluationID == "" {
			t.Errorf("%s has no source evaluation", code)
		}
	}
	if _, ok := byCode["PKG_NCA_ECC"]; ok {
		t.Error("NCA package should not apply to a non-critical bank")
	}

	// Risk: pii 15 + cards 25 = 40 MEDIUM.
	risk, err := decision.DecodePayload(decision.OutputTypeRiskProfile, byCode["RISK_PROFILE"].Payload)
	if err != nil {
		t.Fatalf("risk payload: %v", err)
	}
	profile := risk.(*decision.RiskProfilePayload)
	if profile.Score != 40 || profile.Tier != "MEDIUM" {
		t.Errorf("risk = %v/%s, want 40/MEDIUM", profile.Score, profile.Tier)
	}
}

func TestReconcileIdenticalRunIsNoOp(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	set, err := rules.Builtin()
	if err != nil {
		t.Fatal(err)
	}

	answers := map[string]any{
		"country": "SA",
		"sector":  "banking",
	}
	first := runBatch(t, store, set, "wiz-idem", answers)
	if len(first.Created) == 0 {
		t.Fatal("first run created nothing")
	}

	// Same answers again but with a different step: a new snapshot,
	// identical conclusions.
	second := runBatch(t, store, set, "wiz-idem", map[string]any{
		"country": "SA",
		"sector":  "banking",
		"step2":   true,
	})

	if len(second.Superseded) != 0 || len(second.Deactivated) != 0 {
		t.Fatalf("identical conclusions superseded=%d deactivated=%d, want 0/0",
			len(second.Superseded), len(second.Deactivated))
	}
	for _, code := range []string{"OVL_KSA_JURISDICTION", "OVL_SECTOR_BANKING", "PKG_SAMA"} {
		art := activeCodes(t, store, "wiz-idem")[code]
		if art == nil {
			t.Fatalf("missing %s", code)
		}
		if art.Version != 1 {
			t.Errorf("%s version = %d, want 1 (unchanged conclusion must not re-version)", code, art.Version)
		}
	}
}

func TestReconcileSupersedesAndDeactivates(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	set, err := rules.Builtin()
	if err != nil {
		t.Fatal(err)
	}

	runBatch(t, store, set, "wiz-change", map[string]any{
		"country":           "SA",
		"sector":            "banking",
		"handles_card_data": true,
	})

	// The organization stops handling card data and leaves the financial
	// sector: PCI and the banking artifacts must be deactivated, the risk
	// profile superseded.
	result := runBatch(t, store, set, "wiz-change", map[string]any{
		"country":           "SA",
		"sector":            "government",
		"handles_card_data": false,
	})

	byCode := activeCodes(t, store, "wiz-change")
	if _, ok := byCode["PKG_PCI_DSS"]; ok {
		t.Error("PCI still active after card handling stopped")
	}
	if _, ok := byCode["OVL_SECTOR_BANKING"]; ok {
		t.Error("banking overlay still active after sector change")
	}
	if _, ok := byCode["PKG_NCA_ECC"]; !ok {
		t.Error("government sector should activate the NCA package")
	}

	deactivated := make(map[string]bool)
	for _, art := range result.Deactivated {
		deactivated[art.OutputCode] = true
	}
	for _, code := range []string{"PKG_PCI_DSS", "OVL_SECTOR_BANKING", "PKG_SAMA"} {
		if !deactivated[code] {
			t.Errorf("%s not reported deactivated", code)
		}
	}

	// Risk dropped from 25 (cards) to 0: a new version supersedes v1.
	risk := byCode["RISK_PROFILE"]
	if risk == nil {
		t.Fatal("risk profile missing")
	}
	if risk.Version != 2 {
		t.Errorf("risk version = %d, want 2", risk.Version)
	}

	// History keeps both versions, only v2 active.
	versions, err := store.ArtifactVersions(context.Background(), "wiz-change", "RISK_PROFILE")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 {
		t.Fatalf("risk versions = %d, want 2", len(versions))
	}
	if versions[0].IsActive || versions[0].DeactivatedAt == nil {
		t.Error("superseded version must be inactive with a deactivation time")
	}
	if !versions[1].IsActive {
		t.Error("latest version must be active")
	}
}

func TestReconcileReactivationContinuesVersionSequence(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	set, err := rules.Builtin()
	if err != nil {
		t.Fatal(err)
	}

	withCards := map[string]any{"country": "SA", "sector": "retail", "handles_card_data": true}
	withoutCards := map[string]any{"country": "SA", "sector": "retail", "handles_card_data": false}

	runBatch(t, store, set, "wiz-flap", withCards)
	runBatch(t, store, set, "wiz-flap", withoutCards)
	runBatch(t, store, set, "wiz-flap", map[string]any{"country": "SA", "sector": "retail", "handles_card_data": true, "again": true})

	// v1 active, v1 deactivated, then a fresh v2: versions never reset.
	versions, err := store.ArtifactVersions(context.Background(), "wiz-flap", "PKG_PCI_DSS")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 {
		t.Fatalf("versions = %d, want 2", len(versions))
	}
	if versions[1].Version != 2 || !versions[1].IsActive {
		t.Errorf("reactivated artifact version = %d active=%v, want 2/true",
			versions[1].Version, versions[1].IsActive)
	}
}

func TestSelectWinnersConflictResolution(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	payload := canonical.MustCanonicalize(map[string]any{
		"overlay_kind":      "SECTOR",
		"trigger_condition": "test",
	})

	mkRule := func(code string, applicability decision.Applicability) *rules.Rule {
		return &rules.Rule{
			Code:         code,
			Name:         code,
			Version:      "1.0.0",
			Priority:     1,
			DecisionType: decision.DecisionTypeOverlayApplication,
			Condition:    &rules.Condition{Kind: rules.KindExists, Field: "sector"},
			Reason:       "r",
			Produces: rules.Production{
				OutputType:    decision.OutputTypeOverlay,
				OutputCode:    "OVL_SHARED",
				OutputName:    "Shared",
				Applicability: applicability,
				Payload: map[string]any{
					"overlay_kind":      "SECTOR",
					"trigger_condition": "test",
				},
			},
		}
	}

	set, err := rules.NewRuleSet([]*rules.Rule{
		mkRule("RULE_B_OPTIONAL", decision.ApplicabilityOptional),
		mkRule("RULE_A_MANDATORY", decision.ApplicabilityMandatory),
	})
	if err != nil {
		t.Fatal(err)
	}

	records := []*decision.RuleEvaluationRecord{
		{ID: "e1", RuleCode: "RULE_B_OPTIONAL", Result: decision.ResultMatched, ConfidenceScore: 1.0, OutputPayload: payload},
		{ID: "e2", RuleCode: "RULE_A_MANDATORY", Result: decision.ResultMatched, ConfidenceScore: 1.0, OutputPayload: payload},
	}

	winners, err := NewManager(store).selectWinners(set, records)
	if err != nil {
		t.Fatal(err)
	}
	winner := winners["OVL_SHARED"]
	if winner.rule.Code != "RULE_A_MANDATORY" {
		t.Errorf("winner = %s, want RULE_A_MANDATORY (stricter applicability)", winner.rule.Code)
	}
}

func TestReconcileClockInjection(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	m := NewManager(store, WithClock(func() time.Time { return fixed }))

	set, err := rules.Builtin()
	if err != nil {
		t.Fatal(err)
	}

	snaps := snapshot.NewStore(store)
	snap, _, err := snaps.Capture(context.Background(), &snapshot.CaptureRequest{
		WizardID: "wiz-clock", StepNumber: 1, SectionCode: "ORG_PROFILE",
		Answers: map[string]any{"country": "SA", "sector": "banking"}, Actor: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	records, err := rules.NewDispatcher(store).Evaluate(context.Background(), snap, set)
	if err != nil {
		t.Fatal(err)
	}

	result, err := m.Reconcile(context.Background(), "wiz-clock", set, records)
	if err != nil {
		t.Fatal(err)
	}
	for _, art := range result.Created {
		if !art.DerivedAt.Equal(fixed) {
			t.Errorf("%s derived_at = %v, want %v", art.OutputCode, art.DerivedAt, fixed)
		}
	}
}
