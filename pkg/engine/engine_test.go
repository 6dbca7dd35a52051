package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shahin-hq/mizan/pkg/decision"
	"shahin-hq/mizan/pkg/decision/rules"
	"shahin-hq/mizan/pkg/decision/storage"
)

func bankAnswers() map[string]any {
	return map[string]any{
		"country":           "SA",
		"sector":            "banking",
		"processes_pii":     true,
		"handles_card_data": true,
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	set, err := rules.Builtin()
	if err != nil {
		t.Fatalf("load builtin rules: %v", err)
	}
	return New(storage.NewMemoryStorage(), set, opts...)
}

func TestEngine_Run_FullPipeline(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	result, err := eng.Run(ctx, &RunRequest{
		WizardID:    "wiz-bank",
		StepNumber:  3,
		SectionCode: "organization_profile",
		Answers:     bankAnswers(),
		Actor:       "analyst@example",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.SnapshotCreated {
		t.Error("expected a new snapshot version")
	}
	if result.Snapshot.Version != 1 {
		t.Errorf("snapshot version = %d, want 1", result.Snapshot.Version)
	}
	if len(result.Records) != 7 {
		t.Fatalf("expected 7 evaluation records, got %d", len(result.Records))
	}

	// A KSA bank with card data and PII activates both overlays, SAMA,
	// PCI, PDPL, and the risk profile, but not NCA.
	activeCodes := map[string]bool{}
	for _, art := range result.Derivation.Active() {
		activeCodes[art.OutputCode] = true
	}
	for _, code := range []string{"OVL_KSA_JURISDICTION", "OVL_SECTOR_BANKING", "PKG_SAMA", "PKG_PCI_DSS", "PKG_PDPL", "RISK_PROFILE"} {
		if !activeCodes[code] {
			t.Errorf("expected active artifact %s", code)
		}
	}
	if activeCodes["PKG_NCA_ECC"] {
		t.Error("NCA should not apply to a non-critical bank")
	}

	// Decided records get explanations; nothing was skipped here.
	if len(result.Explanations) != 7 {
		t.Errorf("expected 7 explanations, got %d", len(result.Explanations))
	}
}

func TestEngine_Run_IdempotentSecondRun(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	req := &RunRequest{WizardID: "wiz-bank", StepNumber: 3, Answers: bankAnswers(), Actor: "analyst"}

	if _, err := eng.Run(ctx, req); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := eng.Run(ctx, req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if second.SnapshotCreated {
		t.Error("identical answers must not allocate a snapshot version")
	}
	if len(second.Derivation.Created)+len(second.Derivation.Superseded)+len(second.Derivation.Deactivated) != 0 {
		t.Errorf("identical run should leave artifacts unchanged: %+v", second.Derivation)
	}
}

func TestEngine_Run_RequiresWizardID(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Run(context.Background(), &RunRequest{Answers: bankAnswers()})
	var verr *decision.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestEngine_Run_ConcurrentSameWizard(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	mu := eng.wizardLock("wiz-busy")
	mu.Lock()
	defer mu.Unlock()

	_, err := eng.Run(ctx, &RunRequest{WizardID: "wiz-busy", Answers: bankAnswers()})
	var concErr *decision.ConcurrencyError
	if !errors.As(err, &concErr) {
		t.Fatalf("error = %v, want *ConcurrencyError", err)
	}
	if concErr.Operation != "run" {
		t.Errorf("Operation = %q, want %q", concErr.Operation, "run")
	}
}

func TestEngine_Run_DifferentWizardsInParallel(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Run(ctx, &RunRequest{
				WizardID: "wiz-" + string(rune('a'+i)),
				Answers:  bankAnswers(),
				Actor:    "analyst",
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("run %d failed: %v", i, err)
		}
	}
}

func TestEngine_SetRuleSet(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	if _, err := eng.Run(ctx, &RunRequest{WizardID: "wiz-swap", Answers: bankAnswers()}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Shrink the active set to the jurisdiction rule only; the next run
	// deactivates everything the dropped rules produced.
	full := eng.RuleSet()
	ksa, ok := full.Get("RULE_COUNTRY_KSA")
	if !ok {
		t.Fatal("built-in set is missing RULE_COUNTRY_KSA")
	}
	single, err := rules.NewRuleSet([]*rules.Rule{ksa})
	if err != nil {
		t.Fatalf("build single-rule set: %v", err)
	}
	eng.SetRuleSet(single)

	answers := bankAnswers()
	answers["internet_facing"] = true
	result, err := eng.Run(ctx, &RunRequest{WizardID: "wiz-swap", Answers: answers})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record with the reduced set, got %d", len(result.Records))
	}
	if len(result.Derivation.Deactivated) == 0 {
		t.Error("expected dropped rule productions to deactivate")
	}
}

func TestEngine_Override(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	result, err := eng.Run(ctx, &RunRequest{WizardID: "wiz-ovr", Answers: bankAnswers(), Actor: "analyst"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var target *decision.ExplainabilityRecord
	for _, exp := range result.Explanations {
		if exp.SubjectCode == "PKG_PCI_DSS" {
			target = exp
		}
	}
	if target == nil {
		t.Fatal("no PCI explanation found")
	}

	overridden, err := eng.Override(ctx, target.ID, "compliance.lead", decision.DecisionExcluded, "acquirer handles all card flows")
	if err != nil {
		t.Fatalf("Override: %v", err)
	}
	if overridden.Override == nil {
		t.Fatal("expected override envelope")
	}
	if overridden.EffectiveDecision() != decision.DecisionExcluded {
		t.Errorf("effective decision = %v, want EXCLUDED", overridden.EffectiveDecision())
	}
	if overridden.Decision != target.Decision {
		t.Error("original decision must remain untouched")
	}
}

func TestEngine_Finalize(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	result, err := eng.Run(ctx, &RunRequest{WizardID: "wiz-final", Answers: bankAnswers()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := eng.Finalize(ctx, result.Snapshot.ID); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	snap, err := eng.storage.GetSnapshot(ctx, result.Snapshot.ID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if !snap.IsFinal {
		t.Error("snapshot should be final")
	}
}

type countingRecorder struct {
	mu          sync.Mutex
	snapshots   int
	transitions map[string]int
	overrides   int
}

func (c *countingRecorder) RecordSnapshot(bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots++
}

func (c *countingRecorder) RecordArtifactTransition(transition string, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transitions == nil {
		c.transitions = map[string]int{}
	}
	c.transitions[transition] += count
}

func (c *countingRecorder) RecordOverride() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides++
}

func TestEngine_RecorderWiring(t *testing.T) {
	rec := &countingRecorder{}
	eng := newTestEngine(t, WithRecorder(rec))
	ctx := context.Background()

	if _, err := eng.Run(ctx, &RunRequest{WizardID: "wiz-rec", Answers: bankAnswers()}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rec.snapshots != 1 {
		t.Errorf("recorded snapshots = %d, want 1", rec.snapshots)
	}
	if rec.transitions["created"] != 6 {
		t.Errorf("recorded created = %d, want 6", rec.transitions["created"])
	}
}

func TestEngine_ClockInjection(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	eng := newTestEngine(t, WithClock(func() time.Time { return fixed }))

	result, err := eng.Run(context.Background(), &RunRequest{WizardID: "wiz-clock", Answers: bankAnswers()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Snapshot.CreatedAt.Equal(fixed) {
		t.Errorf("snapshot CreatedAt = %v, want %v", result.Snapshot.CreatedAt, fixed)
	}
}
