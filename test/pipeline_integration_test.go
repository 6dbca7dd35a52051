//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"shahin-hq/mizan/pkg/config"
	"shahin-hq/mizan/pkg/decision"
	"shahin-hq/mizan/pkg/decision/export"
	"shahin-hq/mizan/pkg/decision/integrity"
	"shahin-hq/mizan/pkg/decision/replay"
	"shahin-hq/mizan/pkg/engine"
)

// TestPipelineIntegration runs the full decision pipeline against a real
// SQLite database: evaluate, re-evaluate, override, finalize, replay,
// sweep, and export.
func TestPipelineIntegration(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Storage.Backend = "sqlite"
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "mizan.db")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config validation: %v", err)
	}

	setup, err := engine.FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer setup.Close()

	ctx := context.Background()
	answers := map[string]any{
		"country":           "SA",
		"sector":            "banking",
		"processes_pii":     true,
		"handles_card_data": true,
	}

	// First run produces the full record set.
	result, err := setup.Engine.Run(ctx, &engine.RunRequest{
		WizardID:    "wiz-int",
		StepNumber:  1,
		SectionCode: "organization_profile",
		Answers:     answers,
		Actor:       "officer-7",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.SnapshotCreated {
		t.Fatal("first run should create a snapshot")
	}
	if len(result.Records) == 0 || len(result.Derivation.Created) == 0 {
		t.Fatalf("first run produced no records or artifacts: %+v", result)
	}

	// An identical second run reuses the snapshot and changes nothing.
	second, err := setup.Engine.Run(ctx, &engine.RunRequest{
		WizardID:    "wiz-int",
		StepNumber:  1,
		SectionCode: "organization_profile",
		Answers:     answers,
		Actor:       "officer-7",
	})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.SnapshotCreated {
		t.Error("identical answers must not create a new snapshot")
	}
	if len(second.Derivation.Created) != 0 || len(second.Derivation.Superseded) != 0 {
		t.Errorf("identical answers must not change artifacts: %+v", second.Derivation)
	}

	// Override one overridable decision.
	var target *decision.ExplainabilityRecord
	for _, exp := range result.Explanations {
		if exp.IsOverridable {
			target = exp
			break
		}
	}
	if target == nil {
		t.Fatal("expected at least one overridable explanation")
	}
	overridden, err := setup.Engine.Override(ctx, target.ID, "reviewer-1",
		decision.DecisionExcluded, "covered by group-level assessment")
	if err != nil {
		t.Fatalf("Override: %v", err)
	}
	if !overridden.Overridden() || overridden.Decision != target.Decision {
		t.Errorf("override must layer on the original decision: %+v", overridden)
	}

	// Finalize the snapshot.
	if err := setup.Engine.Finalize(ctx, result.Snapshot.ID); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	// Replay must reproduce the stored run exactly.
	report, err := replay.NewVerifier(setup.Storage).ReplayLatest(ctx, "wiz-int", setup.Engine.RuleSet())
	if err != nil {
		t.Fatalf("ReplayLatest: %v", err)
	}
	if !report.Clean() {
		t.Errorf("replay diverged: %+v", report.Divergences)
	}

	// Integrity sweep must come back clean.
	sweep, err := integrity.NewSweeper(setup.Storage).Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if !sweep.Clean() {
		t.Errorf("sweep found violations: %+v", sweep.Violations)
	}
	if sweep.Snapshots == 0 {
		t.Error("sweep checked no snapshots")
	}

	// The JSON export carries the full trail.
	var buf bytes.Buffer
	if err := export.NewJSONExporter(setup.Storage, false).Export(ctx, "wiz-int", &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	var bundle map[string]any
	if err := json.Unmarshal(buf.Bytes(), &bundle); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
}
