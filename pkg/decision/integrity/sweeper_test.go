package integrity

import (
	"context"
	"testing"

	"shahin-hq/mizan/pkg/decision/snapshot"
	"shahin-hq/mizan/pkg/decision/storage"
)

func capture(t *testing.T, store *storage.MemoryStorage, wizardID string, answers map[string]any) string {
	t.Helper()
	snap, _, err := snapshot.NewStore(store).Capture(context.Background(), &snapshot.CaptureRequest{
		WizardID:    wizardID,
		StepNumber:  1,
		SectionCode: "ORG_PROFILE",
		Answers:     answers,
		Actor:       "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	return snap.ID
}

func TestSweepClean(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	capture(t, store, "wiz-a", map[string]any{"country": "SA"})
	capture(t, store, "wiz-b", map[string]any{"country": "AE"})

	report, err := NewSweeper(store).Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !report.Clean() {
		t.Fatalf("expected clean sweep, got %+v", report.Violations)
	}
	if report.Wizards != 2 || report.Snapshots != 2 {
		t.Errorf("wizards/snapshots = %d/%d, want 2/2", report.Wizards, report.Snapshots)
	}
}

func TestSweepDetectsCorruption(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	capture(t, store, "wiz-ok", map[string]any{"country": "SA"})
	corruptID := capture(t, store, "wiz-bad", map[string]any{"country": "SA", "sector": "banking"})
	store.CorruptSnapshot(corruptID, []byte(`{"country":"AE"}`))

	report, err := NewSweeper(store).Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Violations) != 1 {
		t.Fatalf("violations = %d, want 1", len(report.Violations))
	}
	v := report.Violations[0]
	if v.SnapshotID != corruptID || v.WizardID != "wiz-bad" {
		t.Errorf("violation = %+v", v)
	}
	if v.Stored == v.Computed {
		t.Error("violation must carry differing hashes")
	}
}

func TestSweepWizard(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	capture(t, store, "wiz-one", map[string]any{"country": "SA"})
	badID := capture(t, store, "wiz-two", map[string]any{"sector": "banking"})
	store.CorruptSnapshot(badID, []byte(`{}`))

	report, err := NewSweeper(store).SweepWizard(context.Background(), "wiz-one")
	if err != nil {
		t.Fatal(err)
	}
	if !report.Clean() {
		t.Error("wiz-one should be clean")
	}

	report, err = NewSweeper(store).SweepWizard(context.Background(), "wiz-two")
	if err != nil {
		t.Fatal(err)
	}
	if report.Clean() {
		t.Error("wiz-two corruption not detected")
	}
}

func TestSchedulerLifecycle(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	t.Run("empty schedule is disabled", func(t *testing.T) {
		s := NewScheduler(NewSweeper(store), "", nil)
		if err := s.Start(context.Background()); err != nil {
			t.Fatal(err)
		}
		if s.IsRunning() {
			t.Error("scheduler should stay stopped without a schedule")
		}
	})

	t.Run("invalid schedule rejected", func(t *testing.T) {
		s := NewScheduler(NewSweeper(store), "not a cron expr", nil)
		if err := s.Start(context.Background()); err == nil {
			t.Fatal("expected error for invalid schedule")
		}
	})

	t.Run("start and stop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s := NewScheduler(NewSweeper(store), "0 3 * * *", nil)
		if err := s.Start(ctx); err != nil {
			t.Fatal(err)
		}
		if !s.IsRunning() {
			t.Fatal("scheduler should be running")
		}
		if s.NextRun() == nil {
			t.Error("a scheduled sweep should have a next run time")
		}
		s.Stop()
		if s.IsRunning() {
			t.Error("scheduler should stop")
		}
	})
}
