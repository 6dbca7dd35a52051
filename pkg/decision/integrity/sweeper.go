package integrity

import (
	"context"
	"log/slog"
	"time"

	"shahin-hq/mizan/pkg/canonical"
	"shahin-hq/mizan/pkg/decision"
)

// Violation is one snapshot whose stored hash no longer matches its
// recomputed value.
type Violation struct {
	WizardID   string `json:"wizard_id"`
	SnapshotID string `json:"snapshot_id"`
	Version    int    `json:"version"`
	Stored     string `json:"stored"`
	Computed   string `json:"computed"`
}

// SweepReport summarizes one verification sweep.
type SweepReport struct {
	// StartedAt and Duration bound the sweep.
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	// Wizards and Snapshots count what was checked.
	Wizards   int `json:"wizards"`
	Snapshots int `json:"snapshots"`

	// Violations lists every mismatch found.
	Violations []Violation `json:"violations,omitempty"`
}

// Clean reports whether the sweep found no violations.
func (r *SweepReport) Clean() bool {
	return len(r.Violations) == 0
}

// Sweeper verifies stored snapshot hashes.
type Sweeper struct {
	storage decision.Storage
	logger  *slog.Logger
	now     func() time.Time
}

// NewSweeper creates a sweeper backed by the given storage.
func NewSweeper(storage decision.Storage) *Sweeper {
	return &Sweeper{
		storage: storage,
		logger:  slog.Default().With("component", "decision.integrity"),
		now:     time.Now,
	}
}

// Sweep verifies every snapshot of every wizard. Violations are collected
// and reported, never repaired.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	started := s.now()

	wizardIDs, err := s.storage.WizardIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{
		StartedAt: started,
		Wizards:   len(wizardIDs),
	}

	for _, wizardID := range wizardIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		violations, checked, err := s.sweepWizard(ctx, wizardID)
		if err != nil {
			return nil, err
		}
		report.Snapshots += checked
		report.Violations = append(report.Violations, violations...)
	}

	report.Duration = s.now().Sub(started)

	if report.Clean() {
		s.logger.Info("integrity sweep clean",
			"wizards", report.Wizards,
			"snapshots", report.Snapshots,
			"duration_ms", report.Duration.Milliseconds())
	} else {
		s.logger.Error("integrity sweep found violations",
			"wizards", report.Wizards,
			"snapshots", report.Snapshots,
			"violations", len(report.Violations))
	}
	return report, nil
}

// SweepWizard verifies one wizard's snapshots.
func (s *Sweeper) SweepWizard(ctx context.Context, wizardID string) (*SweepReport, error) {
	started := s.now()
	violations, checked, err := s.sweepWizard(ctx, wizardID)
	if err != nil {
		return nil, err
	}
	return &SweepReport{
		StartedAt:  started,
		Duration:   s.now().Sub(started),
		Wizards:    1,
		Snapshots:  checked,
		Violations: violations,
	}, nil
}

func (s *Sweeper) sweepWizard(ctx context.Context, wizardID string) ([]Violation, int, error) {
	snapshots, err := s.storage.ListSnapshots(ctx, wizardID)
	if err != nil {
		return nil, 0, err
	}

	var violations []Violation
	for _, snap := range snapshots {
		computed := canonical.Hash(snap.Payload)
		if computed == snap.ContentHash {
			continue
		}
		violations = append(violations, Violation{
			WizardID:   wizardID,
			SnapshotID: snap.ID,
			Version:    snap.Version,
			Stored:     snap.ContentHash,
			Computed:   computed,
		})
		s.logger.Error("snapshot integrity violation",
			"wizard_id", wizardID,
			"snapshot_id", snap.ID,
			"version", snap.Version)
	}
	return violations, len(snapshots), nil
}
