package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"shahin-hq/mizan/pkg/decision"
	"shahin-hq/mizan/pkg/decision/derive"
	"shahin-hq/mizan/pkg/decision/explain"
	"shahin-hq/mizan/pkg/decision/rules"
	"shahin-hq/mizan/pkg/decision/snapshot"
)

// Recorder receives pipeline events for metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	// RecordSnapshot is called once per captured snapshot.
	RecordSnapshot(final bool)

	// RecordArtifactTransition is called per derivation transition kind.
	RecordArtifactTransition(transition string, count int)

	// RecordOverride is called once per applied override.
	RecordOverride()
}

type nopRecorder struct{}

func (nopRecorder) RecordSnapshot(bool)                  {}
func (nopRecorder) RecordArtifactTransition(string, int) {}
func (nopRecorder) RecordOverride()                      {}

// RunRequest describes one completed wizard step to push through the
// pipeline.
type RunRequest struct {
	// WizardID identifies the onboarding wizard.
	WizardID string

	// StepNumber is the wizard step that was completed.
	StepNumber int

	// SectionCode identifies the wizard section.
	SectionCode string

	// Answers is the field-name-to-value answer payload for the step.
	Answers map[string]any

	// Actor is who completed the step.
	Actor string
}

// RunResult holds everything one pipeline run produced.
type RunResult struct {
	// Snapshot is the captured (or reused) answer snapshot.
	Snapshot *decision.AnswerSnapshot

	// SnapshotCreated reports whether a new snapshot version was allocated.
	SnapshotCreated bool

	// Records are the evaluation records committed for the batch.
	Records []*decision.RuleEvaluationRecord

	// Derivation summarizes the artifact transitions.
	Derivation *derive.Result

	// Explanations are the generated explainability records.
	Explanations []*decision.ExplainabilityRecord
}

// Engine runs the capture, evaluate, derive, and explain stages in order.
type Engine struct {
	storage    decision.Storage
	snapshots  *snapshot.Store
	dispatcher *rules.Dispatcher
	deriver    *derive.Manager
	explainer  *explain.Generator
	recorder   Recorder
	logger     *slog.Logger
	observer   rules.Observer
	now        func() time.Time

	// set is the active rule set, swapped atomically on reload.
	setMu sync.RWMutex
	set   *rules.RuleSet

	// locks holds one mutex per wizard to serialize runs.
	locks sync.Map
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger overrides the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver attaches an evaluation observer to the dispatcher.
func WithObserver(obs rules.Observer) Option {
	return func(e *Engine) { e.observer = obs }
}

// WithRecorder attaches a pipeline recorder for metrics.
func WithRecorder(rec Recorder) Option {
	return func(e *Engine) { e.recorder = rec }
}

// WithClock overrides the time source of every stage, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over the given storage and rule set.
func New(storage decision.Storage, set *rules.RuleSet, opts ...Option) *Engine {
	e := &Engine{
		storage:  storage,
		recorder: nopRecorder{},
		logger:   slog.Default().With("component", "engine"),
		set:      set,
	}
	for _, opt := range opts {
		opt(e)
	}

	var snapOpts []snapshot.Option
	var dispOpts []rules.DispatcherOption
	var derOpts []derive.Option
	var explOpts []explain.Option
	if e.now != nil {
		snapOpts = append(snapOpts, snapshot.WithClock(e.now))
		dispOpts = append(dispOpts, rules.WithDispatcherClock(e.now))
		derOpts = append(derOpts, derive.WithClock(e.now))
		explOpts = append(explOpts, explain.WithClock(e.now))
	}
	if e.observer != nil {
		dispOpts = append(dispOpts, rules.WithObserver(e.observer))
	}

	e.snapshots = snapshot.NewStore(storage, snapOpts...)
	e.dispatcher = rules.NewDispatcher(storage, dispOpts...)
	e.deriver = derive.NewManager(storage, derOpts...)
	e.explainer = explain.NewGenerator(storage, explOpts...)

	return e
}

// RuleSet returns the active rule set.
func (e *Engine) RuleSet() *rules.RuleSet {
	e.setMu.RLock()
	defer e.setMu.RUnlock()
	return e.set
}

// SetRuleSet atomically replaces the active rule set. Runs already in
// flight keep the set they resolved at start.
func (e *Engine) SetRuleSet(set *rules.RuleSet) {
	e.setMu.Lock()
	e.set = set
	e.setMu.Unlock()
	e.logger.Info("rule set replaced", "rules", set.Len())
}

// Run pushes one completed wizard step through the full pipeline. A run
// already in flight for the same wizard surfaces as a ConcurrencyError.
func (e *Engine) Run(ctx context.Context, req *RunRequest) (*RunResult, error) {
	if req.WizardID == "" {
		return nil, decision.NewValidationError("", "wizard_id", "run requires a wizard ID")
	}

	mu := e.wizardLock(req.WizardID)
	if !mu.TryLock() {
		return nil, decision.NewConcurrencyError(req.WizardID, "run")
	}
	defer mu.Unlock()

	set := e.RuleSet()

	snap, created, err := e.snapshots.Capture(ctx, &snapshot.CaptureRequest{
		WizardID:    req.WizardID,
		StepNumber:  req.StepNumber,
		SectionCode: req.SectionCode,
		Answers:     req.Answers,
		Actor:       req.Actor,
	})
	if err != nil {
		return nil, err
	}
	if created {
		e.recorder.RecordSnapshot(snap.IsFinal)
	}

	records, err := e.dispatcher.Evaluate(ctx, snap, set)
	if err != nil {
		return nil, err
	}

	derivation, err := e.deriver.Reconcile(ctx, req.WizardID, set, records)
	if err != nil {
		return nil, err
	}
	e.recorder.RecordArtifactTransition("created", len(derivation.Created))
	e.recorder.RecordArtifactTransition("superseded", len(derivation.Superseded))
	e.recorder.RecordArtifactTransition("unchanged", len(derivation.Unchanged))
	e.recorder.RecordArtifactTransition("deactivated", len(derivation.Deactivated))

	explanations, err := e.explainer.Generate(ctx, req.WizardID, set, records)
	if err != nil {
		return nil, err
	}

	e.logger.Info("pipeline run complete",
		"wizard_id", req.WizardID,
		"snapshot_id", snap.ID,
		"snapshot_created", created,
		"records", len(records),
		"active_artifacts", len(derivation.Active()),
		"explanations", len(explanations))

	return &RunResult{
		Snapshot:        snap,
		SnapshotCreated: created,
		Records:         records,
		Derivation:      derivation,
		Explanations:    explanations,
	}, nil
}

// Override applies a manual override to an explained decision. The override
// never rewrites the original conclusion; it is recorded alongside it.
func (e *Engine) Override(ctx context.Context, recordID, actor string, newDecision decision.Decision, justification string) (*decision.ExplainabilityRecord, error) {
	rec, err := e.explainer.Override(ctx, recordID, actor, newDecision, justification)
	if err != nil {
		return nil, err
	}
	e.recorder.RecordOverride()
	return rec, nil
}

// Finalize marks a snapshot as the wizard's final submission.
func (e *Engine) Finalize(ctx context.Context, snapshotID string) error {
	return e.snapshots.MarkFinal(ctx, snapshotID)
}

// wizardLock returns the mutex serializing runs for a wizard.
func (e *Engine) wizardLock(wizardID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(wizardID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
