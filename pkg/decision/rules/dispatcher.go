package rules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shahin-hq/mizan/pkg/canonical"
	"shahin-hq/mizan/pkg/decision"
)

// Observer receives evaluation outcomes for metrics. Implementations
// must be safe for concurrent use.
type Observer interface {
	// RuleEvaluated is called once per rule with its result and duration.
	RuleEvaluated(ruleCode string, result decision.EvaluationResult, duration time.Duration)

	// BatchCompleted is called once per batch with the record count.
	BatchCompleted(wizardID string, records int, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) RuleEvaluated(string, decision.EvaluationResult, time.Duration) {}
func (nopObserver) BatchCompleted(string, int, time.Duration)                      {}

// Dispatcher evaluates a rule set against a snapshot in a fixed order and
// commits one immutable record per rule. A faulting rule is recorded with
// ResultError and never aborts the batch.
type Dispatcher struct {
	storage  decision.Storage
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithObserver attaches a metrics observer.
func WithObserver(obs Observer) DispatcherOption {
	return func(d *Dispatcher) { d.observer = obs }
}

// WithDispatcherClock overrides the time source, for tests.
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a dispatcher backed by the given storage.
func NewDispatcher(storage decision.Storage, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		storage:  storage,
		logger:   slog.Default().With("component", "decision.rules"),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Evaluate runs every rule in the set against the snapshot, in priority
// order, and commits each record individually. Previously derived active
// artifacts are exposed to conditions under "artifacts".
//
// The returned slice holds the committed records in evaluation order. A
// non-nil error means a record could not be persisted; records committed
// before the failure remain committed.
func (d *Dispatcher) Evaluate(ctx context.Context, snap *decision.AnswerSnapshot, set *RuleSet) ([]*decision.RuleEvaluationRecord, error) {
	started := d.now()

	active, err := d.storage.ActiveArtifacts(ctx, snap.WizardID)
	if err != nil {
		return nil, err
	}

	inputContext, err := BuildContext(snap, active)
	if err != nil {
		return nil, err
	}

	records := make([]*decision.RuleEvaluationRecord, 0, set.Len())
	for _, rule := range set.Ordered() {
		record := d.evaluateRule(snap, rule, inputContext)
		if err := d.storage.InsertEvaluation(ctx, record); err != nil {
			return records, err
		}
		records = append(records, record)
		d.observer.RuleEvaluated(rule.Code, record.Result, time.Duration(record.DurationMs)*time.Millisecond)

		if record.Result == decision.ResultError {
			d.logger.Warn("rule evaluation faulted",
				"wizard_id", snap.WizardID,
				"rule_code", rule.Code,
				"error", record.ErrorDetail)
		}
	}

	d.observer.BatchCompleted(snap.WizardID, len(records), d.now().Sub(started))
	d.logger.Info("rule batch evaluated",
		"wizard_id", snap.WizardID,
		"snapshot_id", snap.ID,
		"rules", len(records))
	return records, nil
}

// EvaluateDetached runs the batch without committing any records. Replay
// verification uses this to recompute what a past batch should contain.
// The supplied artifacts stand in for what was active at the original
// evaluation time.
func (d *Dispatcher) EvaluateDetached(snap *decision.AnswerSnapshot, set *RuleSet, active []*decision.DerivedArtifact) ([]*decision.RuleEvaluationRecord, error) {
	inputContext, err := BuildContext(snap, active)
	if err != nil {
		return nil, err
	}

	records := make([]*decision.RuleEvaluationRecord, 0, set.Len())
	for _, rule := range set.Ordered() {
		records = append(records, d.evaluateRule(snap, rule, inputContext))
	}
	return records, nil
}

// evaluateRule produces one record.
func (d *Dispatcher) evaluateRule(snap *decision.AnswerSnapshot, rule *Rule, inputContext map[string]any) *decision.RuleEvaluationRecord {
	started := d.now()

	record := &decision.RuleEvaluationRecord{
		ID:          uuid.NewString(),
		WizardID:    snap.WizardID,
		SnapshotID:  snap.ID,
		RuleCode:    rule.Code,
		RuleVersion: rule.Version,
		EvaluatedAt: started,
	}

	projection, err := projectContext(inputContext, rule)
	if err != nil {
		record.Result = decision.ResultError
		record.ErrorDetail = decision.NewEvaluationError(rule.Code, err).Error()
		record.DurationMs = d.now().Sub(started).Milliseconds()
		return record
	}
	record.InputContext = projection

	outcome := Recompute(rule, inputContext)
	record.Result = outcome.Result
	record.ConfidenceScore = outcome.ConfidenceScore
	record.OutputPayload = outcome.OutputPayload
	record.ReasonText = outcome.ReasonText
	record.ReasonTextAr = outcome.ReasonTextAr
	record.ErrorDetail = outcome.ErrorDetail
	record.DurationMs = d.now().Sub(started).Milliseconds()
	return record
}

// Outcome is the deterministic portion of one rule evaluation: everything
// a record carries except identity, timing, and the context projection.
type Outcome struct {
	Result          decision.EvaluationResult
	ConfidenceScore float64
	OutputPayload   []byte
	ReasonText      string
	ReasonTextAr    string
	ErrorDetail     string
}

// Recompute evaluates one rule against an input context. Panics and
// condition faults are both captured as ResultError so a single bad rule
// cannot take down a batch, and replay sees the same fault the original
// run recorded.
func Recompute(rule *Rule, inputContext map[string]any) (outcome *Outcome) {
	outcome = &Outcome{}

	defer func() {
		if r := recover(); r != nil {
			*outcome = Outcome{
				Result:      decision.ResultError,
				ErrorDetail: decision.NewEvaluationError(rule.Code, fmt.Errorf("panic: %v", r)).Error(),
			}
		}
	}()

	for _, required := range rule.Requires {
		if _, ok := lookupField(inputContext, required); !ok {
			outcome.Result = decision.ResultSkipped
			outcome.ReasonText = fmt.Sprintf("skipped: required field %q is not present", required)
			return outcome
		}
	}

	matched, err := rule.Condition.Evaluate(inputContext)
	if err != nil {
		outcome.Result = decision.ResultError
		outcome.ErrorDetail = decision.NewEvaluationError(rule.Code, err).Error()
		return outcome
	}

	if !matched {
		outcome.Result = decision.ResultNotMatched
		return outcome
	}

	output, err := produceOutput(rule, inputContext)
	if err != nil {
		outcome.Result = decision.ResultError
		outcome.ErrorDetail = decision.NewEvaluationError(rule.Code, err).Error()
		return outcome
	}

	outcome.Result = decision.ResultMatched
	outcome.ConfidenceScore = 1.0
	outcome.OutputPayload = output
	outcome.ReasonText = rule.Reason
	outcome.ReasonTextAr = rule.ReasonAr
	return outcome
}

// produceOutput serializes the rule's production payload. Risk-profile
// productions with factor declarations compute the payload from the
// context's boolean answers.
func produceOutput(rule *Rule, inputContext map[string]any) ([]byte, error) {
	if len(rule.Produces.RiskFactors) > 0 {
		profile := ComputeRiskProfile(rule.Produces.RiskFactors, inputContext)
		return canonical.Canonicalize(map[string]any{
			"score":     profile.Score,
			"tier":      profile.Tier,
			"breakdown": breakdownMap(profile.Breakdown),
		})
	}
	return canonicalPayload(rule.Produces.Payload)
}

func breakdownMap(breakdown map[string]float64) map[string]any {
	m := make(map[string]any, len(breakdown))
	for k, v := range breakdown {
		m[k] = v
	}
	return m
}

// ComputeRiskProfile sums the points of every factor whose context field
// is true and buckets the total into a tier.
func ComputeRiskProfile(factors []RiskFactor, inputContext map[string]any) decision.RiskProfilePayload {
	profile := decision.RiskProfilePayload{
		Breakdown: make(map[string]float64),
	}
	for _, f := range factors {
		v, ok := lookupField(inputContext, f.Field)
		if !ok {
			continue
		}
		if set, ok := v.(bool); ok && set {
			profile.Score += f.Points
			profile.Breakdown[f.Field] = f.Points
		}
	}
	profile.Tier = riskTier(profile.Score)
	return profile
}

func riskTier(score float64) string {
	switch {
	case score >= 70:
		return "CRITICAL"
	case score >= 50:
		return "HIGH"
	case score >= 30:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
