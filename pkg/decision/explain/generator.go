package explain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"shahin-hq/mizan/pkg/canonical"
	"shahin-hq/mizan/pkg/decision"
	"shahin-hq/mizan/pkg/decision/rules"
)

// Generator builds explainability records from evaluation batches.
type Generator struct {
	storage decision.Storage
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a generator backed by the given storage.
func NewGenerator(storage decision.Storage, opts ...Option) *Generator {
	g := &Generator{
		storage: storage,
		logger:  slog.Default().With("component", "decision.explain"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes one explainability record per decided rule in the
// batch. Matched and not-matched records both get an explanation; skipped
// and faulted rules decided nothing, so they get none.
func (g *Generator) Generate(ctx context.Context, wizardID string, set *rules.RuleSet, records []*decision.RuleEvaluationRecord) ([]*decision.ExplainabilityRecord, error) {
	var explanations []*decision.ExplainabilityRecord
	for _, record := range records {
		if record.Result != decision.ResultMatched && record.Result != decision.ResultNotMatched {
			continue
		}
		rule, ok := set.Get(record.RuleCode)
		if !ok {
			return nil, decision.NewValidationError(record.RuleCode, "",
				"evaluation record references a rule absent from the rule set")
		}

		explanation, err := g.build(wizardID, rule, record)
		if err != nil {
			return nil, err
		}
		if err := g.storage.InsertExplanation(ctx, explanation); err != nil {
			return explanations, err
		}
		explanations = append(explanations, explanation)
	}

	g.logger.Info("explanations generated",
		"wizard_id", wizardID,
		"count", len(explanations))
	return explanations, nil
}

func (g *Generator) build(wizardID string, rule *rules.Rule, record *decision.RuleEvaluationRecord) (*decision.ExplainabilityRecord, error) {
	factors, err := factorsFromContext(record.InputContext)
	if err != nil {
		return nil, err
	}

	reason, reasonAr := record.ReasonText, record.ReasonTextAr
	if record.Result == decision.ResultNotMatched {
		reason = fmt.Sprintf("%s does not apply: the qualifying conditions were not met.", rule.Produces.OutputName)
		if rule.Produces.OutputNameAr != "" {
			reasonAr = fmt.Sprintf("لا ينطبق %s: لم تتحقق الشروط المؤهلة.", rule.Produces.OutputNameAr)
		}
	}

	return &decision.ExplainabilityRecord{
		ID:                 uuid.NewString(),
		WizardID:           wizardID,
		SubjectType:        rule.DecisionType,
		SubjectCode:        rule.Produces.OutputCode,
		SubjectName:        rule.Produces.OutputName,
		SubjectNameAr:      rule.Produces.OutputNameAr,
		Decision:           conclude(rule, record),
		PrimaryReason:      reason,
		PrimaryReasonAr:    reasonAr,
		Factors:            factors,
		References:         rule.References,
		SourceEvaluationID: record.ID,
		IsOverridable:      rule.IsOverridable(),
		GeneratedAt:        g.now(),
	}, nil
}

// conclude maps an evaluation outcome to the recorded decision. Framework
// selections read as included or excluded; other decision families carry
// the production's applicability on match.
func conclude(rule *rules.Rule, record *decision.RuleEvaluationRecord) decision.Decision {
	if record.Result == decision.ResultNotMatched {
		return decision.DecisionExcluded
	}
	if rule.DecisionType == decision.DecisionTypeFrameworkSelection ||
		rule.DecisionType == decision.DecisionTypeRiskProfile {
		return decision.DecisionIncluded
	}
	switch rule.Produces.Applicability {
	case decision.ApplicabilityMandatory:
		return decision.DecisionMandatory
	case decision.ApplicabilityRecommended:
		return decision.DecisionRecommended
	default:
		return decision.DecisionOptional
	}
}

// factorsFromContext flattens the record's input context projection into
// weighted factors. Each top-level leaf contributes equally; the weights
// sum to 1 so reviewers can see relative influence at a glance.
func factorsFromContext(inputContext []byte) ([]decision.Factor, error) {
	if len(inputContext) == 0 {
		return nil, nil
	}
	fields, err := canonical.Decode(inputContext)
	if err != nil {
		return nil, err
	}

	var flat []decision.Factor
	flattenFactors("", fields, &flat)
	sort.Slice(flat, func(i, j int) bool { return flat[i].Field < flat[j].Field })

	if len(flat) > 0 {
		weight := 1.0 / float64(len(flat))
		for i := range flat {
			flat[i].Weight = weight
		}
	}
	return flat, nil
}

func flattenFactors(prefix string, m map[string]any, out *[]decision.Factor) {
	for key, value := range m {
		field := key
		if prefix != "" {
			field = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			flattenFactors(field, child, out)
			continue
		}
		*out = append(*out, decision.Factor{
			Field: field,
			Value: fmt.Sprintf("%v", value),
		})
	}
}

// Override records a reviewer override on an explainability record. The
// original decision is preserved; only the override envelope is written.
//
// Errors: ErrNotFound for an unknown record, OverrideError when the
// record is not overridable or already carries an override,
// ValidationError for a malformed request.
func (g *Generator) Override(ctx context.Context, recordID, actor string, newDecision decision.Decision, justification string) (*decision.ExplainabilityRecord, error) {
	if actor == "" {
		return nil, decision.NewValidationError("", "actor", "override requires an actor")
	}
	if justification == "" {
		return nil, decision.NewValidationError("", "justification", "override requires a justification")
	}
	switch newDecision {
	case decision.DecisionIncluded, decision.DecisionExcluded, decision.DecisionMandatory,
		decision.DecisionRecommended, decision.DecisionOptional:
	default:
		return nil, decision.NewValidationError("", "new_decision",
			fmt.Sprintf("unknown decision %q", newDecision))
	}

	record, err := g.storage.GetExplanation(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !record.IsOverridable {
		return nil, decision.NewOverrideError(recordID, "record does not accept overrides")
	}

	override := &decision.Override{
		By:            actor,
		At:            g.now(),
		NewDecision:   newDecision,
		Justification: justification,
	}
	if err := g.storage.ApplyOverride(ctx, recordID, override); err != nil {
		return nil, err
	}

	g.logger.Info("decision overridden",
		"record_id", recordID,
		"subject", record.SubjectCode,
		"original", string(record.Decision),
		"new", string(newDecision),
		"by", actor)
	return g.storage.GetExplanation(ctx, recordID)
}
