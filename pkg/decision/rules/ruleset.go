package rules

import (
	"fmt"
	"sort"

	"shahin-hq/mizan/pkg/decision"
)

// RiskFactor is one boolean answer field that contributes points to a
// computed risk profile.
type RiskFactor struct {
	// Field is the answer field. Points accrue when it is true.
	Field string `yaml:"field" json:"field"`

	// Points is the factor's contribution to the score.
	Points float64 `yaml:"points" json:"points"`
}

// Production declares the artifact a rule emits on match.
type Production struct {
	// OutputType is the artifact family.
	OutputType decision.OutputType `yaml:"output_type" json:"output_type"`

	// OutputCode identifies the conclusion within the wizard.
	OutputCode string `yaml:"output_code" json:"output_code"`

	// OutputName is the conclusion's display name.
	OutputName string `yaml:"output_name" json:"output_name"`

	// OutputNameAr is the Arabic display name.
	OutputNameAr string `yaml:"output_name_ar,omitempty" json:"output_name_ar,omitempty"`

	// Applicability states how binding the conclusion is.
	Applicability decision.Applicability `yaml:"applicability" json:"applicability"`

	// Priority orders the conclusion for presentation; lower sorts first.
	Priority int `yaml:"priority,omitempty" json:"priority,omitempty"`

	// Payload is the static typed payload for OutputType. Mutually
	// exclusive with RiskFactors.
	Payload map[string]any `yaml:"payload,omitempty" json:"payload,omitempty"`

	// RiskFactors, when set on a RISK_PROFILE production, makes the
	// dispatcher compute the payload from the snapshot's boolean answer
	// fields instead of taking it verbatim.
	RiskFactors []RiskFactor `yaml:"risk_factors,omitempty" json:"risk_factors,omitempty"`
}

// Rule is one declarative applicability rule: a condition over the input
// context and the artifact it produces when the condition holds.
type Rule struct {
	// Code uniquely identifies the rule (e.g. "RULE_SAMA_APPLICABILITY").
	Code string `yaml:"code" json:"code"`

	// Name is the rule's display name.
	Name string `yaml:"name" json:"name"`

	// NameAr is the Arabic display name.
	NameAr string `yaml:"name_ar,omitempty" json:"name_ar,omitempty"`

	// Version is recorded on every evaluation record so decisions remain
	// attributable after the rule changes.
	Version string `yaml:"version" json:"version"`

	// Priority orders evaluation; lower evaluates first. Ties break by
	// Code lexically.
	Priority int `yaml:"priority" json:"priority"`

	// DecisionType classifies the decision this rule contributes to.
	DecisionType decision.DecisionType `yaml:"decision_type" json:"decision_type"`

	// Requires lists context fields that must be present for the rule to
	// apply at all. A missing required field records SKIPPED rather than
	// NOT_MATCHED.
	Requires []string `yaml:"requires,omitempty" json:"requires,omitempty"`

	// Condition is the condition tree evaluated against the context.
	Condition *Condition `yaml:"condition" json:"condition"`

	// Reason is the human-readable justification recorded on match.
	Reason string `yaml:"reason" json:"reason"`

	// ReasonAr is the Arabic localization of Reason.
	ReasonAr string `yaml:"reason_ar,omitempty" json:"reason_ar,omitempty"`

	// References lists supporting citations (articles, circulars).
	References []string `yaml:"references,omitempty" json:"references,omitempty"`

	// Overridable controls whether a reviewer may override the resulting
	// decision. Defaults to true in rule files via Source loading.
	Overridable *bool `yaml:"overridable,omitempty" json:"overridable,omitempty"`

	// Produces declares the artifact emitted on match.
	Produces Production `yaml:"produces" json:"produces"`
}

// IsOverridable reports whether decisions from this rule accept reviewer
// overrides. Unset means overridable.
func (r *Rule) IsOverridable() bool {
	return r.Overridable == nil || *r.Overridable
}

// RuleSet is a validated, immutable collection of rules.
type RuleSet struct {
	rules []*Rule
}

// NewRuleSet validates the given rules and returns an immutable set.
// Duplicate codes, malformed conditions, and payloads that do not conform
// to their declared output type are all rejected here, before any wizard
// data is touched.
func NewRuleSet(rules []*Rule) (*RuleSet, error) {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := validateRule(r); err != nil {
			return nil, err
		}
		if seen[r.Code] {
			return nil, decision.NewValidationError(r.Code, "code", "duplicate rule code")
		}
		seen[r.Code] = true
	}
	return &RuleSet{rules: rules}, nil
}

func validateRule(r *Rule) error {
	if r.Code == "" {
		return decision.NewValidationError("", "code", "rule code is required")
	}
	if r.Name == "" {
		return decision.NewValidationError(r.Code, "name", "rule name is required")
	}
	if r.Version == "" {
		return decision.NewValidationError(r.Code, "version", "rule version is required")
	}
	switch r.DecisionType {
	case decision.DecisionTypeFrameworkSelection, decision.DecisionTypeControlApplicability,
		decision.DecisionTypeBaselineDerivation, decision.DecisionTypeOverlayApplication,
		decision.DecisionTypeEvidenceRequirement, decision.DecisionTypeRiskProfile:
	default:
		return decision.NewValidationError(r.Code, "decision_type",
			fmt.Sprintf("unknown decision type %q", r.DecisionType))
	}
	if r.Condition == nil {
		return decision.NewValidationError(r.Code, "condition", "rule condition is required")
	}
	if err := r.Condition.validate(); err != nil {
		return decision.NewValidationError(r.Code, "condition", err.Error())
	}
	if r.Reason == "" {
		return decision.NewValidationError(r.Code, "reason", "rule reason is required")
	}
	return validateProduction(r.Code, &r.Produces)
}

func validateProduction(ruleCode string, p *Production) error {
	if !p.OutputType.Valid() {
		return decision.NewValidationError(ruleCode, "produces.output_type",
			fmt.Sprintf("unknown output type %q", p.OutputType))
	}
	if p.OutputCode == "" {
		return decision.NewValidationError(ruleCode, "produces.output_code", "output code is required")
	}
	if p.OutputName == "" {
		return decision.NewValidationError(ruleCode, "produces.output_name", "output name is required")
	}
	if !p.Applicability.Valid() {
		return decision.NewValidationError(ruleCode, "produces.applicability",
			fmt.Sprintf("unknown applicability %q", p.Applicability))
	}

	if len(p.RiskFactors) > 0 {
		if p.OutputType != decision.OutputTypeRiskProfile {
			return decision.NewValidationError(ruleCode, "produces.risk_factors",
				"risk factors are only valid on RISK_PROFILE productions")
		}
		if len(p.Payload) > 0 {
			return decision.NewValidationError(ruleCode, "produces.payload",
				"payload and risk_factors are mutually exclusive")
		}
		for _, f := range p.RiskFactors {
			if f.Field == "" {
				return decision.NewValidationError(ruleCode, "produces.risk_factors", "risk factor field is required")
			}
			if f.Points <= 0 {
				return decision.NewValidationError(ruleCode, "produces.risk_factors",
					fmt.Sprintf("risk factor %q must carry positive points", f.Field))
			}
		}
		return nil
	}

	raw, err := canonicalPayload(p.Payload)
	if err != nil {
		return decision.NewValidationError(ruleCode, "produces.payload", err.Error())
	}
	if _, err := decision.DecodePayload(p.OutputType, raw); err != nil {
		return decision.NewValidationError(ruleCode, "produces.payload", err.Error())
	}
	return nil
}

// Ordered returns the rules in evaluation order: priority ascending, ties
// broken by code lexically. The returned slice is a copy.
func (s *RuleSet) Ordered() []*Rule {
	ordered := make([]*Rule, len(s.rules))
	copy(ordered, s.rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].Code < ordered[j].Code
	})
	return ordered
}

// Len returns the number of rules in the set.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Get returns the rule with the given code, if present.
func (s *RuleSet) Get(code string) (*Rule, bool) {
	for _, r := range s.rules {
		if r.Code == code {
			return r, true
		}
	}
	return nil, false
}
