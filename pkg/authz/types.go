package authz

import (
	"fmt"
	"sort"

	"shahin-hq/mizan/pkg/decision"
	"shahin-hq/mizan/pkg/decision/rules"
)

// Effect is the outcome of an authorization decision.
type Effect string

const (
	// EffectAllow permits the action.
	EffectAllow Effect = "ALLOW"

	// EffectDeny rejects the action.
	EffectDeny Effect = "DENY"
)

// Request describes one action to authorize.
type Request struct {
	// Action is the operation being attempted (e.g. "wizard:evaluate").
	Action string

	// ResourceType classifies the target (e.g. "wizard", "artifact").
	ResourceType string

	// ResourceSnapshot is the current state of the target resource.
	ResourceSnapshot map[string]any

	// Environment carries request-scoped attributes (e.g. source, time
	// bucket) the caller wants policies to see.
	Environment map[string]any

	// TenantID scopes the request to one tenant.
	TenantID string

	// PrincipalID identifies the acting user or service.
	PrincipalID string

	// PrincipalRoles are the roles held by the principal.
	PrincipalRoles []string
}

// Mutation is a field adjustment an allowing policy instructs the caller
// to apply before executing the action.
type Mutation struct {
	// Field is the dotted path of the field to set.
	Field string `yaml:"field" json:"field"`

	// Value is the value to set.
	Value any `yaml:"value" json:"value"`
}

// Decision is the outcome of evaluating a request against the policy set.
type Decision struct {
	// Effect is ALLOW or DENY.
	Effect Effect `json:"effect"`

	// PolicyCode is the code of the policy that decided, or empty for the
	// default deny.
	PolicyCode string `json:"policy_code,omitempty"`

	// Reason is a human-readable statement of why.
	Reason string `json:"reason"`

	// Mutations are adjustments the deciding policy attached. Only
	// populated on ALLOW.
	Mutations []Mutation `json:"mutations,omitempty"`
}

// Allowed reports whether the decision permits the action.
func (d *Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// Policy is one declarative authorization rule.
type Policy struct {
	// Code identifies the policy.
	Code string `yaml:"code"`

	// Priority orders evaluation, ascending. Ties break by code.
	Priority int `yaml:"priority"`

	// Effect is the outcome when the policy matches.
	Effect Effect `yaml:"effect"`

	// Actions lists matched actions; "*" matches any.
	Actions []string `yaml:"actions"`

	// ResourceTypes lists matched resource types; empty matches any.
	ResourceTypes []string `yaml:"resource_types"`

	// Roles lists roles of which the principal must hold at least one;
	// empty matches any principal.
	Roles []string `yaml:"roles"`

	// Condition optionally constrains the policy on the resource snapshot
	// and environment. A condition that does not hold skips the policy.
	Condition *rules.Condition `yaml:"condition"`

	// Reason is the statement recorded with decisions made by this policy.
	Reason string `yaml:"reason"`

	// Mutations are attached to allowing decisions.
	Mutations []Mutation `yaml:"mutations"`
}

// PolicySet is a validated, ordered collection of policies.
type PolicySet struct {
	policies []*Policy
}

// NewPolicySet validates the policies and returns a set ordered for
// evaluation.
func NewPolicySet(policies []*Policy) (*PolicySet, error) {
	seen := make(map[string]bool, len(policies))
	for _, p := range policies {
		if p.Code == "" {
			return nil, decision.NewValidationError("", "code", "policy code is required")
		}
		if seen[p.Code] {
			return nil, decision.NewValidationError(p.Code, "code", "duplicate policy code")
		}
		seen[p.Code] = true
		switch p.Effect {
		case EffectAllow, EffectDeny:
		default:
			return nil, decision.NewValidationError(p.Code, "effect",
				fmt.Sprintf("unknown effect %q", p.Effect))
		}
		if len(p.Actions) == 0 {
			return nil, decision.NewValidationError(p.Code, "actions", "at least one action is required")
		}
		if p.Reason == "" {
			return nil, decision.NewValidationError(p.Code, "reason", "policy reason is required")
		}
		if p.Condition != nil {
			if err := p.Condition.Validate(); err != nil {
				return nil, decision.NewValidationError(p.Code, "condition", err.Error())
			}
		}
	}

	ordered := make([]*Policy, len(policies))
	copy(ordered, policies)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].Code < ordered[j].Code
	})

	return &PolicySet{policies: ordered}, nil
}

// Len returns the number of policies in the set.
func (s *PolicySet) Len() int {
	return len(s.policies)
}

// Ordered returns the policies in evaluation order. The slice is a copy.
func (s *PolicySet) Ordered() []*Policy {
	ordered := make([]*Policy, len(s.policies))
	copy(ordered, s.policies)
	return ordered
}
