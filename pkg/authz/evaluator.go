package authz

import (
	"context"
	"log/slog"
	"time"
)

// conditionContext builds the field space a policy condition evaluates
// against. Resource state sits under "resource.", environment attributes
// under "env.", and principal identity at the top level.
func conditionContext(req *Request) map[string]any {
	roles := make([]any, len(req.PrincipalRoles))
	for i, r := range req.PrincipalRoles {
		roles[i] = r
	}
	ctx := map[string]any{
		"action":        req.Action,
		"resource_type": req.ResourceType,
		"tenant_id":     req.TenantID,
		"principal_id":  req.PrincipalID,
		"roles":         roles,
	}
	if req.ResourceSnapshot != nil {
		ctx["resource"] = req.ResourceSnapshot
	}
	if req.Environment != nil {
		ctx["env"] = req.Environment
	}
	return ctx
}

func matchesAction(p *Policy, action string) bool {
	for _, a := range p.Actions {
		if a == "*" || a == action {
			return true
		}
	}
	return false
}

func matchesResourceType(p *Policy, resourceType string) bool {
	if len(p.ResourceTypes) == 0 {
		return true
	}
	for _, rt := range p.ResourceTypes {
		if rt == resourceType {
			return true
		}
	}
	return false
}

func matchesRoles(p *Policy, roles []string) bool {
	if len(p.Roles) == 0 {
		return true
	}
	for _, want := range p.Roles {
		for _, have := range roles {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Decide evaluates a request against an ordered policy set. It is a
// pure function of its arguments: no clock, no storage, no ambient
// state. Policies are tried in set order and the first match decides;
// a request no policy matches is denied.
//
// A condition that faults is treated as not matching. A policy must
// positively match to decide, so evaluation faults can never widen
// access.
func Decide(set *PolicySet, req *Request) *Decision {
	fields := conditionContext(req)

	for _, p := range set.policies {
		if !matchesAction(p, req.Action) {
			continue
		}
		if !matchesResourceType(p, req.ResourceType) {
			continue
		}
		if !matchesRoles(p, req.PrincipalRoles) {
			continue
		}
		if p.Condition != nil {
			matched, err := p.Condition.Evaluate(fields)
			if err != nil || !matched {
				continue
			}
		}

		d := &Decision{
			Effect:     p.Effect,
			PolicyCode: p.Code,
			Reason:     p.Reason,
		}
		if p.Effect == EffectAllow && len(p.Mutations) > 0 {
			d.Mutations = make([]Mutation, len(p.Mutations))
			copy(d.Mutations, p.Mutations)
		}
		return d
	}

	return &Decision{
		Effect: EffectDeny,
		Reason: "no policy matched the request",
	}
}

// Evaluator wraps the pure decision function with the operational
// surface: every invocation is appended to an immutable decision log
// and emitted as a structured log line.
type Evaluator struct {
	set    *PolicySet
	log    DecisionLog
	logger *slog.Logger
	now    func() time.Time
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithDecisionLog sets the append-only decision log. NopLog is used
// when none is supplied.
func WithDecisionLog(log DecisionLog) EvaluatorOption {
	return func(e *Evaluator) {
		e.log = log
	}
}

// WithClock overrides the time source for decision log entries.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		e.now = now
	}
}

// NewEvaluator creates an Evaluator over a validated policy set.
func NewEvaluator(set *PolicySet, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		set:    set,
		log:    NopLog{},
		logger: slog.Default().With("component", "authz"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides the request and records the decision. The returned
// decision is the same the pure Decide would produce; logging failures
// are reported on the error return without changing the outcome.
func (e *Evaluator) Evaluate(ctx context.Context, req *Request) (*Decision, error) {
	d := Decide(e.set, req)

	entry := &LogEntry{
		TenantID:     req.TenantID,
		PrincipalID:  req.PrincipalID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		Effect:       d.Effect,
		PolicyCode:   d.PolicyCode,
		Reason:       d.Reason,
		DecidedAt:    e.now().UTC(),
	}
	err := e.log.Append(ctx, entry)

	e.logger.Info("authorization decided",
		"action", req.Action,
		"resource_type", req.ResourceType,
		"tenant_id", req.TenantID,
		"principal_id", req.PrincipalID,
		"effect", string(d.Effect),
		"policy_code", d.PolicyCode)

	return d, err
}

// Enforce evaluates the request and converts a deny into an
// AuthorizationDenied error. Callers that only need a yes/no gate use
// this instead of inspecting the decision.
func (e *Evaluator) Enforce(ctx context.Context, req *Request) (*Decision, error) {
	d, err := e.Evaluate(ctx, req)
	if err != nil {
		return d, err
	}
	if !d.Allowed() {
		return d, NewAuthorizationDenied(req, d)
	}
	return d, nil
}
