package rules

import (
	"shahin-hq/mizan/pkg/canonical"
	"shahin-hq/mizan/pkg/decision"
)

// BuildContext assembles the input context a rule batch evaluates
// against: the snapshot's decoded answers at the top level, plus the
// wizard's currently active artifacts under "artifacts", keyed by output
// code. Artifact entries expose the fields downstream rules condition on.
func BuildContext(snap *decision.AnswerSnapshot, active []*decision.DerivedArtifact) (map[string]any, error) {
	context, err := canonical.Decode(snap.Payload)
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string]any, len(active))
	for _, art := range active {
		payload, err := canonical.Decode(art.Payload)
		if err != nil {
			return nil, err
		}
		artifacts[art.OutputCode] = map[string]any{
			"output_type":   string(art.OutputType),
			"applicability": string(art.Applicability),
			"version":       art.Version,
			"payload":       payload,
		}
	}
	context["artifacts"] = artifacts
	return context, nil
}

// canonicalPayload serializes a rule payload map to canonical bytes.
func canonicalPayload(payload map[string]any) ([]byte, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	return canonical.Canonicalize(payload)
}

// projectContext serializes the context fields a rule actually read, so
// the evaluation record carries exactly what the decision depended on.
// Required fields and condition fields are both included; absent fields
// are simply omitted.
func projectContext(context map[string]any, rule *Rule) ([]byte, error) {
	fields := make([]string, 0, len(rule.Requires)+4)
	fields = append(fields, rule.Requires...)
	fields = append(fields, rule.Condition.Fields()...)
	for _, f := range rule.Produces.RiskFactors {
		fields = append(fields, f.Field)
	}

	projection := make(map[string]any)
	for _, field := range fields {
		v, ok := lookupField(context, field)
		if !ok {
			continue
		}
		setField(projection, field, v)
	}
	return canonical.Canonicalize(projection)
}

// setField writes a dotted field path into a nested map, creating
// intermediate maps as needed.
func setField(m map[string]any, field string, v any) {
	parts := splitPath(field)
	for i, part := range parts {
		if i == len(parts)-1 {
			m[part] = v
			return
		}
		child, ok := m[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			m[part] = child
		}
		m = child
	}
}

func splitPath(field string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(field); i++ {
		if field[i] == '.' {
			parts = append(parts, field[start:i])
			start = i + 1
		}
	}
	return append(parts, field[start:])
}
