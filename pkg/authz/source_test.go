package authz

import (
	"os"
	"path/filepath"
	"testing"
)

const samplePolicyYAML = `
policies:
  - code: POL_DENY_FINALIZED
    priority: 10
    effect: DENY
    actions: ["wizard:evaluate", "wizard:override"]
    resource_types: ["wizard"]
    condition:
      kind: equals
      field: resource.is_final
      value: true
    reason: finalized wizards are immutable
  - code: POL_EVALUATE_OFFICER
    priority: 20
    effect: ALLOW
    actions: ["wizard:evaluate"]
    resource_types: ["wizard"]
    roles: ["compliance_officer"]
    reason: compliance officers may run evaluations
    mutations:
      - field: evaluated_by_role
        value: compliance_officer
`

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, []byte(samplePolicyYAML), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	set, err := LoadPolicyFile(path)
	if err != nil {
		t.Fatalf("LoadPolicyFile: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 policies, got %d", set.Len())
	}

	ordered := set.Ordered()
	if ordered[0].Code != "POL_DENY_FINALIZED" {
		t.Errorf("expected POL_DENY_FINALIZED first, got %s", ordered[0].Code)
	}
	if ordered[0].Condition == nil {
		t.Fatal("expected the deny policy condition to decode")
	}
	if got := ordered[1].Mutations; len(got) != 1 || got[0].Field != "evaluated_by_role" {
		t.Errorf("expected the officer mutation, got %+v", got)
	}

	// The decoded set must behave like one built in code.
	d := Decide(set, &Request{
		Action:           "wizard:override",
		ResourceType:     "wizard",
		ResourceSnapshot: map[string]any{"is_final": true},
		PrincipalID:      "user-1",
		PrincipalRoles:   []string{"compliance_officer"},
	})
	if d.Allowed() || d.PolicyCode != "POL_DENY_FINALIZED" {
		t.Fatalf("expected the loaded deny policy to decide, got %+v", d)
	}
}

func TestLoadPolicyFileMissing(t *testing.T) {
	if _, err := LoadPolicyFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParsePoliciesMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "policies: [}"},
		{"missing reason", "policies:\n  - code: POL_X\n    effect: ALLOW\n    actions: [\"*\"]\n"},
		{"bad condition", "policies:\n  - code: POL_X\n    effect: ALLOW\n    actions: [\"*\"]\n    reason: r\n    condition:\n      kind: equals\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePolicies([]byte(tt.doc)); err == nil {
				t.Fatal("expected parse error, got nil")
			}
		})
	}
}
