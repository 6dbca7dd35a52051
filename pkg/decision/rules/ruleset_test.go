package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shahin-hq/mizan/pkg/decision"
)

func validRule(code string, priority int) *Rule {
	return &Rule{
		Code:         code,
		Name:         "Test Rule " + code,
		Version:      "1.0.0",
		Priority:     priority,
		DecisionType: decision.DecisionTypeFrameworkSelection,
		Condition:    &Condition{Kind: KindEquals, Field: "country", Value: "SA"},
		Reason:       "test reason",
		Produces: Production{
			OutputType:    decision.OutputTypeRegulatoryPackage,
			OutputCode:    "PKG_" + code,
			OutputName:    "Package " + code,
			Applicability: decision.ApplicabilityMandatory,
			Payload: map[string]any{
				"framework_code":    "FW-" + code,
				"framework_version": "1.0",
				"regulator":         "TEST",
			},
		},
	}
}

func TestNewRuleSetValidation(t *testing.T) {
	t.Run("valid set", func(t *testing.T) {
		set, err := NewRuleSet([]*Rule{validRule("A", 1), validRule("B", 2)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if set.Len() != 2 {
			t.Errorf("Len() = %d, want 2", set.Len())
		}
	})

	t.Run("duplicate code", func(t *testing.T) {
		_, err := NewRuleSet([]*Rule{validRule("A", 1), validRule("A", 2)})
		var verr *decision.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.RuleCode != "A" {
			t.Errorf("RuleCode = %q, want A", verr.RuleCode)
		}
	})

	t.Run("missing version", func(t *testing.T) {
		r := validRule("A", 1)
		r.Version = ""
		if _, err := NewRuleSet([]*Rule{r}); err == nil {
			t.Fatal("expected error for missing version")
		}
	})

	t.Run("unknown decision type", func(t *testing.T) {
		r := validRule("A", 1)
		r.DecisionType = "GUESSWORK"
		if _, err := NewRuleSet([]*Rule{r}); err == nil {
			t.Fatal("expected error for unknown decision type")
		}
	})

	t.Run("payload not conforming to output type", func(t *testing.T) {
		r := validRule("A", 1)
		r.Produces.Payload = map[string]any{"bogus_field": true}
		if _, err := NewRuleSet([]*Rule{r}); err == nil {
			t.Fatal("expected error for non-conforming payload")
		}
	})

	t.Run("risk factors on non risk profile production", func(t *testing.T) {
		r := validRule("A", 1)
		r.Produces.RiskFactors = []RiskFactor{{Field: "processes_pii", Points: 15}}
		r.Produces.Payload = nil
		if _, err := NewRuleSet([]*Rule{r}); err == nil {
			t.Fatal("expected error for risk factors on regulatory package")
		}
	})

	t.Run("malformed condition", func(t *testing.T) {
		r := validRule("A", 1)
		r.Condition = &Condition{Kind: KindIn, Field: "sector"}
		if _, err := NewRuleSet([]*Rule{r}); err == nil {
			t.Fatal("expected error for malformed condition")
		}
	})
}

func TestRuleSetOrdered(t *testing.T) {
	set, err := NewRuleSet([]*Rule{
		validRule("ZETA", 10),
		validRule("ALPHA", 10),
		validRule("OMEGA", 5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, r := range set.Ordered() {
		got = append(got, r.Code)
	}
	want := []string{"OMEGA", "ALPHA", "ZETA"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestBuiltinRules(t *testing.T) {
	set, err := Builtin()
	if err != nil {
		t.Fatalf("builtin rules failed to load: %v", err)
	}
	if set.Len() != 7 {
		t.Errorf("Len() = %d, want 7", set.Len())
	}

	for _, code := range []string{
		"RULE_COUNTRY_KSA", "RULE_SECTOR_BANKING", "RULE_SAMA_APPLICABILITY",
		"RULE_NCA_APPLICABILITY", "RULE_PCI_APPLICABILITY", "RULE_PDPL_APPLICABILITY",
		"RULE_RISK_PROFILE",
	} {
		if _, ok := set.Get(code); !ok {
			t.Errorf("builtin set missing %s", code)
		}
	}

	risk, _ := set.Get("RULE_RISK_PROFILE")
	if len(risk.Produces.RiskFactors) != 8 {
		t.Errorf("risk factors = %d, want 8", len(risk.Produces.RiskFactors))
	}
}

func TestFileSourceLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	content := `rules:
  - code: RULE_TEST
    name: Test Rule
    version: "1.0.0"
    priority: 1
    decision_type: FRAMEWORK_SELECTION
    condition:
      kind: equals
      field: country
      value: "SA"
    reason: "test"
    produces:
      output_type: REGULATORY_PACKAGE
      output_code: PKG_TEST
      output_name: Test Package
      applicability: MANDATORY
      payload:
        framework_code: TEST
        framework_version: "1.0"
        regulator: TEST
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := NewFileSource(path).Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}

	t.Run("directory", func(t *testing.T) {
		set, err := NewFileSource(dir).Load()
		if err != nil {
			t.Fatalf("directory load failed: %v", err)
		}
		if set.Len() != 1 {
			t.Errorf("Len() = %d, want 1", set.Len())
		}
	})

	t.Run("unknown yaml field rejected", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(bad, []byte("rules:\n  - code: X\n    nme: typo\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewFileSource(bad).Load(); err == nil {
			t.Fatal("expected error for unknown field")
		}
	})

	t.Run("missing path", func(t *testing.T) {
		if _, err := NewFileSource(filepath.Join(dir, "nope.yaml")).Load(); err == nil {
			t.Fatal("expected error for missing path")
		}
	})
}
