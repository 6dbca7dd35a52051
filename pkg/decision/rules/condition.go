package rules

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConditionKind is the closed set of condition forms the dispatcher
// evaluates.
type ConditionKind string

const (
	// KindEquals matches when the field equals the expected value.
	KindEquals ConditionKind = "equals"

	// KindNotEquals matches when the field differs from the expected value.
	KindNotEquals ConditionKind = "not_equals"

	// KindIn matches when the field equals one of the listed values.
	KindIn ConditionKind = "in"

	// KindContains matches when a list field contains the expected value,
	// or a string field contains it as a substring.
	KindContains ConditionKind = "contains"

	// KindExists matches when the field is present with a non-null value.
	KindExists ConditionKind = "exists"

	// KindGTE matches when the numeric field is >= the expected value.
	KindGTE ConditionKind = "gte"

	// KindLTE matches when the numeric field is <= the expected value.
	KindLTE ConditionKind = "lte"

	// KindAll matches when every child condition matches.
	KindAll ConditionKind = "all"

	// KindAny matches when at least one child condition matches.
	KindAny ConditionKind = "any"

	// KindNot matches when its single child does not match.
	KindNot ConditionKind = "not"
)

// Condition is one node of a rule's condition tree. Leaf kinds reference
// a context field; combinator kinds reference children.
type Condition struct {
	// Kind selects the evaluation form.
	Kind ConditionKind `yaml:"kind" json:"kind"`

	// Field is the context field a leaf condition reads (e.g. "sector",
	// "artifacts.PKG_SAMA.applicability").
	Field string `yaml:"field,omitempty" json:"field,omitempty"`

	// Value is the expected value for equals/not_equals/contains/gte/lte.
	Value any `yaml:"value,omitempty" json:"value,omitempty"`

	// Values lists the accepted values for in.
	Values []any `yaml:"values,omitempty" json:"values,omitempty"`

	// Children are the sub-conditions for all/any/not.
	Children []*Condition `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

// validate checks the condition tree shape. Kind-specific field and
// children requirements are enforced here so that malformed rule sets
// fail at load time, before any wizard data is touched.
func (c *Condition) validate() error {
	switch c.Kind {
	case KindEquals, KindNotEquals, KindContains, KindGTE, KindLTE:
		if c.Field == "" {
			return fmt.Errorf("%s condition requires a field", c.Kind)
		}
		if c.Value == nil {
			return fmt.Errorf("%s condition requires a value", c.Kind)
		}
	case KindIn:
		if c.Field == "" {
			return fmt.Errorf("in condition requires a field")
		}
		if len(c.Values) == 0 {
			return fmt.Errorf("in condition requires values")
		}
	case KindExists:
		if c.Field == "" {
			return fmt.Errorf("exists condition requires a field")
		}
	case KindAll, KindAny:
		if len(c.Children) == 0 {
			return fmt.Errorf("%s condition requires child conditions", c.Kind)
		}
	case KindNot:
		if len(c.Children) != 1 {
			return fmt.Errorf("not condition requires exactly one child")
		}
	case "":
		return fmt.Errorf("condition kind is required")
	default:
		return fmt.Errorf("unknown condition kind %q", c.Kind)
	}

	for _, child := range c.Children {
		if err := child.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the condition tree shape. It is exposed for callers
// that embed conditions outside rule sets, such as authorization
// policies.
func (c *Condition) Validate() error {
	return c.validate()
}

// Evaluate resolves the condition against an input context. Absent
// fields evaluate to no-match; only genuine faults (a threshold applied
// to a non-numeric value, an unknown kind escaping validation) return an
// error.
func (c *Condition) Evaluate(context map[string]any) (bool, error) {
	switch c.Kind {
	case KindEquals:
		actual, ok := lookupField(context, c.Field)
		if !ok {
			return false, nil
		}
		return valuesEqual(actual, c.Value), nil

	case KindNotEquals:
		actual, ok := lookupField(context, c.Field)
		if !ok {
			return false, nil
		}
		return !valuesEqual(actual, c.Value), nil

	case KindIn:
		actual, ok := lookupField(context, c.Field)
		if !ok {
			return false, nil
		}
		for _, v := range c.Values {
			if valuesEqual(actual, v) {
				return true, nil
			}
		}
		return false, nil

	case KindContains:
		actual, ok := lookupField(context, c.Field)
		if !ok {
			return false, nil
		}
		return containsValue(actual, c.Value)

	case KindExists:
		actual, ok := lookupField(context, c.Field)
		return ok && actual != nil, nil

	case KindGTE, KindLTE:
		actual, ok := lookupField(context, c.Field)
		if !ok {
			return false, nil
		}
		actualNum, err := toFloat(actual)
		if err != nil {
			return false, fmt.Errorf("%s condition on field %q: %w", c.Kind, c.Field, err)
		}
		expectedNum, err := toFloat(c.Value)
		if err != nil {
			return false, fmt.Errorf("%s condition on field %q: %w", c.Kind, c.Field, err)
		}
		if c.Kind == KindGTE {
			return actualNum >= expectedNum, nil
		}
		return actualNum <= expectedNum, nil

	case KindAll:
		for _, child := range c.Children {
			matched, err := child.Evaluate(context)
			if err != nil {
				return false, err
			}
			if !matched {
				return false, nil
			}
		}
		return true, nil

	case KindAny:
		for _, child := range c.Children {
			matched, err := child.Evaluate(context)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil

	case KindNot:
		matched, err := c.Children[0].Evaluate(context)
		if err != nil {
			return false, err
		}
		return !matched, nil

	default:
		return false, fmt.Errorf("unknown condition kind %q", c.Kind)
	}
}

// Fields returns every context field the condition tree reads, in
// first-seen order. Used to record decision factors.
func (c *Condition) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	c.collectFields(&fields, seen)
	return fields
}

func (c *Condition) collectFields(fields *[]string, seen map[string]bool) {
	if c.Field != "" && !seen[c.Field] {
		seen[c.Field] = true
		*fields = append(*fields, c.Field)
	}
	for _, child := range c.Children {
		child.collectFields(fields, seen)
	}
}

// lookupField resolves a dotted field path against the context.
func lookupField(context map[string]any, field string) (any, bool) {
	parts := strings.Split(field, ".")
	var current any = context
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// valuesEqual compares context values against expected rule values.
// Numeric values compare by magnitude regardless of concrete type, since
// the context carries json.Number while rule files decode to int/float.
func valuesEqual(actual, expected any) bool {
	if af, err := toFloat(actual); err == nil {
		if ef, err := toFloat(expected); err == nil {
			return af == ef
		}
		return false
	}

	switch a := actual.(type) {
	case string:
		e, ok := expected.(string)
		return ok && a == e
	case bool:
		e, ok := expected.(bool)
		return ok && a == e
	case nil:
		return expected == nil
	default:
		return false
	}
}

func containsValue(actual, expected any) (bool, error) {
	switch a := actual.(type) {
	case []any:
		for _, item := range a {
			if valuesEqual(item, expected) {
				return true, nil
			}
		}
		return false, nil
	case []string:
		e, ok := expected.(string)
		if !ok {
			return false, nil
		}
		for _, item := range a {
			if item == e {
				return true, nil
			}
		}
		return false, nil
	case string:
		e, ok := expected.(string)
		if !ok {
			return false, nil
		}
		return strings.Contains(a, e), nil
	default:
		return false, fmt.Errorf("contains condition: field value %T is neither list nor string", actual)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
	}
}
