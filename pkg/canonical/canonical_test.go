package canonical

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// TestCanonicalize_KeyOrdering tests that map iteration order does not
// affect the canonical form.
func TestCanonicalize_KeyOrdering(t *testing.T) {
	answers := map[string]any{
		"sector":  "banking",
		"country": "SA",
		"nested": map[string]any{
			"zeta":  1,
			"alpha": 2,
		},
	}

	var first []byte
	for i := 0; i < 50; i++ {
		b, err := Canonicalize(answers)
		if err != nil {
			t.Fatalf("Canonicalize() failed: %v", err)
		}
		if first == nil {
			first = b
			continue
		}
		if string(b) != string(first) {
			t.Fatalf("Canonicalize() not stable: %q vs %q", b, first)
		}
	}

	want := `{"country":"SA","nested":{"alpha":2,"zeta":1},"sector":"banking"}`
	if string(first) != want {
		t.Errorf("canonical form = %q, want %q", first, want)
	}
}

// TestCanonicalize_NumberFormatting tests stable rendering of numeric types.
func TestCanonicalize_NumberFormatting(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]any
		want    string
	}{
		{
			name:    "integer float collapses to integer",
			answers: map[string]any{"n": float64(42)},
			want:    `{"n":42}`,
		},
		{
			name:    "fractional float uses shortest round-trip form",
			answers: map[string]any{"n": 0.1},
			want:    `{"n":0.1}`,
		},
		{
			name:    "int64",
			answers: map[string]any{"n": int64(-7)},
			want:    `{"n":-7}`,
		},
		{
			name:    "json number passes through",
			answers: map[string]any{"n": json.Number("3.50")},
			want:    `{"n":3.50}`,
		},
		{
			name:    "string slice",
			answers: map[string]any{"regs": []string{"SAMA", "NCA"}},
			want:    `{"regs":["SAMA","NCA"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Canonicalize(tt.answers)
			if err != nil {
				t.Fatalf("Canonicalize() failed: %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("Canonicalize() = %q, want %q", b, tt.want)
			}
		})
	}
}

// TestCanonicalize_RejectsUnsupportedValues tests the EncodingError path.
func TestCanonicalize_RejectsUnsupportedValues(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]any
		field   string
	}{
		{
			name:    "function value",
			answers: map[string]any{"f": func() {}},
			field:   "f",
		},
		{
			name:    "channel value",
			answers: map[string]any{"outer": map[string]any{"ch": make(chan int)}},
			field:   "outer.ch",
		},
		{
			name:    "nested slice element",
			answers: map[string]any{"list": []any{"ok", struct{}{}}},
			field:   "list[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonicalize(tt.answers)
			if err == nil {
				t.Fatal("Canonicalize() succeeded, want EncodingError")
			}

			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("error type = %T, want *EncodingError", err)
			}
			if encErr.Field != tt.field {
				t.Errorf("EncodingError.Field = %q, want %q", encErr.Field, tt.field)
			}
		})
	}
}

// TestHash_KnownDigest pins the digest of a known payload so that any
// change to the canonical form or hash function fails loudly.
func TestHash_KnownDigest(t *testing.T) {
	payload, digest, err := HashAnswers(map[string]any{"sector": "banking"})
	if err != nil {
		t.Fatalf("HashAnswers() failed: %v", err)
	}

	if string(payload) != `{"sector":"banking"}` {
		t.Fatalf("payload = %q", payload)
	}

	// SHA-256 of the exact canonical bytes above.
	const want = "06ed4aece780df7485fe08fee96b6939d7988fc81be35c58279dee89cfee6374"
	if digest != want {
		t.Errorf("digest = %s, want %s", digest, want)
	}

	if len(digest) != 64 || strings.ToLower(digest) != digest {
		t.Errorf("digest %q is not lowercase hex", digest)
	}
}

// TestDecode_RoundTrip tests that a canonical payload decodes back to an
// equivalent map and re-canonicalizes to the same bytes.
func TestDecode_RoundTrip(t *testing.T) {
	answers := map[string]any{
		"sector":    "banking",
		"employees": 1200,
		"pci":       true,
		"regions":   []any{"riyadh", "jeddah"},
	}

	payload, err := Canonicalize(answers)
	if err != nil {
		t.Fatalf("Canonicalize() failed: %v", err)
	}

	decoded, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	again, err := Canonicalize(decoded)
	if err != nil {
		t.Fatalf("re-Canonicalize() failed: %v", err)
	}
	if string(again) != string(payload) {
		t.Errorf("round trip changed canonical form: %q vs %q", again, payload)
	}
}
