package logging

import (
	"regexp"
	"strings"

	"shahin-hq/mizan/pkg/config"
)

// Redactor redacts PII (Personally Identifiable Information) from log
// fields. Patterns are applied in a fixed order so the same input always
// produces the same redacted output.
type Redactor struct {
	patterns []*redactPattern
	enabled  bool
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Common PII pattern names.
const (
	PatternEmail       = "email"
	PatternIBAN        = "iban"
	PatternNationalID  = "national_id"
	PatternCreditCard  = "credit_card"
	PatternPhone       = "phone"
	PatternBearerToken = "bearer_token"
	PatternAPIKey      = "api_key"
	PatternPassword    = "password"
)

// defaultPatterns are the built-in redaction patterns in application order.
// IBAN must run before credit card: a Saudi IBAN carries 22 digits and the
// looser card pattern would otherwise mangle it first.
var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{
		name:        PatternEmail,
		regex:       `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
		replacement: "[EMAIL]",
	},
	{
		// Saudi IBANs: SA followed by 22 digits, optionally space-grouped.
		name:        PatternIBAN,
		regex:       `\bSA[\s]?(?:\d[\s]?){22}\b`,
		replacement: "SA**********************",
	},
	{
		// Saudi national and iqama identifiers: 10 digits starting 1 or 2.
		name:        PatternNationalID,
		regex:       `\b[12]\d{9}\b`,
		replacement: "[NATIONAL_ID]",
	},
	{
		name:        PatternCreditCard,
		regex:       `\b(?:\d[ -]*?){13,16}\b`,
		replacement: "****-****-****-****",
	},
	{
		// Saudi mobile numbers in international or local form, plus a
		// generic international fallback.
		name:        PatternPhone,
		regex:       `(?:\+9665\d{8}|\b05\d{8}\b|\+\d{10,14})`,
		replacement: "[PHONE]",
	},
	{
		name:        PatternBearerToken,
		regex:       `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`,
		replacement: "Bearer ***",
	},
	{
		name:        PatternAPIKey,
		regex:       `api[-_]?key[-_:=]\s*[a-zA-Z0-9]+`,
		replacement: "api_key: ***",
	},
	{
		name:        PatternPassword,
		regex:       `(password|passwd|pwd)[:=]\s*[^\s]+`,
		replacement: "$1: ***",
	},
}

// NewRedactor creates a new Redactor with default and custom patterns.
// Custom patterns run after the built-in ones; invalid expressions are
// skipped since configuration validation already rejects them.
func NewRedactor(customPatterns []config.RedactPattern) *Redactor {
	r := &Redactor{enabled: true}

	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}

	for _, p := range customPatterns {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
	}

	return r
}

// RedactString redacts PII from a string value.
func (r *Redactor) RedactString(value string) string {
	if !r.enabled || value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}

	return redacted
}

// RedactArgs redacts PII from variadic log arguments.
// Args are in the form: key1, value1, key2, value2, ...
func (r *Redactor) RedactArgs(args ...any) []any {
	if !r.enabled || len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		if key, ok := redacted[i-1].(string); ok && r.isSensitiveKey(key) {
			redacted[i] = r.redactValue(redacted[i])
			continue
		}
		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}

	return redacted
}

// isSensitiveKey checks if a key name indicates sensitive data. Values under
// these keys are blanked regardless of content since identifiers like
// passwords have no recognizable shape.
func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"password", "passwd", "pwd",
		"secret", "token", "api_key", "apikey",
		"auth", "authorization",
		"national_id", "iqama",
		"iban", "account_number",
		"credit_card", "creditcard", "card_number",
	}

	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	return false
}

// redactValue redacts a sensitive value completely.
func (r *Redactor) redactValue(value any) any {
	switch v := value.(type) {
	case string:
		if v == "" {
			return ""
		}
		// Keep a short prefix as a debugging hint.
		if len(v) <= 4 {
			return "***"
		}
		return v[:4] + "***"
	default:
		return "***"
	}
}

// RedactEmail redacts an email address partially (shows first char and domain).
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	username := parts[0]
	domain := parts[1]

	if len(username) == 0 {
		return "***@" + domain
	}

	return string(username[0]) + "***@" + domain
}

// RedactNationalID redacts a national identifier, keeping only the leading
// digit that distinguishes citizens from residents.
func RedactNationalID(id string) string {
	if len(id) != 10 {
		return id
	}
	return id[:1] + "*********"
}

// RedactIBAN redacts an IBAN, keeping the country code and last 4 digits.
func RedactIBAN(iban string) string {
	cleaned := strings.ReplaceAll(iban, " ", "")
	if len(cleaned) < 8 {
		return iban
	}
	return cleaned[:2] + strings.Repeat("*", len(cleaned)-6) + cleaned[len(cleaned)-4:]
}

// RedactCreditCard redacts a credit card number, keeping only last 4 digits.
func RedactCreditCard(cc string) string {
	cleaned := strings.ReplaceAll(cc, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")

	if len(cleaned) < 13 || len(cleaned) > 16 {
		return cc
	}

	return "****-****-****-" + cleaned[len(cleaned)-4:]
}
