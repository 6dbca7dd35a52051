package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "storage.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateRules(&cfg.Rules)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validateIntegrity(&cfg.Integrity)...)
	errs = append(errs, validateAuthz(&cfg.Authz)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateStorage validates storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("unknown backend %q (must be \"memory\" or \"sqlite\")", cfg.Backend),
		})
	}

	if cfg.Backend == "sqlite" {
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.path",
				Message: "database path is required",
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.max_open_conns",
				Message: "must be at least 1",
			})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.max_idle_conns",
				Message: "must be non-negative",
			})
		}
		if cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.max_idle_conns",
				Message: "cannot exceed max_open_conns",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.busy_timeout",
				Message: "must be non-negative",
			})
		}
	}

	return errs
}

// validateRules validates rule loading configuration.
func validateRules(cfg *RulesConfig) []FieldError {
	var errs []FieldError

	switch cfg.Source {
	case "builtin", "file":
	default:
		errs = append(errs, FieldError{
			Field:   "rules.source",
			Message: fmt.Sprintf("unknown source %q (must be \"builtin\" or \"file\")", cfg.Source),
		})
	}

	if cfg.Source == "file" && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "rules.path",
			Message: "path is required when source is \"file\"",
		})
	}
	if cfg.Watch && cfg.Source != "file" {
		errs = append(errs, FieldError{
			Field:   "rules.watch",
			Message: "watch requires source \"file\"",
		})
	}
	if cfg.DebounceInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "rules.debounce_interval",
			Message: "must be non-negative",
		})
	}

	return errs
}

// validateEngine validates engine configuration.
func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.QueryDefaultLimit < 1 {
		errs = append(errs, FieldError{
			Field:   "engine.query_default_limit",
			Message: "must be at least 1",
		})
	}
	if cfg.QueryMaxLimit < 1 {
		errs = append(errs, FieldError{
			Field:   "engine.query_max_limit",
			Message: "must be at least 1",
		})
	}
	if cfg.QueryDefaultLimit > cfg.QueryMaxLimit {
		errs = append(errs, FieldError{
			Field:   "engine.query_default_limit",
			Message: "cannot exceed query_max_limit",
		})
	}

	return errs
}

// validateExport validates export configuration.
func validateExport(cfg *ExportConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxRecords < 1 {
		errs = append(errs, FieldError{
			Field:   "export.max_records",
			Message: "must be at least 1",
		})
	}

	return errs
}

// validateIntegrity validates integrity sweep configuration.
func validateIntegrity(cfg *IntegrityConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "integrity.schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err),
			})
		}
	}

	return errs
}

// validateAuthz validates authorization configuration.
func validateAuthz(cfg *AuthzConfig) []FieldError {
	var errs []FieldError

	if cfg.DecisionLog.Enabled && cfg.DecisionLog.Path == "" {
		errs = append(errs, FieldError{
			Field:   "authz.decision_log.path",
			Message: "path is required when the decision log is enabled",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (must be json, text, or console)", cfg.Logging.Format),
		})
	}

	for i, pattern := range cfg.Logging.RedactPatterns {
		if pattern.Name == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].name", i),
				Message: "name is required",
			})
		}
		if pattern.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "pattern is required",
			})
		} else if _, err := regexp.Compile(pattern.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "path must start with /",
			})
		}
		if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.port",
				Message: "port must be between 0 and 65535",
			})
		}
		for i, b := range cfg.Metrics.EvaluationDurationBuckets {
			if i > 0 && b <= cfg.Metrics.EvaluationDurationBuckets[i-1] {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.evaluation_duration_buckets",
					Message: "buckets must be strictly increasing",
				})
				break
			}
		}
	}

	return errs
}
