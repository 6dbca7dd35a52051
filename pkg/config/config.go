package config

import "time"

// Config is the root configuration structure for Mizan.
// It contains all configuration sections for storage, rule loading, the
// evaluation engine, exports, integrity sweeps, authorization, and telemetry.
type Config struct {
	// Storage contains configuration for the decision record store.
	Storage StorageConfig `yaml:"storage"`

	// Rules contains configuration for rule set loading and hot reload.
	Rules RulesConfig `yaml:"rules"`

	// Engine contains configuration for the evaluation pipeline.
	Engine EngineConfig `yaml:"engine"`

	// Export contains configuration for audit bundle exports.
	Export ExportConfig `yaml:"export"`

	// Integrity contains configuration for scheduled hash verification sweeps.
	Integrity IntegrityConfig `yaml:"integrity"`

	// Authz contains configuration for authorization checks and the
	// authorization decision log.
	Authz AuthzConfig `yaml:"authz"`

	// Telemetry contains configuration for observability including logging
	// and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StorageConfig contains configuration for the decision record store.
type StorageConfig struct {
	// Backend selects the storage implementation.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains settings for the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains settings for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the filesystem path to the database file.
	// Default: "data/mizan.db"
	Path string `yaml:"path"`

	// MaxOpenConns limits the number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns limits the number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging for better concurrent access.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long a connection waits on a locked database
	// before returning SQLITE_BUSY.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RulesConfig contains configuration for rule set loading.
type RulesConfig struct {
	// Source selects where rules are loaded from.
	// Options: "builtin" (compiled-in rule set), "file" (YAML file or directory)
	// Default: "builtin"
	Source string `yaml:"source"`

	// Path is the rule file or directory when Source is "file".
	Path string `yaml:"path"`

	// Watch enables automatic reloading when rule files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is how long the watcher waits after the last
	// filesystem event before reloading. Editors often emit several
	// events per save.
	// Default: 500ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// EngineConfig contains configuration for the evaluation pipeline.
type EngineConfig struct {
	// QueryDefaultLimit is the page size used when a query does not
	// specify one.
	// Default: 100
	QueryDefaultLimit int `yaml:"query_default_limit"`

	// QueryMaxLimit is the largest page size a query may request.
	// Default: 10000
	QueryMaxLimit int `yaml:"query_max_limit"`
}

// ExportConfig contains configuration for audit bundle exports.
type ExportConfig struct {
	// JSONPretty enables indented JSON output for exported bundles.
	// Default: true
	JSONPretty bool `yaml:"json_pretty"`

	// CSVHeader enables a header row in CSV exports.
	// Default: true
	CSVHeader bool `yaml:"csv_header"`

	// MaxRecords caps the number of evaluation records in a single export.
	// Default: 100000
	MaxRecords int `yaml:"max_records"`
}

// IntegrityConfig contains configuration for scheduled hash verification.
type IntegrityConfig struct {
	// Enabled controls whether the background integrity sweeper runs.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Schedule is a standard cron expression for sweep timing.
	// An empty schedule disables the sweeper even when Enabled is true.
	// Default: "0 3 * * *" (daily at 03:00)
	Schedule string `yaml:"schedule"`
}

// AuthzConfig contains configuration for authorization checks.
type AuthzConfig struct {
	// DecisionLog contains settings for the append-only authorization
	// decision log.
	DecisionLog DecisionLogConfig `yaml:"decision_log"`
}

// DecisionLogConfig contains settings for the authorization decision log.
type DecisionLogConfig struct {
	// Enabled controls whether authorization decisions are persisted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the filesystem path to the decision log database.
	// Default: "data/authz.db"
	Path string `yaml:"path"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII enables automatic PII redaction in logs. Onboarding
	// answers carry emails, phone numbers, national identifiers, and
	// payment details that must never reach log sinks in the clear.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns contains custom PII redaction patterns applied in
	// addition to the built-in ones.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom PII redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Port is the port the metrics endpoint listens on (0 = disabled).
	// Default: 0
	Port int `yaml:"port"`

	// Namespace is the metric name prefix.
	// Default: "mizan"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "engine"
	Subsystem string `yaml:"subsystem"`

	// EvaluationDurationBuckets defines histogram buckets for rule
	// evaluation duration in seconds.
	// Default: [0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5]
	EvaluationDurationBuckets []float64 `yaml:"evaluation_duration_buckets"`
}
