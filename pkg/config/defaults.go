package config

import "time"

// Default values for configuration fields.
const (
	// Storage defaults
	DefaultStorageBackend     = "sqlite"
	DefaultSQLitePath         = "data/mizan.db"
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteMaxIdleConns = 5
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second

	// Rules defaults
	DefaultRulesSource      = "builtin"
	DefaultRulesWatch       = false
	DefaultDebounceInterval = 500 * time.Millisecond

	// Engine defaults
	DefaultQueryDefaultLimit = 100
	DefaultQueryMaxLimit     = 10000

	// Export defaults
	DefaultExportJSONPretty = true
	DefaultExportCSVHeader  = true
	DefaultExportMaxRecords = 100000

	// Integrity defaults
	DefaultIntegrityEnabled  = false
	DefaultIntegritySchedule = "0 3 * * *"

	// Authz defaults
	DefaultDecisionLogEnabled = true
	DefaultDecisionLogPath    = "data/authz.db"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultPrometheusPath   = "/metrics"
	DefaultMetricsNamespace = "mizan"
	DefaultMetricsSubsystem = "engine"
)

// DefaultEvaluationDurationBuckets are the histogram buckets for rule
// evaluation duration. Rules evaluate in microseconds to low milliseconds,
// so the buckets skew far smaller than typical HTTP latency buckets.
var DefaultEvaluationDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.SQLite.MaxOpenConns == 0 {
		cfg.Storage.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Storage.SQLite.MaxIdleConns == 0 {
		cfg.Storage.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Rules defaults
	if cfg.Rules.Source == "" {
		cfg.Rules.Source = DefaultRulesSource
	}
	if cfg.Rules.DebounceInterval == 0 {
		cfg.Rules.DebounceInterval = DefaultDebounceInterval
	}

	// Engine defaults
	if cfg.Engine.QueryDefaultLimit == 0 {
		cfg.Engine.QueryDefaultLimit = DefaultQueryDefaultLimit
	}
	if cfg.Engine.QueryMaxLimit == 0 {
		cfg.Engine.QueryMaxLimit = DefaultQueryMaxLimit
	}

	// Export defaults
	if cfg.Export.MaxRecords == 0 {
		cfg.Export.MaxRecords = DefaultExportMaxRecords
	}

	// Integrity defaults
	if cfg.Integrity.Schedule == "" {
		cfg.Integrity.Schedule = DefaultIntegritySchedule
	}

	// Authz defaults
	if cfg.Authz.DecisionLog.Path == "" {
		cfg.Authz.DecisionLog.Path = DefaultDecisionLogPath
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.EvaluationDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.EvaluationDurationBuckets = append([]float64(nil), DefaultEvaluationDurationBuckets...)
	}
}

// NewDefaultConfig returns a configuration populated entirely from defaults.
// Boolean fields that default to true are set explicitly since ApplyDefaults
// cannot distinguish false from unset.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Storage.SQLite.WALMode = DefaultSQLiteWALMode
	cfg.Export.JSONPretty = DefaultExportJSONPretty
	cfg.Export.CSVHeader = DefaultExportCSVHeader
	cfg.Authz.DecisionLog.Enabled = DefaultDecisionLogEnabled
	cfg.Telemetry.Logging.RedactPII = true
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}
