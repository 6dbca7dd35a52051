package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention MIZAN_SECTION_FIELD (e.g., MIZAN_STORAGE_BACKEND) and always
// take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format MIZAN_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Storage overrides
	if val := os.Getenv("MIZAN_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("MIZAN_STORAGE_SQLITE_PATH"); val != "" {
		cfg.Storage.SQLite.Path = val
	}
	if val := os.Getenv("MIZAN_STORAGE_SQLITE_MAX_OPEN_CONNS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Storage.SQLite.MaxOpenConns = i
		}
	}
	if val := os.Getenv("MIZAN_STORAGE_SQLITE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.SQLite.BusyTimeout = d
		}
	}

	// Rules overrides
	if val := os.Getenv("MIZAN_RULES_SOURCE"); val != "" {
		cfg.Rules.Source = val
	}
	if val := os.Getenv("MIZAN_RULES_PATH"); val != "" {
		cfg.Rules.Path = val
	}
	if val := os.Getenv("MIZAN_RULES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Watch = b
		}
	}

	// Engine overrides
	if val := os.Getenv("MIZAN_ENGINE_QUERY_DEFAULT_LIMIT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.QueryDefaultLimit = i
		}
	}
	if val := os.Getenv("MIZAN_ENGINE_QUERY_MAX_LIMIT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.QueryMaxLimit = i
		}
	}

	// Export overrides
	if val := os.Getenv("MIZAN_EXPORT_JSON_PRETTY"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Export.JSONPretty = b
		}
	}
	if val := os.Getenv("MIZAN_EXPORT_MAX_RECORDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Export.MaxRecords = i
		}
	}

	// Integrity overrides
	if val := os.Getenv("MIZAN_INTEGRITY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Integrity.Enabled = b
		}
	}
	if val := os.Getenv("MIZAN_INTEGRITY_SCHEDULE"); val != "" {
		cfg.Integrity.Schedule = val
	}

	// Authz overrides
	if val := os.Getenv("MIZAN_AUTHZ_DECISION_LOG_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Authz.DecisionLog.Enabled = b
		}
	}
	if val := os.Getenv("MIZAN_AUTHZ_DECISION_LOG_PATH"); val != "" {
		cfg.Authz.DecisionLog.Path = val
	}

	// Telemetry overrides
	if val := os.Getenv("MIZAN_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MIZAN_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("MIZAN_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("MIZAN_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("MIZAN_TELEMETRY_METRICS_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Telemetry.Metrics.Port = i
		}
	}
}
