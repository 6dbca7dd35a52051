// Package config provides configuration loading, defaulting, and validation
// for the Mizan decision engine.
//
// Configuration is read from a YAML file and may be overridden by environment
// variables following the MIZAN_SECTION_FIELD naming convention
// (for example MIZAN_STORAGE_BACKEND or MIZAN_TELEMETRY_LOGGING_LEVEL).
// Environment variables always take precedence over file values.
//
// The loading sequence is:
//
//  1. Parse YAML from file
//  2. Apply defaults for zero-valued fields
//  3. Apply environment variable overrides
//  4. Validate the final configuration
//
// Validation collects every problem it finds and returns them together as a
// ValidationError, so operators can fix a broken file in one pass.
package config
