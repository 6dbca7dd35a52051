package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"shahin-hq/mizan/pkg/config"
)

func newTestLogger(t *testing.T, cfg Config) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg.Writer = &buf
	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return logger, &buf
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose"})
	if err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New(Config{Format: "xml"})
	if err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", Format: "json"})

	logger.Info("evaluation complete", "wizard_id", "wiz-001", "records", 7)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "evaluation complete" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["wizard_id"] != "wiz-001" {
		t.Errorf("unexpected wizard_id: %v", entry["wizard_id"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "warn", Format: "text"})

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestLogger_RedactsArguments(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", Format: "json", RedactPII: true})

	logger.Info("wizard submitted", "contact", "owner@example.sa", "national_id", "1023456789")

	out := buf.String()
	if strings.Contains(out, "owner@example.sa") {
		t.Errorf("email leaked into log output: %q", out)
	}
	if strings.Contains(out, "023456789") {
		t.Errorf("national id leaked into log output: %q", out)
	}
}

func TestLogger_RedactionDisabled(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", Format: "json", RedactPII: false})

	logger.Info("wizard submitted", "contact", "owner@example.sa")

	if !strings.Contains(buf.String(), "owner@example.sa") {
		t.Errorf("expected raw value with redaction disabled, got %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", Format: "json"})

	child := logger.With("component", "dispatcher")
	child.Info("batch done")

	if !strings.Contains(buf.String(), `"component":"dispatcher"`) {
		t.Errorf("expected component field, got %q", buf.String())
	}
}

func TestFromLoggingConfig(t *testing.T) {
	cfg := FromLoggingConfig(config.LoggingConfig{
		Level:     "debug",
		Format:    "text",
		RedactPII: true,
	})
	if cfg.Level != "debug" || cfg.Format != "text" || !cfg.RedactPII {
		t.Errorf("unexpected config mapping: %+v", cfg)
	}
}
