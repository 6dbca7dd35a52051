package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the decision database
// schema. Entities are flat rows referenced by ID; there are no embedded
// object graphs.
const Schema = `
-- Answer snapshots: immutable, versioned captures of wizard answers
CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    wizard_id TEXT NOT NULL,
    version INTEGER NOT NULL,
    step_number INTEGER NOT NULL,
    section_code TEXT NOT NULL,
    payload BLOB NOT NULL,
    content_hash TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    is_final BOOLEAN NOT NULL DEFAULT 0
);

-- One version per wizard; insertion races surface as constraint errors
CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_wizard_version
    ON snapshots(wizard_id, version);
CREATE INDEX IF NOT EXISTS idx_snapshots_wizard ON snapshots(wizard_id);

-- Rule evaluation records: one per rule per evaluation run
CREATE TABLE IF NOT EXISTS evaluations (
    id TEXT PRIMARY KEY,
    wizard_id TEXT NOT NULL,
    snapshot_id TEXT NOT NULL,
    rule_code TEXT NOT NULL,
    rule_version TEXT NOT NULL,
    input_context BLOB NOT NULL,
    result TEXT NOT NULL,
    confidence_score REAL NOT NULL,
    output_payload BLOB,
    reason_text TEXT NOT NULL,
    reason_text_ar TEXT,
    duration_ms INTEGER NOT NULL,
    evaluated_at TIMESTAMP NOT NULL,
    error_detail TEXT
);

CREATE INDEX IF NOT EXISTS idx_evaluations_wizard ON evaluations(wizard_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_snapshot ON evaluations(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_rule ON evaluations(rule_code);

-- Derived artifacts: versioned compliance conclusions
CREATE TABLE IF NOT EXISTS artifacts (
    id TEXT PRIMARY KEY,
    wizard_id TEXT NOT NULL,
    output_type TEXT NOT NULL,
    output_code TEXT NOT NULL,
    output_name TEXT NOT NULL,
    output_name_ar TEXT,
    payload BLOB NOT NULL,
    applicability TEXT NOT NULL,
    priority INTEGER NOT NULL,
    source_evaluation_id TEXT NOT NULL,
    version INTEGER NOT NULL,
    is_active BOOLEAN NOT NULL,
    derived_at TIMESTAMP NOT NULL,
    deactivated_at TIMESTAMP
);

-- One version per (wizard, code); at most one active row per (wizard, code)
CREATE UNIQUE INDEX IF NOT EXISTS idx_artifacts_wizard_code_version
    ON artifacts(wizard_id, output_code, version);
CREATE UNIQUE INDEX IF NOT EXISTS idx_artifacts_one_active
    ON artifacts(wizard_id, output_code) WHERE is_active = 1;
CREATE INDEX IF NOT EXISTS idx_artifacts_wizard ON artifacts(wizard_id);

-- Explainability records: write-once decisions with override envelopes
CREATE TABLE IF NOT EXISTS explanations (
    id TEXT PRIMARY KEY,
    wizard_id TEXT NOT NULL,
    subject_type TEXT NOT NULL,
    subject_code TEXT NOT NULL,
    subject_name TEXT NOT NULL,
    subject_name_ar TEXT,
    decision TEXT NOT NULL,
    primary_reason TEXT NOT NULL,
    primary_reason_ar TEXT,
    factors TEXT NOT NULL,
    refs TEXT NOT NULL,
    source_evaluation_id TEXT NOT NULL,
    is_overridable BOOLEAN NOT NULL,
    override_by TEXT,
    override_at TIMESTAMP,
    override_decision TEXT,
    override_justification TEXT,
    generated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_explanations_wizard ON explanations(wizard_id);
CREATE INDEX IF NOT EXISTS idx_explanations_subject
    ON explanations(wizard_id, subject_type, subject_code);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
