package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"shahin-hq/mizan/pkg/decision"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/decisions.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements decision.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend. It initializes
// the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "decision.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, decision.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return decision.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return decision.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return decision.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return decision.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return decision.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return decision.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// InsertSnapshot appends a snapshot row. A duplicate (wizard, version)
// pair means a competing run won the version race; it is reported as a
// ConcurrencyError for the caller to retry.
func (s *SQLiteStorage) InsertSnapshot(ctx context.Context, snapshot *decision.AnswerSnapshot) error {
	query := `
		INSERT INTO snapshots (
			id, wizard_id, version, step_number, section_code,
			payload, content_hash, created_by, created_at, is_final
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		snapshot.ID, snapshot.WizardID, snapshot.Version, snapshot.StepNumber, snapshot.SectionCode,
		snapshot.Payload, snapshot.ContentHash, snapshot.CreatedBy, snapshot.CreatedAt, snapshot.IsFinal,
	)
	if err != nil {
		if isUniqueViolation(err, "snapshots") {
			return decision.NewConcurrencyError(snapshot.WizardID, "capture")
		}
		return decision.NewStorageError("sqlite", "insert_snapshot", err)
	}

	return nil
}

// GetSnapshot returns one snapshot by ID.
func (s *SQLiteStorage) GetSnapshot(ctx context.Context, id string) (*decision.AnswerSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, wizard_id, version, step_number, section_code,
		       payload, content_hash, created_by, created_at, is_final
		FROM snapshots WHERE id = ?
	`, id)
	return scanSnapshot(row)
}

// LatestSnapshot returns the highest-version snapshot for a wizard.
func (s *SQLiteStorage) LatestSnapshot(ctx context.Context, wizardID string) (*decision.AnswerSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, wizard_id, version, step_number, section_code,
		       payload, content_hash, created_by, created_at, is_final
		FROM snapshots WHERE wizard_id = ?
		ORDER BY version DESC LIMIT 1
	`, wizardID)
	return scanSnapshot(row)
}

// ListSnapshots returns a wizard's snapshots ordered by version ascending.
func (s *SQLiteStorage) ListSnapshots(ctx context.Context, wizardID string) ([]*decision.AnswerSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wizard_id, version, step_number, section_code,
		       payload, content_hash, created_by, created_at, is_final
		FROM snapshots WHERE wizard_id = ?
		ORDER BY version ASC
	`, wizardID)
	if err != nil {
		return nil, decision.NewStorageError("sqlite", "list_snapshots", err)
	}
	defer rows.Close()

	var snapshots []*decision.AnswerSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, decision.NewStorageError("sqlite", "list_snapshots", err)
	}
	return snapshots, nil
}

// SetSnapshotFinal marks a snapshot as the wizard's final capture. The
// payload and hash columns are never written after insertion.
func (s *SQLiteStorage) SetSnapshotFinal(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE snapshots SET is_final = 1 WHERE id = ?`, id)
	if err != nil {
		return decision.NewStorageError("sqlite", "set_snapshot_final", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return decision.NewStorageError("sqlite", "set_snapshot_final", err)
	}
	if affected == 0 {
		return decision.ErrNotFound
	}
	return nil
}

// WizardIDs returns every wizard ID with at least one snapshot.
func (s *SQLiteStorage) WizardIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT wizard_id FROM snapshots ORDER BY wizard_id ASC
	`)
	if err != nil {
		return nil, decision.NewStorageError("sqlite", "wizard_ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, decision.NewStorageError("sqlite", "wizard_ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, decision.NewStorageError("sqlite", "wizard_ids", err)
	}
	return ids, nil
}

// InsertEvaluation appends one evaluation record.
func (s *SQLiteStorage) InsertEvaluation(ctx context.Context, record *decision.RuleEvaluationRecord) error {
	query := `
		INSERT INTO evaluations (
			id, wizard_id, snapshot_id, rule_code, rule_version,
			input_context, result, confidence_score, output_payload,
			reason_text, reason_text_ar, duration_ms, evaluated_at, error_detail
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errorDetail any
	if record.ErrorDetail != "" {
		errorDetail = record.ErrorDetail
	}

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.WizardID, record.SnapshotID, record.RuleCode, record.RuleVersion,
		record.InputContext, string(record.Result), record.ConfidenceScore, record.OutputPayload,
		record.ReasonText, record.ReasonTextAr, record.DurationMs, record.EvaluatedAt, errorDetail,
	)
	if err != nil {
		return decision.NewStorageError("sqlite", "insert_evaluation", err)
	}
	return nil
}

// ListEvaluations returns evaluation records matching the query, ordered
// by rule code for stable comparison across runs.
func (s *SQLiteStorage) ListEvaluations(ctx context.Context, query *decision.Query) ([]*decision.RuleEvaluationRecord, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	sqlQuery := `
		SELECT id, wizard_id, snapshot_id, rule_code, rule_version,
		       input_context, result, confidence_score, output_payload,
		       reason_text, reason_text_ar, duration_ms, evaluated_at, error_detail
		FROM evaluations WHERE wizard_id = ?
	`
	args := []any{query.WizardID}

	if query.SnapshotID != "" {
		sqlQuery += " AND snapshot_id = ?"
		args = append(args, query.SnapshotID)
	}

	sqlQuery += " ORDER BY evaluated_at ASC, rule_code ASC"
	sqlQuery += fmt.Sprintf(" LIMIT %d", limitOrDefault(query.Limit))
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, decision.NewStorageError("sqlite", "list_evaluations", err)
	}
	defer rows.Close()

	var records []*decision.RuleEvaluationRecord
	for rows.Next() {
		var rec decision.RuleEvaluationRecord
		var result string
		var reasonAr, errorDetail sql.NullString
		err := rows.Scan(
			&rec.ID, &rec.WizardID, &rec.SnapshotID, &rec.RuleCode, &rec.RuleVersion,
			&rec.InputContext, &result, &rec.ConfidenceScore, &rec.OutputPayload,
			&rec.ReasonText, &reasonAr, &rec.DurationMs, &rec.EvaluatedAt, &errorDetail,
		)
		if err != nil {
			return nil, decision.NewStorageError("sqlite", "scan_evaluation", err)
		}
		rec.Result = decision.EvaluationResult(result)
		rec.ReasonTextAr = reasonAr.String
		rec.ErrorDetail = errorDetail.String
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, decision.NewStorageError("sqlite", "list_evaluations", err)
	}
	return records, nil
}

// InsertArtifact appends one artifact version row.
func (s *SQLiteStorage) InsertArtifact(ctx context.Context, artifact *decision.DerivedArtifact) error {
	query := `
		INSERT INTO artifacts (
			id, wizard_id, output_type, output_code, output_name, output_name_ar,
			payload, applicability, priority, source_evaluation_id,
			version, is_active, derived_at, deactivated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		artifact.ID, artifact.WizardID, string(artifact.OutputType), artifact.OutputCode,
		artifact.OutputName, artifact.OutputNameAr,
		artifact.Payload, string(artifact.Applicability), artifact.Priority, artifact.SourceEvaluationID,
		artifact.Version, artifact.IsActive, artifact.DerivedAt, artifact.DeactivatedAt,
	)
	if err != nil {
		return decision.NewStorageError("sqlite", "insert_artifact", err)
	}
	return nil
}

// ActiveArtifacts returns the currently active artifact versions for a
// wizard, ordered by priority then output code.
func (s *SQLiteStorage) ActiveArtifacts(ctx context.Context, wizardID string) ([]*decision.DerivedArtifact, error) {
	return s.queryArtifacts(ctx, `
		SELECT id, wizard_id, output_type, output_code, output_name, output_name_ar,
		       payload, applicability, priority, source_evaluation_id,
		       version, is_active, derived_at, deactivated_at
		FROM artifacts WHERE wizard_id = ? AND is_active = 1
		ORDER BY priority ASC, output_code ASC
	`, wizardID)
}

// Artifacts returns every artifact version row for a wizard, active and
// superseded.
func (s *SQLiteStorage) Artifacts(ctx context.Context, wizardID string) ([]*decision.DerivedArtifact, error) {
	return s.queryArtifacts(ctx, `
		SELECT id, wizard_id, output_type, output_code, output_name, output_name_ar,
		       payload, applicability, priority, source_evaluation_id,
		       version, is_active, derived_at, deactivated_at
		FROM artifacts WHERE wizard_id = ?
		ORDER BY output_code ASC, version ASC
	`, wizardID)
}

// ArtifactVersions returns every version row for a (wizard, output code).
func (s *SQLiteStorage) ArtifactVersions(ctx context.Context, wizardID, outputCode string) ([]*decision.DerivedArtifact, error) {
	return s.queryArtifacts(ctx, `
		SELECT id, wizard_id, output_type, output_code, output_name, output_name_ar,
		       payload, applicability, priority, source_evaluation_id,
		       version, is_active, derived_at, deactivated_at
		FROM artifacts WHERE wizard_id = ? AND output_code = ?
		ORDER BY version ASC
	`, wizardID, outputCode)
}

// LastArtifactVersion returns the highest version recorded for a (wizard,
// output code), active or not.
func (s *SQLiteStorage) LastArtifactVersion(ctx context.Context, wizardID, outputCode string) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(version) FROM artifacts WHERE wizard_id = ? AND output_code = ?
	`, wizardID, outputCode).Scan(&version)
	if err != nil {
		return 0, decision.NewStorageError("sqlite", "last_artifact_version", err)
	}
	return int(version.Int64), nil
}

// DeactivateArtifact flips IsActive off on one artifact row.
func (s *SQLiteStorage) DeactivateArtifact(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE artifacts SET is_active = 0, deactivated_at = ?
		WHERE id = ? AND is_active = 1
	`, at, id)
	if err != nil {
		return decision.NewStorageError("sqlite", "deactivate_artifact", err)
	}
	// Zero affected rows means the row was already inactive or absent;
	// deactivation is idempotent so absence alone is not an error.
	if _, err := result.RowsAffected(); err != nil {
		return decision.NewStorageError("sqlite", "deactivate_artifact", err)
	}
	return nil
}

// InsertExplanation appends one explainability record.
func (s *SQLiteStorage) InsertExplanation(ctx context.Context, record *decision.ExplainabilityRecord) error {
	factors, err := json.Marshal(record.Factors)
	if err != nil {
		return decision.NewStorageError("sqlite", "marshal_factors", err)
	}
	references, err := json.Marshal(record.References)
	if err != nil {
		return decision.NewStorageError("sqlite", "marshal_references", err)
	}

	query := `
		INSERT INTO explanations (
			id, wizard_id, subject_type, subject_code, subject_name, subject_name_ar,
			decision, primary_reason, primary_reason_ar, factors, refs,
			source_evaluation_id, is_overridable,
			override_by, override_at, override_decision, override_justification,
			generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var overrideBy, overrideDecision, overrideJustification any
	var overrideAt any
	if record.Override != nil {
		overrideBy = record.Override.By
		overrideAt = record.Override.At
		overrideDecision = string(record.Override.NewDecision)
		overrideJustification = record.Override.Justification
	}

	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.WizardID, string(record.SubjectType), record.SubjectCode,
		record.SubjectName, record.SubjectNameAr,
		string(record.Decision), record.PrimaryReason, record.PrimaryReasonAr,
		string(factors), string(references),
		record.SourceEvaluationID, record.IsOverridable,
		overrideBy, overrideAt, overrideDecision, overrideJustification,
		record.GeneratedAt,
	)
	if err != nil {
		return decision.NewStorageError("sqlite", "insert_explanation", err)
	}
	return nil
}

// GetExplanation returns one explainability record by ID.
func (s *SQLiteStorage) GetExplanation(ctx context.Context, id string) (*decision.ExplainabilityRecord, error) {
	row := s.db.QueryRowContext(ctx, explanationSelect+` WHERE id = ?`, id)
	return scanExplanation(row)
}

// ListExplanations returns explainability records matching the query.
func (s *SQLiteStorage) ListExplanations(ctx context.Context, query *decision.Query) ([]*decision.ExplainabilityRecord, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	sqlQuery := explanationSelect + ` WHERE wizard_id = ?`
	args := []any{query.WizardID}

	if query.SubjectType != "" {
		sqlQuery += " AND subject_type = ?"
		args = append(args, string(query.SubjectType))
	}
	if query.SubjectCode != "" {
		sqlQuery += " AND subject_code = ?"
		args = append(args, query.SubjectCode)
	}

	sqlQuery += " ORDER BY generated_at DESC"
	sqlQuery += fmt.Sprintf(" LIMIT %d", limitOrDefault(query.Limit))
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, decision.NewStorageError("sqlite", "list_explanations", err)
	}
	defer rows.Close()

	var records []*decision.ExplainabilityRecord
	for rows.Next() {
		rec, err := scanExplanation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, decision.NewStorageError("sqlite", "list_explanations", err)
	}
	return records, nil
}

// ApplyOverride fills the override envelope on one explainability record.
// The decision column is deliberately absent from the UPDATE; the
// original conclusion is immutable.
func (s *SQLiteStorage) ApplyOverride(ctx context.Context, id string, override *decision.Override) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE explanations
		SET override_by = ?, override_at = ?, override_decision = ?, override_justification = ?
		WHERE id = ? AND override_by IS NULL
	`, override.By, override.At, string(override.NewDecision), override.Justification, id)
	if err != nil {
		return decision.NewStorageError("sqlite", "apply_override", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return decision.NewStorageError("sqlite", "apply_override", err)
	}
	if affected == 0 {
		// Distinguish a missing record from a double override.
		if _, err := s.GetExplanation(ctx, id); err != nil {
			return err
		}
		return decision.NewOverrideError(id, "record already carries an override")
	}
	return nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return decision.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

const explanationSelect = `
	SELECT id, wizard_id, subject_type, subject_code, subject_name, subject_name_ar,
	       decision, primary_reason, primary_reason_ar, factors, refs,
	       source_evaluation_id, is_overridable,
	       override_by, override_at, override_decision, override_justification,
	       generated_at
	FROM explanations`

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*decision.AnswerSnapshot, error) {
	var snap decision.AnswerSnapshot
	err := row.Scan(
		&snap.ID, &snap.WizardID, &snap.Version, &snap.StepNumber, &snap.SectionCode,
		&snap.Payload, &snap.ContentHash, &snap.CreatedBy, &snap.CreatedAt, &snap.IsFinal,
	)
	if err == sql.ErrNoRows {
		return nil, decision.ErrNotFound
	}
	if err != nil {
		return nil, decision.NewStorageError("sqlite", "scan_snapshot", err)
	}
	return &snap, nil
}

func (s *SQLiteStorage) queryArtifacts(ctx context.Context, query string, args ...any) ([]*decision.DerivedArtifact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, decision.NewStorageError("sqlite", "query_artifacts", err)
	}
	defer rows.Close()

	var artifacts []*decision.DerivedArtifact
	for rows.Next() {
		var art decision.DerivedArtifact
		var outputType, applicability string
		var nameAr sql.NullString
		var deactivatedAt sql.NullTime
		err := rows.Scan(
			&art.ID, &art.WizardID, &outputType, &art.OutputCode, &art.OutputName, &nameAr,
			&art.Payload, &applicability, &art.Priority, &art.SourceEvaluationID,
			&art.Version, &art.IsActive, &art.DerivedAt, &deactivatedAt,
		)
		if err != nil {
			return nil, decision.NewStorageError("sqlite", "scan_artifact", err)
		}
		art.OutputType = decision.OutputType(outputType)
		art.Applicability = decision.Applicability(applicability)
		art.OutputNameAr = nameAr.String
		if deactivatedAt.Valid {
			t := deactivatedAt.Time
			art.DeactivatedAt = &t
		}
		artifacts = append(artifacts, &art)
	}
	if err := rows.Err(); err != nil {
		return nil, decision.NewStorageError("sqlite", "query_artifacts", err)
	}
	return artifacts, nil
}

func scanExplanation(row rowScanner) (*decision.ExplainabilityRecord, error) {
	var rec decision.ExplainabilityRecord
	var subjectType, dec, factors, references string
	var nameAr, reasonAr sql.NullString
	var overrideBy, overrideDecision, overrideJustification sql.NullString
	var overrideAt sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.WizardID, &subjectType, &rec.SubjectCode, &rec.SubjectName, &nameAr,
		&dec, &rec.PrimaryReason, &reasonAr, &factors, &references,
		&rec.SourceEvaluationID, &rec.IsOverridable,
		&overrideBy, &overrideAt, &overrideDecision, &overrideJustification,
		&rec.GeneratedAt,
	)
	if err == sql.ErrNoRows {
		return nil, decision.ErrNotFound
	}
	if err != nil {
		return nil, decision.NewStorageError("sqlite", "scan_explanation", err)
	}

	rec.SubjectType = decision.DecisionType(subjectType)
	rec.Decision = decision.Decision(dec)
	rec.SubjectNameAr = nameAr.String
	rec.PrimaryReasonAr = reasonAr.String

	if err := json.Unmarshal([]byte(factors), &rec.Factors); err != nil {
		return nil, decision.NewStorageError("sqlite", "unmarshal_factors", err)
	}
	if err := json.Unmarshal([]byte(references), &rec.References); err != nil {
		return nil, decision.NewStorageError("sqlite", "unmarshal_references", err)
	}

	if overrideBy.Valid {
		rec.Override = &decision.Override{
			By:            overrideBy.String,
			At:            overrideAt.Time,
			NewDecision:   decision.Decision(overrideDecision.String),
			Justification: overrideJustification.String,
		}
	}

	return &rec, nil
}

func limitOrDefault(limit int) int {
	switch {
	case limit == decision.QueryNoLimit:
		// SQLite treats a negative LIMIT as unbounded; paginate does the
		// same for the memory backend.
		return -1
	case limit > 0:
		return limit
	default:
		return 100
	}
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the named table. Matching on the driver message keeps the storage
// package free of driver-specific error types.
func isUniqueViolation(err error, table string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, table+".")
}
