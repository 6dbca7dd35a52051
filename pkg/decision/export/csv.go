package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"shahin-hq/mizan/pkg/decision"
)

// CSVExporter exports a wizard's evaluation records in flat CSV form for
// spreadsheet review.
type CSVExporter struct {
	storage decision.Storage
	logger  *slog.Logger

	// IncludeHeader prepends a column-name row.
	IncludeHeader bool

	// MaxRecords, when positive, refuses exports larger than this many
	// evaluation records instead of truncating them.
	MaxRecords int
}

// NewCSVExporter creates a CSV exporter backed by the given storage.
func NewCSVExporter(storage decision.Storage, includeHeader bool) *CSVExporter {
	return &CSVExporter{
		storage:       storage,
		logger:        slog.Default().With("component", "decision.export"),
		IncludeHeader: includeHeader,
	}
}

// Export writes the wizard's evaluation records as CSV rows.
func (e *CSVExporter) Export(ctx context.Context, wizardID string, w io.Writer) error {
	records, err := e.storage.ListEvaluations(ctx, &decision.Query{
		WizardID: wizardID,
		Limit:    decision.QueryNoLimit,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return decision.ErrNotFound
	}
	if e.MaxRecords > 0 && len(records) > e.MaxRecords {
		return decision.NewExportError("csv", 0,
			fmt.Errorf("wizard has %d records, exceeding the configured maximum of %d", len(records), e.MaxRecords))
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(evaluationHeader()); err != nil {
			return decision.NewExportError("csv", 0, err)
		}
	}

	for i, record := range records {
		if err := writer.Write(evaluationRow(record)); err != nil {
			return decision.NewExportError("csv", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return decision.NewExportError("csv", len(records), err)
	}

	e.logger.Info("evaluations exported",
		"wizard_id", wizardID,
		"records", len(records))
	return nil
}

func evaluationHeader() []string {
	return []string{
		"id", "wizard_id", "snapshot_id", "rule_code", "rule_version",
		"result", "confidence_score", "input_context", "output_payload",
		"reason_text", "reason_text_ar", "duration_ms", "evaluated_at", "error_detail",
	}
}

func evaluationRow(record *decision.RuleEvaluationRecord) []string {
	return []string{
		record.ID,
		record.WizardID,
		record.SnapshotID,
		record.RuleCode,
		record.RuleVersion,
		string(record.Result),
		fmt.Sprintf("%.2f", record.ConfidenceScore),
		string(record.InputContext),
		string(record.OutputPayload),
		record.ReasonText,
		record.ReasonTextAr,
		fmt.Sprintf("%d", record.DurationMs),
		record.EvaluatedAt.Format(time.RFC3339),
		record.ErrorDetail,
	}
}
