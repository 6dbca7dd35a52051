package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"shahin-hq/mizan/pkg/decision/export"
	"shahin-hq/mizan/pkg/engine"
)

var exportFlags struct {
	wizardID string
	format   string
	output   string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a wizard's audit trail",
	Long: `Export the full decision history of a wizard: answer snapshots,
rule evaluation records, artifact versions, and explanations.

Examples:
  # JSON bundle to stdout
  mizan export --wizard wiz-1

  # CSV evaluation records to a file
  mizan export --wizard wiz-1 --format csv --output wiz-1.csv`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFlags.wizardID, "wizard", "w", "", "wizard identifier (required)")
	exportCmd.Flags().StringVarP(&exportFlags.format, "format", "f", "json", "export format: json, csv")
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "output file (default stdout)")
	_ = exportCmd.MarkFlagRequired("wizard")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	setup, err := engine.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer setup.Close()

	var w io.Writer = os.Stdout
	if exportFlags.output != "" {
		f, err := os.Create(exportFlags.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	ctx := cmd.Context()
	switch exportFlags.format {
	case "json":
		exporter := export.NewJSONExporter(setup.Storage, cfg.Export.JSONPretty)
		exporter.MaxRecords = cfg.Export.MaxRecords
		return exporter.Export(ctx, exportFlags.wizardID, w)
	case "csv":
		exporter := export.NewCSVExporter(setup.Storage, cfg.Export.CSVHeader)
		exporter.MaxRecords = cfg.Export.MaxRecords
		return exporter.Export(ctx, exportFlags.wizardID, w)
	default:
		return fmt.Errorf("unknown export format %q (expected json or csv)", exportFlags.format)
	}
}
