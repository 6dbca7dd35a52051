package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shahin-hq/mizan/pkg/decision/replay"
	"shahin-hq/mizan/pkg/engine"
)

var replayFlags struct {
	wizardID   string
	snapshotID string
	format     string
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a stored evaluation run",
	Long: `Re-run a stored evaluation against its recorded answer snapshot and
compare the recomputed outcomes with the stored records. A clean replay
proves the stored run is reproducible; any divergence indicates rule set
drift or record tampering.

The command exits non-zero when the replay diverges.

Examples:
  # Replay the latest run of a wizard
  mizan replay --wizard wiz-1

  # Replay one specific snapshot
  mizan replay --wizard wiz-1 --snapshot 4f7c...`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&replayFlags.wizardID, "wizard", "w", "", "wizard identifier (required)")
	replayCmd.Flags().StringVarP(&replayFlags.snapshotID, "snapshot", "s", "", "snapshot identifier (default latest)")
	replayCmd.Flags().StringVar(&replayFlags.format, "format", "text", "output format: text, json")
	_ = replayCmd.MarkFlagRequired("wizard")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	setup, err := engine.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer setup.Close()

	verifier := replay.NewVerifier(setup.Storage)
	set := setup.Engine.RuleSet()

	ctx := cmd.Context()
	var report *replay.Report
	if replayFlags.snapshotID != "" {
		report, err = verifier.Replay(ctx, replayFlags.wizardID, replayFlags.snapshotID, set)
	} else {
		report, err = verifier.ReplayLatest(ctx, replayFlags.wizardID, set)
	}
	if err != nil {
		return err
	}

	if replayFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Printf("Replayed %d records for wizard %s (snapshot %s)\n",
			report.Records, report.WizardID, report.SnapshotID)
		for _, d := range report.Divergences {
			fmt.Printf("  DIVERGED %s %s: stored=%s recomputed=%s\n",
				d.RuleCode, d.Field, d.Stored, d.Recomputed)
		}
	}

	if !report.Clean() {
		return fmt.Errorf("replay diverged in %d places", len(report.Divergences))
	}
	if replayFlags.format != "json" {
		fmt.Println("Replay clean")
	}
	return nil
}
