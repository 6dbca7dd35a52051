package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shahin-hq/mizan/pkg/authz"
	"shahin-hq/mizan/pkg/decision/rules"
)

var lintFlags struct {
	rulesPath    string
	policiesPath string
	format       string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule and policy files",
	Long: `Validate rule-set and authorization policy files before deployment.

Validation covers YAML syntax, required fields, condition tree shape, and
duplicate codes. A file that fails validation would also fail at engine
start; lint surfaces the error without touching any stored data.

Examples:
  # Validate a rule file or directory
  mizan lint --rules rules.yaml

  # Validate authorization policies
  mizan lint --policies policies.yaml

  # JSON output for CI
  mizan lint --rules rules/ --format json`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.rulesPath, "rules", "r", "", "rule file or directory to validate")
	lintCmd.Flags().StringVarP(&lintFlags.policiesPath, "policies", "p", "", "policy file to validate")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// lintResult is one validated file in the lint report.
type lintResult struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Valid bool   `json:"valid"`
	Count int    `json:"count,omitempty"`
	Error string `json:"error,omitempty"`
}

func runLint(cmd *cobra.Command, args []string) error {
	if lintFlags.rulesPath == "" && lintFlags.policiesPath == "" {
		return fmt.Errorf("either --rules or --policies must be specified")
	}

	var results []lintResult

	if lintFlags.rulesPath != "" {
		result := lintResult{Path: lintFlags.rulesPath, Kind: "rules"}
		set, err := rules.NewFileSource(lintFlags.rulesPath).Load()
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Valid = true
			result.Count = set.Len()
		}
		results = append(results, result)
	}

	if lintFlags.policiesPath != "" {
		result := lintResult{Path: lintFlags.policiesPath, Kind: "policies"}
		set, err := authz.LoadPolicyFile(lintFlags.policiesPath)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Valid = true
			result.Count = set.Len()
		}
		results = append(results, result)
	}

	failed := 0
	if lintFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
		for _, r := range results {
			if !r.Valid {
				failed++
			}
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s: %d %s\n", r.Path, r.Count, r.Kind)
			} else {
				fmt.Printf("✗ %s: %s\n", r.Path, r.Error)
				failed++
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed validation", failed)
	}
	return nil
}
