package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shahin-hq/mizan/pkg/authz"
)

var authzFlags struct {
	policiesPath string
	action       string
	resourceType string
	resourceFile string
	tenantID     string
	principalID  string
	roles        []string
	format       string
}

var authzCmd = &cobra.Command{
	Use:   "authz",
	Short: "Authorization policy commands",
}

var authzCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Decide one authorization request",
	Long: `Evaluate a single request against a policy file and print the
decision. When the configured decision log is enabled the decision is
appended to it, exactly as an embedding service would record it.

The command exits non-zero when the request is denied.

Examples:
  # Check an action against a policy file
  mizan authz check --policies policies.yaml \
    --action wizard:evaluate --resource-type wizard \
    --principal officer-7 --roles compliance_officer

  # Include resource state
  mizan authz check --policies policies.yaml \
    --action wizard:override --resource-type wizard \
    --resource wizard.json --principal officer-7 --roles compliance_officer`,
	RunE: runAuthzCheck,
}

func init() {
	rootCmd.AddCommand(authzCmd)
	authzCmd.AddCommand(authzCheckCmd)

	authzCheckCmd.Flags().StringVarP(&authzFlags.policiesPath, "policies", "p", "", "policy file (required)")
	authzCheckCmd.Flags().StringVar(&authzFlags.action, "action", "", "action to authorize (required)")
	authzCheckCmd.Flags().StringVar(&authzFlags.resourceType, "resource-type", "", "target resource type")
	authzCheckCmd.Flags().StringVar(&authzFlags.resourceFile, "resource", "", "JSON file with resource state")
	authzCheckCmd.Flags().StringVar(&authzFlags.tenantID, "tenant", "", "tenant identifier")
	authzCheckCmd.Flags().StringVar(&authzFlags.principalID, "principal", "", "acting principal")
	authzCheckCmd.Flags().StringSliceVar(&authzFlags.roles, "roles", nil, "principal roles")
	authzCheckCmd.Flags().StringVar(&authzFlags.format, "format", "text", "output format: text, json")
	_ = authzCheckCmd.MarkFlagRequired("policies")
	_ = authzCheckCmd.MarkFlagRequired("action")
}

func runAuthzCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	set, err := authz.LoadPolicyFile(authzFlags.policiesPath)
	if err != nil {
		return err
	}

	var resource map[string]any
	if authzFlags.resourceFile != "" {
		data, err := os.ReadFile(authzFlags.resourceFile)
		if err != nil {
			return fmt.Errorf("read resource file: %w", err)
		}
		if err := json.Unmarshal(data, &resource); err != nil {
			return fmt.Errorf("parse resource file: %w", err)
		}
	}

	var log authz.DecisionLog = authz.NopLog{}
	if cfg.Authz.DecisionLog.Enabled {
		sqliteLog, err := authz.NewSQLiteLog(cfg.Authz.DecisionLog.Path)
		if err != nil {
			return fmt.Errorf("open decision log: %w", err)
		}
		defer sqliteLog.Close()
		log = sqliteLog
	}

	eval := authz.NewEvaluator(set, authz.WithDecisionLog(log))
	d, err := eval.Enforce(cmd.Context(), &authz.Request{
		Action:           authzFlags.action,
		ResourceType:     authzFlags.resourceType,
		ResourceSnapshot: resource,
		TenantID:         authzFlags.tenantID,
		PrincipalID:      authzFlags.principalID,
		PrincipalRoles:   authzFlags.roles,
	})

	var denied *authz.AuthorizationDenied
	if err != nil && !errors.As(err, &denied) {
		return err
	}

	if authzFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(d); encErr != nil {
			return encErr
		}
	} else if d.Allowed() {
		fmt.Printf("ALLOW by %s: %s\n", d.PolicyCode, d.Reason)
		for _, m := range d.Mutations {
			fmt.Printf("  mutate %s = %v\n", m.Field, m.Value)
		}
	} else {
		fmt.Printf("DENY: %s\n", d.Reason)
	}

	return err
}
