package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"shahin-hq/mizan/pkg/config"
	"shahin-hq/mizan/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mizan",
	Short: "Mizan - deterministic compliance decision engine",
	Long: `Mizan evaluates regulated onboarding wizards against declarative
applicability rules and maintains a tamper-evident decision trail.

Every evaluation captures an immutable answer snapshot, runs the rule set
deterministically, derives versioned compliance artifacts, and records an
explanation for each decision. Stored runs can be replayed bit-for-bit and
swept for hash integrity at any time.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration file (defaults apply when no file is
// given) and installs the configured logger as the process default.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgFile == "" {
		cfg = config.NewDefaultConfig()
	} else {
		cfg, err = config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.FromLoggingConfig(cfg.Telemetry.Logging))
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	slog.SetDefault(logger.Slog())

	return cfg, nil
}
