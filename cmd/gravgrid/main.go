// gravgrid drives the gravity grid simulation without a window.
//
// Usage:
//
//	gravgrid run               - Run a headless simulation and print a report
//	gravgrid config            - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Configuration file (default search: ~/.gravgrid, ./configs, embedded)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/plus3/gravgrid/config"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gravgrid",
	Short: "Gravity grid - falling block simulation",
	Long: `gravgrid runs a grid of unit blocks where removing a block lets the
blocks above it fall into the gap, one row per settle period.

Examples:
  gravgrid run
  gravgrid run --rows 5 --cols 10 --remove-at 3,2 --duration 2s
  gravgrid run --realtime --log-level debug
  gravgrid config --config ./my-grid.yaml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override: debug, info, warn, error")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig resolves the configuration and applies the global overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "gravgrid",
		Level:           lvl,
	}), nil
}
