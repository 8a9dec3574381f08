// =============================================================================
// Order Reports - Root Command
// =============================================================================
//
// Defines the root command and the flags shared by every subcommand. The
// main configuration and logging are set up once in PersistentPreRunE so
// each subcommand starts with a loaded config and a logger.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/order-reports/internal/config"
	"github.com/ginjaninja78/order-reports/pkg/logging"
)

var cfgFile string

var verbose bool

// Loaded by PersistentPreRunE.
var (
	mainConfig *config.MainConfig
	logger     *slog.Logger
	closeLog   = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use: "reports",

	Short: "Order Reports - grouped, subtotalled reports from marketplace order exports",

	Long: `Order Reports turns line item exports from a multi-vendor food marketplace
into grouped reports with subtotals: supplier totals, hub and customer
totals, bulk co-op allocations and payment summaries.

Key Features:
  - CSV and XLSX exports, mapped through per-source profiles
  - A SQLite order store for filtering across many imports
  - CSV, HTML, XLSX, XML and terminal output
  - Concurrent batch runs with archiving and error logs
  - An HTTP service with Prometheus metrics

Example Usage:
  reports run                                 # All configured reports for every export
  reports build supplier_totals --input x.csv # One report to stdout
  reports import week12.csv                   # Load an export into the store
  reports serve                               # Serve reports over HTTP`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		allowMissing := !cmd.Flags().Changed("config")
		cfg, err := config.LoadOrDefault(cfgFile, allowMissing)
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}
		mainConfig = cfg

		l, closeFn, err := logging.Setup(logging.Options{
			Level:   cfg.LogLevel,
			Verbose: verbose,
			File:    cfg.LogFile,
			Console: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		logger = l
		closeLog = closeFn
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

// exitError carries a specific exit status.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
