// =============================================================================
// Order Reports - Run Command
// =============================================================================
//
// Scans the input directory for exports, matches each to a source profile
// and writes every configured report for it.
//
// On success:
//   - One report file per report type is written to the output directory
//   - The export is moved to the input archive (archive_inputs)
//   - A summary is written to the output directory
//
// On error:
//   - An error log is written to the output directory
//   - The export stays in the input directory
//   - Other files continue unless continue_on_error is false
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/order-reports/internal/config"
	"github.com/ginjaninja78/order-reports/internal/pipeline"
	"github.com/ginjaninja78/order-reports/internal/render"
)

var runOpts struct {
	dryRun  bool
	file    string
	profile string
	reports []string
	format  string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the configured reports for every export in the input directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runPipeline(ctx, cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runOpts.dryRun, "dry-run", false,
		"Build and render everything without writing or moving files")
	runCmd.Flags().StringVar(&runOpts.file, "file", "",
		"Process a single file instead of scanning the input directory")
	runCmd.Flags().StringVar(&runOpts.profile, "profile", "",
		"Use this source profile code instead of matching file names")
	runCmd.Flags().StringSliceVar(&runOpts.reports, "report", nil,
		"Report types to build (default: reports from the config)")
	runCmd.Flags().StringVar(&runOpts.format, "format", "",
		"Output format: csv, html, xlsx, xml, text (default: output_format from the config)")
}

func runPipeline(ctx context.Context, cmd *cobra.Command) error {
	profiles, err := config.LoadProfiles(mainConfig.ProfilesDir)
	if err != nil {
		return fmt.Errorf("failed to load source profiles: %w", err)
	}
	logger.Info("Loaded source profiles", "count", len(profiles))

	opts := pipeline.Options{
		Reports: runOpts.reports,
		Profile: runOpts.profile,
		DryRun:  runOpts.dryRun,
	}
	if runOpts.format != "" {
		if opts.Format, err = render.ParseFormat(runOpts.format); err != nil {
			return err
		}
	}

	p := pipeline.New(mainConfig, profiles, nil, logger)

	var files []string
	if runOpts.file != "" {
		files = []string{runOpts.file}
	} else {
		if files, err = p.Discover(); err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(files) == 0 {
		logger.Info("No exports found in the input directory", "dir", mainConfig.InputDir)
		return nil
	}
	logger.Info("Processing files", "count", len(files), "dry_run", opts.DryRun)

	run, runErr := p.Run(ctx, files, opts)
	if run == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	for _, r := range run.Results {
		if r.Success {
			fmt.Fprintf(out, "  ✓ %s (%d line items, %d reports)\n",
				filepath.Base(r.FilePath), r.Stats.Entries, r.Stats.ReportsBuilt)
		} else {
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(r.FilePath), r.Error)
		}
	}

	s := run.Summary
	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", s.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", s.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", s.FailedFiles)
	fmt.Fprintf(out, "Reports written: %d\n", s.ReportsWritten)
	fmt.Fprintf(out, "Time elapsed:    %s\n", s.EndTime.Sub(s.StartTime))
	if run.ErrorLogPath != "" {
		fmt.Fprintf(out, "\nErrors have been logged to %s\n", run.ErrorLogPath)
	}

	if runErr != nil {
		return runErr
	}
	if s.FailedFiles > 0 {
		return &exitError{code: 2, err: fmt.Errorf("%d of %d files failed", s.FailedFiles, s.TotalFiles)}
	}
	return nil
}
