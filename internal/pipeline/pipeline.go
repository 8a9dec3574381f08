// =============================================================================
// Order Reports - Batch Pipeline
// =============================================================================
//
// The pipeline runs every configured report over every export in the input
// directory:
//   1. Match the file to a source profile
//   2. Load and validate its line items
//   3. Assemble orders and build each report
//   4. Render and write one output file per report
//   5. Archive the export and outputs when configured
//
// Files are processed concurrently up to max_concurrency. A failure in one
// file does not affect the others unless continue_on_error is false, in
// which case files not yet started are skipped.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/order-reports/internal/config"
	"github.com/ginjaninja78/order-reports/internal/orders"
	"github.com/ginjaninja78/order-reports/internal/render"
	"github.com/ginjaninja78/order-reports/internal/reports"
	"github.com/ginjaninja78/order-reports/internal/source"
	"github.com/ginjaninja78/order-reports/pkg/utils"
)

// ErrNoProfile is returned for files no source profile matches.
var ErrNoProfile = errors.New("no matching source profile")

// =============================================================================
// RESULT TYPES
// =============================================================================

// Result is the outcome of processing one export.
type Result struct {
	FilePath string

	// Profile is the code of the source profile used.
	Profile string

	OutputFiles []string

	// ArchivePath is where the export was moved, if archiving is on.
	ArchivePath string

	Success bool
	Error   error

	// ValidationErrors lists rejected values when loading failed validation.
	ValidationErrors source.ValidationErrors

	Stats ProcessingStats
}

// ProcessingStats contains statistics about one file.
type ProcessingStats struct {
	Entries        int
	Orders         int
	ReportsBuilt   int
	ProcessingTime time.Duration
}

// RunResult is the outcome of a batch run.
type RunResult struct {
	Results []Result
	Summary utils.RunSummary

	// SummaryPath and ErrorLogPath are empty on dry runs.
	SummaryPath  string
	ErrorLogPath string
}

// Options selects what a run produces.
type Options struct {
	// Reports overrides the configured report list.
	Reports []string

	// Format overrides the configured output format.
	Format render.Format

	// Profile forces a source profile code instead of pattern matching.
	Profile string

	Filter orders.Filter

	// DryRun builds and renders everything but writes and moves nothing.
	DryRun bool
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline processes order exports into report files.
type Pipeline struct {
	cfg      *config.MainConfig
	profiles map[string]*config.SourceProfile
	registry *reports.Registry
	files    *utils.FileManager
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a pipeline. A nil registry means reports.Default().
func New(cfg *config.MainConfig, profiles map[string]*config.SourceProfile, registry *reports.Registry, logger *slog.Logger) *Pipeline {
	if registry == nil {
		registry = reports.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:      cfg,
		profiles: profiles,
		registry: registry,
		files:    utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir),
		logger:   logger,
		now:      time.Now,
	}
}

// Discover lists the exports in the input directory matched by any profile
// pattern.
func (p *Pipeline) Discover() ([]string, error) {
	var patterns []string
	for _, profile := range p.profiles {
		patterns = append(patterns, profile.FileMatchingPatterns...)
	}
	return p.files.DiscoverInputFiles(patterns...)
}

// Run processes files concurrently and writes the run summary and error log.
func (p *Pipeline) Run(ctx context.Context, files []string, opts Options) (*RunResult, error) {
	opts, err := p.resolve(opts)
	if err != nil {
		return nil, err
	}

	start := p.now()

	if !opts.DryRun {
		if err := p.files.EnsureDirectories(); err != nil {
			return nil, err
		}
		p.cleanArchives()
	}

	results := make([]Result, len(files))
	continueOnError := p.cfg.ShouldContinueOnError()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrency)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{FilePath: file, Error: fmt.Errorf("skipped: %w", err)}
				return nil
			}

			results[i] = p.Process(gctx, file, opts)
			if !results[i].Success && !continueOnError {
				return fmt.Errorf("%s: %w", filepath.Base(file), results[i].Error)
			}
			return nil
		})
	}

	runErr := g.Wait()

	run := &RunResult{Results: results, Summary: p.summarize(start, results)}

	if !opts.DryRun && len(files) > 0 {
		if run.ErrorLogPath, err = utils.WriteErrorLog(errorLogEntries(results, run.Summary.EndTime), p.cfg.OutputDir, run.Summary.EndTime); err != nil {
			p.logger.Warn("failed to write error log", "error", err)
		}
		if run.SummaryPath, err = utils.WriteSummaryLog(run.Summary, p.cfg.OutputDir); err != nil {
			p.logger.Warn("failed to write summary", "error", err)
		}
	}

	if runErr == nil {
		runErr = ctx.Err()
	}
	return run, runErr
}

// Process handles a single export.
func (p *Pipeline) Process(ctx context.Context, filePath string, opts Options) Result {
	start := p.now()
	result := Result{FilePath: filePath}
	logger := p.logger.With("file", filepath.Base(filePath))

	profile, err := p.profileFor(filePath, opts.Profile)
	if err != nil {
		result.Error = err
		logger.Error("file failed", "error", err)
		return result
	}
	result.Profile = profile.ProfileCode
	logger = logger.With("profile", profile.ProfileCode)
	logger.Info("processing file")

	entries, err := source.Load(filePath, profile, opts.Filter)
	if err != nil {
		var verrs source.ValidationErrors
		if errors.As(err, &verrs) {
			result.ValidationErrors = verrs
			for _, fe := range verrs {
				logger.Warn("validation error", "row", fe.Row, "field", fe.Field, "value", fe.Value, "message", fe.Message)
			}
		}
		result.Error = fmt.Errorf("failed to load: %w", err)
		logger.Error("file failed", "error", result.Error)
		return result
	}
	result.Stats.Entries = len(entries)

	set, err := orders.Assemble(entries)
	if err != nil {
		result.Error = fmt.Errorf("failed to assemble orders: %w", err)
		logger.Error("file failed", "error", result.Error)
		return result
	}
	result.Stats.Orders = len(set.Orders)
	logger.Debug("loaded entries", "entries", len(entries), "orders", len(set.Orders))

	settings := p.cfg.ReportSettings()
	settings.RawAmounts = render.MachineReadable(opts.Format)
	sourceName := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	for _, name := range opts.Reports {
		if err := ctx.Err(); err != nil {
			result.Error = err
			return result
		}

		report, err := p.registry.Run(name, settings, set)
		if err != nil {
			result.Error = fmt.Errorf("failed to build report: %w", err)
			logger.Error("file failed", "report", name, "error", result.Error)
			return result
		}

		outputPath, err := p.write(report, opts, sourceName)
		if err != nil {
			result.Error = fmt.Errorf("failed to write %s: %w", name, err)
			logger.Error("file failed", "report", name, "error", result.Error)
			return result
		}

		result.Stats.ReportsBuilt++
		if outputPath != "" {
			result.OutputFiles = append(result.OutputFiles, outputPath)
			logger.Info("wrote report", "report", name, "rows", report.Table.Len(), "output", outputPath)
		}
	}

	if !opts.DryRun {
		p.archive(logger, &result)
	}

	result.Success = true
	result.Stats.ProcessingTime = p.now().Sub(start)
	return result
}

// resolve fills unset options from the configuration and checks them.
func (p *Pipeline) resolve(opts Options) (Options, error) {
	if len(opts.Reports) == 0 {
		opts.Reports = p.cfg.Reports
	}
	for _, name := range opts.Reports {
		if _, err := p.registry.Lookup(name); err != nil {
			return opts, err
		}
	}

	if opts.Format == "" {
		f, err := render.ParseFormat(p.cfg.OutputFormat)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}

	if opts.Profile != "" {
		if _, ok := p.profiles[opts.Profile]; !ok {
			return opts, fmt.Errorf("unknown profile %q", opts.Profile)
		}
	}

	return opts, opts.Filter.Validate()
}

// profileFor picks the forced profile, else the first matching one. With
// no profiles configured at all, files are read with canonical headers.
func (p *Pipeline) profileFor(filePath, code string) (*config.SourceProfile, error) {
	if code != "" {
		if profile, ok := p.profiles[code]; ok {
			return profile, nil
		}
		return nil, fmt.Errorf("unknown profile %q", code)
	}
	if len(p.profiles) == 0 {
		return config.DefaultProfile(), nil
	}
	if profile := config.MatchProfile(filePath, p.profiles); profile != nil {
		return profile, nil
	}
	return nil, ErrNoProfile
}

func (p *Pipeline) write(report *reports.Report, opts Options, sourceName string) (string, error) {
	if opts.DryRun {
		return "", render.Render(io.Discard, opts.Format, report)
	}

	fileName := utils.OutputFileName(p.cfg.FilenameFormat, p.now(),
		map[string]string{"report": report.Definition.Name, "source": sourceName},
		render.Extension(opts.Format))
	outputPath := filepath.Join(p.cfg.OutputDir, fileName)

	err := utils.WriteAtomic(outputPath, func(w io.Writer) error {
		return render.Render(w, opts.Format, report)
	})
	if err != nil {
		return "", err
	}
	return outputPath, nil
}

func (p *Pipeline) archive(logger *slog.Logger, result *Result) {
	if p.cfg.ArchiveOutputs {
		for _, out := range result.OutputFiles {
			if _, err := p.files.ArchiveOutputFile(out); err != nil {
				logger.Warn("failed to archive output", "output", out, "error", err)
			}
		}
	}
	if p.cfg.ArchiveInputs {
		archived, err := p.files.ArchiveInputFile(result.FilePath)
		if err != nil {
			logger.Warn("failed to archive input", "error", err)
			return
		}
		result.ArchivePath = archived
	}
}

func (p *Pipeline) cleanArchives() {
	if p.cfg.ArchiveRetentionDays <= 0 {
		return
	}
	maxAge := time.Duration(p.cfg.ArchiveRetentionDays) * 24 * time.Hour
	for _, dir := range []string{p.cfg.InputArchiveDir, p.cfg.OutputArchiveDir} {
		removed, err := utils.CleanOldArchives(dir, maxAge, p.now())
		if err != nil {
			p.logger.Warn("failed to clean archive", "dir", dir, "error", err)
			continue
		}
		if removed > 0 {
			p.logger.Info("cleaned archive", "dir", dir, "removed", removed)
		}
	}
}

func (p *Pipeline) summarize(start time.Time, results []Result) utils.RunSummary {
	summary := utils.RunSummary{
		StartTime:  start,
		EndTime:    p.now(),
		TotalFiles: len(results),
	}
	for _, r := range results {
		if !r.Success {
			summary.FailedFiles++
			msg := ""
			if r.Error != nil {
				msg = r.Error.Error()
			}
			summary.Failed = append(summary.Failed, utils.FailedFileInfo{InputFile: r.FilePath, ErrorMessage: msg})
			continue
		}
		summary.SuccessfulFiles++
		summary.TotalEntries += r.Stats.Entries
		summary.TotalOrders += r.Stats.Orders
		summary.ReportsWritten += len(r.OutputFiles)
		summary.Processed = append(summary.Processed, utils.ProcessedFileInfo{
			InputFile:   r.FilePath,
			OutputFiles: r.OutputFiles,
			ArchivePath: r.ArchivePath,
			Entries:     r.Stats.Entries,
			Orders:      r.Stats.Orders,
			ProcessTime: r.Stats.ProcessingTime,
		})
	}
	return summary
}

func errorLogEntries(results []Result, now time.Time) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	for _, r := range results {
		if r.Success {
			continue
		}
		name := filepath.Base(r.FilePath)
		if len(r.ValidationErrors) == 0 {
			msg := "unknown error"
			if r.Error != nil {
				msg = r.Error.Error()
			}
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp: now, FileName: name, ErrorType: "processing", ErrorMessage: msg,
			})
			continue
		}
		for _, fe := range r.ValidationErrors {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    now,
				FileName:     name,
				ErrorType:    "validation",
				ErrorMessage: fe.Message,
				RowNumber:    fe.Row,
				FieldName:    fe.Field,
				FieldValue:   fe.Value,
			})
		}
	}
	return entries
}

// Build assembles entries and runs one report. The HTTP service and the
// build command share it.
func Build(registry *reports.Registry, name string, settings reports.Settings, entries []orders.Entry) (*reports.Report, error) {
	def, err := registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	set, err := orders.Assemble(entries)
	if err != nil {
		return nil, err
	}
	return def.Run(settings, set)
}
