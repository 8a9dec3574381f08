// =============================================================================
// Order Reports - Configuration Module
// =============================================================================
//
// This module loads the main application configuration and the source
// profiles that describe how exported order files are read.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): directories, logging, output, currency,
//      server settings.
//   2. Source Profiles (profiles/*.yaml): per-export rules for matching
//      files, parsing CSV/XLSX and mapping columns to line item fields.
//
// Both are YAML, get defaults applied on load and are validated before use.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/order-reports/internal/reports"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for order exports by the run command.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives rendered reports.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives processed exports when ArchiveInputs is set.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir keeps a copy of every report written.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ProfilesDir holds the source profile YAML files.
	// Default: "./profiles"
	ProfilesDir string `yaml:"profiles_dir"`

	// DatabasePath is the SQLite order store used by import, build --db
	// and serve.
	// Default: "./data/orders.db"
	DatabasePath string `yaml:"database_path"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile, when set, also receives JSON logs.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// Reports lists the report types the run command builds for every input.
	// Default: ["supplier_totals"]
	Reports []string `yaml:"reports"`

	// OutputFormat is one of "csv", "html", "xlsx", "xml", "text".
	// Default: "csv"
	OutputFormat string `yaml:"output_format"`

	// FilenameFormat names output files. Placeholders:
	//   {report}    - Report type
	//   {source}    - Input file name without extension
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {uuid}      - A random UUID
	// The extension of the output format is appended.
	// Default: "{report}_{source}_{timestamp}"
	FilenameFormat string `yaml:"filename_format"`

	// Currency controls money formatting in display formats.
	Currency CurrencyConfig `yaml:"currency"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps processing other files after a failure.
	// Default: true (set explicitly to false to stop on the first error)
	ContinueOnError *bool `yaml:"continue_on_error"`

	// ArchiveInputs moves processed exports to InputArchiveDir.
	ArchiveInputs bool `yaml:"archive_inputs"`

	// ArchiveOutputs copies every report written to OutputArchiveDir,
	// under year/month/day subdirectories.
	ArchiveOutputs bool `yaml:"archive_outputs"`

	// ArchiveRetentionDays removes archived files older than this many days
	// at the start of each run. 0 keeps everything.
	ArchiveRetentionDays int `yaml:"archive_retention_days"`

	// =========================================================================
	// SERVER SETTINGS
	// =========================================================================

	Server ServerConfig `yaml:"server"`
}

// CurrencyConfig is the YAML form of reports.Currency.
type CurrencyConfig struct {
	Symbol string `yaml:"symbol"`

	// SymbolPosition is "before" or "after".
	SymbolPosition string `yaml:"symbol_position"`

	DecimalMark        string `yaml:"decimal_mark"`
	ThousandsSeparator string `yaml:"thousands_separator"`

	// Places defaults to 2 when unset.
	Places *int32 `yaml:"places"`

	// NoneLabel is shown for line items without a supplier or distributor.
	NoneLabel string `yaml:"none_label"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080"
	Addr string `yaml:"addr"`

	// ReadTimeout bounds reading a request. Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds building and writing a report. Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	config := &MainConfig{}
	applyMainConfigDefaults(config)
	return config
}

// LoadMainConfig loads the main configuration from a YAML file.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads configPath, falling back to defaults when the file
// does not exist and allowMissing is set.
func LoadOrDefault(configPath string, allowMissing bool) (*MainConfig, error) {
	config, err := LoadMainConfig(configPath)
	if err != nil && allowMissing && errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return config, err
}

// applyMainConfigDefaults sets default values for any unset options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.ProfilesDir == "" {
		config.ProfilesDir = "./profiles"
	}
	if config.DatabasePath == "" {
		config.DatabasePath = "./data/orders.db"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if len(config.Reports) == 0 {
		config.Reports = []string{"supplier_totals"}
	}
	if config.OutputFormat == "" {
		config.OutputFormat = "csv"
	}
	if config.FilenameFormat == "" {
		config.FilenameFormat = "{report}_{source}_{timestamp}"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.ContinueOnError == nil {
		continueOnError := true
		config.ContinueOnError = &continueOnError
	}

	if config.Currency.Symbol == "" {
		config.Currency.Symbol = "$"
	}
	if config.Currency.SymbolPosition == "" {
		config.Currency.SymbolPosition = "before"
	}
	if config.Currency.DecimalMark == "" {
		config.Currency.DecimalMark = "."
	}
	if config.Currency.ThousandsSeparator == "" {
		config.Currency.ThousandsSeparator = ","
	}
	if config.Currency.Places == nil {
		places := int32(2)
		config.Currency.Places = &places
	}
	if config.Currency.NoneLabel == "" {
		config.Currency.NoneLabel = "(none)"
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 10 * time.Second
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 60 * time.Second
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}
}

// validateMainConfig checks enumerated values and creates missing directories.
func validateMainConfig(config *MainConfig) error {
	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	switch config.Currency.SymbolPosition {
	case "before", "after":
	default:
		return fmt.Errorf("currency.symbol_position must be \"before\" or \"after\", got %q", config.Currency.SymbolPosition)
	}

	if config.ArchiveRetentionDays < 0 {
		return fmt.Errorf("archive_retention_days must not be negative, got %d", config.ArchiveRetentionDays)
	}

	if *config.Currency.Places < 0 || *config.Currency.Places > 8 {
		return fmt.Errorf("currency.places must be between 0 and 8, got %d", *config.Currency.Places)
	}

	dirs := []string{
		config.InputDir,
		config.OutputDir,
		config.ProfilesDir,
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// ShouldContinueOnError reports the effective continue_on_error value.
func (c *MainConfig) ShouldContinueOnError() bool {
	return c.ContinueOnError == nil || *c.ContinueOnError
}

// ReportSettings converts the currency section into report settings.
func (c *MainConfig) ReportSettings() reports.Settings {
	s := reports.DefaultSettings()
	s.Currency.Symbol = c.Currency.Symbol
	s.Currency.SymbolAfter = c.Currency.SymbolPosition == "after"
	s.Currency.DecimalMark = c.Currency.DecimalMark
	s.Currency.ThousandsSeparator = c.Currency.ThousandsSeparator
	if c.Currency.Places != nil {
		s.Currency.Places = *c.Currency.Places
	}
	if c.Currency.NoneLabel != "" {
		s.NoneLabel = c.Currency.NoneLabel
	}
	return s
}
