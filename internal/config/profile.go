package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CANONICAL FIELDS
// =============================================================================
// Every source maps its own column headers onto these line item fields.

const (
	FieldOrderNumber      = "order_number"
	FieldCompletedAt      = "completed_at"
	FieldState            = "state"
	FieldCustomerName     = "customer_name"
	FieldCustomerEmail    = "customer_email"
	FieldDistributor      = "distributor"
	FieldPaymentMethod    = "payment_method"
	FieldPaymentTotal     = "payment_total"
	FieldShippingTotal    = "shipping_total"
	FieldSupplier         = "supplier"
	FieldProduct          = "product"
	FieldVariant          = "variant"
	FieldQuantity         = "quantity"
	FieldPrice            = "price"
	FieldUnitValue        = "unit_value"
	FieldUnitName         = "unit_name"
	FieldGroupBuyUnitSize = "group_buy_unit_size"
)

// Fields lists every canonical field.
var Fields = []string{
	FieldOrderNumber, FieldCompletedAt, FieldState, FieldCustomerName, FieldCustomerEmail,
	FieldDistributor, FieldPaymentMethod, FieldPaymentTotal, FieldShippingTotal,
	FieldSupplier, FieldProduct, FieldVariant, FieldQuantity, FieldPrice,
	FieldUnitValue, FieldUnitName, FieldGroupBuyUnitSize,
}

// RequiredFields must have a non-empty value on every row.
var RequiredFields = []string{FieldOrderNumber, FieldProduct, FieldQuantity, FieldPrice}

// DecimalFields must parse as numbers when present.
var DecimalFields = []string{
	FieldPaymentTotal, FieldShippingTotal, FieldQuantity, FieldPrice,
	FieldUnitValue, FieldGroupBuyUnitSize,
}

// =============================================================================
// SOURCE PROFILE STRUCTURE
// =============================================================================

// SourceProfile describes one kind of order export.
type SourceProfile struct {
	// ProfileName is the human-readable name used in logs.
	ProfileName string `yaml:"profile_name"`

	// ProfileCode is a short identifier. It keys the profile map.
	ProfileCode string `yaml:"profile_code"`

	// FileMatchingPatterns are glob patterns matched against file names.
	// Examples: "orders_*.csv", "*_line_items.xlsx"
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// CSVSettings applies to .csv inputs.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// Sheet is the XLSX sheet to read. Default: the first sheet.
	Sheet string `yaml:"sheet"`

	// FieldMapping maps canonical fields to source column headers.
	// Unmapped fields are looked up under their canonical name.
	FieldMapping map[string]string `yaml:"field_mapping"`

	// DateFormats are tried in order when parsing completed_at.
	// Default: RFC 3339, "2006-01-02 15:04:05", "2006-01-02"
	DateFormats []string `yaml:"date_formats"`

	// TransformationRules clean raw values before they are mapped.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`

	// NumberFormat describes how quantities and amounts are written.
	NumberFormat NumberFormat `yaml:"number_format"`
}

// NumberFormat describes the decimal mark and digit grouping of an export.
type NumberFormat struct {
	// DecimalMark is "." or ",".
	// Default: "."
	DecimalMark string `yaml:"decimal_mark"`

	// ThousandsSeparator groups integer digits in threes: ",", ".", " ",
	// "'" or "none" to reject grouped numbers.
	// Default: "," when the decimal mark is ".", otherwise "."
	ThousandsSeparator string `yaml:"thousands_separator"`
}

// DefaultNumberFormat fills the unset parts of nf.
func DefaultNumberFormat(nf NumberFormat) NumberFormat {
	if nf.DecimalMark == "" {
		nf.DecimalMark = "."
	}
	if nf.ThousandsSeparator == "" {
		if nf.DecimalMark == "," {
			nf.ThousandsSeparator = "."
		} else {
			nf.ThousandsSeparator = ","
		}
	}
	return nf
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter separates fields: ",", "|", "tab", ";".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Multi-row headers are joined
	// with a space per column.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-based row where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`
}

// TransformationRule defines transformations for one source column.
type TransformationRule struct {
	// Field is the canonical field name the rule applies to.
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation.
type TransformationAction struct {
	// Type is one of:
	//   - "trim", "uppercase", "lowercase", "title"
	//   - "prepend_string", "append_string" : Value is the text
	//   - "replace"                         : Find is replaced by Value
	//   - "lookup"                          : LookupTable maps values
	//   - "default"                         : Value replaces empty input
	Type string `yaml:"type"`

	Value string `yaml:"value"`

	Find string `yaml:"find,omitempty"`

	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// Header returns the source column header for a canonical field.
func (p *SourceProfile) Header(field string) string {
	if header, ok := p.FieldMapping[field]; ok && header != "" {
		return header
	}
	return field
}

// =============================================================================
// PROFILE LOADING
// =============================================================================

// LoadProfiles loads every *.yaml and *.yml profile in profilesDir, keyed by
// profile code (or file name when no code is set).
func LoadProfiles(profilesDir string) (map[string]*SourceProfile, error) {
	profiles := make(map[string]*SourceProfile)

	files, err := filepath.Glob(filepath.Join(profilesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(profilesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		profile, err := LoadProfile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		key := profile.ProfileCode
		if key == "" {
			key = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			profile.ProfileCode = key
		}
		if _, exists := profiles[key]; exists {
			return nil, fmt.Errorf("duplicate profile code %q in %s", key, file)
		}

		profiles[key] = profile
	}

	return profiles, nil
}

// LoadProfile loads a single profile file.
func LoadProfile(filePath string) (*SourceProfile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile SourceProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	ApplyProfileDefaults(&profile)

	if err := validateProfile(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

// DefaultProfile reads files whose headers are the canonical field names.
func DefaultProfile() *SourceProfile {
	profile := &SourceProfile{
		ProfileName:          "Default",
		ProfileCode:          "default",
		FileMatchingPatterns: []string{"*.csv", "*.xlsx"},
	}
	ApplyProfileDefaults(profile)
	return profile
}

// ApplyProfileDefaults sets default values for a profile.
func ApplyProfileDefaults(profile *SourceProfile) {
	if profile.CSVSettings.Delimiter == "" {
		profile.CSVSettings.Delimiter = ","
	}
	if profile.CSVSettings.HeaderRows == 0 {
		profile.CSVSettings.HeaderRows = 1
	}
	if profile.CSVSettings.DataStartRow == 0 {
		profile.CSVSettings.DataStartRow = profile.CSVSettings.HeaderRows + 1
	}
	if len(profile.DateFormats) == 0 {
		profile.DateFormats = []string{
			"2006-01-02T15:04:05Z07:00",
			"2006-01-02 15:04:05",
			"2006-01-02",
		}
	}
	if profile.FieldMapping == nil {
		profile.FieldMapping = make(map[string]string)
	}
	profile.NumberFormat = DefaultNumberFormat(profile.NumberFormat)
}

func validateProfile(profile *SourceProfile) error {
	known := make(map[string]bool, len(Fields))
	for _, f := range Fields {
		known[f] = true
	}

	var unknown []string
	for field := range profile.FieldMapping {
		if !known[field] {
			unknown = append(unknown, field)
		}
	}
	for _, rule := range profile.TransformationRules {
		if !known[rule.Field] {
			unknown = append(unknown, rule.Field)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown field(s) in profile: %s", strings.Join(unknown, ", "))
	}

	if profile.CSVSettings.DataStartRow <= profile.CSVSettings.HeaderRows {
		return fmt.Errorf("data_start_row (%d) must come after the header rows (%d)",
			profile.CSVSettings.DataStartRow, profile.CSVSettings.HeaderRows)
	}

	nf := profile.NumberFormat
	switch nf.DecimalMark {
	case ".", ",":
	default:
		return fmt.Errorf("number_format.decimal_mark must be \".\" or \",\", got %q", nf.DecimalMark)
	}
	switch nf.ThousandsSeparator {
	case ",", ".", " ", "'", "none":
	default:
		return fmt.Errorf("number_format.thousands_separator %q is not supported", nf.ThousandsSeparator)
	}
	if nf.ThousandsSeparator == nf.DecimalMark {
		return fmt.Errorf("number_format.thousands_separator must differ from the decimal mark %q", nf.DecimalMark)
	}

	for _, pattern := range profile.FileMatchingPatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
	}

	return nil
}

// MatchProfile returns the profile whose patterns match the file name.
// Profiles are tried in code order so matching is deterministic.
func MatchProfile(filePath string, profiles map[string]*SourceProfile) *SourceProfile {
	fileName := filepath.Base(filePath)

	codes := make([]string, 0, len(profiles))
	for code := range profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		profile := profiles[code]
		for _, pattern := range profile.FileMatchingPatterns {
			matched, err := filepath.Match(pattern, fileName)
			if err != nil {
				continue
			}
			if matched {
				return profile
			}
		}
	}

	return nil
}
