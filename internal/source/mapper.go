// =============================================================================
// Order Reports - Field Mapping & Validation
// =============================================================================
//
// Turns raw rows into orders.Entry values. Each source column is found
// through the profile's field mapping, cleaned by the transformer and then
// validated:
//   1. Required fields must be non-empty
//   2. Numeric fields must parse as decimals in the profile's number format
//   3. completed_at must match one of the profile's date formats
//
// Errors are collected per row rather than stopping at the first one, so a
// bad export can be fixed in one pass.
//
// =============================================================================

package source

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/order-reports/internal/config"
	"github.com/ginjaninja78/order-reports/internal/orders"
)

// ErrMissingColumns is returned when the source lacks a required column.
var ErrMissingColumns = errors.New("source: missing required columns")

// FieldError describes one invalid value.
type FieldError struct {
	// Row is the 1-based row number in the source file.
	Row     int
	Field   string
	Value   string
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d, field '%s': %s (value: '%s')", e.Row, e.Field, e.Message, e.Value)
}

// ValidationErrors collects field errors from a whole source.
type ValidationErrors []*FieldError

// Error summarises the first few errors.
func (v ValidationErrors) Error() string {
	const shown = 5
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation error(s)", len(v))
	for i, e := range v {
		if i == shown {
			fmt.Fprintf(&b, "; and %d more", len(v)-shown)
			break
		}
		b.WriteString("; ")
		b.WriteString(e.Error())
	}
	return b.String()
}

// Mapper converts raw rows to entries using a source profile.
type Mapper struct {
	profile     *config.SourceProfile
	transformer *Transformer
	numbers     numberFormat
}

// NewMapper builds a mapper for profile.
func NewMapper(profile *config.SourceProfile) (*Mapper, error) {
	transformer, err := NewTransformer(profile.TransformationRules)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profile.ProfileCode, err)
	}
	return &Mapper{
		profile:     profile,
		transformer: transformer,
		numbers:     newNumberFormat(profile.NumberFormat),
	}, nil
}

// CheckHeaders verifies that every required field has a source column.
func (m *Mapper) CheckHeaders(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.ToLower(h)] = true
	}

	var missing []string
	for _, field := range config.RequiredFields {
		header := m.profile.Header(field)
		if !present[strings.ToLower(header)] {
			missing = append(missing, header)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// Map converts one row. It returns every field error found on the row.
func (m *Mapper) Map(row Row) (orders.Entry, []*FieldError) {
	values := m.lookup(row)
	var errs []*FieldError

	fail := func(field, message string) {
		errs = append(errs, &FieldError{
			Row:     row.Number,
			Field:   field,
			Value:   values[field],
			Message: message,
		})
	}

	for _, field := range config.RequiredFields {
		if values[field] == "" {
			fail(field, "required field is empty")
		}
	}

	amounts := make(map[string]decimal.Decimal, len(config.DecimalFields))
	for _, field := range config.DecimalFields {
		raw := values[field]
		if raw == "" {
			continue
		}
		d, err := m.numbers.parse(raw)
		if err != nil {
			fail(field, "not a number")
			continue
		}
		amounts[field] = d
	}

	var completedAt time.Time
	if raw := values[config.FieldCompletedAt]; raw != "" {
		t, ok := parseDate(raw, m.profile.DateFormats)
		if !ok {
			fail(config.FieldCompletedAt, "unrecognised date format")
		}
		completedAt = t
	}

	if q, ok := amounts[config.FieldQuantity]; ok && q.IsNegative() {
		fail(config.FieldQuantity, "quantity must not be negative")
	}

	entry := orders.Entry{
		OrderNumber:      values[config.FieldOrderNumber],
		CompletedAt:      completedAt,
		State:            values[config.FieldState],
		CustomerName:     values[config.FieldCustomerName],
		CustomerEmail:    values[config.FieldCustomerEmail],
		Distributor:      values[config.FieldDistributor],
		PaymentMethod:    values[config.FieldPaymentMethod],
		PaymentTotal:     amounts[config.FieldPaymentTotal],
		ShippingTotal:    amounts[config.FieldShippingTotal],
		Supplier:         values[config.FieldSupplier],
		Product:          values[config.FieldProduct],
		Variant:          values[config.FieldVariant],
		Quantity:         amounts[config.FieldQuantity],
		Price:            amounts[config.FieldPrice],
		UnitValue:        amounts[config.FieldUnitValue],
		UnitName:         values[config.FieldUnitName],
		GroupBuyUnitSize: amounts[config.FieldGroupBuyUnitSize],
	}
	return entry, errs
}

// lookup resolves and transforms every canonical field. Header lookup is
// case-insensitive.
func (m *Mapper) lookup(row Row) map[string]string {
	byLower := make(map[string]string, len(row.Values))
	for header, value := range row.Values {
		byLower[strings.ToLower(header)] = value
	}

	values := make(map[string]string, len(config.Fields))
	for _, field := range config.Fields {
		raw := byLower[strings.ToLower(m.profile.Header(field))]
		values[field] = strings.TrimSpace(m.transformer.Transform(field, raw))
	}
	return values
}

var errNotNumber = errors.New("not a number")

// numberFormat parses numbers as they appear in spreadsheet exports:
// currency symbols and surrounding spaces are dropped, and thousands
// separators are only accepted between complete groups of three digits, so
// "12,50" is rejected under "." rather than read as 1250.
type numberFormat struct {
	mark string
	sep  string
}

func newNumberFormat(nf config.NumberFormat) numberFormat {
	nf = config.DefaultNumberFormat(nf)
	sep := nf.ThousandsSeparator
	if sep == "none" {
		sep = ""
	}
	return numberFormat{mark: nf.DecimalMark, sep: sep}
}

var currencySymbols = strings.NewReplacer("$", "", "€", "", "£", "", "\u00a0", " ", "\u202f", " ")

func (f numberFormat) parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(currencySymbols.Replace(raw))
	if f.sep != " " {
		s = strings.ReplaceAll(s, " ", "")
	}

	whole, frac, hasFrac := strings.Cut(s, f.mark)
	if f.sep != "" {
		if strings.Contains(frac, f.sep) {
			return decimal.Decimal{}, errNotNumber
		}
		if strings.Contains(whole, f.sep) {
			groups := strings.Split(whole, f.sep)
			lead := strings.TrimLeft(groups[0], "+-")
			if lead == "" || len(lead) > 3 {
				return decimal.Decimal{}, errNotNumber
			}
			for _, g := range groups[1:] {
				if len(g) != 3 {
					return decimal.Decimal{}, errNotNumber
				}
			}
			whole = strings.Join(groups, "")
		}
	}

	if hasFrac {
		s = whole + "." + frac
	} else {
		s = whole
	}
	return decimal.NewFromString(s)
}

func parseDate(raw string, formats []string) (time.Time, bool) {
	for _, layout := range formats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
