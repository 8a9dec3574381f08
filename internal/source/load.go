package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/order-reports/internal/config"
	"github.com/ginjaninja78/order-reports/internal/orders"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("source: unsupported file format")

// Load reads every line item entry in a CSV or XLSX export and keeps the
// ones filter matches. Validation errors for the whole file are returned
// together as ValidationErrors.
func Load(path string, profile *config.SourceProfile, filter orders.Filter) ([]orders.Entry, error) {
	if profile == nil {
		profile = config.DefaultProfile()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	mapper, err := NewMapper(profile)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return loadCSV(path, profile, mapper, filter)
	case ".xlsx", ".xlsm":
		return loadXLSX(path, profile, mapper, filter)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadCSV(path string, profile *config.SourceProfile, mapper *Mapper, filter orders.Filter) ([]orders.Entry, error) {
	parser, err := OpenCSV(path, profile.CSVSettings)
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	if err := mapper.CheckHeaders(parser.Headers()); err != nil {
		return nil, err
	}

	c := collector{mapper: mapper, filter: filter}
	for parser.Next() {
		c.add(parser.Row())
	}
	if err := parser.Err(); err != nil {
		return nil, err
	}
	return c.result()
}

func loadXLSX(path string, profile *config.SourceProfile, mapper *Mapper, filter orders.Filter) ([]orders.Entry, error) {
	headers, rows, err := ReadXLSX(path, profile.Sheet, profile.CSVSettings)
	if err != nil {
		return nil, err
	}

	if err := mapper.CheckHeaders(headers); err != nil {
		return nil, err
	}

	c := collector{mapper: mapper, filter: filter}
	for _, row := range rows {
		c.add(row)
	}
	return c.result()
}

type collector struct {
	mapper  *Mapper
	filter  orders.Filter
	entries []orders.Entry
	errs    ValidationErrors
}

func (c *collector) add(row Row) {
	entry, errs := c.mapper.Map(row)
	if len(errs) > 0 {
		c.errs = append(c.errs, errs...)
		return
	}
	c.entries = append(c.entries, entry)
}

// result filters only after every row is read, since continuation rows
// take their order fields from the first row of the order.
func (c *collector) result() ([]orders.Entry, error) {
	if len(c.errs) > 0 {
		return nil, c.errs
	}
	return c.filter.Apply(orders.FillOrderFields(c.entries)), nil
}
