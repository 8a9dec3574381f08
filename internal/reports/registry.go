// =============================================================================
// Order Reports - Report Catalogue
// =============================================================================
//
// Each report type is a Definition: a header row plus a function that builds
// the grouped table from an assembled order set. The Registry maps report
// identifiers to definitions so callers never branch on report names.
//
// =============================================================================

package reports

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ginjaninja78/order-reports/internal/grouper"
	"github.com/ginjaninja78/order-reports/internal/orders"
)

var (
	// ErrUnknownReport is returned by Lookup for unregistered names.
	ErrUnknownReport = errors.New("reports: unknown report")

	// ErrDuplicateReport is returned when a name is registered twice.
	ErrDuplicateReport = errors.New("reports: duplicate report")

	// ErrRowWidth is returned when a row does not match the header width.
	ErrRowWidth = errors.New("reports: row width does not match header")
)

// Report categories.
const (
	CategoryOrders   = "orders_and_fulfillment"
	CategoryBulkCoop = "bulk_coop"
	CategoryPayments = "payments"
)

// Definition describes one report type.
type Definition struct {
	Name     string
	Title    string
	Category string
	Header   []string
	Build    func(s Settings, set *orders.Set) (*grouper.Table, error)
}

// Report is a built report, ready for rendering.
type Report struct {
	Definition *Definition
	Header     []string
	Table      *grouper.Table
}

// Registry maps report names to definitions.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry returns a registry holding defs.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Definition)}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Default returns a registry with every built-in report.
func Default() *Registry {
	r, err := NewRegistry(builtins()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a definition.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" || def.Build == nil {
		return fmt.Errorf("reports: definition needs a name and a build function")
	}
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateReport, def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReport, name)
	}
	return def, nil
}

// Names returns the registered names in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns all definitions ordered by category, then name.
func (r *Registry) Definitions() []*Definition {
	defs := make([]*Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Category != defs[j].Category {
			return defs[i].Category < defs[j].Category
		}
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// Categories returns the distinct categories in use, sorted.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	var categories []string
	for _, def := range r.defs {
		if !seen[def.Category] {
			seen[def.Category] = true
			categories = append(categories, def.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

// Run builds the named report over set.
func (r *Registry) Run(name string, s Settings, set *orders.Set) (*Report, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return def.Run(s, set)
}

// Run builds the report and checks every row against the header width.
func (d *Definition) Run(s Settings, set *orders.Set) (*Report, error) {
	table, err := d.Build(s, set)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	for i, row := range table.Rows {
		if len(row.Cells) != len(d.Header) {
			return nil, fmt.Errorf("%s: %w: row %d has %d cells, header has %d",
				d.Name, ErrRowWidth, i+1, len(row.Cells), len(d.Header))
		}
	}
	return &Report{Definition: d, Header: d.Header, Table: table}, nil
}

func builtins() []*Definition {
	return []*Definition{
		supplierTotals(),
		supplierTotalsByDistributor(),
		distributorTotalsBySupplier(),
		customerTotals(),
		bulkCoopSupplierReport(),
		bulkCoopAllocation(),
		paymentsByPaymentType(),
		paymentTotals(),
	}
}
