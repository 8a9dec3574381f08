// =============================================================================
// Order Reports - Grouping Engine
// =============================================================================
//
// This package turns a flat list of records into an ordered, multi-level
// report table. The caller supplies:
//   - A list of rules, outermost first. Each rule groups records into
//     buckets, orders the buckets and may add a summary row per bucket.
//   - A list of columns, evaluated once per leaf group.
//   - The records themselves.
//
// OUTPUT ORDER:
//   For every bucket of a rule, the rows produced by the remaining rules come
//   first, followed by the bucket's summary row (if the rule has one). This
//   applies recursively from the outermost rule to the innermost.
//
// The engine never inspects records directly and keeps no state between
// calls. Errors raised by extractor functions are returned as-is.
//
// =============================================================================

package grouper

import (
	"fmt"
	"reflect"
	"slices"
)

// =============================================================================
// TYPES
// =============================================================================

// Cell is a single value in a report row: a string, a number, a decimal or nil.
type Cell = any

// Column computes one cell from all records of a group.
// Columns receive single-record and multi-record groups alike.
type Column[R any] func(records []R) (Cell, error)

// Rule defines one level of the grouping hierarchy.
type Rule[R any] struct {
	// Name identifies the rule in error messages.
	Name string

	// GroupBy returns the bucket key for a record. Keys are compared by
	// value, so pointers group by identity. A nil key puts the record in
	// the ungrouped bucket.
	GroupBy func(record R) (any, error)

	// SortBy returns the value used to order buckets ascending.
	// It is never called for the ungrouped bucket.
	SortBy func(key any) (any, error)

	// Summary, when non-empty, adds one row after each bucket's rows.
	// Every summary column sees all records of the bucket.
	Summary []Column[R]
}

// Row is one line of a report table.
type Row struct {
	Cells []Cell

	// Summary marks rows produced by a rule's summary columns.
	Summary bool

	// Level is the depth of the rule that produced a summary row
	// (0 is the outermost rule). Detail rows carry the number of rules.
	Level int
}

// Table is the ordered output of BuildTable.
type Table struct {
	Rows []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Values returns the cells of every row, dropping row metadata.
func (t *Table) Values() [][]Cell {
	if t == nil {
		return nil
	}
	values := make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row.Cells
	}
	return values
}

// =============================================================================
// BUILD
// =============================================================================

// BuildTable groups records by rules and evaluates columns per leaf group.
//
// Rules are validated before any record is looked at, so a malformed rule set
// fails even when there are no records. Empty input produces an empty table.
// The first extractor error aborts the build and is returned unchanged.
func BuildTable[R any](rules []Rule[R], columns []Column[R], records []R) (*Table, error) {
	if err := validate(rules, columns); err != nil {
		return nil, err
	}

	table := &Table{}
	if len(records) == 0 {
		return table, nil
	}

	b := builder[R]{rules: rules, columns: columns}
	rows, err := b.build(0, records, nil)
	if err != nil {
		return nil, err
	}
	table.Rows = rows
	return table, nil
}

type builder[R any] struct {
	rules   []Rule[R]
	columns []Column[R]
}

// build appends the rows for records at the given rule depth.
func (b *builder[R]) build(depth int, records []R, rows []Row) ([]Row, error) {
	if depth == len(b.rules) {
		cells, err := evaluate(b.columns, records)
		if err != nil {
			return nil, err
		}
		return append(rows, Row{Cells: cells, Level: depth}), nil
	}

	rule := b.rules[depth]
	buckets, err := partition(rule, records)
	if err != nil {
		return nil, err
	}
	if err := order(rule, buckets); err != nil {
		return nil, err
	}

	for _, bk := range buckets {
		rows, err = b.build(depth+1, bk.records, rows)
		if err != nil {
			return nil, err
		}
		if len(rule.Summary) == 0 {
			continue
		}
		cells, err := evaluate(rule.Summary, bk.records)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{Cells: cells, Summary: true, Level: depth})
	}
	return rows, nil
}

func evaluate[R any](columns []Column[R], records []R) ([]Cell, error) {
	cells := make([]Cell, len(columns))
	for i, column := range columns {
		cell, err := column(records)
		if err != nil {
			return nil, err
		}
		cells[i] = cell
	}
	return cells, nil
}

// =============================================================================
// PARTITION AND ORDER
// =============================================================================

type bucket[R any] struct {
	key       any
	sortKey   any
	ungrouped bool
	records   []R
}

// partition splits records into buckets in first-occurrence order.
// The ungrouped bucket, if any, is kept last.
func partition[R any](rule Rule[R], records []R) ([]*bucket[R], error) {
	index := make(map[any]*bucket[R])
	var buckets []*bucket[R]
	var ungrouped *bucket[R]

	for _, record := range records {
		key, err := rule.GroupBy(record)
		if err != nil {
			return nil, err
		}

		if isNil(key) {
			if ungrouped == nil {
				ungrouped = &bucket[R]{ungrouped: true}
			}
			ungrouped.records = append(ungrouped.records, record)
			continue
		}

		if !reflect.ValueOf(key).Comparable() {
			return nil, fmt.Errorf("%w: rule %q returned %T", ErrUnhashableKey, rule.Name, key)
		}

		bk, ok := index[key]
		if !ok {
			bk = &bucket[R]{key: key}
			index[key] = bk
			buckets = append(buckets, bk)
		}
		bk.records = append(bk.records, record)
	}

	if ungrouped != nil {
		buckets = append(buckets, ungrouped)
	}
	return buckets, nil
}

// order sorts keyed buckets by their sort key, keeping discovery order for
// ties. The ungrouped bucket stays at the end.
func order[R any](rule Rule[R], buckets []*bucket[R]) error {
	keyed := buckets
	if n := len(buckets); n > 0 && buckets[n-1].ungrouped {
		keyed = buckets[:n-1]
	}

	for _, bk := range keyed {
		sortKey, err := rule.SortBy(bk.key)
		if err != nil {
			return err
		}
		bk.sortKey = sortKey
	}

	var cmpErr error
	slices.SortStableFunc(keyed, func(a, b *bucket[R]) int {
		if cmpErr != nil {
			return 0
		}
		c, err := Compare(a.sortKey, b.sortKey)
		if err != nil {
			cmpErr = fmt.Errorf("rule %q: %w", rule.Name, err)
			return 0
		}
		return c
	})
	return cmpErr
}

// =============================================================================
// VALIDATION
// =============================================================================

func validate[R any](rules []Rule[R], columns []Column[R]) error {
	for i, rule := range rules {
		if rule.GroupBy == nil {
			return &RuleError{Index: i, Name: rule.Name, Field: "GroupBy"}
		}
		if rule.SortBy == nil {
			return &RuleError{Index: i, Name: rule.Name, Field: "SortBy"}
		}
		for j, column := range rule.Summary {
			if column == nil {
				return &RuleError{Index: i, Name: rule.Name, Field: fmt.Sprintf("Summary[%d]", j)}
			}
		}
	}

	if len(columns) == 0 {
		return ErrNoColumns
	}
	for i, column := range columns {
		if column == nil {
			return fmt.Errorf("%w: column %d", ErrNilColumn, i)
		}
	}
	return nil
}

// isNil reports whether v is nil or a typed nil pointer, map, slice or func.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
