package grouper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type supplier struct {
	name string
}

type item struct {
	id       int
	supplier *supplier
	product  string
	qty      int
}

func bySupplier() Rule[item] {
	return Rule[item]{
		Name:    "supplier",
		GroupBy: Key(func(i item) any { return i.supplier }),
		SortBy:  SortOn(func(s *supplier) any { return s.name }),
	}
}

func byProduct() Rule[item] {
	return Rule[item]{
		Name:    "product",
		GroupBy: Key(func(i item) any { return i.product }),
		SortBy:  Identity,
	}
}

func sumQty(items []item) Cell {
	total := 0
	for _, i := range items {
		total += i.qty
	}
	return total
}

func ids(items []item) Cell {
	parts := make([]string, len(items))
	for n, i := range items {
		parts[n] = fmt.Sprint(i.id)
	}
	return strings.Join(parts, ",")
}

func TestBuildTable_SupplierTotals(t *testing.T) {
	s1 := &supplier{name: "S1"}
	s2 := &supplier{name: "S2"}
	records := []item{
		{id: 1, supplier: s2, qty: 1},
		{id: 2, supplier: s1, qty: 2},
		{id: 3, supplier: s1, qty: 3},
		{id: 4, supplier: s2, qty: 4},
		{id: 5, supplier: s1, qty: 5},
	}

	table, err := BuildTable([]Rule[item]{bySupplier()}, []Column[item]{Func(sumQty)}, records)
	require.NoError(t, err)

	assert.Equal(t, [][]Cell{{10}, {5}}, table.Values())
	for _, row := range table.Rows {
		assert.False(t, row.Summary)
		assert.Equal(t, 1, row.Level)
	}
}

func TestBuildTable_EmptyRecords(t *testing.T) {
	table, err := BuildTable([]Rule[item]{bySupplier()}, []Column[item]{Func(sumQty)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Values())
}

// Zero columns is rejected with ErrNoColumns, see TestBuildTable_ColumnValidation.
func TestBuildTable_NoRules(t *testing.T) {
	records := []item{{id: 1, qty: 2}, {id: 2, qty: 3}, {id: 3, qty: 4}}
	columns := []Column[item]{Func(sumQty), Func(ids), Const[item]("x")}

	table, err := BuildTable(nil, columns, records)
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	assert.Equal(t, []Cell{9, "1,2,3", "x"}, table.Rows[0].Cells)
	assert.Equal(t, 0, table.Rows[0].Level)
}

func TestBuildTable_PartitionKeepsEveryRecordOnce(t *testing.T) {
	products := []string{"apple", "pear", "plum", "apple", "kiwi", "pear", "apple"}
	records := make([]item, len(products))
	for n, p := range products {
		records[n] = item{id: n, product: p}
	}

	table, err := BuildTable([]Rule[item]{byProduct()}, []Column[item]{Func(ids)}, records)
	require.NoError(t, err)

	var seen []string
	for _, row := range table.Rows {
		seen = append(seen, strings.Split(row.Cells[0].(string), ",")...)
	}
	sort.Strings(seen)

	var want []string
	for n := range records {
		want = append(want, fmt.Sprint(n))
	}
	sort.Strings(want)
	assert.Equal(t, want, seen)
	assert.Equal(t, 4, table.Len())
}

func TestBuildTable_EqualSortKeysKeepDiscoveryOrder(t *testing.T) {
	records := []item{
		{id: 1, product: "zucchini"},
		{id: 2, product: "beet"},
		{id: 3, product: "zucchini"},
		{id: 4, product: "apple"},
	}
	rule := Rule[item]{
		Name:    "product",
		GroupBy: Key(func(i item) any { return i.product }),
		SortBy:  func(any) (any, error) { return 0, nil },
	}

	table, err := BuildTable([]Rule[item]{rule}, []Column[item]{Func(ids)}, records)
	require.NoError(t, err)
	assert.Equal(t, [][]Cell{{"1,3"}, {"2"}, {"4"}}, table.Values())
}

func TestBuildTable_SummaryRowFollowsEachBucket(t *testing.T) {
	s1 := &supplier{name: "Alpha"}
	s2 := &supplier{name: "Beta"}
	records := []item{
		{id: 1, supplier: s2, product: "b", qty: 1},
		{id: 2, supplier: s1, product: "a", qty: 2},
		{id: 3, supplier: s1, product: "b", qty: 3},
		{id: 4, supplier: s1, product: "a", qty: 4},
	}

	outer := bySupplier()
	outer.Summary = []Column[item]{Const[item]("TOTAL"), Func(sumQty)}
	columns := []Column[item]{Func(func(items []item) Cell { return items[0].product }), Func(sumQty)}

	table, err := BuildTable([]Rule[item]{outer, byProduct()}, columns, records)
	require.NoError(t, err)

	assert.Equal(t, [][]Cell{
		{"a", 6},
		{"b", 3},
		{"TOTAL", 9},
		{"b", 1},
		{"TOTAL", 1},
	}, table.Values())

	var summaries []int
	for n, row := range table.Rows {
		if row.Summary {
			summaries = append(summaries, n)
			assert.Equal(t, 0, row.Level)
		} else {
			assert.Equal(t, 2, row.Level)
		}
	}
	assert.Equal(t, []int{2, 4}, summaries)
}

func TestBuildTable_NestedRowCount(t *testing.T) {
	s1 := &supplier{name: "A"}
	s2 := &supplier{name: "B"}
	s3 := &supplier{name: "C"}
	records := []item{
		{supplier: s1, product: "x"}, {supplier: s1, product: "y"}, {supplier: s1, product: "x"},
		{supplier: s2, product: "x"},
		{supplier: s3, product: "x"}, {supplier: s3, product: "y"}, {supplier: s3, product: "z"},
	}

	outer := bySupplier()
	outer.Summary = []Column[item]{Func(sumQty)}

	table, err := BuildTable([]Rule[item]{outer, byProduct()}, []Column[item]{Func(ids)}, records)
	require.NoError(t, err)

	// (2 + 1) + (1 + 1) + (3 + 1)
	assert.Equal(t, 9, table.Len())
}

func TestBuildTable_SummaryUsesWholeBucket(t *testing.T) {
	records := []item{
		{id: 1, product: "a", qty: 1},
		{id: 2, product: "b", qty: 2},
		{id: 3, product: "a", qty: 3},
	}
	all := Rule[item]{
		Name:    "all",
		GroupBy: Key(func(item) any { return "all" }),
		SortBy:  Identity,
		Summary: []Column[item]{Func(ids)},
	}

	table, err := BuildTable([]Rule[item]{all, byProduct()}, []Column[item]{Func(ids)}, records)
	require.NoError(t, err)
	assert.Equal(t, [][]Cell{{"1,3"}, {"2"}, {"1,2,3"}}, table.Values())
}

func TestBuildTable_NilKeysFormLastBucket(t *testing.T) {
	s1 := &supplier{name: "Zed"}
	s2 := &supplier{name: "Acme"}
	records := []item{
		{id: 1, supplier: nil, qty: 7},
		{id: 2, supplier: s1, qty: 1},
		{id: 3, supplier: nil, qty: 8},
		{id: 4, supplier: s2, qty: 2},
	}

	sortCalls := 0
	rule := bySupplier()
	inner := rule.SortBy
	rule.SortBy = func(key any) (any, error) {
		sortCalls++
		return inner(key)
	}
	rule.Summary = []Column[item]{Func(ids)}

	table, err := BuildTable([]Rule[item]{rule}, []Column[item]{Func(sumQty)}, records)
	require.NoError(t, err)

	assert.Equal(t, [][]Cell{{2}, {"4"}, {1}, {"2"}, {15}, {"1,3"}}, table.Values())
	assert.Equal(t, 2, sortCalls)
}

func TestBuildTable_NilSortKeysSortLast(t *testing.T) {
	records := []item{{id: 1, product: "none"}, {id: 2, product: "b"}, {id: 3, product: "a"}}
	rule := Rule[item]{
		Name:    "product",
		GroupBy: Key(func(i item) any { return i.product }),
		SortBy: SortOn(func(p string) any {
			if p == "none" {
				return nil
			}
			return p
		}),
	}

	table, err := BuildTable([]Rule[item]{rule}, []Column[item]{Func(ids)}, records)
	require.NoError(t, err)
	assert.Equal(t, [][]Cell{{"3"}, {"2"}, {"1"}}, table.Values())
}

func TestBuildTable_ColumnErrorPropagates(t *testing.T) {
	errBoom := errors.New("boom")
	records := []item{{id: 1, product: "a"}, {id: 2, product: "b"}}
	failing := func(items []item) (Cell, error) {
		if items[0].product == "b" {
			return nil, errBoom
		}
		return "ok", nil
	}

	table, err := BuildTable([]Rule[item]{byProduct()}, []Column[item]{failing}, records)
	assert.Nil(t, table)
	assert.Equal(t, errBoom, err)
}

func TestBuildTable_ExtractorErrorsPropagate(t *testing.T) {
	errBoom := errors.New("boom")
	records := []item{{id: 1, product: "a"}}

	tests := []struct {
		name  string
		rules []Rule[item]
	}{
		{
			name: "group by",
			rules: []Rule[item]{{
				GroupBy: func(item) (any, error) { return nil, errBoom },
				SortBy:  Identity,
			}},
		},
		{
			name: "sort by",
			rules: []Rule[item]{{
				GroupBy: Key(func(i item) any { return i.product }),
				SortBy:  func(any) (any, error) { return nil, errBoom },
			}},
		},
		{
			name: "summary",
			rules: []Rule[item]{{
				GroupBy: Key(func(i item) any { return i.product }),
				SortBy:  Identity,
				Summary: []Column[item]{func([]item) (Cell, error) { return nil, errBoom }},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := BuildTable(tt.rules, []Column[item]{Func(ids)}, records)
			assert.Nil(t, table)
			assert.Equal(t, errBoom, err)
		})
	}
}

func TestBuildTable_MalformedRulesFailFast(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule[item]
		field string
	}{
		{name: "missing group by", rule: Rule[item]{Name: "x", SortBy: Identity}, field: "GroupBy"},
		{name: "missing sort by", rule: Rule[item]{Name: "x", GroupBy: Key(func(item) any { return 1 })}, field: "SortBy"},
		{
			name: "nil summary column",
			rule: Rule[item]{
				Name:    "x",
				GroupBy: Key(func(item) any { return 1 }),
				SortBy:  Identity,
				Summary: []Column[item]{nil},
			},
			field: "Summary[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No records: validation still runs.
			_, err := BuildTable([]Rule[item]{byProduct(), tt.rule}, []Column[item]{Func(ids)}, nil)
			require.ErrorIs(t, err, ErrMalformedRule)

			var ruleErr *RuleError
			require.ErrorAs(t, err, &ruleErr)
			assert.Equal(t, 1, ruleErr.Index)
			assert.Equal(t, tt.field, ruleErr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestBuildTable_ColumnValidation(t *testing.T) {
	// A table needs at least one column, so the no-rule identity row always
	// has N >= 1 cells.
	_, err := BuildTable[item](nil, nil, []item{{id: 1}})
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = BuildTable(nil, []Column[item]{Func(ids), nil}, []item{{id: 1}})
	assert.ErrorIs(t, err, ErrNilColumn)
}

func TestBuildTable_UnhashableKey(t *testing.T) {
	rule := Rule[item]{
		Name:    "tags",
		GroupBy: Key(func(i item) any { return []string{i.product} }),
		SortBy:  Identity,
	}
	_, err := BuildTable([]Rule[item]{rule}, []Column[item]{Func(ids)}, []item{{product: "a"}})
	assert.ErrorIs(t, err, ErrUnhashableKey)
}

func TestBuildTable_UnhashableKeyInsideComparableType(t *testing.T) {
	type wrapper struct{ X any }

	tests := []struct {
		name string
		key  func(item) any
	}{
		{"array of any", func(i item) any { return [1]any{[]int{i.id}} }},
		{"struct with any field", func(i item) any { return wrapper{X: []string{i.product}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := Rule[item]{Name: "wrapped", GroupBy: Key(tt.key), SortBy: Identity}

			var err error
			assert.NotPanics(t, func() {
				_, err = BuildTable([]Rule[item]{rule}, []Column[item]{Func(ids)}, []item{{id: 1, product: "a"}})
			})
			assert.ErrorIs(t, err, ErrUnhashableKey)
		})
	}
}

func TestBuildTable_IncomparableSortKeys(t *testing.T) {
	rule := Rule[item]{
		Name:    "mixed",
		GroupBy: Key(func(i item) any { return i.id }),
		SortBy: SortOn(func(id int) any {
			if id == 1 {
				return "one"
			}
			return id
		}),
	}
	records := []item{{id: 1}, {id: 2}}
	_, err := BuildTable([]Rule[item]{rule}, []Column[item]{Func(ids)}, records)
	assert.ErrorIs(t, err, ErrIncomparableSortKeys)
	assert.Contains(t, err.Error(), `"mixed"`)
}

func TestBuildTable_SingleRecordGroups(t *testing.T) {
	var sizes []int
	column := Func(func(items []item) Cell {
		sizes = append(sizes, len(items))
		return len(items)
	})
	records := []item{{product: "a"}, {product: "b"}, {product: "b"}}

	_, err := BuildTable([]Rule[item]{byProduct()}, []Column[item]{column}, records)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, sizes)
}
