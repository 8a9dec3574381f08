package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/order-reports/internal/orders"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func fixtureEntries() []orders.Entry {
	return []orders.Entry{
		{
			OrderNumber: "R1", CompletedAt: day(1), State: "complete",
			CustomerName: "Ann", CustomerEmail: "ann@example.com",
			Distributor: "Hub North", PaymentMethod: "Cash",
			PaymentTotal: decimal.RequireFromString("10.25"), ShippingTotal: decimal.RequireFromString("2.5"),
			Supplier: "Green Farm", Product: "Apples", Variant: "1kg",
			Quantity: decimal.NewFromInt(2), Price: decimal.RequireFromString("3.50"),
			UnitValue: decimal.NewFromInt(1000), UnitName: "g", GroupBuyUnitSize: decimal.NewFromInt(10),
		},
		{
			OrderNumber: "R2", CompletedAt: day(5), State: "complete",
			Distributor: "Hub South", Supplier: "Dairy Co", Product: "Milk",
			Quantity: decimal.NewFromInt(1), Price: decimal.RequireFromString("1.20"),
		},
		{
			OrderNumber: "R3", State: "cart",
			Distributor: "hub north ", Supplier: "Green Farm", Product: "Pears",
			Quantity: decimal.NewFromInt(3), Price: decimal.NewFromInt(2),
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "nested", "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.ImportEntries(ctx, "batch-1", fixtureEntries())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	t.Run("round trip", func(t *testing.T) {
		got, err := s.QueryEntries(ctx, orders.Filter{})
		require.NoError(t, err)
		if diff := cmp.Diff(fixtureEntries(), got, decimalEqual); diff != "" {
			t.Errorf("entries mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("filter by distributor ignores case and spaces", func(t *testing.T) {
		got, err := s.QueryEntries(ctx, orders.Filter{Distributors: []string{"HUB NORTH"}})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "R1", got[0].OrderNumber)
		assert.Equal(t, "R3", got[1].OrderNumber)
	})

	t.Run("filter by date excludes undated entries", func(t *testing.T) {
		got, err := s.QueryEntries(ctx, orders.Filter{From: day(2), To: day(31)})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "R2", got[0].OrderNumber)
	})

	filters := map[string]orders.Filter{
		"supplier and state": {Suppliers: []string{"green farm"}, States: []string{"complete"}},
		"to only":            {To: day(2)},
		"from only":          {From: day(2)},
		"range":              {From: day(1), To: day(5)},
		"far future to":      {To: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for name, filter := range filters {
		t.Run("matches in-memory filter/"+name, func(t *testing.T) {
			got, err := s.QueryEntries(ctx, filter)
			require.NoError(t, err)
			want := filter.Apply(fixtureEntries())
			if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
				t.Errorf("filter mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("invalid date range", func(t *testing.T) {
		_, err := s.QueryEntries(ctx, orders.Filter{From: day(5), To: day(1)})
		assert.ErrorIs(t, err, orders.ErrInvalidDateRange)
	})
}

func TestStore_ContinuationRowsTakeOrderFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := []orders.Entry{
		{OrderNumber: "R9", CompletedAt: day(3), State: "complete", Distributor: "Hub North",
			Supplier: "Green Farm", Product: "Apples", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(2)},
		{OrderNumber: "R9", Supplier: "Dairy Co", Product: "Milk",
			Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(1)},
	}
	_, err := s.ImportEntries(ctx, "", entries)
	require.NoError(t, err)

	filter := orders.Filter{Distributors: []string{"hub north"}, From: day(1), To: day(5)}
	got, err := s.QueryEntries(ctx, filter)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Milk", got[1].Product)
	assert.True(t, day(3).Equal(got[1].CompletedAt))

	want := filter.Apply(orders.FillOrderFields(entries))
	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_Batches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	clock := day(1)
	s.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}

	_, err := s.ImportEntries(ctx, "first", fixtureEntries()[:1])
	require.NoError(t, err)
	_, err = s.ImportEntries(ctx, "", fixtureEntries()[1:])
	require.NoError(t, err)

	_, err = s.ImportEntries(ctx, "first", fixtureEntries())
	assert.Error(t, err, "batch ids are unique")

	batches, err := s.Batches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.NotEmpty(t, batches[0].ID)
	assert.Equal(t, 2, batches[0].Entries)
	assert.Equal(t, "first", batches[1].ID)
	assert.Equal(t, day(1).Add(time.Hour), batches[1].ImportedAt)

	require.NoError(t, s.DeleteBatch(ctx, "first"))
	entries, err := s.QueryEntries(ctx, orders.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2, "entries of the deleted batch are gone")

	assert.ErrorIs(t, s.DeleteBatch(ctx, "first"), ErrBatchNotFound)
}
