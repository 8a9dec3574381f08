package grouper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status string

type reversed int

func (r reversed) Compare(other any) (int, error) {
	o, ok := other.(reversed)
	if !ok {
		return 0, ErrIncomparableSortKeys
	}
	switch {
	case r > o:
		return -1, nil
	case r < o:
		return 1, nil
	}
	return 0, nil
}

// threshold compares against plain ints.
type threshold struct{ n int }

func (th threshold) Compare(other any) (int, error) {
	o, ok := other.(int)
	if !ok {
		return 0, ErrIncomparableSortKeys
	}
	switch {
	case th.n < o:
		return -1, nil
	case th.n > o:
		return 1, nil
	}
	return 0, nil
}

func TestCompare(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var nilSupplier *supplier

	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"strings", "apple", "banana", -1},
		{"named strings", status("complete"), status("cart"), 1},
		{"equal strings", "x", "x", 0},
		{"ints", 3, 10, -1},
		{"int and float", 2, 2.5, -1},
		{"uint and int", uint8(7), int64(7), 0},
		{"decimals", decimal.RequireFromString("1.10"), decimal.RequireFromString("1.1"), 0},
		{"decimal and int", decimal.RequireFromString("2.01"), 2, 1},
		{"bools", false, true, -1},
		{"times", day, day.Add(time.Hour), -1},
		{"tuples", []any{"a", 2}, []any{"a", 1}, 1},
		{"tuple prefix", []any{"a"}, []any{"a", 1}, -1},
		{"ordered", reversed(1), reversed(2), 1},
		{"ordered left", threshold{n: 3}, 5, -1},
		{"ordered right", 5, threshold{n: 3}, 1},
		{"ordered right equal", 3, threshold{n: 3}, 0},
		{"nil last", nil, "a", 1},
		{"typed nil last", "a", nilSupplier, -1},
		{"both nil", nil, nilSupplier, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare_Incomparable(t *testing.T) {
	tests := []struct {
		name string
		a, b any
	}{
		{"string and int", "a", 1},
		{"time and string", time.Now(), "now"},
		{"tuple and string", []any{"a"}, "a"},
		{"decimal and string", decimal.NewFromInt(1), "1"},
		{"structs", supplier{name: "a"}, supplier{name: "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compare(tt.a, tt.b)
			assert.ErrorIs(t, err, ErrIncomparableSortKeys)
		})
	}
}
