package grouper

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Ordered is implemented by sort keys that define their own ordering.
type Ordered interface {
	Compare(other any) (int, error)
}

// Compare orders two sort keys. Nil sorts after every other value.
//
// Supported keys: strings, booleans, integer and float kinds, time.Time,
// decimal.Decimal, Ordered values and []any tuples (compared element by
// element, shorter tuples first on a common prefix).
func Compare(a, b any) (int, error) {
	an, bn := isNil(a), isNil(b)
	switch {
	case an && bn:
		return 0, nil
	case an:
		return 1, nil
	case bn:
		return -1, nil
	}

	if _, ok := a.(Ordered); !ok {
		if bv, ok := b.(Ordered); ok {
			c, err := bv.Compare(a)
			return -c, err
		}
	}

	switch av := a.(type) {
	case Ordered:
		return av.Compare(b)
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), nil
		}
		return 0, incomparable(a, b)
	case []any:
		bv, ok := b.([]any)
		if !ok {
			return 0, incomparable(a, b)
		}
		return compareTuples(av, bv)
	}

	if ad, ok := toDecimal(a); ok {
		if bd, ok := toDecimal(b); ok {
			return ad.Cmp(bd), nil
		}
		return 0, incomparable(a, b)
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case ra.Kind() == reflect.String && rb.Kind() == reflect.String:
		return strings.Compare(ra.String(), rb.String()), nil
	case ra.Kind() == reflect.Bool && rb.Kind() == reflect.Bool:
		return compareBools(ra.Bool(), rb.Bool()), nil
	}
	return 0, incomparable(a, b)
}

func compareTuples(a, b []any) (int, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		c, err := Compare(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	switch {
	case len(a) < len(b):
		return -1, nil
	case len(a) > len(b):
		return 1, nil
	}
	return 0, nil
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// toDecimal converts numeric values to a decimal so that ints, floats and
// decimals compare exactly against one another.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case *big.Int:
		return decimal.NewFromBigInt(n, 0), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(f), true
	}
	return decimal.Decimal{}, false
}

func incomparable(a, b any) error {
	return fmt.Errorf("%w: %T and %T", ErrIncomparableSortKeys, a, b)
}
