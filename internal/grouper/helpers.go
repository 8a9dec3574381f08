package grouper

import "fmt"

// Key adapts an infallible key function for Rule.GroupBy.
func Key[R any](f func(R) any) func(R) (any, error) {
	return func(record R) (any, error) {
		return f(record), nil
	}
}

// Identity sorts buckets by their group key.
func Identity(key any) (any, error) {
	return key, nil
}

// SortOn adapts a typed sort function for Rule.SortBy.
// The key must have the type K the GroupBy function returned.
func SortOn[K any](f func(K) any) func(any) (any, error) {
	return func(key any) (any, error) {
		k, ok := key.(K)
		if !ok {
			var zero K
			return nil, fmt.Errorf("grouper: sort key %T is not %T", key, zero)
		}
		return f(k), nil
	}
}

// Func adapts an infallible column function.
func Func[R any](f func(records []R) Cell) Column[R] {
	return func(records []R) (Cell, error) {
		return f(records), nil
	}
}

// Const returns a column that always yields the same cell.
func Const[R any](cell Cell) Column[R] {
	return func([]R) (Cell, error) {
		return cell, nil
	}
}

// First returns a column that evaluates f on the first record of the group.
// Useful for label columns where every record of the group shares the value.
func First[R any](f func(R) Cell) Column[R] {
	return func(records []R) (Cell, error) {
		if len(records) == 0 {
			return nil, nil
		}
		return f(records[0]), nil
	}
}
