package grouper

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRule is wrapped by every RuleError.
	ErrMalformedRule = errors.New("grouper: malformed rule")

	// ErrNoColumns is returned when a table is built without columns.
	ErrNoColumns = errors.New("grouper: no columns")

	// ErrNilColumn is returned when a column function is nil.
	ErrNilColumn = errors.New("grouper: nil column")

	// ErrUnhashableKey is returned when GroupBy yields a key that cannot be
	// compared for equality.
	ErrUnhashableKey = errors.New("grouper: group key is not comparable")

	// ErrIncomparableSortKeys is returned when two sort keys have no ordering.
	ErrIncomparableSortKeys = errors.New("grouper: sort keys are not comparable")
)

// RuleError identifies a rule that is missing a required function.
type RuleError struct {
	Index int
	Name  string
	Field string
}

func (e *RuleError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("grouper: rule %d (%s) is missing %s", e.Index, e.Name, e.Field)
	}
	return fmt.Sprintf("grouper: rule %d is missing %s", e.Index, e.Field)
}

func (e *RuleError) Unwrap() error {
	return ErrMalformedRule
}
