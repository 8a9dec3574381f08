package orders

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidDateRange is returned when From is after To.
var ErrInvalidDateRange = errors.New("orders: from date is after to date")

// Filter selects entries by distributor, supplier, state and completion date.
// Empty fields match everything. Name matches are case-insensitive.
type Filter struct {
	Distributors []string
	Suppliers    []string
	States       []string

	// From and To bound CompletedAt, inclusive. Zero means unbounded. With
	// either bound set, entries that were never completed do not match.
	From time.Time
	To   time.Time
}

// Validate checks the date range.
func (f Filter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return ErrInvalidDateRange
	}
	return nil
}

// IsEmpty reports whether the filter matches everything.
func (f Filter) IsEmpty() bool {
	return len(f.Distributors) == 0 && len(f.Suppliers) == 0 && len(f.States) == 0 &&
		f.From.IsZero() && f.To.IsZero()
}

// Match reports whether an entry passes the filter.
func (f Filter) Match(e Entry) bool {
	if !matchAny(f.Distributors, e.Distributor) {
		return false
	}
	if !matchAny(f.Suppliers, e.Supplier) {
		return false
	}
	if !matchAny(f.States, e.State) {
		return false
	}
	if (!f.From.IsZero() || !f.To.IsZero()) && e.CompletedAt.IsZero() {
		return false
	}
	if !f.From.IsZero() && e.CompletedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.CompletedAt.After(f.To) {
		return false
	}
	return true
}

// Apply returns the entries that match.
func (f Filter) Apply(entries []Entry) []Entry {
	if f.IsEmpty() {
		return entries
	}
	var result []Entry
	for _, e := range entries {
		if f.Match(e) {
			result = append(result, e)
		}
	}
	return result
}

func matchAny(allowed []string, value string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}
