package server

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ginjaninja78/order-reports/internal/orders"
)

// ParseFilter reads distributor, supplier, state, from and to query
// parameters. Name parameters may repeat or hold comma-separated lists.
// Dates are RFC 3339 or YYYY-MM-DD; a date-only "to" covers the whole day.
func ParseFilter(query url.Values) (orders.Filter, error) {
	f := orders.Filter{
		Distributors: splitValues(query["distributor"]),
		Suppliers:    splitValues(query["supplier"]),
		States:       splitValues(query["state"]),
	}

	var err error
	if f.From, err = parseDate(query.Get("from"), false); err != nil {
		return f, fmt.Errorf("invalid from: %w", err)
	}
	if f.To, err = parseDate(query.Get("to"), true); err != nil {
		return f, fmt.Errorf("invalid to: %w", err)
	}

	return f, f.Validate()
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseDate(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a date", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
