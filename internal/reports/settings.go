package reports

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/order-reports/internal/grouper"
	"github.com/ginjaninja78/order-reports/internal/orders"
)

// Currency controls how money cells are displayed.
type Currency struct {
	Symbol             string
	SymbolAfter        bool
	DecimalMark        string
	ThousandsSeparator string
	Places             int32
}

// Settings is passed to every report's columns. Reports never read global
// configuration.
type Settings struct {
	Currency Currency

	// RawAmounts makes money and quantity cells plain decimals instead of
	// display strings. Machine formats (CSV, XLSX, XML) set it.
	RawAmounts bool

	// NoneLabel is shown for records without a supplier, distributor or
	// customer.
	NoneLabel string
}

// DefaultSettings returns dollar formatting with two decimal places.
func DefaultSettings() Settings {
	return Settings{
		Currency: Currency{
			Symbol:             "$",
			DecimalMark:        ".",
			ThousandsSeparator: ",",
			Places:             2,
		},
		NoneLabel: "(none)",
	}
}

// Money returns a money cell.
func (s Settings) Money(amount decimal.Decimal) grouper.Cell {
	rounded := amount.Round(s.Currency.Places)
	if s.RawAmounts {
		return rounded
	}
	return s.FormatMoney(rounded)
}

// Quantity returns a quantity cell.
func (s Settings) Quantity(q decimal.Decimal) grouper.Cell {
	if s.RawAmounts {
		return q
	}
	return q.String()
}

// FormatMoney renders an amount with the configured symbol and separators,
// e.g. "$1,234.50" or "-1.234,50 €".
func (s Settings) FormatMoney(amount decimal.Decimal) string {
	c := s.Currency
	negative := amount.IsNegative()
	fixed := amount.Abs().StringFixed(c.Places)

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	if c.ThousandsSeparator != "" && len(intPart) > 3 {
		var groups []string
		for len(intPart) > 3 {
			groups = append([]string{intPart[len(intPart)-3:]}, groups...)
			intPart = intPart[:len(intPart)-3]
		}
		groups = append([]string{intPart}, groups...)
		intPart = strings.Join(groups, c.ThousandsSeparator)
	}

	number := intPart
	if fracPart != "" {
		mark := c.DecimalMark
		if mark == "" {
			mark = "."
		}
		number += mark + fracPart
	}

	var result string
	if c.SymbolAfter {
		result = number + " " + c.Symbol
	} else {
		result = c.Symbol + number
	}
	result = strings.TrimSpace(result)
	if negative {
		result = "-" + result
	}
	return result
}

// EnterpriseName returns the name or the none label.
func (s Settings) EnterpriseName(e *orders.Enterprise) string {
	if e == nil {
		return s.NoneLabel
	}
	return e.Name
}

// CustomerName returns the customer label or the none label.
func (s Settings) CustomerName(c *orders.Customer) string {
	if c == nil {
		return s.NoneLabel
	}
	return c.Label()
}

// CustomerEmail returns the email or an empty string.
func (s Settings) CustomerEmail(c *orders.Customer) string {
	if c == nil {
		return ""
	}
	return c.Email
}
