// =============================================================================
// Order Reports - Domain Types
// =============================================================================
//
// This package models the marketplace records that reports are built from:
// enterprises (suppliers and distributors), customers, orders and line items.
//
// Sources (CSV/XLSX files, the SQLite store) produce flat Entry rows. Assemble
// turns those rows into a linked object graph where every enterprise, customer
// and order exists exactly once, so report rules can group by pointer identity.
//
// =============================================================================

package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENTITIES
// =============================================================================

// Enterprise is a supplier (producer) or distributor (hub).
type Enterprise struct {
	Name string
}

// Customer is the buyer of an order.
type Customer struct {
	Name  string
	Email string
}

// Label returns the customer name, falling back to the email.
func (c *Customer) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}

// Order is a completed checkout at a distributor.
type Order struct {
	Number      string
	Customer    *Customer
	Distributor *Enterprise
	CompletedAt time.Time
	State       string

	ShippingTotal decimal.Decimal
	PaymentMethod string
	PaymentTotal  decimal.Decimal

	LineItems []*LineItem
}

// ItemTotal is the sum of the order's line item amounts.
func (o *Order) ItemTotal() decimal.Decimal {
	return SumAmount(o.LineItems)
}

// Total is the item total plus shipping.
func (o *Order) Total() decimal.Decimal {
	return o.ItemTotal().Add(o.ShippingTotal)
}

// Outstanding is what remains to be paid on the order.
func (o *Order) Outstanding() decimal.Decimal {
	return o.Total().Sub(o.PaymentTotal)
}

// LineItem is one product variant bought in an order.
type LineItem struct {
	ID       int
	Order    *Order
	Supplier *Enterprise

	Product string
	Variant string

	Quantity decimal.Decimal
	Price    decimal.Decimal

	// UnitValue is the size of one item in UnitName (e.g. 500 for 500g).
	UnitValue decimal.Decimal
	UnitName  string

	// GroupBuyUnitSize is the bulk case size, in UnitName, that suppliers
	// sell to co-ops. Zero when the product is not sold in bulk.
	GroupBuyUnitSize decimal.Decimal
}

// Amount is price times quantity.
func (li *LineItem) Amount() decimal.Decimal {
	return li.Price.Mul(li.Quantity)
}

// TotalUnits is quantity times unit value.
func (li *LineItem) TotalUnits() decimal.Decimal {
	return li.UnitValue.Mul(li.Quantity)
}

// FullName joins product and variant names.
func (li *LineItem) FullName() string {
	if li.Variant == "" || li.Variant == li.Product {
		return li.Product
	}
	return li.Product + " - " + li.Variant
}

// Distributor returns the order's distributor, or nil.
func (li *LineItem) Distributor() *Enterprise {
	if li.Order == nil {
		return nil
	}
	return li.Order.Distributor
}

// Customer returns the order's customer, or nil.
func (li *LineItem) Customer() *Customer {
	if li.Order == nil {
		return nil
	}
	return li.Order.Customer
}

// =============================================================================
// AGGREGATES
// =============================================================================

// SumQuantity adds up line item quantities.
func SumQuantity(items []*LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Quantity)
	}
	return total
}

// SumAmount adds up line item amounts.
func SumAmount(items []*LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Amount())
	}
	return total
}

// SumTotalUnits adds up quantity times unit value.
func SumTotalUnits(items []*LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.TotalUnits())
	}
	return total
}

// SumOrders adds up f over orders.
func SumOrders(orders []*Order, f func(*Order) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(f(o))
	}
	return total
}

// DistinctOrders returns the orders of items in first-seen order.
func DistinctOrders(items []*LineItem) []*Order {
	seen := make(map[*Order]bool)
	var result []*Order
	for _, li := range items {
		if li.Order == nil || seen[li.Order] {
			continue
		}
		seen[li.Order] = true
		result = append(result, li.Order)
	}
	return result
}
