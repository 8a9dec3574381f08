package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one denormalised line item row, as read from an export or the
// order store. Order-level fields repeat on every row of the same order.
type Entry struct {
	OrderNumber   string
	CompletedAt   time.Time
	State         string
	CustomerName  string
	CustomerEmail string
	Distributor   string
	PaymentMethod string
	PaymentTotal  decimal.Decimal
	ShippingTotal decimal.Decimal

	Supplier         string
	Product          string
	Variant          string
	Quantity         decimal.Decimal
	Price            decimal.Decimal
	UnitValue        decimal.Decimal
	UnitName         string
	GroupBuyUnitSize decimal.Decimal
}

// ErrMissingOrderNumber is returned by Assemble for entries without an order.
var ErrMissingOrderNumber = errors.New("orders: entry has no order number")

// Set is an assembled, linked collection of records.
type Set struct {
	LineItems   []*LineItem
	Orders      []*Order
	Enterprises map[string]*Enterprise
	Customers   map[string]*Customer
}

// Assemble links entries into a Set. Enterprises, customers and orders are
// interned by name, email and number. Empty supplier or distributor names
// stay nil so that reports can bucket them explicitly.
//
// Order-level fields are taken from the first entry of each order.
func Assemble(entries []Entry) (*Set, error) {
	set := &Set{
		Enterprises: make(map[string]*Enterprise),
		Customers:   make(map[string]*Customer),
	}
	byNumber := make(map[string]*Order)

	for i, e := range entries {
		number := strings.TrimSpace(e.OrderNumber)
		if number == "" {
			return nil, fmt.Errorf("entry %d: %w", i+1, ErrMissingOrderNumber)
		}

		order, ok := byNumber[number]
		if !ok {
			order = &Order{
				Number:        number,
				Customer:      set.customer(e.CustomerName, e.CustomerEmail),
				Distributor:   set.enterprise(e.Distributor),
				CompletedAt:   e.CompletedAt,
				State:         e.State,
				ShippingTotal: e.ShippingTotal,
				PaymentMethod: e.PaymentMethod,
				PaymentTotal:  e.PaymentTotal,
			}
			byNumber[number] = order
			set.Orders = append(set.Orders, order)
		}

		li := &LineItem{
			ID:               i + 1,
			Order:            order,
			Supplier:         set.enterprise(e.Supplier),
			Product:          e.Product,
			Variant:          e.Variant,
			Quantity:         e.Quantity,
			Price:            e.Price,
			UnitValue:        e.UnitValue,
			UnitName:         e.UnitName,
			GroupBuyUnitSize: e.GroupBuyUnitSize,
		}
		order.LineItems = append(order.LineItems, li)
		set.LineItems = append(set.LineItems, li)
	}

	return set, nil
}

// FillOrderFields returns a copy of entries in which every row carries the
// order-level fields of the first row of its order, so that filters on
// distributor, state or completion date see continuation rows the same way
// Assemble does. Rows without an order number are copied unchanged.
func FillOrderFields(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	first := make(map[string]Entry)
	for i, e := range entries {
		number := strings.TrimSpace(e.OrderNumber)
		if number == "" {
			out[i] = e
			continue
		}
		head, ok := first[number]
		if !ok {
			first[number] = e
			out[i] = e
			continue
		}
		e.CompletedAt = head.CompletedAt
		e.State = head.State
		e.CustomerName = head.CustomerName
		e.CustomerEmail = head.CustomerEmail
		e.Distributor = head.Distributor
		e.PaymentMethod = head.PaymentMethod
		e.PaymentTotal = head.PaymentTotal
		e.ShippingTotal = head.ShippingTotal
		out[i] = e
	}
	return out
}

func (s *Set) enterprise(name string) *Enterprise {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if e, ok := s.Enterprises[name]; ok {
		return e
	}
	e := &Enterprise{Name: name}
	s.Enterprises[name] = e
	return e
}

func (s *Set) customer(name, email string) *Customer {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" && email == "" {
		return nil
	}
	key := strings.ToLower(email)
	if key == "" {
		key = "name:" + name
	}
	if c, ok := s.Customers[key]; ok {
		return c
	}
	c := &Customer{Name: name, Email: email}
	s.Customers[key] = c
	return c
}
