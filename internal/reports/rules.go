package reports

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/order-reports/internal/grouper"
	"github.com/ginjaninja78/order-reports/internal/orders"
)

type (
	itemRule   = grouper.Rule[*orders.LineItem]
	itemColumn = grouper.Column[*orders.LineItem]
	orderRule  = grouper.Rule[*orders.Order]
	orderCol   = grouper.Column[*orders.Order]
)

// byName sorts enterprise buckets case-insensitively by name.
var byName = grouper.SortOn(func(e *orders.Enterprise) any {
	return strings.ToLower(e.Name)
})

var byCustomer = grouper.SortOn(func(c *orders.Customer) any {
	return strings.ToLower(c.Label())
})

// byCompletion sorts orders by completion time, then number.
var byCompletion = grouper.SortOn(func(o *orders.Order) any {
	return []any{o.CompletedAt, o.Number}
})

var byText = grouper.SortOn(func(s string) any {
	return strings.ToLower(s)
})

// text returns nil for blank strings so they fall into the ungrouped bucket.
func text(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func supplierRule() itemRule {
	return itemRule{
		Name:    "supplier",
		GroupBy: grouper.Key(func(li *orders.LineItem) any { return li.Supplier }),
		SortBy:  byName,
	}
}

func distributorRule() itemRule {
	return itemRule{
		Name:    "distributor",
		GroupBy: grouper.Key(func(li *orders.LineItem) any { return li.Distributor() }),
		SortBy:  byName,
	}
}

func productRule() itemRule {
	return itemRule{
		Name:    "product",
		GroupBy: grouper.Key(func(li *orders.LineItem) any { return text(li.Product) }),
		SortBy:  byText,
	}
}

func variantRule() itemRule {
	return itemRule{
		Name:    "variant",
		GroupBy: grouper.Key(func(li *orders.LineItem) any { return li.FullName() }),
		SortBy:  byText,
	}
}

func orderRuleForItems() itemRule {
	return itemRule{
		Name:    "order",
		GroupBy: grouper.Key(func(li *orders.LineItem) any { return li.Order }),
		SortBy:  byCompletion,
	}
}

func customerRuleForItems() itemRule {
	return itemRule{
		Name:    "customer",
		GroupBy: grouper.Key(func(li *orders.LineItem) any { return li.Customer() }),
		SortBy:  byCustomer,
	}
}

// =============================================================================
// COLUMN HELPERS
// =============================================================================

func first(f func(li *orders.LineItem) grouper.Cell) itemColumn {
	return grouper.First(f)
}

func blank() itemColumn {
	return grouper.Const[*orders.LineItem]("")
}

func label(s string) itemColumn {
	return grouper.Const[*orders.LineItem](s)
}

func supplierName(s Settings) itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell { return s.EnterpriseName(li.Supplier) })
}

func distributorName(s Settings) itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell { return s.EnterpriseName(li.Distributor()) })
}

func productName() itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell { return li.Product })
}

func variantName() itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell { return li.Variant })
}

func price(s Settings) itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell { return s.Money(li.Price) })
}

func sumQuantity(s Settings) itemColumn {
	return grouper.Func(func(items []*orders.LineItem) grouper.Cell {
		return s.Quantity(orders.SumQuantity(items))
	})
}

func sumAmount(s Settings) itemColumn {
	return grouper.Func(func(items []*orders.LineItem) grouper.Cell {
		return s.Money(orders.SumAmount(items))
	})
}

func sumTotalUnits(s Settings) itemColumn {
	return grouper.Func(func(items []*orders.LineItem) grouper.Cell {
		return s.Quantity(orders.SumTotalUnits(items))
	})
}

// shippingTotal adds the shipping of each distinct order in the group once.
func shippingTotal(s Settings) itemColumn {
	return grouper.Func(func(items []*orders.LineItem) grouper.Cell {
		shipping := orders.SumOrders(orders.DistinctOrders(items), func(o *orders.Order) decimal.Decimal {
			return o.ShippingTotal
		})
		return s.Money(shipping)
	})
}
