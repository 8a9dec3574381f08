package reports

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/order-reports/internal/grouper"
	"github.com/ginjaninja78/order-reports/internal/orders"
)

// =============================================================================
// ORDERS AND FULFILLMENT
// =============================================================================

func supplierTotals() *Definition {
	return &Definition{
		Name:     "supplier_totals",
		Title:    "Supplier Totals",
		Category: CategoryOrders,
		Header: []string{
			"Producer", "Product", "Variant", "Amount", "Total Units",
			"Curr. Cost per Unit", "Total Cost",
		},
		Build: func(s Settings, set *orders.Set) (*grouper.Table, error) {
			rules := []itemRule{supplierRule(), productRule(), variantRule()}
			columns := []itemColumn{
				supplierName(s),
				productName(),
				variantName(),
				sumQuantity(s),
				sumTotalUnits(s),
				price(s),
				sumAmount(s),
			}
			return grouper.BuildTable(rules, columns, set.LineItems)
		},
	}
}

func supplierTotalsByDistributor() *Definition {
	return &Definition{
		Name:     "supplier_totals_by_distributor",
		Title:    "Supplier Totals by Distributor",
		Category: CategoryOrders,
		Header: []string{
			"Producer", "Product", "Variant", "To Hub", "Amount",
			"Curr. Cost per Unit", "Total Cost",
		},
		Build: func(s Settings, set *orders.Set) (*grouper.Table, error) {
			variant := variantRule()
			variant.Summary = []itemColumn{
				blank(), blank(), blank(),
				label("TOTAL"),
				sumQuantity(s),
				blank(),
				sumAmount(s),
			}
			rules := []itemRule{supplierRule(), productRule(), variant, distributorRule()}
			columns := []itemColumn{
				supplierName(s),
				productName(),
				variantName(),
				distributorName(s),
				sumQuantity(s),
				price(s),
				sumAmount(s),
			}
			return grouper.BuildTable(rules, columns, set.LineItems)
		},
	}
}

func distributorTotalsBySupplier() *Definition {
	return &Definition{
		Name:     "distributor_totals_by_supplier",
		Title:    "Distributor Totals by Supplier",
		Category: CategoryOrders,
		Header: []string{
			"Hub", "Producer", "Product", "Variant", "Amount",
			"Curr. Cost per Unit", "Total Cost", "Total Shipping Cost",
		},
		Build: func(s Settings, set *orders.Set) (*grouper.Table, error) {
			distributor := distributorRule()
			distributor.Summary = []itemColumn{
				blank(),
				label("TOTAL"),
				blank(), blank(), blank(), blank(),
				sumAmount(s),
				shippingTotal(s),
			}
			rules := []itemRule{distributor, supplierRule(), productRule(), variantRule()}
			columns := []itemColumn{
				distributorName(s),
				supplierName(s),
				productName(),
				variantName(),
				sumQuantity(s),
				price(s),
				sumAmount(s),
				blank(),
			}
			return grouper.BuildTable(rules, columns, set.LineItems)
		},
	}
}

func customerTotals() *Definition {
	return &Definition{
		Name:     "customer_totals",
		Title:    "Customer Totals",
		Category: CategoryOrders,
		Header: []string{
			"Hub", "Customer", "Email", "Order", "Producer", "Product", "Variant",
			"Amount", "Item Total", "Shipping", "Payment Method", "Total", "Paid", "Outstanding",
		},
		Build: func(s Settings, set *orders.Set) (*grouper.Table, error) {
			order := orderRuleForItems()
			order.Summary = []itemColumn{
				distributorName(s),
				customerName(s),
				customerEmail(s),
				orderNumber(),
				label("TOTAL"),
				blank(), blank(), blank(),
				orderMoney(s, (*orders.Order).ItemTotal),
				orderMoney(s, func(o *orders.Order) decimal.Decimal { return o.ShippingTotal }),
				paymentMethod(),
				orderMoney(s, (*orders.Order).Total),
				orderMoney(s, func(o *orders.Order) decimal.Decimal { return o.PaymentTotal }),
				orderMoney(s, (*orders.Order).Outstanding),
			}
			rules := []itemRule{distributorRule(), order, supplierRule(), productRule(), variantRule()}
			columns := []itemColumn{
				distributorName(s),
				customerName(s),
				customerEmail(s),
				orderNumber(),
				supplierName(s),
				productName(),
				variantName(),
				sumQuantity(s),
				sumAmount(s),
				blank(), blank(), blank(), blank(), blank(),
			}
			return grouper.BuildTable(rules, columns, set.LineItems)
		},
	}
}

func customerName(s Settings) itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell { return s.CustomerName(li.Customer()) })
}

func customerEmail(s Settings) itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell { return s.CustomerEmail(li.Customer()) })
}

func orderNumber() itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell {
		if li.Order == nil {
			return ""
		}
		return li.Order.Number
	})
}

func paymentMethod() itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell {
		if li.Order == nil {
			return ""
		}
		return li.Order.PaymentMethod
	})
}

// orderMoney evaluates f on the order shared by every item of the group.
func orderMoney(s Settings, f func(o *orders.Order) decimal.Decimal) itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell {
		if li.Order == nil {
			return ""
		}
		return s.Money(f(li.Order))
	})
}
