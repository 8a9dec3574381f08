package reports

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/order-reports/internal/grouper"
	"github.com/ginjaninja78/order-reports/internal/orders"
)

// =============================================================================
// PAYMENTS
// =============================================================================
// Payment reports group orders rather than line items.

func orderDistributorRule() orderRule {
	return orderRule{
		Name:    "distributor",
		GroupBy: grouper.Key(func(o *orders.Order) any { return o.Distributor }),
		SortBy:  byName,
	}
}

func paymentMethodRule() orderRule {
	return orderRule{
		Name:    "payment_method",
		GroupBy: grouper.Key(func(o *orders.Order) any { return text(o.PaymentMethod) }),
		SortBy:  byText,
	}
}

func orderCustomerRule() orderRule {
	return orderRule{
		Name:    "customer",
		GroupBy: grouper.Key(func(o *orders.Order) any { return o.Customer }),
		SortBy:  byCustomer,
	}
}

func eachOrderRule() orderRule {
	return orderRule{
		Name:    "order",
		GroupBy: grouper.Key(func(o *orders.Order) any { return o }),
		SortBy:  byCompletion,
	}
}

func firstOrder(f func(o *orders.Order) grouper.Cell) orderCol {
	return grouper.First(f)
}

func orderConst(cell grouper.Cell) orderCol {
	return grouper.Const[*orders.Order](cell)
}

func ordersSum(s Settings, f func(o *orders.Order) decimal.Decimal) orderCol {
	return grouper.Func(func(list []*orders.Order) grouper.Cell {
		return s.Money(orders.SumOrders(list, f))
	})
}

func shipping(o *orders.Order) decimal.Decimal { return o.ShippingTotal }

func paid(o *orders.Order) decimal.Decimal { return o.PaymentTotal }

func paymentsByPaymentType() *Definition {
	return &Definition{
		Name:     "payments_by_payment_type",
		Title:    "Payments by Type",
		Category: CategoryPayments,
		Header:   []string{"Hub", "Payment Method", "Order", "Total Price"},
		Build: func(s Settings, set *orders.Set) (*grouper.Table, error) {
			method := paymentMethodRule()
			method.Summary = []orderCol{
				firstOrder(func(o *orders.Order) grouper.Cell { return s.EnterpriseName(o.Distributor) }),
				firstOrder(func(o *orders.Order) grouper.Cell { return paymentLabel(s, o) }),
				orderConst("TOTAL"),
				ordersSum(s, paid),
			}
			rules := []orderRule{orderDistributorRule(), method, eachOrderRule()}
			columns := []orderCol{
				firstOrder(func(o *orders.Order) grouper.Cell { return s.EnterpriseName(o.Distributor) }),
				firstOrder(func(o *orders.Order) grouper.Cell { return paymentLabel(s, o) }),
				firstOrder(func(o *orders.Order) grouper.Cell { return o.Number }),
				ordersSum(s, paid),
			}
			return grouper.BuildTable(rules, columns, set.Orders)
		},
	}
}

func paymentTotals() *Definition {
	return &Definition{
		Name:     "payment_totals",
		Title:    "Payment Totals",
		Category: CategoryPayments,
		Header: []string{
			"Hub", "Customer", "Products Total", "Shipping Total",
			"Total", "Payment Total", "Outstanding Balance",
		},
		Build: func(s Settings, set *orders.Set) (*grouper.Table, error) {
			distributor := orderDistributorRule()
			distributor.Summary = []orderCol{
				firstOrder(func(o *orders.Order) grouper.Cell { return s.EnterpriseName(o.Distributor) }),
				orderConst("TOTAL"),
				ordersSum(s, (*orders.Order).ItemTotal),
				ordersSum(s, shipping),
				ordersSum(s, (*orders.Order).Total),
				ordersSum(s, paid),
				ordersSum(s, (*orders.Order).Outstanding),
			}
			rules := []orderRule{distributor, orderCustomerRule()}
			columns := []orderCol{
				firstOrder(func(o *orders.Order) grouper.Cell { return s.EnterpriseName(o.Distributor) }),
				firstOrder(func(o *orders.Order) grouper.Cell { return s.CustomerName(o.Customer) }),
				ordersSum(s, (*orders.Order).ItemTotal),
				ordersSum(s, shipping),
				ordersSum(s, (*orders.Order).Total),
				ordersSum(s, paid),
				ordersSum(s, (*orders.Order).Outstanding),
			}
			return grouper.BuildTable(rules, columns, set.Orders)
		},
	}
}

func paymentLabel(s Settings, o *orders.Order) string {
	if strings.TrimSpace(o.PaymentMethod) == "" {
		return s.NoneLabel
	}
	return o.PaymentMethod
}
