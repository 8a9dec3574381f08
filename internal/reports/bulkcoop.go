package reports

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/order-reports/internal/grouper"
	"github.com/ginjaninja78/order-reports/internal/orders"
)

// =============================================================================
// BULK CO-OP
// =============================================================================
// Co-ops buy products in bulk cases of GroupBuyUnitSize units. These reports
// show how many cases must be ordered from each supplier and how much of the
// last case is left unallocated.

// bulkUnits works out the cases needed for a group of line items that share
// a product. ok is false when the product has no bulk size.
func bulkUnits(items []*orders.LineItem) (total, required, remainder decimal.Decimal, ok bool) {
	total = orders.SumTotalUnits(items)
	if len(items) == 0 || !items[0].GroupBuyUnitSize.IsPositive() {
		return total, decimal.Zero, decimal.Zero, false
	}
	size := items[0].GroupBuyUnitSize
	required = total.Div(size).Ceil()
	remainder = required.Mul(size).Sub(total)
	return total, required, remainder, true
}

func bulkSize(s Settings) itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell {
		if !li.GroupBuyUnitSize.IsPositive() {
			return ""
		}
		return s.Quantity(li.GroupBuyUnitSize)
	})
}

func unitValue(s Settings) itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell { return s.Quantity(li.UnitValue) })
}

func unitName() itemColumn {
	return first(func(li *orders.LineItem) grouper.Cell { return li.UnitName })
}

func unitsRequired(s Settings) itemColumn {
	return grouper.Func(func(items []*orders.LineItem) grouper.Cell {
		_, required, _, ok := bulkUnits(items)
		if !ok {
			return ""
		}
		return s.Quantity(required)
	})
}

func totalAvailable(s Settings) itemColumn {
	return grouper.Func(func(items []*orders.LineItem) grouper.Cell {
		_, required, _, ok := bulkUnits(items)
		if !ok {
			return ""
		}
		return s.Quantity(required.Mul(items[0].GroupBuyUnitSize))
	})
}

func unallocated(s Settings) itemColumn {
	return grouper.Func(func(items []*orders.LineItem) grouper.Cell {
		_, _, remainder, ok := bulkUnits(items)
		if !ok {
			return ""
		}
		return s.Quantity(remainder)
	})
}

func bulkCoopSupplierReport() *Definition {
	return &Definition{
		Name:     "bulk_coop_supplier_report",
		Title:    "Bulk Co-op - Totals by Supplier",
		Category: CategoryBulkCoop,
		Header: []string{
			"Supplier", "Product", "Bulk Unit Size", "Variant", "Variant Value",
			"Variant Unit", "Sum Total", "Units Required", "Unallocated",
		},
		Build: func(s Settings, set *orders.Set) (*grouper.Table, error) {
			product := productRule()
			product.Summary = []itemColumn{
				supplierName(s),
				productName(),
				bulkSize(s),
				label("TOTAL"),
				blank(), blank(),
				sumTotalUnits(s),
				unitsRequired(s),
				unallocated(s),
			}
			rules := []itemRule{supplierRule(), product, variantRule()}
			columns := []itemColumn{
				supplierName(s),
				productName(),
				bulkSize(s),
				variantName(),
				unitValue(s),
				unitName(),
				sumTotalUnits(s),
				blank(), blank(),
			}
			return grouper.BuildTable(rules, columns, set.LineItems)
		},
	}
}

func bulkCoopAllocation() *Definition {
	return &Definition{
		Name:     "bulk_coop_allocation",
		Title:    "Bulk Co-op - Allocation",
		Category: CategoryBulkCoop,
		Header: []string{
			"Customer", "Product", "Bulk Unit Size", "Variant", "Variant Value",
			"Variant Unit", "Sum Total", "Total Available", "Unallocated",
		},
		Build: func(s Settings, set *orders.Set) (*grouper.Table, error) {
			product := productRule()
			product.Summary = []itemColumn{
				label("TOTAL"),
				productName(),
				bulkSize(s),
				blank(), blank(), blank(),
				sumTotalUnits(s),
				totalAvailable(s),
				unallocated(s),
			}
			rules := []itemRule{product, customerRuleForItems()}
			columns := []itemColumn{
				customerName(s),
				productName(),
				bulkSize(s),
				variantName(),
				unitValue(s),
				unitName(),
				sumTotalUnits(s),
				blank(), blank(),
			}
			return grouper.BuildTable(rules, columns, set.LineItems)
		},
	}
}
