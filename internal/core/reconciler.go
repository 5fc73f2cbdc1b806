package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ServiceRate returns delivered/ordered as a percentage capped at 100, or 0 when nothing was ordered.
func ServiceRate(ordered, delivered decimal.Decimal) decimal.Decimal {
	if !ordered.IsPositive() {
		return decimal.Zero
	}
	rate := delivered.Div(ordered).Mul(hundred).Round(2)
	if rate.GreaterThan(hundred) {
		return hundred
	}
	if rate.IsNegative() {
		return decimal.Zero
	}
	return rate
}

func classify(ordered, delivered decimal.Decimal) Status {
	switch {
	case delivered.IsZero():
		return StatusMissingInBL
	case delivered.Equal(ordered):
		return StatusOK
	default:
		return StatusQtyDiff
	}
}

// Reconcile joins one order's ordered table with its delivered table.
// Every ordered key yields exactly one row; a product ordered under several
// article codes is matched against the same delivered total on each row.
func Reconcile(ordered OrderTable, delivered DeliveryTable) []ReconciledRow {
	rows := make([]ReconciledRow, 0, len(ordered))
	for _, o := range ordered.Rows() {
		del, ok := delivered[o.ProductID]
		if !ok {
			del = decimal.Zero
		}
		ord := decimal.NewFromInt(o.OrderedQty)
		rows = append(rows, ReconciledRow{
			ProductID:    o.ProductID,
			ArticleCode:  o.ArticleCode,
			OrderedQty:   o.OrderedQty,
			DeliveredQty: del,
			Diff:         del.Sub(ord),
			Status:       classify(ord, del),
			ServiceRate:  ServiceRate(ord, del),
		})
	}
	return rows
}

// ReconcileAll reconciles every ordered order number, including the NoOrderNumber bucket.
// Delivered-only order numbers are left to UnmatchedDeliveries.
func ReconcileAll(orders map[string]OrderTable, deliveries map[string]DeliveryTable) ReconciliationSet {
	set := make(ReconciliationSet, len(orders))
	for num, table := range orders {
		set[num] = Reconcile(table, deliveries[num])
	}
	return set
}

// UnmatchedDeliveries lists delivered products with no ordered counterpart under the same order number.
func UnmatchedDeliveries(orders map[string]OrderTable, deliveries map[string]DeliveryTable) []UnmatchedDelivery {
	var out []UnmatchedDelivery
	for _, num := range sortOrderNumbers(keys(deliveries)) {
		table, known := orders[num]
		orderedIDs := make(map[string]bool, len(table))
		for k := range table {
			orderedIDs[k.ProductID] = true
		}
		for _, d := range deliveries[num].Rows() {
			if orderedIDs[d.ProductID] {
				continue
			}
			out = append(out, UnmatchedDelivery{
				OrderNumber:  num,
				ProductID:    d.ProductID,
				DeliveredQty: d.DeliveredQty,
				OrderKnown:   known,
			})
		}
	}
	return out
}
