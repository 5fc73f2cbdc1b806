package core

import "github.com/shopspring/decimal"

// AggregateOrders sums ordered quantities per order number and (product id, article code).
func AggregateOrders(records []RawOrderLine) map[string]OrderTable {
	out := make(map[string]OrderTable)
	for _, r := range records {
		t, ok := out[r.OrderNumber]
		if !ok {
			t = make(OrderTable)
			out[r.OrderNumber] = t
		}
		t[OrderKey{ProductID: r.ProductID, ArticleCode: r.ArticleCode}] += r.OrderedQty
	}
	return out
}

// AggregateDeliveries sums delivered quantities per order number and product id.
func AggregateDeliveries(records []RawDeliveryLine) map[string]DeliveryTable {
	out := make(map[string]DeliveryTable)
	for _, r := range records {
		t, ok := out[r.OrderNumber]
		if !ok {
			t = make(DeliveryTable)
			out[r.OrderNumber] = t
		}
		prev, ok := t[r.ProductID]
		if !ok {
			prev = decimal.Zero
		}
		t[r.ProductID] = prev.Add(r.DeliveredQty)
	}
	return out
}
