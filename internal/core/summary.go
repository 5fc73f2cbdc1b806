package core

import "github.com/shopspring/decimal"

// OrderSummary is the per-order headline shown above each reconciled table.
type OrderSummary struct {
	OrderNumber    string          `json:"order_num"`
	Lines          int             `json:"lines"`
	TotalOrdered   decimal.Decimal `json:"total_ordered"`
	TotalDelivered decimal.Decimal `json:"total_delivered"`
	MissingQty     decimal.Decimal `json:"missing_qty"`
	ServiceRate    decimal.Decimal `json:"service_rate"`
	CountOK        int             `json:"count_ok"`
	CountQtyDiff   int             `json:"count_qty_diff"`
	CountMissing   int             `json:"count_missing_in_bl"`
}

// HasDeliveries reports whether anything at all was delivered against the order.
func (s OrderSummary) HasDeliveries() bool {
	return s.TotalDelivered.IsPositive()
}

// Summarize totals the reconciled rows of one order.
func Summarize(orderNumber string, rows []ReconciledRow) OrderSummary {
	s := OrderSummary{
		OrderNumber:    orderNumber,
		Lines:          len(rows),
		TotalOrdered:   decimal.Zero,
		TotalDelivered: decimal.Zero,
		MissingQty:     decimal.Zero,
	}
	for _, r := range rows {
		ord := decimal.NewFromInt(r.OrderedQty)
		s.TotalOrdered = s.TotalOrdered.Add(ord)
		s.TotalDelivered = s.TotalDelivered.Add(r.DeliveredQty)
		if short := ord.Sub(r.DeliveredQty); short.IsPositive() {
			s.MissingQty = s.MissingQty.Add(short)
		}
		switch r.Status {
		case StatusOK:
			s.CountOK++
		case StatusQtyDiff:
			s.CountQtyDiff++
		case StatusMissingInBL:
			s.CountMissing++
		}
	}
	s.ServiceRate = ServiceRate(s.TotalOrdered, s.TotalDelivered)
	return s
}

// SummarizeAll summarizes every order of the set, sorted with NoOrderNumber last.
func SummarizeAll(set ReconciliationSet) []OrderSummary {
	nums := set.OrderNumbers()
	out := make([]OrderSummary, 0, len(nums))
	for _, n := range nums {
		out = append(out, Summarize(n, set[n]))
	}
	return out
}

// VisibleOrders returns the order numbers to display. With hideUnmatched set,
// orders that received nothing are left out.
func VisibleOrders(summaries []OrderSummary, hideUnmatched bool) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if hideUnmatched && !s.HasDeliveries() {
			continue
		}
		out = append(out, s.OrderNumber)
	}
	return out
}

// GrandTotal folds per-order summaries into one line.
func GrandTotal(summaries []OrderSummary) OrderSummary {
	t := OrderSummary{
		OrderNumber:    "TOTAL",
		TotalOrdered:   decimal.Zero,
		TotalDelivered: decimal.Zero,
		MissingQty:     decimal.Zero,
	}
	for _, s := range summaries {
		t.Lines += s.Lines
		t.TotalOrdered = t.TotalOrdered.Add(s.TotalOrdered)
		t.TotalDelivered = t.TotalDelivered.Add(s.TotalDelivered)
		t.MissingQty = t.MissingQty.Add(s.MissingQty)
		t.CountOK += s.CountOK
		t.CountQtyDiff += s.CountQtyDiff
		t.CountMissing += s.CountMissing
	}
	t.ServiceRate = ServiceRate(t.TotalOrdered, t.TotalDelivered)
	return t
}
