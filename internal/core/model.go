package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// NoOrderNumber is the order-number bucket for lines parsed before any order number
// was seen in their document. Parsed order numbers are digit runs, so it never collides.
const NoOrderNumber = "__NO_ORDER__"

// Status classifies one reconciled row.
type Status string

const (
	StatusOK          Status = "OK"
	StatusQtyDiff     Status = "QTY_DIFF"
	StatusMissingInBL Status = "MISSING_IN_BL"
)

// RawOrderLine is one item line recovered from a purchase-order document.
type RawOrderLine struct {
	ProductID   string `json:"ref"`
	ArticleCode string `json:"code_article"`
	OrderedQty  int64  `json:"qte_commande"`
	OrderNumber string `json:"order_num"`
}

// RawDeliveryLine is one item line recovered from a delivery note (BL).
type RawDeliveryLine struct {
	ProductID    string          `json:"ref"`
	DeliveredQty decimal.Decimal `json:"qte_bl"`
	OrderNumber  string          `json:"order_num"`
}

// OrderKey identifies an aggregated ordered row.
type OrderKey struct {
	ProductID   string
	ArticleCode string
}

// OrderTable maps (product id, article code) to the summed ordered quantity of one order.
type OrderTable map[OrderKey]int64

// OrderRow is a flattened OrderTable entry.
type OrderRow struct {
	ProductID   string `json:"ref"`
	ArticleCode string `json:"code_article"`
	OrderedQty  int64  `json:"qte_commande"`
}

// Rows returns the table entries sorted by product id then article code.
func (t OrderTable) Rows() []OrderRow {
	rows := make([]OrderRow, 0, len(t))
	for k, qty := range t {
		rows = append(rows, OrderRow{ProductID: k.ProductID, ArticleCode: k.ArticleCode, OrderedQty: qty})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ProductID != rows[j].ProductID {
			return rows[i].ProductID < rows[j].ProductID
		}
		return rows[i].ArticleCode < rows[j].ArticleCode
	})
	return rows
}

// DeliveryTable maps a product id to the summed delivered quantity of one order.
type DeliveryTable map[string]decimal.Decimal

// DeliveryRow is a flattened DeliveryTable entry.
type DeliveryRow struct {
	ProductID    string          `json:"ref"`
	DeliveredQty decimal.Decimal `json:"qte_bl"`
}

// Rows returns the table entries sorted by product id.
func (t DeliveryTable) Rows() []DeliveryRow {
	rows := make([]DeliveryRow, 0, len(t))
	for id, qty := range t {
		rows = append(rows, DeliveryRow{ProductID: id, DeliveredQty: qty})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProductID < rows[j].ProductID })
	return rows
}

// ReconciledRow is one ordered item joined with what was delivered for it.
type ReconciledRow struct {
	ProductID    string          `json:"ref"`
	ArticleCode  string          `json:"code_article"`
	OrderedQty   int64           `json:"qte_commande"`
	DeliveredQty decimal.Decimal `json:"qte_bl"`
	Diff         decimal.Decimal `json:"diff"`
	Status       Status          `json:"status"`
	ServiceRate  decimal.Decimal `json:"taux_service"`
}

// ReconciliationSet holds one reconciled table per ordered order number.
type ReconciliationSet map[string][]ReconciledRow

// OrderNumbers returns the set's order numbers sorted, with NoOrderNumber last.
func (s ReconciliationSet) OrderNumbers() []string {
	return sortOrderNumbers(keys(s))
}

// UnmatchedDelivery is a delivered product with no ordered counterpart in its order.
type UnmatchedDelivery struct {
	OrderNumber  string          `json:"order_num"`
	ProductID    string          `json:"ref"`
	DeliveredQty decimal.Decimal `json:"qte_bl"`
	// OrderKnown is false when the whole order number is absent from the purchase orders.
	OrderKnown bool `json:"order_known"`
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sortOrderNumbers(orders []string) []string {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i] == NoOrderNumber {
			return false
		}
		if orders[j] == NoOrderNumber {
			return true
		}
		return orders[i] < orders[j]
	})
	return orders
}
