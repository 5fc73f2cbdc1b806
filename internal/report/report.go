// Package report renders comparison results as xlsx workbooks.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"desathor/internal/core"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet   = "Synthese"
	UnmatchedSheet = "BL_sans_commande"
	maxSheetName   = 31
)

// OrderColumns is the header of every per-order sheet.
var OrderColumns = []string{"ref", "code_article", "qte_commande", "qte_bl", "diff", "status", "taux_service"}

var summaryColumns = []string{
	"commande", "qte_commande", "qte_bl", "qte_manquante", "taux_service",
	"nb_ok", "nb_qty_diff", "nb_missing_in_bl",
}

var unmatchedColumns = []string{"commande", "ref", "qte_bl", "commande_connue"}

// Options controls which orders are exported.
type Options struct {
	HideUnmatched bool
}

// FileName returns the download name for a report generated at t.
func FileName(t time.Time) string {
	return "Comparaison_" + t.Format("20060102_150405") + ".xlsx"
}

// Build lays out the workbook: summary first, then one sheet per included order.
func Build(res *core.ComparisonResult, opts Options) (*excelize.File, error) {
	if res == nil {
		return nil, fmt.Errorf("build report: nil result")
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	orders := core.VisibleOrders(res.Summaries, opts.HideUnmatched)
	included := make([]core.OrderSummary, 0, len(orders))
	for _, order := range orders {
		s, _ := res.Summary(order)
		included = append(included, s)
	}

	summary := make([][]interface{}, 0, len(included)+1)
	for _, s := range append(included, core.GrandTotal(included)) {
		summary = append(summary, []interface{}{
			s.OrderNumber, num(s.TotalOrdered), num(s.TotalDelivered), num(s.MissingQty), num(s.ServiceRate),
			s.CountOK, s.CountQtyDiff, s.CountMissing,
		})
	}
	if err := writeTable(f, SummarySheet, summaryColumns, summary, bold); err != nil {
		return nil, err
	}

	names := newSheetNames(SummarySheet, UnmatchedSheet)
	for _, order := range orders {
		sheet := names.claim("C_" + order)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", sheet, err)
		}
		rows := res.Reconciled[order]
		data := make([][]interface{}, 0, len(rows))
		for _, r := range rows {
			data = append(data, []interface{}{
				r.ProductID, r.ArticleCode, r.OrderedQty, num(r.DeliveredQty), num(r.Diff), string(r.Status), num(r.ServiceRate),
			})
		}
		if err := writeTable(f, sheet, OrderColumns, data, bold); err != nil {
			return nil, err
		}
	}

	if len(res.Unmatched) > 0 {
		if _, err := f.NewSheet(UnmatchedSheet); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", UnmatchedSheet, err)
		}
		data := make([][]interface{}, 0, len(res.Unmatched))
		for _, u := range res.Unmatched {
			data = append(data, []interface{}{u.OrderNumber, u.ProductID, num(u.DeliveredQty), u.OrderKnown})
		}
		if err := writeTable(f, UnmatchedSheet, unmatchedColumns, data, bold); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, res *core.ComparisonResult, opts Options) error {
	f, err := Build(res, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, header []string, rows [][]interface{}, headerStyle int) error {
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write header of %q: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header of %q: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+2, sheet, err)
		}
	}
	return nil
}

// num keeps quantities numeric in the sheet.
func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// sheetNames hands out unique, valid worksheet names. Excel compares names case-insensitively.
type sheetNames struct {
	taken map[string]bool
}

func newSheetNames(reserved ...string) *sheetNames {
	n := &sheetNames{taken: make(map[string]bool)}
	for _, r := range reserved {
		n.taken[strings.ToLower(r)] = true
	}
	return n
}

func (n *sheetNames) claim(want string) string {
	base := SanitizeSheetName(want)
	name := base
	for i := 2; n.taken[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	n.taken[strings.ToLower(name)] = true
	return name
}

// SanitizeSheetName drops the characters Excel forbids in sheet names and truncates to 31 characters.
func SanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "C"
	}
	return truncate(name, maxSheetName)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
