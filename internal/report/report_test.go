package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"desathor/internal/core"
	"desathor/internal/report"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleResult() *core.ComparisonResult {
	orders := map[string]core.OrderTable{
		"123456": {
			{ProductID: "3001234567892", ArticleCode: "12345"}: 10,
			{ProductID: "4006381333931", ArticleCode: "23456"}: 10,
		},
		"654321":           {{ProductID: "7612345678900"}: 4},
		core.NoOrderNumber: {{ProductID: "3560070000012"}: 1},
	}
	deliveries := map[string]core.DeliveryTable{
		"123456":           {"3001234567892": decimal.NewFromInt(10), "4006381333931": decimal.NewFromInt(6), "8712345678906": decimal.NewFromInt(2)},
		core.NoOrderNumber: {"3560070000012": decimal.NewFromInt(1)},
	}
	set := core.ReconcileAll(orders, deliveries)
	return &core.ComparisonResult{
		Orders:     orders,
		Deliveries: deliveries,
		Reconciled: set,
		Summaries:  core.SummarizeAll(set),
		Unmatched:  core.UnmatchedDeliveries(orders, deliveries),
	}
}

func open(t *testing.T, res *core.ComparisonResult, opts report.Options) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, res, opts))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWrite_HidesOrdersWithoutDeliveries(t *testing.T) {
	f := open(t, sampleResult(), report.Options{HideUnmatched: true})

	assert.Equal(t, []string{"Synthese", "C_123456", "C___NO_ORDER__", "BL_sans_commande"}, f.GetSheetList())

	rows, err := f.GetRows("C_123456")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, report.OrderColumns, rows[0])
	assert.Equal(t, []string{"3001234567892", "12345", "10", "10", "0", "OK", "100"}, rows[1])
	assert.Equal(t, []string{"4006381333931", "23456", "10", "6", "-4", "QTY_DIFF", "60"}, rows[2])

	summary, err := f.GetRows("Synthese")
	require.NoError(t, err)
	require.Len(t, summary, 4)
	assert.Equal(t, "123456", summary[1][0])
	assert.Equal(t, "TOTAL", summary[3][0])
	assert.Equal(t, "21", summary[3][1])
	assert.Equal(t, "17", summary[3][2])

	unmatched, err := f.GetRows("BL_sans_commande")
	require.NoError(t, err)
	require.Len(t, unmatched, 2)
	assert.Equal(t, "8712345678906", unmatched[1][1])
}

func TestWrite_ShowAllOrders(t *testing.T) {
	f := open(t, sampleResult(), report.Options{HideUnmatched: false})

	assert.Contains(t, f.GetSheetList(), "C_654321")
	rows, err := f.GetRows("C_654321")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "MISSING_IN_BL", rows[1][5])
}

func TestBuild_SheetNamesAreValidAndUnique(t *testing.T) {
	long := strings.Repeat("9", 40)
	set := core.ReconcileAll(map[string]core.OrderTable{
		long + "1": {{ProductID: "3001234567892"}: 1},
		long + "2": {{ProductID: "3001234567892"}: 1},
	}, nil)
	res := &core.ComparisonResult{Reconciled: set, Summaries: core.SummarizeAll(set)}

	f, err := report.Build(res, report.Options{})
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 3)
	assert.Len(t, sheets[1], 31)
	assert.Len(t, sheets[2], 31)
	assert.NotEqual(t, sheets[1], sheets[2])
	assert.True(t, strings.HasSuffix(sheets[2], "_2"))
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "C_12AB", report.SanitizeSheetName("C_12[A]/B:"))
	assert.Equal(t, 31, len(report.SanitizeSheetName(strings.Repeat("x", 50))))
	assert.Equal(t, "C", report.SanitizeSheetName("*?"))
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "Comparaison_20240309_140507.xlsx", report.FileName(ts))
}
