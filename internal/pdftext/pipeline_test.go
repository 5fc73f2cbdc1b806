package pdftext_test

import (
	"context"
	"testing"

	"desathor/internal/core"
	"desathor/internal/pdftext"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparatorOverPDFs(t *testing.T) {
	order := buildPDF(
		"Commande n 123456",
		"Ref. frn Code EAN Designation Qte",
		"1 12345 3001234567892 YAOURT 24",
		"2 23456 4006381333931 CREME 10",
		"Recapitulatif",
	)
	delivery := buildPDF(
		"Bon de Livraison Nr. 123456",
		"3001234567892 24 YAOURT",
		"4006381333931 6 CREME",
	)
	c := core.NewComparator(pdftext.NewReader(nil), core.NewExtractor(false))

	res, err := c.Run(context.Background(),
		[]core.Document{{Name: "cde.pdf", Data: order}},
		[]core.Document{{Name: "bl.pdf", Data: delivery}},
	)

	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Len(t, res.OrderLines, 2)
	assert.Len(t, res.DeliveryLines, 2)

	rows := res.Reconciled["123456"]
	require.Len(t, rows, 2)
	assert.Equal(t, "3001234567892", rows[0].ProductID)
	assert.Equal(t, "12345", rows[0].ArticleCode)
	assert.Equal(t, int64(24), rows[0].OrderedQty)
	assert.Equal(t, core.StatusOK, rows[0].Status)
	assert.Equal(t, "4006381333931", rows[1].ProductID)
	assert.Equal(t, core.StatusQtyDiff, rows[1].Status)
	assert.True(t, decimal.NewFromInt(-4).Equal(rows[1].Diff))

	sum, ok := res.Summary("123456")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(34).Equal(sum.TotalOrdered))
	assert.True(t, decimal.NewFromInt(30).Equal(sum.TotalDelivered))
	assert.Equal(t, "88.24", sum.ServiceRate.StringFixed(2))
}
