package pdftext_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"desathor/internal/core"
	"desathor/internal/pdftext"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a single-page PDF showing each line on its own baseline.
func buildPDF(lines ...string) []byte {
	var content strings.Builder
	y := 750
	for _, l := range lines {
		fmt.Fprintf(&content, "BT /F1 10 Tf 50 %d Td (%s) Tj ET\n", y, l)
		y -= 20
	}
	return buildPDFStream(content.String())
}

// buildPDFStream wraps a raw content stream in a single-page document.
func buildPDFStream(stream string) []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream),
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objs)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func TestReader_Pages(t *testing.T) {
	r := pdftext.NewReader(nil)
	data := buildPDF("Commande n 123456", "1 12345 3001234567892 YAOURT 24")

	pages, err := r.Pages(context.Background(), data)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	lines := core.SplitLines(pages[0])
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "123456")
	assert.Contains(t, lines[1], "3001234567892")
}

func TestReader_Pages_OneTextBlockPerLine(t *testing.T) {
	r := pdftext.NewReader(nil)
	// one text object, lines advanced with Td and T*
	stream := "BT /F1 10 Tf 12 TL 50 750 Td (Commande n 123456) Tj 0 -20 Td (Ref. frn Code EAN Designation Qte) Tj T* (1 12345 3001234567892 YAOURT 24) Tj ET\n"

	pages, err := r.Pages(context.Background(), buildPDFStream(stream))

	require.NoError(t, err)
	assert.Equal(t, []string{
		"Commande n 123456",
		"Ref. frn Code EAN Designation Qte",
		"1 12345 3001234567892 YAOURT 24",
	}, core.SplitLines(pages[0]))
}

func TestReader_Pages_Columns(t *testing.T) {
	r := pdftext.NewReader(nil)
	// cells drawn right to left on one baseline, with no space glyphs between them
	stream := "BT /F1 10 Tf 300 700 Td (24) Tj ET\n" +
		"BT /F1 10 Tf 150 700 Td (YAOURT) Tj ET\n" +
		"BT /F1 10 Tf 50 701 Td (3001234567892) Tj ET\n" +
		"BT /F1 10 Tf 50 680 Td (CREME) Tj ET\n"

	pages, err := r.Pages(context.Background(), buildPDFStream(stream))

	require.NoError(t, err)
	assert.Equal(t, []string{"3001234567892 YAOURT 24", "CREME"}, core.SplitLines(pages[0]))
}

func TestReader_Pages_BrokenContentStream(t *testing.T) {
	r := pdftext.NewReader(nil)
	// Td with one operand makes the content interpreter panic
	stream := "BT /F1 10 Tf 50 Td (Commande n 123456) Tj ET\n"

	var err error
	require.NotPanics(t, func() {
		_, err = r.Pages(context.Background(), buildPDFStream(stream))
	})
	assert.ErrorIs(t, err, pdftext.ErrNoText)
}

func TestReader_Pages_Unreadable(t *testing.T) {
	r := pdftext.NewReader(nil)
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not a pdf", data: []byte("PK\x03\x04 this is a zip file")},
		{name: "header only", data: []byte("%PDF-1.4\n%%EOF\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Pages(context.Background(), tt.data)
			assert.ErrorIs(t, err, pdftext.ErrDocumentUnreadable)
		})
	}
}

func TestReader_Pages_NoText(t *testing.T) {
	r := pdftext.NewReader(nil)

	_, err := r.Pages(context.Background(), buildPDF())

	assert.ErrorIs(t, err, pdftext.ErrNoText)
	assert.ErrorIs(t, err, core.ErrNoText)
}
