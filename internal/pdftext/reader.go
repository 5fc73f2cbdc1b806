// Package pdftext turns PDF bytes into plain text, one string per page.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"desathor/internal/core"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

// Re-exported so callers need not import core just to test errors.
var (
	ErrDocumentUnreadable = core.ErrDocumentUnreadable
	ErrNoText             = core.ErrNoText
)

func init() {
	api.DisableConfigDir()
}

// Reader extracts page texts.
type Reader struct {
	logger *logrus.Logger
}

var _ core.PageSource = (*Reader)(nil)

// NewReader returns a Reader. A nil logger disables debug output.
func NewReader(logger *logrus.Logger) *Reader {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &Reader{logger: logger}
}

// Pages validates the document and returns the text of each page, rows separated by newlines.
func (r *Reader) Pages(ctx context.Context, data []byte) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("%w: parser panic: %v", ErrDocumentUnreadable, rec)
		}
	}()

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrDocumentUnreadable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, err := preflight(data)
	if err != nil {
		return nil, err
	}

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}

	pages = make([]string, 0, n)
	hasText := false
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := pageText(doc.Page(i))
		if err != nil {
			r.logger.WithFields(logrus.Fields{"page": i}).WithError(err).Debug("page text extraction failed")
			text = ""
		}
		if strings.TrimSpace(text) != "" {
			hasText = true
		}
		pages = append(pages, text)
	}
	if !hasText {
		return nil, ErrNoText
	}
	return pages, nil
}

// preflight checks structure and encryption before the text parser sees the file.
func preflight(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no pages", ErrDocumentUnreadable)
	}
	return n, nil
}

// Glyphs closer than rowTolerance points vertically share a row.
const rowTolerance = 2.0

type textRow struct {
	y      float64
	glyphs []pdf.Text
}

// pageText rebuilds the visual rows of a page from positioned glyphs, top to
// bottom. A broken content stream only costs its own page.
func pageText(p pdf.Page) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("content stream: %v", rec)
		}
	}()
	if p.V.IsNull() {
		return "", nil
	}

	var b strings.Builder
	for _, row := range groupRows(p.Content().Text) {
		line := joinRow(row.glyphs)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func groupRows(texts []pdf.Text) []textRow {
	var rows []textRow
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		placed := false
		for i := range rows {
			if math.Abs(rows[i].y-t.Y) < rowTolerance {
				rows[i].glyphs = append(rows[i].glyphs, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, textRow{y: t.Y, glyphs: []pdf.Text{t}})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	return rows
}

// joinRow orders glyphs left to right and starts a new word wherever the
// horizontal gap is wider than a fraction of the font size. Fonts without
// width tables report W=0, so glyphs of one show operator share an X and keep
// their stream order.
func joinRow(glyphs []pdf.Text) string {
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var b strings.Builder
	var end float64
	for i, g := range glyphs {
		if i > 0 && g.X-end > wordGap(g.FontSize) {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		if e := g.X + g.W; i == 0 || e > end {
			end = e
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func wordGap(fontSize float64) float64 {
	return math.Max(fontSize*0.2, 1)
}
