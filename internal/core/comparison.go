package core

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingInput means a run was requested without purchase orders or without delivery notes.
	ErrMissingInput = errors.New("at least one purchase order and one delivery note are required")
	// ErrDocumentUnreadable wraps any failure to open or parse a document.
	ErrDocumentUnreadable = errors.New("document unreadable")
	// ErrNoText means the document parsed but carries no extractable text (scanned images).
	ErrNoText = errors.New("document has no extractable text")
)

// DocumentKind tells purchase orders and delivery notes apart.
type DocumentKind string

const (
	KindOrder    DocumentKind = "commande"
	KindDelivery DocumentKind = "bl"
)

// Document is one uploaded file.
type Document struct {
	Name string
	Data []byte
}

// PageSource turns raw document bytes into one text blob per page.
type PageSource interface {
	Pages(ctx context.Context, data []byte) ([]string, error)
}

// WarningKind classifies a per-file problem that did not stop the run.
type WarningKind string

const (
	WarnUnreadable    WarningKind = "UNREADABLE"
	WarnNoText        WarningKind = "NO_TEXT"
	WarnNoRecords     WarningKind = "NO_RECORDS"
	WarnNoOrderNumber WarningKind = "NO_ORDER_NUMBER"
)

// Warning is a non-fatal per-file problem.
type Warning struct {
	File    string       `json:"file"`
	Kind    WarningKind  `json:"kind"`
	Message string       `json:"message"`
	DocKind DocumentKind `json:"doc_kind"`
}

// FileStats describes what one document contributed to a run.
type FileStats struct {
	File         string       `json:"file"`
	DocKind      DocumentKind `json:"doc_kind"`
	Pages        int          `json:"pages"`
	Records      int          `json:"records"`
	OrderNumbers []string     `json:"order_numbers"`
}

// ComparisonResult is everything one run produced.
type ComparisonResult struct {
	OrderLines    []RawOrderLine           `json:"-"`
	DeliveryLines []RawDeliveryLine        `json:"-"`
	Orders        map[string]OrderTable    `json:"-"`
	Deliveries    map[string]DeliveryTable `json:"deliveries"`
	Reconciled    ReconciliationSet        `json:"reconciled"`
	Summaries     []OrderSummary           `json:"summaries"`
	Unmatched     []UnmatchedDelivery      `json:"unmatched_deliveries"`
	Warnings      []Warning                `json:"warnings"`
	Files         []FileStats              `json:"files"`
}

// Summary returns the summary of one order number.
func (r *ComparisonResult) Summary(orderNumber string) (OrderSummary, bool) {
	for _, s := range r.Summaries {
		if s.OrderNumber == orderNumber {
			return s, true
		}
	}
	return OrderSummary{}, false
}

// Comparator runs the whole reconciliation over a batch of documents.
type Comparator struct {
	Source    PageSource
	Extractor Extractor
}

// NewComparator wires a page source to an extractor.
func NewComparator(src PageSource, ext Extractor) *Comparator {
	return &Comparator{Source: src, Extractor: ext}
}

// Run extracts, aggregates and reconciles. Files are processed sequentially in input
// order; a file that cannot be read contributes a warning and no records.
func (c *Comparator) Run(ctx context.Context, orderDocs, deliveryDocs []Document) (*ComparisonResult, error) {
	if len(orderDocs) == 0 || len(deliveryDocs) == 0 {
		return nil, ErrMissingInput
	}

	res := &ComparisonResult{}
	for _, doc := range orderDocs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages, ok := c.pages(ctx, doc, KindOrder, res)
		if !ok {
			continue
		}
		recs, _, nums := c.Extractor.ExtractCommand(pages)
		res.OrderLines = append(res.OrderLines, recs...)
		c.record(res, doc, KindOrder, len(pages), len(recs), nums)
	}
	for _, doc := range deliveryDocs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages, ok := c.pages(ctx, doc, KindDelivery, res)
		if !ok {
			continue
		}
		recs, _, nums := c.Extractor.ExtractDelivery(pages)
		res.DeliveryLines = append(res.DeliveryLines, recs...)
		c.record(res, doc, KindDelivery, len(pages), len(recs), nums)
	}

	res.Orders = AggregateOrders(res.OrderLines)
	res.Deliveries = AggregateDeliveries(res.DeliveryLines)
	res.Reconciled = ReconcileAll(res.Orders, res.Deliveries)
	res.Summaries = SummarizeAll(res.Reconciled)
	res.Unmatched = UnmatchedDeliveries(res.Orders, res.Deliveries)
	return res, nil
}

func (c *Comparator) pages(ctx context.Context, doc Document, kind DocumentKind, res *ComparisonResult) ([]string, bool) {
	pages, err := c.Source.Pages(ctx, doc.Data)
	if err == nil {
		return pages, true
	}
	w := Warning{File: doc.Name, DocKind: kind, Kind: WarnUnreadable, Message: err.Error()}
	if errors.Is(err, ErrNoText) {
		w.Kind = WarnNoText
	}
	res.Warnings = append(res.Warnings, w)
	res.Files = append(res.Files, FileStats{File: doc.Name, DocKind: kind})
	return nil, false
}

func (c *Comparator) record(res *ComparisonResult, doc Document, kind DocumentKind, pages, records int, nums []string) {
	res.Files = append(res.Files, FileStats{
		File:         doc.Name,
		DocKind:      kind,
		Pages:        pages,
		Records:      records,
		OrderNumbers: nums,
	})
	switch {
	case records == 0:
		res.Warnings = append(res.Warnings, Warning{
			File: doc.Name, DocKind: kind, Kind: WarnNoRecords,
			Message: fmt.Sprintf("no item lines recognised in %d page(s)", pages),
		})
	case len(nums) == 0:
		res.Warnings = append(res.Warnings, Warning{
			File: doc.Name, DocKind: kind, Kind: WarnNoOrderNumber,
			Message: fmt.Sprintf("%d line(s) filed under %s", records, NoOrderNumber),
		})
	}
}
