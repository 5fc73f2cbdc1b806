package core

import (
	"regexp"
	"slices"
)

var (
	sectionStart = regexp.MustCompile(`ref\.?\s*frn|code\s*ean|reference`)
	sectionEnd   = regexp.MustCompile(`recapitulatif|page\s+\d+`)
)

// Extractor holds the heuristics shared by both document kinds.
type Extractor struct {
	Orders   OrderNumberFinder
	Products ProductIDValidator
}

// NewExtractor builds an Extractor with the default product-id rules.
func NewExtractor(allowBareOrderNumbers bool, forbiddenPrefixes ...string) Extractor {
	return Extractor{
		Orders:   OrderNumberFinder{AllowBareDigits: allowBareOrderNumbers},
		Products: NewProductIDValidator(forbiddenPrefixes...),
	}
}

// docState is the accumulator threaded through the lines of one document.
// Steps return a new value and never write through to an earlier one.
type docState struct {
	insideData bool
	order      string
	seen       []string
}

func (s docState) currentOrder() string {
	if s.order == "" {
		return NoOrderNumber
	}
	return s.order
}

// withOrderFrom updates the current order number when the line names one.
func (s docState) withOrderFrom(f OrderNumberFinder, line string) docState {
	nums := f.Find(line)
	if len(nums) == 0 {
		return s
	}
	s.order = nums[0]
	if !slices.Contains(s.seen, s.order) {
		// cap the slice so append copies instead of sharing a backing array
		s.seen = append(s.seen[:len(s.seen):len(s.seen)], s.order)
	}
	return s
}

// commandStep advances the purchase-order state machine by one line.
func (e Extractor) commandStep(s docState, line string) (docState, *RawOrderLine) {
	s = s.withOrderFrom(e.Orders, line)

	folded := Fold(line)
	if sectionStart.MatchString(folded) {
		s.insideData = true
		return s, nil
	}
	if sectionEnd.MatchString(folded) {
		s.insideData = false
		return s, nil
	}
	if !s.insideData {
		return s, nil
	}

	id, ok := e.Products.FindProductID(line)
	if !ok {
		return s, nil
	}
	article, qty, ok := GuessQuantityAndArticle(Fields(line), id)
	if !ok {
		return s, nil
	}
	return s, &RawOrderLine{
		ProductID:   id,
		ArticleCode: article,
		OrderedQty:  qty,
		OrderNumber: s.currentOrder(),
	}
}

// ExtractCommand turns the pages of one purchase-order document into order lines.
// It also returns the order number in force after the last line and every order
// number seen, in first-seen order.
func (e Extractor) ExtractCommand(pages []string) ([]RawOrderLine, string, []string) {
	var s docState
	var out []RawOrderLine
	for _, page := range pages {
		for _, line := range SplitLines(page) {
			var rec *RawOrderLine
			s, rec = e.commandStep(s, line)
			if rec != nil {
				out = append(out, *rec)
			}
		}
	}
	return out, s.currentOrder(), s.seen
}
