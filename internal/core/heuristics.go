package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	orderNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)commande\s*n[°º]?\s*[:\s-]*?(\d{5,10})\b`),
		regexp.MustCompile(`(?i)n[°º]?\s*commande\s*[:\s-]*?(\d{5,10})\b`),
		regexp.MustCompile(`(?i)bon\s+de\s+livraison\s+nr\.?\s*[:\s-]*?(\d{5,10})\b`),
	}
	bareOrderNumberPattern = regexp.MustCompile(`\b(\d{6,10})\b`)

	productIDCandidate = regexp.MustCompile(`\b\d{13}\b`)
	articleCodeToken   = regexp.MustCompile(`^\d{2,6}$`)
	integerQtyToken    = regexp.MustCompile(`^\d{1,5}$`)
	rowIndexToken      = regexp.MustCompile(`^\d{1,4}$`)
	decimalQtyToken    = regexp.MustCompile(`^(\d+)([.,]\d+)?$`)
	// matched against folded text, so "Qté" and "Quantité" are covered
	labelledQty = regexp.MustCompile(`\b(?:qte|qty|quantite)\s*[:=]?\s*(\d{1,5})\b`)
)

// DefaultForbiddenPrefixes are GS1 location-number prefixes that look like EAN-13
// codes but identify places, not products.
var DefaultForbiddenPrefixes = []string{"302", "376"}

// OrderNumberFinder locates order numbers in free text.
type OrderNumberFinder struct {
	// AllowBareDigits enables the fallback that accepts any 6-10 digit run.
	AllowBareDigits bool
}

// Find returns the distinct order numbers in text, in pattern order then match order.
func (f OrderNumberFinder) Find(text string) []string {
	if text == "" {
		return nil
	}
	patterns := orderNumberPatterns
	if f.AllowBareDigits {
		patterns = append(append([]*regexp.Regexp{}, orderNumberPatterns...), bareOrderNumberPattern)
	}

	var found []string
	seen := make(map[string]bool)
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				found = append(found, m[1])
			}
		}
	}
	return found
}

// ProductIDValidator decides whether a 13-digit string is a product identifier.
type ProductIDValidator struct {
	ForbiddenPrefixes []string
}

// NewProductIDValidator returns a validator rejecting the given prefixes,
// or DefaultForbiddenPrefixes when none are given.
func NewProductIDValidator(forbidden ...string) ProductIDValidator {
	if len(forbidden) == 0 {
		forbidden = DefaultForbiddenPrefixes
	}
	return ProductIDValidator{ForbiddenPrefixes: forbidden}
}

// Valid reports whether code is 13 digits, has no forbidden prefix and carries a
// correct EAN-13 check digit.
func (v ProductIDValidator) Valid(code string) bool {
	if len(code) != 13 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	for _, p := range v.ForbiddenPrefixes {
		if p != "" && strings.HasPrefix(code, p) {
			return false
		}
	}
	return ean13CheckDigit(code[:12]) == int(code[12]-'0')
}

func ean13CheckDigit(body string) int {
	sum := 0
	for i := 0; i < len(body); i++ {
		d := int(body[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

// FindProductID returns the first valid product identifier on the line.
func (v ProductIDValidator) FindProductID(line string) (string, bool) {
	for _, c := range productIDCandidate.FindAllString(line, -1) {
		if v.Valid(c) {
			return c, true
		}
	}
	return "", false
}

// productIndex returns the index of the token carrying productID, preferring an exact token.
func productIndex(tokens []string, productID string) int {
	loose := -1
	for i, t := range tokens {
		if t == productID {
			return i
		}
		if loose < 0 && strings.Contains(t, productID) {
			loose = i
		}
	}
	return loose
}

// rowIndexAt returns the index of a leading row number, or -1.
func rowIndexAt(tokens []string, productIdx int) int {
	if productIdx > 0 && rowIndexToken.MatchString(tokens[0]) {
		return 0
	}
	return -1
}

// GuessQuantityAndArticle recovers the article code and ordered quantity from a
// purchase-order line. ok is false when no quantity can be told apart on the line.
func GuessQuantityAndArticle(tokens []string, productID string) (articleCode string, qty int64, ok bool) {
	pi := productIndex(tokens, productID)
	if pi < 0 {
		return "", 0, false
	}
	articleIdx := -1
	if pi > 0 && articleCodeToken.MatchString(tokens[pi-1]) {
		articleIdx = pi - 1
		articleCode = tokens[pi-1]
	}

	if m := labelledQty.FindStringSubmatch(Fold(strings.Join(tokens, " "))); m != nil {
		if n, err := decimal.NewFromString(m[1]); err == nil {
			return articleCode, n.IntPart(), true
		}
	}

	rowIdx := rowIndexAt(tokens, pi)
	for i := len(tokens) - 1; i >= 0; i-- {
		if i == pi || i == articleIdx || i == rowIdx {
			continue
		}
		if integerQtyToken.MatchString(tokens[i]) {
			n, err := decimal.NewFromString(tokens[i])
			if err != nil {
				continue
			}
			return articleCode, n.IntPart(), true
		}
	}
	return articleCode, 0, false
}

// GuessDeliveredQty recovers the delivered quantity from a delivery-note line.
// The token right after the product id wins; otherwise the last numeric token.
func GuessDeliveredQty(tokens []string, productID string) (decimal.Decimal, bool) {
	pi := productIndex(tokens, productID)
	if pi < 0 {
		return decimal.Zero, false
	}
	if pi+1 < len(tokens) {
		if q, ok := parseDeliveredToken(tokens[pi+1]); ok {
			return q, true
		}
	}
	rowIdx := rowIndexAt(tokens, pi)
	for i := len(tokens) - 1; i >= 0; i-- {
		if i == pi || i == rowIdx {
			continue
		}
		if q, ok := parseDeliveredToken(tokens[i]); ok {
			return q, true
		}
	}
	return decimal.Zero, false
}

func parseDeliveredToken(tok string) (decimal.Decimal, bool) {
	m := decimalQtyToken.FindStringSubmatch(tok)
	if m == nil || len(m[1]) >= 6 {
		return decimal.Zero, false
	}
	q, err := decimal.NewFromString(strings.Replace(tok, ",", ".", 1))
	if err != nil {
		return decimal.Zero, false
	}
	return q, true
}
