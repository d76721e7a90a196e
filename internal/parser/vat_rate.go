package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const ivaToken = `i\.?v\.?a\.?`

var vatRateRules = []*regexp.Regexp{
	// 21% IVA, 21 % de IVA
	regexp.MustCompile(`(?i)\b(\d{1,2}(?:[.,]\d+)?)\s*%\s*(?:de\s+)?` + ivaToken),
	// IVA 21%, IVA al 21 %, IVA: 21%
	regexp.MustCompile(`(?i)\b` + ivaToken + `[\s:]*(?:al\s+|del\s+)?(\d{1,2}(?:[.,]\d+)?)\s*%`),
	// Tipo IVA: 21, tipo de IVA 21
	regexp.MustCompile(`(?i)tipo\s*(?:de\s*)?` + ivaToken + `[\s:]*(\d{1,2}(?:[.,]\d+)?)`),
	// IVA (21%)
	regexp.MustCompile(`(?i)\b` + ivaToken + `\s*\(\s*(\d{1,2}(?:[.,]\d+)?)\s*%?\s*\)`),
}

// ivaMention is "IVA" followed by a digit shortly after; it justifies
// assuming the general rate when no explicit rate was found.
var ivaMention = regexp.MustCompile(`(?i)\biva\b[^\d]{0,20}\d`)

// ExtractVATRate returns the IVA rate as a whole percentage. Only the
// canonical Spanish rates are accepted; any other captured number is ignored
// rather than rounded to a neighbour.
func ExtractVATRate(text string) (decimal.Decimal, bool) {
	for _, re := range vatRateRules {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if rate, ok := canonicalRate(m[1]); ok {
				return decimal.NewFromInt(rate), true
			}
		}
	}
	if ivaMention.MatchString(text) {
		return decimal.NewFromInt(DefaultVATRate), true
	}
	return decimal.Decimal{}, false
}

// canonicalRate takes the integer part of a captured rate and checks it
// against CanonicalVATRates.
func canonicalRate(s string) (int64, bool) {
	if i := strings.IndexAny(s, ".,"); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	for _, r := range CanonicalVATRates {
		if n == r {
			return n, true
		}
	}
	return 0, false
}
