package parser

import (
	"regexp"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	// labelSnap is how far a labeled number may sit from a candidate and
	// still be taken as that candidate.
	labelSnap = decimal.RequireFromString("0.05")
	// mathTolerance bounds |base × rate - (total - base)|.
	mathTolerance = decimal.RequireFromString("0.10")
	hundred       = decimal.NewFromInt(100)
)

// labeledNumber must end the numeral: "121,005" and "9.999" are not
// read as "121,00" and "9.99".
const labeledNumber = `[\s:€$]*(\d[\d.,]*[.,]\d{2})(?:[^\d]|$)`

var (
	totalLabel = regexp.MustCompile(`(?i)(sub[\s\-]*)?total(?:\s+(?:factura|a\s+pagar|importe|eur|euros))?\s*(?:\([^)\n]{0,30}\))?` + labeledNumber)
	baseLabel  = regexp.MustCompile(`(?i)(?:sub[\s\-]*total|base\s+imponible)\s*(?:\([^)\n]{0,30}\))?` + labeledNumber)
	vatLabel   = regexp.MustCompile(`(?i)(?:\d{1,2}(?:[.,]\d+)?\s*%\s*)?(?:cuota\s+)?\biva\b(?:\s*\(?\s*\d{1,2}(?:[.,]\d+)?\s*%\s*\)?)?` + labeledNumber)
)

// LabelAmounts decides which candidates are the taxable base, the VAT amount
// and the total.
//
// Three strategies run in order and a field keeps the first value assigned:
//
//  1. Labels in the text ("Total", "Base imponible", "IVA"), snapped to a
//     candidate within 0.05. Confidence high.
//  2. Reconciliation over candidate pairs: the first (total, base) in
//     descending order whose difference is another candidate, or matches
//     base × rate within 0.10, is taken. Confidence high for total and base,
//     calculated for VAT. The search is greedy, not optimal.
//  3. Position: the largest candidate is the total and the second largest
//     the base. Confidence low. VAT is never guessed here.
//
// candidates must be sorted in descending order, as ExtractAmounts returns
// them. An invalid rateHint means the general 21% rate.
func LabelAmounts(text string, candidates []decimal.Decimal, rateHint decimal.NullDecimal) Labeled {
	l := Labeled{Confidence: make(map[Field]Confidence)}
	if len(candidates) == 0 {
		return l
	}

	labelFromText(&l, text, candidates)
	if l.Total.Valid && l.Base.Valid && l.VAT.Valid {
		return l
	}

	if len(candidates) >= 2 && reconcile(&l, candidates, rateHint) {
		return l
	}

	if !l.Total.Valid {
		l.set(FieldTotalAmount, candidates[0], ConfidenceLow)
	}
	if !l.Base.Valid && len(candidates) > 1 && candidates[1].LessThan(l.Total.Decimal) {
		l.set(FieldBaseAmount, candidates[1], ConfidenceLow)
	}
	return l
}

func labelFromText(l *Labeled, text string, candidates []decimal.Decimal) {
	// Only the last non-"subtotal" total counts: grand totals close the
	// document. If its number matches no candidate the total stays unlabeled.
	last := ""
	for _, m := range totalLabel.FindAllStringSubmatch(text, -1) {
		if m[1] == "" {
			last = m[2]
		}
	}
	if last != "" {
		if v, ok := snapLabeled(last, candidates); ok {
			l.set(FieldTotalAmount, v, ConfidenceHigh)
		}
	}

	if v, ok := firstLabeled(baseLabel, text, candidates); ok {
		l.set(FieldBaseAmount, v, ConfidenceHigh)
	}
	if v, ok := firstLabeled(vatLabel, text, candidates); ok {
		l.set(FieldVATAmount, v, ConfidenceHigh)
	}
}

func firstLabeled(re *regexp.Regexp, text string, candidates []decimal.Decimal) (decimal.Decimal, bool) {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if v, ok := snapLabeled(m[len(m)-1], candidates); ok {
			return v, true
		}
	}
	return decimal.Decimal{}, false
}

// snapLabeled parses a labeled number and returns the candidate it is within
// labelSnap of.
func snapLabeled(s string, candidates []decimal.Decimal) (decimal.Decimal, bool) {
	v, ok := ParseAmount(s)
	if !ok {
		return decimal.Decimal{}, false
	}
	i := nearest(candidates, v)
	if i < 0 || candidates[i].Sub(v).Abs().GreaterThanOrEqual(labelSnap) {
		return decimal.Decimal{}, false
	}
	return candidates[i], true
}

func reconcile(l *Labeled, candidates []decimal.Decimal, rateHint decimal.NullDecimal) bool {
	rate := decimal.NewFromInt(DefaultVATRate)
	if rateHint.Valid {
		rate = rateHint.Decimal
	}
	rate = rate.Div(hundred)

	for ti, total := range candidates {
		if l.Total.Valid && !total.Equal(l.Total.Decimal) {
			continue
		}
		for bi, base := range candidates {
			if !total.GreaterThan(base) {
				continue
			}
			if l.Base.Valid && !base.Equal(l.Base.Decimal) {
				continue
			}

			diff := total.Sub(base).Round(2)
			expectedVAT := base.Mul(rate).Round(2)
			mathMatches := expectedVAT.Sub(diff).Abs().LessThan(mathTolerance)
			if !mathMatches && !hasOtherCandidate(candidates, diff, ti, bi) {
				continue
			}

			if !l.Total.Valid {
				l.set(FieldTotalAmount, total, ConfidenceHigh)
			}
			if !l.Base.Valid {
				l.set(FieldBaseAmount, base, ConfidenceHigh)
			}
			if !l.VAT.Valid {
				l.set(FieldVATAmount, diff, ConfidenceCalculated)
			}
			return true
		}
	}
	return false
}

// hasOtherCandidate reports whether some candidate other than the total and
// base under test lies within labelSnap of v.
func hasOtherCandidate(candidates []decimal.Decimal, v decimal.Decimal, skip ...int) bool {
	lo := v.Sub(labelSnap)
	hi := v.Add(labelSnap)
	// candidates are descending: find the first index whose value is < hi.
	start := sort.Search(len(candidates), func(i int) bool {
		return candidates[i].LessThan(hi)
	})
	for i := start; i < len(candidates) && candidates[i].GreaterThan(lo); i++ {
		if !containsIndex(skip, i) {
			return true
		}
	}
	return false
}

// nearest returns the index of the candidate closest to v, or -1.
func nearest(candidates []decimal.Decimal, v decimal.Decimal) int {
	best := -1
	var bestDist decimal.Decimal
	for i, c := range candidates {
		d := c.Sub(v).Abs()
		if best < 0 || d.LessThan(bestDist) {
			best, bestDist = i, d
		}
	}
	return best
}

func containsIndex(indexes []int, i int) bool {
	for _, x := range indexes {
		if x == i {
			return true
		}
	}
	return false
}
