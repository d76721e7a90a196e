package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// amountFormat identifies which numeral family produced a candidate.
type amountFormat int

const (
	formatSpanish       amountFormat = iota // 1.234,56
	formatInternational                     // 1,234.56
	formatBare                              // 1234,56 or 1234.56
)

// amountCandidate is a normalized monetary literal and the format that
// matched it.
type amountCandidate struct {
	value  decimal.Decimal
	format amountFormat
}

type amountPass struct {
	re        *regexp.Regexp
	format    amountFormat
	normalize func(string) string
}

var amountPasses = []amountPass{
	{
		re:     regexp.MustCompile(`\d{1,3}(?:\.\d{3})*,\d{2}`),
		format: formatSpanish,
		normalize: func(s string) string {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		},
	},
	{
		re:     regexp.MustCompile(`\d{1,3}(?:,\d{3})*\.\d{2}`),
		format: formatInternational,
		normalize: func(s string) string {
			return strings.ReplaceAll(s, ",", "")
		},
	},
	{
		re:     regexp.MustCompile(`\d+[.,]\d{2}`),
		format: formatBare,
		normalize: func(s string) string {
			return strings.Replace(s, ",", ".", 1)
		},
	},
}

// ExtractAmounts returns every monetary literal in text, normalized,
// deduplicated by value and sorted in strictly descending order.
func ExtractAmounts(text string) []decimal.Decimal {
	candidates := extractCandidates(text)
	amounts := make([]decimal.Decimal, len(candidates))
	for i, c := range candidates {
		amounts[i] = c.value
	}
	return amounts
}

func extractCandidates(text string) []amountCandidate {
	var candidates []amountCandidate
	for _, pass := range amountPasses {
		for _, loc := range pass.re.FindAllStringIndex(text, -1) {
			if !standalone(text, loc[0], loc[1]) {
				continue
			}
			v, err := decimal.NewFromString(pass.normalize(text[loc[0]:loc[1]]))
			if err != nil {
				continue
			}
			if containsAmount(candidates, v) {
				continue
			}
			candidates = append(candidates, amountCandidate{value: v, format: pass.format})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].value.GreaterThan(candidates[j].value)
	})
	return candidates
}

func containsAmount(candidates []amountCandidate, v decimal.Decimal) bool {
	for _, c := range candidates {
		if c.value.Equal(v) {
			return true
		}
	}
	return false
}

// standalone reports whether text[start:end] is a complete numeral rather
// than a slice of a longer one such as "1234,56" or "15.03.2024".
func standalone(text string, start, end int) bool {
	if start > 0 {
		prev := text[start-1]
		if isDigit(prev) {
			return false
		}
		if (prev == '.' || prev == ',') && start > 1 && isDigit(text[start-2]) {
			return false
		}
	}
	if end < len(text) {
		next := text[end]
		if isDigit(next) {
			return false
		}
		if (next == '.' || next == ',') && end+1 < len(text) && isDigit(text[end+1]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

var amountNoise = regexp.MustCompile(`[^\d.,\-]`)

// ParseAmount normalizes a printed amount. Currency symbols and whitespace
// are dropped. When both '.' and ',' appear, the one printed last is the
// decimal separator. A single ',' is a decimal separator; a separator that
// repeats with no other present is thousands grouping.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = amountNoise.ReplaceAllString(s, "")
	s = strings.Trim(s, ".,")
	if s == "" {
		return decimal.Decimal{}, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
