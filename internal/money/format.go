// Package money renders amounts the way Spanish invoices print them.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders d with two decimals, "." thousands grouping and a ","
// decimal separator: 1234.5 becomes "1.234,50".
func Format(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() && !d.Round(2).IsZero() {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// FormatEUR is Format followed by the euro sign.
func FormatEUR(d decimal.Decimal) string {
	return Format(d) + " €"
}

// FormatRate renders a percentage without trailing zeros: "21%", "5,5%".
func FormatRate(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1) + "%"
}

// FormatNull renders a nullable amount, or "" when it is absent.
func FormatNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return FormatEUR(d.Decimal)
}
