package parser

import (
	"regexp"
	"strings"
)

// invoiceNumberRules are tried in order; within a rule every match is
// considered before moving on.
var invoiceNumberRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:(?:factura|invoice)(?:\s+(?:n[uú]mero|number))?|n[uú]mero|n[º°])[ \t]*(?:n[º°o]\.?)?[ \t]*[:#.]?[ \t]*([A-Z0-9][A-Z0-9\-/]*)`),
	regexp.MustCompile(`(?i)\b(?:fra|fact)\.?[ \t]*(?:n[º°]\.?)?[ \t]*[:#.]?[ \t]*([A-Z0-9][A-Z0-9\-/]*)`),
	regexp.MustCompile(`\b(\d{4}[\-/]\d{3,6})\b`),
}

var hasDigit = regexp.MustCompile(`\d`)

// ExtractInvoiceNumber returns the invoice's number. Candidates must be 3 to
// 30 characters long and contain a digit, which keeps words that follow a
// label ("Factura simplificada", "Invoice date") from being taken as numbers.
// A candidate that is the integer part of an amount ("Total factura: 121,00")
// is skipped.
func ExtractInvoiceNumber(text string) (string, bool) {
	for _, re := range invoiceNumberRules {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if continuesAsAmount(text, m[3]) {
				continue
			}
			num := strings.Trim(text[m[2]:m[3]], "-/")
			if len(num) < minInvoiceNumLen || len(num) > maxInvoiceNumLen {
				continue
			}
			if !hasDigit.MatchString(num) {
				continue
			}
			return num, true
		}
	}
	return "", false
}

// continuesAsAmount reports whether text at end continues with a decimal
// separator and a digit.
func continuesAsAmount(text string, end int) bool {
	if end+1 >= len(text) {
		return false
	}
	c := text[end]
	return (c == ',' || c == '.') && text[end+1] >= '0' && text[end+1] <= '9'
}
