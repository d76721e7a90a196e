package parser

import "regexp"

// usefulSignals are the independent invoice indicators counted by
// HasUsefulContent.
var usefulSignals = []*regexp.Regexp{
	regexp.MustCompile(`\d+[.,]\d{2}`),
	regexp.MustCompile(`(?i)iva`),
	regexp.MustCompile(`(?i)factura`),
	regexp.MustCompile(`(?i)total`),
	regexp.MustCompile(`[A-Z]\d{8}`),
	regexp.MustCompile(`\d{8}[A-Z]`),
}

// HasUsefulContent reports whether text looks like an invoice worth parsing.
// Text shorter than 50 bytes is always rejected; otherwise at least two of
// the six indicators must be present.
func HasUsefulContent(text string) bool {
	if len(text) < minUsefulLength {
		return false
	}

	matches := 0
	for _, re := range usefulSignals {
		if re.MatchString(text) {
			matches++
			if matches >= minUsefulSignals {
				return true
			}
		}
	}
	return false
}
