package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// taxIDPattern matches a CIF (company), NIF (individual) or NIE (foreign
// resident) shaped token.
var taxIDPattern = regexp.MustCompile(`(?i)\b(?:[ABCDEFGHJNPQRSUVW]\d{8}|\d{8}[A-Z]|[XYZ]\d{7}[A-Z])\b`)

// taxIDPosition is a tax ID occurrence and whether its surroundings say it
// belongs to the customer.
type taxIDPosition struct {
	id       string
	offset   int
	isClient bool
}

// ExtractNIF returns the supplier's Spanish tax ID, uppercased.
//
// Suppliers are conventionally printed first, so the earliest occurrence not
// preceded by a client indicator wins. If every occurrence looks like a
// client's, the earliest overall is returned; a document carrying only the
// client's ID therefore yields the client's ID.
func ExtractNIF(text string) (string, bool) {
	positions := findTaxIDs(text)
	if len(positions) == 0 {
		return "", false
	}

	for _, p := range positions {
		if !p.isClient {
			return p.id, true
		}
	}
	return positions[0].id, true
}

// findTaxIDs returns every tax ID in text in offset order.
func findTaxIDs(text string) []taxIDPosition {
	locs := taxIDPattern.FindAllStringIndex(text, -1)
	positions := make([]taxIDPosition, 0, len(locs))
	for _, loc := range locs {
		start := runesBefore(text, loc[0], clientWindow)
		positions = append(positions, taxIDPosition{
			id:       strings.ToUpper(text[loc[0]:loc[1]]),
			offset:   loc[0],
			isClient: containsAny(fold(text[start:loc[0]]), ClientIndicators),
		})
	}
	return positions
}

// runesBefore returns the offset n runes before end, or 0.
func runesBefore(text string, end, n int) int {
	for ; n > 0 && end > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(text[:end])
		end -= size
	}
	return end
}
