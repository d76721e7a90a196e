package parser

import (
	"fmt"
	"regexp"
	"strconv"
)

const dateKeyword = `\b(?:fecha|date|emision)(?:\s+(?:de\s+)?(?:factura|emision|expedicion|invoice))?[\s:.]*`

// dateRule is one step of the date cascade. dayFirst selects dd/mm/yyyy
// group order over yyyy/mm/dd.
type dateRule struct {
	re       *regexp.Regexp
	dayFirst bool
}

// dateRules are tried in order over accent-folded text: keyword-anchored
// shapes first, then the same shapes anywhere.
var dateRules = []dateRule{
	{regexp.MustCompile(dateKeyword + `(\d{1,2})[/\-](\d{1,2})[/\-](\d{4})\b`), true},
	{regexp.MustCompile(dateKeyword + `(\d{4})[/\-](\d{1,2})[/\-](\d{1,2})\b`), false},
	{regexp.MustCompile(`\b(\d{1,2})[/\-](\d{1,2})[/\-](\d{4})\b`), true},
	{regexp.MustCompile(`\b(\d{4})[/\-](\d{1,2})[/\-](\d{1,2})\b`), false},
}

// ExtractDate returns the invoice date as YYYY-MM-DD. The first match with
// day in 1..31 and month in 1..12 wins; calendar validity is not checked.
func ExtractDate(text string) (string, bool) {
	folded := fold(text)
	for _, rule := range dateRules {
		for _, m := range rule.re.FindAllStringSubmatch(folded, -1) {
			var day, month, year int
			if rule.dayFirst {
				day, month, year = atoi(m[1]), atoi(m[2]), atoi(m[3])
			} else {
				year, month, day = atoi(m[1]), atoi(m[2]), atoi(m[3])
			}
			if day < 1 || day > 31 || month < 1 || month > 12 {
				continue
			}
			return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
		}
	}
	return "", false
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
