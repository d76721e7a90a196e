package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	acronymPattern       = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	technicalTermPattern = regexp.MustCompile(`\b(?:` + strings.Join(TechnicalTerms, "|") + `)\b`)
	noiseWordPattern     = regexp.MustCompile(`(?i)^(?:` + strings.Join(NoiseWords, "|") + `)\b[\s:.\-]*`)
	lineLabelPattern     = regexp.MustCompile(`^(?:(?:` + strings.Join(LineLabels, "|") + `)\b|n[º°]|www\.|https?:)`)
	dateShapePattern     = regexp.MustCompile(`\b\d{1,4}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`)
	amountShapePattern   = regexp.MustCompile(`\d[.,]\d{2}\b`)
	numericLinePattern   = regexp.MustCompile(`^[\d\s.,:;/\-+€$%()#*]+$`)
	edgePunctuation      = " \t:;,.-|·*"
)

// taxIDLabelSuffix is a tax ID label ending just before the ID itself.
var taxIDLabelSuffix = regexp.MustCompile(`(?i)\b(?:NIF/CIF|CIF/NIF|NIF|CIF|NIE|DNI|VAT(?:\s+ID)?|TAX\s+ID)\b\s*[:.\-]?\s*$`)

// ExtractSupplierName guesses the supplier's company name.
//
// When the supplier's tax ID is known, the line carrying it is tried first
// with the ID and its label removed. Otherwise the first plausible line in
// the document header is used.
func ExtractSupplierName(text, nif string) (string, bool) {
	lines := splitLines(text)

	if nif != "" {
		if name, ok := supplierFromNIFLine(lines, nif); ok {
			return name, true
		}
	}

	for _, line := range splitLines(truncateRunes(text, supplierScanLimit)) {
		candidate := stripNoisePrefix(line)
		if skipHeaderLine(candidate) {
			continue
		}
		n := utf8.RuneCountInString(candidate)
		if n >= minSupplierLength && n <= maxSupplierLength {
			return candidate, true
		}
	}

	return "", false
}

func supplierFromNIFLine(lines []string, nif string) (string, bool) {
	for _, line := range lines {
		i := indexFold(line, nif)
		if i < 0 {
			continue
		}
		candidate := taxIDLabelSuffix.ReplaceAllString(line[:i], "") + " " + line[i+len(nif):]
		candidate = strings.Join(strings.Fields(candidate), " ")
		candidate = stripNoisePrefix(strings.Trim(candidate, edgePunctuation))
		if utf8.RuneCountInString(candidate) > minSupplierLength && !IsTechnicalDescription(candidate) {
			return candidate, true
		}
		return "", false
	}
	return "", false
}

// IsTechnicalDescription reports whether line reads like a product or
// licence description: more than three distinct uppercase acronyms, or any
// known technical term.
func IsTechnicalDescription(line string) bool {
	if technicalTermPattern.MatchString(line) {
		return true
	}
	distinct := make(map[string]struct{})
	for _, a := range acronymPattern.FindAllString(line, -1) {
		distinct[a] = struct{}{}
	}
	return len(distinct) > maxAcronyms
}

// stripNoisePrefix removes leading status words such as "FACTURA" or
// "PAGADA", repeatedly.
func stripNoisePrefix(line string) string {
	for {
		stripped := strings.Trim(noiseWordPattern.ReplaceAllString(line, ""), edgePunctuation)
		if stripped == line {
			return line
		}
		line = stripped
	}
}

func skipHeaderLine(line string) bool {
	if line == "" {
		return true
	}
	if lineLabelPattern.MatchString(fold(line)) {
		return true
	}
	if numericLinePattern.MatchString(line) {
		return true
	}
	if dateShapePattern.MatchString(line) || amountShapePattern.MatchString(line) {
		return true
	}
	if taxIDPattern.MatchString(line) {
		return true
	}
	return IsTechnicalDescription(line)
}

// indexFold is a case-insensitive strings.Index for an ASCII needle.
func indexFold(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

// splitLines returns the trimmed, non-empty lines of text.
func splitLines(text string) []string {
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\t", " ").Replace(text)
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
