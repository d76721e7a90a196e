package services

import (
	"regexp"
	"strings"
)

const (
	dniLetters     = "TRWAGMYFPDXBNJZSQVHLCKE"
	cifLetters     = "JABCDEFGHI"
	cifLetterOnly  = "KPQRSNW"
	cifDigitOnly   = "ABEH"
	niePrefixDigit = "XYZ"
)

var (
	dniPattern = regexp.MustCompile(`^\d{8}[A-Z]$`)
	niePattern = regexp.MustCompile(`^[XYZ]\d{7}[A-Z]$`)
	cifPattern = regexp.MustCompile(`^[ABCDEFGHJKLMNPQRSUVW]\d{7}[0-9A-J]$`)
)

// ValidTaxID reports whether id is a Spanish NIF, NIE or CIF with a correct
// control character.
func ValidTaxID(id string) bool {
	id = strings.ToUpper(strings.TrimSpace(id))

	switch {
	case dniPattern.MatchString(id):
		return dniControl(id[:8]) == id[8]
	case niePattern.MatchString(id):
		prefix := strings.IndexByte(niePrefixDigit, id[0])
		return dniControl(string(rune('0'+prefix))+id[1:8]) == id[8]
	case cifPattern.MatchString(id):
		return validCIF(id)
	}
	return false
}

func dniControl(digits string) byte {
	n := 0
	for i := 0; i < len(digits); i++ {
		n = n*10 + int(digits[i]-'0')
	}
	return dniLetters[n%23]
}

func validCIF(id string) bool {
	sum := 0
	for i, c := range id[1:8] {
		d := int(c - '0')
		if i%2 == 0 {
			d *= 2
			d = d/10 + d%10
		}
		sum += d
	}
	digit := (10 - sum%10) % 10

	control := id[8]
	asDigit := control == byte('0'+digit)
	asLetter := control == cifLetters[digit]

	switch {
	case strings.IndexByte(cifLetterOnly, id[0]) >= 0:
		return asLetter
	case strings.IndexByte(cifDigitOnly, id[0]) >= 0:
		return asDigit
	default:
		return asDigit || asLetter
	}
}
