// Package parser extracts supplier, date, number, VAT and amount fields from
// the plain text of a Spanish or English purchase invoice.
//
// Every function in the package is pure: no I/O, no shared mutable state, and
// no failure mode other than "not found". Parse may be called concurrently.
package parser

import (
	"github.com/shopspring/decimal"
)

// Parse runs every extractor over text and assembles the result. It never
// fails: empty or unrecognisable text yields a Result with no fields set and
// an empty confidence map.
func Parse(text string) Result {
	r := Result{
		Confidence: make(map[Field]Confidence),
		RawText:    text,
	}

	nif, ok := ExtractNIF(text)
	if ok {
		r.SupplierNIF = nif
		r.Confidence[FieldSupplierNIF] = ConfidenceHigh
	}

	if name, ok := ExtractSupplierName(text, nif); ok {
		r.SupplierName = name
		r.Confidence[FieldSupplierName] = ConfidenceMedium
	}

	if date, ok := ExtractDate(text); ok {
		r.InvoiceDate = date
		r.Confidence[FieldInvoiceDate] = ConfidenceMedium
	}

	if num, ok := ExtractInvoiceNumber(text); ok {
		r.InvoiceNumber = num
		r.Confidence[FieldInvoiceNumber] = ConfidenceMedium
	}

	if rate, ok := ExtractVATRate(text); ok {
		r.VATRate = decimal.NewNullDecimal(rate)
		r.Confidence[FieldVATRate] = ConfidenceHigh
	}

	if amounts := ExtractAmounts(text); len(amounts) > 0 {
		labeled := LabelAmounts(text, amounts, r.VATRate)
		r.BaseAmount = labeled.Base
		r.VATAmount = labeled.VAT
		r.TotalAmount = labeled.Total
		for f, c := range labeled.Confidence {
			r.Confidence[f] = c
		}
	}

	return r
}
