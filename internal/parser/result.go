package parser

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Field names a value the pipeline can extract. The string form is the
// snake_case key used in JSON and in the confidence map.
type Field string

const (
	FieldSupplierName  Field = "supplier_name"
	FieldSupplierNIF   Field = "supplier_nif"
	FieldInvoiceNumber Field = "invoice_number"
	FieldInvoiceDate   Field = "invoice_date"
	FieldBaseAmount    Field = "base_amount"
	FieldVATRate       Field = "vat_rate"
	FieldVATAmount     Field = "vat_amount"
	FieldTotalAmount   Field = "total_amount"
)

// Fields lists every extractable field in result order.
var Fields = []Field{
	FieldSupplierName,
	FieldSupplierNIF,
	FieldInvoiceNumber,
	FieldInvoiceDate,
	FieldBaseAmount,
	FieldVATRate,
	FieldVATAmount,
	FieldTotalAmount,
}

// Confidence tags how a field was derived. It is a label, not a probability.
type Confidence string

const (
	ConfidenceHigh       Confidence = "high"
	ConfidenceMedium     Confidence = "medium"
	ConfidenceLow        Confidence = "low"
	ConfidenceCalculated Confidence = "calculated"
)

// Result is the output of Parse. Empty strings and invalid NullDecimals mean
// the field was not found. Confidence holds an entry for exactly the fields
// that were found.
type Result struct {
	SupplierName  string               `json:"supplier_name"`
	SupplierNIF   string               `json:"supplier_nif"`
	InvoiceNumber string               `json:"invoice_number"`
	InvoiceDate   string               `json:"invoice_date"` // YYYY-MM-DD
	BaseAmount    decimal.NullDecimal  `json:"base_amount"`
	VATRate       decimal.NullDecimal  `json:"vat_rate"`
	VATAmount     decimal.NullDecimal  `json:"vat_amount"`
	TotalAmount   decimal.NullDecimal  `json:"total_amount"`
	Confidence    map[Field]Confidence `json:"confidence"`
	RawText       string               `json:"raw_text"`
}

// Has reports whether f was extracted.
func (r Result) Has(f Field) bool {
	switch f {
	case FieldSupplierName:
		return r.SupplierName != ""
	case FieldSupplierNIF:
		return r.SupplierNIF != ""
	case FieldInvoiceNumber:
		return r.InvoiceNumber != ""
	case FieldInvoiceDate:
		return r.InvoiceDate != ""
	case FieldBaseAmount:
		return r.BaseAmount.Valid
	case FieldVATRate:
		return r.VATRate.Valid
	case FieldVATAmount:
		return r.VATAmount.Valid
	case FieldTotalAmount:
		return r.TotalAmount.Valid
	}
	return false
}

// Populated returns the extracted fields in result order.
func (r Result) Populated() []Field {
	var fields []Field
	for _, f := range Fields {
		if r.Has(f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// ConfidenceOf returns the confidence recorded for f, if any.
func (r Result) ConfidenceOf(f Field) (Confidence, bool) {
	c, ok := r.Confidence[f]
	return c, ok
}

// Labeled is the output of LabelAmounts.
type Labeled struct {
	Base       decimal.NullDecimal
	VAT        decimal.NullDecimal
	Total      decimal.NullDecimal
	Confidence map[Field]Confidence
}

func (l *Labeled) set(f Field, v decimal.Decimal, c Confidence) {
	nd := decimal.NewNullDecimal(v)
	switch f {
	case FieldBaseAmount:
		l.Base = nd
	case FieldVATAmount:
		l.VAT = nd
	case FieldTotalAmount:
		l.Total = nd
	default:
		return
	}
	l.Confidence[f] = c
}

type resultJSON struct {
	SupplierName  *string              `json:"supplier_name"`
	SupplierNIF   *string              `json:"supplier_nif"`
	InvoiceNumber *string              `json:"invoice_number"`
	InvoiceDate   *string              `json:"invoice_date"`
	BaseAmount    decimal.NullDecimal  `json:"base_amount"`
	VATRate       decimal.NullDecimal  `json:"vat_rate"`
	VATAmount     decimal.NullDecimal  `json:"vat_amount"`
	TotalAmount   decimal.NullDecimal  `json:"total_amount"`
	Confidence    map[Field]Confidence `json:"confidence"`
	RawText       string               `json:"raw_text"`
}

// MarshalJSON writes absent string fields as null rather than "".
func (r Result) MarshalJSON() ([]byte, error) {
	confidence := r.Confidence
	if confidence == nil {
		confidence = map[Field]Confidence{}
	}
	return json.Marshal(resultJSON{
		SupplierName:  nullable(r.SupplierName),
		SupplierNIF:   nullable(r.SupplierNIF),
		InvoiceNumber: nullable(r.InvoiceNumber),
		InvoiceDate:   nullable(r.InvoiceDate),
		BaseAmount:    r.BaseAmount,
		VATRate:       r.VATRate,
		VATAmount:     r.VATAmount,
		TotalAmount:   r.TotalAmount,
		Confidence:    confidence,
		RawText:       r.RawText,
	})
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Result{
		SupplierName:  deref(raw.SupplierName),
		SupplierNIF:   deref(raw.SupplierNIF),
		InvoiceNumber: deref(raw.InvoiceNumber),
		InvoiceDate:   deref(raw.InvoiceDate),
		BaseAmount:    raw.BaseAmount,
		VATRate:       raw.VATRate,
		VATAmount:     raw.VATAmount,
		TotalAmount:   raw.TotalAmount,
		Confidence:    raw.Confidence,
		RawText:       raw.RawText,
	}
	if r.Confidence == nil {
		r.Confidence = map[Field]Confidence{}
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
