package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturaIA/expense-extractor/internal/parser"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field    string           `json:"field"`
	Code     string           `json:"code"`
	Expected *decimal.Decimal `json:"expected,omitempty"`
	Actual   *decimal.Decimal `json:"actual,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// ValidationWarning represents a non-critical issue
type ValidationWarning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ComputedValues holds the amounts implied by the extracted base and rate.
type ComputedValues struct {
	ExpectedVAT   decimal.NullDecimal `json:"expected_vat"`
	ExpectedTotal decimal.NullDecimal `json:"expected_total"`
}

// ValidationResult is the response from validation
type ValidationResult struct {
	Valid       bool                `json:"valid"`
	NeedsReview bool                `json:"needs_review"`
	Errors      []ValidationError   `json:"errors"`
	Warnings    []ValidationWarning `json:"warnings"`
	Computed    ComputedValues      `json:"computed"`
}

var (
	hundred = decimal.NewFromInt(100)
	oneCent = decimal.RequireFromString("0.01")
)

// TaxValidator cross-checks an extracted expense before it is accepted.
// It never modifies the result it is given.
type TaxValidator struct {
	tolerance decimal.Decimal // fraction, 0.05 = 5%
	now       func() time.Time
}

// NewTaxValidator creates a new validator with default 5% tolerance
func NewTaxValidator() *TaxValidator {
	return &TaxValidator{
		tolerance: decimal.RequireFromString("0.05"),
		now:       time.Now,
	}
}

// Validate performs all cross-validations on an extraction result.
func (v *TaxValidator) Validate(r *parser.Result) *ValidationResult {
	result := &ValidationResult{
		Valid:       true,
		NeedsReview: false,
		Errors:      []ValidationError{},
		Warnings:    []ValidationWarning{},
	}

	if r.BaseAmount.Valid && r.VATRate.Valid {
		vat := r.BaseAmount.Decimal.Mul(r.VATRate.Decimal).Div(hundred).Round(2)
		result.Computed.ExpectedVAT = decimal.NewNullDecimal(vat)
		result.Computed.ExpectedTotal = decimal.NewNullDecimal(r.BaseAmount.Decimal.Add(vat))
	}
	if r.BaseAmount.Valid && r.VATAmount.Valid {
		result.Computed.ExpectedTotal = decimal.NewNullDecimal(r.BaseAmount.Decimal.Add(r.VATAmount.Decimal))
	}

	// 1. VAT amount vs base × rate
	v.validateVAT(r, result)

	// 2. Total vs base + VAT
	v.validateTotal(r, result)

	// 3. Fields the expense form requires
	v.validateRequired(r, result)

	// 4. Supplier tax ID control character
	v.validateTaxID(r, result)

	// 5. Invoice date
	v.validateDate(r, result)

	// 6. Fields that were guessed rather than read
	v.validateConfidence(r, result)

	// Set final status
	result.Valid = len(result.Errors) == 0
	result.NeedsReview = len(result.Warnings) > 0 || !result.Valid

	return result
}

// validateVAT checks the VAT amount matches base × rate
func (v *TaxValidator) validateVAT(r *parser.Result, result *ValidationResult) {
	expected := result.Computed.ExpectedVAT
	if !expected.Valid || !r.VATAmount.Valid {
		return
	}

	diff := r.VATAmount.Decimal.Sub(expected.Decimal).Abs()
	toleranceAmount := decimal.Max(expected.Decimal.Mul(v.tolerance), oneCent)

	if diff.GreaterThan(toleranceAmount) {
		result.Errors = append(result.Errors, ValidationError{
			Field:    string(parser.FieldVATAmount),
			Code:     "vat_mismatch",
			Expected: decimalPtr(expected.Decimal),
			Actual:   decimalPtr(r.VATAmount.Decimal),
			Message:  "IVA no coincide con base imponible por tipo",
		})
	}
}

// validateTotal checks total matches base plus VAT
func (v *TaxValidator) validateTotal(r *parser.Result, result *ValidationResult) {
	expected := result.Computed.ExpectedTotal
	if !expected.Valid || !r.TotalAmount.Valid || !r.TotalAmount.Decimal.IsPositive() {
		return
	}

	diff := r.TotalAmount.Decimal.Sub(expected.Decimal).Abs()
	toleranceAmount := r.TotalAmount.Decimal.Mul(v.tolerance)

	if diff.GreaterThan(toleranceAmount) {
		result.Errors = append(result.Errors, ValidationError{
			Field:    string(parser.FieldTotalAmount),
			Code:     "total_mismatch",
			Expected: decimalPtr(expected.Decimal),
			Actual:   decimalPtr(r.TotalAmount.Decimal),
			Message:  "Total no coincide con base imponible más IVA",
		})
	}
}

// validateRequired applies the expense form's rules: a supplier name and a
// positive total.
func (v *TaxValidator) validateRequired(r *parser.Result, result *ValidationResult) {
	if r.SupplierName == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   string(parser.FieldSupplierName),
			Code:    "missing_supplier_name",
			Message: "Nombre del proveedor requerido",
		})
	}

	if !r.TotalAmount.Valid || !r.TotalAmount.Decimal.IsPositive() {
		result.Errors = append(result.Errors, ValidationError{
			Field:   string(parser.FieldTotalAmount),
			Code:    "invalid_total",
			Message: "El importe total debe ser mayor que cero",
		})
	}
}

// validateTaxID checks the NIF/NIE control letter or CIF control character
func (v *TaxValidator) validateTaxID(r *parser.Result, result *ValidationResult) {
	if r.SupplierNIF == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   string(parser.FieldSupplierNIF),
			Code:    "missing_nif",
			Message: "No se encontró el NIF/CIF del proveedor",
		})
		return
	}

	if !ValidTaxID(r.SupplierNIF) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   string(parser.FieldSupplierNIF),
			Code:    "nif_checksum",
			Message: "El carácter de control del NIF/CIF no es válido: " + r.SupplierNIF,
		})
	}
}

// validateDate checks the date exists on the calendar and is not in the future
func (v *TaxValidator) validateDate(r *parser.Result, result *ValidationResult) {
	if r.InvoiceDate == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   string(parser.FieldInvoiceDate),
			Code:    "missing_date",
			Message: "No se encontró la fecha de la factura",
		})
		return
	}

	date, err := time.Parse("2006-01-02", r.InvoiceDate)
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   string(parser.FieldInvoiceDate),
			Code:    "invalid_date",
			Message: "Fecha inexistente: " + r.InvoiceDate,
		})
		return
	}

	if date.After(v.now()) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   string(parser.FieldInvoiceDate),
			Code:    "future_date",
			Message: "La fecha de la factura es posterior a hoy",
		})
	}
}

// validateConfidence flags amounts that were positioned or derived
func (v *TaxValidator) validateConfidence(r *parser.Result, result *ValidationResult) {
	for _, f := range parser.Fields {
		c, _ := r.ConfidenceOf(f)
		switch c {
		case parser.ConfidenceLow:
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   string(f),
				Code:    "low_confidence",
				Message: "Valor deducido por posición, revisar",
			})
		case parser.ConfidenceCalculated:
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   string(f),
				Code:    "calculated",
				Message: "Valor calculado a partir de otros importes",
			})
		}
	}
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
