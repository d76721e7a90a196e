package models

import (
	"github.com/facturaIA/expense-extractor/internal/parser"
	"github.com/facturaIA/expense-extractor/internal/services"
)

// ExtractResponse represents the output of PDF and text extraction
type ExtractResponse struct {
	Success    bool                       `json:"success"`
	PDFPath    *string                    `json:"pdf_path,omitempty"`
	HasContent bool                       `json:"has_content"`
	Extracted  parser.Result              `json:"extracted"`
	Validation *services.ValidationResult `json:"validation"`
	Display    Display                    `json:"display"`
	Saved      bool                       `json:"saved"`

	// Processing metadata
	TotalDuration float64 `json:"totalDuration"` // Total processing time in seconds
}

// Display holds the amounts formatted for a Spanish expense form. Absent
// values are empty strings.
type Display struct {
	BaseAmount  string `json:"base_amount"`
	VATRate     string `json:"vat_rate"`
	VATAmount   string `json:"vat_amount"`
	TotalAmount string `json:"total_amount"`
}

// ParseRequest is the body of POST /api/parse
type ParseRequest struct {
	Text string `json:"text"`
}
