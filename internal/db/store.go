package db

import (
	"context"
	"errors"
	"time"

	"github.com/facturaIA/expense-extractor/internal/parser"
)

// ErrNotFound is returned when no extraction is stored for an expense.
var ErrNotFound = errors.New("extraction not found")

// ExpenseExtraction is the parse result attached to an expense.
type ExpenseExtraction struct {
	ExpenseID  int64         `json:"expense_id"`
	Extracted  parser.Result `json:"extracted"`
	PDFPath    string        `json:"pdf_path"`
	HasContent bool          `json:"has_content"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Store persists extractions keyed by expense id. Saving an id that already
// exists replaces the extraction and keeps its creation time.
type Store interface {
	// SaveExtraction inserts or replaces e, filling its timestamps
	SaveExtraction(ctx context.Context, e *ExpenseExtraction) error

	// GetExtraction retrieves the extraction for an expense
	GetExtraction(ctx context.Context, expenseID int64) (*ExpenseExtraction, error)

	// DeleteExtraction removes the extraction for an expense
	DeleteExtraction(ctx context.Context, expenseID int64) error

	// Close releases the underlying connection
	Close() error
}
