package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturaIA/expense-extractor/internal/parser"
)

const schema = `
	CREATE TABLE IF NOT EXISTS expense_extractions (
		expense_id     BIGINT PRIMARY KEY,
		supplier_name  TEXT,
		supplier_nif   TEXT,
		invoice_number TEXT,
		invoice_date   TEXT,
		base_amount    NUMERIC(14, 2),
		vat_rate       NUMERIC(5, 2),
		vat_amount     NUMERIC(14, 2),
		total_amount   NUMERIC(14, 2),
		confidence     JSONB NOT NULL DEFAULT '{}',
		raw_text       TEXT,
		pdf_path       TEXT,
		has_content    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresStore keeps extractions in the expense_extractions table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps pool and creates the table if it is missing.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating expense_extractions: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// SaveExtraction upserts by expense id
func (s *PostgresStore) SaveExtraction(ctx context.Context, e *ExpenseExtraction) error {
	r := e.Extracted
	confidence := r.Confidence
	if confidence == nil {
		confidence = map[parser.Field]parser.Confidence{}
	}

	query := `
		INSERT INTO expense_extractions (
			expense_id, supplier_name, supplier_nif, invoice_number, invoice_date,
			base_amount, vat_rate, vat_amount, total_amount,
			confidence, raw_text, pdf_path, has_content
		) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''),
		          $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13)
		ON CONFLICT (expense_id) DO UPDATE SET
			supplier_name  = EXCLUDED.supplier_name,
			supplier_nif   = EXCLUDED.supplier_nif,
			invoice_number = EXCLUDED.invoice_number,
			invoice_date   = EXCLUDED.invoice_date,
			base_amount    = EXCLUDED.base_amount,
			vat_rate       = EXCLUDED.vat_rate,
			vat_amount     = EXCLUDED.vat_amount,
			total_amount   = EXCLUDED.total_amount,
			confidence     = EXCLUDED.confidence,
			raw_text       = EXCLUDED.raw_text,
			pdf_path       = EXCLUDED.pdf_path,
			has_content    = EXCLUDED.has_content,
			updated_at     = NOW()
		RETURNING created_at, updated_at
	`

	err := s.pool.QueryRow(ctx, query,
		e.ExpenseID, r.SupplierName, r.SupplierNIF, r.InvoiceNumber, r.InvoiceDate,
		r.BaseAmount, r.VATRate, r.VATAmount, r.TotalAmount,
		confidence, r.RawText, e.PDFPath, e.HasContent,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving extraction %d: %w", e.ExpenseID, err)
	}
	return nil
}

// GetExtraction retrieves the extraction for an expense
func (s *PostgresStore) GetExtraction(ctx context.Context, expenseID int64) (*ExpenseExtraction, error) {
	query := `
		SELECT expense_id, COALESCE(supplier_name, ''), COALESCE(supplier_nif, ''),
		       COALESCE(invoice_number, ''), COALESCE(invoice_date, ''),
		       base_amount, vat_rate, vat_amount, total_amount,
		       confidence, COALESCE(raw_text, ''), COALESCE(pdf_path, ''), has_content,
		       created_at, updated_at
		FROM expense_extractions
		WHERE expense_id = $1
	`

	var e ExpenseExtraction
	r := &e.Extracted
	err := s.pool.QueryRow(ctx, query, expenseID).Scan(
		&e.ExpenseID, &r.SupplierName, &r.SupplierNIF,
		&r.InvoiceNumber, &r.InvoiceDate,
		&r.BaseAmount, &r.VATRate, &r.VATAmount, &r.TotalAmount,
		&r.Confidence, &r.RawText, &e.PDFPath, &e.HasContent,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading extraction %d: %w", expenseID, err)
	}
	return &e, nil
}

// DeleteExtraction removes the extraction for an expense
func (s *PostgresStore) DeleteExtraction(ctx context.Context, expenseID int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM expense_extractions WHERE expense_id = $1", expenseID)
	if err != nil {
		return fmt.Errorf("deleting extraction %d: %w", expenseID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying pool
func (s *PostgresStore) Close() error {
	if s.pool == Pool {
		Close()
		return nil
	}
	s.pool.Close()
	return nil
}
