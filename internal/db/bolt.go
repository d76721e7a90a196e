package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
)

const extractionBucket = "expense_extractions"

// BoltStore keeps extractions in an embedded bbolt file. It is used when no
// Postgres database is configured.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewBoltStore opens or creates the database file at path
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(extractionBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

func extractionKey(expenseID int64) []byte {
	return []byte(strconv.FormatInt(expenseID, 10))
}

// SaveExtraction inserts or replaces the extraction for e.ExpenseID
func (b *BoltStore) SaveExtraction(ctx context.Context, e *ExpenseExtraction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(extractionBucket))
		key := extractionKey(e.ExpenseID)

		now := b.now().UTC()
		createdAt := now
		if data := bucket.Get(key); data != nil {
			var existing ExpenseExtraction
			if err := json.Unmarshal(data, &existing); err == nil {
				createdAt = existing.CreatedAt
			}
		}

		saved := *e
		saved.CreatedAt = createdAt
		saved.UpdatedAt = now
		data, err := json.Marshal(&saved)
		if err != nil {
			return fmt.Errorf("marshaling extraction: %w", err)
		}
		if err := bucket.Put(key, data); err != nil {
			return err
		}

		e.CreatedAt, e.UpdatedAt = createdAt, now
		return nil
	})
}

// GetExtraction retrieves the extraction for an expense
func (b *BoltStore) GetExtraction(ctx context.Context, expenseID int64) (*ExpenseExtraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var e *ExpenseExtraction
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(extractionBucket)).Get(extractionKey(expenseID))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteExtraction removes the extraction for an expense
func (b *BoltStore) DeleteExtraction(ctx context.Context, expenseID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(extractionBucket))
		key := extractionKey(expenseID)
		if bucket.Get(key) == nil {
			return ErrNotFound
		}
		return bucket.Delete(key)
	})
}

// Close closes the database file
func (b *BoltStore) Close() error {
	return b.db.Close()
}
