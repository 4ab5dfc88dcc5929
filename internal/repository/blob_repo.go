package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hangmantrainer/internal/database"
)

// Keys of the two persisted blobs
const (
	ConfigKey  = "hangman-config"
	ResultsKey = "hangman-results"
)

// ErrBlobNotFound is returned by Get when the key has never been written
var ErrBlobNotFound = errors.New("blob not found")

// BlobRepository stores whole JSON documents by key
type BlobRepository struct {
	db database.DBTX
}

func NewBlobRepository(db database.DBTX) *BlobRepository {
	return &BlobRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *BlobRepository) WithTx(tx database.DBTX) *BlobRepository {
	return &BlobRepository{db: tx}
}

// Get retrieves a blob by key
func (r *BlobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT blob_value FROM blobs WHERE blob_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return []byte(value), nil
}

// Put overwrites the blob stored under key
func (r *BlobRepository) Put(ctx context.Context, key string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, r.db.GetDialect().UpsertBlobQuery(), key, string(value)); err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}
	return nil
}
