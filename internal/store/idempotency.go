package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aquabank/backend/internal/models"
	"github.com/google/uuid"
)

// IdempotencyStore persists request keys and their first results. Create
// must run inside the same transaction as the business writes; the key
// column's uniqueness is what makes the second of two racing fresh
// executions fail instead of double-applying.
type IdempotencyStore interface {
	Get(ctx context.Context, key uuid.UUID) (*models.IdempotencyRecord, error)
	Create(ctx context.Context, tx *sql.Tx, rec *models.IdempotencyRecord) error
}

type PostgresIdempotencyStore struct {
	db *sql.DB
}

func NewPostgresIdempotencyStore(db *sql.DB) *PostgresIdempotencyStore {
	return &PostgresIdempotencyStore{db: db}
}

func (s *PostgresIdempotencyStore) Get(ctx context.Context, key uuid.UUID) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT key, fingerprint, result, created_at
		FROM idempotency_keys
		WHERE key = $1`,
		key).Scan(&rec.Key, &rec.Fingerprint, &rec.Result, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query idempotency key: %w", err)
	}
	return &rec, nil
}

func (s *PostgresIdempotencyStore) Create(ctx context.Context, tx *sql.Tx, rec *models.IdempotencyRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO idempotency_keys (key, fingerprint, result, created_at)
		VALUES ($1, $2, $3, $4)`,
		rec.Key, rec.Fingerprint, []byte(rec.Result), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}
	return nil
}
