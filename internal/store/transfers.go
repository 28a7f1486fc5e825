package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aquabank/backend/internal/models"
	"github.com/google/uuid"
)

// TransferStore persists the transfer service's completed-transfer records.
type TransferStore interface {
	// Create inserts the record inside the caller's transaction.
	Create(ctx context.Context, tx *sql.Tx, t *models.Transfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transfer, error)
}

type PostgresTransferStore struct {
	db *sql.DB
}

func NewPostgresTransferStore(db *sql.DB) *PostgresTransferStore {
	return &PostgresTransferStore{db: db}
}

func (s *PostgresTransferStore) Create(ctx context.Context, tx *sql.Tx, t *models.Transfer) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transfers (id, origin_account_id, destination_account_id, amount, moved_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.OriginAccountID, t.DestinationAccountID, t.Amount, t.MovedAt)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (s *PostgresTransferStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	var t models.Transfer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, origin_account_id, destination_account_id, amount, moved_at
		FROM transfers
		WHERE id = $1`,
		id).Scan(&t.ID, &t.OriginAccountID, &t.DestinationAccountID, &t.Amount, &t.MovedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query transfer: %w", err)
	}
	return &t, nil
}
