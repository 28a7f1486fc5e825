package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aquabank/backend/internal/models"
	"github.com/google/uuid"
)

// AccountStore reads accounts. Account creation and credential handling
// belong to the excluded registration stack, so there are no write methods.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByNumber(ctx context.Context, number int) (*models.Account, error)
}

type PostgresAccountStore struct {
	db *sql.DB
}

func NewPostgresAccountStore(db *sql.DB) *PostgresAccountStore {
	return &PostgresAccountStore{db: db}
}

func (s *PostgresAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.get(ctx, `SELECT id, number, holder_name, active FROM accounts WHERE id = $1`, id)
}

func (s *PostgresAccountStore) GetByNumber(ctx context.Context, number int) (*models.Account, error) {
	return s.get(ctx, `SELECT id, number, holder_name, active FROM accounts WHERE number = $1`, number)
}

func (s *PostgresAccountStore) get(ctx context.Context, query string, arg any) (*models.Account, error) {
	var acc models.Account
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&acc.ID, &acc.Number, &acc.HolderName, &acc.Active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &acc, nil
}
