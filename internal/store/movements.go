package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aquabank/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementStore is the append-only ledger. Append performs no business
// validation beyond the entry invariants; sufficient funds and account state
// are the caller's job. Balance is derived by folding the entries rather
// than read from a stored counter, which keeps the ledger an auditable log
// at the cost of a scan per query.
type MovementStore interface {
	// Append inserts entries inside the caller's transaction.
	Append(ctx context.Context, tx *sql.Tx, entries []models.Movement) error
	// Balance folds all entries of the account: credits minus debits,
	// rounded to 2 decimal places. 0.00 when the account has no entries.
	Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}

type PostgresMovementStore struct {
	db *sql.DB
}

func NewPostgresMovementStore(db *sql.DB) *PostgresMovementStore {
	return &PostgresMovementStore{db: db}
}

func (s *PostgresMovementStore) Append(ctx context.Context, tx *sql.Tx, entries []models.Movement) error {
	for _, e := range entries {
		if e.Amount.Sign() <= 0 {
			return fmt.Errorf("movement %s: amount must be positive", e.ID)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO movements (id, account_id, movement_type, amount, created_at, origin_account_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, e.AccountID, string(e.Type), e.Amount, e.CreatedAt, e.OriginAccountID)
		if err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
	}
	return nil
}

func (s *PostgresMovementStore) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN movement_type = 'C' THEN amount ELSE -amount END), 0)
		FROM movements
		WHERE account_id = $1`,
		accountID).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return balance.Round(2), nil
}
