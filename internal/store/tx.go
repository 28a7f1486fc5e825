package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrCancelled reports an atomic unit that was rolled back because its
// context was cancelled, as opposed to a persistence failure.
var ErrCancelled = errors.New("operation cancelled")

// AtomicRunner executes a closure of writes as one all-or-nothing unit.
type AtomicRunner interface {
	RunAtomic(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// TxRunner implements AtomicRunner on a database/sql pool. Either every
// write inside fn becomes visible at commit, or none do.
type TxRunner struct {
	db *sql.DB
}

func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) RunAtomic(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
