package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/aquabank/backend/internal/api"
	"github.com/aquabank/backend/internal/audit"
	"github.com/aquabank/backend/internal/models"
	"github.com/aquabank/backend/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementService owns the movement ledger use cases: posting movements
// against an account (including the debit+credit pair of an incoming
// transfer) and deriving the current balance.
type MovementService struct {
	runner    store.AtomicRunner
	accounts  store.AccountStore
	movements store.MovementStore
	guard     *IdempotencyGuard
	audit     *audit.Logger
}

func NewMovementService(runner store.AtomicRunner, accounts store.AccountStore, movements store.MovementStore, guard *IdempotencyGuard) *MovementService {
	return &MovementService{
		runner:    runner,
		accounts:  accounts,
		movements: movements,
		guard:     guard,
		audit:     audit.NewLogger(),
	}
}

// MovementInput is the transport-free command for a movement. The origin
// account comes from the authenticated caller, never from the body.
type MovementInput struct {
	IdempotencyKey    uuid.UUID
	OriginAccountID   uuid.UUID
	DestinationNumber *int
	MovementType      string
	Amount            decimal.Decimal
}

// Process runs the movement algorithm end to end and always returns an
// envelope; infrastructure errors surface as 500 envelopes, never as naked
// errors, because the envelope is also what gets stored for replay.
func (s *MovementService) Process(ctx context.Context, in MovementInput) api.Response {
	fingerprint := MovementFingerprint(in.OriginAccountID, in.DestinationNumber, in.MovementType, in.Amount)

	if stored, err := s.guard.Check(ctx, in.IdempotencyKey, fingerprint); err != nil {
		log.Printf("[MOVEMENT] Idempotency check failed for key %s: %v", in.IdempotencyKey, err)
		return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Failed to process movement")
	} else if stored != nil {
		return *stored
	}

	if in.Amount.Sign() <= 0 {
		return api.Fail(http.StatusBadRequest, api.ErrInvalidValue, "Amount must be greater than zero")
	}

	movementType, ok := models.ParseMovementType(in.MovementType)
	if !ok {
		return api.Fail(http.StatusBadRequest, api.ErrInvalidType, "Movement type must be C or D")
	}

	origin, err := s.accounts.GetByID(ctx, in.OriginAccountID)
	if errors.Is(err, store.ErrNotFound) {
		return api.Fail(http.StatusBadRequest, api.ErrInvalidAccount, "Origin account not found")
	}
	if err != nil {
		log.Printf("[MOVEMENT] Origin lookup failed for %s: %v", in.OriginAccountID, err)
		return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Failed to process movement")
	}
	if !origin.Active {
		return api.Fail(http.StatusBadRequest, api.ErrInactiveAccount, "Origin account is inactive")
	}

	target := origin
	if in.DestinationNumber != nil && *in.DestinationNumber != origin.Number {
		target, err = s.accounts.GetByNumber(ctx, *in.DestinationNumber)
		if errors.Is(err, store.ErrNotFound) {
			return api.Fail(http.StatusBadRequest, api.ErrInvalidAccount, "Destination account not found")
		}
		if err != nil {
			log.Printf("[MOVEMENT] Destination lookup failed for %d: %v", *in.DestinationNumber, err)
			return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Failed to process movement")
		}
		if !target.Active {
			return api.Fail(http.StatusBadRequest, api.ErrInactiveAccount, "Destination account is inactive")
		}
	}

	isTransfer := target.ID != origin.ID
	if isTransfer && movementType != models.MovementCredit {
		// Debits never cross accounts: you cannot debit someone else's
		// account by naming it as a destination.
		return api.Fail(http.StatusBadRequest, api.ErrInvalidType, "A debit cannot target another account")
	}

	now := time.Now().UTC()
	var entries []models.Movement
	if isTransfer {
		entries = []models.Movement{
			{ID: uuid.New(), AccountID: origin.ID, Type: models.MovementDebit, Amount: in.Amount, CreatedAt: now, OriginAccountID: origin.ID},
			{ID: uuid.New(), AccountID: target.ID, Type: models.MovementCredit, Amount: in.Amount, CreatedAt: now, OriginAccountID: origin.ID},
		}
	} else {
		entries = []models.Movement{
			{ID: uuid.New(), AccountID: origin.ID, Type: movementType, Amount: in.Amount, CreatedAt: now, OriginAccountID: origin.ID},
		}
	}

	result := api.NoContent()
	if isTransfer {
		result = api.OK(models.TransferMovementResult{
			DestinationAccountID: target.ID,
			MovementTimestamp:    now,
		})
	}

	err = s.runner.RunAtomic(ctx, func(tx *sql.Tx) error {
		if err := s.movements.Append(ctx, tx, entries); err != nil {
			return err
		}
		return s.guard.Record(ctx, tx, in.IdempotencyKey, fingerprint, result)
	})
	if err != nil {
		s.audit.LogError(in.IdempotencyKey.String(), origin.ID.String(), err)
		switch {
		case errors.Is(err, store.ErrCancelled):
			log.Printf("[MOVEMENT] Cancelled for key %s: %v", in.IdempotencyKey, err)
			return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Operation cancelled")
		case store.IsDuplicateKey(err):
			// Two fresh executions raced on the same key; the loser rolled
			// back, so a retry will replay the winner's result.
			log.Printf("[MOVEMENT] Concurrent duplicate for key %s", in.IdempotencyKey)
			return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Concurrent request with the same idempotency key, please retry")
		default:
			log.Printf("[MOVEMENT] Commit failed for key %s: %v", in.IdempotencyKey, err)
			return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Failed to process movement")
		}
	}

	s.audit.LogMovement(in.IdempotencyKey.String(), target.ID.String(), string(movementType), in.Amount, "SUCCESS")
	return result
}

// BalanceFor reports the derived balance of the caller's account. Missing
// and inactive accounts both read as not found.
func (s *MovementService) BalanceFor(ctx context.Context, accountID uuid.UUID) api.Response {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return api.Fail(http.StatusNotFound, api.ErrInvalidAccount, "Account not found")
	}
	if err != nil {
		log.Printf("[BALANCE] Account lookup failed for %s: %v", accountID, err)
		return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Failed to query balance")
	}
	if !acc.Active {
		return api.Fail(http.StatusNotFound, api.ErrInactiveAccount, "Account is inactive")
	}

	balance, err := s.movements.Balance(ctx, acc.ID)
	if err != nil {
		log.Printf("[BALANCE] Balance query failed for %s: %v", accountID, err)
		return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Failed to query balance")
	}

	return api.OK(models.BalanceResult{
		AccountNumber:  acc.Number,
		HolderName:     acc.HolderName,
		Balance:        balance,
		QueryTimestamp: time.Now().UTC(),
	})
}
