package services

import (
	"context"
	"database/sql"
	"encoding/json"
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

// RemoteMovementRequest is the credit leg the saga asks the account service
// to perform. The caller's idempotency key is forwarded so that a retried
// saga replays the remote credit instead of duplicating it.
type RemoteMovementRequest struct {
	IdempotencyKey           uuid.UUID
	DestinationAccountNumber int
	Amount                   decimal.Decimal
	MovementType             string
}

// AccountClient is the transfer service's view of the account service.
// A returned envelope with Success=false is a remote business rejection;
// a non-nil error means the call itself failed.
type AccountClient interface {
	SendMovement(ctx context.Context, req RemoteMovementRequest) (*api.Response, error)
}

// TransferService runs the cross-service transfer saga. The remote credit is
// deliberately outside the local transaction; see Transfer for how the
// resulting consistency gap is handled.
type TransferService struct {
	runner    store.AtomicRunner
	transfers store.TransferStore
	guard     *IdempotencyGuard
	client    AccountClient
	audit     *audit.Logger

	// commitAttempts bounds the local-commit retries after the remote
	// credit has already succeeded.
	commitAttempts int
}

func NewTransferService(runner store.AtomicRunner, transfers store.TransferStore, guard *IdempotencyGuard, client AccountClient) *TransferService {
	return &TransferService{
		runner:         runner,
		transfers:      transfers,
		guard:          guard,
		client:         client,
		audit:          audit.NewLogger(),
		commitAttempts: 3,
	}
}

// TransferInput is the transport-free transfer command. Origin comes from
// the authenticated caller.
type TransferInput struct {
	IdempotencyKey    uuid.UUID
	OriginAccountID   uuid.UUID
	DestinationNumber int
	Amount            decimal.Decimal
}

func (s *TransferService) Transfer(ctx context.Context, in TransferInput) api.Response {
	fingerprint := TransferFingerprint(in.OriginAccountID, in.DestinationNumber, in.Amount)

	if stored, err := s.guard.Check(ctx, in.IdempotencyKey, fingerprint); err != nil {
		log.Printf("[TRANSFER] Idempotency check failed for key %s: %v", in.IdempotencyKey, err)
		return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Failed to process transfer")
	} else if stored != nil {
		return *stored
	}

	if in.Amount.Sign() <= 0 {
		return api.Fail(http.StatusForbidden, api.ErrInvalidValue, "Amount must be greater than zero")
	}

	// Remote credit leg. Nothing local is written before or during this
	// call, so a remote rejection leaves no trace here.
	remote, err := s.client.SendMovement(ctx, RemoteMovementRequest{
		IdempotencyKey:           in.IdempotencyKey,
		DestinationAccountNumber: in.DestinationNumber,
		Amount:                   in.Amount,
		MovementType:             string(models.MovementCredit),
	})
	if err != nil {
		log.Printf("[TRANSFER] Account service call failed for key %s: %v", in.IdempotencyKey, err)
		s.audit.LogError(in.IdempotencyKey.String(), in.OriginAccountID.String(), err)
		return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Account service unavailable")
	}
	if !remote.Success {
		log.Printf("[TRANSFER] Account service rejected key %s: %s (%d)", in.IdempotencyKey, remote.ErrorType, remote.StatusCode)
		return *remote
	}

	var credit models.TransferMovementResult
	if err := json.Unmarshal(remote.Data, &credit); err != nil {
		log.Printf("[TRANSFER] Unreadable account service payload for key %s: %v", in.IdempotencyKey, err)
		return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Failed to process transfer")
	}

	transfer := &models.Transfer{
		ID:                   uuid.New(),
		OriginAccountID:      in.OriginAccountID,
		DestinationAccountID: credit.DestinationAccountID,
		Amount:               in.Amount,
		MovedAt:              credit.MovementTimestamp,
	}
	result := api.NoContent()

	// The remote credit has already committed, so the local record gets a
	// few attempts before the gap is surfaced to the client.
	err = s.commitWithRetry(ctx, func(tx *sql.Tx) error {
		if err := s.transfers.Create(ctx, tx, transfer); err != nil {
			return err
		}
		return s.guard.Record(ctx, tx, in.IdempotencyKey, fingerprint, result)
	})
	if err != nil {
		s.audit.LogError(in.IdempotencyKey.String(), in.OriginAccountID.String(), err)
		if store.IsDuplicateKey(err) {
			log.Printf("[TRANSFER] Concurrent duplicate for key %s", in.IdempotencyKey)
			return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Concurrent request with the same idempotency key, please retry")
		}
		// Destination was credited but no local transfer exists. Retrying
		// with the same key is safe: the remote leg replays its stored
		// result instead of crediting again.
		log.Printf("[TRANSFER] CONSISTENCY GAP: remote credit committed but local record failed for key %s: %v", in.IdempotencyKey, err)
		return api.Fail(http.StatusInternalServerError, api.ErrInternalServerError, "Failed to record transfer, please retry with the same idempotency key")
	}

	s.audit.LogTransfer(in.IdempotencyKey.String(), in.OriginAccountID.String(), credit.DestinationAccountID.String(), in.Amount, "SUCCESS")
	return result
}

func (s *TransferService) commitWithRetry(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.commitAttempts; attempt++ {
		err = s.runner.RunAtomic(ctx, fn)
		if err == nil {
			return nil
		}
		// Cancellation and key collisions will not heal on retry.
		if errors.Is(err, store.ErrCancelled) || store.IsDuplicateKey(err) {
			return err
		}
		if attempt < s.commitAttempts {
			log.Printf("[TRANSFER] Local commit attempt %d failed, retrying: %v", attempt, err)
			select {
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			case <-ctx.Done():
				return err
			}
		}
	}
	return err
}
