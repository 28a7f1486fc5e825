package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/aquabank/backend/internal/api"
	"github.com/aquabank/backend/internal/models"
	"github.com/aquabank/backend/internal/store"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newMovementFixture(runner *stubRunner) (*MovementService, *MockAccountStore, *MockMovementStore, *MockIdempotencyStore) {
	accounts := &MockAccountStore{}
	movements := &MockMovementStore{}
	records := &MockIdempotencyStore{}
	svc := NewMovementService(runner, accounts, movements, NewIdempotencyGuard(records))
	return svc, accounts, movements, records
}

func freshKey(records *MockIdempotencyStore, key uuid.UUID) {
	records.On("Get", mock.Anything, key).Return(nil, store.ErrNotFound)
}

func TestMovementService_Process_Idempotency(t *testing.T) {
	key := uuid.New()
	origin := uuid.New()
	amount := decimal.RequireFromString("10.00")

	t.Run("replays the stored result verbatim", func(t *testing.T) {
		svc, _, _, records := newMovementFixture(&stubRunner{})
		fingerprint := MovementFingerprint(origin, nil, "C", amount)
		records.On("Get", mock.Anything, key).Return(&models.IdempotencyRecord{
			Key:         key,
			Fingerprint: fingerprint,
			Result:      json.RawMessage(`{"success":true,"statusCode":204}`),
		}, nil)

		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:  key,
			OriginAccountID: origin,
			MovementType:    "C",
			Amount:          amount,
		})
		assert.True(t, resp.Success)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("rejects key reuse with a different payload", func(t *testing.T) {
		svc, _, _, records := newMovementFixture(&stubRunner{})
		records.On("Get", mock.Anything, key).Return(&models.IdempotencyRecord{
			Key:         key,
			Fingerprint: MovementFingerprint(origin, nil, "D", amount),
			Result:      json.RawMessage(`{"success":true,"statusCode":204}`),
		}, nil)

		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:  key,
			OriginAccountID: origin,
			MovementType:    "C",
			Amount:          amount,
		})
		assert.False(t, resp.Success)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, api.ErrIdempotencyConflict, resp.ErrorType)
	})

	t.Run("normalized types replay instead of conflicting", func(t *testing.T) {
		svc, _, _, records := newMovementFixture(&stubRunner{})
		records.On("Get", mock.Anything, key).Return(&models.IdempotencyRecord{
			Key:         key,
			Fingerprint: MovementFingerprint(origin, nil, "C", amount),
			Result:      json.RawMessage(`{"success":true,"statusCode":204}`),
		}, nil)

		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:  key,
			OriginAccountID: origin,
			MovementType:    " c ",
			Amount:          amount,
		})
		assert.True(t, resp.Success)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

func TestMovementService_Process_Validation(t *testing.T) {
	key := uuid.New()
	origin := uuid.New()

	t.Run("rejects non-positive amounts before any lookup", func(t *testing.T) {
		svc, accounts, _, records := newMovementFixture(&stubRunner{})
		freshKey(records, key)

		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:  key,
			OriginAccountID: origin,
			MovementType:    "C",
			Amount:          decimal.Zero,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, api.ErrInvalidValue, resp.ErrorType)
		accounts.AssertNotCalled(t, "GetByID")
	})

	t.Run("rejects unknown movement types", func(t *testing.T) {
		svc, _, _, records := newMovementFixture(&stubRunner{})
		freshKey(records, key)

		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:  key,
			OriginAccountID: origin,
			MovementType:    "X",
			Amount:          decimal.NewFromInt(10),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, api.ErrInvalidType, resp.ErrorType)
	})

	t.Run("rejects unknown origin accounts", func(t *testing.T) {
		svc, accounts, _, records := newMovementFixture(&stubRunner{})
		freshKey(records, key)
		accounts.On("GetByID", mock.Anything, origin).Return(nil, store.ErrNotFound)

		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:  key,
			OriginAccountID: origin,
			MovementType:    "C",
			Amount:          decimal.NewFromInt(10),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, api.ErrInvalidAccount, resp.ErrorType)
	})

	t.Run("rejects inactive origin accounts", func(t *testing.T) {
		svc, accounts, _, records := newMovementFixture(&stubRunner{})
		freshKey(records, key)
		accounts.On("GetByID", mock.Anything, origin).Return(&models.Account{ID: origin, Number: 1, Active: false}, nil)

		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:  key,
			OriginAccountID: origin,
			MovementType:    "C",
			Amount:          decimal.NewFromInt(10),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, api.ErrInactiveAccount, resp.ErrorType)
	})

	t.Run("rejects unresolvable destinations with zero writes", func(t *testing.T) {
		runner := &stubRunner{}
		svc, accounts, movements, records := newMovementFixture(runner)
		freshKey(records, key)
		accounts.On("GetByID", mock.Anything, origin).Return(&models.Account{ID: origin, Number: 1, Active: true}, nil)
		accounts.On("GetByNumber", mock.Anything, 42).Return(nil, store.ErrNotFound)

		dest := 42
		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:    key,
			OriginAccountID:   origin,
			DestinationNumber: &dest,
			MovementType:      "C",
			Amount:            decimal.NewFromInt(10),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, api.ErrInvalidAccount, resp.ErrorType)
		assert.Zero(t, runner.calls)
		movements.AssertNotCalled(t, "Append")
		records.AssertNotCalled(t, "Create")
	})

	t.Run("rejects inactive destinations", func(t *testing.T) {
		svc, accounts, _, records := newMovementFixture(&stubRunner{})
		freshKey(records, key)
		accounts.On("GetByID", mock.Anything, origin).Return(&models.Account{ID: origin, Number: 1, Active: true}, nil)
		accounts.On("GetByNumber", mock.Anything, 42).Return(&models.Account{ID: uuid.New(), Number: 42, Active: false}, nil)

		dest := 42
		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:    key,
			OriginAccountID:   origin,
			DestinationNumber: &dest,
			MovementType:      "C",
			Amount:            decimal.NewFromInt(10),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, api.ErrInactiveAccount, resp.ErrorType)
	})

	t.Run("a debit may never name a different destination", func(t *testing.T) {
		runner := &stubRunner{}
		svc, accounts, movements, records := newMovementFixture(runner)
		freshKey(records, key)
		accounts.On("GetByID", mock.Anything, origin).Return(&models.Account{ID: origin, Number: 1, Active: true}, nil)
		accounts.On("GetByNumber", mock.Anything, 42).Return(&models.Account{ID: uuid.New(), Number: 42, Active: true}, nil)

		dest := 42
		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:    key,
			OriginAccountID:   origin,
			DestinationNumber: &dest,
			MovementType:      "D",
			Amount:            decimal.NewFromInt(10),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, api.ErrInvalidType, resp.ErrorType)
		assert.Zero(t, runner.calls)
		movements.AssertNotCalled(t, "Append")
	})
}

func TestMovementService_Process_Writes(t *testing.T) {
	key := uuid.New()
	origin := uuid.New()
	amount := decimal.RequireFromString("25.50")

	t.Run("self movement appends one entry and returns no content", func(t *testing.T) {
		svc, accounts, movements, records := newMovementFixture(&stubRunner{})
		freshKey(records, key)
		accounts.On("GetByID", mock.Anything, origin).Return(&models.Account{ID: origin, Number: 1, Active: true}, nil)

		movements.On("Append", mock.Anything, mock.Anything, mock.MatchedBy(func(entries []models.Movement) bool {
			return len(entries) == 1 &&
				entries[0].AccountID == origin &&
				entries[0].Type == models.MovementDebit &&
				entries[0].Amount.Equal(amount)
		})).Return(nil)
		records.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(rec *models.IdempotencyRecord) bool {
			return rec.Key == key
		})).Return(nil)

		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:  key,
			OriginAccountID: origin,
			MovementType:    "D",
			Amount:          amount,
		})
		assert.True(t, resp.Success)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		movements.AssertExpectations(t)
		records.AssertExpectations(t)
	})

	t.Run("naming your own number is still a self movement", func(t *testing.T) {
		svc, accounts, movements, records := newMovementFixture(&stubRunner{})
		freshKey(records, key)
		accounts.On("GetByID", mock.Anything, origin).Return(&models.Account{ID: origin, Number: 7, Active: true}, nil)
		movements.On("Append", mock.Anything, mock.Anything, mock.MatchedBy(func(entries []models.Movement) bool {
			return len(entries) == 1 && entries[0].Type == models.MovementCredit
		})).Return(nil)
		records.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		ownNumber := 7
		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:    key,
			OriginAccountID:   origin,
			DestinationNumber: &ownNumber,
			MovementType:      "C",
			Amount:            amount,
		})
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		accounts.AssertNotCalled(t, "GetByNumber")
	})

	t.Run("cross-account credit writes a debit and a credit together", func(t *testing.T) {
		svc, accounts, movements, records := newMovementFixture(&stubRunner{})
		destID := uuid.New()
		freshKey(records, key)
		accounts.On("GetByID", mock.Anything, origin).Return(&models.Account{ID: origin, Number: 1, Active: true}, nil)
		accounts.On("GetByNumber", mock.Anything, 42).Return(&models.Account{ID: destID, Number: 42, Active: true}, nil)

		movements.On("Append", mock.Anything, mock.Anything, mock.MatchedBy(func(entries []models.Movement) bool {
			if len(entries) != 2 {
				return false
			}
			debit, credit := entries[0], entries[1]
			return debit.AccountID == origin && debit.Type == models.MovementDebit &&
				credit.AccountID == destID && credit.Type == models.MovementCredit &&
				debit.Amount.Equal(credit.Amount) &&
				debit.CreatedAt.Equal(credit.CreatedAt) &&
				debit.OriginAccountID == origin && credit.OriginAccountID == origin
		})).Return(nil)
		records.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		dest := 42
		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:    key,
			OriginAccountID:   origin,
			DestinationNumber: &dest,
			MovementType:      "C",
			Amount:            amount,
		})
		assert.True(t, resp.Success)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result models.TransferMovementResult
		assert.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, destID, result.DestinationAccountID)
		assert.False(t, result.MovementTimestamp.IsZero())
		movements.AssertExpectations(t)
	})

	t.Run("cancellation surfaces its distinct reason", func(t *testing.T) {
		runner := &stubRunner{errs: []error{fmt.Errorf("%w: context canceled", store.ErrCancelled)}}
		svc, accounts, _, records := newMovementFixture(runner)
		freshKey(records, key)
		accounts.On("GetByID", mock.Anything, origin).Return(&models.Account{ID: origin, Number: 1, Active: true}, nil)

		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:  key,
			OriginAccountID: origin,
			MovementType:    "C",
			Amount:          amount,
		})
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Operation cancelled", resp.Message)
	})

	t.Run("losing a same-key race reads as a retryable server error", func(t *testing.T) {
		runner := &stubRunner{errs: []error{&pq.Error{Code: "23505"}}}
		svc, accounts, _, records := newMovementFixture(runner)
		freshKey(records, key)
		accounts.On("GetByID", mock.Anything, origin).Return(&models.Account{ID: origin, Number: 1, Active: true}, nil)

		resp := svc.Process(context.Background(), MovementInput{
			IdempotencyKey:  key,
			OriginAccountID: origin,
			MovementType:    "C",
			Amount:          amount,
		})
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, resp.Message, "retry")
	})
}

func TestMovementService_BalanceFor(t *testing.T) {
	origin := uuid.New()

	t.Run("returns the derived balance with a query timestamp", func(t *testing.T) {
		svc, accounts, movements, _ := newMovementFixture(&stubRunner{})
		accounts.On("GetByID", mock.Anything, origin).Return(&models.Account{ID: origin, Number: 321, HolderName: "Alice Johnson", Active: true}, nil)
		movements.On("Balance", mock.Anything, origin).Return(decimal.RequireFromString("99.90"), nil)

		resp := svc.BalanceFor(context.Background(), origin)
		assert.True(t, resp.Success)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result models.BalanceResult
		assert.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, 321, result.AccountNumber)
		assert.Equal(t, "Alice Johnson", result.HolderName)
		assert.True(t, result.Balance.Equal(decimal.RequireFromString("99.90")))
		assert.WithinDuration(t, time.Now(), result.QueryTimestamp, 5*time.Second)
	})

	t.Run("missing account reads as not found", func(t *testing.T) {
		svc, accounts, _, _ := newMovementFixture(&stubRunner{})
		accounts.On("GetByID", mock.Anything, origin).Return(nil, store.ErrNotFound)

		resp := svc.BalanceFor(context.Background(), origin)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, api.ErrInvalidAccount, resp.ErrorType)
	})

	t.Run("inactive account reads as not found", func(t *testing.T) {
		svc, accounts, movements, _ := newMovementFixture(&stubRunner{})
		accounts.On("GetByID", mock.Anything, origin).Return(&models.Account{ID: origin, Number: 321, Active: false}, nil)

		resp := svc.BalanceFor(context.Background(), origin)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, api.ErrInactiveAccount, resp.ErrorType)
		movements.AssertNotCalled(t, "Balance")
	})
}
