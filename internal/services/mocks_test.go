package services

import (
	"context"
	"database/sql"

	"github.com/aquabank/backend/internal/api"
	"github.com/aquabank/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountStore) GetByNumber(ctx context.Context, number int) (*models.Account, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

type MockMovementStore struct {
	mock.Mock
}

func (m *MockMovementStore) Append(ctx context.Context, tx *sql.Tx, entries []models.Movement) error {
	args := m.Called(ctx, tx, entries)
	return args.Error(0)
}

func (m *MockMovementStore) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Get(ctx context.Context, key uuid.UUID) (*models.IdempotencyRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IdempotencyRecord), args.Error(1)
}

func (m *MockIdempotencyStore) Create(ctx context.Context, tx *sql.Tx, rec *models.IdempotencyRecord) error {
	args := m.Called(ctx, tx, rec)
	return args.Error(0)
}

type MockTransferStore struct {
	mock.Mock
}

func (m *MockTransferStore) Create(ctx context.Context, tx *sql.Tx, t *models.Transfer) error {
	args := m.Called(ctx, tx, t)
	return args.Error(0)
}

func (m *MockTransferStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transfer), args.Error(1)
}

type MockAccountClient struct {
	mock.Mock
}

func (m *MockAccountClient) SendMovement(ctx context.Context, req RemoteMovementRequest) (*api.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Response), args.Error(1)
}

// stubRunner executes the unit against a nil transaction, or fails the
// attempt with the scripted error. The store mocks never dereference the tx.
type stubRunner struct {
	errs  []error
	calls int
}

func (r *stubRunner) RunAtomic(ctx context.Context, fn func(tx *sql.Tx) error) error {
	idx := r.calls
	r.calls++
	if idx < len(r.errs) && r.errs[idx] != nil {
		return r.errs[idx]
	}
	return fn(nil)
}
