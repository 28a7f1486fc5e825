package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aquabank/backend/internal/api"
	"github.com/aquabank/backend/internal/models"
	"github.com/aquabank/backend/internal/store"
	"github.com/google/uuid"
)

// IdempotencyGuard decides what a request with a given key is allowed to do.
// Check returns (nil, nil) when the key is fresh and the caller should
// execute; a non-nil envelope when the caller must short-circuit, either
// replaying the stored result or rejecting a key reused with a different
// fingerprint.
type IdempotencyGuard struct {
	records store.IdempotencyStore
}

func NewIdempotencyGuard(records store.IdempotencyStore) *IdempotencyGuard {
	return &IdempotencyGuard{records: records}
}

func (g *IdempotencyGuard) Check(ctx context.Context, key uuid.UUID, fingerprint string) (*api.Response, error) {
	rec, err := g.records.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}

	if rec.Fingerprint != fingerprint {
		log.Printf("[IDEMPOTENCY] Key %s reused with a different request", key)
		resp := api.Fail(http.StatusConflict, api.ErrIdempotencyConflict,
			"Idempotency key was already used for a different request")
		return &resp, nil
	}

	var stored api.Response
	if err := json.Unmarshal(rec.Result, &stored); err != nil {
		return nil, fmt.Errorf("decode stored result for %s: %w", key, err)
	}
	log.Printf("[IDEMPOTENCY] Replaying stored result for key %s", key)
	return &stored, nil
}

// Record persists the result envelope under the key inside the caller's
// transaction, so the result and the writes it describes commit together.
func (g *IdempotencyGuard) Record(ctx context.Context, tx *sql.Tx, key uuid.UUID, fingerprint string, resp api.Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode result for %s: %w", key, err)
	}
	rec := &models.IdempotencyRecord{
		Key:         key,
		Fingerprint: fingerprint,
		Result:      raw,
		CreatedAt:   time.Now().UTC(),
	}
	return g.records.Create(ctx, tx, rec)
}
