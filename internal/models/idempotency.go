package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord stores the outcome of the first execution of a request
// key. Fingerprint is the canonical string of the request's salient fields;
// Result is the serialized response envelope, replayed verbatim on duplicate
// submissions. Records are created exactly once, inside the same database
// transaction as the business writes, and never mutated.
type IdempotencyRecord struct {
	Key         uuid.UUID       `json:"key" db:"key"`
	Fingerprint string          `json:"fingerprint" db:"fingerprint"`
	Result      json.RawMessage `json:"result" db:"result"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}
