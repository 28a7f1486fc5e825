package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/aquabank/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// CachedIdempotencyStore puts a Redis read-through cache in front of an
// IdempotencyStore. Records are immutable once committed, so caching them
// after a database hit is safe; nothing is cached at Create time because the
// surrounding transaction may still roll back. A nil client degrades to the
// inner store, matching how the rest of the system tolerates Redis being
// down.
type CachedIdempotencyStore struct {
	inner IdempotencyStore
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedIdempotencyStore(inner IdempotencyStore, rdb *redis.Client, ttl time.Duration) *CachedIdempotencyStore {
	return &CachedIdempotencyStore{inner: inner, redis: rdb, ttl: ttl}
}

func (s *CachedIdempotencyStore) Get(ctx context.Context, key uuid.UUID) (*models.IdempotencyRecord, error) {
	cacheKey := "idempotency:" + key.String()

	if s.redis != nil {
		if data, err := s.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var rec models.IdempotencyRecord
			if err := json.Unmarshal(data, &rec); err == nil {
				return &rec, nil
			}
			log.Printf("[IDEMPOTENCY] Discarding unreadable cache entry for %s", key)
		}
	}

	rec, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(rec); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, s.ttl).Err(); err != nil {
				log.Printf("[IDEMPOTENCY] Cache write failed for %s: %v", key, err)
			}
		}
	}
	return rec, nil
}

func (s *CachedIdempotencyStore) Create(ctx context.Context, tx *sql.Tx, rec *models.IdempotencyRecord) error {
	return s.inner.Create(ctx, tx, rec)
}
