// Package redis implements the primitive repositories over a shared Redis
// client. Every method is a single round trip to the store; the only
// operation with conditional-write semantics is MarkerRepo.SetIfNotExists.
// All failures are wrapped into the apperr taxonomy before they leave this
// package.
package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/embedkit/embedkit/internal/apperr"
	"github.com/embedkit/embedkit/internal/domain"
)

// EntityRepo persists one record type as JSON under caller-built keys.
// Records are validated after every read; a corrupt or stale-schema record
// is reported as not found, never served.
type EntityRepo[E domain.Record] struct {
	client *goredis.Client
}

func NewEntityRepo[E domain.Record](client *goredis.Client) *EntityRepo[E] {
	return &EntityRepo[E]{client: client}
}

func (r *EntityRepo[E]) Get(ctx context.Context, key string) (E, error) {
	var zero E

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return zero, apperr.NotFoundf("record %s not found", key)
		}
		return zero, apperr.Storagef(err, "get record %s", key)
	}

	var e E
	if err := json.Unmarshal(data, &e); err != nil {
		// Corrupt payload: treat as absent rather than serve garbage.
		return zero, apperr.NotFoundf("record %s is not decodable", key)
	}
	if err := e.Validate(); err != nil {
		return zero, apperr.NotFoundf("record %s failed validation: %v", key, err)
	}
	return e, nil
}

func (r *EntityRepo[E]) Save(ctx context.Context, key string, e E) error {
	data, err := json.Marshal(e)
	if err != nil {
		return apperr.Storagef(err, "marshal record %s", key)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return apperr.Storagef(err, "save record %s", key)
	}
	return nil
}

// Delete removes the record and reports whether it existed.
func (r *EntityRepo[E]) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, apperr.Storagef(err, "delete record %s", key)
	}
	return n > 0, nil
}

func (r *EntityRepo[E]) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, apperr.Storagef(err, "check record %s", key)
	}
	return n > 0, nil
}
