package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/embedkit/embedkit/internal/apperr"
)

// MarkerRepo handles the ephemeral dedup, cooldown and like-state markers.
// A marker's mere presence is the signal; its content is always "1".
//
// SetIfNotExists is the one atomic claim primitive the whole system relies
// on: under concurrent callers exactly one sees created=true. Everything
// multi-step in the service layer starts with this claim and compensates
// with Release on downstream failure.
type MarkerRepo struct {
	client *goredis.Client
}

func NewMarkerRepo(client *goredis.Client) *MarkerRepo {
	return &MarkerRepo{client: client}
}

// SetIfNotExists performs a conditional write that succeeds only if the key
// was absent. It reports whether THIS call created the marker.
func (r *MarkerRepo) SetIfNotExists(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	created, err := r.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, apperr.Storagef(err, "claim marker %s", key)
	}
	return created, nil
}

func (r *MarkerRepo) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, apperr.Storagef(err, "check marker %s", key)
	}
	return n > 0, nil
}

// Release removes a marker. Used both for "unlike" and as the compensating
// call when a mutation after a successful claim fails.
func (r *MarkerRepo) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return apperr.Storagef(err, "release marker %s", key)
	}
	return nil
}

// Restore re-creates a marker unconditionally with a fresh TTL. Used to
// roll back a removal whose downstream write failed.
func (r *MarkerRepo) Restore(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return apperr.Storagef(err, "restore marker %s", key)
	}
	return nil
}
