package redis

import (
	"context"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/embedkit/embedkit/internal/apperr"
)

// CounterRepo wraps atomic integer operations. Increment and Decrement are
// serialized by the store itself; concurrent callers never need a lock.
type CounterRepo struct {
	client *goredis.Client
}

func NewCounterRepo(client *goredis.Client) *CounterRepo {
	return &CounterRepo{client: client}
}

// Get returns the current value, zero when the key is absent.
func (r *CounterRepo) Get(ctx context.Context, key string) (int64, error) {
	v, err := r.client.Get(ctx, key).Int64()
	if err != nil {
		if err == goredis.Nil {
			return 0, nil
		}
		return 0, apperr.Storagef(err, "get counter %s", key)
	}
	return v, nil
}

// GetMany returns the values of several counters in one round trip, zero
// for absent keys. Order matches keys.
func (r *CounterRepo) GetMany(ctx context.Context, keys []string) ([]int64, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	raw, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperr.Storagef(err, "mget %d counters", len(keys))
	}

	values := make([]int64, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue // absent key
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue // non-numeric junk counts as zero
		}
		values[i] = n
	}
	return values, nil
}

func (r *CounterRepo) Set(ctx context.Context, key string, value int64) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return apperr.Storagef(err, "set counter %s", key)
	}
	return nil
}

// Increment atomically adds one and returns the new value.
func (r *CounterRepo) Increment(ctx context.Context, key string) (int64, error) {
	v, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, apperr.Storagef(err, "increment counter %s", key)
	}
	return v, nil
}

// Decrement atomically subtracts one and returns the new value.
func (r *CounterRepo) Decrement(ctx context.Context, key string) (int64, error) {
	v, err := r.client.Decr(ctx, key).Result()
	if err != nil {
		return 0, apperr.Storagef(err, "decrement counter %s", key)
	}
	return v, nil
}

func (r *CounterRepo) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return apperr.Storagef(err, "delete counter %s", key)
	}
	return nil
}
