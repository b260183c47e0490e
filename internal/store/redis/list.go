package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/embedkit/embedkit/internal/apperr"
)

// ListRepo wraps an append-ordered log. Push prepends, so index 0 is always
// the newest element and Trim(0, n-1) keeps the n newest.
type ListRepo struct {
	client *goredis.Client
}

func NewListRepo(client *goredis.Client) *ListRepo {
	return &ListRepo{client: client}
}

// Push prepends a value, preserving newest-first order.
func (r *ListRepo) Push(ctx context.Context, key, value string) error {
	if err := r.client.LPush(ctx, key, value).Err(); err != nil {
		return apperr.Storagef(err, "push to list %s", key)
	}
	return nil
}

// Range returns the elements between start and stop inclusive. Negative
// indexes count from the tail, redis-style.
func (r *ListRepo) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	values, err := r.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, apperr.Storagef(err, "range list %s", key)
	}
	return values, nil
}

func (r *ListRepo) Length(ctx context.Context, key string) (int64, error) {
	n, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, apperr.Storagef(err, "length of list %s", key)
	}
	return n, nil
}

// Trim keeps only the elements between start and stop inclusive, evicting
// the rest in one bulk operation.
func (r *ListRepo) Trim(ctx context.Context, key string, start, stop int64) error {
	if err := r.client.LTrim(ctx, key, start, stop).Err(); err != nil {
		return apperr.Storagef(err, "trim list %s", key)
	}
	return nil
}

// SetAt overwrites the element at index. The index must exist.
func (r *ListRepo) SetAt(ctx context.Context, key string, index int64, value string) error {
	if err := r.client.LSet(ctx, key, index, value).Err(); err != nil {
		return apperr.Storagef(err, "set list %s index %d", key, index)
	}
	return nil
}

// RemoveValue removes the first element equal to value and reports whether
// one was removed.
func (r *ListRepo) RemoveValue(ctx context.Context, key, value string) (bool, error) {
	n, err := r.client.LRem(ctx, key, 1, value).Result()
	if err != nil {
		return false, apperr.Storagef(err, "remove from list %s", key)
	}
	return n > 0, nil
}

func (r *ListRepo) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return apperr.Storagef(err, "clear list %s", key)
	}
	return nil
}
