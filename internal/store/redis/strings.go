package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/embedkit/embedkit/internal/apperr"
)

// StringRepo persists small opaque string values. Two key shapes ride on
// it: the url -> id index and the owner-hash records.
type StringRepo struct {
	client *goredis.Client
}

func NewStringRepo(client *goredis.Client) *StringRepo {
	return &StringRepo{client: client}
}

func (r *StringRepo) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", apperr.NotFoundf("key %s not found", key)
		}
		return "", apperr.Storagef(err, "get %s", key)
	}
	return v, nil
}

func (r *StringRepo) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return apperr.Storagef(err, "set %s", key)
	}
	return nil
}

func (r *StringRepo) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, apperr.Storagef(err, "delete %s", key)
	}
	return n > 0, nil
}
