package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/embedkit/embedkit/internal/apperr"
)

// Scanner enumerates keys by pattern. The cleanup sweep uses it to find
// entity records, and the counter service uses it to find the latest daily
// bucket.
type Scanner struct {
	client *goredis.Client
}

func NewScanner(client *goredis.Client) *Scanner {
	return &Scanner{client: client}
}

// ScanKeys returns every key matching pattern. Uses SCAN, not KEYS, so it
// never blocks the store.
func (s *Scanner) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, apperr.Storagef(err, "scan keys %s", pattern)
	}
	return keys, nil
}

// DeleteKeys removes every key matching pattern, returning how many were
// deleted. Used by the cascade hooks to clear per-viewer markers.
func (s *Scanner) DeleteKeys(ctx context.Context, pattern string) (int, error) {
	keys, err := s.ScanKeys(ctx, pattern)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return deleted, apperr.Storagef(err, "delete key %s", key)
		}
		deleted++
	}
	return deleted, nil
}
