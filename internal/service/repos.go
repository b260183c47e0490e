// Package service implements the widget service layer: a generic base
// service for idempotent creation, ownership verification and cascading
// deletion, and the four domain services layered on top of it.
//
// Services hold no local mutable state; every instance is safe to run
// concurrently because correctness rides entirely on the store's single-key
// atomic primitives.
package service

import (
	"context"
	"time"

	"github.com/embedkit/embedkit/internal/domain"
	redisstore "github.com/embedkit/embedkit/internal/store/redis"
)

// The repository interfaces below are the service layer's view of the
// store. internal/store/redis implements them; tests substitute in-memory
// fakes.

// EntityStore persists one record type under caller-built keys.
type EntityStore[E domain.Record] interface {
	Get(ctx context.Context, key string) (E, error)
	Save(ctx context.Context, key string, e E) error
	Delete(ctx context.Context, key string) (bool, error)
}

// StringStore persists opaque strings: owner hashes and the url index.
type StringStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) (bool, error)
}

// CounterStore wraps atomic integer operations.
type CounterStore interface {
	Get(ctx context.Context, key string) (int64, error)
	GetMany(ctx context.Context, keys []string) ([]int64, error)
	Set(ctx context.Context, key string, value int64) error
	Increment(ctx context.Context, key string) (int64, error)
	Decrement(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
}

// MarkerStore handles ephemeral claims. SetIfNotExists is the atomic
// conditional write every dedup and cooldown decision rides on.
type MarkerStore interface {
	SetIfNotExists(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
	Restore(ctx context.Context, key string, ttl time.Duration) error
}

// ListStore wraps a newest-first log.
type ListStore interface {
	Push(ctx context.Context, key, value string) error
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)
	Length(ctx context.Context, key string) (int64, error)
	Trim(ctx context.Context, key string, start, stop int64) error
	SetAt(ctx context.Context, key string, index int64, value string) error
	RemoveValue(ctx context.Context, key, value string) (bool, error)
	Clear(ctx context.Context, key string) error
}

// SortedSetStore wraps a score-ordered collection.
type SortedSetStore interface {
	Add(ctx context.Context, key, member string, score float64) error
	Remove(ctx context.Context, key, member string) (bool, error)
	Score(ctx context.Context, key, member string) (float64, bool, error)
	RangeDescending(ctx context.Context, key string, start, stop int64) ([]redisstore.ScoredMember, error)
	Count(ctx context.Context, key string) (int64, error)
	RemoveRangeByRank(ctx context.Context, key string, start, stop int64) (int64, error)
	Clear(ctx context.Context, key string) error
}

// KeyScanner enumerates and bulk-deletes keys by pattern.
type KeyScanner interface {
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	DeleteKeys(ctx context.Context, pattern string) (int, error)
}
