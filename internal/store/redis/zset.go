package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/embedkit/embedkit/internal/apperr"
)

// ScoredMember is one (member, score) pair from a ranked read.
type ScoredMember struct {
	Member string
	Score  float64
}

// SortedSetRepo wraps a score-ordered collection. Add upserts: re-adding an
// existing member overwrites its score instead of duplicating it.
type SortedSetRepo struct {
	client *goredis.Client
}

func NewSortedSetRepo(client *goredis.Client) *SortedSetRepo {
	return &SortedSetRepo{client: client}
}

func (r *SortedSetRepo) Add(ctx context.Context, key, member string, score float64) error {
	if err := r.client.ZAdd(ctx, key, goredis.Z{Member: member, Score: score}).Err(); err != nil {
		return apperr.Storagef(err, "add to sorted set %s", key)
	}
	return nil
}

// Remove deletes a member and reports whether it existed.
func (r *SortedSetRepo) Remove(ctx context.Context, key, member string) (bool, error) {
	n, err := r.client.ZRem(ctx, key, member).Result()
	if err != nil {
		return false, apperr.Storagef(err, "remove from sorted set %s", key)
	}
	return n > 0, nil
}

// Score returns a member's score, and whether the member exists.
func (r *SortedSetRepo) Score(ctx context.Context, key, member string) (float64, bool, error) {
	score, err := r.client.ZScore(ctx, key, member).Result()
	if err != nil {
		if err == goredis.Nil {
			return 0, false, nil
		}
		return 0, false, apperr.Storagef(err, "score in sorted set %s", key)
	}
	return score, true, nil
}

// RangeDescending returns the members between rank start and stop inclusive,
// highest score first.
func (r *SortedSetRepo) RangeDescending(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error) {
	zs, err := r.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, apperr.Storagef(err, "range sorted set %s", key)
	}

	members := make([]ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		members = append(members, ScoredMember{Member: member, Score: z.Score})
	}
	return members, nil
}

func (r *SortedSetRepo) Count(ctx context.Context, key string) (int64, error) {
	n, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, apperr.Storagef(err, "count sorted set %s", key)
	}
	return n, nil
}

// RemoveRangeByRank evicts the members between ascending rank start and stop
// inclusive in one bulk operation. Rank 0 is the lowest score, so evicting
// the surplus below the top N is RemoveRangeByRank(0, count-N-1).
func (r *SortedSetRepo) RemoveRangeByRank(ctx context.Context, key string, start, stop int64) (int64, error) {
	n, err := r.client.ZRemRangeByRank(ctx, key, start, stop).Result()
	if err != nil {
		return 0, apperr.Storagef(err, "evict from sorted set %s", key)
	}
	return n, nil
}

func (r *SortedSetRepo) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return apperr.Storagef(err, "clear sorted set %s", key)
	}
	return nil
}
