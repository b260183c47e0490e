package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedkit/embedkit/internal/apperr"
	"github.com/embedkit/embedkit/internal/domain"
	"github.com/embedkit/embedkit/internal/logger"
)

func newRankingService(t *testing.T, cfg RankingConfig) (*Ranking, *harness[domain.Ranking]) {
	t.Helper()
	h := newHarness[domain.Ranking](domain.KindRanking)
	svc := NewRanking(h.base, memZSets{h.store}, memMarkers{h.store}, h.store, cfg, logger.Nop())
	return svc, h
}

func defaultRankingConfig() RankingConfig {
	return RankingConfig{DefaultMaxEntries: 10, MaxEntriesCap: 100}
}

func TestRankingCreateBoundsMaxEntries(t *testing.T) {
	svc, _ := newRankingService(t, defaultRankingConfig())
	ctx := context.Background()

	data, _, err := svc.Create(ctx, "https://a.example.com", "owner-token", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, data.MaxEntries, "zero takes the default")

	data, _, err = svc.Create(ctx, "https://b.example.com", "owner-token", 5000)
	require.NoError(t, err)
	assert.Equal(t, 100, data.MaxEntries, "over-cap clamps to the cap")

	_, _, err = svc.Create(ctx, "https://c.example.com", "owner-token", -1)
	assert.True(t, apperr.IsValidation(err))
}

func TestRankingEvictsBeyondMaxEntries(t *testing.T) {
	cfg := defaultRankingConfig()
	cfg.DefaultMaxEntries = 3
	svc, _ := newRankingService(t, cfg)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, "https://example.com", "owner-token", 3)
	require.NoError(t, err)

	scores := map[string]float64{"ann": 10, "bob": 50, "cat": 30, "dan": 20, "eve": 40}
	var data domain.RankingData
	for name, score := range scores {
		data, err = svc.SubmitScore(ctx, "https://example.com", "owner-token", name, score, "")
		require.NoError(t, err)
	}

	require.Len(t, data.Entries, 3, "collection never exceeds maxEntries")
	assert.Equal(t, int64(3), data.Total)
	assert.Equal(t, "bob", data.Entries[0].Name)
	assert.Equal(t, "eve", data.Entries[1].Name)
	assert.Equal(t, "cat", data.Entries[2].Name)
	for i, e := range data.Entries {
		assert.Equal(t, i+1, e.Rank, "rank is the ordinal position")
	}
}

func TestRankingSubmitUpserts(t *testing.T) {
	svc, _ := newRankingService(t, defaultRankingConfig())
	ctx := context.Background()

	_, _, err := svc.Create(ctx, "https://example.com", "owner-token", 10)
	require.NoError(t, err)

	_, err = svc.SubmitScore(ctx, "https://example.com", "owner-token", "ann", 10, "")
	require.NoError(t, err)
	data, err := svc.SubmitScore(ctx, "https://example.com", "owner-token", "ann", 99, "")
	require.NoError(t, err)

	require.Len(t, data.Entries, 1, "resubmitting a name overwrites, never duplicates")
	assert.Equal(t, float64(99), data.Entries[0].Score)
}

func TestRankingSubmitCooldownReturnsCurrentStandings(t *testing.T) {
	cfg := defaultRankingConfig()
	cfg.CooldownTTL = time.Minute
	svc, _ := newRankingService(t, cfg)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, "https://example.com", "owner-token", 10)
	require.NoError(t, err)

	viewer := domain.ViewerHash("203.0.113.7", "ua")
	data, err := svc.SubmitScore(ctx, "https://example.com", "owner-token", "ann", 10, viewer)
	require.NoError(t, err)
	require.Len(t, data.Entries, 1)

	// Second submit inside the window: no error, nothing changes.
	data, err = svc.SubmitScore(ctx, "https://example.com", "owner-token", "bob", 20, viewer)
	require.NoError(t, err)
	require.Len(t, data.Entries, 1)
	assert.Equal(t, "ann", data.Entries[0].Name)
}

func TestRankingSubmitReleasesCooldownWhenAddFails(t *testing.T) {
	cfg := defaultRankingConfig()
	cfg.CooldownTTL = time.Minute
	svc, h := newRankingService(t, cfg)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, "https://example.com", "owner-token", 10)
	require.NoError(t, err)

	keys := h.base.Keys()
	h.store.failOn(keys.Scores(created.ID))

	viewer := domain.ViewerHash("203.0.113.7", "ua")
	_, err = svc.SubmitScore(ctx, "https://example.com", "owner-token", "ann", 10, viewer)
	require.Error(t, err)

	held, err := memMarkers{h.store}.Exists(ctx, keys.Cooldown(created.ID, viewer))
	require.NoError(t, err)
	assert.False(t, held, "a failed submit must not burn the viewer's cooldown")
}

func TestRankingUpdateScoreRequiresExistingEntry(t *testing.T) {
	svc, _ := newRankingService(t, defaultRankingConfig())
	ctx := context.Background()

	_, _, err := svc.Create(ctx, "https://example.com", "owner-token", 10)
	require.NoError(t, err)

	_, err = svc.UpdateScore(ctx, "https://example.com", "owner-token", "ghost", 50)
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.SubmitScore(ctx, "https://example.com", "owner-token", "ann", 10, "")
	require.NoError(t, err)
	data, err := svc.UpdateScore(ctx, "https://example.com", "owner-token", "ann", 50)
	require.NoError(t, err)
	assert.Equal(t, float64(50), data.Entries[0].Score)
}

func TestRankingRemoveAndClear(t *testing.T) {
	svc, _ := newRankingService(t, defaultRankingConfig())
	ctx := context.Background()

	_, _, err := svc.Create(ctx, "https://example.com", "owner-token", 10)
	require.NoError(t, err)
	_, err = svc.SubmitScore(ctx, "https://example.com", "owner-token", "ann", 10, "")
	require.NoError(t, err)
	_, err = svc.SubmitScore(ctx, "https://example.com", "owner-token", "bob", 20, "")
	require.NoError(t, err)

	_, err = svc.RemoveEntry(ctx, "https://example.com", "owner-token", "ghost")
	assert.True(t, apperr.IsNotFound(err))

	data, err := svc.RemoveEntry(ctx, "https://example.com", "owner-token", "ann")
	require.NoError(t, err)
	require.Len(t, data.Entries, 1)

	data, err = svc.Clear(ctx, "https://example.com", "owner-token")
	require.NoError(t, err)
	assert.Empty(t, data.Entries)
	assert.Equal(t, int64(0), data.Total)
}

func TestRankingMutationsAreOwnerGated(t *testing.T) {
	svc, _ := newRankingService(t, defaultRankingConfig())
	ctx := context.Background()

	_, _, err := svc.Create(ctx, "https://example.com", "owner-token", 10)
	require.NoError(t, err)

	_, err = svc.SubmitScore(ctx, "https://example.com", "other-token", "ann", 10, "")
	assert.True(t, apperr.IsUnauthorized(err))
	_, err = svc.Clear(ctx, "https://example.com", "other-token")
	assert.True(t, apperr.IsUnauthorized(err))
}
