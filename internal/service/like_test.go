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

func newLikeService(t *testing.T) (*Like, *harness[domain.Like]) {
	t.Helper()
	h := newHarness[domain.Like](domain.KindLike)
	svc := NewLike(h.base, memCounters{h.store}, memMarkers{h.store}, h.store, LikeConfig{
		Ceiling:   1_000_000,
		MarkerTTL: 365 * 24 * time.Hour,
	}, logger.Nop())
	return svc, h
}

func TestLikeToggleRoundTrip(t *testing.T) {
	svc, _ := newLikeService(t)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, "https://example.com", "owner-token")
	require.NoError(t, err)

	viewer := domain.ViewerHash("203.0.113.7", "Mozilla/5.0")

	data, err := svc.Toggle(ctx, created.ID, viewer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), data.Total)
	assert.True(t, data.UserLiked)

	data, err = svc.Toggle(ctx, created.ID, viewer)
	require.NoError(t, err)
	assert.Equal(t, int64(0), data.Total)
	assert.False(t, data.UserLiked)

	data, err = svc.Toggle(ctx, created.ID, viewer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), data.Total, "on-off-on must land back at one")
	assert.True(t, data.UserLiked)
}

func TestLikeToggleRequiresFingerprint(t *testing.T) {
	svc, _ := newLikeService(t)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, "https://example.com", "owner-token")
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, created.ID, "")
	assert.True(t, apperr.IsValidation(err))
}

func TestLikeGetIsPerViewer(t *testing.T) {
	svc, _ := newLikeService(t)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, "https://example.com", "owner-token")
	require.NoError(t, err)

	alice := domain.ViewerHash("203.0.113.7", "ua")
	bob := domain.ViewerHash("198.51.100.9", "ua")

	_, err = svc.Toggle(ctx, created.ID, alice)
	require.NoError(t, err)

	data, err := svc.Get(ctx, created.ID, alice)
	require.NoError(t, err)
	assert.True(t, data.UserLiked)

	data, err = svc.Get(ctx, created.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), data.Total)
	assert.False(t, data.UserLiked, "another viewer sees the total but not a liked state")
}

func TestLikeToggleRestoresMarkerWhenDecrementFails(t *testing.T) {
	svc, h := newLikeService(t)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, "https://example.com", "owner-token")
	require.NoError(t, err)

	viewer := domain.ViewerHash("203.0.113.7", "ua")
	_, err = svc.Toggle(ctx, created.ID, viewer)
	require.NoError(t, err)

	keys := h.base.Keys()
	h.store.failOn(keys.Total(created.ID))

	_, err = svc.Toggle(ctx, created.ID, viewer)
	require.Error(t, err)

	// Marker and total must still agree: both say "liked".
	held, err := memMarkers{h.store}.Exists(ctx, keys.LikeUser(created.ID, viewer))
	require.NoError(t, err)
	assert.True(t, held, "the marker must be restored when the decrement fails")
}

func TestLikeDeleteRemovesMarkers(t *testing.T) {
	svc, h := newLikeService(t)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, "https://example.com", "owner-token")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, created.ID, domain.ViewerHash("203.0.113.7", "ua"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "https://example.com", "owner-token"))

	stray, err := h.store.ScanKeys(ctx, h.base.Keys().LikeUserPattern(created.ID))
	require.NoError(t, err)
	assert.Empty(t, stray)
}
