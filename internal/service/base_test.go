package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedkit/embedkit/internal/apperr"
	"github.com/embedkit/embedkit/internal/domain"
)

func buildCounter(b domain.Base) domain.Counter { return domain.Counter{Base: b} }

func TestBaseCreateIsIdempotentPerURL(t *testing.T) {
	h := newHarness[domain.Counter](domain.KindCounter)
	ctx := context.Background()

	first, created, err := h.base.Create(ctx, "https://example.com/blog", "owner-token", buildCounter)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.DeriveID("https://example.com/blog"), first.ID)

	second, created, err := h.base.Create(ctx, "https://example.com/blog", "owner-token", buildCounter)
	require.NoError(t, err)
	assert.False(t, created, "second create with the same token must return the existing widget")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Created, second.Created)
}

func TestBaseCreateRejectsForeignToken(t *testing.T) {
	h := newHarness[domain.Counter](domain.KindCounter)
	ctx := context.Background()

	_, _, err := h.base.Create(ctx, "https://example.com/blog", "owner-token", buildCounter)
	require.NoError(t, err)

	_, _, err = h.base.Create(ctx, "https://example.com/blog", "other-token", buildCounter)
	require.Error(t, err)
	assert.True(t, apperr.IsUnauthorized(err))
}

func TestBaseCreateValidatesInput(t *testing.T) {
	h := newHarness[domain.Counter](domain.KindCounter)
	ctx := context.Background()

	_, _, err := h.base.Create(ctx, "ftp://example.com", "owner-token", buildCounter)
	assert.True(t, apperr.IsValidation(err), "non-http scheme must be rejected")

	_, _, err = h.base.Create(ctx, "https://example.com", "short", buildCounter)
	assert.True(t, apperr.IsValidation(err), "undersized token must be rejected")
}

func TestBaseCreateRecreatesAfterDanglingMapping(t *testing.T) {
	h := newHarness[domain.Counter](domain.KindCounter)
	ctx := context.Background()

	entity, _, err := h.base.Create(ctx, "https://example.com/blog", "owner-token", buildCounter)
	require.NoError(t, err)

	// Simulate a half-finished delete: the url index survives, the entity
	// and owner records are gone.
	_, err = h.entities.Delete(ctx, h.base.Keys().Entity(entity.ID))
	require.NoError(t, err)
	_, err = h.store.Delete(ctx, h.base.Keys().Owner(entity.ID))
	require.NoError(t, err)

	recreated, created, err := h.base.Create(ctx, "https://example.com/blog", "another-token", buildCounter)
	require.NoError(t, err)
	assert.True(t, created, "a dangling mapping must be recreated, not claimed")
	assert.Equal(t, entity.ID, recreated.ID)

	_, isOwner, err := h.base.VerifyOwnership(ctx, "https://example.com/blog", "another-token")
	require.NoError(t, err)
	assert.True(t, isOwner, "the recreating caller owns the new widget")
}

func TestBaseGetByURLDanglingMappingReadsAsNotFound(t *testing.T) {
	h := newHarness[domain.Counter](domain.KindCounter)
	ctx := context.Background()

	entity, _, err := h.base.Create(ctx, "https://example.com", "owner-token", buildCounter)
	require.NoError(t, err)

	_, err = h.entities.Delete(ctx, h.base.Keys().Entity(entity.ID))
	require.NoError(t, err)

	_, err = h.base.GetByURL(ctx, "https://example.com")
	assert.True(t, apperr.IsNotFound(err))
}

func TestBaseVerifyOwnershipDistinguishesAbsenceFromWrongToken(t *testing.T) {
	h := newHarness[domain.Counter](domain.KindCounter)
	ctx := context.Background()

	_, _, err := h.base.VerifyOwnership(ctx, "https://example.com", "owner-token")
	assert.True(t, apperr.IsNotFound(err), "no widget behind the url is an error")

	_, _, err = h.base.Create(ctx, "https://example.com", "owner-token", buildCounter)
	require.NoError(t, err)

	_, isOwner, err := h.base.VerifyOwnership(ctx, "https://example.com", "other-token")
	require.NoError(t, err, "a wrong token is an answer, not an error")
	assert.False(t, isOwner)
}

func TestBaseDeleteCascades(t *testing.T) {
	h := newHarness[domain.Counter](domain.KindCounter)
	ctx := context.Background()

	entity, _, err := h.base.Create(ctx, "https://example.com", "owner-token", buildCounter)
	require.NoError(t, err)
	keys := h.base.Keys()

	cleaned := false
	err = h.base.Delete(ctx, "https://example.com", "owner-token", func(ctx context.Context, id string) error {
		cleaned = true
		assert.Equal(t, entity.ID, id)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, cleaned, "the domain cleanup hook must run")

	_, err = h.base.GetByID(ctx, entity.ID)
	assert.True(t, apperr.IsNotFound(err))
	_, err = h.store.Get(ctx, keys.Owner(entity.ID))
	assert.True(t, apperr.IsNotFound(err))
	_, err = h.store.Get(ctx, keys.URL("https://example.com"))
	assert.True(t, apperr.IsNotFound(err))
}

func TestBaseDeleteRequiresOwnership(t *testing.T) {
	h := newHarness[domain.Counter](domain.KindCounter)
	ctx := context.Background()

	_, _, err := h.base.Create(ctx, "https://example.com", "owner-token", buildCounter)
	require.NoError(t, err)

	err = h.base.Delete(ctx, "https://example.com", "other-token", nil)
	assert.True(t, apperr.IsUnauthorized(err))

	_, err = h.base.GetByURL(ctx, "https://example.com")
	assert.NoError(t, err, "a rejected delete must leave the widget intact")
}

func TestBaseIDsEnumeratesOnlyOwnKind(t *testing.T) {
	h := newHarness[domain.Counter](domain.KindCounter)
	ctx := context.Background()

	a, _, err := h.base.Create(ctx, "https://a.example.com", "owner-token", buildCounter)
	require.NoError(t, err)
	b, _, err := h.base.Create(ctx, "https://b.example.com", "owner-token", buildCounter)
	require.NoError(t, err)

	ids, err := h.base.IDs(ctx, h.store)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}
