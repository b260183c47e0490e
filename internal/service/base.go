package service

import (
	"context"
	"time"

	"github.com/embedkit/embedkit/internal/apperr"
	"github.com/embedkit/embedkit/internal/domain"
	"github.com/embedkit/embedkit/internal/logger"
	redisstore "github.com/embedkit/embedkit/internal/store/redis"
)

// Base is the generic persistence core shared by all four widget services:
// idempotent creation, lookups, ownership verification and cascading
// deletion. Domain services compose a Base and add their own collection
// logic on top.
type Base[E domain.Record] struct {
	keys     redisstore.Keys
	entities EntityStore[E]
	strings  StringStore
	now      func() time.Time
	log      logger.Logger
}

func NewBase[E domain.Record](
	keys redisstore.Keys,
	entities EntityStore[E],
	strings StringStore,
	log logger.Logger,
) *Base[E] {
	return &Base[E]{
		keys:     keys,
		entities: entities,
		strings:  strings,
		now:      time.Now,
		log:      log,
	}
}

func (b *Base[E]) Kind() domain.Kind    { return b.keys.Kind() }
func (b *Base[E]) Keys() redisstore.Keys { return b.keys }

// WithNow overrides the clock. Tests only.
func (b *Base[E]) WithNow(now func() time.Time) *Base[E] {
	b.now = now
	return b
}

// Create makes a new entity for url, or returns the existing one when the
// supplied token proves ownership. The same URL always resolves to the same
// id, so creation is naturally idempotent. The returned bool reports
// whether this call created the entity.
func (b *Base[E]) Create(ctx context.Context, url, token string, build func(domain.Base) E) (E, bool, error) {
	var zero E

	if err := domain.ValidateURL(url); err != nil {
		return zero, false, err
	}
	if err := domain.ValidateToken(token); err != nil {
		return zero, false, err
	}

	// Existing mapping: this is the idempotent "already exists" path,
	// guarded by the owner hash.
	existingID, err := b.strings.Get(ctx, b.keys.URL(url))
	if err == nil {
		existing, err := b.claimExisting(ctx, existingID, token)
		if err == nil {
			return existing, false, nil
		}
		if !apperr.IsNotFound(err) {
			return zero, false, err
		}
		// Dangling mapping (entity or owner record gone): fall through
		// and recreate.
		b.log.Warn("dangling url mapping, recreating entity",
			logger.String("widget", b.Kind().String()),
			logger.String("id", existingID))
	} else if !apperr.IsNotFound(err) {
		return zero, false, err
	}

	id := domain.DeriveID(url)
	entity := build(domain.Base{ID: id, URL: url, Created: b.now().UTC()})

	// Three independent writes. Compensating deletes keep a partial
	// failure from leaving an entity without owner or index; a crash in
	// between leaves at worst an unreachable record for the sweep.
	if err := b.entities.Save(ctx, b.keys.Entity(id), entity); err != nil {
		return zero, false, err
	}
	if err := b.strings.Set(ctx, b.keys.Owner(id), domain.HashToken(token)); err != nil {
		_, _ = b.entities.Delete(ctx, b.keys.Entity(id))
		return zero, false, err
	}
	if err := b.strings.Set(ctx, b.keys.URL(url), id); err != nil {
		_, _ = b.strings.Delete(ctx, b.keys.Owner(id))
		_, _ = b.entities.Delete(ctx, b.keys.Entity(id))
		return zero, false, err
	}

	b.log.Info("widget created",
		logger.String("widget", b.Kind().String()),
		logger.String("id", id))
	return entity, true, nil
}

// claimExisting returns the entity behind an existing mapping when token
// matches its owner hash.
func (b *Base[E]) claimExisting(ctx context.Context, id, token string) (E, error) {
	var zero E

	ownerHash, err := b.strings.Get(ctx, b.keys.Owner(id))
	if err != nil {
		return zero, err
	}
	if !domain.VerifyToken(token, ownerHash) {
		return zero, apperr.Unauthorized("token does not match existing widget")
	}
	return b.entities.Get(ctx, b.keys.Entity(id))
}

// GetByID reads an entity record by public id.
func (b *Base[E]) GetByID(ctx context.Context, id string) (E, error) {
	var zero E
	if id == "" {
		return zero, apperr.Validation("id is required")
	}
	return b.entities.Get(ctx, b.keys.Entity(id))
}

// GetByURL resolves the url index first, then reads the entity. A dangling
// mapping reads as not found, not as a crash.
func (b *Base[E]) GetByURL(ctx context.Context, url string) (E, error) {
	var zero E

	if err := domain.ValidateURL(url); err != nil {
		return zero, err
	}
	id, err := b.strings.Get(ctx, b.keys.URL(url))
	if err != nil {
		return zero, err
	}
	return b.entities.Get(ctx, b.keys.Entity(id))
}

// VerifyOwnership resolves the entity behind url and reports whether token
// matches its owner hash. "No such entity" surfaces as an error; "wrong
// token" as isOwner=false, so callers can tell the two apart.
func (b *Base[E]) VerifyOwnership(ctx context.Context, url, token string) (E, bool, error) {
	var zero E

	entity, err := b.GetByURL(ctx, url)
	if err != nil {
		return zero, false, err
	}

	ownerHash, err := b.strings.Get(ctx, b.keys.Owner(entity.Ref().ID))
	if err != nil {
		if apperr.IsNotFound(err) {
			return entity, false, nil
		}
		return zero, false, err
	}
	return entity, domain.VerifyToken(token, ownerHash), nil
}

// IsOwnerByID reports whether token matches the owner hash of the entity
// with this id. Used where the caller addresses a widget by public id but
// still has to prove ownership (message moderation).
func (b *Base[E]) IsOwnerByID(ctx context.Context, id, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ownerHash, err := b.strings.Get(ctx, b.keys.Owner(id))
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return domain.VerifyToken(token, ownerHash), nil
}

// requireOwner is VerifyOwnership with the common "fail unless owner"
// policy applied.
func (b *Base[E]) requireOwner(ctx context.Context, url, token string) (E, error) {
	entity, isOwner, err := b.VerifyOwnership(ctx, url, token)
	if err != nil {
		return entity, err
	}
	if !isOwner {
		return entity, apperr.Unauthorized("token does not match widget owner")
	}
	return entity, nil
}

// Delete re-verifies ownership, runs the domain cleanup hook, then removes
// entity, owner hash and url mapping in that order. Already-deleted state
// is never rolled back: a partially destroyed widget is preferable to one
// that exists but cannot be owned.
func (b *Base[E]) Delete(ctx context.Context, url, token string, cleanup func(ctx context.Context, id string) error) error {
	entity, err := b.requireOwner(ctx, url, token)
	if err != nil {
		return err
	}
	return b.destroy(ctx, entity, cleanup)
}

// Purge removes an entity by id without a token; the cleanup sweep uses it
// so expiry reuses the exact cascade a human owner would trigger.
func (b *Base[E]) Purge(ctx context.Context, id string, cleanup func(ctx context.Context, id string) error) error {
	entity, err := b.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return b.destroy(ctx, entity, cleanup)
}

func (b *Base[E]) destroy(ctx context.Context, entity E, cleanup func(ctx context.Context, id string) error) error {
	ref := entity.Ref()

	if cleanup != nil {
		if err := cleanup(ctx, ref.ID); err != nil {
			return err
		}
	}
	if _, err := b.entities.Delete(ctx, b.keys.Entity(ref.ID)); err != nil {
		return err
	}
	if _, err := b.strings.Delete(ctx, b.keys.Owner(ref.ID)); err != nil {
		return err
	}
	if _, err := b.strings.Delete(ctx, b.keys.URL(ref.URL)); err != nil {
		return err
	}

	b.log.Info("widget deleted",
		logger.String("widget", b.Kind().String()),
		logger.String("id", ref.ID))
	return nil
}

// IDs enumerates every entity id of this kind, for the cleanup sweep.
func (b *Base[E]) IDs(ctx context.Context, scanner KeyScanner) ([]string, error) {
	keys, err := scanner.ScanKeys(ctx, b.keys.EntityPattern())
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		if id, ok := b.keys.IDFromEntityKey(key); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
