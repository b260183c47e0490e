package service

import (
	"context"
	"time"

	"github.com/embedkit/embedkit/internal/apperr"
	"github.com/embedkit/embedkit/internal/domain"
	"github.com/embedkit/embedkit/internal/logger"
	"github.com/embedkit/embedkit/internal/metrics"
)

// LikeConfig bounds a like widget's behavior.
type LikeConfig struct {
	// Ceiling caps the like total; overflow clamps.
	Ceiling int64
	// MarkerTTL is the fixed lifetime of a viewer's has-liked marker.
	MarkerTTL time.Duration
}

// Like is the like-button service. The per-viewer marker IS the toggle
// state: its presence exactly tracks userLiked, and the atomic claim on it
// resolves concurrent toggles without transactions.
type Like struct {
	base     *Base[domain.Like]
	nums     *Numeric
	counters CounterStore
	markers  MarkerStore
	scanner  KeyScanner
	cfg      LikeConfig
	log      logger.Logger
}

func NewLike(
	base *Base[domain.Like],
	counters CounterStore,
	markers MarkerStore,
	scanner KeyScanner,
	cfg LikeConfig,
	log logger.Logger,
) *Like {
	return &Like{
		base:     base,
		nums:     NewNumeric(counters, cfg.Ceiling),
		counters: counters,
		markers:  markers,
		scanner:  scanner,
		cfg:      cfg,
		log:      log,
	}
}

func (s *Like) Kind() domain.Kind { return s.base.Kind() }

func (s *Like) Create(ctx context.Context, url, token string) (domain.LikeData, bool, error) {
	entity, created, err := s.base.Create(ctx, url, token, func(b domain.Base) domain.Like {
		return domain.Like{Base: b}
	})
	if err != nil {
		return domain.LikeData{}, false, err
	}
	metrics.OperationsTotal.WithLabelValues("like", "create").Inc()

	data, err := s.project(ctx, entity, "")
	return data, created, err
}

// Get returns the like total and whether this viewer has liked.
func (s *Like) Get(ctx context.Context, id, viewerHash string) (domain.LikeData, error) {
	if err := domain.ValidateViewerHash(viewerHash); err != nil {
		return domain.LikeData{}, err
	}
	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return domain.LikeData{}, err
	}
	return s.project(ctx, entity, viewerHash)
}

// Toggle flips this viewer's like. Both directions are symmetric: the
// marker transition happens first, and if the total update behind it fails
// the marker is put back the way it was, so a crash mid-sequence only ever
// leaves a stale marker, never a stale total.
func (s *Like) Toggle(ctx context.Context, id, viewerHash string) (domain.LikeData, error) {
	if err := domain.ValidateViewerHash(viewerHash); err != nil {
		return domain.LikeData{}, err
	}
	if viewerHash == "" {
		return domain.LikeData{}, apperr.Validation("a viewer fingerprint is required to like")
	}

	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return domain.LikeData{}, err
	}
	metrics.OperationsTotal.WithLabelValues("like", "toggle").Inc()

	keys := s.base.Keys()
	markerKey := keys.LikeUser(id, viewerHash)
	totalKey := keys.Total(id)

	liked, err := s.markers.Exists(ctx, markerKey)
	if err != nil {
		return domain.LikeData{}, err
	}

	if liked {
		// Unlike: remove the marker, then decrement.
		if err := s.markers.Release(ctx, markerKey); err != nil {
			return domain.LikeData{}, err
		}
		total, err := s.nums.Decrement(ctx, totalKey)
		if err != nil {
			metrics.RollbacksTotal.WithLabelValues("like").Inc()
			if rerr := s.markers.Restore(ctx, markerKey, s.cfg.MarkerTTL); rerr != nil {
				s.log.Warn("failed to restore like marker after error",
					logger.String("id", id), logger.Error(rerr))
			}
			return domain.LikeData{}, err
		}
		return s.data(entity, total, false), nil
	}

	// Like: claim the marker. Losing the claim means a concurrent request
	// already counted this viewer - return the now-current state instead
	// of double-incrementing.
	claimed, err := s.markers.SetIfNotExists(ctx, markerKey, s.cfg.MarkerTTL)
	if err != nil {
		return domain.LikeData{}, err
	}
	if !claimed {
		metrics.ClaimConflictsTotal.WithLabelValues("like").Inc()
		total, err := s.counters.Get(ctx, totalKey)
		if err != nil {
			return domain.LikeData{}, err
		}
		return s.data(entity, total, true), nil
	}

	total, err := s.nums.Increment(ctx, totalKey)
	if err != nil {
		metrics.RollbacksTotal.WithLabelValues("like").Inc()
		if rerr := s.markers.Release(ctx, markerKey); rerr != nil {
			s.log.Warn("failed to release like marker after error",
				logger.String("id", id), logger.Error(rerr))
		}
		return domain.LikeData{}, err
	}
	return s.data(entity, total, true), nil
}

func (s *Like) Delete(ctx context.Context, url, token string) error {
	metrics.OperationsTotal.WithLabelValues("like", "delete").Inc()
	return s.base.Delete(ctx, url, token, s.cleanup)
}

func (s *Like) Purge(ctx context.Context, id string) error {
	return s.base.Purge(ctx, id, s.cleanup)
}

func (s *Like) IDs(ctx context.Context) ([]string, error) {
	return s.base.IDs(ctx, s.scanner)
}

// LastActivity is the created timestamp; like widgets keep no activity log.
func (s *Like) LastActivity(ctx context.Context, id string) (time.Time, error) {
	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	return entity.Created, nil
}

func (s *Like) cleanup(ctx context.Context, id string) error {
	keys := s.base.Keys()
	if err := s.counters.Delete(ctx, keys.Total(id)); err != nil {
		return err
	}
	if _, err := s.scanner.DeleteKeys(ctx, keys.LikeUserPattern(id)); err != nil {
		return err
	}
	return nil
}

func (s *Like) project(ctx context.Context, entity domain.Like, viewerHash string) (domain.LikeData, error) {
	total, err := s.counters.Get(ctx, s.base.Keys().Total(entity.ID))
	if err != nil {
		return domain.LikeData{}, err
	}

	liked := false
	if viewerHash != "" {
		liked, err = s.markers.Exists(ctx, s.base.Keys().LikeUser(entity.ID, viewerHash))
		if err != nil {
			return domain.LikeData{}, err
		}
	}
	return s.data(entity, total, liked), nil
}

func (s *Like) data(entity domain.Like, total int64, liked bool) domain.LikeData {
	return domain.LikeData{
		ID:        entity.ID,
		URL:       entity.URL,
		Total:     total,
		UserLiked: liked,
	}
}
