package service

import (
	"context"
	"time"

	"github.com/embedkit/embedkit/internal/apperr"
	"github.com/embedkit/embedkit/internal/domain"
	"github.com/embedkit/embedkit/internal/logger"
	"github.com/embedkit/embedkit/internal/metrics"
)

// RankingConfig bounds a ranking widget's behavior.
type RankingConfig struct {
	// DefaultMaxEntries applies when creation passes no explicit bound.
	DefaultMaxEntries int
	// MaxEntriesCap is the hard upper bound an owner may configure.
	MaxEntriesCap int
	// CooldownTTL is the per-viewer resubmission window. Zero disables
	// cooldowns entirely.
	CooldownTTL time.Duration
}

// Ranking is the score-ranking service. The ranked collection never holds
// more than maxEntries: every insert that pushes it over evicts the
// lowest-ranked surplus in one bulk range removal. Rank is always derived
// from ordinal position in a fresh descending read, never stored.
type Ranking struct {
	base    *Base[domain.Ranking]
	sets    SortedSetStore
	markers MarkerStore
	scanner KeyScanner
	cfg     RankingConfig
	log     logger.Logger
}

func NewRanking(
	base *Base[domain.Ranking],
	sets SortedSetStore,
	markers MarkerStore,
	scanner KeyScanner,
	cfg RankingConfig,
	log logger.Logger,
) *Ranking {
	return &Ranking{
		base:    base,
		sets:    sets,
		markers: markers,
		scanner: scanner,
		cfg:     cfg,
		log:     log,
	}
}

func (s *Ranking) Kind() domain.Kind { return s.base.Kind() }

// Create makes a ranking for url. maxEntries of zero takes the default;
// anything above the cap clamps to it.
func (s *Ranking) Create(ctx context.Context, url, token string, maxEntries int) (domain.RankingData, bool, error) {
	if maxEntries < 0 {
		return domain.RankingData{}, false, apperr.Validation("maxEntries must not be negative")
	}
	if maxEntries == 0 {
		maxEntries = s.cfg.DefaultMaxEntries
	}
	if maxEntries > s.cfg.MaxEntriesCap {
		maxEntries = s.cfg.MaxEntriesCap
	}

	entity, created, err := s.base.Create(ctx, url, token, func(b domain.Base) domain.Ranking {
		return domain.Ranking{Base: b, MaxEntries: maxEntries}
	})
	if err != nil {
		return domain.RankingData{}, false, err
	}
	metrics.OperationsTotal.WithLabelValues("ranking", "create").Inc()

	data, err := s.project(ctx, entity)
	return data, created, err
}

// Get returns the current top entries with derived ranks.
func (s *Ranking) Get(ctx context.Context, id string) (domain.RankingData, error) {
	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return domain.RankingData{}, err
	}
	return s.project(ctx, entity)
}

// SubmitScore upserts (name, score): resubmitting the same name overwrites
// its score, it does not duplicate. When a viewer hash is supplied the
// per-viewer cooldown claim is taken first; hitting the cooldown returns
// the current standings unchanged, as a successful result.
func (s *Ranking) SubmitScore(ctx context.Context, url, token, name string, score float64, viewerHash string) (domain.RankingData, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.RankingData{}, err
	}
	if err := domain.ValidateViewerHash(viewerHash); err != nil {
		return domain.RankingData{}, err
	}

	entity, err := s.base.requireOwner(ctx, url, token)
	if err != nil {
		return domain.RankingData{}, err
	}
	metrics.OperationsTotal.WithLabelValues("ranking", "submit").Inc()

	keys := s.base.Keys()
	if viewerHash != "" && s.cfg.CooldownTTL > 0 {
		claimed, err := s.markers.SetIfNotExists(ctx, keys.Cooldown(entity.ID, viewerHash), s.cfg.CooldownTTL)
		if err != nil {
			return domain.RankingData{}, err
		}
		if !claimed {
			metrics.ClaimConflictsTotal.WithLabelValues("ranking").Inc()
			return s.project(ctx, entity)
		}
	}

	if err := s.sets.Add(ctx, keys.Scores(entity.ID), name, score); err != nil {
		if viewerHash != "" && s.cfg.CooldownTTL > 0 {
			metrics.RollbacksTotal.WithLabelValues("ranking").Inc()
			if rerr := s.markers.Release(ctx, keys.Cooldown(entity.ID, viewerHash)); rerr != nil {
				s.log.Warn("failed to release cooldown after error",
					logger.String("id", entity.ID), logger.Error(rerr))
			}
		}
		return domain.RankingData{}, err
	}

	if err := s.evictSurplus(ctx, entity); err != nil {
		return domain.RankingData{}, err
	}
	return s.project(ctx, entity)
}

// UpdateScore is the owner-gated direct overwrite of an existing entry.
func (s *Ranking) UpdateScore(ctx context.Context, url, token, name string, score float64) (domain.RankingData, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.RankingData{}, err
	}

	entity, err := s.base.requireOwner(ctx, url, token)
	if err != nil {
		return domain.RankingData{}, err
	}
	metrics.OperationsTotal.WithLabelValues("ranking", "update").Inc()

	key := s.base.Keys().Scores(entity.ID)
	if _, exists, err := s.sets.Score(ctx, key, name); err != nil {
		return domain.RankingData{}, err
	} else if !exists {
		return domain.RankingData{}, apperr.NotFoundf("no ranking entry named %q", name)
	}

	if err := s.sets.Add(ctx, key, name, score); err != nil {
		return domain.RankingData{}, err
	}
	if err := s.evictSurplus(ctx, entity); err != nil {
		return domain.RankingData{}, err
	}
	return s.project(ctx, entity)
}

// RemoveEntry is the owner-gated removal of one entry.
func (s *Ranking) RemoveEntry(ctx context.Context, url, token, name string) (domain.RankingData, error) {
	entity, err := s.base.requireOwner(ctx, url, token)
	if err != nil {
		return domain.RankingData{}, err
	}
	metrics.OperationsTotal.WithLabelValues("ranking", "remove").Inc()

	removed, err := s.sets.Remove(ctx, s.base.Keys().Scores(entity.ID), name)
	if err != nil {
		return domain.RankingData{}, err
	}
	if !removed {
		return domain.RankingData{}, apperr.NotFoundf("no ranking entry named %q", name)
	}
	return s.project(ctx, entity)
}

// Clear is the owner-gated removal of every entry.
func (s *Ranking) Clear(ctx context.Context, url, token string) (domain.RankingData, error) {
	entity, err := s.base.requireOwner(ctx, url, token)
	if err != nil {
		return domain.RankingData{}, err
	}
	metrics.OperationsTotal.WithLabelValues("ranking", "clear").Inc()

	if err := s.sets.Clear(ctx, s.base.Keys().Scores(entity.ID)); err != nil {
		return domain.RankingData{}, err
	}
	return s.project(ctx, entity)
}

func (s *Ranking) Delete(ctx context.Context, url, token string) error {
	metrics.OperationsTotal.WithLabelValues("ranking", "delete").Inc()
	return s.base.Delete(ctx, url, token, s.cleanup)
}

func (s *Ranking) Purge(ctx context.Context, id string) error {
	return s.base.Purge(ctx, id, s.cleanup)
}

func (s *Ranking) IDs(ctx context.Context) ([]string, error) {
	return s.base.IDs(ctx, s.scanner)
}

func (s *Ranking) LastActivity(ctx context.Context, id string) (time.Time, error) {
	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	return entity.Created, nil
}

func (s *Ranking) cleanup(ctx context.Context, id string) error {
	keys := s.base.Keys()
	if err := s.sets.Clear(ctx, keys.Scores(id)); err != nil {
		return err
	}
	if _, err := s.scanner.DeleteKeys(ctx, keys.CooldownPattern(id)); err != nil {
		return err
	}
	return nil
}

// evictSurplus enforces the maxEntries bound after an insert: ascending
// rank 0 is the lowest score, so the surplus below the top maxEntries goes
// in one bulk removal.
func (s *Ranking) evictSurplus(ctx context.Context, entity domain.Ranking) error {
	key := s.base.Keys().Scores(entity.ID)

	count, err := s.sets.Count(ctx, key)
	if err != nil {
		return err
	}
	surplus := count - int64(entity.MaxEntries)
	if surplus <= 0 {
		return nil
	}

	evicted, err := s.sets.RemoveRangeByRank(ctx, key, 0, surplus-1)
	if err != nil {
		return err
	}
	s.log.Debug("evicted surplus ranking entries",
		logger.String("id", entity.ID),
		logger.Int64("evicted", evicted))
	return nil
}

func (s *Ranking) project(ctx context.Context, entity domain.Ranking) (domain.RankingData, error) {
	key := s.base.Keys().Scores(entity.ID)

	count, err := s.sets.Count(ctx, key)
	if err != nil {
		return domain.RankingData{}, err
	}
	members, err := s.sets.RangeDescending(ctx, key, 0, int64(entity.MaxEntries)-1)
	if err != nil {
		return domain.RankingData{}, err
	}

	entries := make([]domain.RankingEntry, len(members))
	for i, m := range members {
		entries[i] = domain.RankingEntry{
			Rank:  i + 1, // ordinal position, derived fresh each read
			Name:  m.Member,
			Score: m.Score,
		}
	}

	return domain.RankingData{
		ID:         entity.ID,
		URL:        entity.URL,
		MaxEntries: entity.MaxEntries,
		Total:      count,
		Entries:    entries,
	}, nil
}
