package service

import (
	"context"
	"time"

	"github.com/embedkit/embedkit/internal/domain"
	"github.com/embedkit/embedkit/internal/logger"
	"github.com/embedkit/embedkit/internal/metrics"
)

const (
	rollingWeekDays  = 7
	rollingMonthDays = 30
)

// CounterConfig bounds a counter widget's behavior.
type CounterConfig struct {
	// Ceiling caps the running total; overflow clamps.
	Ceiling int64
	// DedupTTL is the lifetime of the per-viewer visit claim. One visit
	// per viewer counts within this window.
	DedupTTL time.Duration
}

// Counter is the visit-counter service. Increment counts each viewer at
// most once per dedup window by claiming a per-(id, viewer) marker before
// touching any total.
type Counter struct {
	base     *Base[domain.Counter]
	nums     *Numeric
	counters CounterStore
	markers  MarkerStore
	scanner  KeyScanner
	cfg      CounterConfig
	log      logger.Logger
}

func NewCounter(
	base *Base[domain.Counter],
	counters CounterStore,
	markers MarkerStore,
	scanner KeyScanner,
	cfg CounterConfig,
	log logger.Logger,
) *Counter {
	return &Counter{
		base:     base,
		nums:     NewNumeric(counters, cfg.Ceiling),
		counters: counters,
		markers:  markers,
		scanner:  scanner,
		cfg:      cfg,
		log:      log,
	}
}

func (s *Counter) Kind() domain.Kind { return s.base.Kind() }

// Create makes a counter for url, or returns the existing one when token
// matches. The bool reports whether this call created it.
func (s *Counter) Create(ctx context.Context, url, token string) (domain.CounterData, bool, error) {
	entity, created, err := s.base.Create(ctx, url, token, func(b domain.Base) domain.Counter {
		return domain.Counter{Base: b}
	})
	if err != nil {
		return domain.CounterData{}, false, err
	}
	metrics.OperationsTotal.WithLabelValues("counter", "create").Inc()

	data, err := s.project(ctx, entity)
	return data, created, err
}

// Get returns the counter's current totals and rolling views.
func (s *Counter) Get(ctx context.Context, id string) (domain.CounterData, error) {
	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return domain.CounterData{}, err
	}
	return s.project(ctx, entity)
}

// Increment counts a visit. The per-viewer dedup claim is taken first: if
// it is already held, the current totals come back unchanged - that is the
// anti-double-count guarantee, and it is a successful result, not an error.
// If a later increment fails, the claim is released so a transient failure
// does not lock the viewer out for the whole window.
func (s *Counter) Increment(ctx context.Context, id, viewerHash string) (domain.CounterData, error) {
	if err := domain.ValidateViewerHash(viewerHash); err != nil {
		return domain.CounterData{}, err
	}

	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return domain.CounterData{}, err
	}
	metrics.OperationsTotal.WithLabelValues("counter", "increment").Inc()

	keys := s.base.Keys()
	if viewerHash != "" {
		claimed, err := s.markers.SetIfNotExists(ctx, keys.Visitor(id, viewerHash), s.cfg.DedupTTL)
		if err != nil {
			return domain.CounterData{}, err
		}
		if !claimed {
			metrics.ClaimConflictsTotal.WithLabelValues("counter").Inc()
			return s.project(ctx, entity)
		}
	}

	rollback := func() {
		if viewerHash == "" {
			return
		}
		metrics.RollbacksTotal.WithLabelValues("counter").Inc()
		if rerr := s.markers.Release(ctx, keys.Visitor(id, viewerHash)); rerr != nil {
			// Best effort: a stale claim self-heals when its TTL expires.
			s.log.Warn("failed to release visit claim after error",
				logger.String("id", id), logger.Error(rerr))
		}
	}

	if _, err := s.nums.Increment(ctx, keys.Total(id)); err != nil {
		rollback()
		return domain.CounterData{}, err
	}
	if _, err := s.counters.Increment(ctx, keys.Daily(id, s.now())); err != nil {
		// Undo the total first so the claim is the only thing a crash
		// here can leave stale.
		if _, derr := s.nums.Decrement(ctx, keys.Total(id)); derr != nil {
			s.log.Warn("failed to undo total after daily increment error",
				logger.String("id", id), logger.Error(derr))
		}
		rollback()
		return domain.CounterData{}, err
	}

	return s.project(ctx, entity)
}

// SetValue is the owner-only absolute override of the running total.
func (s *Counter) SetValue(ctx context.Context, url, token string, value int64) (domain.CounterData, error) {
	entity, err := s.base.requireOwner(ctx, url, token)
	if err != nil {
		return domain.CounterData{}, err
	}
	metrics.OperationsTotal.WithLabelValues("counter", "set_value").Inc()

	if _, err := s.nums.SetValue(ctx, s.base.Keys().Total(entity.ID), value); err != nil {
		return domain.CounterData{}, err
	}
	return s.project(ctx, entity)
}

// Delete removes the counter and every sub-resource behind it.
func (s *Counter) Delete(ctx context.Context, url, token string) error {
	metrics.OperationsTotal.WithLabelValues("counter", "delete").Inc()
	return s.base.Delete(ctx, url, token, s.cleanup)
}

// Purge removes the counter by id. Cleanup sweep path.
func (s *Counter) Purge(ctx context.Context, id string) error {
	return s.base.Purge(ctx, id, s.cleanup)
}

// IDs enumerates every counter id, for the sweep.
func (s *Counter) IDs(ctx context.Context) ([]string, error) {
	return s.base.IDs(ctx, s.scanner)
}

// LastActivity returns the date of the newest daily bucket, or the created
// timestamp when the counter has never been incremented.
func (s *Counter) LastActivity(ctx context.Context, id string) (time.Time, error) {
	entity, err := s.base.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}

	keys := s.base.Keys()
	bucketKeys, err := s.scanner.ScanKeys(ctx, keys.DailyPattern(id))
	if err != nil {
		return time.Time{}, err
	}

	last := entity.Created
	for _, key := range bucketKeys {
		if day, ok := keys.DayOfDailyKey(key); ok && day.After(last) {
			last = day
		}
	}
	return last, nil
}

func (s *Counter) cleanup(ctx context.Context, id string) error {
	keys := s.base.Keys()
	if err := s.counters.Delete(ctx, keys.Total(id)); err != nil {
		return err
	}
	if _, err := s.scanner.DeleteKeys(ctx, keys.DailyPattern(id)); err != nil {
		return err
	}
	if _, err := s.scanner.DeleteKeys(ctx, keys.VisitorPattern(id)); err != nil {
		return err
	}
	return nil
}

// project assembles the public view: the running total plus rolling views
// summed from the per-day buckets in a single multi-get.
func (s *Counter) project(ctx context.Context, entity domain.Counter) (domain.CounterData, error) {
	keys := s.base.Keys()

	total, err := s.counters.Get(ctx, keys.Total(entity.ID))
	if err != nil {
		return domain.CounterData{}, err
	}

	today := s.now()
	bucketKeys := make([]string, rollingMonthDays)
	for i := 0; i < rollingMonthDays; i++ {
		bucketKeys[i] = keys.Daily(entity.ID, today.AddDate(0, 0, -i))
	}

	buckets, err := s.counters.GetMany(ctx, bucketKeys)
	if err != nil {
		return domain.CounterData{}, err
	}

	data := domain.CounterData{
		ID:    entity.ID,
		URL:   entity.URL,
		Total: total,
	}
	for i, v := range buckets {
		switch {
		case i == 0:
			data.Today = v
		case i == 1:
			data.Yesterday = v
		}
		if i < rollingWeekDays {
			data.Week += v
		}
		data.Month += v
	}
	return data, nil
}

func (s *Counter) now() time.Time {
	return s.base.now().UTC()
}
