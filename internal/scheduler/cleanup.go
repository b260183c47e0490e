package scheduler

import (
	"context"
	"time"

	"github.com/embedkit/embedkit/internal/domain"
	"github.com/embedkit/embedkit/internal/logger"
	"github.com/embedkit/embedkit/internal/metrics"
)

const (
	// DefaultRetention is how long a widget may sit idle before the sweep
	// removes it.
	DefaultRetention = 365 * 24 * time.Hour
)

// Sweepable is what the cleaner needs from a widget service: enumerate ids,
// date the last activity, and purge through the same cascade an owner
// delete runs.
type Sweepable interface {
	Kind() domain.Kind
	IDs(ctx context.Context) ([]string, error)
	LastActivity(ctx context.Context, id string) (time.Time, error)
	Purge(ctx context.Context, id string) error
}

// Cleaner periodically sweeps idle widgets across all services.
type Cleaner struct {
	services  []Sweepable
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
}

func NewCleaner(
	services []Sweepable,
	log logger.Logger,
	interval time.Duration,
	retention time.Duration,
) *Cleaner {
	if retention == 0 {
		retention = DefaultRetention
	}

	return &Cleaner{
		services:  services,
		logger:    log,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
	}
}

// Start runs one sweep immediately, then sweeps on the interval until Stop
// or context cancellation.
func (c *Cleaner) Start(ctx context.Context) error {
	if err := c.Sweep(ctx); err != nil {
		c.logger.Warn("initial cleanup sweep failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.Sweep(ctx); err != nil {
					c.logger.Error("cleanup sweep failed",
						logger.Error(err))
				}
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the cleaner.
func (c *Cleaner) Stop() {
	close(c.stopCh)
}

// Sweep removes every widget whose last activity is older than the
// retention window. Per-widget failures are logged and skipped so one bad
// record never stalls the whole sweep.
func (c *Cleaner) Sweep(ctx context.Context) error {
	c.logger.Debug("running cleanup sweep")

	cutoff := time.Now().Add(-c.retention)
	total := 0

	for _, svc := range c.services {
		deleted, err := c.sweepService(ctx, svc, cutoff)
		if err != nil {
			c.logger.Error("cleanup sweep failed for widget kind",
				logger.String("widget", svc.Kind().String()),
				logger.Error(err))
			continue
		}
		total += deleted
	}

	if total > 0 {
		c.logger.Info("cleanup sweep completed",
			logger.Int("deleted", total))
	}
	return nil
}

func (c *Cleaner) sweepService(ctx context.Context, svc Sweepable, cutoff time.Time) (int, error) {
	ids, err := svc.IDs(ctx)
	if err != nil {
		return 0, err
	}

	kind := svc.Kind().String()
	deleted := 0
	for _, id := range ids {
		last, err := svc.LastActivity(ctx, id)
		if err != nil {
			c.logger.Warn("failed to date widget activity",
				logger.String("widget", kind),
				logger.String("id", id),
				logger.Error(err))
			continue
		}
		if !last.Before(cutoff) {
			continue
		}

		if err := svc.Purge(ctx, id); err != nil {
			c.logger.Warn("failed to purge idle widget",
				logger.String("widget", kind),
				logger.String("id", id),
				logger.Error(err))
			continue
		}

		metrics.SweepDeletionsTotal.WithLabelValues(kind).Inc()
		c.logger.Info("purged idle widget",
			logger.String("widget", kind),
			logger.String("id", id),
			logger.Time("last_activity", last))
		deleted++
	}
	return deleted, nil
}
