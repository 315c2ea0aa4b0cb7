package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cyclone-catalog/internal/domain"
	"github.com/couchcryptid/cyclone-catalog/internal/observability"
)

// Source produces the raw input for one refresh.
type Source interface {
	Fetch(ctx context.Context) (domain.Batch, error)
}

// Purger is implemented by sources that cache upstream metadata. The
// refresher purges before every fetch so each snapshot is built from
// freshly fetched collections.
type Purger interface {
	Purge()
}

// Transformer turns a batch into an immutable catalog snapshot.
type Transformer interface {
	Transform(ctx context.Context, batch domain.Batch) (*domain.Catalog, error)
}

// BatchStore persists the last batch that built successfully.
type BatchStore interface {
	Save(ctx context.Context, batch domain.Batch) error
	Load(ctx context.Context) (domain.Batch, bool, error)
}

// Publisher announces a freshly installed snapshot.
type Publisher interface {
	Publish(ctx context.Context, cat *domain.Catalog) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// Refresher rebuilds the catalog on a schedule and serves the current
// snapshot to readers without locking.
type Refresher struct {
	source      Source
	transformer Transformer
	store       BatchStore
	publisher   Publisher
	interval    time.Duration
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics

	current atomic.Pointer[domain.Catalog]
}

// Option configures optional Refresher collaborators.
type Option func(*Refresher)

// WithStore persists every successful batch and restores it when the first
// fetch fails.
func WithStore(s BatchStore) Option { return func(r *Refresher) { r.store = s } }

// WithPublisher announces every installed snapshot.
func WithPublisher(p Publisher) Option { return func(r *Refresher) { r.publisher = p } }

// WithClock replaces the wall clock, for tests.
func WithClock(c clockwork.Clock) Option { return func(r *Refresher) { r.clock = c } }

// New creates a Refresher.
func New(src Source, t Transformer, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Refresher {
	r := &Refresher{
		source:      src,
		transformer: t,
		interval:    interval,
		clock:       clockwork.NewRealClock(),
		logger:      logger,
		metrics:     metrics,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the current snapshot, or nil before the first successful
// refresh.
func (r *Refresher) Catalog() *domain.Catalog {
	return r.current.Load()
}

// CheckReadiness returns nil once a snapshot is installed.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if r.current.Load() == nil {
		return errors.New("catalog has not been built yet")
	}
	return nil
}

// Run refreshes immediately and then every interval until ctx is cancelled.
// After a failure the next attempt comes sooner, doubling from 200ms up to
// the regular interval; the previous snapshot keeps serving meanwhile.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started", "interval", r.interval)

	limit := min(maxBackoff, r.interval)
	backoff := min(initialBackoff, limit)

	if err := r.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		r.logger.Error("initial refresh failed", "error", err)
		r.restore(ctx)
	}

	wait := r.interval
	if r.current.Load() == nil {
		wait = backoff
		backoff = nextBackoff(backoff, limit)
	}

	for {
		if !sleepWithContext(ctx, r.clock, wait) {
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		}

		if err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("refresh failed, keeping previous snapshot", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, limit)
			continue
		}
		wait = r.interval
		backoff = min(initialBackoff, limit)
	}
}

// Refresh runs one fetch-build-install cycle. Persisting and publishing are
// best-effort: their failures are logged and do not fail the refresh.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := r.clock.Now()
	r.metrics.Refreshes.Inc()

	if p, ok := r.source.(Purger); ok {
		p.Purge()
	}
	batch, err := r.source.Fetch(ctx)
	if err != nil {
		r.metrics.RefreshErrors.Inc()
		return fmt.Errorf("fetch batch: %w", err)
	}

	cat, err := r.transformer.Transform(ctx, batch)
	if err != nil {
		r.metrics.RefreshErrors.Inc()
		return fmt.Errorf("build catalog: %w", err)
	}
	r.install(cat)

	if r.store != nil {
		if err := r.store.Save(ctx, batch); err != nil {
			r.logger.Warn("save batch failed", "error", err)
		}
	}
	r.publish(ctx, cat)

	r.metrics.RefreshDuration.Observe(r.clock.Since(start).Seconds())
	return nil
}

// restore installs the last persisted batch, if any.
func (r *Refresher) restore(ctx context.Context) {
	if r.store == nil {
		return
	}
	batch, ok, err := r.store.Load(ctx)
	if err != nil {
		r.logger.Error("load last batch failed", "error", err)
		return
	}
	if !ok {
		r.logger.Info("no persisted batch to restore")
		return
	}
	cat, err := r.transformer.Transform(ctx, batch)
	if err != nil {
		r.logger.Error("rebuild persisted batch failed", "error", err)
		return
	}
	r.install(cat)
	r.logger.Info("restored last good catalog", "snapshot_id", cat.ID)
}

func (r *Refresher) install(cat *domain.Catalog) {
	r.current.Store(cat)

	stats := cat.Stats()
	r.metrics.CatalogStorms.Set(float64(stats.Storms))
	r.metrics.CatalogProducts.Set(float64(stats.Products))
	r.metrics.CatalogItems.Set(float64(stats.Items))

	r.logger.Info("catalog installed",
		"snapshot_id", cat.ID,
		"storms", stats.Storms,
		"products", stats.Products,
		"items", stats.Items,
	)
}

func (r *Refresher) publish(ctx context.Context, cat *domain.Catalog) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, cat); err != nil {
		r.logger.Warn("publish snapshot failed", "error", err, "snapshot_id", cat.ID)
		return
	}
	r.metrics.SnapshotsPublished.Inc()
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
