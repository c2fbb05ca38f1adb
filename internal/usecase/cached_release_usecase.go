package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/dsnval-service/internal/entity"
	"github.com/user/dsnval-service/internal/repository"
	"github.com/user/dsnval-service/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long an assembled result is served before refetching.
const DefaultCacheTTL = 300 * time.Second

// KeyedReleaseService is a ReleaseService that can name its cache key.
type KeyedReleaseService interface {
	ReleaseService
	CacheKey() string
}

// CachedReleaseService serves pipeline results from a CacheRepository.
// At most one pipeline run per key is in flight; callers arriving during a
// miss wait for and share that run's result.
type CachedReleaseService struct {
	next    KeyedReleaseService
	store   repository.CacheRepository
	ttl     time.Duration
	group   singleflight.Group
	logger  *zap.Logger
	metrics *metrics.Metrics
}

var _ ReleaseService = (*CachedReleaseService)(nil)

// NewCachedReleaseService wraps next. A non-positive ttl selects DefaultCacheTTL.
func NewCachedReleaseService(
	next KeyedReleaseService,
	store repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
	m *metrics.Metrics,
) *CachedReleaseService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedReleaseService{
		next:    next,
		store:   store,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

// TTL returns the cache lifetime.
func (c *CachedReleaseService) TTL() time.Duration {
	return c.ttl
}

// Releases returns the cached result for the pipeline's key, running the
// pipeline on a miss. Failures are returned to every waiter and never cached.
func (c *CachedReleaseService) Releases(ctx context.Context) (*entity.ReleaseSet, error) {
	key := c.next.CacheKey()

	if set, ok := c.lookup(ctx, key); ok {
		c.metrics.ObserveCache("hit")
		return set, nil
	}
	c.metrics.ObserveCache("miss")

	// The shared run must not die with whichever caller started it; the
	// fetcher's own timeout still bounds it.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if set, ok := c.lookup(flightCtx, key); ok {
			return set, nil
		}

		set, err := c.next.Releases(flightCtx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(set)
		if err != nil {
			return nil, fmt.Errorf("encoding release set: %w", err)
		}
		if err := c.store.Put(flightCtx, key, data, c.ttl); err != nil {
			c.logger.Warn("failed to store release set in cache", zap.String("key", key), zap.Error(err))
		}
		return set, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entity.ReleaseSet).Clone(), nil
	}
}

// lookup treats store failures as misses: the cache only saves work.
func (c *CachedReleaseService) lookup(ctx context.Context, key string) (*entity.ReleaseSet, bool) {
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var set entity.ReleaseSet
	if err := json.Unmarshal(entry.Value, &set); err != nil {
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &set, true
}
