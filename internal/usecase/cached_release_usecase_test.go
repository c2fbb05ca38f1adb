package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/dsnval-service/internal/adapter/memory"
	"github.com/user/dsnval-service/internal/entity"
	"github.com/user/dsnval-service/pkg/metrics"
	"go.uber.org/zap/zaptest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*entity.CacheEntry, bool, error) {
	return nil, false, errors.New("store down")
}

func (brokenStore) Put(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}

func newCached(t *testing.T, f *fakeFetcher, clock *fakeClock, m *metrics.Metrics) *CachedReleaseService {
	t.Helper()
	return NewCachedReleaseService(
		newPipeline(t, f, SelectLatest, m),
		memory.NewCacheStore(clock.Now),
		time.Minute,
		zaptest.NewLogger(t),
		m,
	)
}

func TestCachedServesWithinTTL(t *testing.T) {
	f := &fakeFetcher{html: examplePage}
	clock := newFakeClock()
	m := metrics.New(prometheus.NewRegistry())
	svc := newCached(t, f, clock, m)

	first, err := svc.Releases(context.Background())
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	second, err := svc.Releases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, f.calls.Load())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("miss")))
}

func TestCachedRefetchesAfterExpiry(t *testing.T) {
	f := &fakeFetcher{html: examplePage}
	clock := newFakeClock()
	svc := newCached(t, f, clock, nil)

	_, err := svc.Releases(context.Background())
	require.NoError(t, err)

	f.set(`<strong>Version 2024.2 43 du 20 juin 2024</strong><strong><a href="/b.exe">b</a></strong>`, nil)
	clock.Advance(time.Minute)

	set, err := svc.Releases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "43", set.Releases[0].BuildID)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	f := &fakeFetcher{err: fmt.Errorf("%w: timeout", entity.ErrNetwork)}
	svc := newCached(t, f, newFakeClock(), nil)

	_, err := svc.Releases(context.Background())
	require.ErrorIs(t, err, entity.ErrNetwork)

	f.set(examplePage, nil)
	set, err := svc.Releases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", set.Releases[0].BuildID)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestCachedSharesOneRunAcrossConcurrentCallers(t *testing.T) {
	f := &fakeFetcher{html: examplePage, gate: make(chan struct{})}
	svc := newCached(t, f, newFakeClock(), nil)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*entity.ReleaseSet, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Releases(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.EqualValues(t, 1, f.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "42", results[i].Releases[0].BuildID)
	}
	// Callers get independent copies.
	results[0].Releases[0].BuildID = "changed"
	assert.Equal(t, "42", results[1].Releases[0].BuildID)
}

func TestCachedWaiterCancellationDoesNotAbortRun(t *testing.T) {
	f := &fakeFetcher{html: examplePage, gate: make(chan struct{})}
	svc := newCached(t, f, newFakeClock(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Releases(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(f.gate)
	require.Eventually(t, func() bool {
		set, err := svc.Releases(context.Background())
		return err == nil && set.Releases[0].BuildID == "42"
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestCachedToleratesBrokenStore(t *testing.T) {
	f := &fakeFetcher{html: examplePage}
	svc := NewCachedReleaseService(newPipeline(t, f, SelectLatest, nil), brokenStore{}, 0, zaptest.NewLogger(t), nil)
	assert.Equal(t, DefaultCacheTTL, svc.TTL())

	for i := 0; i < 2; i++ {
		set, err := svc.Releases(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "42", set.Releases[0].BuildID)
	}
	assert.EqualValues(t, 2, f.calls.Load())
}
