package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/dsnval-service/internal/usecase"
	"github.com/user/dsnval-service/pkg/config"
	"go.uber.org/zap/zaptest"
)

const page = `<strong>Version 2024.1 42 du 15 mars 2024</strong>
<strong><a href="https://example.test/tool.zip">zip</a></strong>`

type countingFetcher struct{ calls atomic.Int32 }

func (f *countingFetcher) Fetch(context.Context, string) (string, error) {
	f.calls.Add(1)
	return page, nil
}

func testConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestNewWithMemoryCache(t *testing.T) {
	f := &countingFetcher{}
	app, err := New(context.Background(), testConfig(t, nil), zaptest.NewLogger(t), WithFetcher(f))
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, 300*time.Second, app.CacheTTL)
	assert.IsType(t, &usecase.CachedReleaseService{}, app.Releases)

	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	for i := 0; i < 2; i++ {
		resp, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "public, max-age=300", resp.Header.Get("Cache-Control"))
	}
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestNewWithoutCache(t *testing.T) {
	f := &countingFetcher{}
	app, err := New(context.Background(), testConfig(t, map[string]any{"CACHE_ENABLED": false}), zaptest.NewLogger(t), WithFetcher(f))
	require.NoError(t, err)
	defer app.Close()

	assert.Zero(t, app.CacheTTL)
	for i := 0; i < 2; i++ {
		_, err := app.Releases.Releases(context.Background())
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestNewWithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, map[string]any{"CACHE_BACKEND": "redis", "REDIS_ADDR": mr.Addr()})

	f := &countingFetcher{}
	app, err := New(context.Background(), cfg, zaptest.NewLogger(t), WithFetcher(f))
	require.NoError(t, err)
	defer app.Close()

	for i := 0; i < 2; i++ {
		set, err := app.Releases.Releases(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "42", set.Releases[0].BuildID)
	}
	assert.EqualValues(t, 1, f.calls.Load())
	assert.Len(t, mr.Keys(), 1)
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := map[string]map[string]any{
		"selection":     {"SELECTION": "oldest"},
		"month mode":    {"MONTH_MODE": "loose"},
		"fetcher":       {"FETCHER": "curl"},
		"cache backend": {"CACHE_BACKEND": "memcached"},
		"source url":    {"SOURCE_URL": "not-a-url"},
		"redis down":    {"CACHE_BACKEND": "redis", "REDIS_ADDR": "127.0.0.1:1"},
	}
	for name, overrides := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(context.Background(), testConfig(t, overrides), zaptest.NewLogger(t))
			assert.Error(t, err)
		})
	}
}
