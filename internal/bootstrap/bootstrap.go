// Package bootstrap assembles the service object graph from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/user/dsnval-service/internal/adapter/chromedp_fetcher"
	"github.com/user/dsnval-service/internal/adapter/httpfetch"
	"github.com/user/dsnval-service/internal/adapter/memory"
	"github.com/user/dsnval-service/internal/adapter/proxy"
	redis_adapter "github.com/user/dsnval-service/internal/adapter/redis"
	"github.com/user/dsnval-service/internal/delivery/http/handler"
	"github.com/user/dsnval-service/internal/delivery/http/router"
	"github.com/user/dsnval-service/internal/extractor"
	"github.com/user/dsnval-service/internal/normalizer"
	"github.com/user/dsnval-service/internal/repository"
	"github.com/user/dsnval-service/internal/usecase"
	"github.com/user/dsnval-service/pkg/config"
	"github.com/user/dsnval-service/pkg/metrics"
	"go.uber.org/zap"
)

// App is the wired service.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Releases usecase.ReleaseService
	// CacheTTL is zero when caching is disabled.
	CacheTTL time.Duration

	closers []func()
}

// Option customises New.
type Option func(*options)

type options struct {
	fetcher repository.FetcherRepository
	now     func() time.Time
}

// WithFetcher replaces the configured fetcher.
func WithFetcher(f repository.FetcherRepository) Option {
	return func(o *options) { o.fetcher = f }
}

// WithClock sets the clock used by the in-memory cache.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds the App described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	selection, err := usecase.ParseSelection(cfg.Selection)
	if err != nil {
		return nil, err
	}
	mode, err := normalizer.ParseMode(cfg.MonthMode)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  m,
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher, err = app.newFetcher(cfg, logger, m)
		if err != nil {
			return nil, err
		}
	}

	pipeline, err := usecase.NewReleasePipeline(
		fetcher,
		extractor.New(),
		usecase.NewAssembler(normalizer.New(mode, logger), selection),
		cfg.SourceURL,
		logger,
		m,
	)
	if err != nil {
		app.Close()
		return nil, err
	}

	if !cfg.CacheEnabled {
		app.Releases = pipeline
		logger.Info("release cache disabled")
		return app, nil
	}

	store, err := app.newCacheStore(ctx, cfg, o.now)
	if err != nil {
		app.Close()
		return nil, err
	}
	cached := usecase.NewCachedReleaseService(pipeline, store, cfg.CacheTTL(), logger, m)
	app.Releases = cached
	app.CacheTTL = cached.TTL()
	logger.Info("release cache enabled",
		zap.String("backend", cfg.CacheBackend),
		zap.Duration("ttl", app.CacheTTL),
	)
	return app, nil
}

// Handler returns the HTTP router for the app.
func (a *App) Handler() http.Handler {
	h := handler.NewHandler(a.Releases, a.CacheTTL, a.Logger)
	return router.New(h, a.Metrics, a.Registry, a.Logger)
}

// Close releases browser and Redis resources.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) newFetcher(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (repository.FetcherRepository, error) {
	pm, err := proxy.NewManager(cfg.ProxyList(), cfg.UserAgentList())
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Fetcher) {
	case "", "http":
		return httpfetch.New(httpfetch.Options{
			Timeout:            cfg.FetchTimeout(),
			InsecureSkipVerify: cfg.TLSInsecureSkipVerify,
			RatePerSecond:      cfg.FetchRatePerSecond,
		}, pm, logger, m), nil
	case "browser":
		f := chromedp_fetcher.NewChromedpFetcher(cfg.FetchTimeout(), cfg.TLSInsecureSkipVerify, pm, logger)
		a.closers = append(a.closers, f.Close)
		return f, nil
	default:
		return nil, fmt.Errorf("unknown fetcher %q (want http or browser)", cfg.Fetcher)
	}
}

func (a *App) newCacheStore(ctx context.Context, cfg *config.Config, now func() time.Time) (repository.CacheRepository, error) {
	switch strings.ToLower(cfg.CacheBackend) {
	case "", "memory":
		return memory.NewCacheStore(now), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("unable to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		a.Logger.Info("Redis connection established", zap.String("addr", cfg.RedisAddr))
		return redis_adapter.NewCacheRepo(rdb), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want memory or redis)", cfg.CacheBackend)
	}
}
