// Package httpfetch retrieves the source page over plain HTTP(S).
package httpfetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/dsnval-service/internal/adapter/proxy"
	"github.com/user/dsnval-service/internal/entity"
	"github.com/user/dsnval-service/internal/repository"
	"github.com/user/dsnval-service/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultMaxBodyBytes = 10 << 20

// Options configures a Fetcher.
type Options struct {
	Timeout time.Duration
	// InsecureSkipVerify disables certificate verification. Off unless
	// explicitly requested.
	InsecureSkipVerify bool
	// RatePerSecond throttles outbound requests; zero means unlimited.
	RatePerSecond float64
	MaxBodyBytes  int64
}

// Fetcher is a net/http implementation of repository.FetcherRepository.
type Fetcher struct {
	client  *http.Client
	proxy   *proxy.Manager
	limiter *rate.Limiter
	timeout time.Duration
	maxBody int64
	logger  *zap.Logger
	metrics *metrics.Metrics
}

var _ repository.FetcherRepository = (*Fetcher)(nil)

// New creates a Fetcher.
func New(opts Options, pm *proxy.Manager, logger *zap.Logger, m *metrics.Metrics) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // explicit opt-in only
	}
	if pm != nil {
		transport.Proxy = pm.ProxyFunc()
	}
	if opts.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is DISABLED for upstream fetches")
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	return &Fetcher{
		client:  &http.Client{Transport: transport},
		proxy:   pm,
		limiter: limiter,
		timeout: opts.Timeout,
		maxBody: opts.MaxBodyBytes,
		logger:  logger,
		metrics: m,
	}
}

// Fetch downloads sourceURL and returns its body.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: waiting for rate limiter: %w", entity.ErrNetwork, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: building request for %s: %w", entity.ErrNetwork, sourceURL, err)
	}
	if f.proxy != nil {
		req.Header.Set("User-Agent", f.proxy.GetUserAgent())
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")

	start := time.Now()
	resp, err := f.client.Do(req)
	if f.metrics != nil {
		f.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return "", fmt.Errorf("%w: fetching %s: %w", entity.ErrNetwork, sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: fetching %s: unexpected status %d", entity.ErrNetwork, sourceURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading body of %s: %w", entity.ErrNetwork, sourceURL, err)
	}
	if int64(len(body)) > f.maxBody {
		return "", fmt.Errorf("%w: body of %s exceeds %d bytes", entity.ErrNetwork, sourceURL, f.maxBody)
	}

	f.logger.Debug("fetched source page",
		zap.String("url", sourceURL),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)
	return string(body), nil
}
