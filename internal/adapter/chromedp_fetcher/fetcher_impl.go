package chromedp_fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/user/dsnval-service/internal/adapter/proxy"
	"github.com/user/dsnval-service/internal/entity"
	"github.com/user/dsnval-service/internal/repository"
	"go.uber.org/zap"
)

// ChromedpFetcher renders the source page in headless Chrome. It is meant
// for when the page starts shipping its release table through JavaScript.
type ChromedpFetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

var _ repository.FetcherRepository = (*ChromedpFetcher)(nil)

// NewChromedpFetcher creates a fetcher backed by one shared browser allocator.
// Call Close to release it.
func NewChromedpFetcher(pageLoadTimeout time.Duration, insecure bool, pm *proxy.Manager, logger *zap.Logger) *ChromedpFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if pm != nil {
		opts = append(opts, chromedp.UserAgent(pm.GetUserAgent()))
		if p := pm.GetProxy(); p != nil {
			opts = append(opts, chromedp.ProxyServer(p.String()))
		}
	}
	if insecure {
		logger.Warn("TLS certificate verification is DISABLED for the headless browser")
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromedpFetcher{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		timeout:     pageLoadTimeout,
		logger:      logger,
	}
}

// Fetch navigates to url and returns the rendered document.
func (c *ChromedpFetcher) Fetch(ctx context.Context, url string) (string, error) {
	taskCtx, cancel := chromedp.NewContext(c.allocCtx, chromedp.WithLogf(c.logger.Sugar().Debugf))
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, c.timeout)
	defer cancelTimeout()

	// The browser context hangs off the allocator, so the caller's
	// cancellation has to be forwarded by hand.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	start := time.Now()
	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("%w: rendering %s: %w", entity.ErrNetwork, url, err)
	}

	c.logger.Debug("rendered source page", zap.String("url", url), zap.Duration("duration", time.Since(start)))
	return html, nil
}

// Close shuts the browser down.
func (c *ChromedpFetcher) Close() {
	c.allocCancel()
}
