package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/dsnval-service/internal/entity"
	"github.com/user/dsnval-service/internal/extractor"
	"github.com/user/dsnval-service/internal/repository"
	"github.com/user/dsnval-service/pkg/metrics"
	"github.com/user/dsnval-service/pkg/utils"
	"go.uber.org/zap"
)

// ReleaseService returns the releases announced on the source page.
type ReleaseService interface {
	Releases(ctx context.Context) (*entity.ReleaseSet, error)
}

// ReleasePipeline runs fetch, extract, normalise and assemble once per call.
type ReleasePipeline struct {
	fetcher   repository.FetcherRepository
	extractor *extractor.Extractor
	assembler *Assembler
	sourceURL string
	cacheKey  string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewReleasePipeline creates a pipeline for sourceURL, which must be absolute.
func NewReleasePipeline(
	fetcher repository.FetcherRepository,
	ext *extractor.Extractor,
	assembler *Assembler,
	sourceURL string,
	logger *zap.Logger,
	m *metrics.Metrics,
) (*ReleasePipeline, error) {
	canonical, err := utils.CanonicalURL(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReleasePipeline{
		fetcher:   fetcher,
		extractor: ext,
		assembler: assembler,
		sourceURL: sourceURL,
		cacheKey:  fmt.Sprintf("%s|%s|%s", canonical, assembler.Selection(), assembler.normalizer.Mode()),
		logger:    logger,
		metrics:   m,
	}, nil
}

// CacheKey identifies the request this pipeline answers: the canonical
// source URL plus everything that changes the assembled output.
func (p *ReleasePipeline) CacheKey() string {
	return p.cacheKey
}

// Releases runs the pipeline. Any failure aborts the run with no output.
func (p *ReleasePipeline) Releases(ctx context.Context) (*entity.ReleaseSet, error) {
	log := p.logger.With(zap.String("run_id", uuid.NewString()), zap.String("url", p.sourceURL))
	start := time.Now()

	set, err := p.run(ctx)
	p.metrics.ObservePipeline(entity.Kind(err))
	if err != nil {
		log.Error("release pipeline failed", zap.String("error_type", entity.Kind(err)), zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.Int("releases", len(set.Releases)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if latest, ok := set.Latest(); ok {
		fields = append(fields,
			zap.String("version", latest.BuildID),
			zap.Stringer("date", latest.ReleaseDate),
		)
	}
	log.Info("release pipeline succeeded", fields...)
	return set, nil
}

func (p *ReleasePipeline) run(ctx context.Context) (*entity.ReleaseSet, error) {
	raw, err := p.fetcher.Fetch(ctx, p.sourceURL)
	if err != nil {
		return nil, err
	}

	blocks, err := p.extractor.Extract(raw, p.sourceURL)
	if err != nil {
		return nil, err
	}

	return p.assembler.Assemble(blocks)
}
