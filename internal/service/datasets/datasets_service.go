package datasets

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/domain/dto"
	"github.com/ougirez/cancensus/internal/pkg/cache"
	"github.com/ougirez/cancensus/internal/pkg/censusmapper"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/pkg/metrics"
)

const (
	cacheKind = "datasets"
	cacheKey  = "datasets"
)

// DefaultLineage maps dataset code prefixes to the statistical program whose
// releases share attribution text.
var DefaultLineage = map[string]string{
	"CA": "census",
	"TX": "taxfiler",
}

type Service struct {
	client  censusmapper.Client
	cache   cache.Store
	apiKey  func() string
	metrics *metrics.Collector
	lineage map[string]string
}

type Option func(*Service)

// WithLineage replaces the prefix to program table used when merging
// attributions.
func WithLineage(lineage map[string]string) Option {
	return func(s *Service) {
		s.lineage = make(map[string]string, len(lineage))
		for k, v := range lineage {
			s.lineage[strings.ToUpper(k)] = v
		}
	}
}

func NewDatasetsService(client censusmapper.Client, store cache.Store, apiKey func() string, m *metrics.Collector, opts ...Option) *Service {
	s := &Service{client: client, cache: store, apiKey: apiKey, metrics: m, lineage: DefaultLineage}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListDatasets returns every dataset CensusMapper serves.
func (s *Service) ListDatasets(ctx context.Context, opts domain.FetchOptions) ([]domain.DatasetInfo, error) {
	if s.apiKey == nil || strings.TrimSpace(s.apiKey()) == "" {
		return nil, constants.ErrMissingCredential
	}

	datasets, hit, err := cache.Load(ctx, s.cache, cacheKey, domain.CacheMeta{Kind: cacheKind}, opts.NoCache, s.metrics,
		func(ctx context.Context) ([]domain.DatasetInfo, error) {
			progressf(ctx, opts, "querying CensusMapper for available datasets")
			body, err := s.client.Get(ctx, "list_datasets", url.Values{"format": {"json"}})
			if err != nil {
				return nil, fmt.Errorf("list_datasets: %w", err)
			}
			return dto.DecodeDatasets(body)
		})
	if err != nil {
		return nil, err
	}

	if hit {
		progressf(ctx, opts, "read datasets from cache")
	} else {
		progressf(ctx, opts, "retrieved %d datasets", len(datasets))
	}
	return datasets, nil
}

func progressf(ctx context.Context, opts domain.FetchOptions, format string, args ...any) {
	if opts.Quiet {
		logger.Debugf(ctx, format, args...)
		return
	}
	logger.Infof(ctx, format, args...)
}
