// Package service wires the CensusMapper services to one transport, cache
// and settings instance.
package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/cache"
	"github.com/ougirez/cancensus/internal/pkg/censusmapper"
	"github.com/ougirez/cancensus/internal/pkg/config"
	"github.com/ougirez/cancensus/internal/pkg/metrics"
	"github.com/ougirez/cancensus/internal/pkg/store"
	"github.com/ougirez/cancensus/internal/service/auth"
	"github.com/ougirez/cancensus/internal/service/census"
	"github.com/ougirez/cancensus/internal/service/datasets"
	"github.com/ougirez/cancensus/internal/service/export"
	"github.com/ougirez/cancensus/internal/service/regions"
	"github.com/ougirez/cancensus/internal/service/vectors"
)

type Service struct {
	Census   *census.Service
	Vectors  *vectors.Service
	Datasets *datasets.Service
	Regions  *regions.Service
	Export   *export.Service
	Auth     *auth.Service

	cache    cache.Store
	settings *config.Settings
}

type Deps struct {
	Settings *config.Settings
	Metrics  *metrics.Collector
	// Store is the warehouse; nil disables export.
	Store      store.Store
	HTTPClient *http.Client
	Lineage    map[string]string
}

func NewService(deps Deps) *Service {
	s := deps.Settings
	opts := []censusmapper.Option{censusmapper.WithMetrics(deps.Metrics)}
	if deps.HTTPClient != nil {
		opts = append(opts, censusmapper.WithHTTPClient(deps.HTTPClient))
	}

	client := censusmapper.NewClient(s.BaseURL(), s.Timeout(), s.APIKey, opts...)
	responses := cache.NewStore(s.CachePath)

	var datasetOpts []datasets.Option
	if deps.Lineage != nil {
		datasetOpts = append(datasetOpts, datasets.WithLineage(deps.Lineage))
	}

	vectorsSvc := vectors.NewVectorsService(client, responses, s.APIKey, deps.Metrics)
	censusSvc := census.NewCensusService(client, responses, s.APIKey, deps.Metrics, census.WithVectorCatalog(vectorsSvc))
	return &Service{
		Census:   censusSvc,
		Vectors:  vectorsSvc,
		Datasets: datasets.NewDatasetsService(client, responses, s.APIKey, deps.Metrics, datasetOpts...),
		Regions:  regions.NewRegionsService(client, responses, s.APIKey, deps.Metrics),
		Export:   export.NewExportService(censusSvc, deps.Store),
		Auth:     auth.NewService(s.AdminSecret),
		cache:    responses,
		settings: s,
	}
}

func (s *Service) Settings() *config.Settings {
	return s.settings
}

// ListCache reports every cached response, newest first.
func (s *Service) ListCache(ctx context.Context) ([]domain.CacheEntry, error) {
	return s.cache.List(ctx)
}

// RemoveCache deletes one cached response. Removing a vector catalog also
// drops its in-memory index.
func (s *Service) RemoveCache(ctx context.Context, key string) error {
	if err := s.cache.Remove(ctx, key); err != nil {
		return err
	}
	if ds, ok := strings.CutPrefix(key, vectors.CacheKey("")); ok {
		s.Vectors.Forget(ds)
	}
	return nil
}

// ClearCache removes every cached response and returns the count.
func (s *Service) ClearCache(ctx context.Context) (int, error) {
	n, err := s.cache.Clear(ctx)
	s.Vectors.ForgetAll()
	return n, err
}
