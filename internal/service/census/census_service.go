package census

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/cache"
	"github.com/ougirez/cancensus/internal/pkg/censusmapper"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/pkg/metrics"
)

const cacheKind = "census"

type Service struct {
	client  censusmapper.Client
	cache   cache.Store
	apiKey  func() string
	metrics *metrics.Collector
	vectors VectorCatalog
}

// VectorCatalog supplies vector labels for geometry retrievals, whose
// features carry bare vector codes.
type VectorCatalog interface {
	ListVectors(ctx context.Context, dataset string, opts domain.FetchOptions) ([]domain.Vector, error)
}

type Option func(*Service)

func WithVectorCatalog(c VectorCatalog) Option {
	return func(s *Service) {
		s.vectors = c
	}
}

func NewCensusService(client censusmapper.Client, cache cache.Store, apiKey func() string, m *metrics.Collector, opts ...Option) *Service {
	s := &Service{client: client, cache: cache, apiKey: apiKey, metrics: m}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cacheKeyParts is everything that changes a retrieval's result.
type cacheKeyParts struct {
	Dataset    string              `json:"dataset"`
	Regions    map[string][]string `json:"regions"`
	Vectors    []string            `json:"vectors"`
	Level      domain.Level        `json:"level"`
	GeoFormat  domain.GeoFormat    `json:"geo_format"`
	Labels     domain.Labels       `json:"labels"`
	Resolution domain.Resolution   `json:"resolution"`
}

// CacheKey is the cache key of p. Requests that differ only in region or
// vector order share a key.
func CacheKey(p Params) (string, error) {
	vectors := append([]string{}, p.Vectors...)
	sort.Strings(vectors)

	regions := make(domain.RegionSelector, len(p.Regions))
	for l, ids := range p.Regions {
		regions[l] = ids
	}

	resolution := p.Resolution
	if !p.IsSpatial() {
		// resolution only affects geometry
		resolution = domain.ResolutionSimplified
	}

	return cache.Key(cacheKeyParts{
		Dataset:    p.Dataset,
		Regions:    regions.Canonical(),
		Vectors:    vectors,
		Level:      p.Level,
		GeoFormat:  p.GeoFormat,
		Labels:     p.Labels,
		Resolution: resolution,
	})
}

func cacheMeta(p Params) domain.CacheMeta {
	regions := make(domain.RegionSelector, len(p.Regions))
	for l, ids := range p.Regions {
		regions[l] = ids
	}
	return domain.CacheMeta{
		Kind:       cacheKind,
		Dataset:    p.Dataset,
		Level:      p.Level,
		Regions:    regions.Canonical(),
		Vectors:    p.Vectors,
		GeoFormat:  p.GeoFormat,
		Labels:     p.Labels,
		Resolution: p.Resolution,
	}
}

// GetCensus retrieves census data for the request, from the cache when an
// identical request was answered before.
func (s *Service) GetCensus(ctx context.Context, req domain.CensusRequest) (*domain.Table, error) {
	p, err := NormalizeParams(req)
	if err != nil {
		return nil, err
	}
	return s.Retrieve(ctx, p)
}

// GetCensusGeometry retrieves boundaries only.
func (s *Service) GetCensusGeometry(ctx context.Context, req domain.CensusRequest) (*domain.Table, error) {
	req.Vectors = nil
	if req.GeoFormat == "" {
		req.GeoFormat = string(domain.GeoFormatGeoJSON)
	}
	return s.GetCensus(ctx, req)
}

// Retrieve runs an already normalized request.
func (s *Service) Retrieve(ctx context.Context, p Params) (*domain.Table, error) {
	if s.apiKey == nil || strings.TrimSpace(s.apiKey()) == "" {
		return nil, constants.ErrMissingCredential
	}

	key, err := CacheKey(p)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithFields(ctx, "dataset", p.Dataset, "level", p.Level)

	t, hit, err := cache.Load(ctx, s.cache, key, cacheMeta(p), p.NoCache, s.metrics, func(ctx context.Context) (*domain.Table, error) {
		return s.fetch(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		s.progressf(ctx, p, "read data from cache %s", key)
		return t, nil
	}

	s.progressf(ctx, p, "retrieved data for %d regions", t.Rows())
	return t, nil
}

func (s *Service) fetch(ctx context.Context, p Params) (*domain.Table, error) {
	req, err := BuildRequest(p)
	if err != nil {
		return nil, err
	}

	s.progressf(ctx, p, "querying CensusMapper %s", req.Endpoint)
	body, err := s.client.PostForm(ctx, req.Endpoint, req.Fields)
	if err != nil {
		return nil, fmt.Errorf("census request: %w", err)
	}

	if !p.IsSpatial() {
		return NormalizeCSV(body, p.Vectors, p.Labels)
	}

	t, err := NormalizeGeoJSON(body, p.Vectors, p.Labels)
	if err != nil {
		return nil, err
	}
	if len(p.Vectors) > 0 && s.vectors != nil {
		catalog, err := s.vectors.ListVectors(ctx, p.Dataset, domain.FetchOptions{Quiet: true})
		if err != nil {
			logger.Warnf(ctx, "vector labels unavailable for %s: %s", p.Dataset, err.Error())
			return t, nil
		}
		ApplyVectorLabels(t, catalog, p.Labels)
	}
	return t, nil
}

func (s *Service) progressf(ctx context.Context, p Params, format string, args ...any) {
	if p.Quiet {
		logger.Debugf(ctx, format, args...)
		return
	}
	logger.Infof(ctx, format, args...)
}
