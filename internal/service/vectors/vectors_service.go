package vectors

import (
	"context"
	"fmt"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/cache"
	"github.com/ougirez/cancensus/internal/pkg/censusmapper"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/pkg/metrics"
	"github.com/ougirez/cancensus/internal/pkg/validation"
)

const (
	cacheKind      = "vectors"
	cacheKeyPrefix = "vectors_"
)

type Service struct {
	client  censusmapper.Client
	cache   cache.Store
	apiKey  func() string
	metrics *metrics.Collector

	// hierarchies memoises one index per dataset for the process lifetime.
	hierarchies *gocache.Cache
}

func NewVectorsService(client censusmapper.Client, store cache.Store, apiKey func() string, m *metrics.Collector) *Service {
	return &Service{
		client:      client,
		cache:       store,
		apiKey:      apiKey,
		metrics:     m,
		hierarchies: gocache.New(gocache.NoExpiration, 0),
	}
}

// CacheKey is the response cache key of the vector catalog of ds.
func CacheKey(ds string) string {
	return cacheKeyPrefix + ds
}

func normalizeDataset(dataset string) (string, error) {
	ds := strings.ToUpper(strings.TrimSpace(dataset))
	if !validation.IsDataset(ds) {
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidDataset, dataset)
	}
	return ds, nil
}

// ListVectors returns the vector catalog of dataset in catalog order.
func (s *Service) ListVectors(ctx context.Context, dataset string, opts domain.FetchOptions) ([]domain.Vector, error) {
	h, err := s.Hierarchy(ctx, dataset, opts)
	if err != nil {
		return nil, err
	}
	return h.Vectors(), nil
}

// Hierarchy returns the index for dataset, fetching the catalog on first use.
func (s *Service) Hierarchy(ctx context.Context, dataset string, opts domain.FetchOptions) (*Hierarchy, error) {
	ds, err := normalizeDataset(dataset)
	if err != nil {
		return nil, err
	}

	if !opts.NoCache {
		if h, ok := s.hierarchies.Get(ds); ok {
			return h.(*Hierarchy), nil
		}
	}

	vectors, err := s.fetchCatalog(ctx, ds, opts)
	if err != nil {
		return nil, err
	}

	h := NewHierarchy(vectors)
	s.hierarchies.Set(ds, h, gocache.NoExpiration)
	return h, nil
}

// Forget drops the memoised index of dataset, so the next lookup reads the
// catalog again.
func (s *Service) Forget(dataset string) {
	s.hierarchies.Delete(strings.ToUpper(strings.TrimSpace(dataset)))
}

// ForgetAll drops every memoised index.
func (s *Service) ForgetAll() {
	s.hierarchies.Flush()
}

func (s *Service) fetchCatalog(ctx context.Context, ds string, opts domain.FetchOptions) ([]domain.Vector, error) {
	if s.apiKey == nil || strings.TrimSpace(s.apiKey()) == "" {
		return nil, constants.ErrMissingCredential
	}

	key := CacheKey(ds)
	meta := domain.CacheMeta{Kind: cacheKind, Dataset: ds}
	vectors, hit, err := cache.Load(ctx, s.cache, key, meta, opts.NoCache, s.metrics, func(ctx context.Context) ([]domain.Vector, error) {
		progressf(ctx, opts, "querying CensusMapper for %s vectors", ds)
		body, err := s.client.Get(ctx, "vector_info/"+ds+".csv", nil)
		if err != nil {
			return nil, fmt.Errorf("vector_info %s: %w", ds, err)
		}
		return ParseCatalog(body)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		progressf(ctx, opts, "read %s vectors from cache", ds)
	} else {
		progressf(ctx, opts, "retrieved %d vectors for %s", len(vectors), ds)
	}
	return vectors, nil
}

func (s *Service) hierarchyFor(ctx context.Context, code string) (*Hierarchy, error) {
	ds, ok := DatasetOf(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", constants.ErrUnknownVector, code)
	}
	return s.Hierarchy(ctx, ds, domain.FetchOptions{Quiet: true})
}

// Parent returns the direct parent of vector, or nothing for a root.
func (s *Service) Parent(ctx context.Context, vector string) ([]domain.Vector, error) {
	h, err := s.hierarchyFor(ctx, vector)
	if err != nil {
		return nil, err
	}
	return h.Parent(vector)
}

// Children returns the direct children of vector.
func (s *Service) Children(ctx context.Context, vector string) ([]domain.Vector, error) {
	h, err := s.hierarchyFor(ctx, vector)
	if err != nil {
		return nil, err
	}
	return h.Children(vector)
}

func (s *Service) Ancestors(ctx context.Context, vector string) ([]domain.Vector, error) {
	h, err := s.hierarchyFor(ctx, vector)
	if err != nil {
		return nil, err
	}
	return h.Ancestors(vector)
}

func (s *Service) Descendants(ctx context.Context, vector string, opts DescendantOptions) ([]domain.Vector, error) {
	h, err := s.hierarchyFor(ctx, vector)
	if err != nil {
		return nil, err
	}
	return h.Descendants(vector, opts)
}

func (s *Service) Search(ctx context.Context, dataset string, f SearchFilter) ([]domain.Vector, error) {
	h, err := s.Hierarchy(ctx, dataset, domain.FetchOptions{Quiet: true})
	if err != nil {
		return nil, err
	}
	return h.Search(f), nil
}

func (s *Service) Find(ctx context.Context, dataset, query string) ([]domain.Vector, error) {
	h, err := s.Hierarchy(ctx, dataset, domain.FetchOptions{Quiet: true})
	if err != nil {
		return nil, err
	}
	return h.Find(query), nil
}

func progressf(ctx context.Context, opts domain.FetchOptions, format string, args ...any) {
	if opts.Quiet {
		logger.Debugf(ctx, format, args...)
		return
	}
	logger.Infof(ctx, format, args...)
}
