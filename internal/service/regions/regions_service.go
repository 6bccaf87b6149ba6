package regions

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/domain/dto"
	"github.com/ougirez/cancensus/internal/pkg/cache"
	"github.com/ougirez/cancensus/internal/pkg/censusmapper"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/pkg/metrics"
	"github.com/ougirez/cancensus/internal/pkg/validation"
)

const (
	cacheKindRegions      = "regions"
	cacheKindIntersecting = "intersecting"

	endpointList         = "list_regions"
	endpointIntersecting = "intersecting_geographies"
)

type Service struct {
	client  censusmapper.Client
	cache   cache.Store
	apiKey  func() string
	metrics *metrics.Collector
}

func NewRegionsService(client censusmapper.Client, store cache.Store, apiKey func() string, m *metrics.Collector) *Service {
	return &Service{client: client, cache: store, apiKey: apiKey, metrics: m}
}

func (s *Service) checkKey() error {
	if s.apiKey == nil || strings.TrimSpace(s.apiKey()) == "" {
		return constants.ErrMissingCredential
	}
	return nil
}

// ListRegions returns every named region of dataset.
func (s *Service) ListRegions(ctx context.Context, dataset string, opts domain.FetchOptions) ([]domain.RegionInfo, error) {
	ds, err := normalizeDataset(dataset)
	if err != nil {
		return nil, err
	}
	if err := s.checkKey(); err != nil {
		return nil, err
	}

	key := "regions_" + ds
	meta := domain.CacheMeta{Kind: cacheKindRegions, Dataset: ds}
	regions, hit, err := cache.Load(ctx, s.cache, key, meta, opts.NoCache, s.metrics, func(ctx context.Context) ([]domain.RegionInfo, error) {
		progressf(ctx, opts, "querying CensusMapper for %s regions", ds)
		body, err := s.client.Get(ctx, endpointList, url.Values{"dataset": {ds}, "format": {"json"}})
		if err != nil {
			return nil, fmt.Errorf("list_regions %s: %w", ds, err)
		}
		return dto.DecodeRegions(body)
	})
	if err != nil {
		return nil, err
	}

	if hit {
		progressf(ctx, opts, "read %s regions from cache", ds)
	} else {
		progressf(ctx, opts, "retrieved %d regions", len(regions))
	}
	return regions, nil
}

// SearchRegions filters ListRegions by a case-insensitive substring of the
// region name and, when level is non-empty, by level.
func (s *Service) SearchRegions(ctx context.Context, term, dataset, level string, opts domain.FetchOptions) ([]domain.RegionInfo, error) {
	var want domain.Level
	if strings.TrimSpace(level) != "" {
		l, ok := domain.ParseLevel(level)
		if !ok {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidLevel, level)
		}
		want = l
	}

	all, err := s.ListRegions(ctx, dataset, opts)
	if err != nil {
		return nil, err
	}

	found := FilterRegions(all, term, want)
	if len(found) == 0 {
		progressf(ctx, opts, "no regions found matching %q", term)
	} else {
		progressf(ctx, opts, "found %d regions matching %q", len(found), term)
	}
	return found, nil
}

// FilterRegions keeps regions whose name contains term, ignoring case. An
// empty level matches every level.
func FilterRegions(regions []domain.RegionInfo, term string, level domain.Level) []domain.RegionInfo {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.RegionInfo, 0)
	for _, r := range regions {
		if !strings.Contains(strings.ToLower(r.Name), term) {
			continue
		}
		if level != "" && r.Level != level {
			continue
		}
		out = append(out, r)
	}
	return out
}

type intersectingKeyParts struct {
	Dataset  string       `json:"dataset"`
	Level    domain.Level `json:"level"`
	Geometry string       `json:"geometry"`
}

// IntersectingGeometries returns the regions of level in dataset that
// intersect geometry, keyed by level so the result can be passed straight
// to a census retrieval. Coordinates are WGS84 longitude/latitude.
func (s *Service) IntersectingGeometries(ctx context.Context, dataset, level string, geometry orb.Geometry, opts domain.FetchOptions) (domain.RegionSelector, error) {
	ds, err := normalizeDataset(dataset)
	if err != nil {
		return nil, err
	}
	lvl, ok := domain.ParseLevel(level)
	if !ok || !lvl.IsRegionLevel() {
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidLevel, level)
	}
	if geometry == nil {
		return nil, fmt.Errorf("%w: geometry is required", constants.ErrInvalidParameter)
	}
	if err := s.checkKey(); err != nil {
		return nil, err
	}

	geo, err := geojson.NewGeometry(geometry).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: geometry: %s", constants.ErrInvalidParameter, err.Error())
	}

	key, err := cache.Key(intersectingKeyParts{Dataset: ds, Level: lvl, Geometry: string(geo)})
	if err != nil {
		return nil, err
	}
	meta := domain.CacheMeta{Kind: cacheKindIntersecting, Dataset: ds, Level: lvl}

	sel, hit, err := cache.Load(ctx, s.cache, key, meta, opts.NoCache, s.metrics, func(ctx context.Context) (domain.RegionSelector, error) {
		progressf(ctx, opts, "querying CensusMapper for %s regions intersecting %s", lvl, geometry.GeoJSONType())
		body, err := s.client.PostForm(ctx, endpointIntersecting, []censusmapper.Field{
			{Name: "dataset", Value: ds},
			{Name: "level", Value: string(lvl)},
			{Name: "geometry", Value: string(geo)},
		})
		if err != nil {
			return nil, fmt.Errorf("intersecting_geographies: %w", err)
		}
		return dto.DecodeIntersecting(body)
	})
	if err != nil {
		return nil, err
	}

	if hit {
		progressf(ctx, opts, "read intersecting regions from cache")
	} else {
		progressf(ctx, opts, "found %d intersecting %s regions", len(sel[lvl]), lvl)
	}
	return sel, nil
}

func normalizeDataset(dataset string) (string, error) {
	ds := strings.ToUpper(strings.TrimSpace(dataset))
	if !validation.IsDataset(ds) {
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidDataset, dataset)
	}
	return ds, nil
}

func progressf(ctx context.Context, opts domain.FetchOptions, format string, args ...any) {
	if opts.Quiet {
		logger.Debugf(ctx, format, args...)
		return
	}
	logger.Infof(ctx, format, args...)
}
