package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/pkg/store/xpgx"
)

type ListValuesOpts struct {
	Dataset string
	Vector  string
	GeoUIDs []string
}

func (s *store) ListRegions(ctx context.Context, dataset string) ([]domain.RegionItem, error) {
	query := builder().Select(regionsColumns...).
		From(tableRegions).
		Where(sq.Eq{"dataset": dataset}).
		OrderBy("geo_uid")

	return xpgx.Selectx[domain.RegionItem](ctx, s.pool, query)
}

func (s *store) GetRegion(ctx context.Context, dataset, geoUID string) (*domain.RegionItem, error) {
	query := builder().Select(regionsColumns...).
		From(tableRegions).
		Where(sq.Eq{"dataset": dataset, "geo_uid": geoUID})

	selected, err := xpgx.Getx[domain.RegionItem](ctx, s.pool, query)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &selected, nil
}

func listValuesQuery(opts ListValuesOpts) sq.SelectBuilder {
	query := builder().Select(
		"r.dataset", "r.geo_uid", "r.type", "r.name", "r.population", "r.dwellings", "r.households",
		"v.updated_at", "v.vector", "v.value").
		From(tableValues + " v").
		Join(tableRegions + " r on r.dataset=v.dataset and r.geo_uid=v.geo_uid").
		Where(sq.Eq{"v.dataset": opts.Dataset, "v.vector": opts.Vector}).
		OrderBy("r.geo_uid")

	if len(opts.GeoUIDs) > 0 {
		query = query.Where(sq.Eq{"v.geo_uid": opts.GeoUIDs})
	}
	return query
}

// ListValues reads back the exported values of one vector, joined with
// their regions.
func (s *store) ListValues(ctx context.Context, opts ListValuesOpts) ([]domain.RegionValue, error) {
	selected, err := xpgx.Selectx[domain.RegionValue](ctx, s.pool, listValuesQuery(opts))
	if err != nil {
		logger.Error(ctx, err.Error())
		return nil, err
	}
	return selected, nil
}
