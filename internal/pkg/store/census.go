package store

import (
	"context"
	"fmt"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/domain/dto"
	"github.com/ougirez/cancensus/internal/pkg/logger"
)

var (
	regionsColumns = []string{"dataset", "geo_uid", "type", "name", "population", "dwellings", "households", "updated_at"}
	valuesColumns  = []string{"dataset", "geo_uid", "vector", "value", "updated_at"}
)

// SaveCensus upserts the regions and vector values of export in one
// transaction. Re-exporting a table overwrites earlier values.
func (s *store) SaveCensus(ctx context.Context, export *dto.CensusExport) error {
	if len(export.Regions) == 0 {
		return nil
	}

	err := s.pool.WithTx(ctx, func(tx Pool) error {
		for start := 0; start < len(export.Regions); start += s.batchSize {
			end := min(start+s.batchSize, len(export.Regions))
			if err := insertRegions(ctx, tx, export.Regions[start:end]); err != nil {
				return fmt.Errorf("insertRegions: %w", err)
			}
		}

		for start := 0; start < len(export.Values); start += s.batchSize {
			end := min(start+s.batchSize, len(export.Values))
			if err := insertValues(ctx, tx, export.Values[start:end]); err != nil {
				return fmt.Errorf("insertValues: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Errorf(ctx, "SaveCensus %s: %s", export.Dataset, err.Error())
		return err
	}

	logger.Infof(ctx, "saved %d regions and %d values of %s", len(export.Regions), len(export.Values), export.Dataset)
	return nil
}

func insertRegions(ctx context.Context, pool Pool, items []domain.RegionItem) error {
	query := builder().Insert(tableRegions).
		Columns(regionsColumns[:7]...)

	for _, r := range items {
		query = query.Values(r.Dataset, r.GeoUID, r.Type, r.Name, r.Population, r.Dwellings, r.Households)
	}

	query = query.Suffix(`
on conflict (dataset, geo_uid)
do update
set
	type = excluded.type,
	name = excluded.name,
	population = excluded.population,
	dwellings = excluded.dwellings,
	households = excluded.households,
	updated_at = now()`)

	_, err := pool.Execx(ctx, query)
	return err
}

func insertValues(ctx context.Context, pool Pool, items []domain.ValueItem) error {
	query := builder().Insert(tableValues).
		Columns(valuesColumns[:4]...)

	for _, v := range items {
		query = query.Values(v.Dataset, v.GeoUID, v.Vector, v.Value)
	}

	query = query.Suffix(`
on conflict (dataset, geo_uid, vector)
do update
set
	value = excluded.value,
	updated_at = now()`)

	_, err := pool.Execx(ctx, query)
	return err
}
