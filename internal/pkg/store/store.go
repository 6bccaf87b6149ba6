// Package store is the Postgres warehouse census tables are exported to.
package store

import (
	"context"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/domain/dto"
	"github.com/ougirez/cancensus/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

type Store interface {
	Migrate(ctx context.Context) error
	SaveCensus(ctx context.Context, export *dto.CensusExport) error
	ListRegions(ctx context.Context, dataset string) ([]domain.RegionItem, error)
	GetRegion(ctx context.Context, dataset, geoUID string) (*domain.RegionItem, error)
	ListValues(ctx context.Context, opts ListValuesOpts) ([]domain.RegionValue, error)
}

type store struct {
	pool      Pool
	batchSize int
}

func NewStore(pool Pool) Store {
	return &store{pool: pool, batchSize: defaultBatchSize}
}
