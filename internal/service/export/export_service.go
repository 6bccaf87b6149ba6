// Package export retrieves census tables and saves them to the warehouse.
package export

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/domain/dto"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/pkg/store"
)

// at most this many retrievals run at once
const defaultParallelism = 4

type CensusGetter interface {
	GetCensus(ctx context.Context, req domain.CensusRequest) (*domain.Table, error)
}

type Result struct {
	Dataset string `json:"dataset"`
	Level   string `json:"level"`
	Regions int    `json:"regions"`
	Values  int    `json:"values"`
}

type Service struct {
	census      CensusGetter
	store       store.Store
	parallelism int
}

func NewExportService(census CensusGetter, store store.Store) *Service {
	return &Service{census: census, store: store, parallelism: defaultParallelism}
}

// Migrate creates the warehouse schema.
func (s *Service) Migrate(ctx context.Context) error {
	if s.store == nil {
		return constants.ErrNoWarehouse
	}
	return s.store.Migrate(ctx)
}

// ExportCensus runs every request and upserts its table. The first failure
// cancels the remaining retrievals; tables already saved stay saved.
func (s *Service) ExportCensus(ctx context.Context, reqs []domain.CensusRequest) ([]Result, error) {
	if s.store == nil {
		return nil, constants.ErrNoWarehouse
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: nothing to export", constants.ErrInvalidParameter)
	}

	results := make([]Result, len(reqs))
	resultsMx := sync.Mutex{}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.parallelism)
	for i, req := range reqs {
		i, req := i, req
		eg.Go(func() error {
			req.Dataset = strings.ToUpper(strings.TrimSpace(req.Dataset))
			req.GeoFormat = ""
			table, err := s.census.GetCensus(egCtx, req)
			if err != nil {
				return fmt.Errorf("GetCensus, dataset-%s: %w", req.Dataset, err)
			}

			export, err := dto.NewCensusExport(req.Dataset, table)
			if err != nil {
				return fmt.Errorf("NewCensusExport, dataset-%s: %w", req.Dataset, err)
			}

			if err := s.store.SaveCensus(egCtx, export); err != nil {
				return fmt.Errorf("store.SaveCensus, dataset-%s: %w", req.Dataset, err)
			}

			logger.Infof(ctx, "exported %d regions of %s", len(export.Regions), req.Dataset)

			resultsMx.Lock()
			defer resultsMx.Unlock()
			results[i] = Result{
				Dataset: export.Dataset,
				Level:   req.Level,
				Regions: len(export.Regions),
				Values:  len(export.Values),
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ListValues reads one exported vector back from the warehouse.
func (s *Service) ListValues(ctx context.Context, opts store.ListValuesOpts) ([]domain.RegionValue, error) {
	if s.store == nil {
		return nil, constants.ErrNoWarehouse
	}
	opts.Dataset = strings.ToUpper(strings.TrimSpace(opts.Dataset))
	return s.store.ListValues(ctx, opts)
}

func (s *Service) ListRegions(ctx context.Context, dataset string) ([]domain.RegionItem, error) {
	if s.store == nil {
		return nil, constants.ErrNoWarehouse
	}
	return s.store.ListRegions(ctx, strings.ToUpper(strings.TrimSpace(dataset)))
}

func (s *Service) GetRegion(ctx context.Context, dataset, geoUID string) (*domain.RegionItem, error) {
	if s.store == nil {
		return nil, constants.ErrNoWarehouse
	}
	return s.store.GetRegion(ctx, strings.ToUpper(strings.TrimSpace(dataset)), geoUID)
}
