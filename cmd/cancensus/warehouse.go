package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/store"
	"github.com/ougirez/cancensus/internal/service"
)

// warehouse returns the service only when a Postgres DSN is configured.
func (a *app) warehouse(ctx context.Context) (*service.Service, error) {
	svc, err := a.service(ctx, true)
	if err != nil {
		return nil, err
	}
	if a.db == nil {
		return nil, constants.ErrNoWarehouse
	}
	return svc, nil
}

func (a *app) exportCmd() *cobra.Command {
	var (
		f       censusFlags
		file    string
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Retrieve census tables and upsert them into the warehouse",
		Long: `Retrieve census tables and upsert them into the Postgres warehouse.
Give one request with the census flags, or many with --file pointing at a
JSON array of requests.`,
		Example: `  cancensus export --database-dsn postgres://localhost/census -d CA21 -r CMA=59933 -l CSD -v v_CA21_1
  cancensus export --file requests.json --migrate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := exportRequests(file, &f)
			if err != nil {
				return err
			}
			svc, err := a.warehouse(cmd.Context())
			if err != nil {
				return err
			}
			if migrate {
				if err := svc.Export.Migrate(cmd.Context()); err != nil {
					return err
				}
			}

			results, err := svc.Export.ExportCensus(cmd.Context(), reqs)
			if err != nil {
				return err
			}

			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{r.Dataset, r.Level, fmt.Sprint(r.Regions), fmt.Sprint(r.Values)}
			}
			return a.printRows(results, []string{"DATASET", "LEVEL", "REGIONS", "VALUES"}, rows)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.dataset, "dataset", "d", "", "dataset, e.g. CA21")
	flags.StringVarP(&f.level, "level", "l", "", "aggregation level")
	flags.StringArrayVarP(&f.regions, "region", "r", nil, "region selection LEVEL=ID[,ID...], repeatable")
	flags.StringSliceVarP(&f.vectors, "vector", "v", nil, "vector codes to retrieve")
	flags.BoolVar(&f.noCache, "no-cache", false, "bypass the cache and refresh it")
	flags.StringVar(&file, "file", "", "JSON file with an array of census requests")
	flags.BoolVar(&migrate, "migrate", false, "create the warehouse tables first")
	cmd.MarkFlagsMutuallyExclusive("file", "dataset")
	return cmd
}

func exportRequests(file string, f *censusFlags) ([]domain.CensusRequest, error) {
	if file == "" {
		req, err := f.request()
		if err != nil {
			return nil, err
		}
		return []domain.CensusRequest{req}, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}
	var reqs []domain.CensusRequest
	if err := sonic.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("%w: requests file %s: %s", constants.ErrInvalidParameter, file, err.Error())
	}
	return reqs, nil
}

func (a *app) warehouseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warehouse",
		Short: "Read exported census data back from the warehouse",
	}

	regions := &cobra.Command{
		Use:   "regions DATASET [GEOUID]",
		Short: "List the exported regions of a dataset, or show one",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.warehouse(cmd.Context())
			if err != nil {
				return err
			}

			var items []domain.RegionItem
			if len(args) == 2 {
				item, err := svc.Export.GetRegion(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				items = []domain.RegionItem{*item}
			} else if items, err = svc.Export.ListRegions(cmd.Context(), args[0]); err != nil {
				return err
			}

			rows := make([][]string, len(items))
			for i, r := range items {
				rows[i] = []string{r.GeoUID, r.Type, r.Name, decimalString(r.Population), decimalString(r.Dwellings), decimalString(r.Households)}
			}
			return a.printRows(items, []string{"GEOUID", "TYPE", "NAME", "POPULATION", "DWELLINGS", "HOUSEHOLDS"}, rows)
		},
	}

	var geoUIDs []string
	values := &cobra.Command{
		Use:   "values DATASET VECTOR",
		Short: "List the exported values of a vector",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.warehouse(cmd.Context())
			if err != nil {
				return err
			}
			list, err := svc.Export.ListValues(cmd.Context(), store.ListValuesOpts{
				Dataset: args[0],
				Vector:  args[1],
				GeoUIDs: geoUIDs,
			})
			if err != nil {
				return err
			}

			rows := make([][]string, len(list))
			for i, v := range list {
				rows[i] = []string{v.GeoUID, v.Name, v.Vector, decimalString(v.Value)}
			}
			return a.printRows(list, []string{"GEOUID", "NAME", "VECTOR", "VALUE"}, rows)
		},
	}
	values.Flags().StringSliceVar(&geoUIDs, "geo-uid", nil, "only these regions")

	cmd.AddCommand(regions, values)
	return cmd
}

func decimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
