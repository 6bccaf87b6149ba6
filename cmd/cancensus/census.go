package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

type censusFlags struct {
	dataset    string
	level      string
	regions    []string
	vectors    []string
	geoFormat  string
	labels     string
	resolution string
	noCache    bool
	quiet      bool
}

func (f *censusFlags) register(cmd *cobra.Command, withVectors bool) {
	flags := cmd.Flags()
	flags.StringVarP(&f.dataset, "dataset", "d", "", "dataset, e.g. CA21")
	flags.StringVarP(&f.level, "level", "l", "", "aggregation level (Regions, C, PR, CMA, CD, CSD, CT, DA, DB, EA)")
	flags.StringArrayVarP(&f.regions, "region", "r", nil, "region selection LEVEL=ID[,ID...], repeatable")
	flags.StringVar(&f.resolution, "resolution", "", "geometry resolution: simplified or high")
	flags.BoolVar(&f.noCache, "no-cache", false, "bypass the cache and refresh it")
	flags.BoolVarP(&f.quiet, "quiet", "q", false, "suppress progress logging")
	if withVectors {
		flags.StringSliceVarP(&f.vectors, "vector", "v", nil, "vector codes to retrieve")
		flags.StringVar(&f.geoFormat, "geo-format", "", "attach geometry: geojson")
		flags.StringVar(&f.labels, "labels", "", "vector column labels: detailed or short")
	}
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("region")
}

func (f *censusFlags) request() (domain.CensusRequest, error) {
	regions, err := parseRegions(f.regions)
	if err != nil {
		return domain.CensusRequest{}, err
	}
	return domain.CensusRequest{
		Dataset:    f.dataset,
		Level:      f.level,
		Regions:    regions,
		Vectors:    f.vectors,
		GeoFormat:  f.geoFormat,
		Labels:     f.labels,
		Resolution: f.resolution,
		NoCache:    f.noCache,
		Quiet:      f.quiet,
	}, nil
}

// parseRegions turns "CMA=59933,59934" style selections into a selector.
// Repeating a level appends to it.
func parseRegions(specs []string) (domain.RegionSelector, error) {
	sel := domain.RegionSelector{}
	for _, spec := range specs {
		rawLevel, rawIDs, ok := strings.Cut(spec, "=")
		rawLevel = strings.TrimSpace(rawLevel)
		if !ok || rawLevel == "" {
			return nil, fmt.Errorf("%w: %q, expected LEVEL=ID[,ID...]", constants.ErrInvalidRegions, spec)
		}

		level, ok := domain.ParseLevel(rawLevel)
		if !ok {
			level = domain.Level(rawLevel)
		}
		for _, id := range strings.Split(rawIDs, ",") {
			if id = strings.TrimSpace(id); id != "" {
				sel[level] = append(sel[level], id)
			}
		}
		if len(sel[level]) == 0 {
			return nil, fmt.Errorf("%w: no region ids given for %s", constants.ErrInvalidRegions, level)
		}
	}
	return sel, nil
}

func (a *app) censusCmd() *cobra.Command {
	var f censusFlags
	cmd := &cobra.Command{
		Use:   "census",
		Short: "Retrieve census data for the selected regions",
		Example: `  cancensus census -d CA21 -r CMA=59933 -l CSD -v v_CA21_1,v_CA21_2
  cancensus census -d CA16 -r C=01 -l C -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request()
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}

			table, err := svc.Census.GetCensus(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.printCensus(table)
		},
	}
	f.register(cmd, true)
	return cmd
}

func (a *app) geometryCmd() *cobra.Command {
	var f censusFlags
	cmd := &cobra.Command{
		Use:   "geometry",
		Short: "Retrieve region boundaries as GeoJSON",
		Long: `Retrieve region boundaries. The JSON output carries the geometry column;
table and csv output list the region attributes only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request()
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}

			table, err := svc.Census.GetCensusGeometry(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.printCensus(table)
		},
	}
	f.register(cmd, false)
	return cmd
}
