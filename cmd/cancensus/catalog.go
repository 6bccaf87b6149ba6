package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/service/vectors"
)

func fetchFlags(cmd *cobra.Command, opts *domain.FetchOptions) {
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "bypass the cache and refresh it")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress progress logging")
}

func (a *app) datasetsCmd() *cobra.Command {
	var opts domain.FetchOptions
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List the available datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			list, err := svc.Datasets.ListDatasets(cmd.Context(), opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(list))
			for i, d := range list {
				rows[i] = []string{d.Dataset, d.Description, d.GeoDataset, d.Attribution}
			}
			return a.printRows(list, []string{"DATASET", "DESCRIPTION", "GEO DATASET", "ATTRIBUTION"}, rows)
		},
	}
	fetchFlags(cmd, &opts)
	return cmd
}

func (a *app) attributionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attribution DATASET...",
		Short: "Print the merged attribution text for datasets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			lines, err := svc.Datasets.Attribution(cmd.Context(), args)
			if err != nil {
				return err
			}
			if a.output == "json" {
				return a.printJSON(map[string][]string{"attribution": lines})
			}
			for _, l := range lines {
				fmt.Fprintln(a.out, l)
			}
			return nil
		},
	}
}

func (a *app) regionsCmd() *cobra.Command {
	var (
		opts  domain.FetchOptions
		level string
	)
	cmd := &cobra.Command{
		Use:   "regions DATASET [TERM]",
		Short: "List or search the named regions of a dataset",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}

			var term string
			if len(args) > 1 {
				term = args[1]
			}
			regions, err := svc.Regions.SearchRegions(cmd.Context(), term, args[0], level, opts)
			if err != nil {
				return err
			}
			return a.printRegions(regions)
		},
	}
	cmd.Flags().StringVarP(&level, "level", "l", "", "only regions of this level")
	fetchFlags(cmd, &opts)
	return cmd
}

func (a *app) intersectingCmd() *cobra.Command {
	var (
		opts     domain.FetchOptions
		level    string
		geometry string
		bbox     string
	)
	cmd := &cobra.Command{
		Use:   "intersecting DATASET",
		Short: "Find the regions of a level that intersect a geometry",
		Example: `  cancensus intersecting CA21 -l CSD --bbox -123.3,49.0,-122.5,49.4
  cancensus intersecting CA21 -l CT --geometry @area.geojson`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGeometry(geometry, bbox)
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}

			sel, err := svc.Regions.IntersectingGeometries(cmd.Context(), args[0], level, g, opts)
			if err != nil {
				return err
			}
			return a.printSelector(sel)
		},
	}
	cmd.Flags().StringVarP(&level, "level", "l", "", "level of the regions to return")
	cmd.Flags().StringVar(&geometry, "geometry", "", "GeoJSON geometry, or @FILE to read it from a file")
	cmd.Flags().StringVar(&bbox, "bbox", "", "bounding box minLon,minLat,maxLon,maxLat")
	cmd.MarkFlagsMutuallyExclusive("geometry", "bbox")
	_ = cmd.MarkFlagRequired("level")
	fetchFlags(cmd, &opts)
	return cmd
}

// readGeometry decodes the --geometry or --bbox flag.
func readGeometry(raw, bbox string) (orb.Geometry, error) {
	if bbox != "" {
		return parseBBox(bbox)
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: one of --geometry or --bbox is required", constants.ErrInvalidParameter)
	}

	data := []byte(raw)
	if path, ok := strings.CutPrefix(raw, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read geometry: %w", err)
		}
		data = b
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("%w: geometry: %s", constants.ErrInvalidParameter, err.Error())
	}
	return g.Geometry(), nil
}

func parseBBox(s string) (orb.Geometry, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: bbox needs four numbers, got %q", constants.ErrInvalidParameter, s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bbox value %q", constants.ErrInvalidParameter, p)
		}
		v[i] = f
	}
	if v[0] >= v[2] || v[1] >= v[3] {
		return nil, fmt.Errorf("%w: bbox min must be below max", constants.ErrInvalidParameter)
	}

	bound := orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}
	return bound.ToPolygon(), nil
}

func (a *app) printSelector(sel domain.RegionSelector) error {
	canonical := sel.Canonical()
	levels := make([]string, 0, len(canonical))
	for l := range canonical {
		levels = append(levels, l)
	}
	sort.Strings(levels)

	var rows [][]string
	for _, l := range levels {
		for _, id := range canonical[l] {
			rows = append(rows, []string{l, id})
		}
	}
	return a.printRows(canonical, []string{"LEVEL", "REGION"}, rows)
}

func (a *app) vectorsCmd() *cobra.Command {
	var (
		opts   domain.FetchOptions
		filter vectors.SearchFilter
		find   bool
	)
	cmd := &cobra.Command{
		Use:   "vectors DATASET [TERM...]",
		Short: "List or search the vectors of a dataset",
		Long: `List or search the vectors of a dataset. TERM is matched against label
and details; with --find every word of TERM must appear.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}

			term := strings.Join(args[1:], " ")
			var list []domain.Vector
			switch {
			case find:
				list, err = svc.Vectors.Find(cmd.Context(), args[0], term)
			case term == "" && filter.Type == "" && filter.Units == "":
				list, err = svc.Vectors.ListVectors(cmd.Context(), args[0], opts)
			default:
				filter.Term = term
				list, err = svc.Vectors.Search(cmd.Context(), args[0], filter)
			}
			if err != nil {
				return err
			}
			return a.printVectors(list)
		},
	}
	cmd.Flags().StringVar(&filter.Type, "type", "", "only vectors of this type (Total, Male, Female)")
	cmd.Flags().StringVar(&filter.Units, "units", "", "only vectors in these units")
	cmd.Flags().BoolVar(&find, "find", false, "keyword search: all words must match")
	fetchFlags(cmd, &opts)
	return cmd
}

// hierarchyCmd is one of parent, children or ancestors.
func (a *app) hierarchyCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " VECTOR",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}

			var list []domain.Vector
			switch use {
			case "parent":
				list, err = svc.Vectors.Parent(cmd.Context(), args[0])
			case "children":
				list, err = svc.Vectors.Children(cmd.Context(), args[0])
			default:
				list, err = svc.Vectors.Ancestors(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return a.printVectors(list)
		},
	}
}

func (a *app) descendantsCmd() *cobra.Command {
	var opts vectors.DescendantOptions
	cmd := &cobra.Command{
		Use:   "descendants VECTOR",
		Short: "List every vector below a vector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			list, err := svc.Vectors.Descendants(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return a.printVectors(list)
		},
	}
	cmd.Flags().BoolVar(&opts.LeavesOnly, "leaves-only", false, "only vectors without children")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "depth limit, 1 for direct children, 0 for none")
	cmd.Flags().BoolVar(&opts.KeepParent, "keep-parent", false, "include VECTOR itself first")
	return cmd
}
