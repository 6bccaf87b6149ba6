package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

type GeoFormat string

const (
	GeoFormatNone    GeoFormat = ""
	GeoFormatGeoJSON GeoFormat = "geojson"
)

// ParseGeoFormat accepts the usual names of "with geometry", sf and geopandas
// included.
func ParseGeoFormat(s string) (GeoFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "table":
		return GeoFormatNone, true
	case "geojson", "geo", "sf", "geopandas":
		return GeoFormatGeoJSON, true
	}
	return "", false
}

type Labels string

const (
	LabelsDetailed Labels = "detailed"
	LabelsShort    Labels = "short"
)

type Resolution string

const (
	ResolutionSimplified Resolution = "simplified"
	ResolutionHigh       Resolution = "high"
)

// RegionIDs decodes from either a scalar or an array so that {"CMA":"59933"}
// and {"CMA":["59933"]} mean the same selection. Numeric IDs keep their
// literal text, so a CT of 9330001.10 stays "9330001.10".
type RegionIDs []string

var regionIDsAPI = sonic.Config{UseNumber: true}.Froze()

func (r *RegionIDs) UnmarshalJSON(data []byte) error {
	var raw any
	if err := regionIDsAPI.Unmarshal(data, &raw); err != nil {
		return err
	}

	ids, err := toRegionIDs(raw)
	if err != nil {
		return err
	}
	*r = ids
	return nil
}

func toRegionIDs(raw any) (RegionIDs, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return RegionIDs{v}, nil
	case json.Number:
		return RegionIDs{v.String()}, nil
	case []any:
		ids := make(RegionIDs, 0, len(v))
		for _, item := range v {
			sub, err := toRegionIDs(item)
			if err != nil {
				return nil, err
			}
			ids = append(ids, sub...)
		}
		return ids, nil
	}
	return nil, fmt.Errorf("region id must be a string or a list of strings, got %T", raw)
}

// RegionSelector maps an aggregation level code to region IDs at that level.
type RegionSelector map[Level]RegionIDs

// Regions is shorthand for a single-level selector.
func Regions(level Level, ids ...string) RegionSelector {
	return RegionSelector{level: ids}
}

// Canonical returns a copy with the levels' IDs sorted and de-duplicated.
func (rs RegionSelector) Canonical() map[string][]string {
	out := make(map[string][]string, len(rs))
	for level, ids := range rs {
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		uniq := sorted[:0]
		for i, id := range sorted {
			if i == 0 || id != sorted[i-1] {
				uniq = append(uniq, id)
			}
		}
		out[string(level)] = uniq
	}
	return out
}

// CensusRequest is what callers hand to a retrieval.
type CensusRequest struct {
	Dataset    string         `json:"dataset"`
	Level      string         `json:"level,omitempty"`
	Regions    RegionSelector `json:"regions"`
	Vectors    []string       `json:"vectors,omitempty"`
	GeoFormat  string         `json:"geo_format,omitempty"`
	Labels     string         `json:"labels,omitempty"`
	Resolution string         `json:"resolution,omitempty"`
	NoCache    bool           `json:"no_cache,omitempty"`
	Quiet      bool           `json:"quiet,omitempty"`
}

// FetchOptions control cache use and progress logging of catalog calls.
type FetchOptions struct {
	NoCache bool `json:"no_cache,omitempty" query:"no_cache"`
	Quiet   bool `json:"quiet,omitempty" query:"quiet"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}
