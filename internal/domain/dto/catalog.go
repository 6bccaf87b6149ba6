package dto

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

type datasetsEnvelope struct {
	Datasets *[]domain.DatasetInfo `json:"datasets"`
}

type regionsEnvelope struct {
	Regions *[]domain.RegionInfo `json:"regions"`
}

// DecodeDatasets accepts a bare list or a {"datasets": [...]} object.
func DecodeDatasets(body []byte) ([]domain.DatasetInfo, error) {
	var list []domain.DatasetInfo
	if err := sonic.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var env datasetsEnvelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: list_datasets: %s", constants.ErrInvalidResponse, err.Error())
	}
	if env.Datasets == nil {
		return nil, fmt.Errorf("%w: list_datasets: expected a list of datasets or a datasets field", constants.ErrInvalidResponse)
	}
	return *env.Datasets, nil
}

// DecodeRegions requires a {"regions": [...]} object.
func DecodeRegions(body []byte) ([]domain.RegionInfo, error) {
	var env regionsEnvelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: list_regions: %s", constants.ErrInvalidResponse, err.Error())
	}
	if env.Regions == nil {
		return nil, fmt.Errorf("%w: list_regions: missing regions field", constants.ErrInvalidResponse)
	}
	return *env.Regions, nil
}

// DecodeIntersecting reads a {level: [ids]} object into a region selector.
func DecodeIntersecting(body []byte) (domain.RegionSelector, error) {
	var raw map[string]domain.RegionIDs
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: intersecting_geographies: %s", constants.ErrInvalidResponse, err.Error())
	}

	out := make(domain.RegionSelector, len(raw))
	for k, ids := range raw {
		level, ok := domain.ParseLevel(k)
		if !ok || !level.IsRegionLevel() {
			return nil, fmt.Errorf("%w: intersecting_geographies: unknown level %q", constants.ErrInvalidResponse, k)
		}
		out[level] = append(out[level], ids...)
	}
	return out, nil
}
