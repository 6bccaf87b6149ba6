package census

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/cancensus/internal/domain"
)

func mustParams(t *testing.T, req domain.CensusRequest) Params {
	t.Helper()
	p, err := NormalizeParams(req)
	require.NoError(t, err)
	return p
}

func TestBuildRequest_Fields(t *testing.T) {
	p := mustParams(t, domain.CensusRequest{
		Dataset: "CA16",
		Level:   "CSD",
		Regions: domain.Regions(domain.LevelCMA, "59933"),
		Vectors: []string{"v_CA16_408", "v_CA16_409"},
	})

	req, err := BuildRequest(p)
	require.NoError(t, err)

	assert.Equal(t, EndpointData, req.Endpoint)
	names := make([]string, len(req.Fields))
	for i, f := range req.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"dataset", "level", "regions", "geo_hierarchy", "vectors"}, names)

	regions, _ := req.Field("regions")
	assert.Equal(t, `{"CMA":["59933"]}`, regions)
	vectors, _ := req.Field("vectors")
	assert.Equal(t, `["v_CA16_408","v_CA16_409"]`, vectors)
	hierarchy, _ := req.Field("geo_hierarchy")
	assert.Equal(t, "true", hierarchy)
}

func TestBuildRequest_ScalarRegionMatchesArray(t *testing.T) {
	var scalar, array domain.RegionSelector
	require.NoError(t, wireJSON.UnmarshalFromString(`{"CMA":"59933"}`, &scalar))
	require.NoError(t, wireJSON.UnmarshalFromString(`{"CMA":["59933"]}`, &array))

	a, err := BuildRequest(mustParams(t, domain.CensusRequest{Dataset: "CA16", Level: "CSD", Regions: scalar}))
	require.NoError(t, err)
	b, err := BuildRequest(mustParams(t, domain.CensusRequest{Dataset: "CA16", Level: "CSD", Regions: array}))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	regions, _ := a.Field("regions")
	assert.Equal(t, `{"CMA":["59933"]}`, regions)
}

func TestBuildRequest_MultiLevelKeysSorted(t *testing.T) {
	p := mustParams(t, domain.CensusRequest{
		Dataset: "CA21",
		Level:   "CT",
		Regions: domain.RegionSelector{"PR": {"59"}, "CMA": {"35535"}},
	})
	req, err := BuildRequest(p)
	require.NoError(t, err)

	regions, _ := req.Field("regions")
	assert.Equal(t, `{"CMA":["35535"],"PR":["59"]}`, regions)
	_, ok := req.Field("vectors")
	assert.False(t, ok, "vectors field only when vectors are requested")
}

func TestBuildRequest_Geometry(t *testing.T) {
	t.Run("high resolution", func(t *testing.T) {
		p := mustParams(t, domain.CensusRequest{
			Dataset: "CA16", Level: "CSD", Regions: domain.Regions(domain.LevelCMA, "59933"),
			GeoFormat: "geopandas", Resolution: "high",
		})
		req, err := BuildRequest(p)
		require.NoError(t, err)
		assert.Equal(t, EndpointGeo, req.Endpoint)
		res, ok := req.Field("resolution")
		assert.True(t, ok)
		assert.Equal(t, "high", res)
	})

	t.Run("simplified", func(t *testing.T) {
		p := mustParams(t, domain.CensusRequest{
			Dataset: "CA16", Level: "CSD", Regions: domain.Regions(domain.LevelCMA, "59933"),
			GeoFormat: "geojson",
		})
		req, err := BuildRequest(p)
		require.NoError(t, err)
		_, ok := req.Field("resolution")
		assert.False(t, ok)
	})

	t.Run("table ignores resolution", func(t *testing.T) {
		p := mustParams(t, domain.CensusRequest{
			Dataset: "CA16", Level: "CSD", Regions: domain.Regions(domain.LevelCMA, "59933"),
			Resolution: "high",
		})
		req, err := BuildRequest(p)
		require.NoError(t, err)
		assert.Equal(t, EndpointData, req.Endpoint)
		_, ok := req.Field("resolution")
		assert.False(t, ok)
	})
}
