package census

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

const csdCSV = "\xEF\xBB\xBFGeoUID,Type,Region Name,Area (sq km),Population ,Dwellings ,Households ,CMA_UID,\"v_CA21_1: Population, 2021\",\"v_CA21_2: Population, 2016\"\n" +
	"5915022,CY,Vancouver (CY),115.18,662248,328348,305336,59933,662248,631486\n" +
	"5915025,CY,Burnaby (CY),85.53,249125,108048,101130,59933,249125,x\n" +
	"5915004,CY,Surrey (CY),316.11,568322,197341,185671,59933,568322,..\n"

func TestNormalizeCSV(t *testing.T) {
	table, err := NormalizeCSV([]byte(csdCSV), []string{"v_CA21_1"}, domain.LabelsDetailed)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Rows())
	for _, name := range table.ColumnNames() {
		assert.Equal(t, name, strings.TrimSpace(name), "column %q keeps whitespace", name)
	}

	pop := table.Column(domain.ColPopulation)
	require.NotNil(t, pop, "padded header must be renamed")
	assert.Equal(t, domain.ColumnNumeric, pop.Type)
	v, ok := pop.Float(0)
	assert.True(t, ok)
	assert.Equal(t, 662248.0, v)

	assert.Equal(t, domain.ColumnText, table.Column(domain.ColGeoUID).Type)
	assert.Equal(t, []string{"5915022", "5915025", "5915004"}, table.GeoUIDs())
	assert.Equal(t, domain.ColumnText, table.Column("CMA_UID").Type)

	typ := table.Column(domain.ColType)
	assert.Equal(t, domain.ColumnCategorical, typ.Type)
	assert.Equal(t, []string{"CY"}, typ.Levels)
	assert.Equal(t, domain.ColumnCategorical, table.Column(domain.ColRegionName).Type)

	v1 := table.VectorColumn("v_CA21_1")
	require.NotNil(t, v1)
	assert.Equal(t, "v_CA21_1: Population, 2021", v1.Name)
	assert.Equal(t, domain.ColumnNumeric, v1.Type)

	v2 := table.VectorColumn("v_CA21_2")
	require.NotNil(t, v2)
	_, ok = v2.Float(1)
	assert.False(t, ok, "suppressed cell is missing")
	_, ok = v2.Float(2)
	assert.False(t, ok)

	assert.Nil(t, table.VectorLabels)
	assert.Nil(t, LabelVectors(context.Background(), table))
	assert.False(t, table.IsSpatial())
}

func TestNormalizeCSV_ShortLabels(t *testing.T) {
	table, err := NormalizeCSV([]byte(csdCSV), []string{"v_CA21_1", "v_CA21_2"}, domain.LabelsShort)
	require.NoError(t, err)

	assert.NotNil(t, table.Column("v_CA21_1"))
	assert.NotNil(t, table.Column("v_CA21_2"))
	assert.Equal(t, []domain.VectorLabel{
		{Vector: "v_CA21_1", Detail: "Population, 2021"},
		{Vector: "v_CA21_2", Detail: "Population, 2016"},
	}, LabelVectors(context.Background(), table))
}

func TestNormalizeCSV_MissingRequestedVector(t *testing.T) {
	table, err := NormalizeCSV([]byte(csdCSV), []string{"v_CA21_1", "v_CA21_999"}, domain.LabelsShort)
	require.NoError(t, err)

	col := table.VectorColumn("v_CA21_999")
	require.NotNil(t, col)
	assert.Equal(t, domain.ColumnNumeric, col.Type)
	assert.Len(t, col.Numbers, 3)
	for i := range col.Numbers {
		_, ok := col.Float(i)
		assert.False(t, ok)
	}
}

func TestNormalizeCSV_Placeholders(t *testing.T) {
	body := "GeoUID,Population \n" +
		"1,\n2,NA\n3,x\n4,X\n5,F\n6,..\n7,...\n8,-\n9, 42 \n"
	table, err := NormalizeCSV([]byte(body), nil, domain.LabelsDetailed)
	require.NoError(t, err)

	pop := table.Column(domain.ColPopulation)
	require.NotNil(t, pop)
	for i := 0; i < 8; i++ {
		_, ok := pop.Float(i)
		assert.False(t, ok, "row %d", i)
	}
	v, ok := pop.Float(8)
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)
}

func TestNormalizeCSV_Invalid(t *testing.T) {
	_, err := NormalizeCSV([]byte(""), nil, domain.LabelsDetailed)
	assert.ErrorIs(t, err, constants.ErrInvalidResponse)

	_, err = NormalizeCSV([]byte("Region Name,Population\nX,1\n"), nil, domain.LabelsDetailed)
	assert.ErrorIs(t, err, constants.ErrInvalidResponse)
}

const csdGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "properties": {"id": "5915022", "t": "CY", "name": "Vancouver (CY)", "a": 115.18, "pop": 631486, "dw": 309418, "hh": 283916, "rgid": "59933", "v_CA16_408: Total - Occupied private dwellings": 283915},
     "geometry": {"type": "Polygon", "coordinates": [[[-123.2, 49.2], [-123.0, 49.2], [-123.0, 49.3], [-123.2, 49.2]]]}},
    {"type": "Feature",
     "properties": {"id": "5915025", "t": "CY", "name": "Burnaby (CY)", "a": 85.53, "pop": 232755, "dw": 92761, "hh": 89370, "rgid": "59933", "v_CA16_408: Total - Occupied private dwellings": null},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[-123.0, 49.2], [-122.9, 49.2], [-122.9, 49.3], [-123.0, 49.2]]]]}},
    {"type": "Feature",
     "properties": {"id": "5915001", "t": "DM", "name": "Langley (DM)", "a": 307.0, "pop": 117285, "dw": 41586, "hh": 40000, "rgid": "59933"},
     "geometry": null}
  ]
}`

func TestNormalizeGeoJSON(t *testing.T) {
	table, err := NormalizeGeoJSON([]byte(csdGeoJSON), []string{"v_CA16_408"}, domain.LabelsShort)
	require.NoError(t, err)

	assert.True(t, table.IsSpatial())
	assert.Equal(t, constants.CRSGeographic, table.CRS)
	assert.Equal(t, 3, table.Rows())
	require.Len(t, table.Geometry, 3)
	assert.Equal(t, "Polygon", table.Geometry[0].Type)
	assert.Equal(t, "MultiPolygon", table.Geometry[1].Type)
	assert.Nil(t, table.Geometry[2])

	assert.Equal(t, []string{
		domain.ColGeoUID, domain.ColType, domain.ColRegionName, domain.ColShapeArea,
		domain.ColPopulation, domain.ColDwellings, domain.ColHouseholds,
		"GeoUID Parent", "v_CA16_408",
	}, table.ColumnNames())

	assert.Equal(t, []string{"5915022", "5915025", "5915001"}, table.GeoUIDs())
	pop, ok := table.Column(domain.ColPopulation).Float(0)
	assert.True(t, ok)
	assert.Equal(t, 631486.0, pop)

	dw := table.VectorColumn("v_CA16_408")
	_, ok = dw.Float(1)
	assert.False(t, ok, "null property is missing")
	_, ok = dw.Float(2)
	assert.False(t, ok, "absent property is missing")

	assert.Equal(t, []domain.VectorLabel{{Vector: "v_CA16_408", Detail: "Total - Occupied private dwellings"}}, table.VectorLabels)
}

// geo.geojson features name vector properties by bare code.
const bareCodeGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "properties": {"id": "5915022", "t": "CY", "name": "Vancouver (CY)", "pop": 662248, "v_CA21_1": 662248},
     "geometry": {"type": "Polygon", "coordinates": [[[-123.2, 49.2], [-123.0, 49.2], [-123.0, 49.3], [-123.2, 49.2]]]}}
  ]
}`

func TestApplyVectorLabels(t *testing.T) {
	catalog := []domain.Vector{
		{Vector: "v_CA21_1", Label: "Population, 2021", Details: "Population and dwellings; Population, 2021"},
		{Vector: "v_CA21_8", Details: "Age; Total"},
	}

	t.Run("short", func(t *testing.T) {
		table, err := NormalizeGeoJSON([]byte(bareCodeGeoJSON), []string{"v_CA21_1", "v_CA21_8"}, domain.LabelsShort)
		require.NoError(t, err)

		ApplyVectorLabels(table, catalog, domain.LabelsShort)
		assert.Equal(t, []domain.VectorLabel{
			{Vector: "v_CA21_1", Detail: "Population, 2021"},
			{Vector: "v_CA21_8", Detail: "Age; Total"},
		}, table.VectorLabels)
		assert.NotNil(t, table.Column("v_CA21_1"))
	})

	t.Run("detailed", func(t *testing.T) {
		table, err := NormalizeGeoJSON([]byte(bareCodeGeoJSON), []string{"v_CA21_1", "v_CA21_404"}, domain.LabelsDetailed)
		require.NoError(t, err)

		ApplyVectorLabels(table, catalog, domain.LabelsDetailed)
		assert.Equal(t, "v_CA21_1: Population, 2021", table.VectorColumn("v_CA21_1").Name)
		assert.Equal(t, "v_CA21_404", table.VectorColumn("v_CA21_404").Name, "vectors missing from the catalog keep their code")
		assert.Empty(t, table.VectorLabels)
	})

	t.Run("existing labels kept", func(t *testing.T) {
		table, err := NormalizeGeoJSON([]byte(csdGeoJSON), []string{"v_CA16_408"}, domain.LabelsShort)
		require.NoError(t, err)

		ApplyVectorLabels(table, []domain.Vector{{Vector: "v_CA16_408", Label: "Other"}}, domain.LabelsShort)
		assert.Equal(t, []domain.VectorLabel{{Vector: "v_CA16_408", Detail: "Total - Occupied private dwellings"}}, table.VectorLabels)
	})
}

func TestNormalizeGeoJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"no features", `{"type":"FeatureCollection"}`},
		{"point geometry", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"id":"1"},"geometry":{"type":"Point","coordinates":[1,2]}}]}`},
		{"no geouid", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"pop":1},"geometry":null}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeGeoJSON([]byte(tt.body), nil, domain.LabelsDetailed)
			assert.ErrorIs(t, err, constants.ErrInvalidResponse)
		})
	}
}

