package dto

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

func nd(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func TestNewCensusExport(t *testing.T) {
	table := &domain.Table{Columns: []*domain.Column{
		{Name: domain.ColGeoUID, Type: domain.ColumnText, Strings: []string{"5915022", "", "5915055"}},
		{Name: domain.ColType, Type: domain.ColumnCategorical, Strings: []string{"CSD", "CSD", "CSD"}},
		{Name: domain.ColRegionName, Type: domain.ColumnCategorical, Strings: []string{"Vancouver (CY)", "x", "West Vancouver (DM)"}},
		{Name: domain.ColPopulation, Type: domain.ColumnNumeric, Numbers: []decimal.NullDecimal{nd(631486), nd(1), nd(42473)}},
		{Name: "v_CA16_408: Occupied private dwellings", Vector: "v_CA16_408", Type: domain.ColumnNumeric,
			Numbers: []decimal.NullDecimal{nd(301005), nd(2), {}}},
	}}

	export, err := NewCensusExport("CA16", table)
	require.NoError(t, err)

	require.Len(t, export.Regions, 2, "rows without a GeoUID are skipped")
	assert.Equal(t, "5915022", export.Regions[0].GeoUID)
	assert.Equal(t, "Vancouver (CY)", export.Regions[0].Name)
	assert.Equal(t, "CSD", export.Regions[0].Type)
	assert.True(t, export.Regions[0].Population.Decimal.Equal(decimal.NewFromInt(631486)))
	assert.False(t, export.Regions[0].Dwellings.Valid, "absent column is NULL")

	require.Len(t, export.Values, 2)
	assert.Equal(t, "v_CA16_408", export.Values[0].Vector)
	assert.True(t, export.Values[0].Value.Valid)
	assert.Equal(t, "5915055", export.Values[1].GeoUID)
	assert.False(t, export.Values[1].Value.Valid)
}

func TestNewCensusExport_Invalid(t *testing.T) {
	_, err := NewCensusExport("CA16", nil)
	assert.ErrorIs(t, err, constants.ErrInvalidParameter)

	_, err = NewCensusExport("CA16", &domain.Table{Columns: []*domain.Column{{Name: "x", Type: domain.ColumnText}}})
	assert.ErrorIs(t, err, constants.ErrInvalidParameter)
}
