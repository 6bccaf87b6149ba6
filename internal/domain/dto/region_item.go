package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

// CensusExport is a census table flattened into warehouse rows.
type CensusExport struct {
	Dataset string
	Regions []domain.RegionItem
	Values  []domain.ValueItem
}

// NewCensusExport flattens t. Every vector column contributes one value row
// per region, missing cells included as NULL.
func NewCensusExport(dataset string, t *domain.Table) (*CensusExport, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil table", constants.ErrInvalidParameter)
	}
	geoUIDs := t.Column(domain.ColGeoUID)
	if geoUIDs == nil {
		return nil, fmt.Errorf("%w: table has no %s column", constants.ErrInvalidParameter, domain.ColGeoUID)
	}

	var vectorCols []*domain.Column
	for _, c := range t.Columns {
		if c.Vector != "" {
			vectorCols = append(vectorCols, c)
		}
	}

	rows := t.Rows()
	out := &CensusExport{
		Dataset: dataset,
		Regions: make([]domain.RegionItem, 0, rows),
		Values:  make([]domain.ValueItem, 0, rows*len(vectorCols)),
	}

	for i := 0; i < rows; i++ {
		uid := geoUIDs.String(i)
		if uid == "" {
			continue
		}
		out.Regions = append(out.Regions, domain.RegionItem{
			Dataset:    dataset,
			GeoUID:     uid,
			Type:       stringCell(t, domain.ColType, i),
			Name:       stringCell(t, domain.ColRegionName, i),
			Population: numberCell(t, domain.ColPopulation, i),
			Dwellings:  numberCell(t, domain.ColDwellings, i),
			Households: numberCell(t, domain.ColHouseholds, i),
		})

		for _, c := range vectorCols {
			var v decimal.NullDecimal
			if c.Type == domain.ColumnNumeric && i < len(c.Numbers) {
				v = c.Numbers[i]
			}
			out.Values = append(out.Values, domain.ValueItem{
				Dataset: dataset,
				GeoUID:  uid,
				Vector:  c.Vector,
				Value:   v,
			})
		}
	}

	return out, nil
}

func stringCell(t *domain.Table, name string, i int) string {
	if c := t.Column(name); c != nil {
		return c.String(i)
	}
	return ""
}

func numberCell(t *domain.Table, name string, i int) decimal.NullDecimal {
	c := t.Column(name)
	if c == nil || c.Type != domain.ColumnNumeric || i >= len(c.Numbers) {
		return decimal.NullDecimal{}
	}
	return c.Numbers[i]
}
