package domain

import (
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/shopspring/decimal"
)

type ColumnType string

const (
	ColumnText        ColumnType = "text"
	ColumnNumeric     ColumnType = "numeric"
	ColumnCategorical ColumnType = "categorical"
)

// Fixed metadata column names as returned to callers.
const (
	ColGeoUID     = "GeoUID"
	ColType       = "Type"
	ColRegionName = "Region Name"
	ColPopulation = "Population"
	ColDwellings  = "Dwellings"
	ColHouseholds = "Households"
	ColArea       = "Area (sq km)"
	ColShapeArea  = "Shape Area"
)

// Column holds one column of a census table. Text and categorical columns
// use Strings; numeric columns use Numbers, where an invalid NullDecimal is
// a missing value.
type Column struct {
	Name    string                `json:"name"`
	Type    ColumnType            `json:"type"`
	Vector  string                `json:"vector,omitempty"`
	Strings []string              `json:"strings,omitempty"`
	Numbers []decimal.NullDecimal `json:"numbers,omitempty"`
	Levels  []string              `json:"levels,omitempty"`
}

func (c *Column) Len() int {
	if c.Type == ColumnNumeric {
		return len(c.Numbers)
	}
	return len(c.Strings)
}

// Float returns the i-th numeric cell and whether it is present.
func (c *Column) Float(i int) (float64, bool) {
	if c.Type != ColumnNumeric || i >= len(c.Numbers) || !c.Numbers[i].Valid {
		return 0, false
	}
	return c.Numbers[i].Decimal.InexactFloat64(), true
}

// String formats the i-th cell; missing numeric cells render empty.
func (c *Column) String(i int) string {
	if c.Type == ColumnNumeric {
		if i >= len(c.Numbers) || !c.Numbers[i].Valid {
			return ""
		}
		return c.Numbers[i].Decimal.String()
	}
	if i >= len(c.Strings) {
		return ""
	}
	return c.Strings[i]
}

// MakeCategorical turns a text column into a categorical one.
func (c *Column) MakeCategorical() {
	set := make(map[string]struct{}, len(c.Strings))
	for _, s := range c.Strings {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	levels := make([]string, 0, len(set))
	for s := range set {
		levels = append(levels, s)
	}
	sort.Strings(levels)

	c.Type = ColumnCategorical
	c.Levels = levels
}

type VectorLabel struct {
	Vector string `json:"vector"`
	Detail string `json:"detail"`
}

// Table is a census result: one row per region. Geometry is set only for
// geospatial results and is parallel to the rows.
type Table struct {
	Columns      []*Column           `json:"columns"`
	VectorLabels []VectorLabel       `json:"vector_labels,omitempty"`
	Geometry     []*geojson.Geometry `json:"geometry,omitempty"`
	CRS          string              `json:"crs,omitempty"`
}

func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return len(t.Geometry)
	}
	return t.Columns[0].Len()
}

func (t *Table) IsSpatial() bool {
	return t.CRS != ""
}

func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// VectorColumn finds the column of a vector by its code, whatever label
// style named it.
func (t *Table) VectorColumn(code string) *Column {
	for _, c := range t.Columns {
		if c.Vector == code {
			return c
		}
	}
	return nil
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) GeoUIDs() []string {
	if c := t.Column(ColGeoUID); c != nil {
		return c.Strings
	}
	return nil
}

// Row returns the i-th row as formatted strings in column order.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.String(i)
	}
	return row
}

// VectorCode extracts the code from a vector column header such as
// "v_CA21_1: Population, 2021". ok is false for non-vector headers.
func VectorCode(header string) (code, detail string, ok bool) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "v_") {
		return "", "", false
	}
	code, detail, _ = strings.Cut(header, ":")
	return strings.TrimSpace(code), strings.TrimSpace(detail), true
}
