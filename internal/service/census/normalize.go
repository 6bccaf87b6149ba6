package census

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/logger"
)

// canonicalColumns maps raw upstream headers, after trimming, to the names
// callers see. The CSV endpoint pads some headers with a trailing space and
// the GeoJSON endpoint uses short property keys.
var canonicalColumns = map[string]string{
	"id":          domain.ColGeoUID,
	"t":           domain.ColType,
	"name":        domain.ColRegionName,
	"a":           domain.ColShapeArea,
	"pop":         domain.ColPopulation,
	"dw":          domain.ColDwellings,
	"hh":          domain.ColHouseholds,
	"pop2":        "Adjusted Population (previous Census)",
	"nrr":         "NHS Non-Return Rate",
	"q":           "Quality Flags",
	"rpid":        "PR_UID",
	"rgid":        "GeoUID Parent",
	"Geo UID":     domain.ColGeoUID,
	"Region name": domain.ColRegionName,
	"Area":        domain.ColArea,
}

var numericColumns = map[string]struct{}{
	domain.ColPopulation:                    {},
	domain.ColDwellings:                     {},
	domain.ColHouseholds:                    {},
	domain.ColArea:                          {},
	domain.ColShapeArea:                     {},
	"Adjusted Population (previous Census)": {},
	"NHS Non-Return Rate":                   {},
}

var categoricalColumns = map[string]struct{}{
	domain.ColType:       {},
	domain.ColRegionName: {},
}

// missingMarkers are the suppression and not-available placeholders
// Statistics Canada uses in numeric cells.
var missingMarkers = map[string]struct{}{
	"":    {},
	"NA":  {},
	"x":   {},
	"X":   {},
	"F":   {},
	"..":  {},
	"...": {},
	"-":   {},
}

func canonicalName(raw string) string {
	name := strings.TrimSpace(raw)
	if c, ok := canonicalColumns[name]; ok {
		return c
	}
	return name
}

// parseNumber reads one numeric cell; placeholders and unparseable text are
// missing values.
func parseNumber(cell string) decimal.NullDecimal {
	cell = strings.TrimSpace(cell)
	if _, ok := missingMarkers[cell]; ok {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

type columnSpec struct {
	src    int
	column *domain.Column
}

// buildTable turns raw headers and string rows into a typed table. Vector
// columns are named per labels, and every requested vector ends up with a
// column.
func buildTable(headers []string, rows [][]string, vectors []string, labels domain.Labels) *domain.Table {
	t := &domain.Table{}
	var specs []columnSpec
	seen := make(map[string]struct{}, len(headers))

	for i, raw := range headers {
		col := &domain.Column{}

		if code, detail, ok := domain.VectorCode(raw); ok {
			col.Type = domain.ColumnNumeric
			col.Vector = code
			col.Name = strings.TrimSpace(raw)
			if labels == domain.LabelsShort {
				col.Name = code
				if _, dup := seen[code]; !dup {
					t.VectorLabels = append(t.VectorLabels, domain.VectorLabel{Vector: code, Detail: detail})
				}
			}
		} else {
			col.Name = canonicalName(raw)
			switch {
			case isNumericColumn(col.Name):
				col.Type = domain.ColumnNumeric
			case isCategoricalColumn(col.Name):
				col.Type = domain.ColumnCategorical
			default:
				col.Type = domain.ColumnText
			}
		}

		if col.Name == "" {
			continue
		}
		if _, dup := seen[col.Name]; dup {
			continue
		}
		seen[col.Name] = struct{}{}
		if col.Vector != "" {
			seen[col.Vector] = struct{}{}
		}
		specs = append(specs, columnSpec{src: i, column: col})
	}

	for _, spec := range specs {
		col := spec.column
		if col.Type == domain.ColumnNumeric {
			col.Numbers = make([]decimal.NullDecimal, len(rows))
		} else {
			col.Strings = make([]string, len(rows))
		}

		for r, row := range rows {
			cell := ""
			if spec.src < len(row) {
				cell = row[spec.src]
			}
			if col.Type == domain.ColumnNumeric {
				col.Numbers[r] = parseNumber(cell)
			} else {
				col.Strings[r] = strings.TrimSpace(cell)
			}
		}

		if col.Type == domain.ColumnCategorical {
			col.MakeCategorical()
		}
		t.Columns = append(t.Columns, col)
	}

	for _, code := range vectors {
		if t.VectorColumn(code) != nil {
			continue
		}
		t.Columns = append(t.Columns, &domain.Column{
			Name:    code,
			Type:    domain.ColumnNumeric,
			Vector:  code,
			Numbers: make([]decimal.NullDecimal, len(rows)),
		})
	}

	return t
}

func isNumericColumn(name string) bool {
	_, ok := numericColumns[name]
	return ok
}

func isCategoricalColumn(name string) bool {
	_, ok := categoricalColumns[name]
	return ok
}

// LabelVectors returns the vector labels attached to a short-label result.
func LabelVectors(ctx context.Context, t *domain.Table) []domain.VectorLabel {
	if t == nil || len(t.VectorLabels) == 0 {
		logger.Warnf(ctx, "data does not have variables to label")
		return nil
	}
	return t.VectorLabels
}
