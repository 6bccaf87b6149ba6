package census

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

// leadingColumns fixes the position of the metadata properties, which come
// back as unordered JSON objects.
var leadingColumns = []string{
	domain.ColGeoUID,
	domain.ColType,
	domain.ColRegionName,
	domain.ColShapeArea,
	domain.ColPopulation,
	domain.ColDwellings,
	domain.ColHouseholds,
}

// NormalizeGeoJSON parses a geo.geojson body into a spatial table, one row
// per feature.
func NormalizeGeoJSON(body []byte, vectors []string, labels domain.Labels) (*domain.Table, error) {
	var probe map[string]json.RawMessage
	if err := sonic.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("%w: decode GeoJSON: %s", constants.ErrInvalidResponse, err.Error())
	}
	if _, ok := probe["features"]; !ok {
		return nil, fmt.Errorf("%w: GeoJSON response has no features", constants.ErrInvalidResponse)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode features: %s", constants.ErrInvalidResponse, err.Error())
	}

	geometry := make([]*geojson.Geometry, len(fc.Features))
	for i, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case nil:
		case orb.Polygon, orb.MultiPolygon:
			geometry[i] = geojson.NewGeometry(g)
		default:
			return nil, fmt.Errorf("%w: feature %d has %s geometry, want Polygon or MultiPolygon",
				constants.ErrInvalidResponse, i, f.Geometry.GeoJSONType())
		}
	}

	headers := propertyHeaders(fc.Features, vectors)
	rows := make([][]string, len(fc.Features))
	for i, f := range fc.Features {
		row := make([]string, len(headers))
		for j, h := range headers {
			row[j] = propertyString(f.Properties[h])
		}
		rows[i] = row
	}

	t := buildTable(headers, rows, vectors, labels)
	if len(fc.Features) > 0 && t.Column(domain.ColGeoUID) == nil {
		return nil, fmt.Errorf("%w: features carry no GeoUID property", constants.ErrInvalidResponse)
	}
	if t.Column(domain.ColGeoUID) == nil {
		t.Columns = append([]*domain.Column{{Name: domain.ColGeoUID, Type: domain.ColumnText, Strings: []string{}}}, t.Columns...)
	}
	t.Geometry = geometry
	t.CRS = constants.CRSGeographic

	return t, nil
}

// propertyHeaders collects the raw property keys of all features in a stable
// order: known metadata first, then other keys, then vectors in request
// order, then any remaining vectors.
func propertyHeaders(features []*geojson.Feature, vectors []string) []string {
	keys := map[string]struct{}{}
	for _, f := range features {
		for k := range f.Properties {
			keys[k] = struct{}{}
		}
	}

	var headers []string
	take := func(k string) {
		if _, ok := keys[k]; ok {
			headers = append(headers, k)
			delete(keys, k)
		}
	}

	for _, want := range leadingColumns {
		for k := range keys {
			if canonicalName(k) == want {
				take(k)
				break
			}
		}
	}

	var plain, vectorKeys []string
	for k := range keys {
		if _, _, ok := domain.VectorCode(k); ok {
			vectorKeys = append(vectorKeys, k)
		} else {
			plain = append(plain, k)
		}
	}
	sort.Strings(plain)
	sort.Strings(vectorKeys)
	headers = append(headers, plain...)

	for _, code := range vectors {
		for _, k := range vectorKeys {
			if c, _, _ := domain.VectorCode(k); c == code {
				take(k)
			}
		}
	}
	for _, k := range vectorKeys {
		take(k)
	}

	return headers
}

func propertyString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
