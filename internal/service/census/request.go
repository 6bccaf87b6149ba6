package census

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/censusmapper"
)

const (
	EndpointData = "data.csv"
	EndpointGeo  = "geo.geojson"
)

// wireJSON sorts object keys so identical selections encode identically.
var wireJSON = sonic.ConfigStd

// Request is the wire form of a retrieval, minus the API key which the
// transport appends.
type Request struct {
	Endpoint string
	Fields   []censusmapper.Field
}

func (r Request) Field(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// BuildRequest maps normalized params onto the CensusMapper form fields.
// Region values are always arrays of strings, whatever shape the caller used.
func BuildRequest(p Params) (Request, error) {
	regions := make(map[string][]string, len(p.Regions))
	for level, ids := range p.Regions {
		regions[string(level)] = append([]string{}, ids...)
	}
	regionsJSON, err := wireJSON.MarshalToString(regions)
	if err != nil {
		return Request{}, fmt.Errorf("marshal regions: %w", err)
	}

	req := Request{Endpoint: EndpointData}
	if p.IsSpatial() {
		req.Endpoint = EndpointGeo
	}

	req.Fields = []censusmapper.Field{
		{Name: "dataset", Value: p.Dataset},
		{Name: "level", Value: string(p.Level)},
		{Name: "regions", Value: regionsJSON},
		{Name: "geo_hierarchy", Value: "true"},
	}

	if len(p.Vectors) > 0 {
		vectorsJSON, err := wireJSON.MarshalToString(p.Vectors)
		if err != nil {
			return Request{}, fmt.Errorf("marshal vectors: %w", err)
		}
		req.Fields = append(req.Fields, censusmapper.Field{Name: "vectors", Value: vectorsJSON})
	}

	if p.IsSpatial() && p.Resolution == domain.ResolutionHigh {
		req.Fields = append(req.Fields, censusmapper.Field{Name: "resolution", Value: string(domain.ResolutionHigh)})
	}

	return req, nil
}
