package census

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/validation"
)

// Params is a validated, canonical retrieval request.
type Params struct {
	Dataset    string                    `validate:"required,dataset"`
	Level      domain.Level              `validate:"required,level"`
	Regions    map[domain.Level][]string `validate:"required,min=1,dive,keys,region_level,endkeys,min=1,dive,required"`
	Vectors    []string                  `validate:"dive,vector"`
	GeoFormat  domain.GeoFormat          `validate:"omitempty,oneof=geojson"`
	Labels     domain.Labels             `validate:"oneof=detailed short"`
	Resolution domain.Resolution         `validate:"oneof=simplified high"`

	NoCache bool
	Quiet   bool
}

func (p Params) IsSpatial() bool {
	return p.GeoFormat == domain.GeoFormatGeoJSON
}

// NormalizeParams canonicalises req and validates it. It never does I/O.
func NormalizeParams(req domain.CensusRequest) (Params, error) {
	p := Params{
		Dataset: strings.ToUpper(strings.TrimSpace(req.Dataset)),
		NoCache: req.NoCache,
		Quiet:   req.Quiet,
	}

	p.Level = domain.LevelRegions
	if raw := strings.TrimSpace(req.Level); raw != "" {
		if l, ok := domain.ParseLevel(raw); ok {
			p.Level = l
		} else {
			p.Level = domain.Level(raw)
		}
	}

	p.Regions = normalizeRegions(req.Regions)
	p.Vectors = normalizeVectors(req.Vectors)

	if gf, ok := domain.ParseGeoFormat(req.GeoFormat); ok {
		p.GeoFormat = gf
	} else {
		p.GeoFormat = domain.GeoFormat(strings.ToLower(strings.TrimSpace(req.GeoFormat)))
	}

	p.Labels = domain.Labels(strings.ToLower(strings.TrimSpace(req.Labels)))
	if p.Labels == "" {
		p.Labels = domain.LabelsDetailed
	}
	p.Resolution = domain.Resolution(strings.ToLower(strings.TrimSpace(req.Resolution)))
	if p.Resolution == "" {
		p.Resolution = domain.ResolutionSimplified
	}

	if err := validation.Struct(p); err != nil {
		return Params{}, mapValidationError(err, p)
	}

	return p, nil
}

// normalizeRegions canonicalises level keys and trims IDs. Keys that do not
// parse are kept as given so validation can report them.
func normalizeRegions(in domain.RegionSelector) map[domain.Level][]string {
	if len(in) == 0 {
		return nil
	}

	out := make(map[domain.Level][]string, len(in))
	for rawLevel, ids := range in {
		level := domain.Level(strings.TrimSpace(string(rawLevel)))
		if l, ok := domain.ParseLevel(string(level)); ok {
			level = l
		}

		list := out[level]
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				list = append(list, id)
			}
		}
		if list == nil {
			list = []string{}
		}
		out[level] = list
	}
	return out
}

// normalizeVectors trims codes and drops duplicates, keeping first occurrence.
func normalizeVectors(in []string) []string {
	if len(in) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func mapValidationError(err error, p Params) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %s", constants.ErrInvalidParameter, err.Error())
	}

	fe := verrs[0]
	field := fe.StructField()
	switch {
	case field == "Dataset":
		return fmt.Errorf("%w: %q is not a census dataset identifier such as CA21", constants.ErrInvalidDataset, p.Dataset)
	case field == "Level":
		return fmt.Errorf("%w: %q, expected one of %s", constants.ErrInvalidLevel, p.Level, levelList())
	case strings.HasPrefix(field, "Regions"):
		switch fe.Tag() {
		case "required", "min":
			if field == "Regions" {
				return fmt.Errorf("%w: at least one region must be selected", constants.ErrInvalidRegions)
			}
			return fmt.Errorf("%w: no region ids given for %s", constants.ErrInvalidRegions, strings.TrimPrefix(field, "Regions"))
		case "region_level":
			return fmt.Errorf("%w: %q is not a region level", constants.ErrInvalidRegions, fe.Value())
		}
		return fmt.Errorf("%w: %s", constants.ErrInvalidRegions, fe.Error())
	case strings.HasPrefix(field, "Vectors"):
		return fmt.Errorf("%w: %q is not a vector code such as v_CA21_1", constants.ErrInvalidParameter, fe.Value())
	case field == "GeoFormat":
		return fmt.Errorf("%w: geo format %q", constants.ErrInvalidParameter, p.GeoFormat)
	case field == "Labels":
		return fmt.Errorf("%w: labels must be detailed or short, got %q", constants.ErrInvalidParameter, p.Labels)
	case field == "Resolution":
		return fmt.Errorf("%w: resolution must be simplified or high, got %q", constants.ErrInvalidParameter, p.Resolution)
	}
	return fmt.Errorf("%w: %s", constants.ErrInvalidParameter, fe.Error())
}

func levelList() string {
	names := make([]string, len(domain.Levels))
	for i, l := range domain.Levels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
