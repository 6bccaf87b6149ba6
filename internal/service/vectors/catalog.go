package vectors

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

// catalogColumns maps vector_info headers, lower-cased, to Vector fields.
var catalogColumns = map[string]string{
	"vector":        "vector",
	"type":          "type",
	"label":         "label",
	"units":         "units",
	"parent":        "parent_vector",
	"parent_vector": "parent_vector",
	"add":           "aggregation",
	"aggregation":   "aggregation",
	"details":       "details",
}

// ParseCatalog reads a vector_info CSV body in row order.
func ParseCatalog(body []byte) ([]domain.Vector, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, []byte{0xEF, 0xBB, 0xBF})))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty vector catalog", constants.ErrInvalidResponse)
		}
		return nil, fmt.Errorf("%w: read vector catalog: %s", constants.ErrInvalidResponse, err.Error())
	}

	idx := map[string]int{}
	for i, h := range header {
		if field, ok := catalogColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := idx[field]; !dup {
				idx[field] = i
			}
		}
	}
	if _, ok := idx["vector"]; !ok {
		return nil, fmt.Errorf("%w: vector catalog has no vector column", constants.ErrInvalidResponse)
	}

	get := func(rec []string, field string) string {
		i, ok := idx[field]
		if !ok || i >= len(rec) {
			return ""
		}
		v := strings.TrimSpace(rec[i])
		if v == "NA" {
			return ""
		}
		return v
	}

	vectors := []domain.Vector{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read vector catalog: %s", constants.ErrInvalidResponse, err.Error())
		}

		v := domain.Vector{
			Vector:       get(rec, "vector"),
			Type:         get(rec, "type"),
			Label:        get(rec, "label"),
			Units:        get(rec, "units"),
			ParentVector: get(rec, "parent_vector"),
			Aggregation:  get(rec, "aggregation"),
			Details:      get(rec, "details"),
		}
		if v.Vector == "" {
			continue
		}
		vectors = append(vectors, v)
	}

	return vectors, nil
}

// DatasetOf derives the dataset from a vector code, v_CA16_408 -> CA16.
func DatasetOf(code string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(code), "_", 3)
	if len(parts) != 3 || parts[0] != "v" || parts[1] == "" {
		return "", false
	}
	return strings.ToUpper(parts[1]), true
}
