package census

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NormalizeCSV parses a data.csv body into a table.
func NormalizeCSV(body []byte, vectors []string, labels domain.Labels) (*domain.Table, error) {
	headers, rows, err := readCSV(body)
	if err != nil {
		return nil, err
	}

	t := buildTable(headers, rows, vectors, labels)
	if t.Column(domain.ColGeoUID) == nil {
		return nil, fmt.Errorf("%w: no GeoUID column in CSV response", constants.ErrInvalidResponse)
	}
	return t, nil
}

func readCSV(body []byte) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: empty CSV response", constants.ErrInvalidResponse)
		}
		return nil, nil, fmt.Errorf("%w: read CSV header: %s", constants.ErrInvalidResponse, err.Error())
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: read CSV row: %s", constants.ErrInvalidResponse, err.Error())
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		rows = append(rows, rec)
	}

	return headers, rows, nil
}
