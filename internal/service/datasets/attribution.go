package datasets

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

const yearPlaceholder = "{year}"

type attributionGroup struct {
	template string
	years    []int
	text     string
}

// Attribution returns the attribution strings for the given datasets.
// Releases of one program whose text differs only by year are merged into a
// single string listing the years.
func (s *Service) Attribution(ctx context.Context, codes []string) ([]string, error) {
	catalog, err := s.ListDatasets(ctx, domain.FetchOptions{Quiet: true})
	if err != nil {
		return nil, err
	}
	return MergeAttribution(catalog, codes, s.lineage)
}

// MergeAttribution is Attribution over an already fetched catalog.
func MergeAttribution(catalog []domain.DatasetInfo, codes []string, lineage map[string]string) ([]string, error) {
	byCode := make(map[string]domain.DatasetInfo, len(catalog))
	for _, d := range catalog {
		byCode[strings.ToUpper(strings.TrimSpace(d.Dataset))] = d
	}

	var groups []*attributionGroup
	index := map[string]*attributionGroup{}
	seen := map[string]struct{}{}

	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		ds, ok := byCode[code]
		if !ok {
			continue
		}

		text := strings.TrimSpace(ds.Attribution)
		if text == "" {
			text = fallbackAttribution(code)
		}

		program, known := lineage[prefixOf(code)]
		loc := yearRe.FindStringIndex(text)
		if !known || loc == nil {
			groups = append(groups, &attributionGroup{text: text})
			continue
		}

		// every year is templated, the first one is the release year
		year, _ := strconv.Atoi(text[loc[0]:loc[1]])
		template := yearRe.ReplaceAllLiteralString(text, yearPlaceholder)
		key := program + "\x00" + template
		g, ok := index[key]
		if !ok {
			g = &attributionGroup{template: template}
			index[key] = g
			groups = append(groups, g)
		}
		g.years = append(g.years, year)
	}

	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: %s", constants.ErrUnknownDataset, strings.Join(codes, ", "))
	}

	out := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.template == "" {
			out = append(out, g.text)
			continue
		}
		out = append(out, strings.ReplaceAll(g.template, yearPlaceholder, joinYears(g.years)))
	}
	return out, nil
}

func joinYears(years []int) string {
	sort.Ints(years)
	parts := make([]string, 0, len(years))
	for i, y := range years {
		if i > 0 && y == years[i-1] {
			continue
		}
		parts = append(parts, strconv.Itoa(y))
	}
	return strings.Join(parts, ", ")
}

func prefixOf(code string) string {
	if len(code) < 2 {
		return code
	}
	return code[:2]
}

// fallbackAttribution derives "Statistics Canada <year> Census" from a code
// such as CA16. Two-digit years from 50 up are in the 1900s.
func fallbackAttribution(code string) string {
	digits := strings.TrimLeft(code, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	year, err := strconv.Atoi(digits)
	if err != nil {
		return "Statistics Canada Census"
	}
	if len(digits) == 2 {
		if year >= 50 {
			year += 1900
		} else {
			year += 2000
		}
	}
	return fmt.Sprintf("Statistics Canada %d Census", year)
}
