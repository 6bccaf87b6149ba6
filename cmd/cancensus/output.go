package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/gosuri/uitable"

	"github.com/ougirez/cancensus/internal/domain"
)

const maxColWidth = 80

func newTable() *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = maxColWidth
	table.Wrap = true
	return table
}

func (a *app) printJSON(v any) error {
	enc := sonic.ConfigDefault.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRows renders header and rows as an aligned table, JSON records or
// CSV, depending on --output. v is what the JSON form encodes.
func (a *app) printRows(v any, header []string, rows [][]string) error {
	switch a.output {
	case "json":
		return a.printJSON(v)
	case "csv":
		return writeCSV(a.out, header, rows)
	}

	table := newTable()
	table.AddRow(toCells(header)...)
	for _, row := range rows {
		table.AddRow(toCells(row)...)
	}
	_, err := fmt.Fprintln(a.out, table)
	return err
}

func toCells(row []string) []any {
	cells := make([]any, len(row))
	for i, c := range row {
		cells[i] = c
	}
	return cells
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func (a *app) printCensus(t *domain.Table) error {
	if a.output == "json" {
		return a.printJSON(t)
	}

	rows := make([][]string, t.Rows())
	for i := range rows {
		rows[i] = t.Row(i)
	}
	if err := a.printRows(t, t.ColumnNames(), rows); err != nil {
		return err
	}

	if a.output == "table" && len(t.VectorLabels) > 0 {
		labels := newTable()
		labels.AddRow("VECTOR", "DETAIL")
		for _, l := range t.VectorLabels {
			labels.AddRow(l.Vector, l.Detail)
		}
		_, err := fmt.Fprintf(a.out, "\n%s\n", labels)
		return err
	}
	return nil
}

func (a *app) printVectors(vectors []domain.Vector) error {
	rows := make([][]string, len(vectors))
	for i, v := range vectors {
		rows[i] = []string{v.Vector, v.Type, v.Label, v.Units, v.ParentVector, v.Aggregation, v.Details}
	}
	return a.printRows(vectors, []string{"VECTOR", "TYPE", "LABEL", "UNITS", "PARENT", "AGGREGATION", "DETAILS"}, rows)
}

func (a *app) printRegions(regions []domain.RegionInfo) error {
	rows := make([][]string, len(regions))
	for i, r := range regions {
		pop := ""
		if r.Pop.Valid {
			pop = humanize.Comma(r.Pop.Decimal.IntPart())
		}
		rows[i] = []string{r.Region, r.Name, string(r.Level), pop, r.MunicipalStatus, r.PRUID, r.CMAUID, r.CDUID}
	}
	return a.printRows(regions, []string{"REGION", "NAME", "LEVEL", "POPULATION", "STATUS", "PR", "CMA", "CD"}, rows)
}

func (a *app) printCacheEntries(entries []domain.CacheEntry, now time.Time) error {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.Key,
			humanize.Bytes(uint64(e.SizeBytes)),
			humanize.RelTime(e.ModTime, now, "ago", "from now"),
			describeRequest(e.Request),
		}
	}
	return a.printRows(entries, []string{"KEY", "SIZE", "MODIFIED", "REQUEST"}, rows)
}

func describeRequest(m domain.CacheMeta) string {
	parts := []string{m.Kind}
	if m.Dataset != "" {
		parts = append(parts, m.Dataset)
	}
	if m.Level != "" {
		parts = append(parts, string(m.Level))
	}
	if n := len(m.Vectors); n > 0 {
		parts = append(parts, english.Plural(n, "vector", "vectors"))
	}
	if m.GeoFormat != "" {
		parts = append(parts, string(m.GeoFormat))
	}
	return strings.Join(parts, " ")
}
