package census

import (
	"strings"

	"github.com/ougirez/cancensus/internal/domain"
)

// ApplyVectorLabels fills vector label text from the catalog into t. With
// detailed labels, columns named by a bare code become "code: label". With
// short labels, every vector column gets a VectorLabel carrying the label.
// Labels already present are kept.
func ApplyVectorLabels(t *domain.Table, catalog []domain.Vector, labels domain.Labels) {
	details := make(map[string]string, len(catalog))
	for _, v := range catalog {
		text := strings.TrimSpace(v.Label)
		if text == "" {
			text = strings.TrimSpace(v.Details)
		}
		details[v.Vector] = text
	}

	index := make(map[string]int, len(t.VectorLabels))
	for i, l := range t.VectorLabels {
		index[l.Vector] = i
	}

	for _, col := range t.Columns {
		if col.Vector == "" {
			continue
		}
		detail := details[col.Vector]

		if labels != domain.LabelsShort {
			if detail != "" && col.Name == col.Vector {
				col.Name = col.Vector + ": " + detail
			}
			continue
		}

		i, ok := index[col.Vector]
		if !ok {
			index[col.Vector] = len(t.VectorLabels)
			t.VectorLabels = append(t.VectorLabels, domain.VectorLabel{Vector: col.Vector, Detail: detail})
			continue
		}
		if t.VectorLabels[i].Detail == "" {
			t.VectorLabels[i].Detail = detail
		}
	}
}
