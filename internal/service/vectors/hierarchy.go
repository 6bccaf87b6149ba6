package vectors

import (
	"fmt"
	"strings"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

// Hierarchy indexes one dataset's vector catalog by code and by parent.
// It is immutable once built.
type Hierarchy struct {
	vectors  []domain.Vector
	byCode   map[string]int
	children map[string][]int
}

func NewHierarchy(vectors []domain.Vector) *Hierarchy {
	h := &Hierarchy{
		vectors:  vectors,
		byCode:   make(map[string]int, len(vectors)),
		children: make(map[string][]int),
	}
	for i, v := range vectors {
		if _, dup := h.byCode[v.Vector]; !dup {
			h.byCode[v.Vector] = i
		}
	}
	for i, v := range vectors {
		if v.ParentVector == "" || v.ParentVector == v.Vector {
			continue
		}
		h.children[v.ParentVector] = append(h.children[v.ParentVector], i)
	}
	return h
}

func (h *Hierarchy) Len() int { return len(h.vectors) }

func (h *Hierarchy) Vectors() []domain.Vector { return h.vectors }

func (h *Hierarchy) Lookup(code string) (domain.Vector, bool) {
	i, ok := h.byCode[strings.TrimSpace(code)]
	if !ok {
		return domain.Vector{}, false
	}
	return h.vectors[i], true
}

func (h *Hierarchy) lookup(code string) (domain.Vector, error) {
	v, ok := h.Lookup(code)
	if !ok {
		return domain.Vector{}, fmt.Errorf("%w: %s", constants.ErrUnknownVector, code)
	}
	return v, nil
}

// Parent returns the direct parent of code, or an empty slice for a root.
func (h *Hierarchy) Parent(code string) ([]domain.Vector, error) {
	v, err := h.lookup(code)
	if err != nil {
		return nil, err
	}
	if v.IsRoot() {
		return []domain.Vector{}, nil
	}
	parent, ok := h.Lookup(v.ParentVector)
	if !ok {
		return []domain.Vector{}, nil
	}
	return []domain.Vector{parent}, nil
}

// Children returns the direct children of code in catalog order.
func (h *Hierarchy) Children(code string) ([]domain.Vector, error) {
	v, err := h.lookup(code)
	if err != nil {
		return nil, err
	}
	idx := h.children[v.Vector]
	out := make([]domain.Vector, 0, len(idx))
	for _, i := range idx {
		out = append(out, h.vectors[i])
	}
	return out, nil
}

// Ancestors walks parents up to the root, nearest first.
func (h *Hierarchy) Ancestors(code string) ([]domain.Vector, error) {
	v, err := h.lookup(code)
	if err != nil {
		return nil, err
	}

	out := []domain.Vector{}
	seen := map[string]struct{}{v.Vector: {}}
	for !v.IsRoot() {
		parent, ok := h.Lookup(v.ParentVector)
		if !ok {
			break
		}
		if _, loop := seen[parent.Vector]; loop {
			break
		}
		seen[parent.Vector] = struct{}{}
		out = append(out, parent)
		v = parent
	}
	return out, nil
}

type DescendantOptions struct {
	// LeavesOnly keeps only vectors without children.
	LeavesOnly bool
	// MaxDepth limits the walk, 1 being direct children. 0 is unlimited.
	MaxDepth int
	// KeepParent includes the starting vector first.
	KeepParent bool
}

// Descendants returns the subtree below code in depth-first catalog order.
func (h *Hierarchy) Descendants(code string, opts DescendantOptions) ([]domain.Vector, error) {
	root, err := h.lookup(code)
	if err != nil {
		return nil, err
	}

	out := []domain.Vector{}
	if opts.KeepParent && (!opts.LeavesOnly || len(h.children[root.Vector]) == 0) {
		out = append(out, root)
	}

	seen := map[string]struct{}{root.Vector: {}}
	var walk func(code string, depth int)
	walk = func(code string, depth int) {
		if opts.MaxDepth > 0 && depth > opts.MaxDepth {
			return
		}
		for _, i := range h.children[code] {
			child := h.vectors[i]
			if _, loop := seen[child.Vector]; loop {
				continue
			}
			seen[child.Vector] = struct{}{}

			leaf := len(h.children[child.Vector]) == 0
			if !opts.LeavesOnly || leaf {
				out = append(out, child)
			}
			walk(child.Vector, depth+1)
		}
	}
	walk(root.Vector, 1)

	return out, nil
}

type SearchFilter struct {
	Term  string
	Type  string
	Units string
}

// Search matches term against label and details, case-insensitively, and
// filters type and units exactly (ignoring case). Empty fields match all.
func (h *Hierarchy) Search(f SearchFilter) []domain.Vector {
	term := strings.ToLower(strings.TrimSpace(f.Term))
	out := []domain.Vector{}
	for _, v := range h.vectors {
		if f.Type != "" && !strings.EqualFold(v.Type, strings.TrimSpace(f.Type)) {
			continue
		}
		if f.Units != "" && !strings.EqualFold(v.Units, strings.TrimSpace(f.Units)) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(v.Label), term) &&
			!strings.Contains(strings.ToLower(v.Details), term) &&
			!strings.EqualFold(v.Vector, term) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Find returns vectors whose label and details contain every word of query.
func (h *Hierarchy) Find(query string) []domain.Vector {
	words := strings.Fields(strings.ToLower(query))
	out := []domain.Vector{}
	if len(words) == 0 {
		return out
	}
	for _, v := range h.vectors {
		text := strings.ToLower(v.Label + " " + v.Details)
		match := true
		for _, w := range words {
			if !strings.Contains(text, w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, v)
		}
	}
	return out
}
