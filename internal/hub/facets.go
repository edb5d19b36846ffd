package hub

import (
	"sort"
	"strings"

	"github.com/cribeiro84/prhub/internal/model"
)

// Facets holds the distinct values offered by each filter dimension.
type Facets struct {
	values map[model.FacetKind][]model.FacetValue
}

// BuildFacets scans rows and collects the distinct values per facet kind:
// repositories and people by id, branches by display name.
func BuildFacets(rows []Row) Facets {
	seen := make(map[model.FacetKind]map[string]bool, len(model.FacetKinds))
	f := Facets{values: make(map[model.FacetKind][]model.FacetValue, len(model.FacetKinds))}
	add := func(kind model.FacetKind, key, label string) {
		if key == "" {
			return
		}
		if seen[kind] == nil {
			seen[kind] = make(map[string]bool)
		}
		if seen[kind][key] {
			return
		}
		seen[kind][key] = true
		if label == "" {
			label = key
		}
		f.values[kind] = append(f.values[kind], model.FacetValue{Kind: kind, Key: key, Label: label})
	}

	for _, row := range rows {
		add(model.FacetRepository, row.Repository.ID, row.Repository.Name)
		add(model.FacetSourceBranch, row.SourceBranch, row.SourceBranch)
		add(model.FacetTargetBranch, row.TargetBranch, row.TargetBranch)
		add(model.FacetAuthor, row.Author.ID, row.Author.DisplayName)
		for _, r := range row.Reviewers {
			add(model.FacetReviewer, r.ID, r.DisplayName)
		}
	}

	for kind, values := range f.values {
		sort.SliceStable(values, func(i, j int) bool {
			a, b := strings.ToLower(values[i].Label), strings.ToLower(values[j].Label)
			if a != b {
				return a < b
			}
			return values[i].Key < values[j].Key
		})
		f.values[kind] = values
	}
	return f
}

// Values returns the values of one facet kind, sorted by label.
func (f Facets) Values(kind model.FacetKind) []model.FacetValue {
	return f.values[kind]
}

// Resolve finds the key of a facet value given either its key or its label,
// compared case-insensitively.
func (f Facets) Resolve(kind model.FacetKind, value string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, v := range f.values[kind] {
		if v.Key == value {
			return v.Key, true
		}
	}
	for _, v := range f.values[kind] {
		if strings.EqualFold(v.Label, value) || strings.EqualFold(v.Key, value) {
			return v.Key, true
		}
	}
	return "", false
}

// Label returns the display label of a facet key, or the key itself.
func (f Facets) Label(kind model.FacetKind, key string) string {
	for _, v := range f.values[kind] {
		if v.Key == key {
			return v.Label
		}
	}
	return key
}
