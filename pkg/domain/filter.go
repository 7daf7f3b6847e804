package domain

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// SortOrder selects project list ordering.
type SortOrder string

// Supported project orderings.
const (
	SortNameAsc  SortOrder = "name_asc"
	SortNameDesc SortOrder = "name_desc"
)

// FoldName case-folds a name for uniqueness and substring comparisons.
func FoldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// SameName reports whether two project names collide.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}

// ProjectFilter narrows and orders project listings. Zero values match everything.
type ProjectFilter struct {
	Name         string    `json:"name,omitempty"`
	Neighborhood string    `json:"neighborhood,omitempty"`
	FlatType     FlatType  `json:"flat_type,omitempty"`
	VisibleOnly  bool      `json:"visible_only,omitempty"`
	Sort         SortOrder `json:"sort,omitempty"`
}

// Matches reports whether the project satisfies every populated criterion.
func (f ProjectFilter) Matches(p Project) bool {
	if f.VisibleOnly && !p.Visible {
		return false
	}
	if f.Name != "" && !strings.Contains(FoldName(p.Name), FoldName(f.Name)) {
		return false
	}
	if f.Neighborhood != "" && !strings.Contains(FoldName(p.Neighborhood), FoldName(f.Neighborhood)) {
		return false
	}
	if f.FlatType != "" && !p.Offers(f.FlatType) {
		return false
	}
	return true
}

// Apply filters and sorts projects, returning a new slice.
func (f ProjectFilter) Apply(projects []Project) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	desc := f.Sort == SortNameDesc
	sort.SliceStable(out, func(i, j int) bool {
		a, b := FoldName(out[i].Name), FoldName(out[j].Name)
		if desc {
			return a > b
		}
		return a < b
	})
	return out
}
