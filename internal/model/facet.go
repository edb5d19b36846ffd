package model

// FacetKind tags a facet value with the filter dimension it belongs to.
type FacetKind string

const (
	FacetRepository   FacetKind = "repository"
	FacetSourceBranch FacetKind = "source"
	FacetTargetBranch FacetKind = "target"
	FacetAuthor       FacetKind = "author"
	FacetReviewer     FacetKind = "reviewer"
)

// FacetKinds lists the facet dimensions in display order.
var FacetKinds = []FacetKind{
	FacetRepository,
	FacetSourceBranch,
	FacetTargetBranch,
	FacetAuthor,
	FacetReviewer,
}

// FacetValue is one selectable value of a filter facet.
// Key is the identity used for matching: an id for repositories and people,
// the display name for branches.
type FacetValue struct {
	Kind  FacetKind
	Key   string
	Label string
}
