package hub

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cribeiro84/prhub/internal/model"
)

// Filter holds the active filter criteria. Each non-empty set matches rows
// carrying any of its values; all non-empty criteria must match.
type Filter struct {
	// Query matches titles case-insensitively; /pattern/ is a regular expression.
	Query          string
	Repositories   map[string]bool
	SourceBranches map[string]bool
	TargetBranches map[string]bool
	Authors        map[string]bool
	Reviewers      map[string]bool
	MyVotes        map[model.Vote]bool
	Draft          map[bool]bool
}

// Clone copies the filter and its sets for safe editing.
func (f Filter) Clone() Filter {
	clone := f
	clone.Repositories = copySet(f.Repositories)
	clone.SourceBranches = copySet(f.SourceBranches)
	clone.TargetBranches = copySet(f.TargetBranches)
	clone.Authors = copySet(f.Authors)
	clone.Reviewers = copySet(f.Reviewers)
	clone.MyVotes = copySet(f.MyVotes)
	clone.Draft = copySet(f.Draft)
	return clone
}

// IsDefault reports whether the filter imposes no constraint.
func (f Filter) IsDefault() bool {
	return strings.TrimSpace(f.Query) == "" &&
		len(f.Repositories) == 0 &&
		len(f.SourceBranches) == 0 &&
		len(f.TargetBranches) == 0 &&
		len(f.Authors) == 0 &&
		len(f.Reviewers) == 0 &&
		len(f.MyVotes) == 0 &&
		len(f.Draft) == 0
}

// Set returns the key set for a facet kind, creating it when needed.
func (f *Filter) Set(kind model.FacetKind) map[string]bool {
	ptr := f.setPtr(kind)
	if ptr == nil {
		return nil
	}
	if *ptr == nil {
		*ptr = make(map[string]bool)
	}
	return *ptr
}

// Toggle adds key to the facet's set, or removes it when already present.
func (f *Filter) Toggle(kind model.FacetKind, key string) {
	set := f.Set(kind)
	if set == nil {
		return
	}
	if set[key] {
		delete(set, key)
	} else {
		set[key] = true
	}
}

func (f *Filter) setPtr(kind model.FacetKind) *map[string]bool {
	switch kind {
	case model.FacetRepository:
		return &f.Repositories
	case model.FacetSourceBranch:
		return &f.SourceBranches
	case model.FacetTargetBranch:
		return &f.TargetBranches
	case model.FacetAuthor:
		return &f.Authors
	case model.FacetReviewer:
		return &f.Reviewers
	default:
		return nil
	}
}

// ValidateQuery reports a malformed /regex/ query.
func ValidateQuery(raw string) error {
	_, _, err := compileQuery(raw)
	return err
}

func compileQuery(raw string) (*regexp.Regexp, bool, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false, nil
	}
	if strings.HasPrefix(trimmed, "/") && strings.HasSuffix(trimmed, "/") && len(trimmed) > 2 {
		pattern := trimmed[1 : len(trimmed)-1]
		if strings.TrimSpace(pattern) == "" {
			return nil, true, fmt.Errorf("regex pattern is empty")
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, true, err
		}
		return re, true, nil
	}
	return nil, false, nil
}

// Apply returns the rows matching every non-empty criterion. me is the
// current user's id, used for the my-vote criterion; a pull request the user
// does not review counts as NoVote. The result never aliases rows, so
// callers may sort it in place.
func (f Filter) Apply(rows []Row, me string) []Row {
	if f.IsDefault() {
		return append(make([]Row, 0, len(rows)), rows...)
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	re, isRegex, err := compileQuery(f.Query)
	if err != nil {
		// An unfinished pattern falls back to a plain substring match.
		re, isRegex = nil, false
	}

	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		if query != "" {
			if isRegex {
				if !re.MatchString(row.Title) {
					continue
				}
			} else if !strings.Contains(strings.ToLower(row.Title), query) {
				continue
			}
		}
		if len(f.Repositories) > 0 && !f.Repositories[row.Repository.ID] {
			continue
		}
		if len(f.SourceBranches) > 0 && !f.SourceBranches[row.SourceBranch] {
			continue
		}
		if len(f.TargetBranches) > 0 && !f.TargetBranches[row.TargetBranch] {
			continue
		}
		if len(f.Authors) > 0 && !f.Authors[row.Author.ID] {
			continue
		}
		if len(f.Reviewers) > 0 && !anyReviewer(row, f.Reviewers) {
			continue
		}
		if len(f.MyVotes) > 0 {
			vote, _ := row.VoteOf(me)
			if !f.MyVotes[vote] {
				continue
			}
		}
		if len(f.Draft) > 0 && !f.Draft[row.IsDraft] {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

func anyReviewer(row Row, ids map[string]bool) bool {
	for _, r := range row.Reviewers {
		if ids[r.ID] {
			return true
		}
	}
	return false
}

// Summary returns a human-readable summary of the filter state.
func (f Filter) Summary() string {
	var parts []string
	if q := strings.TrimSpace(f.Query); q != "" {
		parts = append(parts, fmt.Sprintf("title=%s", q))
	}
	add := func(name string, set map[string]bool) {
		if len(set) > 0 {
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(sortedKeys(set), ",")))
		}
	}
	add("repo", f.Repositories)
	add("source", f.SourceBranches)
	add("target", f.TargetBranches)
	add("author", f.Authors)
	add("reviewer", f.Reviewers)
	if len(f.MyVotes) > 0 {
		var votes []string
		for _, v := range model.AllVotes {
			if f.MyVotes[v] {
				votes = append(votes, v.Short())
			}
		}
		parts = append(parts, fmt.Sprintf("myvote=%s", strings.Join(votes, ",")))
	}
	if len(f.Draft) > 0 {
		var drafts []string
		for _, d := range []bool{true, false} {
			if f.Draft[d] {
				drafts = append(drafts, strconv.FormatBool(d))
			}
		}
		parts = append(parts, fmt.Sprintf("draft=%s", strings.Join(drafts, ",")))
	}

	if len(parts) == 0 {
		return "filter: all"
	}
	return "filter: " + strings.Join(parts, " ")
}

func copySet[K comparable](in map[K]bool) map[K]bool {
	if in == nil {
		return nil
	}
	out := make(map[K]bool, len(in))
	for k, v := range in {
		if v {
			out[k] = true
		}
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k, v := range set {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
