// Package hub turns pull request list results into view models, loads their
// review metadata concurrently, and filters and sorts the resulting rows.
package hub

import (
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cribeiro84/prhub/internal/model"
)

// Links are the web URLs of a pull request and its branches.
type Links struct {
	PullRequest  string
	Repository   string
	SourceBranch string
	TargetBranch string
}

// BuildLinks derives the web URLs for pr from the organization base URL.
func BuildLinks(baseURL string, pr model.PullRequest) Links {
	repoURL := baseURL + "/" + url.PathEscape(pr.Repository.Project.Name) + "/_git/" + url.PathEscape(pr.Repository.Name)
	return Links{
		PullRequest:  repoURL + "/pullrequest/" + strconv.Itoa(pr.ID),
		Repository:   repoURL,
		SourceBranch: branchURL(repoURL, model.BranchName(pr.SourceRefName)),
		TargetBranch: branchURL(repoURL, model.BranchName(pr.TargetRefName)),
	}
}

func branchURL(repoURL, branch string) string {
	return repoURL + "?version=GB" + url.QueryEscape(branch)
}

// Row is an immutable snapshot of a View.
type Row struct {
	Index int

	ID           int
	Title        string
	IsDraft      bool
	State        model.PullRequestState
	MergeStatus  model.MergeStatus
	Repository   model.Repository
	Author       model.Identity
	SourceBranch string
	TargetBranch string
	CreatedAt    time.Time
	ClosedAt     time.Time
	Reviewers    []model.Reviewer
	Links        Links

	Status  model.Status
	Loading bool

	AutoComplete       bool
	LastCommitID       string
	LastCommitAt       time.Time
	TotalComments      int
	TerminatedComments int
	LastCommentAt      time.Time
	WorkItems          int
	Labels             []string
	Policies           []model.Policy
	LastVisit          time.Time
	HasNewChanges      bool
}

// VoteOf returns the vote of the reviewer with the given id.
func (r Row) VoteOf(userID string) (model.Vote, bool) {
	for _, rv := range r.Reviewers {
		if rv.ID == userID {
			return rv.Vote, true
		}
	}
	return model.VoteNone, false
}

// ShortCommit returns the first eight characters of the last commit id.
func (r Row) ShortCommit() string {
	if len(r.LastCommitID) > 8 {
		return r.LastCommitID[:8]
	}
	return r.LastCommitID
}

// View is the live view model of one pull request. Detail fetches update it
// concurrently; every mutation recomputes the aggregate status.
type View struct {
	mu sync.Mutex

	pr       model.PullRequest
	links    Links
	me       string
	required []model.Reviewer

	status  model.Status
	loading bool

	details      model.Details
	threads      commentSummary
	workItems    int
	labels       []string
	policies     []model.Policy
	policiesDone bool
	lastVisit    time.Time
	visitKnown   bool

	onStatus func(Row)
}

// NewView builds a view for pr. me is the id of the current user, whose own
// comments never count as new activity.
func NewView(pr model.PullRequest, baseURL, me string) *View {
	v := &View{
		pr:      pr,
		links:   BuildLinks(baseURL, pr),
		me:      me,
		loading: true,
	}
	for _, r := range pr.Reviewers {
		if r.IsRequired {
			v.required = append(v.required, r)
		}
	}
	v.status = v.deriveLocked()
	return v
}

// ID returns the pull request id.
func (v *View) ID() int {
	return v.pr.ID
}

// PullRequest returns the list payload the view was built from.
func (v *View) PullRequest() model.PullRequest {
	return v.pr
}

// OnStatusChange registers fn to be called with a fresh snapshot whenever
// the aggregate status changes.
func (v *View) OnStatusChange(fn func(Row)) {
	v.mu.Lock()
	v.onStatus = fn
	v.mu.Unlock()
}

// Status returns the current aggregate status.
func (v *View) Status() model.Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Loading reports whether detail fetches are still outstanding.
func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Snapshot copies the current state into a Row.
func (v *View) Snapshot() Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *View) snapshotLocked() Row {
	row := Row{
		ID:                 v.pr.ID,
		Title:              v.pr.Title,
		IsDraft:            v.pr.IsDraft,
		State:              v.pr.State,
		MergeStatus:        v.pr.MergeStatus,
		Repository:         v.pr.Repository,
		Author:             v.pr.CreatedBy,
		SourceBranch:       model.BranchName(v.pr.SourceRefName),
		TargetBranch:       model.BranchName(v.pr.TargetRefName),
		CreatedAt:          v.pr.CreatedAt,
		ClosedAt:           v.pr.ClosedAt,
		Reviewers:          append([]model.Reviewer(nil), v.pr.Reviewers...),
		Links:              v.links,
		Status:             v.status,
		Loading:            v.loading,
		AutoComplete:       v.details.AutoComplete,
		LastCommitID:       v.details.LastCommitID,
		LastCommitAt:       v.details.LastCommitAt,
		TotalComments:      v.threads.total,
		TerminatedComments: v.threads.terminated,
		LastCommentAt:      v.threads.last,
		WorkItems:          v.workItems,
		Labels:             append([]string(nil), v.labels...),
		Policies:           append([]model.Policy(nil), v.policies...),
		LastVisit:          v.lastVisit,
	}
	if v.visitKnown {
		row.HasNewChanges = row.LastCommitAt.After(v.lastVisit) || row.LastCommentAt.After(v.lastVisit)
	}
	return row
}

// SetDetails records the extended pull request metadata.
func (v *View) SetDetails(d model.Details) {
	v.update(func() { v.details = d })
}

// SetThreads summarizes the comment threads.
func (v *View) SetThreads(threads []model.Thread) {
	v.update(func() { v.threads = summarizeThreads(threads, v.me) })
}

// SetWorkItems records the number of linked work items.
func (v *View) SetWorkItems(n int) {
	v.update(func() { v.workItems = n })
}

// SetLabels records the active label names, sorted.
func (v *View) SetLabels(labels []model.Label) {
	var names []string
	for _, l := range labels {
		if l.Active {
			names = append(names, l.Name)
		}
	}
	sort.Strings(names)
	v.update(func() { v.labels = names })
}

// SetPolicies records the policy evaluations.
func (v *View) SetPolicies(policies []model.Policy) {
	v.update(func() {
		v.policies = policies
		v.policiesDone = true
	})
}

// SetLastVisit records the visit time preceding this load.
func (v *View) SetLastVisit(at time.Time) {
	v.update(func() {
		v.lastVisit = at
		v.visitKnown = true
	})
}

// MarkLoaded marks the detail fan-out as settled. Facets whose fetch failed
// keep their zero values.
func (v *View) MarkLoaded() {
	v.update(func() { v.loading = false })
}

// update applies fn under the lock, recomputes the status and notifies the
// status callback outside the lock when it changed.
func (v *View) update(fn func()) {
	v.mu.Lock()
	fn()
	prev := v.status
	v.status = v.deriveLocked()
	notify := v.onStatus
	changed := prev != v.status
	var row Row
	if changed && notify != nil {
		row = v.snapshotLocked()
	}
	v.mu.Unlock()

	if changed && notify != nil {
		notify(row)
	}
}

// deriveLocked computes the status. Policies count as pending until they
// are fetched or the fan-out has settled.
func (v *View) deriveLocked() model.Status {
	in := model.StatusInput{
		HasFailure: v.pr.MergeStatus.HasFailure(),
		PoliciesOK: (v.policiesDone || !v.loading) && model.AllPoliciesOK(v.policies),
	}
	for _, r := range v.pr.Reviewers {
		in.Votes = append(in.Votes, r.Vote)
	}
	for _, r := range v.required {
		in.RequiredVotes = append(in.RequiredVotes, r.Vote)
	}
	return model.DeriveStatus(in)
}

type commentSummary struct {
	total      int
	terminated int
	last       time.Time
}

// summarizeThreads counts the live text threads and finds the newest comment
// written by someone other than me.
func summarizeThreads(threads []model.Thread, me string) commentSummary {
	var s commentSummary
	for _, t := range threads {
		if t.IsDeleted || len(t.Comments) == 0 || !t.Comments[0].IsText {
			continue
		}
		s.total++
		if t.Status.IsTerminated() {
			s.terminated++
		}
		for _, c := range t.Comments {
			if c.IsDeleted || !c.IsText || c.AuthorID == me {
				continue
			}
			at := c.PublishedAt
			if c.UpdatedAt.After(at) {
				at = c.UpdatedAt
			}
			if at.After(s.last) {
				s.last = at
			}
		}
	}
	return s
}
