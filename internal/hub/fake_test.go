package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cribeiro84/prhub/internal/azdo"
	"github.com/cribeiro84/prhub/internal/model"
)

const testProjectID = "6ce954b1-ce1f-45d1-b94d-e6bf2464ba2c"

var errBoom = errors.New("boom")

// fakeGateway serves canned responses. Per-facet errors are keyed by facet
// name ("details", "threads", "workitems", "policies", "labels").
type fakeGateway struct {
	mu sync.Mutex

	user     *azdo.User
	userErr  error
	prs      map[string][]model.PullRequest
	listErr  map[string]error
	details  model.Details
	threads  []model.Thread
	work     int
	labels   []model.Label
	policies []model.Policy
	failing  map[string]bool

	// block, when set, is waited on by ListPullRequests.
	block chan struct{}
	// threadBlock holds ListThreads for the given pull request ids.
	threadBlock map[int]chan struct{}
	criteria    []azdo.SearchCriteria
	calls       map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		user:    &azdo.User{ID: "me", DisplayName: "Me"},
		prs:     make(map[string][]model.PullRequest),
		listErr: make(map[string]error),
		failing: make(map[string]bool),
		calls:   make(map[string]int),
	}
}

func (f *fakeGateway) record(facet string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[facet]++
	if f.failing[facet] {
		return errBoom
	}
	return nil
}

func (f *fakeGateway) callCount(facet string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[facet]
}

func (f *fakeGateway) BaseURL() string { return "https://dev.azure.com/org" }

func (f *fakeGateway) ConnectionData(context.Context) (*azdo.User, error) {
	if err := f.record("user"); err != nil {
		return nil, err
	}
	return f.user, f.userErr
}

func (f *fakeGateway) ListPullRequests(ctx context.Context, project string, criteria azdo.SearchCriteria) ([]model.PullRequest, error) {
	f.mu.Lock()
	f.criteria = append(f.criteria, criteria)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.listErr[project]; err != nil {
		return nil, err
	}
	return f.prs[project], nil
}

func (f *fakeGateway) GetPullRequestDetails(context.Context, string, string, int) (model.Details, error) {
	return f.details, f.record("details")
}

func (f *fakeGateway) ListThreads(ctx context.Context, _, _ string, prID int) ([]model.Thread, error) {
	f.mu.Lock()
	block := f.threadBlock[prID]
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.threads, f.record("threads")
}

func (f *fakeGateway) CountWorkItems(context.Context, string, string, int) (int, error) {
	return f.work, f.record("workitems")
}

func (f *fakeGateway) ListLabels(context.Context, string, string, int) ([]model.Label, error) {
	return f.labels, f.record("labels")
}

func (f *fakeGateway) ListPolicyEvaluations(context.Context, string, string, int) ([]model.Policy, error) {
	return f.policies, f.record("policies")
}

func testPR(id int, opts ...func(*model.PullRequest)) model.PullRequest {
	pr := model.PullRequest{
		ID:            id,
		Title:         "Pull request",
		State:         model.StateActive,
		MergeStatus:   model.MergeSucceeded,
		CreatedAt:     time.Date(2026, 1, id, 0, 0, 0, 0, time.UTC),
		CreatedBy:     model.Identity{ID: "author-1", DisplayName: "Ana"},
		Repository:    model.Repository{ID: "repo-1", Name: "api", Project: model.Project{ID: testProjectID, Name: "proj"}},
		SourceRefName: "refs/heads/feature",
		TargetRefName: "refs/heads/main",
	}
	for _, opt := range opts {
		opt(&pr)
	}
	return pr
}
