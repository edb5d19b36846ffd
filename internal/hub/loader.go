package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cribeiro84/prhub/internal/azdo"
	"github.com/cribeiro84/prhub/internal/model"
	"github.com/cribeiro84/prhub/internal/prefs"
)

var (
	// ErrNoProjects is returned by Refresh when no project is selected.
	ErrNoProjects = errors.New("no projects selected")
	// ErrStaleRefresh is returned by a Refresh superseded by a newer one.
	ErrStaleRefresh = errors.New("refresh superseded by a newer refresh")
)

// DefaultConcurrency bounds how many pull requests load details at once.
const DefaultConcurrency = 8

// Gateway is the subset of the Azure DevOps client the loader needs.
type Gateway interface {
	BaseURL() string
	ConnectionData(ctx context.Context) (*azdo.User, error)
	ListPullRequests(ctx context.Context, project string, criteria azdo.SearchCriteria) ([]model.PullRequest, error)
	GetPullRequestDetails(ctx context.Context, project, repoID string, prID int) (model.Details, error)
	ListThreads(ctx context.Context, project, repoID string, prID int) ([]model.Thread, error)
	CountWorkItems(ctx context.Context, project, repoID string, prID int) (int, error)
	ListLabels(ctx context.Context, project, repoID string, prID int) ([]model.Label, error)
	ListPolicyEvaluations(ctx context.Context, project, projectID string, prID int) ([]model.Policy, error)
}

// Query selects the pull requests a refresh lists.
type Query struct {
	Projects []string
	State    model.PullRequestState
	// Top caps the number of pull requests per project. Zero means no cap.
	Top int
}

// QueryFor builds the query for a tab from the user's preferences. Historical
// tabs are capped by the preference's historical limit.
func QueryFor(p *prefs.Preferences, state model.PullRequestState, projects []string) Query {
	q := Query{Projects: projects, State: state}
	if len(q.Projects) == 0 && p != nil {
		q.Projects = p.SelectedProjects
	}
	if state.IsHistorical() && p != nil {
		q.Top = p.HistoricalLimit
	}
	return q
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Visits enables last-visit tracking when non-nil.
	Visits      *prefs.Visits
	Logger      *zap.SugaredLogger
	Concurrency int
	Now         func() time.Time
}

// Loader refreshes the pull request list and fans out the per pull request
// detail fetches. Only the most recent refresh publishes its views, and it
// publishes them before their details load so each view carries its own
// loading state.
type Loader struct {
	gw          Gateway
	visits      *prefs.Visits
	log         *zap.SugaredLogger
	concurrency int
	now         func() time.Time

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	views     []*View
	me        *azdo.User
	onStatus  func(Row)
	onPublish func([]Row)

	// pubMu keeps publish callbacks in generation order.
	pubMu sync.Mutex
}

// NewLoader creates a loader over gw.
func NewLoader(gw Gateway, opts LoaderOptions) *Loader {
	l := &Loader{
		gw:          gw,
		visits:      opts.Visits,
		log:         opts.Logger,
		concurrency: opts.Concurrency,
		now:         opts.Now,
	}
	if l.log == nil {
		l.log = zap.NewNop().Sugar()
	}
	if l.concurrency <= 0 {
		l.concurrency = DefaultConcurrency
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// OnStatusChange registers fn for status changes of views belonging to the
// current refresh generation.
func (l *Loader) OnStatusChange(fn func(Row)) {
	l.mu.Lock()
	l.onStatus = fn
	l.mu.Unlock()
}

// OnPublish registers fn to receive the rows of each refresh generation as
// soon as its views exist, before any detail has loaded. Status changes of
// those views are reported through OnStatusChange afterwards.
func (l *Loader) OnPublish(fn func([]Row)) {
	l.mu.Lock()
	l.onPublish = fn
	l.mu.Unlock()
}

// Views returns the views published by the latest refresh. Views of a
// refresh still in flight report Loading until their details settle.
func (l *Loader) Views() []*View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*View(nil), l.views...)
}

// Rows snapshots the published views.
func (l *Loader) Rows() []Row {
	views := l.Views()
	rows := make([]Row, 0, len(views))
	for _, v := range views {
		rows = append(rows, v.Snapshot())
	}
	return rows
}

// Find returns the published view with the given pull request id.
func (l *Loader) Find(prID int) (*View, bool) {
	for _, v := range l.Views() {
		if v.ID() == prID {
			return v, true
		}
	}
	return nil, false
}

// CurrentUser returns the authenticated user, fetching it once.
func (l *Loader) CurrentUser(ctx context.Context) (*azdo.User, error) {
	l.mu.Lock()
	me := l.me
	l.mu.Unlock()
	if me != nil {
		return me, nil
	}

	me, err := l.gw.ConnectionData(ctx)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.me = me
	l.mu.Unlock()
	return me, nil
}

// Refresh lists the pull requests matching q, publishes a fresh view per pull
// request and waits until all detail fetches have settled. A Refresh started
// while another is in flight cancels the older one, which then returns
// ErrStaleRefresh. Cancelling ctx returns the context's error.
func (l *Loader) Refresh(ctx context.Context, q Query) ([]*View, error) {
	if len(q.Projects) == 0 {
		return nil, ErrNoProjects
	}

	ctx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.gen++
	gen := l.gen
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		if l.gen == gen {
			l.cancel = nil
		}
		l.mu.Unlock()
		cancel()
	}()

	me, err := l.CurrentUser(ctx)
	if err != nil {
		return nil, l.staleOr(gen, fmt.Errorf("resolving current user: %w", err))
	}

	prs, err := l.listAll(ctx, q)
	if err != nil {
		return nil, l.staleOr(gen, err)
	}
	if !l.isCurrent(gen) {
		return nil, ErrStaleRefresh
	}

	views := make([]*View, 0, len(prs))
	for _, pr := range prs {
		v := NewView(pr, l.gw.BaseURL(), me.ID)
		v.OnStatusChange(func(row Row) {
			if !l.isCurrent(gen) {
				return
			}
			l.mu.Lock()
			fn := l.onStatus
			l.mu.Unlock()
			if fn != nil {
				fn(row)
			}
		})
		views = append(views, v)
	}

	l.trackVisits(views)
	if !l.publish(gen, views) {
		return nil, ErrStaleRefresh
	}

	g := new(errgroup.Group)
	g.SetLimit(l.concurrency)
	for _, v := range views {
		g.Go(func() error {
			l.loadDetails(ctx, v)
			return nil
		})
	}
	_ = g.Wait()

	if !l.isCurrent(gen) {
		return nil, ErrStaleRefresh
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]*View(nil), views...), nil
}

// publish installs views as the current set when gen is still current and
// hands their loading snapshots to the publish callback.
func (l *Loader) publish(gen uint64, views []*View) bool {
	l.pubMu.Lock()
	defer l.pubMu.Unlock()

	l.mu.Lock()
	if l.gen != gen {
		l.mu.Unlock()
		return false
	}
	l.views = views
	fn := l.onPublish
	l.mu.Unlock()

	if fn != nil {
		rows := make([]Row, 0, len(views))
		for _, v := range views {
			rows = append(rows, v.Snapshot())
		}
		fn(rows)
	}
	return true
}

// listAll lists pull requests of every project concurrently. A project whose
// listing fails is logged and skipped; the refresh fails only when every
// project failed.
func (l *Loader) listAll(ctx context.Context, q Query) ([]model.PullRequest, error) {
	criteria := azdo.SearchCriteria{Status: q.State, Top: q.Top}
	results := make([][]model.PullRequest, len(q.Projects))
	errs := make([]error, len(q.Projects))

	g := new(errgroup.Group)
	for i, project := range q.Projects {
		g.Go(func() error {
			prs, err := l.gw.ListPullRequests(ctx, project, criteria)
			if err != nil {
				l.log.Warnw("listing pull requests failed", "project", project, "error", err)
				errs[i] = err
				return nil
			}
			results[i] = prs
			return nil
		})
	}
	_ = g.Wait()

	var all []model.PullRequest
	failed := 0
	for i := range q.Projects {
		if errs[i] != nil {
			failed++
			continue
		}
		all = append(all, results[i]...)
	}
	if failed == len(q.Projects) {
		return nil, errors.Join(errs...)
	}
	return all, nil
}

// trackVisits reads each pull request's previous visit before storing the
// current time.
func (l *Loader) trackVisits(views []*View) {
	if l.visits == nil {
		return
	}
	ids := make([]int, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID())
	}
	prev, err := l.visits.TouchAll(ids, l.now())
	if err != nil {
		l.log.Warnw("recording visits failed", "count", len(ids), "error", err)
	}
	for _, v := range views {
		v.SetLastVisit(prev[v.ID()])
	}
}

// loadDetails runs the detail fetches of one pull request and waits for all
// of them to settle. A failed fetch is logged and leaves its facet empty.
func (l *Loader) loadDetails(ctx context.Context, v *View) {
	pr := v.PullRequest()
	project := pr.Repository.Project.Name
	repoID := pr.Repository.ID

	g := new(errgroup.Group)
	fetch := func(facet string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				if ctx.Err() != nil {
					l.log.Debugw("detail fetch canceled", "pr", pr.ID, "facet", facet)
				} else {
					l.log.Warnw("detail fetch failed", "pr", pr.ID, "facet", facet, "error", err)
				}
			}
			return nil
		})
	}

	if pr.State != model.StateAbandoned {
		fetch("details", func() error {
			d, err := l.gw.GetPullRequestDetails(ctx, project, repoID, pr.ID)
			if err == nil {
				v.SetDetails(d)
			}
			return err
		})
		fetch("threads", func() error {
			threads, err := l.gw.ListThreads(ctx, project, repoID, pr.ID)
			if err == nil {
				v.SetThreads(threads)
			}
			return err
		})
		fetch("workitems", func() error {
			n, err := l.gw.CountWorkItems(ctx, project, repoID, pr.ID)
			if err == nil {
				v.SetWorkItems(n)
			}
			return err
		})
		fetch("policies", func() error {
			policies, err := l.gw.ListPolicyEvaluations(ctx, project, pr.Repository.Project.ID, pr.ID)
			if err == nil {
				v.SetPolicies(policies)
			}
			return err
		})
	}
	fetch("labels", func() error {
		labels, err := l.gw.ListLabels(ctx, project, repoID, pr.ID)
		if err == nil {
			v.SetLabels(labels)
		}
		return err
	})

	_ = g.Wait()
	v.MarkLoaded()
}

func (l *Loader) isCurrent(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen == gen
}

// staleOr reports ErrStaleRefresh for a superseded generation and err
// otherwise, including the caller's own cancellation.
func (l *Loader) staleOr(gen uint64, err error) error {
	if !l.isCurrent(gen) {
		return ErrStaleRefresh
	}
	return err
}
