// Package monitor is the interactive terminal dashboard over the pull
// request hub.
package monitor

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cribeiro84/prhub/internal/hub"
	"github.com/cribeiro84/prhub/internal/model"
	"github.com/cribeiro84/prhub/internal/prefs"
	"github.com/cribeiro84/prhub/internal/store"
)

// Tabs are the pull request states the dashboard cycles through.
var Tabs = []model.PullRequestState{
	model.StateActive,
	model.StateCompleted,
	model.StateAbandoned,
}

// Options configures the monitor.
type Options struct {
	Loader          *hub.Loader
	Store           store.Store
	Prefs           *prefs.Preferences
	Visits          *prefs.Visits
	Projects        []string
	State           model.PullRequestState
	Filter          hub.Filter
	Columns         []ColumnID
	RefreshInterval time.Duration
	Logger          *zap.SugaredLogger
	// Browser opens a URL; defaults to the platform's URL handler.
	Browser func(url string) error
	Now     func() time.Time
}

// Monitor holds the dashboard state shared between the UI and the loader.
type Monitor struct {
	loader   *hub.Loader
	store    store.Store
	prefs    *prefs.Preferences
	visits   *prefs.Visits
	projects []string
	columns  []ColumnID
	interval time.Duration
	log      *zap.SugaredLogger
	browser  func(string) error
	now      func() time.Time

	mu     sync.Mutex
	state  model.PullRequestState
	filter hub.Filter
	rows   []hub.Row
	me     string
}

// New creates a monitor.
func New(opts Options) *Monitor {
	m := &Monitor{
		loader:   opts.Loader,
		store:    opts.Store,
		prefs:    opts.Prefs,
		visits:   opts.Visits,
		projects: opts.Projects,
		columns:  opts.Columns,
		interval: opts.RefreshInterval,
		log:      opts.Logger,
		browser:  opts.Browser,
		now:      opts.Now,
		state:    opts.State,
		filter:   opts.Filter.Clone(),
	}
	if m.prefs == nil {
		m.prefs = prefs.Default()
	}
	if len(m.columns) == 0 {
		m.columns = DefaultColumns()
	}
	if m.interval <= 0 {
		m.interval = defaultRefreshInterval
	}
	if m.log == nil {
		m.log = zap.NewNop().Sugar()
	}
	if m.browser == nil {
		m.browser = openBrowser
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.state == "" {
		m.state = model.StateActive
	}
	return m
}

// RunDashboard starts the interactive dashboard.
func (m *Monitor) RunDashboard() error {
	return NewDashboard(m).Run()
}

// Refresh reloads the pull requests of the current tab and returns the
// filtered, sorted rows.
func (m *Monitor) Refresh(ctx context.Context) ([]hub.Row, error) {
	user, err := m.loader.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.me = user.ID
	m.mu.Unlock()

	q := hub.QueryFor(m.prefs, m.State(), m.projects)
	if _, err := m.loader.Refresh(ctx, q); err != nil {
		return nil, err
	}
	m.SetRows(m.loader.Rows())
	return m.Visible(), nil
}

// SetRows replaces the stored rows, typically with a freshly published
// generation whose details are still loading.
func (m *Monitor) SetRows(rows []hub.Row) {
	m.mu.Lock()
	m.rows = append([]hub.Row(nil), rows...)
	m.mu.Unlock()
}

// Visible applies the current filter and sort direction to the last rows.
func (m *Monitor) Visible() []hub.Row {
	m.mu.Lock()
	rows := append([]hub.Row(nil), m.rows...)
	filter := m.filter
	me := m.me
	dir := m.prefs.SortDirection
	m.mu.Unlock()

	visible := filter.Apply(rows, me)
	hub.SortRows(visible, dir)
	return visible
}

// UpdateRow replaces the stored row with the same pull request id.
func (m *Monitor) UpdateRow(row hub.Row) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == row.ID {
			m.rows[i] = row
			return true
		}
	}
	return false
}

// Facets returns the facet values of the last loaded rows.
func (m *Monitor) Facets() hub.Facets {
	m.mu.Lock()
	defer m.mu.Unlock()
	return hub.BuildFacets(m.rows)
}

// Filter returns a copy of the active filter.
func (m *Monitor) Filter() hub.Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter.Clone()
}

// SetFilter replaces the active filter.
func (m *Monitor) SetFilter(f hub.Filter) {
	m.mu.Lock()
	m.filter = f.Clone()
	m.mu.Unlock()
}

// CycleDraft steps the draft filter through all, drafts only, and
// published only.
func (m *Monitor) CycleDraft() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case len(m.filter.Draft) == 0:
		m.filter.Draft = map[bool]bool{true: true}
		return "drafts"
	case m.filter.Draft[true] && !m.filter.Draft[false]:
		m.filter.Draft = map[bool]bool{false: true}
		return "published"
	default:
		m.filter.Draft = nil
		return "all"
	}
}

// CycleMyVote steps the my-vote filter through each vote value and back to
// no constraint.
func (m *Monitor) CycleMyVote() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := 0
	if len(m.filter.MyVotes) == 1 {
		for i, v := range model.AllVotes {
			if m.filter.MyVotes[v] {
				next = i + 1
				break
			}
		}
	}
	if next >= len(model.AllVotes) {
		m.filter.MyVotes = nil
		return "all"
	}
	vote := model.AllVotes[next]
	m.filter.MyVotes = map[model.Vote]bool{vote: true}
	return vote.Short()
}

// State returns the current tab.
func (m *Monitor) State() model.PullRequestState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CycleState switches to the next tab.
func (m *Monitor) CycleState() model.PullRequestState {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := Tabs[0]
	for i, s := range Tabs {
		if s == m.state {
			next = Tabs[(i+1)%len(Tabs)]
			break
		}
	}
	m.state = next
	return next
}

// SortDirection returns the preferred sort direction.
func (m *Monitor) SortDirection() prefs.SortDirection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs.SortDirection
}

// ToggleSort flips the sort direction and persists the preference.
func (m *Monitor) ToggleSort() (prefs.SortDirection, error) {
	m.mu.Lock()
	m.prefs.SortDirection = m.prefs.SortDirection.Toggle()
	dir := m.prefs.SortDirection
	snapshot := *m.prefs
	m.mu.Unlock()

	if err := prefs.Save(m.store, &snapshot); err != nil {
		return dir, err
	}
	return dir, nil
}

// Open records a visit for row and opens its URL in the browser when the
// preference asks for a new window. It returns the URL.
func (m *Monitor) Open(row hub.Row) (string, error) {
	url := row.Links.PullRequest
	if err := m.visits.Record(row.ID, m.now()); err != nil {
		m.log.Warnw("recording visit failed", "pr", row.ID, "error", err)
	}
	if !m.prefs.OpenInNewWindow {
		return url, nil
	}
	if err := m.browser(url); err != nil {
		return url, fmt.Errorf("opening browser: %w", err)
	}
	return url, nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
