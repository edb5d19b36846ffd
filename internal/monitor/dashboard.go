package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/cribeiro84/prhub/internal/hub"
	"github.com/cribeiro84/prhub/internal/model"
)

type dashboardMode int

const (
	modeDashboard dashboardMode = iota
	modeQuery
	modeFacets
	modeHelp
)

// Dashboard is the bubbletea model for the hub UI.
type Dashboard struct {
	monitor *Monitor

	rows   []hub.Row
	cursor int
	offset int
	width  int
	height int

	mode    dashboardMode
	message string
	query   string
	facets  facetFilterState

	keymap  KeyMap
	styles  Styles
	columns []ColumnID

	ctx             context.Context
	cancel          context.CancelFunc
	lastRefresh     time.Time
	refreshing      bool
	refreshInterval time.Duration
}

type refreshMsg struct {
	rows []hub.Row
}

type tickMsg time.Time

// publishMsg carries the rows of a refresh before their details load.
type publishMsg struct {
	rows []hub.Row
}

type rowMsg struct {
	row hub.Row
}

type errMsg struct {
	err error
}

// NewDashboard creates a dashboard model.
func NewDashboard(m *Monitor) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		monitor:         m,
		keymap:          DefaultKeyMap(),
		styles:          DefaultStyles(),
		columns:         m.columns,
		mode:            modeDashboard,
		ctx:             ctx,
		cancel:          cancel,
		refreshInterval: m.interval,
	}
}

// Run starts the bubbletea program. Status changes reported by the loader
// are forwarded to the program as messages.
func (d *Dashboard) Run() error {
	program := tea.NewProgram(d, tea.WithAltScreen())
	d.monitor.loader.OnPublish(func(rows []hub.Row) {
		program.Send(publishMsg{rows: rows})
	})
	d.monitor.loader.OnStatusChange(func(row hub.Row) {
		program.Send(rowMsg{row: row})
	})
	defer d.monitor.loader.OnPublish(nil)
	defer d.monitor.loader.OnStatusChange(nil)
	defer d.cancel()

	_, err := program.Run()
	return err
}

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	d.refreshing = true
	return tea.Batch(d.refreshCmd(), d.tickCmd())
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.ensureCursorVisible()
		return d, nil
	case refreshMsg:
		d.setRows(msg.rows)
		d.refreshing = false
		d.lastRefresh = time.Now()
		return d, nil
	case publishMsg:
		d.monitor.SetRows(msg.rows)
		d.setRows(d.monitor.Visible())
		return d, nil
	case rowMsg:
		if d.monitor.UpdateRow(msg.row) {
			d.setRows(d.monitor.Visible())
		}
		return d, nil
	case errMsg:
		// A superseded refresh reports while its replacement is still running.
		if errors.Is(msg.err, hub.ErrStaleRefresh) {
			return d, nil
		}
		d.refreshing = false
		d.message = msg.err.Error()
		return d, nil
	case tickMsg:
		if d.refreshing {
			return d, d.tickCmd()
		}
		d.refreshing = true
		return d, tea.Batch(d.refreshCmd(), d.tickCmd())
	case tea.KeyMsg:
		return d.handleKey(msg)
	default:
		return d, nil
	}
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	switch d.mode {
	case modeFacets:
		return d.styles.Box.Render(d.viewFacets())
	case modeHelp:
		return d.styles.Box.Render(d.viewHelp())
	default:
		return d.styles.Box.Render(d.viewDashboard())
	}
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return d.quit()
	}

	switch d.mode {
	case modeDashboard:
		return d.handleDashboardKey(msg)
	case modeQuery:
		return d.handleQueryKey(msg)
	case modeFacets:
		return d.handleFacetKey(msg)
	case modeHelp:
		return d.handleHelpKey(msg)
	default:
		return d, nil
	}
}

func (d *Dashboard) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case d.keymap.Quit:
		return d.quit()
	case d.keymap.Refresh:
		d.refreshing = true
		return d, d.refreshCmd()
	case d.keymap.Filter:
		d.query = d.monitor.Filter().Query
		d.mode = modeQuery
		return d, nil
	case d.keymap.Facets:
		return d.enterFacetMode()
	case d.keymap.Draft:
		d.message = "draft: " + d.monitor.CycleDraft()
		d.setRows(d.monitor.Visible())
		return d, nil
	case d.keymap.MyVote:
		d.message = "my vote: " + d.monitor.CycleMyVote()
		d.setRows(d.monitor.Visible())
		return d, nil
	case d.keymap.Clear:
		d.monitor.SetFilter(hub.Filter{})
		d.message = "filter cleared"
		d.setRows(d.monitor.Visible())
		return d, nil
	case d.keymap.Tab:
		state := d.monitor.CycleState()
		d.message = fmt.Sprintf("tab: %s", state)
		d.rows = nil
		d.cursor = 0
		d.offset = 0
		d.refreshing = true
		return d, d.refreshCmd()
	case d.keymap.Sort:
		dir, err := d.monitor.ToggleSort()
		if err != nil {
			d.message = err.Error()
		} else {
			d.message = fmt.Sprintf("sort: %s", dir)
		}
		d.setRows(d.monitor.Visible())
		return d, nil
	case "up", "k":
		if d.cursor > 0 {
			d.cursor--
			d.ensureCursorVisible()
		}
		return d, nil
	case "down", "j":
		if d.cursor < len(d.rows)-1 {
			d.cursor++
			d.ensureCursorVisible()
		}
		return d, nil
	case d.keymap.Open:
		if row := d.selectedRow(); row != nil {
			url, err := d.monitor.Open(*row)
			if err != nil {
				d.message = err.Error()
			} else {
				d.message = url
			}
		}
		return d, nil
	case d.keymap.Help:
		d.mode = modeHelp
		return d, nil
	}

	if index, ok := parseNumberKey(msg); ok {
		if index >= 1 && index <= len(d.rows) {
			d.cursor = index - 1
			d.ensureCursorVisible()
		}
	}
	return d, nil
}

func (d *Dashboard) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		d.mode = modeDashboard
		return d, nil
	case tea.KeyEnter:
		if err := hub.ValidateQuery(d.query); err != nil {
			d.message = fmt.Sprintf("title filter: %v", err)
			return d, nil
		}
		filter := d.monitor.Filter()
		filter.Query = strings.TrimSpace(d.query)
		d.monitor.SetFilter(filter)
		d.message = ""
		d.mode = modeDashboard
		d.setRows(d.monitor.Visible())
		return d, nil
	case tea.KeyBackspace, tea.KeyDelete:
		d.query = trimLastRune(d.query)
	case tea.KeySpace:
		d.query += " "
	case tea.KeyRunes:
		d.query += string(msg.Runes)
	}
	return d, nil
}

func (d *Dashboard) handleHelpKey(tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key dismisses the help popup
	d.mode = modeDashboard
	return d, nil
}

func (d *Dashboard) quit() (tea.Model, tea.Cmd) {
	d.cancel()
	return d, tea.Quit
}

func (d *Dashboard) setRows(rows []hub.Row) {
	d.rows = rows
	if d.cursor >= len(d.rows) {
		d.cursor = len(d.rows) - 1
	}
	if d.cursor < 0 {
		d.cursor = 0
	}
	d.ensureCursorVisible()
}

func (d *Dashboard) refreshCmd() tea.Cmd {
	ctx := d.ctx
	return func() tea.Msg {
		rows, err := d.monitor.Refresh(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return refreshMsg{rows: rows}
	}
}

func (d *Dashboard) tickCmd() tea.Cmd {
	return tea.Tick(d.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (d *Dashboard) viewDashboard() string {
	title := d.styles.Title.Render(fmt.Sprintf("PULL REQUESTS · %s", strings.ToUpper(string(d.monitor.State()))))
	meta := d.renderMeta()
	table := d.renderTable(d.tableMaxRows())
	stats := d.renderStats()
	details := d.renderDetails(detailsMaxLines)
	footer := d.renderFooter()

	lines := []string{
		title,
		"",
		meta,
		"",
		table,
		"",
		stats,
	}
	if d.mode == modeQuery {
		lines = append(lines, "", "title filter: "+d.query+"█")
	} else if d.message != "" {
		lines = append(lines, "", d.styles.Faint.Render(truncate(d.message, d.safeWidth())))
	}
	if details != "" {
		lines = append(lines, "", details)
	}
	lines = append(lines, "", footer)
	return strings.Join(lines, "\n")
}

func (d *Dashboard) viewHelp() string {
	lines := []string{
		d.styles.Title.Render("HELP - KEYBOARD SHORTCUTS"),
		"",
		d.styles.Header.Render("Navigation"),
		"  up / k     Move cursor up",
		"  down / j   Move cursor down",
		"  1-9        Jump to row",
		"  t          Cycle tab (active, completed, abandoned)",
		"",
		d.styles.Header.Render("Pull Request Actions"),
		"  enter      Open selected pull request",
		"",
		d.styles.Header.Render("Filtering & Sorting"),
		"  /          Filter by title (/regex/ supported)",
		"  f          Filter by repository, branch, author or reviewer",
		"  d          Cycle draft filter",
		"  m          Cycle my-vote filter",
		"  c          Clear all filters",
		"  s          Toggle sort direction",
		"",
		d.styles.Header.Render("Other"),
		"  r          Refresh data",
		"  q          Quit",
		"  ?          Show this help",
		"",
		d.styles.Faint.Render("Press any key to close this help"),
	}
	return strings.Join(lines, "\n")
}

func (d *Dashboard) selectedRow() *hub.Row {
	if d.cursor >= 0 && d.cursor < len(d.rows) {
		return &d.rows[d.cursor]
	}
	return nil
}

func (d *Dashboard) renderTable(maxRows int) string {
	if len(d.rows) == 0 {
		if d.refreshing {
			return "Loading pull requests..."
		}
		if !d.monitor.Filter().IsDefault() {
			return "No pull requests found (filters active - press 'c' to clear)."
		}
		return "No pull requests found."
	}
	widths := d.columnWidths()
	now := time.Now()

	header := d.renderRow(widths, nil, now)
	var rows []string
	visibleRows := d.visibleRows(maxRows)
	start := d.offset
	end := start + visibleRows
	if end > len(d.rows) {
		end = len(d.rows)
	}
	for i := start; i < end; i++ {
		r := d.renderRow(widths, &d.rows[i], now)
		if i == d.cursor {
			r = d.styles.Selected.Render(r)
		}
		rows = append(rows, r)
	}
	return strings.Join(append([]string{header}, rows...), "\n")
}

// renderRow renders one table line; a nil row renders the header.
func (d *Dashboard) renderRow(widths []int, row *hub.Row, now time.Time) string {
	cols := make([]string, 0, len(d.columns))
	for i, col := range d.columns {
		def, _ := GetColumnDef(col)
		value := def.Header
		if row != nil {
			value = GetColumnValue(col, row, now)
		}
		style := GetColumnStyle(col, row, &d.styles, row == nil)
		cols = append(cols, d.pad(value, widths[i], style))
	}
	return strings.Join(cols, "  ")
}

func (d *Dashboard) columnWidths() []int {
	widths := make([]int, len(d.columns))
	fixed := 0
	flexible := -1
	for i, col := range d.columns {
		def, _ := GetColumnDef(col)
		widths[i] = def.Width
		if def.Flexible && flexible < 0 {
			flexible = i
			continue
		}
		fixed += def.Width
	}
	if flexible >= 0 {
		fixed += (len(d.columns) - 1) * 2
		if w := d.safeWidth() - fixed; w > widths[flexible] {
			widths[flexible] = w
		}
	}
	return widths
}

func (d *Dashboard) renderStats() string {
	counts := make(map[model.Severity]int)
	for _, row := range d.rows {
		counts[row.Status.Severity]++
	}
	return d.styles.StatusSummary(counts)
}

func (d *Dashboard) renderDetails(maxLines int) string {
	row := d.selectedRow()
	if row == nil || maxLines <= 0 {
		return ""
	}
	width := d.safeWidth()
	var lines []string
	lines = append(lines, wrapLabelValue("status: ", row.Status.Label, width)...)
	lines = append(lines, wrapLabelValue("url: ", row.Links.PullRequest, width)...)

	var reviewers []string
	for _, r := range row.Reviewers {
		name := r.DisplayName
		if r.IsRequired {
			name += "*"
		}
		reviewers = append(reviewers, fmt.Sprintf("%s (%s)", name, r.Vote.Short()))
	}
	if len(reviewers) > 0 {
		lines = append(lines, wrapLabelValue("reviewers: ", strings.Join(reviewers, ", "), width)...)
	}

	var policies []string
	for _, p := range row.Policies {
		if !p.IsEnabled {
			continue
		}
		policies = append(policies, fmt.Sprintf("%s (%s)", p.DisplayName, p.Status))
	}
	if len(policies) > 0 {
		lines = append(lines, wrapLabelValue("policies: ", strings.Join(policies, ", "), width)...)
	}

	var extra []string
	if row.ShortCommit() != "" {
		extra = append(extra, "commit "+row.ShortCommit())
	}
	if row.AutoComplete {
		extra = append(extra, "auto-complete")
	}
	if row.WorkItems > 0 {
		extra = append(extra, fmt.Sprintf("%d work items", row.WorkItems))
	}
	if len(row.Labels) > 0 {
		extra = append(extra, "labels "+strings.Join(row.Labels, ","))
	}
	if len(extra) > 0 {
		lines = append(lines, wrapLabelValue("info: ", strings.Join(extra, "  "), width)...)
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return d.styles.Faint.Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderMeta() string {
	filter := d.monitor.Filter().Summary()
	sortLabel := fmt.Sprintf("sort: %s", d.monitor.SortDirection())
	sync := d.renderSyncStatus()
	rows := d.renderRowRange()
	return strings.Join([]string{filter, sortLabel, sync, rows}, "  ")
}

func (d *Dashboard) renderSyncStatus() string {
	if d.refreshing {
		return "sync: syncing..."
	}
	if d.lastRefresh.IsZero() {
		return "sync: pending"
	}
	ago := formatRelativeTime(d.lastRefresh, time.Now())
	label := fmt.Sprintf("sync: %s", ago)
	if time.Since(d.lastRefresh) > d.refreshInterval*3 {
		label += " (stale)"
	}
	return label
}

func (d *Dashboard) renderRowRange() string {
	if len(d.rows) == 0 {
		return "rows: 0/0"
	}
	visibleRows := d.visibleRows(d.tableMaxRows())
	if visibleRows == 0 {
		return fmt.Sprintf("rows: 0/%d", len(d.rows))
	}
	start := d.offset + 1
	end := d.offset + visibleRows
	if end > len(d.rows) {
		end = len(d.rows)
	}
	return fmt.Sprintf("rows: %d-%d/%d", start, end, len(d.rows))
}

func (d *Dashboard) renderFooter() string {
	return d.keymap.HelpLine()
}

func (d *Dashboard) safeWidth() int {
	frame := d.styles.Box.GetHorizontalFrameSize()
	if d.width > frame {
		return d.width - frame
	}
	return 80
}

func (d *Dashboard) safeHeight() int {
	frame := d.styles.Box.GetVerticalFrameSize()
	if d.height > frame {
		return d.height - frame
	}
	return 24
}

func (d *Dashboard) tableMaxRows() int {
	// title, meta, stats, footer and their spacers
	base := 9
	if d.message != "" || d.mode == modeQuery {
		base += 2
	}
	available := d.safeHeight() - base - (detailsMaxLines + 1)
	if available <= 1 {
		return 0
	}
	return available - 1
}

func (d *Dashboard) visibleRows(maxRows int) int {
	if maxRows <= 0 {
		return 0
	}
	if len(d.rows) < maxRows {
		return len(d.rows)
	}
	return maxRows
}

func (d *Dashboard) ensureCursorVisible() {
	if len(d.rows) == 0 {
		d.offset = 0
		return
	}
	visibleRows := d.visibleRows(d.tableMaxRows())
	if visibleRows <= 0 {
		d.offset = 0
		return
	}
	if d.cursor < d.offset {
		d.offset = d.cursor
	}
	if d.cursor >= d.offset+visibleRows {
		d.offset = d.cursor - visibleRows + 1
	}
	maxOffset := len(d.rows) - visibleRows
	if maxOffset < 0 {
		maxOffset = 0
	}
	if d.offset > maxOffset {
		d.offset = maxOffset
	}
	if d.offset < 0 {
		d.offset = 0
	}
}

func (d *Dashboard) pad(s string, width int, style lipgloss.Style) string {
	return style.Width(width).Render(truncate(s, width))
}

func parseNumberKey(msg tea.KeyMsg) (int, bool) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	return int(r - '0'), true
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 3 {
		return truncateToWidth(s, width)
	}
	return truncateToWidth(s, width-3) + "..."
}

func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	current := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if current+rw > width {
			break
		}
		b.WriteRune(r)
		current += rw
	}
	return b.String()
}

func wrapText(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	var lines []string
	for _, raw := range strings.Split(s, "\n") {
		if raw == "" {
			lines = append(lines, "")
			continue
		}
		runes := []rune(raw)
		start := 0
		for start < len(runes) {
			if runewidth.StringWidth(string(runes[start:])) <= width {
				lines = append(lines, string(runes[start:]))
				break
			}
			curWidth := 0
			lastSpace := -1
			end := start
			for ; end < len(runes); end++ {
				rw := runewidth.RuneWidth(runes[end])
				if curWidth+rw > width {
					break
				}
				curWidth += rw
				if unicode.IsSpace(runes[end]) {
					lastSpace = end
				}
			}
			split := end
			if lastSpace > start {
				split = lastSpace
			}
			if split == start {
				split = start + 1
			}
			lines = append(lines, strings.TrimRightFunc(string(runes[start:split]), unicode.IsSpace))
			start = split
			for start < len(runes) && unicode.IsSpace(runes[start]) {
				start++
			}
		}
	}
	return lines
}

func wrapLabelValue(label, value string, width int) []string {
	if width <= 0 {
		return []string{label + value}
	}
	labelWidth := runewidth.StringWidth(label)
	if labelWidth >= width {
		return wrapText(label+value, width)
	}
	valueLines := wrapText(value, width-labelWidth)
	if len(valueLines) == 0 {
		return []string{label}
	}
	lines := make([]string, 0, len(valueLines))
	lines = append(lines, label+valueLines[0])
	indent := strings.Repeat(" ", labelWidth)
	for _, line := range valueLines[1:] {
		lines = append(lines, indent+line)
	}
	return lines
}

func formatRelativeTime(when time.Time, now time.Time) string {
	if when.IsZero() {
		return "-"
	}
	if when.After(now) {
		return "just now"
	}

	elapsed := now.Sub(when)
	switch {
	case elapsed < 10*time.Second:
		return "just now"
	case elapsed < time.Minute:
		return fmt.Sprintf("%ds ago", int(elapsed.Seconds()))
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	case elapsed < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(elapsed.Hours()/(24*7)))
	}
}

func trimLastRune(value string) string {
	if value == "" {
		return value
	}
	runes := []rune(value)
	return string(runes[:len(runes)-1])
}
