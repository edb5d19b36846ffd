package monitor

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cribeiro84/prhub/internal/hub"
	"github.com/cribeiro84/prhub/internal/model"
)

type facetFilterState struct {
	hub.Filter
	facets hub.Facets
	cursor int
}

type filterRowKind int

const (
	filterRowHeader filterRowKind = iota
	filterRowFacet
	filterRowAction
)

const (
	filterActionApply  = "apply"
	filterActionClear  = "clear"
	filterActionCancel = "cancel"
)

type filterRow struct {
	kind       filterRowKind
	facet      model.FacetKind
	value      string
	label      string
	selectable bool
}

var facetTitles = map[model.FacetKind]string{
	model.FacetRepository:   "Repository:",
	model.FacetSourceBranch: "Source branch:",
	model.FacetTargetBranch: "Target branch:",
	model.FacetAuthor:       "Author:",
	model.FacetReviewer:     "Reviewer:",
}

func (d *Dashboard) enterFacetMode() (tea.Model, tea.Cmd) {
	d.facets = facetFilterState{
		Filter: d.monitor.Filter(),
		facets: d.monitor.Facets(),
	}
	d.message = ""
	d.ensureFilterCursor()
	d.mode = modeFacets
	return d, nil
}

func (d *Dashboard) handleFacetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		d.mode = modeDashboard
		return d, nil
	case "q":
		return d.quit()
	case "up", "k":
		d.moveFilterCursor(-1)
	case "down", "j":
		d.moveFilterCursor(1)
	case "enter", " ":
		return d.activateFilterRow()
	case "a":
		return d.applyFacets()
	case "c":
		return d.clearFacets()
	}
	return d, nil
}

func (d *Dashboard) activateFilterRow() (tea.Model, tea.Cmd) {
	row, ok := d.currentFilterRow()
	if !ok {
		return d, nil
	}
	switch row.kind {
	case filterRowFacet:
		d.facets.Toggle(row.facet, row.value)
	case filterRowAction:
		switch row.value {
		case filterActionApply:
			return d.applyFacets()
		case filterActionClear:
			return d.clearFacets()
		case filterActionCancel:
			d.mode = modeDashboard
		}
	}
	return d, nil
}

func (d *Dashboard) applyFacets() (tea.Model, tea.Cmd) {
	d.monitor.SetFilter(d.facets.Filter)
	d.message = ""
	d.mode = modeDashboard
	d.setRows(d.monitor.Visible())
	return d, nil
}

// clearFacets drops the facet selections and keeps the title, vote and
// draft criteria.
func (d *Dashboard) clearFacets() (tea.Model, tea.Cmd) {
	filter := d.facets.Filter
	for _, kind := range model.FacetKinds {
		if set := filter.Set(kind); set != nil {
			clear(set)
		}
	}
	d.facets.Filter = filter
	return d.applyFacets()
}

func (d *Dashboard) viewFacets() string {
	lines := []string{d.styles.Title.Render("FILTER PULL REQUESTS"), ""}
	rows := d.filterRows()
	for i, row := range rows {
		line := row.label
		if row.selectable && i == d.facets.cursor {
			line = d.styles.Selected.Render(line)
		}
		lines = append(lines, truncate(line, d.safeWidth()-2))
	}
	if d.message != "" {
		lines = append(lines, "", d.styles.Faint.Render(d.message))
	}
	lines = append(lines, "", "[Enter/Space] toggle  [a] apply  [c] clear  [Esc] cancel")
	return strings.Join(lines, "\n")
}

func (d *Dashboard) filterRows() []filterRow {
	var rows []filterRow
	for _, kind := range model.FacetKinds {
		values := d.facets.facets.Values(kind)
		if len(values) == 0 {
			continue
		}
		selected := d.facets.Set(kind)
		rows = append(rows, filterRow{kind: filterRowHeader, label: facetTitles[kind]})
		for _, v := range values {
			rows = append(rows, filterRow{
				kind:       filterRowFacet,
				facet:      kind,
				value:      v.Key,
				label:      fmt.Sprintf("  %s %s", checkbox(selected[v.Key]), v.Label),
				selectable: true,
			})
		}
		rows = append(rows, filterRow{kind: filterRowHeader})
	}

	for _, action := range []struct{ value, label string }{
		{filterActionApply, "[Apply]"},
		{filterActionClear, "[Clear]"},
		{filterActionCancel, "[Cancel]"},
	} {
		rows = append(rows, filterRow{
			kind:       filterRowAction,
			value:      action.value,
			label:      action.label,
			selectable: true,
		})
	}
	return rows
}

func (d *Dashboard) currentFilterRow() (filterRow, bool) {
	rows := d.filterRows()
	if d.facets.cursor < 0 || d.facets.cursor >= len(rows) {
		return filterRow{}, false
	}
	return rows[d.facets.cursor], true
}

func (d *Dashboard) moveFilterCursor(delta int) {
	rows := d.filterRows()
	if len(rows) == 0 {
		d.facets.cursor = 0
		return
	}
	cursor := d.facets.cursor
	for i := 0; i < len(rows); i++ {
		cursor += delta
		if cursor < 0 {
			cursor = len(rows) - 1
		} else if cursor >= len(rows) {
			cursor = 0
		}
		if rows[cursor].selectable {
			d.facets.cursor = cursor
			return
		}
	}
}

func (d *Dashboard) ensureFilterCursor() {
	rows := d.filterRows()
	if d.facets.cursor >= 0 && d.facets.cursor < len(rows) && rows[d.facets.cursor].selectable {
		return
	}
	for i, row := range rows {
		if row.selectable {
			d.facets.cursor = i
			return
		}
	}
	d.facets.cursor = 0
}

func checkbox(selected bool) string {
	if selected {
		return "[x]"
	}
	return "[ ]"
}
