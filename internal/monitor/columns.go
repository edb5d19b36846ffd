package monitor

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cribeiro84/prhub/internal/config"
	"github.com/cribeiro84/prhub/internal/hub"
	"github.com/cribeiro84/prhub/internal/model"
)

type ColumnID string

const (
	ColIndex    ColumnID = "index"
	ColID       ColumnID = "id"
	ColRepo     ColumnID = "repo"
	ColTitle    ColumnID = "title"
	ColAuthor   ColumnID = "author"
	ColBranches ColumnID = "branches"
	ColStatus   ColumnID = "status"
	ColVotes    ColumnID = "votes"
	ColComments ColumnID = "comments"
	ColNew      ColumnID = "new"
	ColDraft    ColumnID = "draft"
	ColCreated  ColumnID = "created"
)

type ColumnDef struct {
	ID       ColumnID
	Header   string
	Width    int
	Flexible bool
}

var columnRegistry = map[ColumnID]ColumnDef{
	ColIndex:    {ID: ColIndex, Header: "#", Width: 3},
	ColID:       {ID: ColID, Header: "ID", Width: 7},
	ColRepo:     {ID: ColRepo, Header: "REPO", Width: 14},
	ColTitle:    {ID: ColTitle, Header: "TITLE", Width: 12, Flexible: true},
	ColAuthor:   {ID: ColAuthor, Header: "AUTHOR", Width: 14},
	ColBranches: {ID: ColBranches, Header: "BRANCHES", Width: 26},
	ColStatus:   {ID: ColStatus, Header: "STATUS", Width: 8},
	ColVotes:    {ID: ColVotes, Header: "VOTES", Width: 9},
	ColComments: {ID: ColComments, Header: "CMTS", Width: 5},
	ColNew:      {ID: ColNew, Header: "NEW", Width: 3},
	ColDraft:    {ID: ColDraft, Header: "DRAFT", Width: 5},
	ColCreated:  {ID: ColCreated, Header: "CREATED", Width: 7},
}

var defaultColumns = []ColumnID{
	ColIndex,
	ColID,
	ColRepo,
	ColTitle,
	ColAuthor,
	ColBranches,
	ColStatus,
	ColVotes,
	ColComments,
	ColNew,
	ColDraft,
	ColCreated,
}

func GetColumnDef(id ColumnID) (ColumnDef, bool) {
	def, ok := columnRegistry[id]
	return def, ok
}

func DefaultColumns() []ColumnID {
	return defaultColumns
}

// LoadColumns returns the configured columns, ignoring unknown names.
func LoadColumns(cfg *config.Config) []ColumnID {
	if cfg == nil || len(cfg.Monitor.Columns) == 0 {
		return defaultColumns
	}
	cols := make([]ColumnID, 0, len(cfg.Monitor.Columns))
	for _, name := range cfg.Monitor.Columns {
		id := ColumnID(name)
		if _, ok := columnRegistry[id]; ok {
			cols = append(cols, id)
		}
	}
	if len(cols) == 0 {
		return defaultColumns
	}
	return cols
}

func GetColumnValue(col ColumnID, row *hub.Row, now time.Time) string {
	if row == nil {
		return "-"
	}
	switch col {
	case ColIndex:
		return fmt.Sprintf("%d", row.Index)
	case ColID:
		return fmt.Sprintf("!%d", row.ID)
	case ColRepo:
		return row.Repository.Name
	case ColTitle:
		return row.Title
	case ColAuthor:
		return row.Author.DisplayName
	case ColBranches:
		return row.SourceBranch + " → " + row.TargetBranch
	case ColStatus:
		if row.Loading {
			return "loading"
		}
		return string(row.Status.Severity)
	case ColVotes:
		return formatVotes(row.Reviewers)
	case ColComments:
		if row.TotalComments == 0 {
			return "-"
		}
		return fmt.Sprintf("%d/%d", row.TerminatedComments, row.TotalComments)
	case ColNew:
		if row.HasNewChanges {
			return "●"
		}
		return ""
	case ColDraft:
		if row.IsDraft {
			return "draft"
		}
		return ""
	case ColCreated:
		return formatRelativeTime(row.CreatedAt, now)
	default:
		return "-"
	}
}

func GetColumnStyle(col ColumnID, row *hub.Row, styles *Styles, isHeader bool) lipgloss.Style {
	if isHeader {
		return styles.Header
	}
	if row == nil {
		return styles.Text
	}
	switch col {
	case ColStatus:
		if row.Loading {
			return styles.Faint
		}
		return styles.SeverityStyle(row.Status.Severity)
	case ColNew:
		return styles.New
	case ColDraft:
		return styles.Draft
	}
	return styles.Text
}

// formatVotes renders approval, waiting and rejection counts, e.g. "+2 ~1 -0".
func formatVotes(reviewers []model.Reviewer) string {
	var approved, waiting, rejected int
	for _, r := range reviewers {
		switch {
		case r.Vote.IsApproval():
			approved++
		case r.Vote == model.VoteWaitingForAuthor:
			waiting++
		case r.Vote == model.VoteRejected:
			rejected++
		}
	}
	return fmt.Sprintf("+%d ~%d -%d", approved, waiting, rejected)
}
