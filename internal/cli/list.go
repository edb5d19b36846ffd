package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cribeiro84/prhub/internal/git"
	"github.com/cribeiro84/prhub/internal/hub"
	"github.com/cribeiro84/prhub/internal/model"
	"github.com/cribeiro84/prhub/internal/monitor"
	"github.com/cribeiro84/prhub/internal/prefs"
)

type listOptions struct {
	Query     string
	Repos     []string
	Sources   []string
	Targets   []string
	Authors   []string
	Reviewers []string
	MyVotes   []string
	Draft     string
	Tab       string
	Sort      string
	Here      bool
}

func newListCmd() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List pull requests",
		Long: `List pull requests with their aggregate status.

Filters combine with AND; values of one filter combine with OR. Repositories,
authors and reviewers match by id or display name.

Examples:
  prhub list -p Platform --my-vote novote
  prhub list --tab completed --author "Ana Lima" --json
  prhub list --query '/^(fix|hotfix)/' --draft false
  prhub list --here          # the checkout's repository and branch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "Title filter (substring or /regex/)")
	cmd.Flags().StringSliceVar(&opts.Repos, "repo", nil, "Filter by repository")
	cmd.Flags().StringSliceVar(&opts.Sources, "source", nil, "Filter by source branch")
	cmd.Flags().StringSliceVar(&opts.Targets, "target", nil, "Filter by target branch")
	cmd.Flags().StringSliceVar(&opts.Authors, "author", nil, "Filter by author")
	cmd.Flags().StringSliceVar(&opts.Reviewers, "reviewer", nil, "Filter by reviewer")
	cmd.Flags().StringSliceVar(&opts.MyVotes, "my-vote", nil, "Filter by my vote (approved|suggestions|novote|waiting|rejected)")
	cmd.Flags().StringVar(&opts.Draft, "draft", "", "Filter by draft state (true|false)")
	cmd.Flags().StringVar(&opts.Tab, "tab", string(model.StateActive), "Pull request state (active|completed|abandoned)")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Sort by creation date (asc|desc, defaults to the saved preference)")
	cmd.Flags().BoolVar(&opts.Here, "here", false, "Only the repository and branch checked out in the current directory")

	return cmd
}

func runList(cmd *cobra.Command, opts *listOptions) error {
	state, err := parseTab(opts.Tab)
	if err != nil {
		return err
	}
	if err := hub.ValidateQuery(opts.Query); err != nil {
		return err
	}
	if opts.Here {
		checkout, err := inspectCheckout("")
		if err != nil {
			return err
		}
		opts.applyCheckout(checkout)
	}

	a, err := newApp("")
	if err != nil {
		return err
	}
	dir, err := prefs.ParseSortDirection(opts.Sort, a.prefs.SortDirection)
	if err != nil {
		return err
	}

	rows, me, err := a.refresh(cmd.Context(), state)
	if err != nil {
		return err
	}

	filter, err := opts.filter(hub.BuildFacets(rows))
	if err != nil {
		return err
	}
	visible := filter.Apply(rows, me)
	hub.SortRows(visible, dir)

	switch {
	case globalOpts.JSON:
		return outputJSON(os.Stdout, visible, me)
	case globalOpts.TSV:
		return outputTSV(os.Stdout, visible)
	default:
		return outputTable(os.Stdout, visible, time.Now())
	}
}

// inspectCheckout reads the local git checkout; tests replace it.
var inspectCheckout = git.Inspect

// applyCheckout scopes the listing to the checkout's repository and branch.
// The organization and project default to the checkout's remote unless set
// by flags.
func (o *listOptions) applyCheckout(c *git.Checkout) {
	if globalOpts.Org == "" {
		globalOpts.Org = c.Remote.OrgURL
	}
	if len(globalOpts.Projects) == 0 {
		globalOpts.Projects = []string{c.Remote.Project}
	}
	o.Repos = append(o.Repos, c.Remote.Repository)
	o.Sources = append(o.Sources, c.Branch)
}

// filter builds a hub.Filter from the flags, resolving display names to keys.
// Values that match no facet are kept as keys, so they match nothing.
func (o *listOptions) filter(facets hub.Facets) (hub.Filter, error) {
	f := hub.Filter{Query: strings.TrimSpace(o.Query)}
	add := func(kind model.FacetKind, values []string) {
		for _, v := range values {
			if v = strings.TrimSpace(v); v == "" {
				continue
			}
			if key, ok := facets.Resolve(kind, v); ok {
				v = key
			}
			f.Set(kind)[v] = true
		}
	}
	add(model.FacetRepository, o.Repos)
	add(model.FacetSourceBranch, o.Sources)
	add(model.FacetTargetBranch, o.Targets)
	add(model.FacetAuthor, o.Authors)
	add(model.FacetReviewer, o.Reviewers)

	for _, raw := range o.MyVotes {
		vote, err := model.ParseVote(raw)
		if err != nil {
			return hub.Filter{}, err
		}
		if f.MyVotes == nil {
			f.MyVotes = make(map[model.Vote]bool)
		}
		f.MyVotes[vote] = true
	}

	switch strings.ToLower(strings.TrimSpace(o.Draft)) {
	case "", "all":
	case "true", "yes":
		f.Draft = map[bool]bool{true: true}
	case "false", "no":
		f.Draft = map[bool]bool{false: true}
	default:
		return hub.Filter{}, fmt.Errorf("invalid draft filter %q (valid: true, false, all)", o.Draft)
	}
	return f, nil
}

type reviewerOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Vote       string `json:"vote"`
	IsRequired bool   `json:"is_required,omitempty"`
}

type rowOutput struct {
	ID                 int              `json:"id"`
	Title              string           `json:"title"`
	Project            string           `json:"project"`
	Repository         string           `json:"repository"`
	State              string           `json:"state"`
	IsDraft            bool             `json:"is_draft"`
	Author             string           `json:"author"`
	SourceBranch       string           `json:"source_branch"`
	TargetBranch       string           `json:"target_branch"`
	CreatedAt          string           `json:"created_at"`
	Status             string           `json:"status"`
	Severity           string           `json:"severity"`
	MyVote             string           `json:"my_vote,omitempty"`
	Reviewers          []reviewerOutput `json:"reviewers"`
	AutoComplete       bool             `json:"auto_complete"`
	LastCommitID       string           `json:"last_commit_id,omitempty"`
	TotalComments      int              `json:"total_comments"`
	TerminatedComments int              `json:"terminated_comments"`
	WorkItems          int              `json:"work_items"`
	Labels             []string         `json:"labels,omitempty"`
	HasNewChanges      bool             `json:"has_new_changes"`
	URL                string           `json:"url"`
}

func toRowOutput(r hub.Row, me string) rowOutput {
	out := rowOutput{
		ID:                 r.ID,
		Title:              r.Title,
		Project:            r.Repository.Project.Name,
		Repository:         r.Repository.Name,
		State:              string(r.State),
		IsDraft:            r.IsDraft,
		Author:             r.Author.DisplayName,
		SourceBranch:       r.SourceBranch,
		TargetBranch:       r.TargetBranch,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		Status:             r.Status.Label,
		Severity:           string(r.Status.Severity),
		Reviewers:          make([]reviewerOutput, 0, len(r.Reviewers)),
		AutoComplete:       r.AutoComplete,
		LastCommitID:       r.LastCommitID,
		TotalComments:      r.TotalComments,
		TerminatedComments: r.TerminatedComments,
		WorkItems:          r.WorkItems,
		Labels:             r.Labels,
		HasNewChanges:      r.HasNewChanges,
		URL:                r.Links.PullRequest,
	}
	if vote, ok := r.VoteOf(me); ok {
		out.MyVote = vote.Short()
	}
	for _, rv := range r.Reviewers {
		out.Reviewers = append(out.Reviewers, reviewerOutput{
			ID:         rv.ID,
			Name:       rv.DisplayName,
			Vote:       rv.Vote.Short(),
			IsRequired: rv.IsRequired,
		})
	}
	return out
}

func outputJSON(w io.Writer, rows []hub.Row, me string) error {
	output := struct {
		OK    bool        `json:"ok"`
		Items []rowOutput `json:"items"`
	}{
		OK:    true,
		Items: make([]rowOutput, len(rows)),
	}
	for i, r := range rows {
		output.Items[i] = toRowOutput(r, me)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// TSV columns (fixed order):
// id, repository, severity, status, is_draft, author, source_branch, target_branch, created_at, title, url
func outputTSV(w io.Writer, rows []hub.Row) error {
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Repository.Name,
			r.Status.Severity,
			r.Status.Label,
			r.IsDraft,
			r.Author.DisplayName,
			r.SourceBranch,
			r.TargetBranch,
			r.CreatedAt.Format(time.RFC3339),
			tsvField(r.Title),
			r.Links.PullRequest,
		)
	}
	return nil
}

func tsvField(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ").Replace(s)
}

func outputTable(w io.Writer, rows []hub.Row, now time.Time) error {
	if len(rows) == 0 {
		if !globalOpts.Quiet {
			fmt.Fprintln(w, "No pull requests found")
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREPO\tSTATUS\tTITLE\tAUTHOR\tBRANCHES\tCREATED")

	for _, r := range rows {
		title := r.Title
		if r.IsDraft {
			title = "[draft] " + title
		}
		if len([]rune(title)) > 50 {
			title = string([]rune(title)[:47]) + "..."
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Repository.Name,
			colorSeverity(r.Status.Severity),
			title,
			r.Author.DisplayName,
			r.SourceBranch+" -> "+r.TargetBranch,
			r.CreatedAt.In(now.Location()).Format("01-02 15:04"),
		)
	}

	return tw.Flush()
}

var severityStyles = monitor.DefaultStyles()

func colorSeverity(sev model.Severity) string {
	return severityStyles.SeverityStyle(sev).Render(string(sev))
}
