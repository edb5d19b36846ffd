package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cribeiro84/prhub/internal/model"
)

type projectsOptions struct {
	Repos bool
}

func newProjectsCmd() *cobra.Command {
	opts := &projectsOptions{}

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the organization's projects",
		Long: `List the projects of the organization, or with --repos the repositories
of the selected projects.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjects(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Repos, "repos", false, "List repositories of the selected projects")

	return cmd
}

type projectOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type repositoryOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Project string `json:"project"`
}

func runProjects(cmd *cobra.Command, opts *projectsOptions) error {
	a, err := newApp("")
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if !opts.Repos {
		projects, err := a.gw.ListProjects(ctx)
		if err != nil {
			return err
		}
		if globalOpts.JSON {
			items := make([]projectOutput, 0, len(projects))
			for _, p := range projects {
				items = append(items, projectOutput{ID: p.ID, Name: p.Name})
			}
			return encodeItems(items)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		if !globalOpts.TSV {
			fmt.Fprintln(tw, "ID\tNAME")
		}
		for _, p := range projects {
			fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Name)
		}
		return tw.Flush()
	}

	projects := a.query(model.StateActive).Projects
	if len(projects) == 0 {
		return fmt.Errorf("no projects selected (use --project or \"prhub prefs set projects ...\")")
	}
	var repos []model.Repository
	for _, project := range projects {
		list, err := a.gw.ListRepositories(ctx, project)
		if err != nil {
			return err
		}
		repos = append(repos, list...)
	}
	if globalOpts.JSON {
		items := make([]repositoryOutput, 0, len(repos))
		for _, r := range repos {
			items = append(items, repositoryOutput{ID: r.ID, Name: r.Name, Project: r.Project.Name})
		}
		return encodeItems(items)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if !globalOpts.TSV {
		fmt.Fprintln(tw, "PROJECT\tID\tNAME")
	}
	for _, r := range repos {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Project.Name, r.ID, r.Name)
	}
	return tw.Flush()
}

func encodeItems[T any](items []T) error {
	output := struct {
		OK    bool `json:"ok"`
		Items []T  `json:"items"`
	}{OK: true, Items: items}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
