package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cribeiro84/prhub/internal/model"
	"github.com/cribeiro84/prhub/internal/monitor"
)

type openOptions struct {
	Tab       string
	PrintOnly bool
}

func newOpenCmd() *cobra.Command {
	opts := &openOptions{}

	cmd := &cobra.Command{
		Use:   "open ID",
		Short: "Open a pull request in the browser",
		Long: `Open a pull request and record the visit, so later listings only flag
changes made after now.

The browser is launched when the open_in_new_window preference is set;
the URL is always printed.

Examples:
  prhub open 4211
  prhub open '!4211' --print`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Tab, "tab", string(model.StateActive), "Pull request state to search (active|completed|abandoned)")
	cmd.Flags().BoolVar(&opts.PrintOnly, "print", false, "Only print the URL and record the visit")

	return cmd
}

// parsePullRequestID accepts "4211" and "!4211".
func parsePullRequestID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(raw), "!"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid pull request id %q", raw)
	}
	return id, nil
}

func runOpen(cmd *cobra.Command, raw string, opts *openOptions) error {
	id, err := parsePullRequestID(raw)
	if err != nil {
		return err
	}
	state, err := parseTab(opts.Tab)
	if err != nil {
		return err
	}

	a, err := newApp("")
	if err != nil {
		return err
	}

	mopts := monitor.Options{
		Loader:   a.loader,
		Store:    a.store,
		Prefs:    a.prefs,
		Visits:   a.visits,
		Projects: a.cfg.Projects,
		State:    state,
		Logger:   a.log,
	}
	if opts.PrintOnly {
		mopts.Browser = func(string) error { return nil }
	}
	m := monitor.New(mopts)

	rows, err := m.Refresh(cmd.Context())
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.ID != id {
			continue
		}
		url, err := m.Open(row)
		if err != nil {
			return err
		}
		if globalOpts.JSON {
			output := struct {
				OK  bool   `json:"ok"`
				ID  int    `json:"id"`
				URL string `json:"url"`
			}{OK: true, ID: id, URL: url}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(output)
		}
		fmt.Println(url)
		return nil
	}
	return fmt.Errorf("%w: !%d in %s pull requests", errPullRequestNotFound, id, state)
}
