package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cribeiro84/prhub/internal/config"
	"github.com/cribeiro84/prhub/internal/model"
	"github.com/cribeiro84/prhub/internal/monitor"
)

type hubOptions struct {
	Tab string
}

func newHubCmd() *cobra.Command {
	opts := &hubOptions{}

	cmd := &cobra.Command{
		Use:     "hub",
		Aliases: []string{"monitor"},
		Short:   "Interactive pull request dashboard",
		Long: `Interactive dashboard over the pull requests of the selected projects.

Statuses update as the details of each pull request arrive. Logs are written
to prhub.log in the user cache directory while the dashboard runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHub(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Tab, "tab", string(model.StateActive), "Initial tab (active|completed|abandoned)")

	return cmd
}

func runHub(opts *hubOptions) error {
	state, err := parseTab(opts.Tab)
	if err != nil {
		return err
	}

	a, err := newApp(filepath.Join(config.StateDir(), "prhub.log"))
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	m := monitor.New(monitor.Options{
		Loader:          a.loader,
		Store:           a.store,
		Prefs:           a.prefs,
		Visits:          a.visits,
		Projects:        a.cfg.Projects,
		State:           state,
		Columns:         monitor.LoadColumns(a.cfg),
		RefreshInterval: a.cfg.RefreshInterval,
		Logger:          a.log,
	})
	a.log.Infow("starting dashboard", "tab", state, "projects", a.query(state).Projects)
	return m.RunDashboard()
}
