package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cribeiro84/prhub/internal/azdo"
	"github.com/cribeiro84/prhub/internal/config"
	"github.com/cribeiro84/prhub/internal/hub"
	"github.com/cribeiro84/prhub/internal/logging"
	"github.com/cribeiro84/prhub/internal/model"
	"github.com/cribeiro84/prhub/internal/prefs"
	"github.com/cribeiro84/prhub/internal/store"
	"github.com/cribeiro84/prhub/internal/store/file"
)

// Exit codes
const (
	ExitOK            = 0
	ExitNotFound      = 2
	ExitAuthError     = 3
	ExitInternalError = 10
)

// GlobalOptions holds options shared across all commands
type GlobalOptions struct {
	Org      string
	Projects []string
	JSON     bool
	TSV      bool
	Quiet    bool
	LogLevel string
	Storage  string
}

var globalOpts = &GlobalOptions{}

// errPullRequestNotFound is returned when an id is not among the listed pull requests.
var errPullRequestNotFound = errors.New("pull request not found")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "prhub",
	Short: "Azure DevOps pull request hub",
	Long: `prhub lists the pull requests of one or more Azure DevOps projects with
an aggregate review status per pull request, combining votes, required
reviewers, branch policies and merge conflicts.

Use "prhub hub" for the interactive dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.Org, "org", "", "Organization URL (or set PRHUB_ORG_URL)")
	rootCmd.PersistentFlags().StringSliceVarP(&globalOpts.Projects, "project", "p", nil, "Project to include (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.JSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.TSV, "tsv", false, "Output in TSV format (for fzf)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.Quiet, "quiet", false, "Suppress human-readable output")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogLevel, "log-level", "", "Log level (error|warn|info|debug)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.Storage, "storage", "", "Path to the local storage file (or set PRHUB_STORAGE)")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newFacetsCmd())
	rootCmd.AddCommand(newOpenCmd())
	rootCmd.AddCommand(newPrefsCmd())
	rootCmd.AddCommand(newProjectsCmd())
	rootCmd.AddCommand(newHubCmd())
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error returned by a command onto the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, azdo.ErrUnauthorized), errors.Is(err, azdo.ErrTokenExpired):
		return ExitAuthError
	case errors.Is(err, azdo.ErrNotFound), errors.Is(err, errPullRequestNotFound):
		return ExitNotFound
	default:
		return ExitInternalError
	}
}

// gateway is the Azure DevOps surface the commands use.
type gateway interface {
	hub.Gateway
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListRepositories(ctx context.Context, project string) ([]model.Repository, error)
}

// newGateway builds the Azure DevOps client; tests replace it with a fake.
var newGateway = func(cfg *config.Config, log *zap.SugaredLogger) (gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := azdo.NewClient(cfg.OrgURL, azdo.StaticToken(cfg.Token), azdo.Options{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// loadConfig loads configuration and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if globalOpts.Org != "" {
		cfg.OrgURL = config.NormalizeOrgURL(globalOpts.Org)
	}
	if len(globalOpts.Projects) > 0 {
		cfg.Projects = globalOpts.Projects
	}
	if globalOpts.LogLevel != "" {
		cfg.LogLevel = globalOpts.LogLevel
	}
	if globalOpts.Storage != "" {
		cfg.StoragePath = config.ExpandPath(globalOpts.Storage, "")
	}
	return cfg, nil
}

// getStore returns the local storage described by cfg.
func getStore(cfg *config.Config) (store.Store, error) {
	path := cfg.StoragePath
	if path == "" {
		def, err := file.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolving storage path: %w", err)
		}
		path = def
	}
	return file.New(path)
}

// app bundles what the pull request commands share.
type app struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	store  store.Store
	prefs  *prefs.Preferences
	visits *prefs.Visits
	gw     gateway
	loader *hub.Loader
}

// newApp wires configuration, logging, storage and the gateway. A non-empty
// logPath sends logs to that file instead of stderr.
func newApp(logPath string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var log *zap.SugaredLogger
	if logPath != "" {
		log, err = logging.NewFile(cfg.LogLevel, logPath)
	} else {
		log, err = logging.New(cfg.LogLevel)
	}
	if err != nil {
		return nil, err
	}

	st, err := getStore(cfg)
	if err != nil {
		return nil, err
	}

	gw, err := newGateway(cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		store: st,
		prefs: prefs.Load(st),
		gw:    gw,
	}
	if cfg.TrackVisits {
		a.visits = prefs.NewVisits(st)
	}
	a.loader = hub.NewLoader(gw, hub.LoaderOptions{
		Visits: a.visits,
		Logger: log,
	})
	return a, nil
}

// query builds the refresh query for a tab. Projects come from the flags
// or config, then from the saved preference.
func (a *app) query(state model.PullRequestState) hub.Query {
	return hub.QueryFor(a.prefs, state, a.cfg.Projects)
}

// refresh runs one full refresh and returns the rows and the current user id.
func (a *app) refresh(ctx context.Context, state model.PullRequestState) ([]hub.Row, string, error) {
	user, err := a.loader.CurrentUser(ctx)
	if err != nil {
		return nil, "", err
	}
	if _, err := a.loader.Refresh(ctx, a.query(state)); err != nil {
		if errors.Is(err, hub.ErrNoProjects) {
			return nil, "", fmt.Errorf("%w (use --project, set PRHUB_PROJECTS, or run \"prhub prefs set projects ...\")", err)
		}
		return nil, "", err
	}
	return a.loader.Rows(), user.ID, nil
}

// parseTab validates a tab name.
func parseTab(raw string) (model.PullRequestState, error) {
	switch model.PullRequestState(raw) {
	case "":
		return model.StateActive, nil
	case model.StateActive, model.StateCompleted, model.StateAbandoned:
		return model.PullRequestState(raw), nil
	default:
		return "", fmt.Errorf("invalid tab %q (valid: active, completed, abandoned)", raw)
	}
}
