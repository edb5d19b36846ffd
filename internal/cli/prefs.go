package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cribeiro84/prhub/internal/prefs"
	"github.com/cribeiro84/prhub/internal/store"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change saved preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openPrefsStore()
			if err != nil {
				return err
			}
			return outputPrefs(os.Stdout, prefs.Load(st))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a preference",
		Long: `Set a preference.

Keys: ` + strings.Join(prefs.Fields(), ", ") + `

Examples:
  prhub prefs set sort_direction asc
  prhub prefs set projects Platform,Mobile`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openPrefsStore()
			if err != nil {
				return err
			}
			p := prefs.Load(st)
			if err := p.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := prefs.Save(st, p); err != nil {
				return err
			}
			if !globalOpts.Quiet {
				return outputPrefs(os.Stdout, p)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore default preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openPrefsStore()
			if err != nil {
				return err
			}
			if err := prefs.Reset(st); err != nil {
				return err
			}
			if !globalOpts.Quiet {
				fmt.Println("Preferences reset")
			}
			return nil
		},
	})

	return cmd
}

// openPrefsStore opens local storage without needing Azure DevOps settings.
func openPrefsStore() (store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return getStore(cfg)
}

func outputPrefs(w io.Writer, p *prefs.Preferences) error {
	if globalOpts.JSON {
		output := struct {
			OK    bool               `json:"ok"`
			Prefs *prefs.Preferences `json:"prefs"`
		}{OK: true, Prefs: p}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "default_filter_visible\t%t\n", p.DefaultFilterVisible)
	fmt.Fprintf(tw, "open_in_new_window\t%t\n", p.OpenInNewWindow)
	fmt.Fprintf(tw, "historical_limit\t%d\n", p.HistoricalLimit)
	fmt.Fprintf(tw, "sort_direction\t%s\n", p.SortDirection)
	fmt.Fprintf(tw, "projects\t%s\n", strings.Join(p.SelectedProjects, ","))
	return tw.Flush()
}
