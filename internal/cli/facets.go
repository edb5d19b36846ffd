package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cribeiro84/prhub/internal/hub"
	"github.com/cribeiro84/prhub/internal/model"
)

type facetsOptions struct {
	Tab  string
	Kind string
}

func newFacetsCmd() *cobra.Command {
	opts := &facetsOptions{}

	cmd := &cobra.Command{
		Use:   "facets",
		Short: "List filterable values of the loaded pull requests",
		Long: `List the distinct repositories, branches, authors and reviewers of the
pull requests in a tab. The keys are accepted by the list filters.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFacets(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Tab, "tab", string(model.StateActive), "Pull request state (active|completed|abandoned)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Only this facet (repository|source|target|author|reviewer)")

	return cmd
}

func runFacets(cmd *cobra.Command, opts *facetsOptions) error {
	state, err := parseTab(opts.Tab)
	if err != nil {
		return err
	}
	kinds, err := facetKinds(opts.Kind)
	if err != nil {
		return err
	}

	a, err := newApp("")
	if err != nil {
		return err
	}
	rows, _, err := a.refresh(cmd.Context(), state)
	if err != nil {
		return err
	}
	return outputFacets(os.Stdout, hub.BuildFacets(rows), kinds)
}

func facetKinds(raw string) ([]model.FacetKind, error) {
	if raw == "" {
		return model.FacetKinds, nil
	}
	for _, kind := range model.FacetKinds {
		if string(kind) == raw {
			return []model.FacetKind{kind}, nil
		}
	}
	return nil, fmt.Errorf("invalid facet kind %q (valid: repository, source, target, author, reviewer)", raw)
}

func outputFacets(w io.Writer, facets hub.Facets, kinds []model.FacetKind) error {
	if globalOpts.JSON {
		type valueOutput struct {
			Key   string `json:"key"`
			Label string `json:"label"`
		}
		output := struct {
			OK     bool                     `json:"ok"`
			Facets map[string][]valueOutput `json:"facets"`
		}{
			OK:     true,
			Facets: make(map[string][]valueOutput, len(kinds)),
		}
		for _, kind := range kinds {
			values := make([]valueOutput, 0)
			for _, v := range facets.Values(kind) {
				values = append(values, valueOutput{Key: v.Key, Label: v.Label})
			}
			output.Facets[string(kind)] = values
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	if globalOpts.TSV {
		for _, kind := range kinds {
			for _, v := range facets.Values(kind) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", kind, v.Key, v.Label)
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tKEY\tLABEL")
	for _, kind := range kinds {
		for _, v := range facets.Values(kind) {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", kind, v.Key, v.Label)
		}
	}
	return tw.Flush()
}
