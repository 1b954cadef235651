package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/registry"
	"github.com/packdex/packdex-server/internal/resolver"
)

// localTenant is the tenant every packctl search runs as.
const localTenant = "packctl"

func searchCmd() *cobra.Command {
	var (
		kind  string
		limit int
		floor float64
	)

	cmd := &cobra.Command{
		Use:   "search <manifest> <query>...",
		Short: "Run a fuzzy search against a single manifest",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if floor < 0 || floor > 100 {
				return fmt.Errorf("floor must be in (0, 100], got %v", floor)
			}
			q := resolver.Query{
				Text: strings.Join(args[1:], " "),
				Kind: domain.EntityKind(kind),
			}
			opts := resolver.Options{AcceptanceFloor: floor, MaxPageSize: max(limit, resolver.DefaultMaxPageSize)}
			return runSearch(cmd, args[0], q, limit, opts)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "restrict to media or character")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of results to print")
	cmd.Flags().Float64Var(&floor, "floor", 0, "minimum similarity in (0, 100]; 0 uses the default of 65")
	return cmd
}

func runSearch(cmd *cobra.Command, path string, q resolver.Query, limit int, opts resolver.Options) error {
	// The manifest stands in as the built-in catalog so it is enabled without an install.
	p, err := catalog.LoadFile(path, domain.PackKindBuiltin, catalog.BuildOptions{})
	if err != nil {
		return err
	}
	reg, err := registry.New(p, registry.Options{})
	if err != nil {
		return err
	}

	res, err := resolver.New(reg, opts).Find(cmd.Context(), localTenant, q, resolver.Page{Limit: limit})
	if err != nil {
		return err
	}
	printHits(cmd.OutOrStdout(), res)
	return nil
}

func printHits(out io.Writer, res *resolver.FindResult) {
	if len(res.Items) == 0 {
		fmt.Fprintf(out, "no match (%s)\n", res.Status)
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tID\tKIND\tNAME")
	for _, h := range res.Items {
		name := ""
		if names := h.Entity.DisplayNames(); len(names) > 0 {
			name = names[0]
		}
		fmt.Fprintf(w, "%.1f\t%s\t%s\t%s\n", h.Score, h.Entity.CompositeID(), h.Entity.EntityKind(), name)
	}
	_ = w.Flush()

	if res.Partial {
		fmt.Fprintln(out, "(search budget exhausted; results may be incomplete)")
	}
}
