package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/packdex/packdex-server/internal/catalog"
	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
	"github.com/packdex/packdex-server/internal/validation"
)

func validateCmd() *cobra.Command {
	var builtin bool

	cmd := &cobra.Command{
		Use:   "validate <manifest>...",
		Short: "Check pack manifests the way the server would on submission",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.PackKindCommunity
			if builtin {
				kind = domain.PackKindBuiltin
			}
			return runValidate(cmd.OutOrStdout(), args, kind)
		},
	}
	cmd.Flags().BoolVar(&builtin, "builtin", false, "validate as a built-in catalog (allows reserved ids)")
	return cmd
}

func runValidate(out io.Writer, paths []string, kind domain.PackKind) error {
	opts := catalog.BuildOptions{Validator: validation.New()}

	failed := 0
	for _, path := range paths {
		p, err := catalog.LoadFile(path, kind, opts)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s\n", path)
			printProblems(out, err)
			continue
		}
		info := p.Info()
		fmt.Fprintf(out, "ok   %s  %s (%d media, %d characters)\n", path, info.ID, info.MediaCount, info.CharacterCount)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d manifests failed validation", failed, len(paths))
	}
	return nil
}

func printProblems(out io.Writer, err error) {
	var domainErr *errors.Error
	if !stderrors.As(err, &domainErr) {
		fmt.Fprintf(out, "  - %v\n", err)
		return
	}

	problems, ok := domainErr.Details.(map[string]string)
	if !ok || len(problems) == 0 {
		fmt.Fprintf(out, "  - %s\n", domainErr.Message)
		return
	}
	for _, path := range slices.Sorted(maps.Keys(problems)) {
		fmt.Fprintf(out, "  - %s: %s\n", path, problems[path])
	}
}
