// Package main provides packctl, a command-line tool for pack authors.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "packctl",
		Short:         "Validate and try out Packdex pack manifests",
		SilenceUsage:  true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(validateCmd())
	root.AddCommand(searchCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
