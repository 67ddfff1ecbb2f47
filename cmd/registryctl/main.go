// Command registryctl holds operator tasks for the document registry: schema
// migrations and development tokens.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "registryctl",
		Short:         "Operate the document registry",
		SilenceUsage:  true,
	}
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newTokenCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
