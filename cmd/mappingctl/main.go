// Command mappingctl runs the mapping engine offline against JSON catalog
// fixtures: import and export attribute mappings, validate default categories.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts globalOptions
	root := &cobra.Command{
		Use:           "mappingctl",
		Short:         "Offline catalog mapping tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "Catalog fixture JSON (required)")
	root.PersistentFlags().StringVar(&opts.db, "db", ":memory:", "SQLite database holding saved mappings")
	root.PersistentFlags().StringVar(&opts.master, "master-shop", "", "Master shop id (default: the only one in the catalog)")
	root.PersistentFlags().StringVar(&opts.target, "target-shop", "", "Target shop id (default: the only one in the catalog)")
	root.PersistentFlags().StringVar(&opts.policy, "policy", "", "Mapping policy YAML")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Log engine activity to stderr")
	_ = root.MarkPersistentFlagRequired("catalog")

	root.AddCommand(newImportCmd(&opts), newExportCmd(&opts), newValidateCmd(&opts))
	return root
}
