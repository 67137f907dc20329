// Command asndb builds, queries, and exports IP-to-ASN lookup databases.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "asndb",
		Short: "build and query IP-to-ASN lookup databases",
	}
	root.AddCommand(
		newBuildCmd(),
		newBuildTrieCmd(),
		newLookupCmd(),
		newStatsCmd(),
		newExportCmd(),
		newUpdateCmd(),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
