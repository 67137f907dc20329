package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Network-Weather/asndb"
)

func newStatsCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "print summary statistics for a database file",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := asndb.Open(dbPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "entries=%d unique_asns=%d address_span=%s unrouted_span=%s\n",
				db.EntryCount(), db.UniqueASNCount(), db.AddressSpan().Big(), db.UnroutedSpan().Big())
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "asndb.bin", "database file")
	return cmd
}
