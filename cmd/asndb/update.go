package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Network-Weather/asndb"
	"github.com/Network-Weather/asndb/internal/fetch"
)

func newUpdateCmd() *cobra.Command {
	var destDir, feedURL, out string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "download the upstream feed and rebuild a database file",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := fetch.Update(destDir, feedURL)
			if err != nil {
				return err
			}
			if err := asndb.Build(records, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d ranges to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&destDir, "dest", ".", "directory holding (or to receive) the downloaded feed")
	cmd.Flags().StringVar(&feedURL, "url", "", "feed URL (defaults to iptoasn.com's combined feed)")
	cmd.Flags().StringVar(&out, "out", "asndb.bin", "output database file")
	return cmd
}
