package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Network-Weather/asndb"
	"github.com/Network-Weather/asndb/internal/feed"
)

func newBuildCmd() *cobra.Command {
	var feedPath, out string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "build a database file from an ip2asn TSV feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(feedPath)
			if err != nil {
				return err
			}
			defer f.Close()

			records, err := feed.ParseTSV(f)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no usable records parsed from %s", feedPath)
			}

			if err := asndb.Build(records, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d ranges to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&feedPath, "feed", "ip2asn-combined.tsv", "path to the ip2asn TSV feed")
	cmd.Flags().StringVar(&out, "out", "asndb.bin", "output database file")
	return cmd
}
