package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Network-Weather/asndb"
	"github.com/Network-Weather/asndb/internal/feed"
)

func newBuildTrieCmd() *cobra.Command {
	var feedPath, out string

	cmd := &cobra.Command{
		Use:   "build-trie",
		Short: "build a CIDR/IPv6 trie database from a prefix-keyed feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(feedPath)
			if err != nil {
				return err
			}
			defer f.Close()

			records, err := feed.ParseCIDRTSV(f)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no usable records parsed from %s", feedPath)
			}

			if err := asndb.BuildTrie(records, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d prefixes to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&feedPath, "feed", "ip2asn-cidr.tsv", "path to the prefix-keyed CIDR/IPv6 feed")
	cmd.Flags().StringVar(&out, "out", "asndb-trie.bin", "output trie database file")
	return cmd
}
