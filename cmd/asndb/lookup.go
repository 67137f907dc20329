package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Network-Weather/asndb"
)

func newLookupCmd() *cobra.Command {
	var dbPath, triePath string

	cmd := &cobra.Command{
		Use:   "lookup <ip>",
		Short: "look up the ASN and org name for an IP address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := asndb.OpenWithTrie(dbPath, triePath)
			if err != nil {
				return err
			}

			asn, name, ok := db.LookupV4(args[0])
			if !ok {
				asn, name, ok = db.LookupV6(args[0])
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no match")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "asn=%d org=%q\n", asn, name)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "asndb.bin", "IPv4 database file")
	cmd.Flags().StringVar(&triePath, "trie", "", "CIDR/IPv6 trie database file (optional)")
	return cmd
}
