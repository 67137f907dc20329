package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Network-Weather/asndb"
)

func newExportCmd() *cobra.Command {
	var dbPath, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "export all ranges as TSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := asndb.Open(dbPath)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return db.ExportRangesTSV(w)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "asndb.bin", "database file")
	cmd.Flags().StringVar(&out, "out", "-", "output file, - for stdout")
	return cmd
}
