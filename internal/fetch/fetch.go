// Package fetch downloads the upstream ip2asn TSV feed and hands parsed
// records to the build pipeline.
package fetch

import (
	"compress/gzip"
	"fmt"
	"os"

	"github.com/cavaliergopher/grab/v3"

	"github.com/Network-Weather/asndb"
	"github.com/Network-Weather/asndb/internal/feed"
)

const defaultFeedURL = "https://iptoasn.com/data/ip2asn-combined.tsv.gz"

// Update downloads the feed from url (defaultFeedURL if empty) into destDir,
// decompresses it, parses the records, and returns them. Set the
// IP2ASN_PRODUCTION environment variable to "TRUE" to perform the network
// fetch; otherwise Update expects an already-downloaded
// ip2asn-combined.tsv.gz in destDir.
func Update(destDir, url string) ([]asndb.Record, error) {
	if url == "" {
		url = defaultFeedURL
	}
	gzPath := destDir + "/ip2asn-combined.tsv.gz"

	if os.Getenv("IP2ASN_PRODUCTION") == "TRUE" {
		resp, err := grab.Get(destDir, url)
		if err != nil {
			return nil, fmt.Errorf("fetch: download %s: %w", url, err)
		}
		gzPath = resp.Filename
	} else if _, err := os.Stat(gzPath); err != nil {
		return nil, fmt.Errorf("fetch: %s not found and IP2ASN_PRODUCTION is not set: %w", gzPath, err)
	}

	gz, err := os.Open(gzPath)
	if err != nil {
		return nil, fmt.Errorf("fetch: open %s: %w", gzPath, err)
	}
	defer gz.Close()

	gzr, err := gzip.NewReader(gz)
	if err != nil {
		return nil, fmt.Errorf("fetch: gzip reader: %w", err)
	}
	defer gzr.Close()

	records, err := feed.ParseTSV(gzr)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse feed: %w", err)
	}
	return records, nil
}
