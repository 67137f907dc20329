// Package feed parses the upstream ip2asn TSV feed consumed by the build
// pipeline.
package feed

import (
	"bufio"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/Network-Weather/asndb"
)

// ParseTSV reads a TSV stream with five tab-separated fields per line:
//
//	start_ip  end_ip  asn  country_code  org_name
//
// Lines that fail to parse are skipped silently, matching the upstream
// feed's own tolerance for partially malformed rows. country_code is read
// and discarded: it is opaque to the core lookup. An "AS" prefix on the
// asn field is stripped before parsing, as the feed sometimes uses it.
func ParseTSV(r io.Reader) ([]asndb.Record, error) {
	var records []asndb.Record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			continue
		}

		start, err := asndb.ParseIPv4String(fields[0])
		if err != nil {
			continue
		}
		end, err := asndb.ParseIPv4String(fields[1])
		if err != nil {
			continue
		}
		if start > end {
			continue
		}

		asnField := strings.TrimPrefix(strings.TrimSpace(fields[2]), "AS")
		asn64, err := strconv.ParseUint(asnField, 10, 32)
		if err != nil {
			continue
		}

		records = append(records, asndb.Record{
			Start: start,
			End:   end,
			ASN:   uint32(asn64),
			Name:  strings.TrimSpace(fields[4]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ParseCIDRTSV reads a TSV stream with three tab-separated fields per line:
//
//	cidr  asn  org_name
//
// This is the delegation-file shape IPv6 and other CIDR-keyed ASN data is
// normally published in, as opposed to the start/end-range shape ParseTSV
// reads for legacy IPv4 allocations. Lines that fail to parse are skipped
// silently, matching ParseTSV's tolerance for malformed rows. An "AS" prefix
// on the asn field is stripped before parsing.
func ParseCIDRTSV(r io.Reader) ([]asndb.CIDRRecord, error) {
	var records []asndb.CIDRRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			continue
		}

		prefix, err := netip.ParsePrefix(fields[0])
		if err != nil {
			continue
		}

		asnField := strings.TrimPrefix(strings.TrimSpace(fields[1]), "AS")
		asn64, err := strconv.ParseUint(asnField, 10, 32)
		if err != nil {
			continue
		}

		records = append(records, asndb.CIDRRecord{
			Prefix: prefix.Masked(),
			ASN:    uint32(asn64),
			Name:   strings.TrimSpace(fields[2]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
