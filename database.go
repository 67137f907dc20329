package asndb

import (
	"bufio"
	"bytes"
	"io"
	"net/netip"
	"os"
	"strconv"

	"lukechampine.com/uint128"

	"github.com/Network-Weather/asndb/internal/asntrie"
)

// ParseIPv4String parses s as a dotted-quad IPv4 address. It is exported
// for collaborators (the feed parser) that need the same strict parsing
// rules the lookup path uses.
func ParseIPv4String(s string) (uint32, error) {
	return parseIPv4(s)
}

// Database is the single lookup entry point over a loaded database: it
// picks between the range table (IPv4, disjoint ranges) and the trie
// (IPv6, CIDR inputs with possible nesting) depending on what was loaded.
//
// Apart from WithTrie, which sets the trie in place, nothing modifies a
// Database once Open/OpenBytes returns it, and its lookups are safe for
// concurrent use by multiple goroutines without synchronization.
type Database struct {
	v4   *RangeTable
	trie *asntrie.Trie // nil if the loaded file carries no IPv6/CIDR data
}

// OpenBytes loads a Database from an in-memory buffer, choosing the codec
// by magic bytes.
func OpenBytes(data []byte) (*Database, error) {
	table, err := decodeByMagic(data)
	if err != nil {
		return nil, err
	}
	return &Database{v4: table}, nil
}

// Open loads a Database from a file path.
func Open(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenBytes(data)
}

// decodeByMagic picks the codec for a raw file buffer. The fixed-width
// formats carry their magic at offset 0; the zlib-wrapped formats (ULTR,
// IP2A, and compressed ASN2) only reveal theirs after decompression, so
// an unrecognized head is inflated once and sniffed again.
func decodeByMagic(data []byte) (*RangeTable, error) {
	if len(data) < 4 {
		return nil, ErrUnsupportedFmt
	}
	if be32(data[0:4]) == magicASN2 {
		return parseASN2(data)
	}
	if le32(data[0:4]) == magicASND {
		return parseASND(data)
	}

	plain, err := decompressZlib(data)
	if err != nil {
		return nil, ErrUnsupportedFmt
	}
	if len(plain) >= 4 {
		switch {
		case string(plain[0:4]) == magicUltraCompact:
			return parseUltraCompact(plain)
		case string(plain[0:4]) == magicIP2A:
			return parseIP2A(plain)
		case be32(plain[0:4]) == magicASN2:
			return parseASN2(plain)
		}
	}
	return nil, ErrUnsupportedFmt
}

// WithTrie attaches a pre-built trie (IPv6/CIDR lookup path) to a Database.
func (db *Database) WithTrie(t *asntrie.Trie) *Database {
	db.trie = t
	return db
}

// OpenTrie loads a Trie-Compact file written by BuildTrie.
func OpenTrie(path string) (*asntrie.Trie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadTrieCompact(bytes.NewReader(data))
}

// OpenWithTrie loads a v4 range-table database from v4Path and a
// Trie-Compact CIDR/IPv6 database from triePath, combining them into a
// single Database whose LookupV4 and LookupV6 both resolve. Either path may
// be empty to load only the other side.
func OpenWithTrie(v4Path, triePath string) (*Database, error) {
	var db *Database
	if v4Path != "" {
		var err error
		db, err = Open(v4Path)
		if err != nil {
			return nil, err
		}
	} else {
		db = &Database{}
	}
	if triePath != "" {
		t, err := OpenTrie(triePath)
		if err != nil {
			return nil, err
		}
		db.WithTrie(t)
	}
	return db, nil
}

// LookupV4 looks up an IPv4 address, given either a dotted-quad string or a
// 32-bit integer in network byte order. It never returns an error for an
// unparseable string; ok is false instead.
func (db *Database) LookupV4(ip any) (asn uint32, name string, ok bool) {
	if db == nil || db.v4 == nil {
		return 0, "", false
	}
	switch v := ip.(type) {
	case uint32:
		return db.v4.Lookup(v)
	case string:
		addr, err := parseIPv4(v)
		if err != nil {
			return 0, "", false
		}
		return db.v4.Lookup(addr)
	default:
		return 0, "", false
	}
}

// LookupV6 looks up an IPv6 (or IPv4-mapped) address via the trie path.
// It returns ok=false if no trie was loaded or the address is unparseable.
func (db *Database) LookupV6(ip any) (asn uint32, name string, ok bool) {
	if db == nil || db.trie == nil {
		return 0, "", false
	}
	var addr netip.Addr
	switch v := ip.(type) {
	case netip.Addr:
		addr = v
	case string:
		parsed, err := netip.ParseAddr(v)
		if err != nil {
			return 0, "", false
		}
		addr = parsed
	default:
		return 0, "", false
	}
	entry, ok := db.trie.Lookup(addr)
	if !ok {
		return 0, "", false
	}
	return entry.ASN, entry.Name, true
}

// EntryCount returns the number of range entries in the IPv4 table.
func (db *Database) EntryCount() int {
	if db == nil {
		return 0
	}
	entries, _ := db.v4.Stats()
	return entries
}

// UniqueASNCount returns the number of distinct ASNs with a known name in
// the IPv4 table.
func (db *Database) UniqueASNCount() int {
	if db == nil {
		return 0
	}
	_, uniqueASNs := db.v4.Stats()
	return uniqueASNs
}

// AddressSpan returns the total number of IPv4 addresses covered by the
// loaded database's ranges. A 128-bit accumulator is used even for the
// IPv4-only path so the same bookkeeping code serves AddressSpan and any
// future IPv6 range accounting without overflow.
func (db *Database) AddressSpan() uint128.Uint128 {
	if db == nil || db.v4 == nil {
		return uint128.Zero
	}
	total := uint128.Zero
	for i := range db.v4.starts {
		span := uint128.From64(uint64(db.v4.ends[i]) - uint64(db.v4.starts[i]) + 1)
		total = total.Add(span)
	}
	return total
}

// UnroutedSpan returns the total number of IPv4 addresses mapped to ASN 0,
// the "not routed" sentinel.
func (db *Database) UnroutedSpan() uint128.Uint128 {
	if db == nil || db.v4 == nil {
		return uint128.Zero
	}
	total := uint128.Zero
	for i, asn := range db.v4.asns {
		if asn != 0 {
			continue
		}
		span := uint128.From64(uint64(db.v4.ends[i]) - uint64(db.v4.starts[i]) + 1)
		total = total.Add(span)
	}
	return total
}

// ExportRangesTSV writes every range in address order as
// start_ip\tend_ip\tasn\torg_name, with a header row.
func (db *Database) ExportRangesTSV(w io.Writer) error {
	if db == nil || db.v4 == nil {
		return ErrNilDatabase
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("start_ip\tend_ip\tasn\torg_name\n"); err != nil {
		return err
	}
	var line []byte
	for i, start := range db.v4.starts {
		asn := db.v4.asns[i]
		line = line[:0]
		line = append(line, formatIPv4(start)...)
		line = append(line, '\t')
		line = append(line, formatIPv4(db.v4.ends[i])...)
		line = append(line, '\t')
		line = strconv.AppendUint(line, uint64(asn), 10)
		line = append(line, '\t')
		line = append(line, db.v4.names[asn]...)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
