package asndb

import (
	"fmt"
	"io"
	"net/netip"
	"sort"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"

	"github.com/Network-Weather/asndb/internal/asntrie"
)

// CIDRRecord is a single prefix->asn row for the trie-backed path. Unlike
// Record's start/end IPv4 ranges, CIDRRecord carries a netip.Prefix so it
// can represent either address family and prefixes that nest or overlap;
// longest-prefix-match at lookup time resolves the nesting.
type CIDRRecord struct {
	Prefix netip.Prefix
	ASN    uint32
	Name   string
}

// Trie-Compact ("TRIE") is the on-disk format for the CIDR/IPv6 lookup
// path:
//
//	4 bytes  magic "TRIE"
//	4 bytes  LE32  prefix_count
//	4 bytes  LE32  asn_count
//	for each prefix:
//	    1 byte   family (4 or 6)
//	    4 or 16 bytes  masked address, big-endian
//	    1 byte   prefix length
//	    varint   asn
//	for each ASN (ascending):
//	    varint   asn
//	    varint   name_byte_length
//	    name_byte_length bytes of UTF-8 name
//
// The whole buffer is zlib-compressed before being written, matching the
// primary format's framing.

const magicTrieCompact = "TRIE"

// WriteTrieCompact writes records in the Trie-Compact format.
func WriteTrieCompact(w io.Writer, records []CIDRRecord) error {
	nameByASN := make(map[uint32]string, len(records)/4+1)
	for _, r := range records {
		if _, ok := nameByASN[r.ASN]; !ok {
			nameByASN[r.ASN] = r.Name
		}
	}
	asns := make([]uint32, 0, len(nameByASN))
	for asn := range nameByASN {
		asns = append(asns, asn)
	}
	sort.Slice(asns, func(i, j int) bool { return asns[i] < asns[j] })

	buf := make([]byte, 0, 12+len(records)*10)
	buf = append(buf, magicTrieCompact...)
	buf = appendLE32(buf, uint32(len(records)))
	buf = appendLE32(buf, uint32(len(asns)))

	for _, r := range records {
		addr := r.Prefix.Addr()
		if addr.Is4() {
			buf = append(buf, 4)
			b := addr.As4()
			buf = append(buf, b[:]...)
		} else {
			buf = append(buf, 6)
			b := addr.As16()
			buf = append(buf, b[:]...)
		}
		buf = append(buf, byte(r.Prefix.Bits()))
		buf = encodeVarint(buf, r.ASN)
	}

	for _, asn := range asns {
		name := nameByASN[asn]
		buf = encodeVarint(buf, asn)
		buf = encodeVarint(buf, uint32(len(name)))
		buf = append(buf, name...)
	}

	zw := zlib.NewWriter(w)
	if _, err := zw.Write(buf); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadTrieCompact decodes a database previously written by WriteTrieCompact
// into a frozen, lookup-ready Trie.
func ReadTrieCompact(r io.Reader) (*asntrie.Trie, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	buf, err := decompressZlib(compressed)
	if err != nil {
		return nil, err
	}
	if len(buf) < 12 || string(buf[0:4]) != magicTrieCompact {
		return nil, ErrInvalidFormat
	}
	prefixCount := int(le32(buf[4:8]))
	asnCount := int(le32(buf[8:12]))
	// A v4 prefix entry occupies at least 7 bytes (family, address, bits,
	// one varint byte); a claimed count past that bound cannot fit.
	if prefixCount < 0 || asnCount < 0 || prefixCount > (len(buf)-12)/7 {
		return nil, ErrInvalidFormat
	}

	type pending struct {
		prefix netip.Prefix
		asn    uint32
	}
	entries := make([]pending, prefixCount)

	off := 12
	for i := 0; i < prefixCount; i++ {
		if off >= len(buf) {
			return nil, ErrCorruptedData
		}
		family := buf[off]
		off++

		var addr netip.Addr
		switch family {
		case 4:
			if off+4 > len(buf) {
				return nil, ErrCorruptedData
			}
			addr = netip.AddrFrom4([4]byte(buf[off : off+4]))
			off += 4
		case 6:
			if off+16 > len(buf) {
				return nil, ErrCorruptedData
			}
			addr = netip.AddrFrom16([16]byte(buf[off : off+16]))
			off += 16
		default:
			return nil, ErrInvalidFormat
		}

		if off >= len(buf) {
			return nil, ErrCorruptedData
		}
		bits := int(buf[off])
		off++

		asn, err := decodeVarint(buf, &off)
		if err != nil {
			return nil, err
		}

		prefix := netip.PrefixFrom(addr, bits)
		if !prefix.IsValid() {
			return nil, ErrCorruptedData
		}
		entries[i] = pending{prefix: prefix, asn: asn}
	}

	names := make(map[uint32]string, asnCount)
	for i := 0; i < asnCount; i++ {
		asn, err := decodeVarint(buf, &off)
		if err != nil {
			return nil, err
		}
		nameLen, err := decodeVarint(buf, &off)
		if err != nil {
			return nil, err
		}
		if off+int(nameLen) > len(buf) {
			return nil, ErrCorruptedData
		}
		raw := buf[off : off+int(nameLen)]
		off += int(nameLen)
		if !utf8.Valid(raw) {
			// Same policy as the Ultra-Compact reader: a corrupted name
			// entry is dropped, not fatal.
			continue
		}
		names[asn] = string(raw)
	}

	t := asntrie.New()
	for _, e := range entries {
		t.Insert(e.prefix, asntrie.OrgEntry{ASN: e.asn, Name: names[e.asn]})
	}
	t.Freeze()
	return t, nil
}
