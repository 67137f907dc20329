package asndb

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
)

// Alternative on-disk formats, provided for interoperability and size
// comparison with the primary Ultra-Compact format. All readers reject a
// mismatched magic with ErrInvalidFormat.

// --- IP2A: delta-encoded, no name table ---
//
//	4 bytes  magic "IP2A"
//	4 bytes  LE32  version (1)
//	4 bytes  LE32  count
//	for each range (sorted):
//	    varint  start - prev_start (prev_start=0 for the first record)
//	    varint  end - start
//	    varint  asn
//
// zlib-compressed as a whole. Lookup through this format returns only the
// ASN; there is no name table.

// WriteIP2A writes records (sorted by Start) in the IP2A format.
func WriteIP2A(w io.Writer, records []Record) error {
	buf := make([]byte, 0, 12+len(records)*6)
	buf = append(buf, magicIP2A...)
	buf = appendLE32(buf, ip2aVersion)
	buf = appendLE32(buf, uint32(len(records)))

	prevStart := uint32(0)
	for _, r := range records {
		buf = encodeVarint(buf, r.Start-prevStart)
		buf = encodeVarint(buf, r.End-r.Start)
		buf = encodeVarint(buf, r.ASN)
		prevStart = r.Start
	}

	zw := zlib.NewWriter(w)
	if _, err := zw.Write(buf); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadIP2A decodes a database previously written by WriteIP2A. The
// returned table has no ASN names.
func ReadIP2A(r io.Reader) (*RangeTable, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	buf, err := decompressZlib(compressed)
	if err != nil {
		return nil, err
	}
	return parseIP2A(buf)
}

// parseIP2A decodes an already-decompressed IP2A buffer.
func parseIP2A(buf []byte) (*RangeTable, error) {
	if len(buf) < 12 || string(buf[0:4]) != magicIP2A {
		return nil, ErrInvalidFormat
	}
	version := le32(buf[4:8])
	if version > ip2aVersion {
		return nil, ErrUnsupportedVersion
	}
	count := int(le32(buf[8:12]))
	// Three varints per range, at least one byte each.
	if count < 0 || count > (len(buf)-12)/3 {
		return nil, ErrInvalidFormat
	}

	starts := make([]uint32, count)
	ends := make([]uint32, count)
	asns := make([]uint32, count)

	off := 12
	prevStart := uint32(0)
	for i := 0; i < count; i++ {
		deltaStart, err := decodeVarint(buf, &off)
		if err != nil {
			return nil, err
		}
		size, err := decodeVarint(buf, &off)
		if err != nil {
			return nil, err
		}
		asn, err := decodeVarint(buf, &off)
		if err != nil {
			return nil, err
		}
		start := prevStart + deltaStart
		starts[i] = start
		ends[i] = start + size
		asns[i] = asn
		prevStart = start
	}

	if err := validateDisjointSorted(starts, ends, false); err != nil {
		return nil, err
	}
	return newRangeTable(starts, ends, asns, nil, false), nil
}

// --- ASN2: fixed-width, optionally compressed ---
//
//	4 bytes  BE32  magic 0x4153_4E32
//	2 bytes  BE16  version (2)
//	2 bytes  BE16  flags (bit 0 = compressed, bit 1 = overlapping ranges)
//	4 bytes  BE32  range_count
//	4 bytes  BE32  asn_table_offset
//	for each range: BE32 start, BE32 end, BE32 asn
//	at asn_table_offset: BE32 count, then repeated (BE32 asn, BE16 name_len, name_len bytes)
//
// If the compressed flag is set, the entire file after decompression must
// begin with this header.
const asn2HeaderSize = 16

// WriteASN2 writes records (sorted by Start) in the ASN2 format, optionally
// zlib-compressing the result. Unlike the Ultra-Compact writer, overlapping
// ranges are accepted: the overlap flag in the header tells the reader to
// use most-specific-range lookup semantics.
func WriteASN2(w io.Writer, records []Record, compressed bool) error {
	nameByASN := firstNamePerASN(records)
	asns := make([]uint32, 0, len(nameByASN))
	for asn := range nameByASN {
		asns = append(asns, asn)
	}
	sort.Slice(asns, func(i, j int) bool { return asns[i] < asns[j] })

	overlap := false
	buf := make([]byte, asn2HeaderSize, asn2HeaderSize+len(records)*12+len(asns)*8)
	for i, r := range records {
		if i > 0 && records[i-1].End >= r.Start {
			overlap = true
		}
		buf = appendBE32(buf, r.Start)
		buf = appendBE32(buf, r.End)
		buf = appendBE32(buf, r.ASN)
	}

	asnTableOffset := uint32(len(buf))
	buf = appendBE32(buf, uint32(len(asns)))
	for _, asn := range asns {
		name := nameByASN[asn]
		buf = appendBE32(buf, asn)
		buf = appendBE16(buf, uint16(len(name)))
		buf = append(buf, name...)
	}

	flags := uint16(0)
	if compressed {
		flags |= asn2FlagCompressed
	}
	if overlap {
		flags |= asn2FlagOverlap
	}
	binary.BigEndian.PutUint32(buf[0:4], magicASN2)
	binary.BigEndian.PutUint16(buf[4:6], asn2Version)
	binary.BigEndian.PutUint16(buf[6:8], flags)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(records)))
	binary.BigEndian.PutUint32(buf[12:16], asnTableOffset)

	if !compressed {
		_, err := w.Write(buf)
		return err
	}
	zw := zlib.NewWriter(w)
	if _, err := zw.Write(buf); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadASN2 decodes a database previously written by WriteASN2. A
// compressed ASN2 file is zlib-wrapped from byte 0, so the on-disk bytes
// carry no readable header; the reader sniffs the magic and decompresses
// when it is absent.
func ReadASN2(r io.Reader) (*RangeTable, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	buf := raw
	if len(buf) < 4 || binary.BigEndian.Uint32(buf[0:4]) != magicASN2 {
		decoded, err := decompressZlib(buf)
		if err != nil {
			return nil, ErrInvalidFormat
		}
		buf = decoded
	}
	return parseASN2(buf)
}

// parseASN2 decodes an ASN2 buffer that begins with the header (i.e. has
// already been decompressed if the file was written compressed).
func parseASN2(buf []byte) (*RangeTable, error) {
	if len(buf) < asn2HeaderSize || binary.BigEndian.Uint32(buf[0:4]) != magicASN2 {
		return nil, ErrInvalidFormat
	}
	version := binary.BigEndian.Uint16(buf[4:6])
	if version > asn2Version {
		return nil, ErrUnsupportedVersion
	}
	overlapAllowed := binary.BigEndian.Uint16(buf[6:8])&asn2FlagOverlap != 0
	rangeCount := int(binary.BigEndian.Uint32(buf[8:12]))
	asnTableOffset := int(binary.BigEndian.Uint32(buf[12:16]))
	if rangeCount < 0 || asnTableOffset < 0 {
		return nil, ErrInvalidFormat
	}

	rangesEnd := asn2HeaderSize + rangeCount*12
	if rangesEnd > len(buf) || asnTableOffset > len(buf) {
		return nil, ErrInvalidFormat
	}

	starts := make([]uint32, rangeCount)
	ends := make([]uint32, rangeCount)
	asns := make([]uint32, rangeCount)
	off := asn2HeaderSize
	for i := 0; i < rangeCount; i++ {
		starts[i] = binary.BigEndian.Uint32(buf[off : off+4])
		ends[i] = binary.BigEndian.Uint32(buf[off+4 : off+8])
		asns[i] = binary.BigEndian.Uint32(buf[off+8 : off+12])
		off += 12
	}

	names := map[uint32]string{}
	if asnTableOffset+4 <= len(buf) {
		pos := asnTableOffset
		count := int(binary.BigEndian.Uint32(buf[pos : pos+4]))
		pos += 4
		for i := 0; i < count; i++ {
			if pos+6 > len(buf) {
				return nil, ErrCorruptedData
			}
			asn := binary.BigEndian.Uint32(buf[pos : pos+4])
			nameLen := int(binary.BigEndian.Uint16(buf[pos+4 : pos+6]))
			pos += 6
			if pos+nameLen > len(buf) {
				return nil, ErrCorruptedData
			}
			raw := buf[pos : pos+nameLen]
			pos += nameLen
			if utf8.Valid(raw) {
				names[asn] = string(raw)
			}
		}
	}

	if err := validateDisjointSorted(starts, ends, overlapAllowed); err != nil {
		return nil, err
	}
	return newRangeTable(starts, ends, asns, names, overlapAllowed), nil
}

// --- ASND: fixed-width IPv4-only, uncompressed, little-endian ---
//
//	4 bytes  LE32  magic 0x4153_4E44
//	4 bytes  LE32  version (1)
//	4 bytes  LE32  entry_count
//	4 bytes  LE32  string_table_offset
//	for each entry: LE32 start, LE32 end, LE32 asn_packed (top 8 bits reserved)
//	at string_table_offset: LE32 count, then repeated (LE32 asn, LE16 name_len, name_len bytes)
const asndHeaderSize = 16
const asndASNMask = 0x00FF_FFFF

// WriteASND writes records in the ASND format.
func WriteASND(w io.Writer, records []Record) error {
	nameByASN := firstNamePerASN(records)
	asns := make([]uint32, 0, len(nameByASN))
	for asn := range nameByASN {
		asns = append(asns, asn)
	}
	sort.Slice(asns, func(i, j int) bool { return asns[i] < asns[j] })

	buf := make([]byte, asndHeaderSize, asndHeaderSize+len(records)*12+len(asns)*8)
	for _, r := range records {
		buf = appendLE32(buf, r.Start)
		buf = appendLE32(buf, r.End)
		buf = appendLE32(buf, r.ASN&asndASNMask)
	}

	stringsOffset := uint32(len(buf))
	buf = appendLE32(buf, uint32(len(asns)))
	for _, asn := range asns {
		name := nameByASN[asn]
		buf = appendLE32(buf, asn)
		buf = appendLE16(buf, uint16(len(name)))
		buf = append(buf, name...)
	}

	binary.LittleEndian.PutUint32(buf[0:4], magicASND)
	binary.LittleEndian.PutUint32(buf[4:8], asndVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(records)))
	binary.LittleEndian.PutUint32(buf[12:16], stringsOffset)

	_, err := w.Write(buf)
	return err
}

// ReadASND decodes a database previously written by WriteASND.
func ReadASND(r io.Reader) (*RangeTable, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return parseASND(buf)
}

func parseASND(buf []byte) (*RangeTable, error) {
	if len(buf) < asndHeaderSize || binary.LittleEndian.Uint32(buf[0:4]) != magicASND {
		return nil, ErrInvalidFormat
	}
	version := binary.LittleEndian.Uint32(buf[4:8])
	if version > asndVersion {
		return nil, ErrUnsupportedVersion
	}
	entryCount := int(binary.LittleEndian.Uint32(buf[8:12]))
	stringsOffset := int(binary.LittleEndian.Uint32(buf[12:16]))
	if entryCount < 0 || stringsOffset < 0 {
		return nil, ErrInvalidFormat
	}

	entriesEnd := asndHeaderSize + entryCount*12
	if entriesEnd > len(buf) || stringsOffset > len(buf) {
		return nil, ErrInvalidFormat
	}

	starts := make([]uint32, entryCount)
	ends := make([]uint32, entryCount)
	asns := make([]uint32, entryCount)
	off := asndHeaderSize
	for i := 0; i < entryCount; i++ {
		starts[i] = binary.LittleEndian.Uint32(buf[off : off+4])
		ends[i] = binary.LittleEndian.Uint32(buf[off+4 : off+8])
		asns[i] = binary.LittleEndian.Uint32(buf[off+8:off+12]) & asndASNMask
		off += 12
	}

	names := map[uint32]string{}
	if stringsOffset+4 <= len(buf) {
		pos := stringsOffset
		count := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4
		for i := 0; i < count; i++ {
			if pos+6 > len(buf) {
				return nil, ErrCorruptedData
			}
			asn := binary.LittleEndian.Uint32(buf[pos : pos+4])
			nameLen := int(binary.LittleEndian.Uint16(buf[pos+4 : pos+6]))
			pos += 6
			if pos+nameLen > len(buf) {
				return nil, ErrCorruptedData
			}
			raw := buf[pos : pos+nameLen]
			pos += nameLen
			if utf8.Valid(raw) {
				names[asn] = string(raw)
			}
		}
	}

	if err := validateDisjointSorted(starts, ends, false); err != nil {
		return nil, err
	}
	return newRangeTable(starts, ends, asns, names, false), nil
}

func appendBE16(dst []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(dst, b[:]...)
}

func appendLE16(dst []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(dst, b[:]...)
}
