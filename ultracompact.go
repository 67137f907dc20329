package asndb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
)

// Ultra-Compact ("ULTR") is the primary on-disk format:
//
//	4 bytes  magic "ULTR"
//	4 bytes  LE32  range_count
//	4 bytes  LE32  asn_count
//	for each range (sorted by start):
//	    4 bytes  BE32  start
//	    varint   end - start
//	    varint   asn
//	4 bytes  LE32  asn_count (repeated; historical quirk, both copies must agree)
//	for each ASN (ascending):
//	    varint   asn
//	    varint   name_byte_length
//	    name_byte_length bytes of UTF-8 name
//
// The whole buffer (header onward) is zlib-compressed before being written
// to the output writer.
//
// start is big-endian so raw bytes sort the same as dotted-quad order for
// debugging; varints are inherently little-endian; counts are little-endian
// by historical convention. These exact conventions must be preserved
// because existing files are in the wild.

// WriteUltraCompact builds and writes the primary format from records
// already sorted by Start.
func WriteUltraCompact(w io.Writer, records []Record) error {
	nameByASN := firstNamePerASN(records)

	asns := make([]uint32, 0, len(nameByASN))
	for asn := range nameByASN {
		asns = append(asns, asn)
	}
	sort.Slice(asns, func(i, j int) bool { return asns[i] < asns[j] })

	buf := make([]byte, 0, 12+len(records)*10)
	buf = append(buf, magicUltraCompact...)
	buf = appendLE32(buf, uint32(len(records)))
	buf = appendLE32(buf, uint32(len(asns)))

	for _, r := range records {
		buf = appendBE32(buf, r.Start)
		buf = encodeVarint(buf, r.End-r.Start)
		buf = encodeVarint(buf, r.ASN)
	}

	buf = appendLE32(buf, uint32(len(asns)))
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

// ReadUltraCompact decodes a database previously written by WriteUltraCompact.
func ReadUltraCompact(r io.Reader) (*RangeTable, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	buf, err := decompressZlib(compressed)
	if err != nil {
		return nil, err
	}
	return parseUltraCompact(buf)
}

// parseUltraCompact decodes an already-decompressed Ultra-Compact buffer.
func parseUltraCompact(buf []byte) (*RangeTable, error) {
	if len(buf) < 12 || string(buf[0:4]) != magicUltraCompact {
		return nil, ErrInvalidFormat
	}
	rangeCount := int(le32(buf[4:8]))
	asnCountHeader := int(le32(buf[8:12]))
	if rangeCount < 0 || asnCountHeader < 0 {
		return nil, ErrInvalidFormat
	}
	// A range occupies at least 6 bytes (4-byte start plus two 1-byte
	// varints); a claimed count past that bound cannot fit in the buffer.
	if rangeCount > (len(buf)-12)/6 {
		return nil, ErrInvalidFormat
	}

	starts := make([]uint32, rangeCount)
	ends := make([]uint32, rangeCount)
	asns := make([]uint32, rangeCount)

	off := 12
	for i := 0; i < rangeCount; i++ {
		if off+4 > len(buf) {
			return nil, ErrCorruptedData
		}
		start := be32(buf[off : off+4])
		off += 4

		size, err := decodeVarint(buf, &off)
		if err != nil {
			return nil, err
		}
		asn, err := decodeVarint(buf, &off)
		if err != nil {
			return nil, err
		}

		starts[i] = start
		ends[i] = start + size // wraparound accepted, see DESIGN.md
		asns[i] = asn
	}

	if off+4 > len(buf) {
		return nil, ErrCorruptedData
	}
	asnCountTable := int(le32(buf[off : off+4]))
	off += 4
	if asnCountTable != asnCountHeader {
		return nil, ErrInvalidFormat
	}

	names := make(map[uint32]string, asnCountTable)
	for i := 0; i < asnCountTable; i++ {
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
			// A corrupted name entry is dropped rather than failing the whole load.
			continue
		}
		names[asn] = string(raw)
	}

	if err := validateDisjointSorted(starts, ends, false); err != nil {
		return nil, err
	}

	return newRangeTable(starts, ends, asns, names, false), nil
}

// decompressZlib inflates a zlib-wrapped buffer. Go's flate reader streams
// output without requiring an a-priori output size, which subsumes the
// "start at 8x input, double up to three times" sizing strategy the format
// was originally specified against: io.ReadAll grows its buffer as needed.
// A genuine stream error (bad checksum, truncated deflate block) is
// reported as ErrDecompressionFailed after the retry budget, matching the
// error contract.
func decompressZlib(compressed []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		zr, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			lastErr = err
			continue
		}
		out, err := io.ReadAll(zr)
		zr.Close()
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, ErrDecompressionFailed
	}
	return nil, ErrDecompressionFailed
}

func firstNamePerASN(records []Record) map[uint32]string {
	out := make(map[uint32]string, len(records)/4+1)
	for _, r := range records {
		if _, ok := out[r.ASN]; !ok {
			out[r.ASN] = r.Name
		}
	}
	return out
}

func appendLE32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendBE32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func be32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
