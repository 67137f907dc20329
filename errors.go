package asndb

import "errors"

// Sentinel errors returned by the codec, build and lookup paths.
//
// Callers should use errors.Is against these values rather than matching
// on error strings. Lookup itself never returns an error for an
// unparseable address string; it returns ok=false instead (see database.go).
var (
	ErrInvalidAddress      = errors.New("asndb: invalid address")
	ErrInvalidFormat       = errors.New("asndb: invalid format")
	ErrCorruptedData       = errors.New("asndb: corrupted data")
	ErrUnsupportedVersion  = errors.New("asndb: unsupported version")
	ErrDecompressionFailed = errors.New("asndb: decompression failed")
	ErrIO                  = errors.New("asndb: io error")

	ErrNotDisjoint    = errors.New("asndb: overlapping ranges in disjoint feed")
	ErrNilDatabase    = errors.New("asndb: nil database")
	ErrUnsupportedFmt = errors.New("asndb: unrecognized on-disk format magic")
)
