// Package asndb provides a compact, embeddable IP-to-ASN lookup database.
//
// A Database is built once from a sorted stream of (start, end, asn, name)
// records, serialized to one of a small family of on-disk formats, and then
// loaded back for point lookups: given an IPv4 or IPv6 address, which
// Autonomous System originates the covering prefix, and what is that AS's
// organization name.
//
// The primary on-disk format is Ultra-Compact ("ULTR"): a zlib-compressed,
// varint-encoded stream of ranges plus a name table. Alternative formats
// (IP2A, ASN2, ASND) exist for interoperability and size comparison; see
// altcodecs.go.
//
// A loaded Database is immutable and safe for concurrent use by multiple
// goroutines without external synchronization. Updates are performed by
// loading a new Database and swapping the reference held by the caller.
package asndb
