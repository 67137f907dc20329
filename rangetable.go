package asndb

import "sort"

// RangeTable is the immutable in-memory range->ASN database. It supports
// point lookup of an IPv4 address among disjoint, non-decreasing ranges
// via binary search.
//
// The zero value is not useful; construct via newRangeTable or one of the
// codec readers.
type RangeTable struct {
	starts []uint32
	ends   []uint32
	asns   []uint32
	names  map[uint32]string

	// overlapAllowed mirrors the on-disk header's overlap-allowed bit:
	// when set, lookup falls back to a most-specific-range scan instead
	// of assuming disjointness.
	overlapAllowed bool
}

// newRangeTable builds a RangeTable from already-sorted, validated ranges
// and a name map. Callers (codec readers, Build) own the validation.
func newRangeTable(starts, ends, asns []uint32, names map[uint32]string, overlapAllowed bool) *RangeTable {
	if names == nil {
		names = map[uint32]string{}
	}
	return &RangeTable{starts: starts, ends: ends, asns: asns, names: names, overlapAllowed: overlapAllowed}
}

// validateDisjointSorted checks that starts are non-decreasing, that
// start<=end holds for every range, and (unless overlaps are allowed)
// that ranges are disjoint.
func validateDisjointSorted(starts, ends []uint32, overlapAllowed bool) error {
	for i := range starts {
		if starts[i] > ends[i] {
			return ErrCorruptedData
		}
		if i > 0 {
			if starts[i] < starts[i-1] {
				return ErrCorruptedData
			}
			if !overlapAllowed && ends[i-1] >= starts[i] {
				return ErrNotDisjoint
			}
		}
	}
	return nil
}

// Lookup returns the ASN and organization name (if known) covering ip, or
// ok=false if no range contains it. Lookup never fails for a well-formed
// 32-bit ip; see Database.LookupV4 for the string-parsing entry point that
// can fail.
func (t *RangeTable) Lookup(ip uint32) (asn uint32, name string, ok bool) {
	if t == nil || len(t.starts) == 0 {
		return 0, "", false
	}

	idx := sort.Search(len(t.starts), func(i int) bool { return t.starts[i] > ip }) - 1
	if idx < 0 {
		return 0, "", false
	}

	if !t.overlapAllowed {
		if ip > t.ends[idx] {
			return 0, "", false
		}
		a := t.asns[idx]
		return a, t.names[a], true
	}

	return t.lookupOverlapping(ip, idx)
}

// lookupOverlapping picks the most specific of several overlapping ranges
// covering ip: scan backwards from idx down to index 0, skipping ranges that
// end before ip, then forwards from idx+1 while starts[j] <= ip, and choose
// the containing range with the smallest (end-start).
func (t *RangeTable) lookupOverlapping(ip uint32, idx int) (asn uint32, name string, ok bool) {
	bestWidth := ^uint32(0)
	bestIdx := -1

	for j := idx; j >= 0 && t.starts[j] <= ip; j-- {
		if t.ends[j] >= ip {
			width := t.ends[j] - t.starts[j]
			if width < bestWidth {
				bestWidth = width
				bestIdx = j
			}
		}
	}
	for j := idx + 1; j < len(t.starts) && t.starts[j] <= ip; j++ {
		if t.ends[j] >= ip {
			width := t.ends[j] - t.starts[j]
			if width < bestWidth {
				bestWidth = width
				bestIdx = j
			}
		}
	}

	if bestIdx < 0 {
		return 0, "", false
	}
	a := t.asns[bestIdx]
	return a, t.names[a], true
}

// Stats returns the number of range entries and the number of unique ASNs
// with a known name.
func (t *RangeTable) Stats() (entries, uniqueASNs int) {
	if t == nil {
		return 0, 0
	}
	return len(t.starts), len(t.names)
}
