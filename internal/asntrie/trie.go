// Package asntrie implements the binary-trie lookup path (longest-prefix
// match over CIDR prefixes, used for IPv6 and for overlapping/nested
// inputs) on top of github.com/gaissmai/bart's compressed routing table,
// rather than a hand-rolled node tree.
//
// bart.Table already gives the two-phase discipline the design calls for:
// Insert populates the table, and once a Trie is handed to readers it is
// used read-only, matching the build-then-freeze lifecycle.
package asntrie

import (
	"net/netip"
	"sync/atomic"

	"github.com/gaissmai/bart"
)

// OrgEntry is the payload stored at a trie node: the AS number and,
// optionally, its organization name.
type OrgEntry struct {
	ASN  uint32
	Name string
}

// Trie is a build-then-freeze longest-prefix-match table over IPv4 and
// IPv6 CIDR prefixes.
type Trie struct {
	table  bart.Table[OrgEntry]
	frozen atomic.Bool
	count4 int
	count6 int
}

// New returns an empty, writable Trie.
func New() *Trie {
	return &Trie{}
}

// Insert adds prefix -> entry to the trie. Later inserts at the same
// prefix overwrite earlier ones (last write wins). Insert panics if the
// trie has been frozen: this is a programming error, not a runtime
// condition callers should handle.
func (t *Trie) Insert(prefix netip.Prefix, entry OrgEntry) {
	if t.frozen.Load() {
		panic("asntrie: Insert after Freeze")
	}
	t.table.Insert(prefix, entry)
	if prefix.Addr().Is4() {
		t.count4++
	} else {
		t.count6++
	}
}

// Freeze marks the trie read-only. Lookup is always safe to call
// concurrently; Freeze exists to make the single-writer/many-readers
// handoff explicit and to turn any further Insert into a hard failure.
func (t *Trie) Freeze() {
	t.frozen.Store(true)
}

// Lookup returns the entry for the longest prefix covering addr, or
// ok=false if no inserted prefix covers it.
func (t *Trie) Lookup(addr netip.Addr) (entry OrgEntry, ok bool) {
	return t.table.Lookup(addr)
}

// Size reports the number of Insert calls observed per address family.
// A prefix inserted twice (last write wins) is counted twice; this is a
// build-time bookkeeping aid, not a guarantee of distinct-prefix count.
func (t *Trie) Size() (v4, v6 int) {
	return t.count4, t.count6
}
