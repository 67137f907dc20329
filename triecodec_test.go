package asndb

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrieCompactRoundTrip(t *testing.T) {
	records := []CIDRRecord{
		{Prefix: netip.MustParsePrefix("2001:4860:4860::/48"), ASN: 15169, Name: "GOOGLE"},
		{Prefix: netip.MustParsePrefix("192.0.2.0/24"), ASN: 64500, Name: "EXAMPLE"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTrieCompact(&buf, records))

	trie, err := ReadTrieCompact(&buf)
	require.NoError(t, err)

	entry, ok := trie.Lookup(netip.MustParseAddr("2001:4860:4860::1"))
	require.True(t, ok)
	require.Equal(t, uint32(15169), entry.ASN)
	require.Equal(t, "GOOGLE", entry.Name)

	entry, ok = trie.Lookup(netip.MustParseAddr("192.0.2.1"))
	require.True(t, ok)
	require.Equal(t, uint32(64500), entry.ASN)

	_, ok = trie.Lookup(netip.MustParseAddr("203.0.113.1"))
	require.False(t, ok)
}

func TestTrieCompactRejectsBadMagic(t *testing.T) {
	_, err := ReadTrieCompact(bytes.NewReader([]byte("not a trie file at all")))
	require.Error(t, err)
}

func TestTrieCompactNestedPrefixesUseLongestMatch(t *testing.T) {
	records := []CIDRRecord{
		{Prefix: netip.MustParsePrefix("10.0.0.0/8"), ASN: 1, Name: "OUTER"},
		{Prefix: netip.MustParsePrefix("10.1.0.0/16"), ASN: 2, Name: "INNER"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTrieCompact(&buf, records))

	trie, err := ReadTrieCompact(&buf)
	require.NoError(t, err)

	entry, ok := trie.Lookup(netip.MustParseAddr("10.1.2.3"))
	require.True(t, ok)
	require.Equal(t, uint32(2), entry.ASN)

	entry, ok = trie.Lookup(netip.MustParseAddr("10.2.0.0"))
	require.True(t, ok)
	require.Equal(t, uint32(1), entry.ASN)
}
