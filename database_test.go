package asndb

import (
	"bytes"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAndOpenRoundTrip(t *testing.T) {
	records := []Record{
		{Start: mustIP(t, "8.8.8.0"), End: mustIP(t, "8.8.8.255"), ASN: 15169, Name: "GOOGLE"},
		{Start: mustIP(t, "1.1.1.0"), End: mustIP(t, "1.1.1.255"), ASN: 13335, Name: "CLOUDFLARENET"},
	}

	outPath := filepath.Join(t.TempDir(), "asndb.bin")
	require.NoError(t, Build(records, outPath))

	db, err := Open(outPath)
	require.NoError(t, err)

	asn, name, ok := db.LookupV4("8.8.8.8")
	require.True(t, ok)
	require.Equal(t, uint32(15169), asn)
	require.Equal(t, "GOOGLE", name)

	require.Equal(t, 2, db.EntryCount())
	require.Equal(t, 2, db.UniqueASNCount())
}

func TestBuildRejectsOverlappingInput(t *testing.T) {
	records := []Record{
		{Start: mustIP(t, "10.0.0.0"), End: mustIP(t, "10.0.0.10"), ASN: 1, Name: "A"},
		{Start: mustIP(t, "10.0.0.5"), End: mustIP(t, "10.0.0.20"), ASN: 2, Name: "B"},
	}
	err := Build(records, filepath.Join(t.TempDir(), "asndb.bin"))
	require.ErrorIs(t, err, ErrNotDisjoint)
}

func TestLookupV4UnparseableInputMisses(t *testing.T) {
	records := []Record{{Start: mustIP(t, "8.8.8.0"), End: mustIP(t, "8.8.8.255"), ASN: 15169, Name: "GOOGLE"}}
	outPath := filepath.Join(t.TempDir(), "asndb.bin")
	require.NoError(t, Build(records, outPath))

	db, err := Open(outPath)
	require.NoError(t, err)

	_, _, ok := db.LookupV4("not an ip")
	require.False(t, ok)
}

func TestOpenBytesDetectsEveryFormat(t *testing.T) {
	records := []Record{
		{Start: mustIP(t, "8.8.8.0"), End: mustIP(t, "8.8.8.255"), ASN: 15169, Name: "GOOGLE"},
	}

	writers := map[string]func(*bytes.Buffer) error{
		"ultracompact":    func(b *bytes.Buffer) error { return WriteUltraCompact(b, records) },
		"ip2a":            func(b *bytes.Buffer) error { return WriteIP2A(b, records) },
		"asn2":            func(b *bytes.Buffer) error { return WriteASN2(b, records, false) },
		"asn2-compressed": func(b *bytes.Buffer) error { return WriteASN2(b, records, true) },
		"asnd":            func(b *bytes.Buffer) error { return WriteASND(b, records) },
	}

	for name, write := range writers {
		var buf bytes.Buffer
		require.NoError(t, write(&buf), name)

		db, err := OpenBytes(buf.Bytes())
		require.NoError(t, err, name)

		asn, _, ok := db.LookupV4("8.8.8.8")
		require.True(t, ok, name)
		require.Equal(t, uint32(15169), asn, name)
	}
}

func TestOpenUnrecognizedMagic(t *testing.T) {
	_, err := OpenBytes([]byte("XXXXnothing useful here"))
	require.ErrorIs(t, err, ErrUnsupportedFmt)
}

func TestExportRangesTSV(t *testing.T) {
	records := []Record{
		{Start: mustIP(t, "1.1.1.0"), End: mustIP(t, "1.1.1.255"), ASN: 13335, Name: "CLOUDFLARENET"},
	}
	outPath := filepath.Join(t.TempDir(), "asndb.bin")
	require.NoError(t, Build(records, outPath))

	db, err := Open(outPath)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, db.ExportRangesTSV(&buf))
	require.Contains(t, buf.String(), "1.1.1.0\t1.1.1.255\t13335\tCLOUDFLARENET")
}

func TestAddressSpanAndUnroutedSpan(t *testing.T) {
	records := []Record{
		{Start: mustIP(t, "1.0.0.0"), End: mustIP(t, "1.0.0.9"), ASN: 0, Name: ""},
		{Start: mustIP(t, "2.0.0.0"), End: mustIP(t, "2.0.0.99"), ASN: 64500, Name: "EXAMPLE"},
	}
	outPath := filepath.Join(t.TempDir(), "asndb.bin")
	require.NoError(t, Build(records, outPath))

	db, err := Open(outPath)
	require.NoError(t, err)

	require.Equal(t, uint64(110), db.AddressSpan().Big().Uint64())
	require.Equal(t, uint64(10), db.UnroutedSpan().Big().Uint64())
}

func TestRangesForASNReconstructsCIDRs(t *testing.T) {
	records := []Record{
		{Start: mustIP(t, "192.168.0.0"), End: mustIP(t, "192.168.0.255"), ASN: 64500, Name: "EXAMPLE"},
	}
	outPath := filepath.Join(t.TempDir(), "asndb.bin")
	require.NoError(t, Build(records, outPath))

	db, err := Open(outPath)
	require.NoError(t, err)

	prefixes := db.RangesForASN(64500)
	require.Len(t, prefixes, 1)
	require.Equal(t, "192.168.0.0/24", prefixes[0].String())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

func TestLookupV6EndToEnd(t *testing.T) {
	v4Records := []Record{
		{Start: mustIP(t, "8.8.8.0"), End: mustIP(t, "8.8.8.255"), ASN: 15169, Name: "GOOGLE"},
	}
	v4Path := filepath.Join(t.TempDir(), "asndb.bin")
	require.NoError(t, Build(v4Records, v4Path))

	cidrRecords := []CIDRRecord{
		{Prefix: netip.MustParsePrefix("2001:4860:4860::/48"), ASN: 15169, Name: "GOOGLE"},
		{Prefix: netip.MustParsePrefix("2606:4700::/32"), ASN: 13335, Name: "CLOUDFLARENET"},
	}
	triePath := filepath.Join(t.TempDir(), "asndb-trie.bin")
	require.NoError(t, BuildTrie(cidrRecords, triePath))

	db, err := OpenWithTrie(v4Path, triePath)
	require.NoError(t, err)

	asn, name, ok := db.LookupV6("2001:4860:4860::8888")
	require.True(t, ok)
	require.Equal(t, uint32(15169), asn)
	require.Equal(t, "GOOGLE", name)

	asn, name, ok = db.LookupV6(netip.MustParseAddr("2606:4700:1::1"))
	require.True(t, ok)
	require.Equal(t, uint32(13335), asn)
	require.Equal(t, "CLOUDFLARENET", name)

	_, _, ok = db.LookupV6("2001:db8::1")
	require.False(t, ok)

	// The v4 side still resolves through the same combined Database.
	asn, name, ok = db.LookupV4("8.8.8.8")
	require.True(t, ok)
	require.Equal(t, uint32(15169), asn)
	require.Equal(t, "GOOGLE", name)
}

func TestLookupV6WithoutTrieMisses(t *testing.T) {
	v4Records := []Record{{Start: mustIP(t, "8.8.8.0"), End: mustIP(t, "8.8.8.255"), ASN: 15169, Name: "GOOGLE"}}
	v4Path := filepath.Join(t.TempDir(), "asndb.bin")
	require.NoError(t, Build(v4Records, v4Path))

	db, err := Open(v4Path)
	require.NoError(t, err)

	_, _, ok := db.LookupV6("2001:4860:4860::8888")
	require.False(t, ok)
}
