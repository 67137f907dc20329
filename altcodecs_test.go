package asndb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRecords(t *testing.T) []Record {
	return []Record{
		{Start: mustIP(t, "1.1.1.0"), End: mustIP(t, "1.1.1.255"), ASN: 13335, Name: "CLOUDFLARENET"},
		{Start: mustIP(t, "8.8.8.0"), End: mustIP(t, "8.8.8.255"), ASN: 15169, Name: "GOOGLE"},
	}
}

func TestIP2ARoundTrip(t *testing.T) {
	records := sampleRecords(t)
	var buf bytes.Buffer
	require.NoError(t, WriteIP2A(&buf, records))

	rt, err := ReadIP2A(&buf)
	require.NoError(t, err)

	asn, name, ok := rt.Lookup(mustIP(t, "8.8.8.8"))
	require.True(t, ok)
	require.Equal(t, uint32(15169), asn)
	require.Empty(t, name) // IP2A carries no name table
}

func TestIP2ARejectsBadMagic(t *testing.T) {
	_, err := ReadIP2A(bytes.NewReader([]byte("garbage garbage garbage")))
	require.Error(t, err)
}

func TestASN2RoundTripUncompressed(t *testing.T) {
	records := sampleRecords(t)
	var buf bytes.Buffer
	require.NoError(t, WriteASN2(&buf, records, false))

	rt, err := ReadASN2(&buf)
	require.NoError(t, err)
	asn, name, ok := rt.Lookup(mustIP(t, "1.1.1.1"))
	require.True(t, ok)
	require.Equal(t, uint32(13335), asn)
	require.Equal(t, "CLOUDFLARENET", name)
}

func TestASN2RoundTripCompressed(t *testing.T) {
	records := sampleRecords(t)
	var buf bytes.Buffer
	require.NoError(t, WriteASN2(&buf, records, true))

	rt, err := ReadASN2(&buf)
	require.NoError(t, err)
	asn, name, ok := rt.Lookup(mustIP(t, "8.8.8.100"))
	require.True(t, ok)
	require.Equal(t, uint32(15169), asn)
	require.Equal(t, "GOOGLE", name)
}

func TestASN2OverlappingRangesUseMostSpecific(t *testing.T) {
	records := []Record{
		{Start: mustIP(t, "140.82.0.0"), End: mustIP(t, "140.82.255.255"), ASN: 20473, Name: "VULTR"},
		{Start: mustIP(t, "140.82.112.0"), End: mustIP(t, "140.82.127.255"), ASN: 36459, Name: "GITHUB"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteASN2(&buf, records, false))

	rt, err := ReadASN2(&buf)
	require.NoError(t, err)

	asn, name, ok := rt.Lookup(mustIP(t, "140.82.121.3"))
	require.True(t, ok)
	require.Equal(t, uint32(36459), asn)
	require.Equal(t, "GITHUB", name)

	asn, _, ok = rt.Lookup(mustIP(t, "140.82.80.1"))
	require.True(t, ok)
	require.Equal(t, uint32(20473), asn)
}

func TestASN2RejectsBadMagic(t *testing.T) {
	_, err := ReadASN2(bytes.NewReader([]byte("definitely not an ASN2 file")))
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestASNDRoundTrip(t *testing.T) {
	records := sampleRecords(t)
	var buf bytes.Buffer
	require.NoError(t, WriteASND(&buf, records))

	rt, err := ReadASND(&buf)
	require.NoError(t, err)
	asn, name, ok := rt.Lookup(mustIP(t, "1.1.1.200"))
	require.True(t, ok)
	require.Equal(t, uint32(13335), asn)
	require.Equal(t, "CLOUDFLARENET", name)
}

func TestASNDMasksReservedASNBits(t *testing.T) {
	records := []Record{
		{Start: mustIP(t, "1.0.0.0"), End: mustIP(t, "1.0.0.10"), ASN: 0xFF000001, Name: "RESERVED-TOP-BYTE"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteASND(&buf, records))

	rt, err := ReadASND(&buf)
	require.NoError(t, err)
	asn, _, ok := rt.Lookup(mustIP(t, "1.0.0.5"))
	require.True(t, ok)
	require.Equal(t, uint32(1), asn)
}
