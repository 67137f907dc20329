package asndb

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
)

// Build sorts and validates records, then writes them to outPath in the
// Ultra-Compact format. Records do not need to arrive sorted; Build sorts
// by start address first. Overlapping input ranges are rejected with
// ErrNotDisjoint, matching the on-disk format's disjoint-range invariant.
//
// The encoded buffer is assembled fully in memory, written to a temporary
// file next to outPath, and renamed into place, so a reader opening outPath
// concurrently with a rebuild never observes a partially written file.
func Build(records []Record, outPath string) error {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	starts := make([]uint32, len(sorted))
	ends := make([]uint32, len(sorted))
	for i, r := range sorted {
		starts[i] = r.Start
		ends[i] = r.End
	}
	if err := validateDisjointSorted(starts, ends, false); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := WriteUltraCompact(&buf, sorted); err != nil {
		return err
	}
	return writeFileAtomic(outPath, buf.Bytes())
}

// BuildTrie writes records to outPath in the Trie-Compact format, using the
// same atomic temp-file-then-rename swap as Build. Unlike Build, records may
// overlap or nest; longest-prefix-match at lookup time resolves that.
func BuildTrie(records []CIDRRecord, outPath string) error {
	var buf bytes.Buffer
	if err := WriteTrieCompact(&buf, records); err != nil {
		return err
	}
	return writeFileAtomic(outPath, buf.Bytes())
}

// writeFileAtomic writes data to a temporary file beside outPath and renames
// it into place, so a reader opening outPath concurrently with a rebuild
// never observes a partially written file.
func writeFileAtomic(outPath string, data []byte) error {
	dir := filepath.Dir(outPath)
	tmp, err := os.CreateTemp(dir, filepath.Base(outPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
