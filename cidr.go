package asndb

import (
	"math/bits"
	"net/netip"
)

// rangeToCIDRs decomposes [start, end] into the minimal set of CIDR blocks
// that exactly cover it. Each step takes the largest power-of-two block
// aligned at the current address that still fits within what remains.
func rangeToCIDRs(start, end uint32) []netip.Prefix {
	if start > end {
		return nil
	}
	if start == 0 && end == ^uint32(0) {
		return []netip.Prefix{netip.PrefixFrom(netip.AddrFrom4([4]byte{}), 0)}
	}
	out := make([]netip.Prefix, 0, 8)
	cur := start
	for {
		maxSize := cur & -cur
		if cur == 0 {
			maxSize = 1 << 31
		}
		prefixLen := 32 - bits.TrailingZeros32(maxSize)
		remaining := end - cur + 1
		for prefixLen < 32 {
			blockSize := uint32(1) << (32 - prefixLen)
			if blockSize <= remaining {
				break
			}
			prefixLen++
		}

		addr := netip.AddrFrom4([4]byte{byte(cur >> 24), byte(cur >> 16), byte(cur >> 8), byte(cur)})
		out = append(out, netip.PrefixFrom(addr, prefixLen))

		step := uint32(1) << (32 - prefixLen)
		next := cur + step
		if next <= cur {
			break // covered up to the top of the address space
		}
		cur = next
		if cur > end {
			break
		}
	}
	return out
}

// RangesForASN returns every disjoint IPv4 range assigned to asn, as CIDR
// blocks in address order.
func (db *Database) RangesForASN(asn uint32) []netip.Prefix {
	if db == nil || db.v4 == nil {
		return nil
	}
	var out []netip.Prefix
	for i, a := range db.v4.asns {
		if a != asn {
			continue
		}
		out = append(out, rangeToCIDRs(db.v4.starts[i], db.v4.ends[i])...)
	}
	return out
}
