package asndb

// IPv4 parsing/formatting. The parser is strict: exactly four decimal
// octets 0-255 separated by three dots, no leading '+'/'-', no hex, no
// shorthand forms. It walks the input byte by byte rather than splitting
// into substrings.

// parseIPv4 parses s as a dotted-quad IPv4 address and returns it as a
// 32-bit unsigned integer in network byte order (a.b.c.d => a<<24|b<<16|c<<8|d).
func parseIPv4(s string) (uint32, error) {
	var octets [4]uint32
	octetIdx := 0
	cur := uint32(0)
	digits := 0
	leadingZero := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			if digits == 3 {
				return 0, ErrInvalidAddress
			}
			if digits == 0 {
				leadingZero = c == '0'
			} else if leadingZero {
				return 0, ErrInvalidAddress
			}
			cur = cur*10 + uint32(c-'0')
			if cur > 255 {
				return 0, ErrInvalidAddress
			}
			digits++
		case c == '.':
			if digits == 0 || octetIdx == 3 {
				return 0, ErrInvalidAddress
			}
			octets[octetIdx] = cur
			octetIdx++
			cur = 0
			digits = 0
			leadingZero = false
		default:
			return 0, ErrInvalidAddress
		}
	}
	if digits == 0 || octetIdx != 3 {
		return 0, ErrInvalidAddress
	}
	octets[3] = cur

	return octets[0]<<24 | octets[1]<<16 | octets[2]<<8 | octets[3], nil
}

// formatIPv4 renders a 32-bit IPv4 address as a dotted quad.
func formatIPv4(addr uint32) string {
	buf := make([]byte, 0, 15)
	buf = appendUint8(buf, byte(addr>>24))
	buf = append(buf, '.')
	buf = appendUint8(buf, byte(addr>>16))
	buf = append(buf, '.')
	buf = appendUint8(buf, byte(addr>>8))
	buf = append(buf, '.')
	buf = appendUint8(buf, byte(addr))
	return string(buf)
}

func appendUint8(buf []byte, v byte) []byte {
	if v >= 100 {
		buf = append(buf, '0'+v/100)
		v %= 100
		buf = append(buf, '0'+v/10, '0'+v%10)
		return buf
	}
	if v >= 10 {
		return append(buf, '0'+v/10, '0'+v%10)
	}
	return append(buf, '0'+v)
}

// bitIPv4 returns bit `index` of addr in MSB-first order; index 0 is the
// highest bit of the first octet.
func bitIPv4(addr uint32, index int) uint8 {
	return uint8((addr >> (31 - uint(index))) & 1)
}
