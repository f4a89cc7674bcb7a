// Package varint implements SQLite's variable-length integer encoding.
//
// A varint is 1 to 9 bytes, most-significant byte first. The low 7 bits
// of each byte carry data and the high bit marks continuation, except
// the 9th byte which contributes all 8 bits.
package varint

// Put writes v to p and returns the number of bytes written.
// p must have room for up to 9 bytes.
func Put(p []byte, v uint64) int {
	if v <= 0x7f {
		p[0] = byte(v)
		return 1
	}
	if v <= 0x3fff {
		p[0] = byte((v>>7)&0x7f) | 0x80
		p[1] = byte(v & 0x7f)
		return 2
	}

	if v&(uint64(0xff000000)<<32) != 0 {
		// 9-byte case: the 9th byte uses all 8 bits
		p[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			p[i] = byte((v & 0x7f) | 0x80)
			v >>= 7
		}
		return 9
	}

	// Count the 7-bit groups needed
	n := 1
	for tmp := v >> 7; tmp > 0; tmp >>= 7 {
		n++
	}

	// Encode most significant group first
	for i := n - 1; i >= 0; i-- {
		b := byte((v >> uint(i*7)) & 0x7f)
		if i > 0 {
			b |= 0x80
		}
		p[n-1-i] = b
	}
	return n
}

// Get reads a varint from p and returns the value and the number of
// bytes consumed. A consumed count of 0 means p is too short to hold
// the encoded value.
func Get(p []byte) (uint64, int) {
	if len(p) == 0 {
		return 0, 0
	}

	// Fast path for the 1-byte case
	if p[0] < 0x80 {
		return uint64(p[0]), 1
	}

	// Fast path for the 2-byte case
	if len(p) > 1 && p[1] < 0x80 {
		return (uint64(p[0]&0x7f) << 7) | uint64(p[1]), 2
	}

	var v uint64
	for i := 0; i < 9 && i < len(p); i++ {
		b := p[i]
		if i == 8 {
			// 9th byte uses all 8 bits
			return (v << 8) | uint64(b), 9
		}
		v = (v << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1
		}
	}
	return 0, 0
}

// Len returns the number of bytes required to encode v.
func Len(v uint64) int {
	if v <= 0x7f {
		return 1
	}
	if v <= 0x3fff {
		return 2
	}
	if v <= 0x1fffff {
		return 3
	}
	if v <= 0xfffffff {
		return 4
	}
	if v <= 0x7ffffffff {
		return 5
	}
	if v <= 0x3ffffffffff {
		return 6
	}
	if v <= 0x1ffffffffffff {
		return 7
	}
	if v <= 0xffffffffffffff {
		return 8
	}
	return 9
}
