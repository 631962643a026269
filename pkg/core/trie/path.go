package trie

// Path is a sequence of bits, one byte (0 or 1) per bit. Byte keys are
// expanded into paths most significant bit first.
type Path []byte

// NewPath expands the given key into a bit path.
func NewPath(key []byte) Path {
	p := make(Path, len(key)*8)
	for i, b := range key {
		for j := range 8 {
			p[i*8+j] = (b >> (7 - j)) & 1
		}
	}
	return p
}

// Bytes packs p into bytes. If the length of p is not a multiple of 8, the
// last byte is padded with zero bits on the right.
func (p Path) Bytes() []byte {
	res := make([]byte, (len(p)+7)/8)
	for i, bit := range p {
		if bit != 0 {
			res[i/8] |= 1 << (7 - i%8)
		}
	}
	return res
}

// Len returns the number of bits in p.
func (p Path) Len() int {
	return len(p)
}

// String returns the bits of p as a string of '0' and '1' characters.
func (p Path) String() string {
	b := make([]byte, len(p))
	for i := range p {
		b[i] = '0' + p[i]
	}
	return string(b)
}

// Slice returns the bits of p in [from, len(p)).
func (p Path) Slice(from int) Path {
	return p[from:]
}

// concatPath returns a new path consisting of a, the bit and b.
func concatPath(a Path, bit byte, b Path) Path {
	res := make(Path, 0, len(a)+1+len(b))
	res = append(res, a...)
	res = append(res, bit)
	return append(res, b...)
}

// lcp returns the length of the longest common prefix of a and b.
func lcp(a, b Path) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return len(a)
}

// unpackPath expands the first n bits of the packed data.
func unpackPath(data []byte, n int) Path {
	p := make(Path, n)
	for i := range n {
		p[i] = (data[i/8] >> (7 - i%8)) & 1
	}
	return p
}
