package util

import (
	"errors"
	"math"
)

// Uint24Size is the size of encoded Uint24 in bytes.
const Uint24Size = 3

// MaxUint24 is the maximum value that fits into Uint24.
const MaxUint24 Uint24 = 1<<24 - 1

// ErrUint24Overflow is returned when a value doesn't fit into Uint24.
var ErrUint24Overflow = errors.New("value doesn't fit into uint24")

// Uint24 is an unsigned integer limited to 24 bits. It's used for value
// lengths stored in trie nodes.
type Uint24 uint32

// NewUint24 converts n to Uint24 checking the bounds.
func NewUint24(n int) (Uint24, error) {
	if n < 0 || n > math.MaxInt32 || Uint24(n) > MaxUint24 {
		return 0, ErrUint24Overflow
	}
	return Uint24(n), nil
}

// Uint24DecodeBytesBE decodes 3 big-endian bytes into Uint24.
func Uint24DecodeBytesBE(b []byte) (Uint24, error) {
	if len(b) != Uint24Size {
		return 0, errors.New("invalid uint24 length")
	}
	return Uint24(b[0])<<16 | Uint24(b[1])<<8 | Uint24(b[2]), nil
}

// BytesBE returns the 3-byte big-endian representation of u.
func (u Uint24) BytesBE() []byte {
	return []byte{byte(u >> 16), byte(u >> 8), byte(u)}
}

// Int returns u as int.
func (u Uint24) Int() int {
	return int(u)
}
