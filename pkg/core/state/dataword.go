package state

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/statetrie/pkg/util/slice"
)

// DataWordSize is the size of DataWord in bytes.
const DataWordSize = 32

// DataWord is a 32-byte big-endian word used for storage slots and values.
type DataWord [DataWordSize]byte

// DataWordFromBytes returns a DataWord with b aligned to its right end.
func DataWordFromBytes(b []byte) (DataWord, error) {
	var w DataWord
	if len(b) > DataWordSize {
		return w, fmt.Errorf("data word of %d bytes", len(b))
	}
	copy(w[DataWordSize-len(b):], b)
	return w, nil
}

// DataWordFromUint64 returns a DataWord holding u.
func DataWordFromUint64(u uint64) DataWord {
	return DataWord(uint256.NewInt(u).Bytes32())
}

// Bytes returns a copy of w as a slice.
func (w DataWord) Bytes() []byte {
	return w[:]
}

// StrippedBytes returns w without leading zero bytes, the zero word is
// represented by a single zero byte.
func (w DataWord) StrippedBytes() []byte {
	return slice.StripLeadingZeros(w[:])
}

// IsZero tells whether w is zero.
func (w DataWord) IsZero() bool {
	return w == DataWord{}
}

// Uint256 returns w as an integer.
func (w DataWord) Uint256() *uint256.Int {
	return new(uint256.Int).SetBytes32(w[:])
}

// String implements fmt.Stringer interface.
func (w DataWord) String() string {
	return hex.EncodeToString(w[:])
}
