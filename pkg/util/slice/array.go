/*
Package slice contains byte slice helpers.
*/
package slice

// StripLeadingZeros returns a subslice of b without leading zero bytes. A
// slice consisting of zeros only (or an empty one) is returned as a single
// zero byte, so the result is never empty.
func StripLeadingZeros(b []byte) []byte {
	for i := range b {
		if b[i] != 0 {
			return b[i:]
		}
	}
	return []byte{0}
}
