/*
Package hash contains wrappers for hash functions used by the state trie.
*/
package hash

import (
	"github.com/nspcc-dev/statetrie/pkg/util"
	"golang.org/x/crypto/sha3"
)

// Keccak256 hashes the incoming byte slices using the legacy Keccak-256
// algorithm (the one used by Ethereum-compatible chains, not the final
// SHA3-256 standard).
func Keccak256(data ...[]byte) util.Uint256 {
	var hash util.Uint256
	hasher := sha3.NewLegacyKeccak256()
	for _, d := range data {
		_, _ = hasher.Write(d) // hash.Hash never returns an error.
	}
	hasher.Sum(hash[:0])
	return hash
}
