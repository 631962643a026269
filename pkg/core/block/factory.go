package block

import (
	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/nspcc-dev/statetrie/pkg/core/trie"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// HeaderFactory creates and decodes headers choosing the hashing encoding
// according to the network upgrades active at the header height.
type HeaderFactory struct {
	forks *config.ActivationTable
}

// NewHeaderFactory returns a factory using the given activation table. A nil
// table means no upgrades are active.
func NewHeaderFactory(forks *config.ActivationTable) *HeaderFactory {
	return &HeaderFactory{forks: forks}
}

// IsRSKIP92 tells whether headers of the given height are hashed without the
// merged-mining proof and coinbase transaction.
func (f *HeaderFactory) IsRSKIP92(number uint64) bool {
	return f.forks != nil && f.forks.IsActive(config.HFOrchid060, number)
}

// NewHeader returns a copy of h with the encoding mode set for its height.
// Zero roots are replaced with the empty trie hash.
func (f *HeaderFactory) NewHeader(h Header) *Header {
	for _, r := range []*util.Uint256{&h.StateRoot, &h.TxTrieRoot, &h.ReceiptTrieRoot} {
		if *r == (util.Uint256{}) {
			*r = trie.EmptyTrieHash
		}
	}
	h.useRSKIP92Encoding = f.IsRSKIP92(h.Number)
	return &h
}

// DecodeHeader decodes the header from its RLP encoding. Empty roots are
// decoded as the empty trie hash.
func (f *HeaderFactory) DecodeHeader(data []byte) (*Header, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	h.useRSKIP92Encoding = f.IsRSKIP92(h.Number)
	return h, nil
}
