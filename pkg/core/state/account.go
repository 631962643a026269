package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// AccountState is the state of an account stored in the trie.
type AccountState struct {
	Nonce   uint64
	Balance *uint256.Int
}

// NewAccountState returns an empty account state.
func NewAccountState() *AccountState {
	return &AccountState{Balance: new(uint256.Int)}
}

// Bytes returns the RLP encoding of the account state.
func (a *AccountState) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

// DecodeAccountState decodes the account state from its RLP encoding.
func DecodeAccountState(data []byte) (*AccountState, error) {
	a := new(AccountState)
	if err := rlp.DecodeBytes(data, a); err != nil {
		return nil, err
	}
	if a.Balance == nil {
		a.Balance = new(uint256.Int)
	}
	return a, nil
}

// IsEmpty tells whether the account has zero nonce and balance.
func (a *AccountState) IsEmpty() bool {
	return a.Nonce == 0 && (a.Balance == nil || a.Balance.IsZero())
}
