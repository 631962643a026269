package state

import (
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/core/trie"
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// Repository provides access to accounts, their code and storage kept in the
// trie.
type Repository struct {
	mt   *MutableTrie
	keys *KeyMapper
}

// NewRepository creates a Repository working with the given trie.
func NewRepository(mt *MutableTrie) *Repository {
	return &Repository{
		mt:   mt,
		keys: mt.KeyMapper(),
	}
}

// MutableTrie returns the underlying trie.
func (r *Repository) MutableTrie() *MutableTrie {
	return r.mt
}

// CreateAccount stores a new empty account replacing the existing one if
// any. Code and storage of the account are not touched.
func (r *Repository) CreateAccount(addr util.Uint160) (*AccountState, error) {
	a := NewAccountState()
	if err := r.UpdateAccountState(addr, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AccountExists tells whether there is some state for the account.
func (r *Repository) AccountExists(addr util.Uint160) (bool, error) {
	vl, err := r.mt.GetValueLength(r.keys.AccountKey(addr))
	if err != nil {
		return false, err
	}
	return vl.State == trie.ValuePresent, nil
}

// GetAccountState returns the account state or nil if there is no account.
func (r *Repository) GetAccountState(addr util.Uint160) (*AccountState, error) {
	data, err := r.mt.Get(r.keys.AccountKey(addr))
	if err != nil || data == nil {
		return nil, err
	}
	a, err := DecodeAccountState(data)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", addr.StringBE(), err)
	}
	return a, nil
}

// UpdateAccountState stores the account state.
func (r *Repository) UpdateAccountState(addr util.Uint160, a *AccountState) error {
	data, err := a.Bytes()
	if err != nil {
		return err
	}
	return r.mt.Put(r.keys.AccountKey(addr), data)
}

// setupContract puts the storage root marker for the account.
func (r *Repository) setupContract(addr util.Uint160) error {
	return r.mt.Put(r.keys.AccountStoragePrefixKey(addr), StorageRootMarker)
}

// AddStorageRow stores the value in the account storage slot, the zero value
// deletes the slot.
func (r *Repository) AddStorageRow(addr util.Uint160, slot, value DataWord) error {
	if value.IsZero() {
		return r.AddStorageBytes(addr, slot, nil)
	}
	return r.AddStorageBytes(addr, slot, value.StrippedBytes())
}

// AddStorageBytes stores the value in the account storage slot, an empty
// value deletes the slot.
func (r *Repository) AddStorageBytes(addr util.Uint160, slot DataWord, value []byte) error {
	if len(value) != 0 {
		if err := r.setupContract(addr); err != nil {
			return err
		}
	}
	return r.mt.Put(r.keys.AccountStorageKey(addr, slot), value)
}

// GetStorageValue returns the value of the storage slot or nil if there is
// no value.
func (r *Repository) GetStorageValue(addr util.Uint160, slot DataWord) (*DataWord, error) {
	data, err := r.GetStorageBytes(addr, slot)
	if err != nil || data == nil {
		return nil, err
	}
	w, err := DataWordFromBytes(data)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetStorageBytes returns the raw value of the storage slot.
func (r *Repository) GetStorageBytes(addr util.Uint160, slot DataWord) ([]byte, error) {
	return r.mt.Get(r.keys.AccountStorageKey(addr, slot))
}

// GetStorageKeys returns an iterator over the account storage slots.
func (r *Repository) GetStorageKeys(addr util.Uint160) (*StorageKeysIterator, error) {
	return r.mt.GetStorageKeys(addr)
}

// SaveCode stores the account code, an empty code deletes it.
func (r *Repository) SaveCode(addr util.Uint160, code []byte) error {
	if len(code) != 0 {
		if err := r.setupContract(addr); err != nil {
			return err
		}
	}
	return r.mt.Put(r.keys.CodeKey(addr), code)
}

// GetCode returns the account code or nil.
func (r *Repository) GetCode(addr util.Uint160) ([]byte, error) {
	return r.mt.Get(r.keys.CodeKey(addr))
}

// GetCodeLength returns the length of the account code without loading it.
func (r *Repository) GetCodeLength(addr util.Uint160) (int, error) {
	l, _, err := r.mt.GetValueLengthForEncoding(r.keys.CodeKey(addr))
	return l.Int(), err
}

// GetCodeHash returns the hash of the account code. It's zero for missing
// accounts and the hash of an empty byte slice for accounts without code.
func (r *Repository) GetCodeHash(addr util.Uint160) (util.Uint256, error) {
	ok, err := r.AccountExists(addr)
	if err != nil || !ok {
		return util.Uint256{}, err
	}
	h, ok, err := r.mt.GetValueHash(r.keys.CodeKey(addr))
	if err != nil {
		return util.Uint256{}, err
	}
	if !ok {
		return hash.Keccak256(nil), nil
	}
	return h, nil
}

// DeleteAccount removes the account along with its code and storage.
func (r *Repository) DeleteAccount(addr util.Uint160) error {
	return r.mt.DeleteRecursive(r.keys.AccountKey(addr))
}

// Root returns the state root hash.
func (r *Repository) Root() util.Uint256 {
	return r.mt.Hash()
}

// Save persists the current state.
func (r *Repository) Save() error {
	return r.mt.Save()
}
