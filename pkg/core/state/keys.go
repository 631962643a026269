/*
Package state implements the account state layer on top of the trie: key
mapping for accounts, code and storage slots, the mutable trie front-end and
the account repository.
*/
package state

import (
	"bytes"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// SecureKeySize is the number of bytes of the key hash prepended to the key
// to make the trie balanced.
const SecureKeySize = 10

// StorageKeyOffset is the bit index the storage slot starts at in the keys
// reported by the storage subtree iterator: the iterator is anchored at the
// last 7 bits of the storage prefix and the slot follows the secure prefix.
const StorageKeyOffset = (storagePrefixSize+SecureKeySize)*8 - 1

// DefaultKeyCacheSize is the default number of account keys cached by
// KeyMapper.
const DefaultKeyCacheSize = 4096

const (
	domainPrefixSize  = 1
	storagePrefixSize = 1

	// AccountKeySize is the size of account keys.
	AccountKeySize = domainPrefixSize + SecureKeySize + util.Uint160Size
	// StoragePrefixKeySize is the size of account storage prefix keys.
	StoragePrefixKeySize = AccountKeySize + storagePrefixSize
)

var (
	domainPrefix  = []byte{0x00}
	storagePrefix = []byte{0x00}
	codePrefix    = []byte{0x80}

	// StorageRootMarker is the value stored at the account storage prefix
	// key once the account gets some storage.
	StorageRootMarker = []byte{0x01}
)

// SecureKeyPrefix returns the first SecureKeySize bytes of the key hash.
func SecureKeyPrefix(key []byte) []byte {
	h := hash.Keccak256(key)
	return bytes.Clone(h[:SecureKeySize])
}

// AccountKey returns the trie key of the account state.
func AccountKey(addr util.Uint160) []byte {
	key := make([]byte, 0, StoragePrefixKeySize)
	key = append(key, domainPrefix...)
	key = append(key, SecureKeyPrefix(addr[:])...)
	return append(key, addr[:]...)
}

// AccountStoragePrefixKey returns the key the account storage subtree is
// rooted at.
func AccountStoragePrefixKey(addr util.Uint160) []byte {
	return append(AccountKey(addr), storagePrefix...)
}

// AccountStorageKey returns the trie key of the storage slot. Leading zero
// bytes of the slot are stripped.
func AccountStorageKey(addr util.Uint160, slot DataWord) []byte {
	return storageKey(AccountStoragePrefixKey(addr), slot)
}

// CodeKey returns the trie key of the account code.
func CodeKey(addr util.Uint160) []byte {
	return append(AccountKey(addr), codePrefix...)
}

func storageKey(prefix []byte, slot DataWord) []byte {
	s := slot.StrippedBytes()
	key := make([]byte, 0, len(prefix)+SecureKeySize+len(s))
	key = append(key, prefix...)
	key = append(key, SecureKeyPrefix(s)...)
	return append(key, s...)
}

// KeyMapper maps addresses and slots to trie keys caching account keys.
type KeyMapper struct {
	accounts *lru.Cache
}

// NewKeyMapper creates a KeyMapper caching up to cacheSize account keys, it
// falls back to DefaultKeyCacheSize for non-positive sizes.
func NewKeyMapper(cacheSize int) *KeyMapper {
	if cacheSize <= 0 {
		cacheSize = DefaultKeyCacheSize
	}
	c, _ := lru.New(cacheSize)
	return &KeyMapper{accounts: c}
}

// AccountKey returns the trie key of the account state.
func (m *KeyMapper) AccountKey(addr util.Uint160) []byte {
	if k, ok := m.accounts.Get(addr); ok {
		return bytes.Clone(k.([]byte))
	}
	k := AccountKey(addr)
	m.accounts.Add(addr, k)
	return bytes.Clone(k)
}

// AccountStoragePrefixKey returns the key the account storage subtree is
// rooted at.
func (m *KeyMapper) AccountStoragePrefixKey(addr util.Uint160) []byte {
	return append(m.AccountKey(addr), storagePrefix...)
}

// AccountStorageKey returns the trie key of the storage slot.
func (m *KeyMapper) AccountStorageKey(addr util.Uint160, slot DataWord) []byte {
	return storageKey(m.AccountStoragePrefixKey(addr), slot)
}

// CodeKey returns the trie key of the account code.
func (m *KeyMapper) CodeKey(addr util.Uint160) []byte {
	return append(m.AccountKey(addr), codePrefix...)
}
