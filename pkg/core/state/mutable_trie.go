package state

import (
	"github.com/nspcc-dev/statetrie/pkg/core/trie"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// storageAnchorBits is the number of storage prefix bits the storage subtree
// iteration is anchored at.
const storageAnchorBits = storagePrefixSize*8 - 1

// MutableTrie holds the current version of the trie, every write replaces it
// with the new one. It's not safe for concurrent use.
type MutableTrie struct {
	trie  *trie.Trie
	store *trie.TrieStore
	keys  *KeyMapper
}

// NewMutableTrie creates a MutableTrie over t. A nil t means an empty trie
// backed by store. store may be nil, then Save does nothing. A nil keys
// mapper is replaced with a default one.
func NewMutableTrie(store *trie.TrieStore, t *trie.Trie, keys *KeyMapper) *MutableTrie {
	if t == nil {
		var src trie.Source
		if store != nil {
			src = store
		}
		t = trie.NewEmptyTrie(src)
	}
	if keys == nil {
		keys = NewKeyMapper(DefaultKeyCacheSize)
	}
	return &MutableTrie{
		trie:  t,
		store: store,
		keys:  keys,
	}
}

// Trie returns the current trie version.
func (mt *MutableTrie) Trie() *trie.Trie {
	return mt.trie
}

// KeyMapper returns the key mapper used.
func (mt *MutableTrie) KeyMapper() *KeyMapper {
	return mt.keys
}

// Hash returns the current root hash.
func (mt *MutableTrie) Hash() util.Uint256 {
	return mt.trie.Hash()
}

// GetNodeData returns the metadata of the node at the key or nil if there is
// no such node.
func (mt *MutableTrie) GetNodeData(key []byte) (*trie.NodeData, error) {
	return mt.trie.GetNodeData(key)
}

// Get returns the value bound to the key or nil.
func (mt *MutableTrie) Get(key []byte) ([]byte, error) {
	return mt.trie.Get(key)
}

// Put binds the value to the key, an empty value deletes the key.
func (mt *MutableTrie) Put(key, value []byte) error {
	t, err := mt.trie.Put(key, value)
	if err != nil {
		return err
	}
	mt.trie = t
	return nil
}

// PutString is the same as Put for string keys.
func (mt *MutableTrie) PutString(key string, value []byte) error {
	return mt.Put([]byte(key), value)
}

// PutWithTimestamp is the same as Put, but it also updates the node
// timestamp.
func (mt *MutableTrie) PutWithTimestamp(key, value []byte, ts uint64) error {
	t, err := mt.trie.PutWithTimestamp(key, value, ts)
	if err != nil {
		return err
	}
	mt.trie = t
	return nil
}

// DeleteRecursive removes the key and all the keys it prefixes.
func (mt *MutableTrie) DeleteRecursive(key []byte) error {
	t, err := mt.trie.DeleteRecursive(key)
	if err != nil {
		return err
	}
	mt.trie = t
	return nil
}

// GetValueLength returns the length of the value bound to the key.
func (mt *MutableTrie) GetValueLength(key []byte) (trie.ValueLength, error) {
	return mt.trie.GetValueLength(key)
}

// GetValueLengthForEncoding returns the length of the value bound to the key
// and whether there is a node at the key.
func (mt *MutableTrie) GetValueLengthForEncoding(key []byte) (util.Uint24, bool, error) {
	return mt.trie.GetValueLengthForEncoding(key)
}

// GetValueLengthForOptionalUse is the same as GetValueLengthForEncoding.
func (mt *MutableTrie) GetValueLengthForOptionalUse(key []byte) (util.Uint24, bool, error) {
	return mt.GetValueLengthForEncoding(key)
}

// GetValueHash returns the hash of the value bound to the key.
func (mt *MutableTrie) GetValueHash(key []byte) (util.Uint256, bool, error) {
	return mt.trie.GetValueHash(key)
}

// GetStorageKeys returns an iterator over the storage slots of the account.
func (mt *MutableTrie) GetStorageKeys(addr util.Uint160) (*StorageKeysIterator, error) {
	prefix := mt.keys.AccountStoragePrefixKey(addr)
	n, err := mt.trie.Find(prefix)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return newStorageKeysIterator(nil), nil
	}
	p := trie.NewPath(prefix)
	it := trie.NewPreOrderIterator(n, p.Slice(p.Len()-storageAnchorBits), mt.trie.Source())
	// Skip the storage root.
	if _, err := it.Next(); err != nil {
		return nil, err
	}
	return newStorageKeysIterator(it), nil
}

// CollectKeys returns all keys in lexicographic order, trie.ErrTooManyKeys is
// returned if there are more than maxCount keys.
func (mt *MutableTrie) CollectKeys(maxCount int) ([][]byte, error) {
	return mt.trie.CollectKeys(maxCount)
}

// Save persists the current trie version, it does nothing if there is no
// store.
func (mt *MutableTrie) Save() error {
	if mt.store == nil {
		return nil
	}
	return mt.store.Save(mt.trie)
}

// Commit does nothing, changes are applied immediately.
func (mt *MutableTrie) Commit() {}

// Rollback does nothing, there is nothing to roll back to.
func (mt *MutableTrie) Rollback() {}
