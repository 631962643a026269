package state

import (
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/core/trie"
)

// StorageKeysIterator iterates over the storage slots of some account.
type StorageKeysIterator struct {
	it   *trie.PreOrderIterator
	next *DataWord
	err  error
}

func newStorageKeysIterator(it *trie.PreOrderIterator) *StorageKeysIterator {
	return &StorageKeysIterator{it: it}
}

// HasNext tells whether there are more slots. It returns false on traversal
// errors, use Err to check for them.
func (i *StorageKeysIterator) HasNext() bool {
	if i.next != nil {
		return true
	}
	if i.it == nil || i.err != nil {
		return false
	}
	for i.it.HasNext() {
		e, err := i.it.Next()
		if err != nil {
			i.err = err
			return false
		}
		if !e.Node.HasValue() {
			continue
		}
		if e.Key.Len() < StorageKeyOffset {
			i.err = fmt.Errorf("storage key of %d bits", e.Key.Len())
			return false
		}
		w, err := DataWordFromBytes(e.Key.Slice(StorageKeyOffset).Bytes())
		if err != nil {
			i.err = fmt.Errorf("invalid storage key: %w", err)
			return false
		}
		i.next = &w
		return true
	}
	return false
}

// Next returns the next slot, trie.ErrNoMoreElements is returned when there
// are no more slots.
func (i *StorageKeysIterator) Next() (DataWord, error) {
	if !i.HasNext() {
		if i.err != nil {
			return DataWord{}, i.err
		}
		return DataWord{}, trie.ErrNoMoreElements
	}
	w := *i.next
	i.next = nil
	return w, nil
}

// Err returns the traversal error if any.
func (i *StorageKeysIterator) Err() error {
	if i.err != nil {
		return i.err
	}
	if i.it != nil {
		return i.it.Err()
	}
	return nil
}
