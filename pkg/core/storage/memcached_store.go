package storage

import "bytes"

// MemCachedStore is a wrapper around persistent store that caches all changes
// being made for them to be later flushed in one batch.
type MemCachedStore struct {
	MemoryStore

	// Persistent Store.
	ps Store
}

// NewMemCachedStore creates a new MemCachedStore object.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return &MemCachedStore{
		MemoryStore: *NewMemoryStore(),
		ps:          lower,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	val, ok := s.mem[string(key)]
	s.mut.RUnlock()
	if ok {
		if val == nil {
			return nil, ErrKeyNotFound
		}
		return val, nil
	}
	return s.ps.Get(key)
}

// PutChangeSet implements the Store interface, the changes are cached until
// Persist.
func (s *MemCachedStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	for k, v := range puts {
		s.mem[k] = v
	}
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface. Cached changes shadow the lower
// layer contents.
func (s *MemCachedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	cached := s.collect(rng, true)
	s.mut.RUnlock()

	merged := make(map[string][]byte, len(cached))
	s.ps.Seek(rng, func(k, v []byte) bool {
		merged[string(k)] = bytes.Clone(v)
		return true
	})
	for _, kv := range cached {
		merged[string(kv.Key)] = kv.Value
	}

	res := make([]KeyValue, 0, len(merged))
	for k, v := range merged {
		if v != nil {
			res = append(res, KeyValue{Key: []byte(k), Value: v})
		}
	}
	sortKeyValues(res, rng.Backwards)
	for _, kv := range res {
		if !f(kv.Key, kv.Value) {
			break
		}
	}
}

// Persist flushes all the cached changes into the lower store in one batch.
// It returns the number of keys flushed.
func (s *MemCachedStore) Persist() (int, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	keys := len(s.mem)
	if keys == 0 {
		return 0, nil
	}
	err := s.ps.PutChangeSet(s.mem)
	if err != nil {
		return 0, err
	}
	s.mem = make(map[string][]byte)
	return keys, nil
}

// Close implements Store interface, clears up memory and closes the lower layer
// Store.
func (s *MemCachedStore) Close() error {
	// It's always successful.
	_ = s.MemoryStore.Close()
	return s.ps.Close()
}
