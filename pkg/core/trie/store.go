package trie

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/statetrie/pkg/core/storage"
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"go.uber.org/zap"
)

// DefaultNodeCacheSize is the default number of decoded nodes kept in memory
// by TrieStore.
const DefaultNodeCacheSize = 16384

// rootKey is the auxiliary key the current root hash is stored at.
var rootKey = []byte{byte(storage.DataTrieAux), 'r', 'o', 'o', 't'}

// TrieStore is a content-addressed node store. Nodes and long values are
// stored by their hashes with the storage.DataTrie prefix, so saving the same
// data twice doesn't change anything. Decoded nodes are cached.
type TrieStore struct {
	store storage.Store
	dec   *lru.Cache
	log   *zap.Logger
}

// NewTrieStore creates a TrieStore over the given backend. cacheSize limits
// the number of decoded nodes kept in memory, the cache is disabled if it's
// not positive. A nil log disables logging.
func NewTrieStore(s storage.Store, cacheSize int, log *zap.Logger) *TrieStore {
	ts := &TrieStore{
		store: s,
		log:   log,
	}
	if ts.log == nil {
		ts.log = zap.NewNop()
	}
	if cacheSize > 0 {
		ts.dec, _ = lru.New(cacheSize)
	}
	return ts
}

// Backend returns the underlying storage.
func (s *TrieStore) Backend() storage.Store {
	return s.store
}

func makeStorageKey(h util.Uint256) []byte {
	key := make([]byte, 1+util.Uint256Size)
	key[0] = byte(storage.DataTrie)
	copy(key[1:], h[:])
	return key
}

// GetNode implements Source interface. The node hash is checked against the
// data loaded.
func (s *TrieStore) GetNode(h util.Uint256) (*Node, error) {
	if s.dec != nil {
		if n, ok := s.dec.Get(h); ok {
			nodeCacheHits.Inc()
			return n.(*Node), nil
		}
	}
	data, err := s.get(h)
	if err != nil {
		return nil, err
	}
	nodeLoads.Inc()
	n, err := DecodeNode(data)
	if err != nil {
		s.log.Error("failed to decode trie node", zap.Stringer("hash", h), zap.Error(err))
		return nil, fmt.Errorf("node %s: %w", h.StringBE(), err)
	}
	n.hash.Store(&h)
	n.markSaved()
	if s.dec != nil {
		s.dec.Add(h, n)
	}
	return n, nil
}

// GetValue implements Source interface. The value hash is checked against
// the data loaded.
func (s *TrieStore) GetValue(h util.Uint256) ([]byte, error) {
	return s.get(h)
}

func (s *TrieStore) get(h util.Uint256) ([]byte, error) {
	data, err := s.store.Get(makeStorageKey(h))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, h.StringBE())
		}
		return nil, err
	}
	if actual := hash.Keccak256(data); actual != h {
		s.log.Error("trie data hash mismatch", zap.Stringer("expected", h), zap.Stringer("actual", actual))
		return nil, fmt.Errorf("%w: %s has hash %s", ErrCorruptedNode, h.StringBE(), actual.StringBE())
	}
	return data, nil
}

// Retrieve returns the trie with the given root hash. The root node is loaded
// immediately, the rest of the trie is loaded on demand.
func (s *TrieStore) Retrieve(root util.Uint256) (*Trie, error) {
	if root == EmptyTrieHash {
		return NewEmptyTrie(s), nil
	}
	n, err := s.GetNode(root)
	if err != nil {
		return nil, err
	}
	return NewTrie(n, s), nil
}

// Save persists all nodes of t not persisted yet along with their long
// values in one batch. Saving an already saved trie doesn't write anything.
func (s *TrieStore) Save(t *Trie) error {
	if t.root == nil {
		return nil
	}
	var (
		changes = make(map[string][]byte)
		nodes   []*Node
		values  int
	)
	err := s.collect(t.root, changes, &nodes, &values)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}
	if err := s.store.PutChangeSet(changes); err != nil {
		return fmt.Errorf("failed to save trie %s: %w", t.Hash().StringBE(), err)
	}
	for _, n := range nodes {
		n.markSaved()
		if s.dec != nil {
			s.dec.Add(n.Hash(), n)
		}
	}
	updateSaveMetrics(len(nodes), values)
	s.log.Debug("trie saved",
		zap.Stringer("root", t.Hash()),
		zap.Int("nodes", len(nodes)),
		zap.Int("values", values))
	return nil
}

// collect adds n and all of its unsaved descendants to the change set.
func (s *TrieStore) collect(n *Node, changes map[string][]byte, nodes *[]*Node, values *int) error {
	if n.IsSaved() {
		return nil
	}
	h := n.Hash()
	key := makeStorageKey(h)
	if _, ok := changes[string(key)]; ok {
		return nil
	}
	_, err := s.store.Get(key)
	if err == nil {
		n.markSaved()
		return nil
	}
	if !errors.Is(err, storage.ErrKeyNotFound) {
		return err
	}
	for _, r := range []*nodeRef{n.left, n.right} {
		if r == nil {
			continue
		}
		// Children referenced by hash only were loaded from the store.
		if c := r.loaded(); c != nil {
			if err := s.collect(c, changes, nodes, values); err != nil {
				return err
			}
		}
	}
	if n.HasLongValue() {
		vk := makeStorageKey(n.valueHash)
		if _, ok := changes[string(vk)]; !ok {
			v := n.storedValue()
			if v == nil {
				// Values that are not loaded come from the store.
				_, err = s.store.Get(vk)
				if errors.Is(err, storage.ErrKeyNotFound) {
					err = ErrNodeNotFound
				}
				if err != nil {
					return fmt.Errorf("value %s of node %s: %w", n.valueHash.StringBE(), h.StringBE(), err)
				}
			} else {
				changes[string(vk)] = v
				*values++
			}
		}
	}
	changes[string(key)] = n.Bytes()
	*nodes = append(*nodes, n)
	return nil
}

// PutRoot stores the given hash as the current root, it can then be obtained
// with CurrentRoot.
func (s *TrieStore) PutRoot(root util.Uint256) error {
	return s.store.PutChangeSet(map[string][]byte{string(rootKey): root.BytesBE()})
}

// CurrentRoot returns the root hash stored with PutRoot or EmptyTrieHash if
// there is none.
func (s *TrieStore) CurrentRoot() (util.Uint256, error) {
	data, err := s.store.Get(rootKey)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return EmptyTrieHash, nil
		}
		return util.Uint256{}, err
	}
	return util.Uint256DecodeBytesBE(data)
}

// StoreStats describes the trie data kept in the store.
type StoreStats struct {
	// Entries is the number of stored nodes and long values.
	Entries int
	// Size is the total size of stored data in bytes.
	Size int
}

// Stats walks all the trie data in the store, it includes all saved trie
// versions.
func (s *TrieStore) Stats() StoreStats {
	var st StoreStats
	s.store.Seek(storage.SeekRange{Prefix: storage.DataTrie.Bytes()}, func(k, v []byte) bool {
		st.Entries++
		st.Size += len(v)
		return true
	})
	return st
}
