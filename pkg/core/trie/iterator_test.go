package trie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collectIteratorKeys(t *testing.T, it *PreOrderIterator) []string {
	var keys []string
	for it.HasNext() {
		e, err := it.Next()
		require.NoError(t, err)
		keys = append(keys, e.Key.String())
	}
	require.NoError(t, it.Err())
	return keys
}

func TestPreOrderIterator(t *testing.T) {
	tr := newTestTrie(t,
		kv{[]byte{0x80}, []byte("c")},
		kv{[]byte{0x00}, []byte("a")},
		kv{[]byte{0x00, 0x01}, []byte("b")},
		kv{[]byte{0xC0}, []byte("d")},
	)

	it := tr.PreOrderIterator()
	// Root (empty path), then the left subtree (0x00 with its 0x0001 child),
	// then the right one (branch at "1", 0x80 and 0xC0).
	require.Equal(t, []string{
		"",
		"00000000",
		"0000000000000001",
		"1",
		"10000000",
		"11000000",
	}, collectIteratorKeys(t, it))

	_, err := it.Next()
	require.ErrorIs(t, err, ErrNoMoreElements)
}

func TestPreOrderIteratorAnchored(t *testing.T) {
	tr := newTestTrie(t,
		kv{[]byte{0x01}, []byte("x")},
		kv{[]byte{0x01, 0x02}, []byte("a")},
		kv{[]byte{0x01, 0x03}, []byte("b")},
	)
	n, err := tr.Find([]byte{0x01})
	require.NoError(t, err)
	require.NotNil(t, n)

	// Keys are built from the anchor, not from the node's own path.
	it := NewPreOrderIterator(n, Path{1}, nil)
	require.Equal(t, []string{
		"1",
		"10000001",
		"100000010",
		"100000011",
	}, collectIteratorKeys(t, it))
}

func TestPreOrderIteratorEmpty(t *testing.T) {
	it := NewEmptyTrie(nil).PreOrderIterator()
	require.False(t, it.HasNext())
	_, err := it.Next()
	require.ErrorIs(t, err, ErrNoMoreElements)
	require.NoError(t, it.Err())
}

func TestPreOrderIteratorMissingNode(t *testing.T) {
	s := newTestTrieStore(t)
	tr := newTestTrie(t,
		kv{[]byte{0x00}, []byte("a")},
		kv{[]byte{0x80}, []byte("b")},
	)
	require.NoError(t, s.Save(tr))

	// A store without the children.
	other := newTestTrieStore(t)
	data, err := s.Backend().Get(makeStorageKey(tr.Hash()))
	require.NoError(t, err)
	require.NoError(t, other.Backend().PutChangeSet(map[string][]byte{string(makeStorageKey(tr.Hash())): data}))

	tr2, err := other.Retrieve(tr.Hash())
	require.NoError(t, err)
	it := tr2.PreOrderIterator()
	require.True(t, it.HasNext())
	_, err = it.Next()
	require.ErrorIs(t, err, ErrNodeNotFound)
	require.False(t, it.HasNext())
	require.ErrorIs(t, it.Err(), ErrNodeNotFound)
}
