package trie

import (
	"testing"

	"github.com/nspcc-dev/statetrie/internal/random"
	"github.com/nspcc-dev/statetrie/pkg/core/storage"
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	p := NewPath([]byte{0xA5, 0x01})
	require.Equal(t, Path{1, 0, 1, 0, 0, 1, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1}, p)
	require.Equal(t, []byte{0xA5, 0x01}, p.Bytes())
	require.Equal(t, 16, p.Len())
	require.Equal(t, []byte{0x02}, p.Slice(9).Bytes())
	require.Equal(t, []byte{0xA0}, Path{1, 0, 1}.Bytes())
	require.Equal(t, Path{1, 0, 1}, unpackPath([]byte{0xA0}, 3))

	require.Equal(t, 3, lcp(Path{1, 0, 1, 1}, Path{1, 0, 1, 0}))
	require.Equal(t, 2, lcp(Path{1, 0}, Path{1, 0, 1, 0}))
	require.Equal(t, 0, lcp(nil, Path{1}))
	require.Equal(t, Path{1, 0, 1}, concatPath(Path{1}, 0, Path{1}))
}

func testNodeRoundTrip(t *testing.T, n *Node) {
	data := n.Bytes()
	actual, err := DecodeNode(data)
	require.NoError(t, err)
	require.Equal(t, data, actual.Bytes())
	require.Equal(t, n.Hash(), actual.Hash())
	require.Equal(t, hash.Keccak256(data), n.Hash())
}

func TestNodeSerialization(t *testing.T) {
	t.Run("leaf", func(t *testing.T) {
		n := newLeaf(NewPath([]byte{1, 2, 3}), []byte("value"), 0)
		data := n.Bytes()
		require.Equal(t, flagVersion|flagSharedPath, data[0])
		testNodeRoundTrip(t, n)
	})
	t.Run("leaf without path", func(t *testing.T) {
		n := newLeaf(nil, []byte{1}, 0)
		require.Equal(t, []byte{flagVersion, 1}, n.Bytes())
		testNodeRoundTrip(t, n)
	})
	t.Run("odd path", func(t *testing.T) {
		n := newLeaf(Path{1, 0, 1}, []byte{1}, 0)
		require.Equal(t, []byte{flagVersion | flagSharedPath, 3, 0xA0, 1}, n.Bytes())
		testNodeRoundTrip(t, n)
	})
	t.Run("long value", func(t *testing.T) {
		v := random.Bytes(MaxInlineValueSize + 10)
		n := newLeaf(NewPath([]byte{1}), v, 0)
		require.True(t, n.HasLongValue())
		data := n.Bytes()
		require.Equal(t, flagVersion|flagSharedPath|flagLongValue, data[0])
		testNodeRoundTrip(t, n)

		actual, err := DecodeNode(data)
		require.NoError(t, err)
		require.Equal(t, hash.Keccak256(v), actual.ValueHash())
		require.EqualValues(t, len(v), actual.ValueLength())
		require.Nil(t, actual.storedValue())
	})
	t.Run("branch with timestamp", func(t *testing.T) {
		n := &Node{sharedPath: Path{0, 1}, lastUpdated: 12345}
		n.setValue([]byte("v"))
		n.setChild(0, refToNode(newLeaf(nil, []byte{1}, 0)))
		n.setChild(1, refToNode(newLeaf(Path{1}, []byte{2}, 0)))
		n.childrenSize = 2
		data := n.Bytes()
		require.Equal(t, flagVersion|flagSharedPath|flagLeft|flagRight|flagTimestamp, data[0])
		testNodeRoundTrip(t, n)

		actual, err := DecodeNode(data)
		require.NoError(t, err)
		require.EqualValues(t, 12345, actual.LastUpdated())
		require.EqualValues(t, 2, actual.ChildrenSize())
		require.Equal(t, n.left.Hash(), actual.left.Hash())
		require.Nil(t, actual.left.loaded())
	})
}

func TestDecodeNodeInvalid(t *testing.T) {
	testCases := map[string][]byte{
		"empty":              {},
		"bad version":        {0x80, 1},
		"reserved flag":      {flagVersion | 0x01, 1},
		"no value no kids":   {flagVersion},
		"one child no value": append([]byte{flagVersion | flagLeft}, append(make([]byte, 32), 1)...),
		"truncated path":     {flagVersion | flagSharedPath, 16, 0xFF},
		"zero path length":   {flagVersion | flagSharedPath, 0, 1},
		"big inline value":   append([]byte{flagVersion}, make([]byte, MaxInlineValueSize+1)...),
		"short long value":   append(append([]byte{flagVersion | flagLongValue}, make([]byte, 32)...), 0, 0, 5),
		"long value trailer": append(append([]byte{flagVersion | flagLongValue}, make([]byte, 32)...), 0, 1, 0, 7),
		"zero timestamp":     {flagVersion | flagTimestamp, 0, 1},
		"path padding bit":   {flagVersion | flagSharedPath, 3, 0xA1, 1},
		"long path varint":   {flagVersion | flagSharedPath, 0xfd, 3, 0, 0xA0, 1},
	}
	for name, data := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeNode(data)
			require.ErrorIs(t, err, ErrCorruptedNode)
		})
	}
}

func TestNodeValueHash(t *testing.T) {
	n := newLeaf(nil, []byte("short"), 0)
	require.Equal(t, hash.Keccak256([]byte("short")), n.ValueHash())
	require.True(t, n.hasSameValue([]byte("short")))
	require.False(t, n.hasSameValue([]byte("other")))

	long := random.Bytes(100)
	n = newLeaf(nil, long, 0)
	require.Equal(t, hash.Keccak256(long), n.ValueHash())
	require.True(t, n.hasSameValue(long))

	n = &Node{left: refToNode(newLeaf(nil, []byte{1}, 0)), right: refToNode(newLeaf(nil, []byte{2}, 0))}
	require.False(t, n.HasValue())
	require.Equal(t, [32]byte{}, [32]byte(n.ValueHash()))
}

func TestDecodeNodeSingleEncoding(t *testing.T) {
	n := newLeaf(Path{1, 0, 1}, []byte{1}, 0)
	padded := []byte{flagVersion | flagSharedPath, 3, 0xA1, 1}
	require.NotEqual(t, n.Bytes(), padded)

	// The same leaf stored with a padding bit set can't be loaded.
	s := newTestTrieStore(t)
	h := hash.Keccak256(padded)
	require.NoError(t, s.Backend().PutChangeSet(map[string][]byte{string(makeStorageKey(h)): padded}))
	_, err := s.Retrieve(h)
	require.ErrorIs(t, err, ErrCorruptedNode)
}

func TestChildrenSizeMismatch(t *testing.T) {
	n := &Node{sharedPath: Path{1}}
	n.setChild(0, refToNode(newLeaf(Path{1}, []byte{1}, 0)))
	n.setChild(1, refToNode(newLeaf(Path{0}, []byte{2}, 0)))
	n.childrenSize = 5

	backend := storage.NewMemoryStore()
	require.NoError(t, NewTrieStore(backend, 0, nil).Save(NewTrie(n, nil)))

	tr, err := NewTrieStore(backend, 0, nil).Retrieve(n.Hash())
	require.NoError(t, err)
	_, err = tr.CollectKeys(10)
	require.ErrorIs(t, err, ErrCorruptedNode)

	it := tr.PreOrderIterator()
	require.True(t, it.HasNext())
	_, err = it.Next()
	require.ErrorIs(t, err, ErrCorruptedNode)
	require.False(t, it.HasNext())
	require.ErrorIs(t, it.Err(), ErrCorruptedNode)
}
