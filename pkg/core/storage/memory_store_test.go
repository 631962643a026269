package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPut(t *testing.T) {
	var (
		s     = NewMemoryStore()
		key   = []byte("sparse")
		value = []byte("rocks")
	)

	putKV(t, s, key, value)

	newVal, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, newVal)
	require.Equal(t, 1, s.Len())
	require.NoError(t, s.Close())
}

func TestKeyNotExist(t *testing.T) {
	var (
		s   = NewMemoryStore()
		key = []byte("sparse")
	)

	_, err := s.Get(key)
	assert.NotNil(t, err)
	assert.Equal(t, err.Error(), "key not found")
	require.NoError(t, s.Close())
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	putKV(t, s, []byte("key"), []byte("value"))
	deleteKey(t, s, []byte("key"))
	_, err := s.Get([]byte("key"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.Equal(t, 0, s.Len())
}

func putKV(t testing.TB, s Store, key, value []byte) {
	require.NoError(t, s.PutChangeSet(map[string][]byte{string(key): value}))
}

func deleteKey(t testing.TB, s Store, key []byte) {
	putKV(t, s, key, nil)
}
