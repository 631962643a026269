package state

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestAccountStateEncoding(t *testing.T) {
	a := &AccountState{
		Nonce:   42,
		Balance: uint256.NewInt(1_000_000_000),
	}
	data, err := a.Bytes()
	require.NoError(t, err)

	actual, err := DecodeAccountState(data)
	require.NoError(t, err)
	require.Equal(t, a.Nonce, actual.Nonce)
	require.True(t, a.Balance.Eq(actual.Balance))
	require.False(t, actual.IsEmpty())

	empty := NewAccountState()
	require.True(t, empty.IsEmpty())
	data, err = empty.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0xc2, 0x80, 0x80}, data)

	_, err = DecodeAccountState([]byte{0x01, 0x02})
	require.Error(t, err)
}
