package block

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/statetrie/internal/random"
	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/nspcc-dev/statetrie/pkg/core/trie"
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"github.com/stretchr/testify/require"
)

func newTestHeader(number uint64, mergedMining bool) Header {
	h := Header{
		ParentHash:      random.Uint256(),
		UnclesHash:      random.Uint256(),
		Coinbase:        random.Uint160(),
		StateRoot:       random.Uint256(),
		TxTrieRoot:      random.Uint256(),
		ReceiptTrieRoot: random.Uint256(),
		LogsBloom:       random.Bytes(256),
		Difficulty:      uint256.NewInt(131072),
		Number:          number,
		GasLimit:        []byte{0x67, 0xc2, 0x80},
		GasUsed:         21000,
		Timestamp:       1545085200,
		ExtraData:       []byte("extra"),
		PaidFees:        uint256.NewInt(1000),
		MinimumGasPrice: uint256.NewInt(59240),
		UncleCount:      2,
	}
	if mergedMining {
		h.MergedMiningHeader = random.Bytes(80)
		h.MergedMiningMerkleProof = random.Bytes(64)
		h.MergedMiningCoinbaseTx = random.Bytes(120)
	}
	return h
}

func newTestFactory(t *testing.T, rskip92Height uint32) *HeaderFactory {
	tbl, err := config.NewActivationTable(config.ProtocolConfiguration{
		Hardforks: map[string]uint32{
			config.HFOrchid.String():    0,
			config.HFOrchid060.String(): rskip92Height,
		},
	})
	require.NoError(t, err)
	return NewHeaderFactory(tbl)
}

func fieldCount(t *testing.T, data []byte) int {
	var items []rlp.RawValue
	require.NoError(t, rlp.DecodeBytes(data, &items))
	return len(items)
}

func TestHeaderEncodeDecode(t *testing.T) {
	f := newTestFactory(t, 100)
	for _, mm := range []bool{false, true} {
		h := f.NewHeader(newTestHeader(42, mm))
		data, err := h.Bytes()
		require.NoError(t, err)
		if mm {
			require.Equal(t, MergedMiningFieldCount, fieldCount(t, data))
		} else {
			require.Equal(t, BaseFieldCount, fieldCount(t, data))
		}

		actual, err := f.DecodeHeader(data)
		require.NoError(t, err)
		require.Equal(t, h, actual)

		data2, err := actual.Bytes()
		require.NoError(t, err)
		require.Equal(t, data, data2)
	}
}

func TestHeaderStateRoot(t *testing.T) {
	f := NewHeaderFactory(nil)

	h := f.NewHeader(Header{Number: 1})
	require.True(t, h.IsEmptyState())
	require.Equal(t, trie.EmptyTrieHash, h.TxTrieRoot)
	require.Equal(t, trie.EmptyTrieHash, h.ReceiptTrieRoot)

	// Empty root fields are decoded as the empty trie hash.
	th := newTestHeader(1, false)
	fields := th.fields(false, false)
	fields[stateRootIndex] = []byte{}
	data, err := rlp.EncodeToBytes(fields)
	require.NoError(t, err)
	actual, err := f.DecodeHeader(data)
	require.NoError(t, err)
	require.Equal(t, trie.EmptyTrieHash, actual.StateRoot)
	require.True(t, actual.IsEmptyState())

	root := random.Uint256()
	h = f.NewHeader(Header{StateRoot: root})
	data, err = h.Bytes()
	require.NoError(t, err)
	actual, err = f.DecodeHeader(data)
	require.NoError(t, err)
	require.Equal(t, root, actual.StateRoot)
}

func TestHeaderHashEncoding(t *testing.T) {
	f := newTestFactory(t, 100)

	before := f.NewHeader(newTestHeader(99, true))
	require.False(t, before.UsesRSKIP92Encoding())
	b, err := before.HashingBytes()
	require.NoError(t, err)
	require.Equal(t, MergedMiningFieldCount, fieldCount(t, b))

	after := f.NewHeader(newTestHeader(100, true))
	require.True(t, after.UsesRSKIP92Encoding())
	b, err = after.HashingBytes()
	require.NoError(t, err)
	require.Equal(t, BaseFieldCount+1, fieldCount(t, b))

	h, err := after.Hash()
	require.NoError(t, err)
	require.Equal(t, hash.Keccak256(b), h)

	// Proof and coinbase don't affect the hash after the upgrade.
	changed := *after
	changed.MergedMiningMerkleProof = random.Bytes(64)
	changed.MergedMiningCoinbaseTx = random.Bytes(10)
	h2, err := changed.Hash()
	require.NoError(t, err)
	require.Equal(t, h, h2)

	changed = *before
	changed.MergedMiningMerkleProof = random.Bytes(64)
	h1, err := before.Hash()
	require.NoError(t, err)
	h2, err = changed.Hash()
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)

	t.Run("decoded", func(t *testing.T) {
		data, err := after.Bytes()
		require.NoError(t, err)
		actual, err := f.DecodeHeader(data)
		require.NoError(t, err)
		require.True(t, actual.UsesRSKIP92Encoding())
		ah, err := actual.Hash()
		require.NoError(t, err)
		require.Equal(t, h, ah)

		_, err = NewHeaderFactory(nil).DecodeHeader(data)
		require.NoError(t, err)
	})
}

func TestHeaderMinimumGasPrice(t *testing.T) {
	f := NewHeaderFactory(nil)
	h := newTestHeader(1, false)

	h.MinimumGasPrice = new(uint256.Int)
	require.Equal(t, []byte{0}, h.fields(false, false)[14])
	data, err := f.NewHeader(h).Bytes()
	require.NoError(t, err)
	actual, err := f.DecodeHeader(data)
	require.NoError(t, err)
	require.NotNil(t, actual.MinimumGasPrice)
	require.True(t, actual.MinimumGasPrice.IsZero())

	h.MinimumGasPrice = nil
	data, err = f.NewHeader(h).Bytes()
	require.NoError(t, err)
	actual, err = f.DecodeHeader(data)
	require.NoError(t, err)
	require.Nil(t, actual.MinimumGasPrice)
}

func TestDecodeHeaderErrors(t *testing.T) {
	f := NewHeaderFactory(nil)
	valid := func() []any {
		th := newTestHeader(1, false)
		return th.fields(false, false)
	}
	encode := func(t *testing.T, fields []any) []byte {
		data, err := rlp.EncodeToBytes(fields)
		require.NoError(t, err)
		return data
	}

	testCases := map[string][]byte{
		"not a list": {0x80},
		"garbage":    {0xf8, 0xff, 0x01},
		"17 fields":  encode(t, append(valid(), []byte{1})),
		"15 fields":  encode(t, valid()[:15]),
		"list field": func() []byte {
			fs := valid()
			fs[0] = []any{[]byte{1}}
			return encode(t, fs)
		}(),
		"short parent hash": func() []byte {
			fs := valid()
			fs[0] = []byte{1, 2, 3}
			return encode(t, fs)
		}(),
		"bad coinbase": func() []byte {
			fs := valid()
			fs[2] = make([]byte, 21)
			return encode(t, fs)
		}(),
		"number overflow": func() []byte {
			fs := valid()
			fs[8] = make([]byte, 9)
			fs[8].([]byte)[0] = 1
			return encode(t, fs)
		}(),
		"difficulty with leading zero": func() []byte {
			fs := valid()
			fs[7] = []byte{0, 1}
			return encode(t, fs)
		}(),
		"number with leading zero": func() []byte {
			fs := valid()
			fs[8] = []byte{0, 5}
			return encode(t, fs)
		}(),
		"min gas price with leading zero": func() []byte {
			fs := valid()
			fs[14] = []byte{0, 0}
			return encode(t, fs)
		}(),
		"huge difficulty": func() []byte {
			fs := valid()
			fs[7] = make([]byte, 33)
			return encode(t, fs)
		}(),
	}
	for name, data := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := f.DecodeHeader(data)
			require.ErrorIs(t, err, ErrInvalidHeader)
		})
	}
}

func TestHeaderCoinbase(t *testing.T) {
	f := NewHeaderFactory(nil)
	h := f.NewHeader(newTestHeader(1, false))
	h.Coinbase = util.Uint160{}
	require.Equal(t, []byte(nil), h.fields(false, false)[2])

	data, err := h.Bytes()
	require.NoError(t, err)
	actual, err := f.DecodeHeader(data)
	require.NoError(t, err)
	require.Equal(t, util.Uint160{}, actual.Coinbase)
}
