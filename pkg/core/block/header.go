/*
Package block contains the block header codec. The header carries the state
trie root and is encoded with RLP either with 16 fields or with 19 fields
when merged-mining data is present.
*/
package block

import (
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/statetrie/pkg/core/trie"
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// Field counts of the encoded header.
const (
	BaseFieldCount         = 16
	MergedMiningFieldCount = 19
)

// Header indexes of the fields with special treatment.
const (
	stateRootIndex  = 3
	uncleCountIndex = 15
)

// ErrInvalidHeader is returned for headers that can't be decoded.
var ErrInvalidHeader = errors.New("invalid block header")

// Header holds the head info of a block.
type Header struct {
	ParentHash      util.Uint256
	UnclesHash      util.Uint256
	Coinbase        util.Uint160
	StateRoot       util.Uint256
	TxTrieRoot      util.Uint256
	ReceiptTrieRoot util.Uint256
	LogsBloom       []byte
	Difficulty      *uint256.Int
	Number          uint64
	GasLimit        []byte
	GasUsed         uint64
	Timestamp       uint64
	ExtraData       []byte
	PaidFees        *uint256.Int
	// MinimumGasPrice is nil when the header doesn't specify it, zero is
	// encoded as a single zero byte.
	MinimumGasPrice *uint256.Int
	UncleCount      uint64

	// Merged-mining fields, the header has them if MergedMiningHeader is
	// not nil.
	MergedMiningHeader      []byte
	MergedMiningMerkleProof []byte
	MergedMiningCoinbaseTx  []byte

	useRSKIP92Encoding bool
}

// HasMergedMiningFields tells whether the header carries merged-mining data.
func (h *Header) HasMergedMiningFields() bool {
	return h.MergedMiningHeader != nil
}

// UsesRSKIP92Encoding tells whether the merged-mining proof and coinbase
// transaction are excluded from the header hash.
func (h *Header) UsesRSKIP92Encoding() bool {
	return h.useRSKIP92Encoding
}

// IsEmptyState tells whether the header commits to the empty state trie.
func (h *Header) IsEmptyState() bool {
	return h.StateRoot == trie.EmptyTrieHash
}

// EncodeRLP implements rlp.Encoder interface, the full encoding including
// all merged-mining fields is written.
func (h *Header) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, h.fields(true, true))
}

// Bytes returns the full RLP encoding of the header.
func (h *Header) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(h)
}

// HashingBytes returns the encoding the header hash is calculated over.
func (h *Header) HashingBytes() ([]byte, error) {
	return rlp.EncodeToBytes(h.fields(true, !h.useRSKIP92Encoding))
}

// Hash returns the Keccak256 hash of the header hashing encoding.
func (h *Header) Hash() (util.Uint256, error) {
	b, err := h.HashingBytes()
	if err != nil {
		return util.Uint256{}, err
	}
	return hash.Keccak256(b), nil
}

func (h *Header) fields(withMergedMining, withProofAndCoinbase bool) []any {
	var coinbase []byte
	if h.Coinbase != (util.Uint160{}) {
		coinbase = h.Coinbase.BytesBE()
	}
	res := []any{
		h.ParentHash.BytesBE(),
		h.UnclesHash.BytesBE(),
		coinbase,
		h.StateRoot.BytesBE(),
		h.TxTrieRoot.BytesBE(),
		h.ReceiptTrieRoot.BytesBE(),
		h.LogsBloom,
		intBytes(h.Difficulty),
		h.Number,
		h.GasLimit,
		h.GasUsed,
		h.Timestamp,
		h.ExtraData,
		intBytes(h.PaidFees),
		minGasPriceBytes(h.MinimumGasPrice),
		h.UncleCount,
	}
	if withMergedMining && h.HasMergedMiningFields() {
		res = append(res, h.MergedMiningHeader)
		if withProofAndCoinbase {
			res = append(res, h.MergedMiningMerkleProof, h.MergedMiningCoinbaseTx)
		}
	}
	return res
}

func intBytes(u *uint256.Int) []byte {
	if u == nil {
		return nil
	}
	return u.Bytes()
}

func minGasPriceBytes(u *uint256.Int) []byte {
	switch {
	case u == nil:
		return nil
	case u.IsZero():
		return []byte{0}
	default:
		return u.Bytes()
	}
}

// decodeHeader decodes the header leaving its encoding mode unset.
func decodeHeader(data []byte) (*Header, error) {
	var items []rlp.RawValue
	if err := rlp.DecodeBytes(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if len(items) != BaseFieldCount && len(items) != MergedMiningFieldCount {
		return nil, fmt.Errorf("%w: a block header must have %d elements or %d including merged-mining fields but it had %d",
			ErrInvalidHeader, BaseFieldCount, MergedMiningFieldCount, len(items))
	}
	fields := make([][]byte, len(items))
	for i, item := range items {
		kind, content, _, err := rlp.Split(item)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %w", ErrInvalidHeader, i, err)
		}
		if kind == rlp.List {
			return nil, fmt.Errorf("%w: field %d is a list", ErrInvalidHeader, i)
		}
		fields[i] = content
	}

	var (
		h   = new(Header)
		err error
	)
	if h.ParentHash, err = decodeHash(fields[0], util.Uint256{}); err != nil {
		return nil, fieldError(0, err)
	}
	if h.UnclesHash, err = decodeHash(fields[1], util.Uint256{}); err != nil {
		return nil, fieldError(1, err)
	}
	if len(fields[2]) != 0 {
		if h.Coinbase, err = util.Uint160DecodeBytesBE(fields[2]); err != nil {
			return nil, fieldError(2, err)
		}
	}
	for i, dst := range []*util.Uint256{&h.StateRoot, &h.TxTrieRoot, &h.ReceiptTrieRoot} {
		if *dst, err = decodeHash(fields[stateRootIndex+i], trie.EmptyTrieHash); err != nil {
			return nil, fieldError(stateRootIndex+i, err)
		}
	}
	h.LogsBloom = fields[6]
	if h.Difficulty, err = decodeInt(fields[7]); err != nil {
		return nil, fieldError(7, err)
	}
	if h.Number, err = decodeUint64(fields[8]); err != nil {
		return nil, fieldError(8, err)
	}
	h.GasLimit = fields[9]
	if h.GasUsed, err = decodeUint64(fields[10]); err != nil {
		return nil, fieldError(10, err)
	}
	if h.Timestamp, err = decodeUint64(fields[11]); err != nil {
		return nil, fieldError(11, err)
	}
	h.ExtraData = fields[12]
	if h.PaidFees, err = decodeInt(fields[13]); err != nil {
		return nil, fieldError(13, err)
	}
	if h.MinimumGasPrice, err = decodeMinGasPrice(fields[14]); err != nil {
		return nil, fieldError(14, err)
	}
	if h.UncleCount, err = decodeUint64(fields[uncleCountIndex]); err != nil {
		return nil, fieldError(uncleCountIndex, err)
	}
	if len(fields) == MergedMiningFieldCount {
		h.MergedMiningHeader = nonNil(fields[16])
		h.MergedMiningMerkleProof = fields[17]
		h.MergedMiningCoinbaseTx = fields[18]
	}
	return h, nil
}

func fieldError(i int, err error) error {
	return fmt.Errorf("%w: field %d: %w", ErrInvalidHeader, i, err)
}

// decodeHash decodes a 32-byte hash, def is returned for empty data.
func decodeHash(b []byte, def util.Uint256) (util.Uint256, error) {
	if len(b) == 0 {
		return def, nil
	}
	return util.Uint256DecodeBytesBE(b)
}

// decodeInt decodes a big-endian integer that must have no leading zero
// bytes, zero is the empty string.
func decodeInt(b []byte) (*uint256.Int, error) {
	if len(b) > 32 {
		return nil, fmt.Errorf("integer of %d bytes", len(b))
	}
	if len(b) != 0 && b[0] == 0 {
		return nil, fmt.Errorf("non-canonical integer %x", b)
	}
	return new(uint256.Int).SetBytes(b), nil
}

// decodeMinGasPrice is the inverse of minGasPriceBytes.
func decodeMinGasPrice(b []byte) (*uint256.Int, error) {
	switch {
	case len(b) == 0:
		return nil, nil
	case len(b) == 1 && b[0] == 0:
		return new(uint256.Int), nil
	default:
		return decodeInt(b)
	}
}

func decodeUint64(b []byte) (uint64, error) {
	u, err := decodeInt(b)
	if err != nil {
		return 0, err
	}
	if !u.IsUint64() {
		return 0, fmt.Errorf("integer %s overflows uint64", u.Dec())
	}
	return u.Uint64(), nil
}

// nonNil keeps an empty merged-mining header distinguishable from a missing
// one.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
