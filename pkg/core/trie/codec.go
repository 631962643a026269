package trie

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/io"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// Node flags.
const (
	flagVersion    byte = 0b01 << 6
	flagVersionMsk byte = 0b11 << 6
	flagLongValue  byte = 0x20
	flagSharedPath byte = 0x10
	flagLeft       byte = 0x08
	flagRight      byte = 0x04
	flagTimestamp  byte = 0x02

	flagReserved = ^(flagVersionMsk | flagLongValue | flagSharedPath | flagLeft | flagRight | flagTimestamp)
)

// MaxKeySize is the maximum size of a key in bytes.
const MaxKeySize = 8 * 1024

// maxPathLength is the maximum number of bits in a shared path.
const maxPathLength = MaxKeySize * 8

// emptyTrieBytes is the representation of an empty trie used to calculate
// its hash (RLP encoding of an empty string).
var emptyTrieBytes = []byte{0x80}

// EmptyTrieHash is the hash of an empty trie.
var EmptyTrieHash = hash.Keccak256(emptyTrieBytes)

func encodeNode(n *Node) []byte {
	var flags = flagVersion

	if n.HasLongValue() {
		flags |= flagLongValue
	}
	if len(n.sharedPath) != 0 {
		flags |= flagSharedPath
	}
	if n.left != nil {
		flags |= flagLeft
	}
	if n.right != nil {
		flags |= flagRight
	}
	if n.lastUpdated != 0 {
		flags |= flagTimestamp
	}

	w := io.NewBufBinWriter()
	w.WriteB(flags)
	if len(n.sharedPath) != 0 {
		w.WriteVarUint(uint64(len(n.sharedPath)))
		w.WriteBytes(n.sharedPath.Bytes())
	}
	if n.left != nil {
		h := n.left.Hash()
		w.WriteBytes(h[:])
	}
	if n.right != nil {
		h := n.right.Hash()
		w.WriteBytes(h[:])
	}
	if n.left != nil || n.right != nil {
		w.WriteVarUint(n.childrenSize)
	}
	if n.lastUpdated != 0 {
		w.WriteVarUint(n.lastUpdated)
	}
	if n.HasLongValue() {
		w.WriteBytes(n.valueHash[:])
		w.WriteBytes(n.valueLength.BytesBE())
	} else {
		w.WriteBytes(n.value)
	}
	return w.Bytes()
}

// DecodeNode restores the node from its serialized representation. Children
// are referenced by hashes and are resolved on demand.
func DecodeNode(data []byte) (*Node, error) {
	n, err := decodeNode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedNode, err)
	}
	return n, nil
}

func decodeNode(data []byte) (*Node, error) {
	r := io.NewBinReaderFromBuf(data)
	flags := r.ReadB()
	if r.Err != nil {
		return nil, r.Err
	}
	if flags&flagVersionMsk != flagVersion {
		return nil, fmt.Errorf("unsupported node version %d", flags>>6)
	}
	if flags&flagReserved != 0 {
		return nil, fmt.Errorf("reserved flags are set: %08b", flags)
	}

	n := new(Node)
	if flags&flagSharedPath != 0 {
		l := r.ReadVarUint()
		if r.Err == nil && (l == 0 || l > maxPathLength) {
			return nil, fmt.Errorf("invalid shared path length %d", l)
		}
		packed := make([]byte, (l+7)/8)
		r.ReadBytes(packed)
		if r.Err != nil {
			return nil, r.Err
		}
		n.sharedPath = unpackPath(packed, int(l))
	}
	if flags&flagLeft != 0 {
		var h util.Uint256
		r.ReadBytes(h[:])
		n.left = refToHash(h)
	}
	if flags&flagRight != 0 {
		var h util.Uint256
		r.ReadBytes(h[:])
		n.right = refToHash(h)
	}
	if n.left != nil || n.right != nil {
		n.childrenSize = r.ReadVarUint()
	}
	if flags&flagTimestamp != 0 {
		n.lastUpdated = r.ReadVarUint()
		if r.Err == nil && n.lastUpdated == 0 {
			return nil, fmt.Errorf("zero timestamp is encoded")
		}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	if flags&flagLongValue != 0 {
		r.ReadBytes(n.valueHash[:])
		var l [util.Uint24Size]byte
		r.ReadBytes(l[:])
		if r.Err != nil {
			return nil, r.Err
		}
		n.valueLength, _ = util.Uint24DecodeBytesBE(l[:])
		if n.valueLength <= MaxInlineValueSize {
			return nil, fmt.Errorf("long value of %d bytes", n.valueLength)
		}
		if r.Len() != 0 {
			return nil, fmt.Errorf("%d trailing bytes", r.Len())
		}
	} else {
		rest := r.Len()
		if rest > MaxInlineValueSize {
			return nil, fmt.Errorf("inline value of %d bytes", rest)
		}
		if rest != 0 {
			n.value = make([]byte, rest)
			r.ReadBytes(n.value)
			n.valueLength = util.Uint24(rest)
		}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	if !n.HasValue() && n.childCount() != 2 {
		return nil, fmt.Errorf("non-canonical node with %d children and no value", n.childCount())
	}
	// Padding bits and varints have a single valid form, the node hash
	// must not depend on the way it was encoded.
	if !bytes.Equal(encodeNode(n), data) {
		return nil, errors.New("non-canonical encoding")
	}
	return n, nil
}

// checkChildrenSize verifies the children size of n against its resolved
// children, nil children are absent.
func checkChildrenSize(n, left, right *Node) error {
	if sz := subtreeSize(left) + subtreeSize(right); sz != n.childrenSize {
		return fmt.Errorf("%w: node %s has children size %d, its children hold %d values",
			ErrCorruptedNode, n.Hash().StringBE(), n.childrenSize, sz)
	}
	return nil
}
