package trie

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"go.uber.org/atomic"
)

// MaxInlineValueSize is the maximum size of a value stored right in the
// node. Longer values are stored separately and referenced by their hash.
const MaxInlineValueSize = 32

// MaxValueSize is the maximum size of a value that can be stored in the trie.
const MaxValueSize = int(util.MaxUint24)

var (
	// ErrNodeNotFound is returned when a referenced node or long value can't be
	// found in the Source.
	ErrNodeNotFound = errors.New("trie node not found")
	// ErrCorruptedNode is returned when persisted node or value data is
	// malformed or doesn't match its hash.
	ErrCorruptedNode = errors.New("corrupted trie node")
	// ErrValueTooBig is returned on an attempt to put a value longer than
	// MaxValueSize.
	ErrValueTooBig = errors.New("value is too big")
)

// Source provides nodes and long values by their hashes, it's used to resolve
// the parts of the trie that are not loaded yet.
type Source interface {
	GetNode(h util.Uint256) (*Node, error)
	GetValue(h util.Uint256) ([]byte, error)
}

// nodeRef is a reference to a child node. It's either created from an
// in-memory node or from a hash, in which case the node is loaded on the first
// use and kept in the reference afterwards.
type nodeRef struct {
	hash *util.Uint256
	node atomic.Pointer[Node]
}

func refToNode(n *Node) *nodeRef {
	r := new(nodeRef)
	r.node.Store(n)
	return r
}

func refToHash(h util.Uint256) *nodeRef {
	return &nodeRef{hash: &h}
}

// Hash returns the hash of the referenced node.
func (r *nodeRef) Hash() util.Uint256 {
	if r.hash != nil {
		return *r.hash
	}
	return r.node.Load().Hash()
}

// loaded returns the referenced node if it's already available.
func (r *nodeRef) loaded() *Node {
	return r.node.Load()
}

func (r *nodeRef) resolve(src Source) (*Node, error) {
	if n := r.node.Load(); n != nil {
		return n, nil
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %s (no source)", ErrNodeNotFound, r.hash.StringBE())
	}
	n, err := src.GetNode(*r.hash)
	if err != nil {
		return nil, err
	}
	r.node.Store(n)
	return n, nil
}

// Node is an immutable trie node.
type Node struct {
	sharedPath Path

	// value is nil for nodes without value and for long values that are
	// not loaded yet.
	value       []byte
	valueLength util.Uint24
	valueHash   util.Uint256 // Only set for long values.
	longValue   atomic.Pointer[[]byte]

	left  *nodeRef
	right *nodeRef

	childrenSize uint64
	lastUpdated  uint64

	hash  atomic.Pointer[util.Uint256]
	saved atomic.Bool
}

// NodeData contains node metadata that can be obtained without loading the
// value.
type NodeData struct {
	Hash         util.Uint256
	SharedPath   Path
	ValueLength  util.Uint24
	ValueHash    util.Uint256
	ChildrenSize uint64
	LastUpdated  uint64
}

func newLeaf(path Path, value []byte, ts uint64) *Node {
	n := &Node{sharedPath: path, lastUpdated: ts}
	n.setValue(value)
	return n
}

// clone returns a copy of n that can be modified before being used anywhere.
func (n *Node) clone() *Node {
	c := &Node{
		sharedPath:   n.sharedPath,
		value:        n.value,
		valueLength:  n.valueLength,
		valueHash:    n.valueHash,
		left:         n.left,
		right:        n.right,
		childrenSize: n.childrenSize,
		lastUpdated:  n.lastUpdated,
	}
	if p := n.longValue.Load(); p != nil {
		c.longValue.Store(p)
	}
	return c
}

func (n *Node) setValue(value []byte) {
	n.longValue.Store(nil)
	n.valueHash = util.Uint256{}
	if len(value) == 0 {
		n.value = nil
		n.valueLength = 0
		return
	}
	n.value = value
	n.valueLength = util.Uint24(len(value))
	if len(value) > MaxInlineValueSize {
		n.valueHash = hash.Keccak256(value)
	}
}

// SharedPath returns the part of the path shared by n and all of its
// descendants.
func (n *Node) SharedPath() Path {
	return n.sharedPath
}

// HasValue tells whether some value is bound to n.
func (n *Node) HasValue() bool {
	return n.valueLength > 0
}

// HasLongValue tells whether n holds a value stored outside of the node.
func (n *Node) HasLongValue() bool {
	return n.valueLength > MaxInlineValueSize
}

// ValueLength returns the length of the value.
func (n *Node) ValueLength() util.Uint24 {
	return n.valueLength
}

// ValueHash returns the Keccak-256 hash of the value, it's zero for nodes
// without value.
func (n *Node) ValueHash() util.Uint256 {
	if !n.HasValue() {
		return util.Uint256{}
	}
	if n.HasLongValue() {
		return n.valueHash
	}
	return hash.Keccak256(n.value)
}

// ChildrenSize returns the number of values stored in the subtrees of n.
func (n *Node) ChildrenSize() uint64 {
	return n.childrenSize
}

// LastUpdated returns the timestamp of the last value update.
func (n *Node) LastUpdated() uint64 {
	return n.lastUpdated
}

// IsSaved tells whether n is known to be persisted.
func (n *Node) IsSaved() bool {
	return n.saved.Load()
}

func (n *Node) markSaved() {
	n.saved.Store(true)
}

// Data returns the node metadata.
func (n *Node) Data() NodeData {
	return NodeData{
		Hash:         n.Hash(),
		SharedPath:   n.sharedPath,
		ValueLength:  n.valueLength,
		ValueHash:    n.ValueHash(),
		ChildrenSize: n.childrenSize,
		LastUpdated:  n.lastUpdated,
	}
}

// getValue returns the value of n loading it from src if needed.
func (n *Node) getValue(src Source) ([]byte, error) {
	if !n.HasValue() {
		return nil, nil
	}
	if n.value != nil {
		return n.value, nil
	}
	if p := n.longValue.Load(); p != nil {
		return *p, nil
	}
	if src == nil {
		return nil, fmt.Errorf("%w: value %s (no source)", ErrNodeNotFound, n.valueHash.StringBE())
	}
	v, err := src.GetValue(n.valueHash)
	if err != nil {
		return nil, err
	}
	if len(v) != n.valueLength.Int() {
		return nil, fmt.Errorf("%w: value %s has length %d, expected %d",
			ErrCorruptedNode, n.valueHash.StringBE(), len(v), n.valueLength)
	}
	n.longValue.Store(&v)
	return v, nil
}

// storedValue returns the long value if it's available in memory.
func (n *Node) storedValue() []byte {
	if n.value != nil {
		return n.value
	}
	if p := n.longValue.Load(); p != nil {
		return *p
	}
	return nil
}

// hasSameValue checks whether value is the one bound to n without loading
// long values.
func (n *Node) hasSameValue(value []byte) bool {
	if len(value) != n.valueLength.Int() {
		return false
	}
	if n.HasLongValue() {
		return hash.Keccak256(value) == n.valueHash
	}
	return bytes.Equal(n.value, value)
}

func (n *Node) child(bit byte) *nodeRef {
	if bit == 0 {
		return n.left
	}
	return n.right
}

func (n *Node) setChild(bit byte, r *nodeRef) {
	if bit == 0 {
		n.left = r
	} else {
		n.right = r
	}
}

func (n *Node) childCount() int {
	var c int
	if n.left != nil {
		c++
	}
	if n.right != nil {
		c++
	}
	return c
}

// resolveChild returns the child node for the given bit (nil if there is no
// such child).
func (n *Node) resolveChild(bit byte, src Source) (*Node, error) {
	r := n.child(bit)
	if r == nil {
		return nil, nil
	}
	return r.resolve(src)
}

// subtreeSize returns the number of values stored in the subtree rooted at n.
func subtreeSize(n *Node) uint64 {
	if n == nil {
		return 0
	}
	if n.HasValue() {
		return n.childrenSize + 1
	}
	return n.childrenSize
}

// Hash returns the hash of n.
func (n *Node) Hash() util.Uint256 {
	if h := n.hash.Load(); h != nil {
		return *h
	}
	h := hash.Keccak256(n.Bytes())
	n.hash.Store(&h)
	return h
}

// Bytes returns the serialized representation of n.
func (n *Node) Bytes() []byte {
	return encodeNode(n)
}
