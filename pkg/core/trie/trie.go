package trie

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/util"
)

// ErrTooManyKeys is returned by CollectKeys when the trie contains more keys
// than requested.
var ErrTooManyKeys = errors.New("too many keys")

// ErrKeyTooBig is returned on an attempt to use a key longer than MaxKeySize.
var ErrKeyTooBig = errors.New("key is too big")

// ValueState describes the presence of a value at some key.
type ValueState byte

// Value states.
const (
	// ValueAbsent means there is no node at the key.
	ValueAbsent ValueState = iota
	// ValueEmpty means there is a node at the key, but it has no value.
	ValueEmpty
	// ValuePresent means there is a value bound to the key.
	ValuePresent
)

// String implements fmt.Stringer interface.
func (s ValueState) String() string {
	switch s {
	case ValueAbsent:
		return "absent"
	case ValueEmpty:
		return "empty"
	case ValuePresent:
		return "present"
	default:
		return fmt.Sprintf("unknown(%d)", byte(s))
	}
}

// ValueLength is the length of a value along with its state. Length is
// always zero unless State is ValuePresent.
type ValueLength struct {
	State  ValueState
	Length util.Uint24
}

// Trie is an immutable binary trie. All modifying methods return a new Trie
// sharing the unchanged nodes with the original one. A nil root denotes an
// empty trie.
type Trie struct {
	root *Node
	src  Source
}

// NewTrie returns a Trie with the given root, src is used to resolve nodes
// not loaded into memory yet and may be nil for tries fully created in
// memory.
func NewTrie(root *Node, src Source) *Trie {
	return &Trie{root: root, src: src}
}

// NewEmptyTrie returns an empty Trie.
func NewEmptyTrie(src Source) *Trie {
	return NewTrie(nil, src)
}

// Root returns the root node of t, it's nil for an empty trie.
func (t *Trie) Root() *Node {
	return t.root
}

// Source returns the node source used by t.
func (t *Trie) Source() Source {
	return t.src
}

// IsEmpty tells whether t has no values.
func (t *Trie) IsEmpty() bool {
	return t.root == nil
}

// Hash returns the root hash of t.
func (t *Trie) Hash() util.Uint256 {
	if t.root == nil {
		return EmptyTrieHash
	}
	return t.root.Hash()
}

// Size returns the number of values stored in t.
func (t *Trie) Size() uint64 {
	return subtreeSize(t.root)
}

func (t *Trie) with(root *Node) *Trie {
	if root == t.root {
		return t
	}
	return NewTrie(root, t.src)
}

// Find returns the node located exactly at the given key. It returns nil if
// there is no such node, the node returned may have no value.
func (t *Trie) Find(key []byte) (*Node, error) {
	if len(key) > MaxKeySize {
		return nil, ErrKeyTooBig
	}
	return t.find(NewPath(key))
}

func (t *Trie) find(path Path) (*Node, error) {
	var (
		n   = t.root
		err error
	)
	for n != nil {
		if !bytes.HasPrefix(path, n.sharedPath) {
			return nil, nil
		}
		path = path[len(n.sharedPath):]
		if len(path) == 0 {
			return n, nil
		}
		n, err = n.resolveChild(path[0], t.src)
		if err != nil {
			return nil, err
		}
		path = path[1:]
	}
	return nil, nil
}

// Get returns the value bound to the key or nil if there is no value.
func (t *Trie) Get(key []byte) ([]byte, error) {
	n, err := t.Find(key)
	if err != nil || n == nil {
		return nil, err
	}
	return n.getValue(t.src)
}

// Put returns a new Trie with the value bound to the key. An empty value
// removes the key. The timestamp of an existing node is kept.
func (t *Trie) Put(key, value []byte) (*Trie, error) {
	return t.put(key, value, 0, false)
}

// PutWithTimestamp is the same as Put, but it also sets the last update
// timestamp of the node.
func (t *Trie) PutWithTimestamp(key, value []byte, ts uint64) (*Trie, error) {
	return t.put(key, value, ts, true)
}

// Delete returns a new Trie without the value bound to the key. The values
// bound to the keys prefixed by the given one are kept.
func (t *Trie) Delete(key []byte) (*Trie, error) {
	return t.put(key, nil, 0, false)
}

func (t *Trie) put(key, value []byte, ts uint64, setTS bool) (*Trie, error) {
	if len(key) > MaxKeySize {
		return nil, ErrKeyTooBig
	}
	if len(value) > MaxValueSize {
		return nil, ErrValueTooBig
	}
	if len(value) == 0 {
		value = nil
	} else {
		value = bytes.Clone(value)
	}
	r, err := t.putIntoNode(t.root, NewPath(key), value, ts, setTS)
	if err != nil {
		return nil, err
	}
	return t.with(r), nil
}

// putIntoNode puts the value into the subtree rooted at n. It returns the new
// subtree root (possibly n itself if nothing has changed).
func (t *Trie) putIntoNode(n *Node, path Path, value []byte, ts uint64, setTS bool) (*Node, error) {
	if n == nil {
		if value == nil {
			return nil, nil
		}
		return newLeaf(path, value, ts), nil
	}

	cp := lcp(path, n.sharedPath)
	if cp < len(n.sharedPath) {
		if value == nil {
			return n, nil
		}
		return t.split(n, cp, path, value, ts), nil
	}

	if cp == len(path) {
		if value == nil {
			if !n.HasValue() {
				return n, nil
			}
			c := n.clone()
			c.setValue(nil)
			c.lastUpdated = 0
			return t.normalize(c)
		}
		if n.hasSameValue(value) && (!setTS || n.lastUpdated == ts) {
			return n, nil
		}
		c := n.clone()
		c.setValue(value)
		if setTS {
			c.lastUpdated = ts
		}
		return c, nil
	}

	bit := path[cp]
	child, err := n.resolveChild(bit, t.src)
	if err != nil {
		return nil, err
	}
	newChild, err := t.putIntoNode(child, path[cp+1:], value, ts, setTS)
	if err != nil {
		return nil, err
	}
	if newChild == child {
		return n, nil
	}
	return t.normalize(withChild(n, bit, child, newChild))
}

// split creates a node at the first cp bits of n's shared path holding both n
// and the new value.
func (t *Trie) split(n *Node, cp int, path Path, value []byte, ts uint64) *Node {
	old := n.clone()
	old.sharedPath = n.sharedPath[cp+1:]
	oldBit := n.sharedPath[cp]

	var parent *Node
	if cp == len(path) {
		parent = newLeaf(path, value, ts)
	} else {
		parent = &Node{sharedPath: path[:cp]}
		parent.setChild(path[cp], refToNode(newLeaf(path[cp+1:], value, ts)))
		parent.childrenSize = 1
	}
	parent.setChild(oldBit, refToNode(old))
	parent.childrenSize += subtreeSize(old)
	return parent
}

// withChild returns a copy of n with the child for the given bit replaced.
func withChild(n *Node, bit byte, oldChild, newChild *Node) *Node {
	c := n.clone()
	if newChild == nil {
		c.setChild(bit, nil)
	} else {
		c.setChild(bit, refToNode(newChild))
	}
	c.childrenSize = n.childrenSize - subtreeSize(oldChild) + subtreeSize(newChild)
	return c
}

// normalize brings n to the canonical form: a node without value must have
// two children, a node with one child is merged with it and a node without
// children is removed.
func (t *Trie) normalize(n *Node) (*Node, error) {
	if n.HasValue() {
		return n, nil
	}
	switch {
	case n.left != nil && n.right != nil:
		return n, nil
	case n.left == nil && n.right == nil:
		return nil, nil
	}

	var bit byte
	if n.right != nil {
		bit = 1
	}
	child, err := n.resolveChild(bit, t.src)
	if err != nil {
		return nil, err
	}
	c := child.clone()
	c.sharedPath = concatPath(n.sharedPath, bit, child.sharedPath)
	return c, nil
}

// DeleteRecursive returns a new Trie without the values bound to the key and
// all keys it prefixes.
func (t *Trie) DeleteRecursive(key []byte) (*Trie, error) {
	if len(key) > MaxKeySize {
		return nil, ErrKeyTooBig
	}
	r, err := t.deleteRecursive(t.root, NewPath(key))
	if err != nil {
		return nil, err
	}
	return t.with(r), nil
}

func (t *Trie) deleteRecursive(n *Node, path Path) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	if len(path) <= len(n.sharedPath) {
		if bytes.HasPrefix(n.sharedPath, path) {
			return nil, nil
		}
		return n, nil
	}
	if !bytes.HasPrefix(path, n.sharedPath) {
		return n, nil
	}

	bit := path[len(n.sharedPath)]
	child, err := n.resolveChild(bit, t.src)
	if err != nil {
		return nil, err
	}
	newChild, err := t.deleteRecursive(child, path[len(n.sharedPath)+1:])
	if err != nil {
		return nil, err
	}
	if newChild == child {
		return n, nil
	}
	return t.normalize(withChild(n, bit, child, newChild))
}

// GetValueLength returns the length of the value bound to the key without
// loading the value.
func (t *Trie) GetValueLength(key []byte) (ValueLength, error) {
	n, err := t.Find(key)
	if err != nil {
		return ValueLength{}, err
	}
	switch {
	case n == nil:
		return ValueLength{State: ValueAbsent}, nil
	case !n.HasValue():
		return ValueLength{State: ValueEmpty}, nil
	default:
		return ValueLength{State: ValuePresent, Length: n.valueLength}, nil
	}
}

// GetValueLengthForEncoding returns the length of the value bound to the key
// and whether there is a node at the key at all. Nodes without value have
// zero length.
func (t *Trie) GetValueLengthForEncoding(key []byte) (util.Uint24, bool, error) {
	n, err := t.Find(key)
	if err != nil || n == nil {
		return 0, false, err
	}
	return n.valueLength, true, nil
}

// GetValueHash returns the hash of the value bound to the key without
// loading long values. False is returned if there is no value.
func (t *Trie) GetValueHash(key []byte) (util.Uint256, bool, error) {
	n, err := t.Find(key)
	if err != nil || n == nil || !n.HasValue() {
		return util.Uint256{}, false, err
	}
	return n.ValueHash(), true, nil
}

// GetNodeData returns the metadata of the node located at the key, nil is
// returned if there is no such node.
func (t *Trie) GetNodeData(key []byte) (*NodeData, error) {
	n, err := t.Find(key)
	if err != nil || n == nil {
		return nil, err
	}
	d := n.Data()
	return &d, nil
}

// PreOrderIterator returns an iterator over all nodes of t reporting full
// node keys.
func (t *Trie) PreOrderIterator() *PreOrderIterator {
	var key Path
	if t.root != nil {
		key = t.root.sharedPath
	}
	return NewPreOrderIterator(t.root, key, t.src)
}

// CollectKeys returns all keys of t in lexicographic order. ErrTooManyKeys is
// returned if t has more than maxCount keys, a negative maxCount allows none.
func (t *Trie) CollectKeys(maxCount int) ([][]byte, error) {
	var (
		keys [][]byte
		it   = t.PreOrderIterator()
	)
	for it.HasNext() {
		e, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !e.Node.HasValue() {
			continue
		}
		if len(keys) >= maxCount {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyKeys, maxCount)
		}
		keys = append(keys, e.Key.Bytes())
	}
	return keys, it.Err()
}
