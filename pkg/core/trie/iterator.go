package trie

import "errors"

// ErrNoMoreElements is returned by iterators when all elements are already
// consumed.
var ErrNoMoreElements = errors.New("no more elements")

// IterationElement is a node along with its key.
type IterationElement struct {
	// Key is the path to the node (including its shared path) relative to
	// the iteration root.
	Key  Path
	Node *Node
}

// PreOrderIterator traverses the trie in pre-order: the node first, then its
// left subtree and then its right subtree. Nodes are resolved lazily, so
// traversal errors are returned from Next and kept in Err.
type PreOrderIterator struct {
	src   Source
	stack []IterationElement
	err   error
}

// NewPreOrderIterator returns an iterator starting at root. rootKey is the
// key reported for root, keys of the descendants are built by appending the
// child bit and the child shared path to it.
func NewPreOrderIterator(root *Node, rootKey Path, src Source) *PreOrderIterator {
	it := &PreOrderIterator{src: src}
	if root != nil {
		it.stack = append(it.stack, IterationElement{Key: rootKey, Node: root})
	}
	return it
}

// HasNext tells whether there are more elements to iterate over.
func (it *PreOrderIterator) HasNext() bool {
	return it.err == nil && len(it.stack) != 0
}

// Next returns the next element.
func (it *PreOrderIterator) Next() (IterationElement, error) {
	if it.err != nil {
		return IterationElement{}, it.err
	}
	if len(it.stack) == 0 {
		return IterationElement{}, ErrNoMoreElements
	}

	e := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]

	left, right, err := it.resolveChildren(e.Node)
	if err != nil {
		it.err = err
		it.stack = nil
		return IterationElement{}, err
	}
	if right != nil {
		it.stack = append(it.stack, IterationElement{Key: concatPath(e.Key, 1, right.sharedPath), Node: right})
	}
	if left != nil {
		it.stack = append(it.stack, IterationElement{Key: concatPath(e.Key, 0, left.sharedPath), Node: left})
	}
	return e, nil
}

// resolveChildren loads both children of n checking its children size.
func (it *PreOrderIterator) resolveChildren(n *Node) (*Node, *Node, error) {
	left, err := n.resolveChild(0, it.src)
	if err != nil {
		return nil, nil, err
	}
	right, err := n.resolveChild(1, it.src)
	if err != nil {
		return nil, nil, err
	}
	return left, right, checkChildrenSize(n, left, right)
}

// Err returns the traversal error if any.
func (it *PreOrderIterator) Err() error {
	return it.err
}
