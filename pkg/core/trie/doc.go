/*
Package trie implements a binary path-compressed authenticated trie.

Keys are expanded into bit paths (see Path) and every node carries the part
of the path it shares with all of its descendants, an optional value and up
to two children (left for 0 and right for 1). The trie is kept in a canonical
form: every node either has a value or exactly two children, so a given set of
key-value pairs always produces the same root hash no matter the order of
operations.

Tries are persistent, every modification returns a new *Trie sharing untouched
subtrees with the old one. Nodes are identified by the Keccak-256 hash of their
serialized representation and can be stored in any storage.Store via TrieStore.
*/
package trie
