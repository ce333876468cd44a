package mpt

import (
	"bytes"

	"github.com/ethereum/go-ethereum/rlp"
)

// LeafNode represents MPT's leaf node, it holds the remainder of the key
// path and the value.
type LeafNode struct {
	BaseNode
	path  []byte
	value []byte
}

var _ Node = (*LeafNode)(nil)

// newLeafNode creates a leaf with the given nibble path and value, neither
// slice is copied.
func newLeafNode(path, value []byte, inline int) *LeafNode {
	n := &LeafNode{path: path, value: value}
	n.init(encodeLeaf(path, value), inline)
	return n
}

// Type implements Node interface.
func (n *LeafNode) Type() NodeType { return LeafT }

// Path returns nibble path of the leaf.
func (n *LeafNode) Path() []byte {
	return bytes.Clone(n.path)
}

// Value returns a copy of the leaf value.
func (n *LeafNode) Value() []byte {
	return bytes.Clone(n.value)
}

func encodeLeaf(path, value []byte) []byte {
	w := rlp.NewEncoderBuffer(nil)
	l := w.List()
	w.WriteBytes(encodePath(path, true))
	w.WriteBytes(value)
	w.ListEnd(l)
	return finishEncoding(&w)
}
