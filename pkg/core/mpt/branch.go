package mpt

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// childrenCount represents a number of children of a branch node.
const childrenCount = 16

// BranchNode represents MPT's branch node.
type BranchNode struct {
	BaseNode
	children [childrenCount]Node
	value    []byte
}

var _ Node = (*BranchNode)(nil)

// newBranchNode returns a new branch with the given children and optional
// value. Nil children are replaced by EmptyNode.
func newBranchNode(children [childrenCount]Node, value []byte, inline int) *BranchNode {
	n := &BranchNode{children: children, value: value}
	for i := range n.children {
		if n.children[i] == nil {
			n.children[i] = EmptyNode{}
		}
	}
	n.init(encodeBranch(&n.children, value), inline)
	return n
}

// Type implements Node interface.
func (b *BranchNode) Type() NodeType { return BranchT }

// Child returns i-th child of the branch, it panics if i is not a nibble.
func (b *BranchNode) Child(i byte) Node {
	if i >= childrenCount {
		panic(fmt.Sprintf("invalid branch child index: %d", i))
	}
	return b.children[i]
}

// Value returns a copy of the value stored in the branch itself, nil if
// there is none.
func (b *BranchNode) Value() []byte {
	return bytes.Clone(b.value)
}

// withChild returns a copy of b with i-th child replaced.
func (b *BranchNode) withChild(i byte, c Node, inline int) *BranchNode {
	children := b.children
	children[i] = c
	return newBranchNode(children, b.value, inline)
}

// withValue returns a copy of b with the value replaced.
func (b *BranchNode) withValue(v []byte, inline int) *BranchNode {
	return newBranchNode(b.children, v, inline)
}

func encodeBranch(children *[childrenCount]Node, value []byte) []byte {
	w := rlp.NewEncoderBuffer(nil)
	l := w.List()
	for _, c := range children {
		_, _ = w.Write(c.reference())
	}
	w.WriteBytes(value)
	w.ListEnd(l)
	return finishEncoding(&w)
}
