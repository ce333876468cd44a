package mpt

import (
	"bytes"

	"github.com/ethereum/go-ethereum/rlp"
)

// ExtensionNode represents MPT's extension node, a non-empty shared path
// segment followed by a single child.
type ExtensionNode struct {
	BaseNode
	path []byte
	next Node
}

var _ Node = (*ExtensionNode)(nil)

// newExtensionNode returns an extension with the given nibble path pointing
// to next. Path must not be empty.
func newExtensionNode(path []byte, next Node, inline int) *ExtensionNode {
	if len(path) == 0 {
		panic("extension node with empty path")
	}
	n := &ExtensionNode{path: path, next: next}
	n.init(encodeExtension(path, next), inline)
	return n
}

// Type implements Node interface.
func (n *ExtensionNode) Type() NodeType { return ExtensionT }

// Path returns nibble path of the extension.
func (n *ExtensionNode) Path() []byte {
	return bytes.Clone(n.path)
}

// Next returns the child of the extension.
func (n *ExtensionNode) Next() Node {
	return n.next
}

func encodeExtension(path []byte, next Node) []byte {
	w := rlp.NewEncoderBuffer(nil)
	l := w.List()
	w.WriteBytes(encodePath(path, false))
	_, _ = w.Write(next.reference())
	w.ListEnd(l)
	return finishEncoding(&w)
}
