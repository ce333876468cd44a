package mpt

import (
	"fmt"

	"github.com/nspcc-dev/mpt/pkg/util"
)

// HashNode represents MPT's hash node, a reference to a node which is not
// loaded into memory.
type HashNode struct {
	hash util.Uint256
}

var _ Node = (*HashNode)(nil)

// NewHashNode returns hash node with the specified hash.
func NewHashNode(h util.Uint256) *HashNode {
	return &HashNode{hash: h}
}

// Type implements Node interface.
func (h *HashNode) Type() NodeType { return HashT }

// Hash implements Node interface.
func (h *HashNode) Hash() util.Uint256 {
	return h.hash
}

// Bytes implements Node interface. Hash node has no encoding of its own
// until it's resolved, so it panics.
func (h *HashNode) Bytes() []byte {
	panic(fmt.Sprintf("can't get bytes of an unresolved node %s", h.hash))
}

// IsFlushed implements Node interface. Hash nodes are only obtained from
// already stored data.
func (h *HashNode) IsFlushed() bool {
	return true
}

func (h *HashNode) reference() []byte {
	return hashRef(h.hash)
}

func (h *HashNode) setFlushed() {}
