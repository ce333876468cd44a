package mpt

import (
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/nspcc-dev/mpt/pkg/crypto/hash"
	"github.com/nspcc-dev/mpt/pkg/util"
)

// NodeType represents node type.
type NodeType byte

// Node types definitions.
const (
	BranchT    NodeType = 0x00
	ExtensionT NodeType = 0x01
	HashT      NodeType = 0x02
	LeafT      NodeType = 0x03
	EmptyT     NodeType = 0x04
)

// DefaultInlineThreshold is the encoded node size starting from which nodes
// are referenced by hash from their parents.
const DefaultInlineThreshold = util.Uint256Size

// String implements fmt.Stringer.
func (t NodeType) String() string {
	switch t {
	case BranchT:
		return "branch"
	case ExtensionT:
		return "extension"
	case HashT:
		return "hash"
	case LeafT:
		return "leaf"
	case EmptyT:
		return "empty"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// Node represents common interface of all MPT nodes. The set of
// implementations is closed: EmptyNode, *LeafNode, *ExtensionNode,
// *BranchNode and *HashNode.
type Node interface {
	// Type returns node kind.
	Type() NodeType
	// Hash returns Keccak-256 digest of the node encoding.
	Hash() util.Uint256
	// Bytes returns canonical RLP encoding of the node, it must not be
	// modified.
	Bytes() []byte
	// IsFlushed tells whether the node is known to be persisted.
	IsFlushed() bool

	// reference returns the node representation inside the parent's
	// encoding: the node itself or its hash.
	reference() []byte
	setFlushed()
}

// BaseNode implements basic things every node needs like caching hash and
// serialized representation. It's a basic node building block intended to be
// included into all node types. All fields are set once on construction
// except for the flush mark.
type BaseNode struct {
	hash  util.Uint256
	bytes []byte
	ref   []byte

	isFlushed atomic.Bool
}

// init sets encoding-derived fields for this BaseNode.
func (b *BaseNode) init(bs []byte, inline int) {
	b.bytes = bs
	b.hash = hash.Keccak256(bs)
	if len(bs) < inline {
		b.ref = bs
	} else {
		b.ref = hashRef(b.hash)
	}
}

// Hash implements Node interface.
func (b *BaseNode) Hash() util.Uint256 {
	return b.hash
}

// Bytes implements Node interface.
func (b *BaseNode) Bytes() []byte {
	return b.bytes
}

// IsFlushed implements Node interface.
func (b *BaseNode) IsFlushed() bool {
	return b.isFlushed.Load()
}

func (b *BaseNode) setFlushed() {
	b.isFlushed.Store(true)
}

func (b *BaseNode) reference() []byte {
	return b.ref
}

const hashRefSize = util.Uint256Size + 1

// hashRef returns RLP string containing h.
func hashRef(h util.Uint256) []byte {
	res := make([]byte, hashRefSize)
	res[0] = 0x80 + util.Uint256Size
	copy(res[1:], h[:])
	return res
}

// finishEncoding returns accumulated RLP bytes and releases the buffer.
func finishEncoding(w *rlp.EncoderBuffer) []byte {
	res := w.ToBytes()
	_ = w.Flush()
	return res
}
