package mpt

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/nspcc-dev/mpt/pkg/util"
)

// EmptyRoot is the digest of an empty trie, Keccak-256 of the empty RLP
// string.
var EmptyRoot = util.Uint256{
	0x56, 0xe8, 0x1f, 0x17, 0x1b, 0xcc, 0x55, 0xa6, 0xff, 0x83, 0x45, 0xe6, 0x92, 0xc0, 0xf8, 0x6e,
	0x5b, 0x48, 0xe0, 0x1b, 0x99, 0x6c, 0xad, 0xc0, 0x01, 0x62, 0x2f, 0xb5, 0xe3, 0x63, 0xb4, 0x21,
}

// EmptyNode represents empty node.
type EmptyNode struct{}

var _ Node = EmptyNode{}

// Type implements Node interface.
func (e EmptyNode) Type() NodeType {
	return EmptyT
}

// Hash implements Node interface.
func (e EmptyNode) Hash() util.Uint256 {
	return EmptyRoot
}

// Bytes implements Node interface.
func (e EmptyNode) Bytes() []byte {
	return rlp.EmptyString
}

// IsFlushed implements Node interface, empty node never needs to be stored.
func (e EmptyNode) IsFlushed() bool {
	return true
}

func (e EmptyNode) reference() []byte {
	return rlp.EmptyString
}

func (e EmptyNode) setFlushed() {}
