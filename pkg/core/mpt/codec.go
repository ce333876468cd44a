package mpt

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/nspcc-dev/mpt/pkg/util"
)

// DecodeNode decodes a standalone node encoding using the default inline
// threshold. Children referenced by digest are returned as *HashNode.
func DecodeNode(data []byte) (Node, error) {
	return decodeNode(bytes.Clone(data), DefaultInlineThreshold)
}

// decodeNode decodes data which is owned by the resulting node afterwards.
// Decoded nodes are marked as flushed.
func decodeNode(data []byte, inline int) (Node, error) {
	if bytes.Equal(data, rlp.EmptyString) {
		return EmptyNode{}, nil
	}
	elems, rest, err := rlp.SplitList(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedNode, len(rest))
	}
	cnt, err := rlp.CountValues(elems)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}

	var n Node
	switch cnt {
	case 2:
		n, err = decodeShort(elems, inline)
	case childrenCount + 1:
		n, err = decodeFull(elems, inline)
	default:
		return nil, fmt.Errorf("%w: invalid number of list elements: %d", ErrMalformedNode, cnt)
	}
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(n.Bytes(), data) {
		return nil, fmt.Errorf("%w: non-canonical %s encoding", ErrMalformedNode, n.Type())
	}
	n.setFlushed()
	return n, nil
}

func decodeShort(elems []byte, inline int) (Node, error) {
	hp, rest, err := rlp.SplitString(elems)
	if err != nil {
		return nil, fmt.Errorf("%w: path: %v", ErrMalformedNode, err)
	}
	path, leaf, err := decodePath(hp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedNode, err)
	}
	if leaf {
		val, _, err := rlp.SplitString(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: leaf value: %v", ErrMalformedNode, err)
		}
		if len(val) == 0 {
			return nil, fmt.Errorf("%w: empty leaf value", ErrMalformedNode)
		}
		return newLeafNode(path, val, inline), nil
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty extension path", ErrMalformedNode)
	}
	next, _, err := decodeRef(rest, inline)
	if err != nil {
		return nil, err
	}
	switch next.(type) {
	case *BranchNode, *HashNode:
	default:
		return nil, fmt.Errorf("%w: extension points to %s node", ErrMalformedNode, next.Type())
	}
	return newExtensionNode(path, next, inline), nil
}

func decodeFull(elems []byte, inline int) (Node, error) {
	var (
		children [childrenCount]Node
		err      error
		num      int
	)
	for i := range children {
		children[i], elems, err = decodeRef(elems, inline)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		if children[i].Type() != EmptyT {
			num++
		}
	}
	val, _, err := rlp.SplitString(elems)
	if err != nil {
		return nil, fmt.Errorf("%w: branch value: %v", ErrMalformedNode, err)
	}
	if len(val) == 0 {
		val = nil
	} else {
		num++
	}
	if num < 2 {
		return nil, fmt.Errorf("%w: branch with a single entry", ErrMalformedNode)
	}
	return newBranchNode(children, val, inline), nil
}

// decodeRef decodes a child reference from the beginning of buf and returns
// the rest of it.
func decodeRef(buf []byte, inline int) (Node, []byte, error) {
	kind, val, rest, err := rlp.Split(buf)
	if err != nil {
		return nil, buf, fmt.Errorf("%w: reference: %v", ErrMalformedNode, err)
	}
	switch {
	case kind == rlp.List:
		size := len(buf) - len(rest)
		if size >= inline {
			return nil, buf, fmt.Errorf("%w: oversized embedded node (%d bytes)", ErrMalformedNode, size)
		}
		n, err := decodeNode(buf[:size:size], inline)
		return n, rest, err
	case kind == rlp.String && len(val) == 0:
		return EmptyNode{}, rest, nil
	case kind == rlp.String && len(val) == util.Uint256Size:
		h, _ := util.Uint256DecodeBytesBE(val)
		return NewHashNode(h), rest, nil
	default:
		return nil, buf, fmt.Errorf("%w: invalid reference of %d bytes", ErrMalformedNode, len(val))
	}
}
