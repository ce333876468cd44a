package mpt

import (
	"bytes"
	"fmt"

	"github.com/nspcc-dev/mpt/pkg/crypto/hash"
	"github.com/nspcc-dev/mpt/pkg/util"
)

// Proof is a value (nil if the key is missing) with node encodings proving
// it against the trie root.
type Proof struct {
	Value []byte   `json:"value"`
	Nodes [][]byte `json:"nodes"`
}

// GetValueWithProof returns the value for key along with the proof. Proof
// nodes are the root encoding and encodings of all nodes referenced by
// digest on the path from the root to the key (or the point where the path
// diverges for a missing key) in root-to-leaf order. Inline nodes are a part
// of their parents' encodings, so they're not included separately.
func (t *Trie) GetValueWithProof(key []byte) (*Proof, error) {
	var (
		nodes [][]byte
		first = true
	)
	v, err := t.lookup(t.root, toNibbles(key), func(n Node) {
		if n.Type() == EmptyT {
			return
		}
		if first || len(n.Bytes()) >= t.inline {
			nodes = append(nodes, bytes.Clone(n.Bytes()))
		}
		first = false
	})
	if err != nil {
		return nil, err
	}
	return &Proof{Value: bytes.Clone(v), Nodes: nodes}, nil
}

// VerifyProof verifies that proof nodes are consistent with the given root
// and returns the value for key they prove. Nil value without an error
// proves the key is missing. Nodes that are not a part of the path are
// ignored.
func VerifyProof(root util.Uint256, key []byte, nodes [][]byte) ([]byte, error) {
	tr := NewTrie(root, Config{Loader: newProofLoader(nodes), CacheSize: -1})
	return tr.Get(key)
}

// proofLoader is a NodeLoader over a set of proof nodes.
type proofLoader map[util.Uint256][]byte

func newProofLoader(nodes [][]byte) proofLoader {
	res := make(proofLoader, len(nodes))
	for _, n := range nodes {
		res[hash.Keccak256(n)] = n
	}
	return res
}

// LoadNode implements NodeLoader interface.
func (p proofLoader) LoadNode(h util.Uint256) ([]byte, error) {
	data, ok := p[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in the proof", ErrMissingNode, h)
	}
	return data, nil
}
