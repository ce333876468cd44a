package mpt

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/mpt/pkg/core/storage"
	"github.com/nspcc-dev/mpt/pkg/util"
)

// NodeStore keeps trie nodes in a storage.Store under DataMPT-prefixed
// keys. It implements both NodeLoader and NodeUpdater. Used with
// storage.MemCachedStore it makes commits atomic: nothing reaches the
// underlying store until Persist.
type NodeStore struct {
	Store storage.Store
}

var (
	_ NodeLoader  = (*NodeStore)(nil)
	_ NodeUpdater = (*NodeStore)(nil)
)

// NewNodeStore returns NodeStore over s.
func NewNodeStore(s storage.Store) *NodeStore {
	return &NodeStore{Store: s}
}

// LoadNode implements NodeLoader interface.
func (s *NodeStore) LoadNode(h util.Uint256) ([]byte, error) {
	data, err := s.Store.Get(makeStorageKey(h))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMissingNode, h)
		}
		return nil, err
	}
	return data, nil
}

// StoreNode implements NodeUpdater interface.
func (s *NodeStore) StoreNode(h util.Uint256, data []byte) error {
	return s.Store.Put(makeStorageKey(h), data)
}

func makeStorageKey(h util.Uint256) []byte {
	return append([]byte{byte(storage.DataMPT)}, h[:]...)
}
