package storage

import (
	"bytes"
)

// MemCachedStore is a wrapper around persistent store that caches all changes
// being made for them to be later flushed in one batch.
type MemCachedStore struct {
	MemoryStore

	// Persistent Store.
	ps Store
}

// NewMemCachedStore creates a new MemCachedStore object.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return &MemCachedStore{
		MemoryStore: MemoryStore{mem: make(map[string][]byte)},
		ps:          lower,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	if val, ok := s.mem[string(key)]; ok {
		if val == nil {
			return nil, ErrKeyNotFound
		}
		return val, nil
	}
	return s.ps.Get(key)
}

// Delete drops the key from the store, deletion is applied to the
// persistent store on Persist.
func (s *MemCachedStore) Delete(key []byte) {
	s.mut.Lock()
	s.mem[string(key)] = nil
	s.mut.Unlock()
}

// PutChangeSet implements the Store interface. Changes are kept in memory
// until Persist.
func (s *MemCachedStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	for k, v := range puts {
		s.mem[k] = v
	}
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface. Cached items take precedence over the
// persistent ones.
func (s *MemCachedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	var merged []KeyValue
	s.ps.Seek(rng, func(k, v []byte) bool {
		if _, ok := s.mem[string(k)]; !ok {
			merged = append(merged, KeyValue{Key: bytes.Clone(k), Value: bytes.Clone(v)})
		}
		return true
	})
	s.MemoryStore.seek(rng, func(k, v []byte) bool {
		merged = append(merged, KeyValue{Key: k, Value: v})
		return true
	})
	sortKV(merged)
	for _, kv := range merged {
		if !f(kv.Key, kv.Value) {
			break
		}
	}
}

// Persist flushes all the MemoryStore contents into the (supposedly) persistent
// store ps. It returns the number of keys flushed.
func (s *MemCachedStore) Persist() (int, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	keys := len(s.mem)
	if keys == 0 {
		return 0, nil
	}
	err := s.ps.PutChangeSet(s.mem)
	if err != nil {
		return 0, err
	}
	s.mem = make(map[string][]byte)
	return keys, nil
}

// Close implements Store interface, it closes the underlying store without
// persisting pending changes.
func (s *MemCachedStore) Close() error {
	return s.ps.Close()
}
