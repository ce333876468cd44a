package mpt

import (
	"bytes"
	"fmt"
	"sort"
)

// Batch is a batch of storage changes.
// It stores key-value pairs in a sorted order.
type Batch struct {
	kv []keyValue
}

type keyValue struct {
	key   []byte
	value []byte
}

// Add adds key-value pair to batch. Nil value means the key is to be
// deleted, empty non-nil value is not allowed. If there is an item with the
// specified key, it is replaced.
func (b *Batch) Add(key []byte, value []byte) {
	if value != nil && len(value) == 0 {
		panic("empty value")
	}
	path := toNibbles(key)
	i := sort.Search(len(b.kv), func(i int) bool {
		return bytes.Compare(path, b.kv[i].key) <= 0
	})
	if i == len(b.kv) {
		b.kv = append(b.kv, keyValue{path, value})
	} else if bytes.Equal(b.kv[i].key, path) {
		b.kv[i].value = value
	} else {
		b.kv = append(b.kv, keyValue{})
		copy(b.kv[i+1:], b.kv[i:])
		b.kv[i] = keyValue{path, value}
	}
}

// Len returns the number of changes in the batch.
func (b *Batch) Len() int {
	return len(b.kv)
}

// PutBatch puts a batch to a trie. Changes are applied in key order, it
// stops at the first error leaving t with all the previous changes applied
// and returns the number of successfully applied ones.
func (t *Trie) PutBatch(b Batch) (int, error) {
	root := t.root
	for i, kv := range b.kv {
		var err error
		if kv.value == nil {
			root, err = t.deleteFromNode(root, kv.key)
		} else {
			root, err = t.putIntoNode(root, kv.key, bytes.Clone(kv.value))
		}
		if err != nil {
			return i, fmt.Errorf("item %d: %w", i, err)
		}
		t.root = root
	}
	return len(b.kv), nil
}
