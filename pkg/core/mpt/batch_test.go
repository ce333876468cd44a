package mpt

import (
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/nspcc-dev/mpt/internal/random"
	"github.com/nspcc-dev/mpt/pkg/core/storage"
	"github.com/nspcc-dev/mpt/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestBatchAdd(t *testing.T) {
	b := new(Batch)
	b.Add([]byte{1}, []byte{2})
	b.Add([]byte{2, 16}, []byte{3})
	b.Add([]byte{2, 0}, []byte{4})
	b.Add([]byte{0, 1}, []byte{5})
	b.Add([]byte{2, 0}, []byte{6})
	expected := []keyValue{
		{[]byte{0, 0, 0, 1}, []byte{5}},
		{[]byte{0, 1}, []byte{2}},
		{[]byte{0, 2, 0, 0}, []byte{6}},
		{[]byte{0, 2, 1, 0}, []byte{3}},
	}
	require.Equal(t, expected, b.kv)
	require.Equal(t, 4, b.Len())

	t.Run("empty value", func(t *testing.T) {
		require.Panics(t, func() { b.Add([]byte{3}, []byte{}) })
		require.Equal(t, 4, b.Len())
	})
}

type pairs = [][2][]byte

func newBatchTrie(t *testing.T) *Trie {
	return newStoredTrie(t, util.Uint256{}, storage.NewMemoryStore())
}

func testIncompletePut(t *testing.T, ps pairs, n int, tr1, tr2 *Trie) {
	var b Batch
	for i, p := range ps {
		if i < n {
			if p[1] == nil {
				require.NoError(t, tr1.Delete(p[0]), "item %d", i)
			} else {
				require.NoError(t, tr1.Put(p[0], p[1]), "item %d", i)
			}
		} else if i == n {
			if p[1] == nil {
				require.Error(t, tr1.Delete(p[0]), "item %d", i)
			} else {
				require.Error(t, tr1.Put(p[0], p[1]), "item %d", i)
			}
		}
		b.Add(p[0], p[1])
	}

	num, err := tr2.PutBatch(b)
	if n == len(ps) {
		require.NoError(t, err)
	} else {
		require.Error(t, err)
	}
	require.Equal(t, n, num)
	require.Equal(t, tr1.StateRoot(), tr2.StateRoot())

	t.Run("test restore", func(t *testing.T) {
		s := tr2.loader.(*NodeStore)
		_, err := tr2.Commit(s)
		require.NoError(t, err)
		tr3 := NewTrie(tr2.StateRoot(), Config{Loader: s})
		for _, p := range ps[:n] {
			val, err := tr3.Get(p[0])
			require.NoError(t, err, "key: %s", hex.EncodeToString(p[0]))
			require.Equal(t, p[1], val)
		}
	})
}

func testPut(t *testing.T, ps pairs, tr1, tr2 *Trie) {
	testIncompletePut(t, ps, len(ps), tr1, tr2)
}

func TestTrie_PutBatchLeaf(t *testing.T) {
	prepareLeaf := func(t *testing.T) (*Trie, *Trie) {
		tr1 := newBatchTrie(t)
		tr2 := newBatchTrie(t)
		require.NoError(t, tr1.Put([]byte{0}, []byte("value")))
		require.NoError(t, tr2.Put([]byte{0}, []byte("value")))
		return tr1, tr2
	}

	t.Run("remove", func(t *testing.T) {
		tr1, tr2 := prepareLeaf(t)
		var ps = pairs{{[]byte{0}, nil}}
		testPut(t, ps, tr1, tr2)
	})
	t.Run("replace", func(t *testing.T) {
		tr1, tr2 := prepareLeaf(t)
		var ps = pairs{{[]byte{0}, []byte("replace")}}
		testPut(t, ps, tr1, tr2)
	})
	t.Run("remove and replace", func(t *testing.T) {
		tr1, tr2 := prepareLeaf(t)
		var ps = pairs{
			{[]byte{0}, nil},
			{[]byte{0, 2}, []byte("replace2")},
		}
		testPut(t, ps, tr1, tr2)
	})
}

func TestTrie_PutBatchExtension(t *testing.T) {
	prepareExtension := func(t *testing.T) (*Trie, *Trie) {
		tr1 := newBatchTrie(t)
		tr2 := newBatchTrie(t)
		require.NoError(t, tr1.Put([]byte{1, 2}, []byte("value1")))
		require.NoError(t, tr2.Put([]byte{1, 2}, []byte("value1")))
		return tr1, tr2
	}

	t.Run("split, key len > 1", func(t *testing.T) {
		tr1, tr2 := prepareExtension(t)
		var ps = pairs{{[]byte{2, 3}, []byte("value2")}}
		testPut(t, ps, tr1, tr2)
	})
	t.Run("split, key len = 1", func(t *testing.T) {
		tr1, tr2 := prepareExtension(t)
		var ps = pairs{{[]byte{1, 3}, []byte("value2")}}
		testPut(t, ps, tr1, tr2)
	})
	t.Run("add to next", func(t *testing.T) {
		tr1, tr2 := prepareExtension(t)
		var ps = pairs{{[]byte{1, 2, 3}, []byte("value2")}}
		testPut(t, ps, tr1, tr2)
	})
	t.Run("add to next with leaf", func(t *testing.T) {
		tr1, tr2 := prepareExtension(t)
		var ps = pairs{
			{[]byte{0}, []byte("value3")},
			{[]byte{1, 2, 3}, []byte("value2")},
		}
		testPut(t, ps, tr1, tr2)
	})
	t.Run("remove value", func(t *testing.T) {
		tr1, tr2 := prepareExtension(t)
		var ps = pairs{{[]byte{1, 2}, nil}}
		testPut(t, ps, tr1, tr2)
	})
	t.Run("add to next, merge extension", func(t *testing.T) {
		tr1, tr2 := prepareExtension(t)
		var ps = pairs{
			{[]byte{1, 2}, nil},
			{[]byte{1, 2, 3}, []byte("value2")},
		}
		testPut(t, ps, tr1, tr2)
	})
}

func TestTrie_PutBatchBranch(t *testing.T) {
	prepareBranch := func(t *testing.T) (*Trie, *Trie) {
		tr1 := newBatchTrie(t)
		tr2 := newBatchTrie(t)
		require.NoError(t, tr1.Put([]byte{0x00, 2}, []byte("value1")))
		require.NoError(t, tr2.Put([]byte{0x00, 2}, []byte("value1")))
		require.NoError(t, tr1.Put([]byte{0x10, 3}, []byte("value2")))
		require.NoError(t, tr2.Put([]byte{0x10, 3}, []byte("value2")))
		return tr1, tr2
	}

	t.Run("simple add", func(t *testing.T) {
		tr1, tr2 := prepareBranch(t)
		var ps = pairs{{[]byte{0x20, 4}, []byte("value3")}}
		testPut(t, ps, tr1, tr2)
	})
	t.Run("remove 1, transform to leaf", func(t *testing.T) {
		tr1, tr2 := prepareBranch(t)
		var ps = pairs{{[]byte{0x00, 2}, nil}}
		testPut(t, ps, tr1, tr2)
		require.IsType(t, (*LeafNode)(nil), tr1.root)
	})
	t.Run("remove 2, become empty", func(t *testing.T) {
		tr1, tr2 := prepareBranch(t)
		var ps = pairs{
			{[]byte{0x00, 2}, nil},
			{[]byte{0x10, 3}, nil},
		}
		testPut(t, ps, tr1, tr2)
		require.Equal(t, EmptyRoot, tr2.StateRoot())
	})
}

func TestTrie_PutBatchHash(t *testing.T) {
	value1 := random.Bytes(40)
	value2 := random.Bytes(40)
	// prepareHash returns a trie at the committed root, the second leaf is
	// removed from the store if broken is set.
	prepareHash := func(t *testing.T, broken bool) *Trie {
		s := storage.NewMemoryStore()
		tr := newStoredTrie(t, util.Uint256{}, s)
		require.NoError(t, tr.Put([]byte{0x10}, value1))
		require.NoError(t, tr.Put([]byte{0x20}, value2))
		b := tr.root.(*BranchNode)
		_, err := tr.Commit(NewNodeStore(s))
		require.NoError(t, err)
		if broken {
			require.NoError(t, s.PutChangeSet(map[string][]byte{
				string(makeStorageKey(b.Child(2).Hash())): nil,
			}))
		}
		return newStoredTrie(t, tr.StateRoot(), s)
	}

	t.Run("good", func(t *testing.T) {
		tr1, tr2 := prepareHash(t, false), prepareHash(t, false)
		var ps = pairs{{[]byte{2}, []byte("value2")}}
		testPut(t, ps, tr1, tr2)
	})
	t.Run("incomplete, second hash not found", func(t *testing.T) {
		tr1, tr2 := prepareHash(t, true), prepareHash(t, true)
		var ps = pairs{
			{[]byte{0x10}, []byte("replace1")},
			{[]byte{0x20}, []byte("replace2")},
		}
		testIncompletePut(t, ps, 1, tr1, tr2)
	})
}

func TestTrie_PutBatchEmpty(t *testing.T) {
	t.Run("good", func(t *testing.T) {
		tr1 := newBatchTrie(t)
		tr2 := newBatchTrie(t)
		var ps = pairs{
			{[]byte{0}, []byte("value0")},
			{[]byte{1}, []byte("value1")},
			{[]byte{3}, []byte("value3")},
		}
		testPut(t, ps, tr1, tr2)
	})
	t.Run("missing keys", func(t *testing.T) {
		tr1 := newBatchTrie(t)
		tr2 := newBatchTrie(t)
		var ps = pairs{
			{[]byte{0}, []byte("replace0")},
			{[]byte{1}, []byte("replace1")},
			{[]byte{2}, nil},
			{[]byte{3}, []byte("replace3")},
		}
		testPut(t, ps[:2], tr1, tr2)
		testPut(t, ps[2:], tr1, tr2)
	})
}

// For the sake of coverage.
func TestTrie_InvalidNodeType(t *testing.T) {
	tr := newMemTrie()
	var b Batch
	b.Add([]byte{1}, []byte("value"))
	tr.root = Node(nil)
	require.Panics(t, func() { _, _ = tr.PutBatch(b) })
}

func TestTrie_PutBatch(t *testing.T) {
	tr1 := newBatchTrie(t)
	tr2 := newBatchTrie(t)
	var ps = pairs{
		{[]byte{1}, []byte{1}},
		{[]byte{2}, []byte{3}},
		{[]byte{4}, []byte{5}},
	}
	testPut(t, ps, tr1, tr2)

	ps = pairs{[2][]byte{{4}, {6}}}
	testPut(t, ps, tr1, tr2)

	ps = pairs{[2][]byte{{4}, nil}}
	testPut(t, ps, tr1, tr2)

	testPut(t, pairs{}, tr1, tr2)

	t.Run("random", func(t *testing.T) {
		tr1 := newBatchTrie(t)
		tr2 := newBatchTrie(t)
		var b Batch
		for i := 0; i < 100; i++ {
			k := []byte(fmt.Sprintf("key%d", random.Int(0, 50)))
			v := random.Bytes(random.Int(1, 40))
			b.Add(k, v)
		}
		for _, kv := range b.kv {
			require.NoError(t, tr1.Put(fromNibbles(kv.key), kv.value))
		}
		n, err := tr2.PutBatch(b)
		require.NoError(t, err)
		require.Equal(t, b.Len(), n)
		require.Equal(t, tr1.StateRoot(), tr2.StateRoot())
	})
}
