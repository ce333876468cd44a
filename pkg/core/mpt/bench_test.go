package mpt

import (
	"testing"

	"github.com/nspcc-dev/mpt/internal/random"
	"github.com/nspcc-dev/mpt/pkg/core/storage"
	"github.com/nspcc-dev/mpt/pkg/util"
)

func BenchmarkNewNode(b *testing.B) {
	b.Run("extension", func(b *testing.B) {
		path, next := toNibbles(random.Bytes(5)), newLeafNode(toNibbles(random.Bytes(5)), random.Bytes(10), DefaultInlineThreshold)
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = newExtensionNode(path, next, DefaultInlineThreshold)
		}
	})
	b.Run("leaf", func(b *testing.B) {
		path, value := make([]byte, 15), random.Bytes(40)
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = newLeafNode(path, value, DefaultInlineThreshold)
		}
	})
	b.Run("branch", func(b *testing.B) {
		var children [childrenCount]Node
		for _, i := range []int{0, 4, 7, 8} {
			children[i] = newLeafNode(toNibbles(random.Bytes(5)), random.Bytes(10), DefaultInlineThreshold)
		}
		children[15] = NewHashNode(random.Uint256())
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = newBranchNode(children, nil, DefaultInlineThreshold)
		}
	})
}

func BenchmarkPut(b *testing.B) {
	const count = 1000
	keys := make([][]byte, count)
	for i := range keys {
		keys[i] = random.Bytes(32)
	}
	value := random.Bytes(40)

	b.Run("memory", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			tr := newMemTrie()
			for _, k := range keys {
				_ = tr.Put(k, value)
			}
		}
	})
	b.Run("commit", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			ns := NewNodeStore(storage.NewMemoryStore())
			tr := NewTrie(util.Uint256{}, Config{Loader: ns})
			for _, k := range keys {
				_ = tr.Put(k, value)
			}
			_, _ = tr.Commit(ns)
		}
	})
}
