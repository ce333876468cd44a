package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/mpt/pkg/crypto/hash"
	"github.com/nspcc-dev/mpt/pkg/util"
	"go.uber.org/zap"
)

var (
	// ErrMalformedNode is returned when node encoding can't be decoded.
	ErrMalformedNode = errors.New("malformed node")
	// ErrMissingNode is returned when a node referenced by its digest can't be
	// found.
	ErrMissingNode = errors.New("missing node")
	// ErrDigestMismatch is returned when a loaded node doesn't hash to the
	// digest it was requested by.
	ErrDigestMismatch = errors.New("node digest mismatch")
)

// DefaultCacheSize is the default number of resolved nodes kept in memory.
const DefaultCacheSize = 1 << 16

// NodeLoader provides node encodings by their digests. A missing node is
// reported with an error wrapping ErrMissingNode.
type NodeLoader interface {
	LoadNode(h util.Uint256) ([]byte, error)
}

// NodeUpdater persists node encodings by their digests.
type NodeUpdater interface {
	StoreNode(h util.Uint256, data []byte) error
}

// Config contains trie parameters.
type Config struct {
	// Loader is used to resolve digest references, nil for purely in-memory
	// tries.
	Loader NodeLoader
	// InlineThreshold is the encoded node size starting from which nodes are
	// referenced by digest, DefaultInlineThreshold if 0. It must be the same
	// the data was written with.
	InlineThreshold int
	// CacheSize is the number of resolved nodes to keep, DefaultCacheSize if
	// 0, negative value disables caching.
	CacheSize int
	// Logger is used for debug messages, no logging if nil.
	Logger *zap.Logger
}

// Trie is an MPT trie storing all key-value pairs. A single Trie is not
// safe for concurrent mutation, use Snapshot to get independent handles
// sharing the same nodes.
type Trie struct {
	root   Node
	inline int
	loader NodeLoader
	cache  *nodeCache
	log    *zap.Logger
}

// NewTrie returns new MPT trie with the given root. Zero or EmptyRoot digest
// opens an empty trie, any other one is resolved via cfg.Loader on demand.
func NewTrie(root util.Uint256, cfg Config) *Trie {
	if cfg.InlineThreshold == 0 {
		cfg.InlineThreshold = DefaultInlineThreshold
	}
	if cfg.InlineThreshold < 1 || cfg.InlineThreshold > DefaultInlineThreshold {
		panic(fmt.Sprintf("invalid inline threshold: %d", cfg.InlineThreshold))
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	t := &Trie{
		root:   EmptyNode{},
		inline: cfg.InlineThreshold,
		loader: cfg.Loader,
		cache:  newNodeCache(cfg.CacheSize),
		log:    cfg.Logger,
	}
	if !root.IsZero() && root != EmptyRoot {
		t.root = NewHashNode(root)
	}
	return t
}

// Snapshot returns a copy of t which can be changed independently. Nodes
// are immutable, so no data is copied.
func (t *Trie) Snapshot() *Trie {
	res := *t
	return &res
}

// StateRoot returns root hash of t.
func (t *Trie) StateRoot() util.Uint256 {
	return t.root.Hash()
}

// Get returns value for the provided key in t, nil value without error is
// returned for missing keys.
func (t *Trie) Get(key []byte) ([]byte, error) {
	v, err := t.lookup(t.root, toNibbles(key), nil)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(v), nil
}

// lookup walks from curr along path returning the value found. Every
// resolved node on the way is passed to visit if it's not nil.
func (t *Trie) lookup(curr Node, path []byte, visit func(Node)) ([]byte, error) {
	for {
		if _, ok := curr.(*HashNode); !ok && visit != nil {
			visit(curr)
		}
		switch n := curr.(type) {
		case EmptyNode:
			return nil, nil
		case *LeafNode:
			if bytes.Equal(n.path, path) {
				return n.value, nil
			}
			return nil, nil
		case *ExtensionNode:
			if !bytes.HasPrefix(path, n.path) {
				return nil, nil
			}
			path = path[len(n.path):]
			curr = n.next
		case *BranchNode:
			if len(path) == 0 {
				return n.value, nil
			}
			curr = n.children[path[0]]
			path = path[1:]
		case *HashNode:
			r, err := t.getFromStore(n.hash)
			if err != nil {
				return nil, err
			}
			curr = r
		default:
			panic("invalid MPT node type")
		}
	}
}

// Put puts key-value pair in t. Value must not be empty, absence of value
// is represented by key absence, use Delete for that.
func (t *Trie) Put(key, value []byte) error {
	if len(value) == 0 {
		panic("empty value")
	}
	r, err := t.putIntoNode(t.root, toNibbles(key), bytes.Clone(value))
	if err != nil {
		return err
	}
	t.root = r
	return nil
}

// putIntoNode puts val at path into subtrie rooted at curr. It returns the
// new subtrie root which is curr itself if nothing has changed.
func (t *Trie) putIntoNode(curr Node, path []byte, val []byte) (Node, error) {
	switch n := curr.(type) {
	case EmptyNode:
		return newLeafNode(path, val, t.inline), nil
	case *LeafNode:
		return t.putIntoLeaf(n, path, val), nil
	case *ExtensionNode:
		return t.putIntoExtension(n, path, val)
	case *BranchNode:
		return t.putIntoBranch(n, path, val)
	case *HashNode:
		r, err := t.getFromStore(n.hash)
		if err != nil {
			return nil, err
		}
		res, err := t.putIntoNode(r, path, val)
		if err != nil || res == r {
			return curr, err
		}
		return res, nil
	default:
		panic("invalid MPT node type")
	}
}

func (t *Trie) putIntoLeaf(curr *LeafNode, path []byte, val []byte) Node {
	if bytes.Equal(curr.path, path) {
		if bytes.Equal(curr.value, val) {
			return curr
		}
		return newLeafNode(curr.path, val, t.inline)
	}

	var (
		children [childrenCount]Node
		bval     []byte
		p        = lcp(curr.path, path)
	)
	for _, kv := range [2]struct{ path, val []byte }{{curr.path[p:], curr.value}, {path[p:], val}} {
		if len(kv.path) == 0 {
			bval = kv.val
		} else {
			children[kv.path[0]] = newLeafNode(kv.path[1:], kv.val, t.inline)
		}
	}
	return t.newSubTrie(path[:p:p], newBranchNode(children, bval, t.inline))
}

func (t *Trie) putIntoExtension(curr *ExtensionNode, path []byte, val []byte) (Node, error) {
	if bytes.HasPrefix(path, curr.path) {
		r, err := t.putIntoNode(curr.next, path[len(curr.path):], val)
		if err != nil || r == curr.next {
			return curr, err
		}
		return newExtensionNode(curr.path, r, t.inline), nil
	}

	var (
		children [childrenCount]Node
		bval     []byte
		p        = lcp(curr.path, path)
		keyTail  = curr.path[p:]
		pathTail = path[p:]
	)
	children[keyTail[0]] = t.newSubTrie(keyTail[1:], curr.next)
	if len(pathTail) == 0 {
		bval = val
	} else {
		children[pathTail[0]] = newLeafNode(pathTail[1:], val, t.inline)
	}
	return t.newSubTrie(path[:p:p], newBranchNode(children, bval, t.inline)), nil
}

func (t *Trie) putIntoBranch(curr *BranchNode, path []byte, val []byte) (Node, error) {
	if len(path) == 0 {
		if bytes.Equal(curr.value, val) {
			return curr, nil
		}
		return curr.withValue(val, t.inline), nil
	}
	i := path[0]
	r, err := t.putIntoNode(curr.children[i], path[1:], val)
	if err != nil || r == curr.children[i] {
		return curr, err
	}
	return curr.withChild(i, r, t.inline), nil
}

// newSubTrie puts n under an extension with the given path if it's not
// empty.
func (t *Trie) newSubTrie(path []byte, n Node) Node {
	if len(path) == 0 {
		return n
	}
	return newExtensionNode(path, n, t.inline)
}

// Delete removes key from trie.
// It returns no error on missing key.
func (t *Trie) Delete(key []byte) error {
	r, err := t.deleteFromNode(t.root, toNibbles(key))
	if err != nil {
		return err
	}
	t.root = r
	return nil
}

func (t *Trie) deleteFromNode(curr Node, path []byte) (Node, error) {
	switch n := curr.(type) {
	case EmptyNode:
		return n, nil
	case *LeafNode:
		if bytes.Equal(n.path, path) {
			return EmptyNode{}, nil
		}
		return n, nil
	case *ExtensionNode:
		return t.deleteFromExtension(n, path)
	case *BranchNode:
		return t.deleteFromBranch(n, path)
	case *HashNode:
		r, err := t.getFromStore(n.hash)
		if err != nil {
			return nil, err
		}
		res, err := t.deleteFromNode(r, path)
		if err != nil || res == r {
			return curr, err
		}
		return res, nil
	default:
		panic("invalid MPT node type")
	}
}

func (t *Trie) deleteFromExtension(n *ExtensionNode, path []byte) (Node, error) {
	if !bytes.HasPrefix(path, n.path) {
		return n, nil
	}
	r, err := t.deleteFromNode(n.next, path[len(n.path):])
	if err != nil || r == n.next {
		return n, err
	}
	return t.joinExtension(n.path, r)
}

// joinExtension returns a node equivalent to an extension with the given
// path pointing to next, merging it with next where necessary.
func (t *Trie) joinExtension(path []byte, next Node) (Node, error) {
	switch nxt := next.(type) {
	case EmptyNode:
		return nxt, nil
	case *LeafNode:
		return newLeafNode(concat(path, nxt.path), nxt.value, t.inline), nil
	case *ExtensionNode:
		return newExtensionNode(concat(path, nxt.path), nxt.next, t.inline), nil
	case *BranchNode:
		return newExtensionNode(path, nxt, t.inline), nil
	case *HashNode:
		r, err := t.getFromStore(nxt.hash)
		if err != nil {
			return nil, err
		}
		if r.Type() == BranchT {
			return newExtensionNode(path, nxt, t.inline), nil
		}
		return t.joinExtension(path, r)
	default:
		panic("invalid MPT node type")
	}
}

func (t *Trie) deleteFromBranch(b *BranchNode, path []byte) (Node, error) {
	children := b.children
	value := b.value
	if len(path) == 0 {
		if value == nil {
			return b, nil
		}
		value = nil
	} else {
		i := path[0]
		r, err := t.deleteFromNode(children[i], path[1:])
		if err != nil || r == children[i] {
			return b, err
		}
		children[i] = r
	}

	var count, index int
	for i := range children {
		if children[i].Type() != EmptyT {
			index = i
			count++
		}
	}
	switch {
	case count > 1 || (count == 1 && value != nil):
		return newBranchNode(children, value, t.inline), nil
	case count == 0 && value != nil:
		return newLeafNode(nil, value, t.inline), nil
	case count == 0:
		return EmptyNode{}, nil
	}
	return t.joinExtension([]byte{byte(index)}, children[index])
}

// Commit puts every node changed since the previous commit to u and returns
// the number of nodes stored. Nodes that are embedded into their parents
// aren't stored separately, but the root is always stored. Nodes are marked
// as persisted only if all of them were stored successfully, so a failed
// Commit can be retried. If t has a loader, the root is replaced with a hash
// node afterwards.
//
// Persisted marks are kept in the nodes themselves and shared by snapshots,
// so all handles sharing nodes must be committed to the same NodeUpdater.
// Nodes already committed via one handle are not stored again via another.
func (t *Trie) Commit(u NodeUpdater) (int, error) {
	if t.root.IsFlushed() {
		return 0, nil
	}
	var visited []Node
	n, err := t.flush(u, t.root, true, &visited)
	if err != nil {
		return n, err
	}
	for _, node := range visited {
		if node == t.root || len(node.Bytes()) >= t.inline {
			t.cache.add(node.Hash(), node)
		}
		node.setFlushed()
	}
	nodesPersisted.Add(float64(n))
	t.log.Debug("trie committed",
		zap.Stringer("root", t.root.Hash()),
		zap.Int("nodes", n))
	if t.loader != nil {
		t.root = NewHashNode(t.root.Hash())
	}
	return n, nil
}

// flush stores node and its non-persisted descendants in u. Every node
// handled is appended to visited, it's up to the caller to mark them.
func (t *Trie) flush(u NodeUpdater, node Node, isRoot bool, visited *[]Node) (int, error) {
	if node.IsFlushed() {
		return 0, nil
	}
	var cnt int
	switch n := node.(type) {
	case *BranchNode:
		for i := range n.children {
			c, err := t.flush(u, n.children[i], false, visited)
			cnt += c
			if err != nil {
				return cnt, err
			}
		}
	case *ExtensionNode:
		c, err := t.flush(u, n.next, false, visited)
		cnt += c
		if err != nil {
			return cnt, err
		}
	case *LeafNode:
	default:
		panic("invalid MPT node type")
	}
	if isRoot || len(node.Bytes()) >= t.inline {
		h := node.Hash()
		if err := u.StoreNode(h, node.Bytes()); err != nil {
			return cnt, fmt.Errorf("failed to store node %s: %w", h, err)
		}
		cnt++
	}
	*visited = append(*visited, node)
	return cnt, nil
}

// getFromStore returns node with the given digest from cache or loader.
func (t *Trie) getFromStore(h util.Uint256) (Node, error) {
	if n, ok := t.cache.get(h); ok {
		cacheHits.Inc()
		return n, nil
	}
	if t.loader == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingNode, h)
	}
	data, err := t.loader.LoadNode(h)
	if err != nil {
		return nil, fmt.Errorf("failed to load node %s: %w", h, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingNode, h)
	}
	if actual := hash.Keccak256(data); actual != h {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, h, actual)
	}
	n, err := decodeNode(bytes.Clone(data), t.inline)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", h, err)
	}
	nodesLoaded.Inc()
	t.cache.add(h, n)
	return n, nil
}
