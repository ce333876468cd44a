package mpt

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/mpt/pkg/util"
)

// nodeCache keeps resolved nodes by their digests. Nil cache is valid and
// keeps nothing.
type nodeCache struct {
	c *lru.Cache
}

func newNodeCache(size int) *nodeCache {
	if size <= 0 {
		return nil
	}
	c, _ := lru.New(size) // Never errors for positive size.
	return &nodeCache{c: c}
}

func (c *nodeCache) get(h util.Uint256) (Node, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.c.Get(h)
	if !ok {
		return nil, false
	}
	return v.(Node), true
}

func (c *nodeCache) add(h util.Uint256, n Node) {
	if c == nil {
		return
	}
	c.c.Add(h, n)
}
