package bridge

import (
	"fmt"

	"github.com/danmuck/leobridge/internal/outline"
)

// IdentityCache maps gnx to node for one open document. Entries are only ever
// added; a new open gets a new cache.
type IdentityCache struct {
	entries map[string]*outline.Node
}

func newIdentityCache() *IdentityCache {
	return &IdentityCache{entries: make(map[string]*outline.Node)}
}

// BuildIdentityCache seeds a cache from one exhaustive node enumeration.
// Clones collapse to a single entry.
func BuildIdentityCache(nodes []*outline.Node) *IdentityCache {
	c := &IdentityCache{entries: make(map[string]*outline.Node, len(nodes))}
	for _, n := range nodes {
		c.Ensure(n)
	}
	return c
}

// Ensure inserts n under its gnx if absent and reports whether it was added.
func (c *IdentityCache) Ensure(n *outline.Node) bool {
	if n == nil {
		return false
	}
	if _, ok := c.entries[n.GNX]; ok {
		return false
	}
	c.entries[n.GNX] = n
	return true
}

func (c *IdentityCache) Resolve(gnx string) (*outline.Node, error) {
	n, ok := c.entries[gnx]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentifier, gnx)
	}
	return n, nil
}

func (c *IdentityCache) Len() int {
	return len(c.entries)
}
