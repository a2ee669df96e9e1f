package bridge

import (
	"fmt"

	"github.com/danmuck/leobridge/internal/outline"
)

// StackEntry is one ancestor frame of an archived position. Headline is a
// snapshot for client path rendering and is ignored on decode.
type StackEntry struct {
	GNX        string `json:"gnx"`
	ChildIndex int    `json:"childIndex"`
	Headline   string `json:"headline"`
}

// ArchivedPosition is the flat, client-held form of a position. Predicates
// are only present when true.
type ArchivedPosition struct {
	GNX         string       `json:"gnx"`
	ChildIndex  int          `json:"childIndex"`
	Level       int          `json:"level"`
	Headline    string       `json:"headline"`
	Stack       []StackEntry `json:"stack"`
	HasBody     bool         `json:"hasBody,omitempty"`
	HasChildren bool         `json:"hasChildren,omitempty"`
	Cloned      bool         `json:"cloned,omitempty"`
	Dirty       bool         `json:"dirty,omitempty"`
	Expanded    bool         `json:"expanded,omitempty"`
	Marked      bool         `json:"marked,omitempty"`
	Selected    bool         `json:"selected,omitempty"`
}

// Codec converts between live positions and archived positions for one open
// document and its cache.
type Codec struct {
	doc   *outline.Document
	cache *IdentityCache
}

func NewCodec(doc *outline.Document, cache *IdentityCache) *Codec {
	return &Codec{doc: doc, cache: cache}
}

// Encode archives p. Every gnx it emits is ensured into the cache first so
// the record can always be decoded later in the same session.
func (c *Codec) Encode(p outline.Position) (ArchivedPosition, error) {
	n, ok := c.doc.Node(p.GNX)
	if !ok || n == nil {
		return ArchivedPosition{}, fmt.Errorf("%w: no node for %s", ErrInvalidPosition, p)
	}
	c.cache.Ensure(n)

	stack := make([]StackEntry, 0, len(p.Stack))
	for _, f := range p.Stack {
		an, ok := c.doc.Node(f.GNX)
		if !ok {
			return ArchivedPosition{}, fmt.Errorf("%w: no ancestor node %q for %s", ErrInvalidPosition, f.GNX, p)
		}
		c.cache.Ensure(an)
		stack = append(stack, StackEntry{
			GNX:        f.GNX,
			ChildIndex: f.ChildIndex,
			Headline:   an.Headline,
		})
	}

	return ArchivedPosition{
		GNX:         n.GNX,
		ChildIndex:  p.ChildIndex,
		Level:       p.Level(),
		Headline:    n.Headline,
		Stack:       stack,
		HasBody:     n.HasBody(),
		HasChildren: n.HasChildren(),
		Cloned:      n.IsCloned(),
		Dirty:       n.IsDirty(),
		Expanded:    n.IsExpanded(),
		Marked:      n.IsMarked(),
		Selected:    p.Equal(c.doc.Selected()),
	}, nil
}

// EncodeAll archives ps in order; the result is never nil.
func (c *Codec) EncodeAll(ps []outline.Position) ([]ArchivedPosition, error) {
	out := make([]ArchivedPosition, 0, len(ps))
	for _, p := range ps {
		ap, err := c.Encode(p)
		if err != nil {
			return nil, err
		}
		out = append(out, ap)
	}
	return out, nil
}

// Decode rebuilds a position from gnx and child indexes alone. It reads the
// cache but never writes it.
func (c *Codec) Decode(ap ArchivedPosition) (outline.Position, error) {
	n, err := c.cache.Resolve(ap.GNX)
	if err != nil {
		return outline.Position{}, err
	}
	stack := make([]outline.Frame, 0, len(ap.Stack))
	for _, e := range ap.Stack {
		an, err := c.cache.Resolve(e.GNX)
		if err != nil {
			return outline.Position{}, err
		}
		stack = append(stack, outline.Frame{GNX: an.GNX, ChildIndex: e.ChildIndex})
	}
	return outline.Position{GNX: n.GNX, ChildIndex: ap.ChildIndex, Stack: stack}, nil
}
