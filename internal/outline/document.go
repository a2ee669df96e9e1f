package outline

import (
	"errors"
	"fmt"
	"iter"
)

// HiddenRootGNX names the invisible parent of all top-level nodes.
const HiddenRootGNX = "hidden-root-vnode-gnx"

var (
	ErrInvalidPosition = errors.New("outline: invalid position")
	ErrUnknownNode     = errors.New("outline: unknown node")
)

// Document is one open outline. It is not safe for concurrent use; callers
// serialize access per document.
type Document struct {
	Path string

	root     *Node
	nodes    map[string]*Node
	order    []string
	selected Position
	changed  bool
}

func newDocument(path string) *Document {
	root := &Node{GNX: HiddenRootGNX}
	return &Document{
		Path:  path,
		root:  root,
		nodes: make(map[string]*Node),
	}
}

// Node looks a unique node up by gnx. The hidden root is never returned.
func (d *Document) Node(gnx string) (*Node, bool) {
	n, ok := d.nodes[gnx]
	return n, ok
}

// Len is the number of unique nodes, excluding the hidden root.
func (d *Document) Len() int {
	return len(d.nodes)
}

// UniqueNodes returns every node once, in order of first appearance.
func (d *Document) UniqueNodes() []*Node {
	out := make([]*Node, 0, len(d.order))
	for _, gnx := range d.order {
		out = append(out, d.nodes[gnx])
	}
	return out
}

// AllPositions walks every position depth-first, visiting each clone
// occurrence along with its subtree.
func (d *Document) AllPositions() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		var walk func(parent *Node, at Position, top bool) bool
		walk = func(parent *Node, at Position, top bool) bool {
			for i, gnx := range parent.Children {
				p := Position{GNX: gnx, ChildIndex: i}
				if !top {
					p = at.Child(gnx, i)
				}
				if !yield(p) {
					return false
				}
				if !walk(d.nodes[gnx], p, false) {
					return false
				}
			}
			return true
		}
		walk(d.root, Position{}, true)
	}
}

// TopLevel returns the children of the hidden root in tree order.
func (d *Document) TopLevel() []Position {
	out := make([]Position, 0, len(d.root.Children))
	for i, gnx := range d.root.Children {
		out = append(out, Position{GNX: gnx, ChildIndex: i})
	}
	return out
}

// NodeAt validates p against the live tree and returns its node.
func (d *Document) NodeAt(p Position) (*Node, error) {
	if p.IsZero() {
		return nil, fmt.Errorf("%w: empty position", ErrInvalidPosition)
	}
	parent := d.root
	for _, f := range p.Stack {
		n, err := d.childAt(parent, f.GNX, f.ChildIndex)
		if err != nil {
			return nil, err
		}
		parent = n
	}
	return d.childAt(parent, p.GNX, p.ChildIndex)
}

// IsValid reports whether p still names an occurrence in the tree.
func (d *Document) IsValid(p Position) bool {
	_, err := d.NodeAt(p)
	return err == nil
}

// Children lists the child positions of p in tree order.
func (d *Document) Children(p Position) ([]Position, error) {
	n, err := d.NodeAt(p)
	if err != nil {
		return nil, err
	}
	out := make([]Position, 0, len(n.Children))
	for i, gnx := range n.Children {
		out = append(out, p.Child(gnx, i))
	}
	return out, nil
}

// Parent returns the parent position of p; ok is false for top-level
// positions.
func (d *Document) Parent(p Position) (Position, bool, error) {
	if _, err := d.NodeAt(p); err != nil {
		return Position{}, false, err
	}
	parent, ok := p.Parent()
	return parent, ok, nil
}

// FindPath resolves a root-first gnx path, taking the first matching child
// at each level.
func (d *Document) FindPath(gnxs []string) (Position, bool) {
	if len(gnxs) == 0 {
		return Position{}, false
	}
	parent := d.root
	var at Position
	for depth, gnx := range gnxs {
		index := -1
		for i, c := range parent.Children {
			if c == gnx {
				index = i
				break
			}
		}
		if index < 0 {
			return Position{}, false
		}
		if depth == 0 {
			at = Position{GNX: gnx, ChildIndex: index}
		} else {
			at = at.Child(gnx, index)
		}
		parent = d.nodes[gnx]
	}
	return at, true
}

// Selected returns the current selection, or the zero position.
func (d *Document) Selected() Position {
	return d.selected.Clone()
}

func (d *Document) Select(p Position) error {
	if _, err := d.NodeAt(p); err != nil {
		return err
	}
	d.selected = p.Clone()
	return nil
}

// SetHeadline changes the headline at p and marks the node dirty.
func (d *Document) SetHeadline(p Position, headline string) error {
	n, err := d.NodeAt(p)
	if err != nil {
		return err
	}
	n.Headline = headline
	d.touch(n)
	return nil
}

// SetBody replaces the body of the node with the given gnx and marks it dirty.
func (d *Document) SetBody(gnx, body string) error {
	n, ok := d.nodes[gnx]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, gnx)
	}
	n.Body = body
	d.touch(n)
	return nil
}

func (d *Document) Expand(p Position) error {
	n, err := d.NodeAt(p)
	if err != nil {
		return err
	}
	n.expanded = true
	return nil
}

func (d *Document) Contract(p Position) error {
	n, err := d.NodeAt(p)
	if err != nil {
		return err
	}
	n.expanded = false
	return nil
}

// Changed reports whether any node was edited since the document was loaded.
func (d *Document) Changed() bool {
	return d.changed
}

func (d *Document) touch(n *Node) {
	n.dirty = true
	d.changed = true
}

func (d *Document) childAt(parent *Node, gnx string, index int) (*Node, error) {
	if index < 0 || index >= len(parent.Children) || parent.Children[index] != gnx {
		return nil, fmt.Errorf("%w: %s has no child %q at index %d", ErrInvalidPosition, parent.GNX, gnx, index)
	}
	n, ok := d.nodes[gnx]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, gnx)
	}
	return n, nil
}
