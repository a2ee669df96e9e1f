package outline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingGNX = errors.New("outline: entry missing gnx")
	ErrCycle      = errors.New("outline: node is its own ancestor")
)

// Entry is one occurrence in a nested outline description. A gnx that appears
// more than once is a clone: the first occurrence carrying data defines the
// headline, body and children, later occurrences only add a parent link.
type Entry struct {
	GNX      string  `yaml:"gnx" json:"gnx"`
	Headline string  `yaml:"headline,omitempty" json:"headline,omitempty"`
	Body     string  `yaml:"body,omitempty" json:"body,omitempty"`
	Expanded bool    `yaml:"expanded,omitempty" json:"expanded,omitempty"`
	Marked   bool    `yaml:"marked,omitempty" json:"marked,omitempty"`
	Selected bool    `yaml:"selected,omitempty" json:"selected,omitempty"`
	Children []Entry `yaml:"children,omitempty" json:"children,omitempty"`
}

// Build assembles a document from top-level entries. Without an explicit
// selection the first top-level position is selected.
func Build(path string, entries []Entry) (*Document, error) {
	d := newDocument(path)
	for _, e := range entries {
		if err := d.add(d.root, Position{}, e); err != nil {
			return nil, err
		}
	}
	if err := d.checkAcyclic(); err != nil {
		return nil, err
	}
	if d.selected.IsZero() && len(d.root.Children) > 0 {
		d.selected = Position{GNX: d.root.Children[0], ChildIndex: 0}
	}
	return d, nil
}

func (d *Document) add(parent *Node, at Position, e Entry) error {
	gnx := strings.TrimSpace(e.GNX)
	if gnx == "" {
		return fmt.Errorf("%w: under %q", ErrMissingGNX, parent.GNX)
	}
	if gnx == HiddenRootGNX {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidPosition, gnx)
	}

	index := len(parent.Children)
	parent.Children = append(parent.Children, gnx)

	var p Position
	if parent == d.root {
		p = Position{GNX: gnx, ChildIndex: index}
	} else {
		p = at.Child(gnx, index)
	}

	n, seen := d.nodes[gnx]
	if !seen {
		n = &Node{
			GNX:      gnx,
			Headline: e.Headline,
			Body:     e.Body,
			expanded: e.Expanded,
			marked:   e.Marked,
		}
		d.nodes[gnx] = n
		d.order = append(d.order, gnx)
	} else {
		if n.Headline == "" {
			n.Headline = e.Headline
		}
		if n.Body == "" {
			n.Body = e.Body
		}
	}
	n.parents++

	if e.Selected && d.selected.IsZero() {
		d.selected = p
	}
	if seen && n.HasChildren() {
		return nil
	}
	for _, c := range e.Children {
		if err := d.add(n, p, c); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) checkAcyclic() error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(d.nodes))
	var visit func(gnx string) error
	visit = func(gnx string) error {
		switch state[gnx] {
		case visiting:
			return fmt.Errorf("%w: %q", ErrCycle, gnx)
		case done:
			return nil
		}
		state[gnx] = visiting
		for _, c := range d.nodes[gnx].Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		state[gnx] = done
		return nil
	}
	for _, gnx := range d.root.Children {
		if err := visit(gnx); err != nil {
			return err
		}
	}
	return nil
}
