package outline

import (
	"slices"
	"strconv"
	"strings"
)

// Frame is one ancestor step of a position: the ancestor's gnx and its index
// under its own parent.
type Frame struct {
	GNX        string
	ChildIndex int
}

// Position identifies one occurrence of a node. Clones share a GNX and differ
// by Stack.
type Position struct {
	GNX        string
	ChildIndex int
	Stack      []Frame
}

func (p Position) IsZero() bool {
	return p.GNX == ""
}

// Level is the depth below the hidden root; top-level positions are level 0.
func (p Position) Level() int {
	return len(p.Stack)
}

// Equal compares node identity, child index and ancestor chain.
func (p Position) Equal(q Position) bool {
	if p.GNX != q.GNX || p.ChildIndex != q.ChildIndex || len(p.Stack) != len(q.Stack) {
		return false
	}
	for i := range p.Stack {
		if p.Stack[i] != q.Stack[i] {
			return false
		}
	}
	return true
}

// Parent pops the last stack frame. Top-level positions have no parent.
func (p Position) Parent() (Position, bool) {
	if len(p.Stack) == 0 {
		return Position{}, false
	}
	top := p.Stack[len(p.Stack)-1]
	return Position{
		GNX:        top.GNX,
		ChildIndex: top.ChildIndex,
		Stack:      slices.Clone(p.Stack[:len(p.Stack)-1]),
	}, true
}

// Child returns the position of the index'th child of p, which must be gnx.
func (p Position) Child(gnx string, index int) Position {
	stack := make([]Frame, 0, len(p.Stack)+1)
	stack = append(stack, p.Stack...)
	stack = append(stack, Frame{GNX: p.GNX, ChildIndex: p.ChildIndex})
	return Position{GNX: gnx, ChildIndex: index, Stack: stack}
}

func (p Position) Clone() Position {
	return Position{GNX: p.GNX, ChildIndex: p.ChildIndex, Stack: slices.Clone(p.Stack)}
}

// String renders the path as gnx:index segments, root first.
func (p Position) String() string {
	if p.IsZero() {
		return "<none>"
	}
	parts := make([]string, 0, len(p.Stack)+1)
	for _, f := range p.Stack {
		parts = append(parts, f.GNX+":"+strconv.Itoa(f.ChildIndex))
	}
	parts = append(parts, p.GNX+":"+strconv.Itoa(p.ChildIndex))
	return strings.Join(parts, "/")
}
