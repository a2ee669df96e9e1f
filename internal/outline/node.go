package outline

// Node is one unique outline node. Every position of a clone points at the
// same Node, so headline and body edits show up at each occurrence.
type Node struct {
	GNX      string
	Headline string
	Body     string
	Children []string

	// parents counts parent links, one per occurrence as a child.
	parents  int
	dirty    bool
	marked   bool
	expanded bool
}

func (n *Node) HasBody() bool {
	return n.Body != ""
}

func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// IsCloned reports whether the node occurs under more than one parent link.
func (n *Node) IsCloned() bool {
	return n.parents > 1
}

func (n *Node) IsDirty() bool {
	return n.dirty
}

func (n *Node) IsMarked() bool {
	return n.marked
}

func (n *Node) IsExpanded() bool {
	return n.expanded
}
