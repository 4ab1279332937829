// Package outline derives nested heading trees from the flat leveled
// heading lists produced by parsing a Markdown document.
package outline

// Heading is one heading as it appears top-to-bottom in a document.
type Heading struct {
	Level int    `json:"level"` // 1 (outermost) .. 6 (most nested)
	Text  string `json:"text"`
}

// Node is a single entry in an outline tree. Children are ordered as they
// appear in the document.
type Node struct {
	Text     string  `json:"text"`
	Children []*Node `json:"children,omitempty"`
}

// Tree is the outline derived from one document snapshot. The root is
// virtual: it is not a heading itself, only a container for the top-level
// nodes. Trees are rebuilt wholesale on every document change; node
// references and paths must never be retained across rebuilds.
type Tree struct {
	root  *Node
	empty bool
}

// Build converts records into a nested tree.
//
// When showTitle is false and the document starts with a single level-1
// heading followed only by deeper headings, that first heading is treated as
// the document title and dropped from the outline.
//
// Nesting is determined purely by level comparisons on a stack, so gapped
// (level 1 followed by level 3) and non-monotonic sequences (level 3 before
// any level 1) all produce a well-formed tree. Build never fails.
func Build(records []Heading, showTitle bool) *Tree {
	if !showTitle && len(records) > 0 && records[0].Level == 1 {
		rest := records[1:]
		deeper := true
		for _, h := range rest {
			if h.Level <= 1 {
				deeper = false
				break
			}
		}
		if deeper {
			records = rest
		}
	}

	type frame struct {
		level int
		node  *Node
	}

	root := &Node{}
	stack := []frame{{level: -1, node: root}}

	for _, h := range records {
		for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		node := &Node{Text: h.Text}
		parent.Children = append(parent.Children, node)
		stack = append(stack, frame{level: h.Level, node: node})
	}

	return &Tree{root: root, empty: len(records) == 0}
}

// IsEmpty reports whether the tree holds no headings at all (after the
// title-drop policy was applied).
func (t *Tree) IsEmpty() bool {
	return t.empty
}

// Roots returns the top-level nodes.
func (t *Tree) Roots() []*Node {
	return t.root.Children
}

// At resolves a path to its node. The empty path resolves to nothing: the
// virtual root is not addressable.
func (t *Tree) At(p Path) (*Node, bool) {
	if len(p) == 0 {
		return nil, false
	}
	cur := t.root
	for _, i := range p {
		if i < 0 || i >= len(cur.Children) {
			return nil, false
		}
		cur = cur.Children[i]
	}
	return cur, true
}

// Walk visits every node in pre-order (document order), passing each node's
// path. The path slice is owned by the callback and safe to retain.
func (t *Tree) Walk(fn func(p Path, n *Node)) {
	walkNodes(nil, t.root.Children, fn)
}

// WalkFrom visits the node at base and all its descendants in pre-order.
// It is a no-op when base does not resolve.
func (t *Tree) WalkFrom(base Path, fn func(p Path, n *Node)) {
	node, ok := t.At(base)
	if !ok {
		return
	}
	fn(base.Clone(), node)
	walkNodes(base, node.Children, fn)
}

func walkNodes(prefix Path, nodes []*Node, fn func(p Path, n *Node)) {
	for i, n := range nodes {
		p := append(prefix.Clone(), i)
		fn(p, n)
		walkNodes(p, n.Children, fn)
	}
}
