package outline

import (
	"strconv"
	"strings"
)

// Path addresses a node's position in the current tree snapshot as a
// sequence of child indices from the root, e.g. [0] or [0 2 1]. Paths become
// stale after any rebuild and must be recomputed, never cached across
// document mutations.
type Path []int

// Depth is the nesting depth of the addressed node; the first top-level
// node [0] has depth 1.
func (p Path) Depth() int {
	return len(p)
}

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Parent returns the path of the addressed node's parent. The parent of a
// depth-1 path is the empty path (the virtual root).
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1].Clone()
}

// NextSibling returns the path immediately following p under the same
// parent. The returned path may not resolve; callers check with Tree.At.
func (p Path) NextSibling() Path {
	if len(p) == 0 {
		return nil
	}
	next := p.Clone()
	next[len(next)-1]++
	return next
}

// IsFirstChild reports whether the addressed node is the first child of its
// parent.
func (p Path) IsFirstChild() bool {
	return len(p) > 0 && p[len(p)-1] == 0
}

// Key is a canonical string form usable as a map key, giving paths value
// identity regardless of which slice they were built from.
func (p Path) Key() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, idx := range p {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (p Path) String() string {
	return p.Key()
}
