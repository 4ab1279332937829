package toc

import (
	"github.com/starford/raido/internal/outline"
)

// Change is one heading rewrite produced by a restructuring operation.
// Level is the target level, not the current one.
type Change struct {
	Path  outline.Path `json:"path"`
	Text  string       `json:"text"`
	Level int          `json:"level"`
}

// CanPromote reports whether the selection may move one level up: it must
// be non-empty and contain no top-level heading.
func CanPromote(paths []outline.Path) bool {
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if p.Depth() <= 1 {
			return false
		}
	}
	return true
}

// CanDemote reports whether the selection may move one level down. It is
// false for an empty selection, for any heading already at depth 6, and for
// any first child whose parent is not also selected. A top-level first
// child can therefore never be demoted on its own.
func CanDemote(paths []outline.Path) bool {
	if len(paths) == 0 {
		return false
	}
	selected := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		selected[p.Key()] = struct{}{}
	}
	for _, p := range paths {
		if p.Depth() >= 6 {
			return false
		}
		if p.IsFirstChild() {
			if _, ok := selected[p.Parent().Key()]; !ok {
				return false
			}
		}
	}
	return true
}

// PromoteChanges lists the heading rewrites that move every selected
// section one level up. Each selected node and all its descendants are
// visited in document order; a node reachable through several selections is
// listed once, and a path that does not resolve in the tree contributes
// nothing (Controller.Promote reports it as skipped). The target level is
// derived from the node's tree depth: with the title shown a depth-d
// heading sits at level d, with the title hidden at level d+1.
func PromoteChanges(tree *outline.Tree, paths []outline.Path, showTitle bool) []Change {
	return collectChanges(tree, paths, func(depth int) int {
		if showTitle {
			return depth - 1
		}
		return depth
	})
}

// DemoteChanges lists the heading rewrites that move every selected section
// one level down. Selection and dedupe behave as in PromoteChanges.
func DemoteChanges(tree *outline.Tree, paths []outline.Path, showTitle bool) []Change {
	return collectChanges(tree, paths, func(depth int) int {
		if showTitle {
			return depth + 1
		}
		return depth + 2
	})
}

func collectChanges(tree *outline.Tree, paths []outline.Path, level func(depth int) int) []Change {
	seen := make(map[string]struct{})
	var out []Change
	for _, p := range paths {
		tree.WalkFrom(p, func(v outline.Path, n *outline.Node) {
			k := v.Key()
			if _, dup := seen[k]; dup {
				return
			}
			seen[k] = struct{}{}
			out = append(out, Change{Path: v, Text: n.Text, Level: level(v.Depth())})
		})
	}
	return out
}
