package toc

import (
	"log/slog"

	"github.com/starford/raido/internal/outline"
)

// Outcome classifies how a restructuring batch ended.
type Outcome string

const (
	// OutcomeApplied means every computed change landed in the document.
	OutcomeApplied Outcome = "applied"
	// OutcomePartial means part of the selection was skipped: a path that no
	// longer resolves in the tree, or a heading that could not be found or
	// rewritten.
	OutcomePartial Outcome = "partial"
	// OutcomeNoop means gating rejected the selection and the document was
	// not touched. Not an error: the selection may simply have drifted.
	OutcomeNoop Outcome = "noop"
)

// BatchResult reports what a Promote or Demote did.
type BatchResult struct {
	Outcome Outcome  `json:"outcome"`
	Applied int      `json:"applied"`
	Skipped int      `json:"skipped"`
	Changes []Change `json:"changes,omitempty"`
}

// Controller owns the outline tree for one document and keeps it in step
// with the document's heading structure. It is not safe for concurrent use;
// callers serialize access per document.
type Controller struct {
	doc       Document
	locator   *Locator
	tree      *outline.Tree
	showTitle bool
	log       *slog.Logger

	onTreeChanged func(*outline.Tree)
}

// NewController builds a controller over doc and derives the initial tree.
func NewController(doc Document, showTitle bool, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		doc:       doc,
		locator:   NewLocator(doc),
		showTitle: showTitle,
		log:       logger,
	}
	c.Reload()
	return c
}

// OnTreeChanged registers fn to run after every rebuild, including the ones
// Reload and SetShowTitle trigger. Only one listener is kept.
func (c *Controller) OnTreeChanged(fn func(*outline.Tree)) {
	c.onTreeChanged = fn
}

// Tree returns the current tree snapshot. Paths into it are valid until the
// next rebuild.
func (c *Controller) Tree() *outline.Tree {
	return c.tree
}

// ShowTitle reports whether the document title is kept in the outline.
func (c *Controller) ShowTitle() bool {
	return c.showTitle
}

// SetShowTitle switches the title policy and rebuilds when it changed.
func (c *Controller) SetShowTitle(show bool) {
	if c.showTitle == show {
		return
	}
	c.showTitle = show
	c.Reload()
}

// Reload rebuilds the tree from the document's current headings and
// notifies the change listener. The tree is always re-derived, never edited
// in place.
func (c *Controller) Reload() {
	c.tree = outline.Build(c.doc.Headings(), c.showTitle)
	if c.onTreeChanged != nil {
		c.onTreeChanged(c.tree)
	}
}

// Navigate resolves the heading at p to its current line in the document.
func (c *Controller) Navigate(p outline.Path) (int, bool) {
	node, ok := c.tree.At(p)
	if !ok {
		return 0, false
	}
	line, ok := c.locator.Locate(node.Text)
	if !ok {
		c.log.Warn("toc: heading not found in document", slog.String("text", node.Text))
		return 0, false
	}
	return line, true
}

// SelectSection returns the line span of the section at p: from its heading
// up to the next sibling heading, or to the document end when there is no
// next sibling under the same parent.
func (c *Controller) SelectSection(p outline.Path) (Span, bool) {
	node, ok := c.tree.At(p)
	if !ok {
		return Span{}, false
	}

	endText := ""
	hasEnd := false
	if sib, ok := c.tree.At(p.NextSibling()); ok {
		endText = sib.Text
		hasEnd = true
	}

	span, ok := c.locator.LocateRange(node.Text, endText, hasEnd)
	if !ok {
		c.log.Warn("toc: could not select section", slog.String("path", p.String()))
		return Span{}, false
	}
	return span, true
}

// Promote moves every selected section one level up and reloads the tree.
func (c *Controller) Promote(paths []outline.Path) BatchResult {
	if !CanPromote(paths) {
		return BatchResult{Outcome: OutcomeNoop}
	}
	return c.apply(PromoteChanges(c.tree, paths, c.showTitle), c.unresolved(paths))
}

// Demote moves every selected section one level down and reloads the tree.
func (c *Controller) Demote(paths []outline.Path) BatchResult {
	if !CanDemote(paths) {
		return BatchResult{Outcome: OutcomeNoop}
	}
	return c.apply(DemoteChanges(c.tree, paths, c.showTitle), c.unresolved(paths))
}

// unresolved counts selection paths that do not resolve in the current tree.
func (c *Controller) unresolved(paths []outline.Path) int {
	n := 0
	for _, p := range paths {
		if _, ok := c.tree.At(p); !ok {
			c.log.Warn("toc: selection path not in tree", slog.String("path", p.String()))
			n++
		}
	}
	return n
}

// apply locates each change's heading by text and rewrites its level.
// Headings that cannot be found or rewritten are logged and skipped, as are
// the stale selection paths counted in preSkipped; the rest still land. The
// tree is rebuilt afterwards either way.
func (c *Controller) apply(changes []Change, preSkipped int) BatchResult {
	res := BatchResult{Changes: changes, Skipped: preSkipped}
	for _, ch := range changes {
		line, ok := c.locator.Locate(ch.Text)
		if !ok {
			c.log.Warn("toc: heading not found in document", slog.String("text", ch.Text))
			res.Skipped++
			continue
		}
		if err := c.doc.ApplyHeadingLevel(line, ch.Level); err != nil {
			c.log.Warn("toc: heading update failed",
				slog.String("text", ch.Text),
				slog.Int("line", line),
				slog.String("error", err.Error()))
			res.Skipped++
			continue
		}
		res.Applied++
	}

	c.Reload()

	switch {
	case res.Skipped > 0:
		res.Outcome = OutcomePartial
	case res.Applied > 0:
		res.Outcome = OutcomeApplied
	default:
		res.Outcome = OutcomeNoop
	}
	return res
}
