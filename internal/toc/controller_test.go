package toc

import (
	"io"
	"log/slog"
	"testing"

	"github.com/starford/raido/internal/document"
	"github.com/starford/raido/internal/outline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T, src string, showTitle bool) (*Controller, *document.Buffer) {
	t.Helper()
	buf := document.NewBuffer([]byte(src))
	return NewController(buf, showTitle, testLogger()), buf
}

func rootTexts(tree *outline.Tree) []string {
	var out []string
	for _, n := range tree.Roots() {
		out = append(out, n.Text)
	}
	return out
}

func TestController_InitialTree(t *testing.T) {
	c, _ := newTestController(t, "# Title\n## Alpha\n## Beta\n", false)
	got := rootTexts(c.Tree())
	if len(got) != 2 || got[0] != "Alpha" || got[1] != "Beta" {
		t.Errorf("roots = %v, want [Alpha Beta]", got)
	}
}

func TestReload_FiresListener(t *testing.T) {
	c, _ := newTestController(t, "# A\n", true)
	var fired int
	var seen *outline.Tree
	c.OnTreeChanged(func(tr *outline.Tree) {
		fired++
		seen = tr
	})
	c.Reload()
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if seen != c.Tree() {
		t.Error("listener received a different tree than Tree()")
	}
}

func TestSetShowTitle_RebuildsOnlyOnChange(t *testing.T) {
	c, _ := newTestController(t, "# Title\n## Alpha\n", true)
	var fired int
	c.OnTreeChanged(func(*outline.Tree) { fired++ })

	c.SetShowTitle(true)
	if fired != 0 {
		t.Fatalf("unchanged setting rebuilt the tree %d times", fired)
	}

	c.SetShowTitle(false)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	got := rootTexts(c.Tree())
	if len(got) != 1 || got[0] != "Alpha" {
		t.Errorf("roots = %v, want [Alpha]", got)
	}
}

func TestNavigate(t *testing.T) {
	c, _ := newTestController(t, "# Title\n## Alpha\nbody\n## Beta\n", false)
	line, ok := c.Navigate(outline.Path{0})
	if !ok || line != 1 {
		t.Errorf("Navigate(0) = (%d, %v), want (1, true)", line, ok)
	}
	line, ok = c.Navigate(outline.Path{1})
	if !ok || line != 3 {
		t.Errorf("Navigate(1) = (%d, %v), want (3, true)", line, ok)
	}
}

func TestNavigate_StalePath(t *testing.T) {
	c, _ := newTestController(t, "# A\n", true)
	if _, ok := c.Navigate(outline.Path{7}); ok {
		t.Error("expected failure for a path that does not resolve")
	}
}

func TestSelectSection_EndsAtNextSibling(t *testing.T) {
	c, _ := newTestController(t, "# Title\n## Alpha\nbody\n## Beta\n", false)
	span, ok := c.SelectSection(outline.Path{0})
	if !ok {
		t.Fatal("expected span")
	}
	if span.Start != 1 || span.End != 3 {
		t.Errorf("span = %+v, want {1 3}", span)
	}
}

func TestSelectSection_LastSiblingRunsToEnd(t *testing.T) {
	c, buf := newTestController(t, "# Title\n## Alpha\nbody\n## Beta\n", false)
	span, ok := c.SelectSection(outline.Path{1})
	if !ok {
		t.Fatal("expected span")
	}
	if span.Start != 3 || span.End != buf.LineCount() {
		t.Errorf("span = %+v, want {3 %d}", span, buf.LineCount())
	}
}

func TestSelectSection_IgnoresAncestorSuccessor(t *testing.T) {
	// Only the immediate next sibling bounds a section. The last child of a
	// subtree runs to the document end even when a later top-level section
	// follows.
	c, buf := newTestController(t, "# A\n## A1\n### A1a\n# B\n", true)
	span, ok := c.SelectSection(outline.Path{0, 0, 0})
	if !ok {
		t.Fatal("expected span")
	}
	if span.Start != 2 || span.End != buf.LineCount() {
		t.Errorf("span = %+v, want {2 %d}", span, buf.LineCount())
	}
}

func TestPromote_AppliesAndReloads(t *testing.T) {
	c, buf := newTestController(t, "# Title\n## Alpha\n### Child\n", false)
	var fired int
	c.OnTreeChanged(func(*outline.Tree) { fired++ })

	res := c.Promote([]outline.Path{{0, 0}})
	if res.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomeApplied)
	}
	if res.Applied != 1 || res.Skipped != 0 {
		t.Errorf("applied/skipped = %d/%d, want 1/0", res.Applied, res.Skipped)
	}
	if got := string(buf.Bytes()); got != "# Title\n## Alpha\n## Child\n" {
		t.Errorf("document = %q", got)
	}
	if fired != 1 {
		t.Errorf("tree rebuilt %d times, want 1", fired)
	}
	if got := rootTexts(c.Tree()); len(got) != 2 || got[1] != "Child" {
		t.Errorf("roots after promote = %v, want [Alpha Child]", got)
	}
}

func TestPromote_TopLevelIsNoop(t *testing.T) {
	c, buf := newTestController(t, "# Title\n## Alpha\n", false)
	var fired int
	c.OnTreeChanged(func(*outline.Tree) { fired++ })

	res := c.Promote([]outline.Path{{0}})
	if res.Outcome != OutcomeNoop {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomeNoop)
	}
	if got := string(buf.Bytes()); got != "# Title\n## Alpha\n" {
		t.Errorf("document changed on noop: %q", got)
	}
	if fired != 0 {
		t.Errorf("tree rebuilt %d times on noop, want 0", fired)
	}
}

func TestDemote_SubtreeShift(t *testing.T) {
	c, buf := newTestController(t, "# A\n# D\n## E\n", true)

	res := c.Demote([]outline.Path{{1}})
	if res.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomeApplied)
	}
	if res.Applied != 2 {
		t.Errorf("applied = %d, want 2", res.Applied)
	}
	if got := string(buf.Bytes()); got != "# A\n## D\n### E\n" {
		t.Errorf("document = %q", got)
	}
	if got := rootTexts(c.Tree()); len(got) != 1 || got[0] != "A" {
		t.Errorf("roots after demote = %v, want [A]", got)
	}
}

func TestDemote_FirstChildNeedsParent(t *testing.T) {
	c, _ := newTestController(t, "# A\n# D\n## E\n", true)

	if res := c.Demote([]outline.Path{{1, 0}}); res.Outcome != OutcomeNoop {
		t.Fatalf("first child alone: outcome = %q, want %q", res.Outcome, OutcomeNoop)
	}
	if res := c.Demote([]outline.Path{{1}, {1, 0}}); res.Outcome != OutcomeApplied {
		t.Fatalf("with parent: outcome = %q, want %q", res.Outcome, OutcomeApplied)
	}
}

func TestPromote_DuplicateHeadingsResolveToFirst(t *testing.T) {
	// Two sections share a heading text. Locating by text finds the first
	// occurrence, so promoting the second rewrites the first. A known
	// limitation surfaced by the duplicate-headings diagnostic instead of
	// being fixed here.
	c, buf := newTestController(t, "# Title\n## Dup\nx\n## Dup\n", true)

	res := c.Promote([]outline.Path{{0, 1}})
	if res.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomeApplied)
	}
	if got := string(buf.Bytes()); got != "# Title\n# Dup\nx\n## Dup\n" {
		t.Errorf("document = %q", got)
	}
}

func TestPromoteDemote_RoundTrip(t *testing.T) {
	src := "# Title\n## Alpha\n### Child\n"
	c, buf := newTestController(t, src, false)

	if res := c.Promote([]outline.Path{{0, 0}}); res.Outcome != OutcomeApplied {
		t.Fatalf("promote outcome = %q", res.Outcome)
	}
	// The rebuild moved Child up to the second root, so it has a new path.
	if res := c.Demote([]outline.Path{{1}}); res.Outcome != OutcomeApplied {
		t.Fatalf("demote outcome = %q", res.Outcome)
	}
	if got := string(buf.Bytes()); got != src {
		t.Errorf("round trip = %q, want %q", got, src)
	}
}

// phantomDoc reports one heading that does not exist in the underlying
// buffer, standing in for a document that changed between tree rebuild and
// restructuring.
type phantomDoc struct {
	*document.Buffer
}

func (d phantomDoc) Headings() []outline.Heading {
	return append(d.Buffer.Headings(), outline.Heading{Level: 2, Text: "Ghost"})
}

func TestPromote_MissingHeadingIsPartial(t *testing.T) {
	buf := document.NewBuffer([]byte("# Title\n## Alpha\n"))
	c := NewController(phantomDoc{buf}, true, testLogger())

	res := c.Promote([]outline.Path{{0, 1}})
	if res.Outcome != OutcomePartial {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomePartial)
	}
	if res.Applied != 0 || res.Skipped != 1 {
		t.Errorf("applied/skipped = %d/%d, want 0/1", res.Applied, res.Skipped)
	}
	if got := string(buf.Bytes()); got != "# Title\n## Alpha\n" {
		t.Errorf("document changed: %q", got)
	}
}

func TestPromote_StaleSelectionIsPartial(t *testing.T) {
	c, buf := newTestController(t, "# Title\n## Alpha\n### Child\n", false)

	res := c.Promote([]outline.Path{{4, 0}})
	if res.Outcome != OutcomePartial {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomePartial)
	}
	if res.Applied != 0 || res.Skipped != 1 {
		t.Errorf("applied/skipped = %d/%d, want 0/1", res.Applied, res.Skipped)
	}
	if len(res.Changes) != 0 {
		t.Errorf("changes = %v, want none", res.Changes)
	}
	if got := string(buf.Bytes()); got != "# Title\n## Alpha\n### Child\n" {
		t.Errorf("document changed: %q", got)
	}
}

func TestPromote_MixedStaleSelectionIsPartial(t *testing.T) {
	c, buf := newTestController(t, "# Title\n## Alpha\n### Child\n", false)

	res := c.Promote([]outline.Path{{0, 0}, {4, 0}})
	if res.Outcome != OutcomePartial {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomePartial)
	}
	if res.Applied != 1 || res.Skipped != 1 {
		t.Errorf("applied/skipped = %d/%d, want 1/1", res.Applied, res.Skipped)
	}
	if got := string(buf.Bytes()); got != "# Title\n## Alpha\n## Child\n" {
		t.Errorf("document = %q", got)
	}
}

func TestDemote_StaleSelectionIsPartial(t *testing.T) {
	c, buf := newTestController(t, "# A\n# D\n## E\n", true)

	res := c.Demote([]outline.Path{{5}})
	if res.Outcome != OutcomePartial {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomePartial)
	}
	if res.Applied != 0 || res.Skipped != 1 {
		t.Errorf("applied/skipped = %d/%d, want 0/1", res.Applied, res.Skipped)
	}
	if got := string(buf.Bytes()); got != "# A\n# D\n## E\n" {
		t.Errorf("document changed: %q", got)
	}
}

func TestDemote_LevelOverflowPanics(t *testing.T) {
	// With the title hidden, a depth-5 later sibling passes gating but its
	// target level is 7. The document layer treats that as a programming
	// error.
	src := "# T\n## a\n### b\n#### c\n##### d\n###### e\n###### f\n"
	c, _ := newTestController(t, src, false)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for level 7 rewrite")
		}
	}()
	c.Demote([]outline.Path{{0, 0, 0, 0, 1}})
}
