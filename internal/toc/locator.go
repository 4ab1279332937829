package toc

import (
	"regexp"
)

// Span is a half-open line range within a document: Start is the section's
// heading line, End is the first line past the section.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Locator finds headings in a live document by their text.
type Locator struct {
	doc Document
}

// NewLocator returns a locator over doc.
func NewLocator(doc Document) *Locator {
	return &Locator{doc: doc}
}

// Locate returns the line of the first heading whose full text equals text,
// scanning from the document start. Body lines that merely repeat the text
// match too; those are stepped over with FindNextMatching until a heading
// line turns up. A visited set bounds the walk: FindNextMatching wraps
// around, so revisiting a line means every match has been tried and none is
// a heading.
func (l *Locator) Locate(text string) (int, bool) {
	re := wholeLinePattern(text)

	line, ok := l.doc.FindFirstMatchingLine(re)
	if !ok {
		return 0, false
	}

	visited := map[int]struct{}{line: {}}
	for !l.doc.IsHeading(line) {
		next, ok := l.doc.FindNextMatching(re, line)
		if !ok {
			return 0, false
		}
		if _, seen := visited[next]; seen {
			return 0, false
		}
		visited[next] = struct{}{}
		line = next
	}
	return line, true
}

// LocateRange resolves the span from the heading startText up to the
// heading endText (exclusive). When hasEnd is false the span runs to the
// document end.
func (l *Locator) LocateRange(startText, endText string, hasEnd bool) (Span, bool) {
	start, ok := l.Locate(startText)
	if !ok {
		return Span{}, false
	}
	if !hasEnd {
		return Span{Start: start, End: l.doc.LineCount()}, true
	}
	end, ok := l.Locate(endText)
	if !ok {
		return Span{}, false
	}
	return Span{Start: start, End: end}, true
}

func wholeLinePattern(text string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(text) + "$")
}
