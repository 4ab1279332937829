// Package toc drives a document's table of contents: it derives the outline
// tree, navigates from tree paths back to document lines, and applies
// promote/demote restructuring to heading sections.
package toc

import (
	"regexp"

	"github.com/starford/raido/internal/outline"
)

// Document is the live document surface the controller works against. The
// package never parses Markdown itself; it sees headings, line search, and
// heading-level rewrite only.
//
// Search results are plain line numbers and go stale as soon as the
// document changes; the controller always re-locates by text instead of
// caching lines.
type Document interface {
	// Headings returns the in-order heading sequence.
	Headings() []outline.Heading

	// FindFirstMatchingLine scans from the document start.
	FindFirstMatchingLine(re *regexp.Regexp) (int, bool)

	// FindNextMatching scans after from and wraps around; from itself is
	// the last candidate.
	FindNextMatching(re *regexp.Regexp, from int) (int, bool)

	// IsHeading reports whether line carries a heading.
	IsHeading(line int) bool

	// ApplyHeadingLevel rewrites the heading at line to level, keeping its
	// text. It returns an error when line is out of range or no longer a
	// heading, and panics when level is outside 1..6.
	ApplyHeadingLevel(line, level int) error

	// LineCount returns the document length in lines.
	LineCount() int
}
