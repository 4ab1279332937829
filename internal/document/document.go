// Package document provides an in-memory line buffer over Markdown content
// with heading-aware search and mutation. Search patterns match against the
// heading text with the marker stripped, and against the raw line everywhere
// else, so a body line that repeats a heading's text is a legitimate match
// that callers must filter with IsHeading.
package document

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/raido/internal/outline"
	"github.com/starford/raido/internal/parser"
)

// ErrStaleLocation reports a line-addressed operation against a line that
// moved or changed since it was located.
var ErrStaleLocation = errors.New("stale document location")

// Buffer is a mutable, line-addressed Markdown document.
type Buffer struct {
	lines []parser.Line
}

// NewBuffer builds a buffer from raw Markdown bytes.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{lines: parser.ScanLines(data)}
}

// Bytes serializes the buffer back to Markdown. The line split keeps the
// trailing-newline shape of the input, so an unmodified buffer round-trips
// byte for byte.
func (b *Buffer) Bytes() []byte {
	raws := make([]string, len(b.lines))
	for i, ln := range b.lines {
		raws[i] = ln.Raw
	}
	return []byte(strings.Join(raws, "\n"))
}

// LineCount returns the number of lines in the buffer.
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// Line returns the classified line at the given zero-based index.
func (b *Buffer) Line(i int) (parser.Line, bool) {
	if i < 0 || i >= len(b.lines) {
		return parser.Line{}, false
	}
	return b.lines[i], true
}

// Headings returns the in-order heading sequence of the buffer.
func (b *Buffer) Headings() []outline.Heading {
	var out []outline.Heading
	for _, ln := range b.lines {
		if ln.Level > 0 {
			out = append(out, outline.Heading{Level: ln.Level, Text: ln.Text})
		}
	}
	return out
}

// IsHeading reports whether the given line is a heading.
func (b *Buffer) IsHeading(line int) bool {
	return line >= 0 && line < len(b.lines) && b.lines[line].Level > 0
}

// FindFirstMatchingLine returns the first line whose text matches re,
// scanning from the start of the document.
func (b *Buffer) FindFirstMatchingLine(re *regexp.Regexp) (int, bool) {
	for i := range b.lines {
		if re.MatchString(b.lines[i].Text) {
			return i, true
		}
	}
	return 0, false
}

// FindNextMatching returns the next line after from whose text matches re.
// The scan wraps past the end of the document, and from itself is the last
// candidate, so a search whose only match is the current line returns the
// current line again. Callers detect that with their own visited set.
func (b *Buffer) FindNextMatching(re *regexp.Regexp, from int) (int, bool) {
	n := len(b.lines)
	if from < 0 || from >= n {
		from = n - 1
	}
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if re.MatchString(b.lines[i].Text) {
			return i, true
		}
	}
	return 0, false
}

// ApplyHeadingLevel rewrites the heading at the given line to the canonical
// marker for level, keeping its text. Levels outside 1..6 are a programming
// error and panic. A line that is out of range or no longer a heading
// returns ErrStaleLocation.
func (b *Buffer) ApplyHeadingLevel(line, level int) error {
	if level < 1 || level > 6 {
		panic(fmt.Sprintf("document: heading level %d out of range", level))
	}
	if line < 0 || line >= len(b.lines) {
		return fmt.Errorf("line %d out of range: %w", line, ErrStaleLocation)
	}
	if b.lines[line].Level == 0 {
		return fmt.Errorf("line %d is not a heading: %w", line, ErrStaleLocation)
	}
	text := b.lines[line].Text
	b.lines[line] = parser.Line{
		Raw:   strings.Repeat("#", level) + " " + text,
		Level: level,
		Text:  text,
	}
	return nil
}

// Region returns the raw text of lines start..end-1 joined by newlines.
func (b *Buffer) Region(start, end int) (string, error) {
	if start < 0 || end < start || end > len(b.lines) {
		return "", fmt.Errorf("region %d..%d out of range", start, end)
	}
	raws := make([]string, 0, end-start)
	for _, ln := range b.lines[start:end] {
		raws = append(raws, ln.Raw)
	}
	return strings.Join(raws, "\n"), nil
}
