// Package parser extracts frontmatter, the document title, and the ordered
// heading sequence from Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/raido/internal/outline"
)

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

const frontmatterDelim = "---"

// Line is one classified source line. Level is 1..6 for ATX heading lines
// and 0 otherwise. Text carries the heading text with the marker stripped
// for heading lines, and the raw line for everything else.
type Line struct {
	Raw   string
	Level int
	Text  string
}

// Result holds the output of parsing a Markdown document snapshot.
type Result struct {
	Frontmatter map[string]interface{}
	Title       string
	Headings    []outline.Heading
}

// Parse extracts frontmatter, title, and the heading sequence from raw
// Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, err := parseFrontmatter(data)
	if err != nil {
		return nil, err
	}

	var headings []outline.Heading
	for _, ln := range ScanLines(data) {
		if ln.Level > 0 {
			headings = append(headings, outline.Heading{Level: ln.Level, Text: ln.Text})
		}
	}

	return &Result{
		Frontmatter: fm,
		Title:       deriveTitle(fm, headings),
		Headings:    headings,
	}, nil
}

// ScanLines classifies every line of a document. Heading markers are only
// recognized outside fenced code blocks and outside a leading frontmatter
// block, so a "# comment" inside a shell snippet never becomes an outline
// entry. The slice index is the zero-based line number.
func ScanLines(data []byte) []Line {
	lines := strings.Split(string(data), "\n")
	out := make([]Line, len(lines))

	inFence := false
	inFrontmatter := false

	for i, raw := range lines {
		out[i] = Line{Raw: raw, Text: raw}
		trimmed := strings.TrimSpace(raw)

		if i == 0 && trimmed == frontmatterDelim {
			inFrontmatter = true
			continue
		}
		if inFrontmatter {
			if trimmed == frontmatterDelim {
				inFrontmatter = false
			}
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			out[i].Level = len(m[1])
			out[i].Text = m[2]
		}
	}
	return out
}

// parseFrontmatter unmarshals the YAML block between --- delimiters. The
// opening delimiter must be the first line of the document, the same rule
// ScanLines applies. Documents without frontmatter, without a closing
// delimiter, or with invalid YAML yield a nil map and no error.
func parseFrontmatter(data []byte) (map[string]interface{}, error) {
	if !bytes.HasPrefix(data, []byte(frontmatterDelim)) {
		return nil, nil
	}

	rest := data[len(frontmatterDelim):]
	idx := bytes.Index(rest, []byte("\n"+frontmatterDelim))
	if idx < 0 {
		return nil, nil
	}

	var fm map[string]interface{}
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, nil
	}
	return fm, nil
}

// deriveTitle returns the frontmatter "title" if present, otherwise the text
// of the first level-1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, headings []outline.Heading) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, h := range headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}
