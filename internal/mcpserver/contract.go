package mcpserver

// OutlineFormatContract describes the heading conventions and restructuring
// semantics that LLM consumers should follow when working with outlines.
const OutlineFormatContract = `# Raido Outline Contract

Every Markdown document served by Raido is outlined by its ATX headings.

## Headings

` + "```" + `markdown
# Title            <- level 1
## Section         <- level 2
### Subsection     <- level 3
` + "```" + `

1. **Only ATX headings count.** A heading is 1-6 ` + "`" + `#` + "`" + ` characters at the start
   of a line followed by a space and the heading text. Setext underlines and
   headings inside fenced code blocks are ignored.
2. **Levels are clamped to 1..6.** Promote and demote refuse any change that
   would push a heading outside that range.
3. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
4. **Encoding** is UTF-8 with a trailing newline.

## Tree paths

The ` + "`" + `get_toc` + "`" + ` tool returns a nested tree. Each node carries a **tree path**:
the list of child indices from the root, zero-based.

` + "```" + `
[0]     first root node
[0,2]   third child of the first root node
` + "```" + `

- Tree paths address nodes in ` + "`" + `read_section` + "`" + `, ` + "`" + `promote_headings` + "`" + ` and
  ` + "`" + `demote_headings` + "`" + `.
- Paths are only valid against the tree they came from. Any edit to the
  document invalidates them; always fetch a fresh ` + "`" + `get_toc` + "`" + ` first.
- The response of a restructuring call includes the new document checksum.

## The show_title switch

When a document starts with a single level-1 title and every other heading is
deeper, the title is normally **hidden** from the outline: the level-2
sections become the roots. Pass ` + "`" + `show_title: "true"` + "`" + ` to keep the title as the
lone root instead. The switch changes what tree paths mean, so use the same
value for ` + "`" + `get_toc` + "`" + ` and the call that consumes its paths.

## Promote and demote

- **Promote** shifts a heading and all its sub-headings one level out
  (` + "`" + `##` + "`" + ` becomes ` + "`" + `#` + "`" + `). Root-depth headings cannot be promoted further.
- **Demote** shifts a heading and all its sub-headings one level in
  (` + "`" + `#` + "`" + ` becomes ` + "`" + `##` + "`" + `). A heading that is the **first child** of its parent
  can only be demoted together with that parent, otherwise the outline would
  reorder itself.
- Selecting a heading implies its whole subtree; selecting a descendant of an
  already-selected heading adds nothing.
- The result reports an outcome: ` + "`" + `applied` + "`" + ` (every selection changed),
  ` + "`" + `partial` + "`" + ` (some selections could not be located in the text) or ` + "`" + `noop` + "`" + `
  (nothing changed). Changed and skipped counts accompany the outcome.

## Duplicate headings

Headings are located in the text **by their text**. When the same heading text
occurs more than once in a document, restructuring lands on the first
occurrence, which may not be the node you selected. Check
` + "`" + `duplicate_headings` + "`" + ` and rename duplicates before restructuring near them.
`
