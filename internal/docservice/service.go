package docservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/document"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/outline"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/toc"
)

// DocumentDetail is the full representation of a document, including its
// table of contents snapshot.
type DocumentDetail struct {
	models.Document
	HTML string `json:"html,omitempty"`
	ToC  *ToC   `json:"toc"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path         string    `json:"path"`
	Title        string    `json:"title"`
	Checksum     string    `json:"checksum"`
	HeadingCount int       `json:"heading_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToCNode is one entry of a table of contents snapshot. Path addresses the
// node in the snapshot and goes stale as soon as the document changes.
type ToCNode struct {
	Text     string     `json:"text"`
	Path     []int      `json:"path"`
	Children []*ToCNode `json:"children"`
}

// ToC is a table of contents snapshot for one document. Checksum identifies
// the document revision the snapshot was derived from and doubles as the
// If-Match value for restructuring requests.
type ToC struct {
	Document  string     `json:"document"`
	ShowTitle bool       `json:"show_title"`
	Checksum  string     `json:"checksum"`
	Empty     bool       `json:"empty"`
	Roots     []*ToCNode `json:"roots"`
}

// Section is one heading's slice of a document: the heading line through the
// line before its next sibling (or the document end).
type Section struct {
	Document  string `json:"document"`
	Text      string `json:"text"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Markdown  string `json:"markdown"`
}

// RestructureResult is the outcome of a promote or demote request. Checksum
// is the document revision after the operation (unchanged on a noop).
type RestructureResult struct {
	toc.BatchResult
	Checksum string `json:"checksum"`
}

// Service coordinates storage, index, and outline operations.
type Service struct {
	store     storage.Provider
	db        index.OutlineIndex
	broker    *sse.Broker
	md        goldmark.Markdown
	log       *slog.Logger
	showTitle bool

	// mu serializes restructuring writes so concurrent promote/demote
	// requests cannot interleave read-modify-write cycles.
	mu sync.Mutex
}

// NewService creates a new document service. showTitle is the default
// title-visibility policy applied when a request does not override it.
func NewService(store storage.Provider, db index.OutlineIndex, broker *sse.Broker, showTitle bool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		db:        db,
		broker:    broker,
		md:        goldmark.New(),
		log:       logger,
		showTitle: showTitle,
	}
}

// DefaultShowTitle returns the configured title-visibility default.
func (s *Service) DefaultShowTitle() bool {
	return s.showTitle
}

// ListDocuments returns paginated documents from the index.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, sort string) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Path:         r.Path,
			Title:        r.Title,
			Checksum:     r.Checksum,
			HeadingCount: r.HeadingCount,
			UpdatedAt:    r.UpdatedAt,
		}
	}
	return items, total, nil
}

// GetDocument reads a document from storage, parses it, and attaches its
// table of contents. With renderHTML it also includes a goldmark rendering
// of the Markdown body.
func (s *Service) GetDocument(_ context.Context, path string, renderHTML bool) (*DocumentDetail, error) {
	data, err := s.readDocument(path)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	detail := &DocumentDetail{
		Document: models.Document{
			Path:        path,
			Content:     string(data),
			Frontmatter: res.Frontmatter,
			Title:       res.Title,
			Headings:    nonNilSlice(res.Headings),
			Checksum:    checksum.Sum(data),
			UpdatedAt:   time.Now(),
		},
		ToC: buildToC(path, data, s.showTitle),
	}
	if renderHTML {
		var html bytes.Buffer
		if err := s.md.Convert(data, &html); err != nil {
			return nil, err
		}
		detail.HTML = html.String()
	}
	return detail, nil
}

// GetToC builds a fresh table of contents snapshot for a document.
func (s *Service) GetToC(_ context.Context, path string, showTitle bool) (*ToC, error) {
	data, err := s.readDocument(path)
	if err != nil {
		return nil, err
	}
	return buildToC(path, data, showTitle), nil
}

// Navigate resolves a tree path to the document line of its heading.
func (s *Service) Navigate(_ context.Context, path string, treePath []int, showTitle bool) (int, error) {
	data, err := s.readDocument(path)
	if err != nil {
		return 0, err
	}
	buf := document.NewBuffer(data)
	ctrl := toc.NewController(buf, showTitle, s.log)
	line, ok := ctrl.Navigate(outline.Path(treePath))
	if !ok {
		return 0, apperr.ErrNotFound
	}
	return line, nil
}

// Section resolves a tree path to its document slice: the heading line up to
// (not including) the next sibling heading, or the document end for the last
// sibling.
func (s *Service) Section(_ context.Context, path string, treePath []int, showTitle bool) (*Section, error) {
	data, err := s.readDocument(path)
	if err != nil {
		return nil, err
	}
	buf := document.NewBuffer(data)
	ctrl := toc.NewController(buf, showTitle, s.log)

	node, ok := ctrl.Tree().At(outline.Path(treePath))
	if !ok {
		return nil, apperr.ErrNotFound
	}
	span, ok := ctrl.SelectSection(outline.Path(treePath))
	if !ok {
		return nil, apperr.ErrNotFound
	}
	md, err := buf.Region(span.Start, span.End)
	if err != nil {
		return nil, err
	}
	return &Section{
		Document:  path,
		Text:      node.Text,
		StartLine: span.Start,
		EndLine:   span.End,
		Markdown:  md,
	}, nil
}

// Promote shifts the selected headings and their subtrees one level out.
func (s *Service) Promote(_ context.Context, path string, treePaths [][]int, showTitle bool, ifMatch string) (*RestructureResult, error) {
	return s.restructure(path, treePaths, showTitle, ifMatch, false)
}

// Demote shifts the selected headings and their subtrees one level in.
func (s *Service) Demote(_ context.Context, path string, treePaths [][]int, showTitle bool, ifMatch string) (*RestructureResult, error) {
	return s.restructure(path, treePaths, showTitle, ifMatch, true)
}

func (s *Service) restructure(path string, treePaths [][]int, showTitle bool, ifMatch string, demote bool) (*RestructureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readDocument(path)
	if err != nil {
		return nil, err
	}
	cs := checksum.Sum(data)
	if ifMatch != "" && ifMatch != cs {
		return nil, apperr.ErrConflict
	}

	buf := document.NewBuffer(data)
	ctrl := toc.NewController(buf, showTitle, s.log)

	paths := make([]outline.Path, len(treePaths))
	for i, tp := range treePaths {
		p := outline.Path(tp)
		if _, ok := ctrl.Tree().At(p); !ok {
			return nil, apperr.ErrInvalid
		}
		paths[i] = p
	}

	var res toc.BatchResult
	if demote {
		res = ctrl.Demote(paths)
	} else {
		res = ctrl.Promote(paths)
	}

	if res.Outcome == toc.OutcomeNoop {
		return &RestructureResult{BatchResult: res, Checksum: cs}, nil
	}

	out := buf.Bytes()
	if err := s.store.Write(path, out); err != nil {
		return nil, err
	}
	if err := s.indexDocument(path, out); err != nil {
		return nil, err
	}
	if s.broker != nil {
		s.broker.PublishDocumentEvent("updated", path)
	}

	return &RestructureResult{BatchResult: res, Checksum: checksum.Sum(out)}, nil
}

// SearchHeadings delegates heading search to the index.
func (s *Service) SearchHeadings(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.SearchHeadings(query, limit)
}

// DuplicateHeadings returns heading texts occurring more than once in a
// document. Such headings are located by text, so restructuring always
// resolves them to the first occurrence.
func (s *Service) DuplicateHeadings(_ context.Context, path string) ([]index.DuplicateHeading, error) {
	return s.db.DuplicateHeadings(path)
}

// ExportToC renders a table of contents as Markdown bullets or JSON. It
// returns the content and its media type.
func (s *Service) ExportToC(_ context.Context, path, format string, showTitle bool) ([]byte, string, error) {
	data, err := s.readDocument(path)
	if err != nil {
		return nil, "", err
	}
	t := buildToC(path, data, showTitle)

	switch format {
	case "markdown":
		var b strings.Builder
		writeOutlineMarkdown(&b, t.Roots, 0)
		return []byte(b.String()), "text/markdown; charset=utf-8", nil
	case "json":
		out, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return out, "application/json; charset=utf-8", nil
	default:
		return nil, "", apperr.ErrInvalid
	}
}

// readDocument reads a vault document, mapping a missing file to ErrNotFound.
func (s *Service) readDocument(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// indexDocument parses data and upserts it into the index.
func (s *Service) indexDocument(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return s.db.UpsertDocument(index.DocumentRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}, res.Headings)
}

// buildToC derives a snapshot from raw document bytes.
func buildToC(path string, data []byte, showTitle bool) *ToC {
	buf := document.NewBuffer(data)
	tree := outline.Build(buf.Headings(), showTitle)
	return &ToC{
		Document:  path,
		ShowTitle: showTitle,
		Checksum:  checksum.Sum(data),
		Empty:     tree.IsEmpty(),
		Roots:     tocNodes(nil, tree.Roots()),
	}
}

func tocNodes(prefix outline.Path, nodes []*outline.Node) []*ToCNode {
	out := make([]*ToCNode, len(nodes))
	for i, n := range nodes {
		p := append(prefix.Clone(), i)
		out[i] = &ToCNode{
			Text:     n.Text,
			Path:     []int(p),
			Children: tocNodes(p, n.Children),
		}
	}
	return out
}

func writeOutlineMarkdown(b *strings.Builder, nodes []*ToCNode, depth int) {
	for _, n := range nodes {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("- ")
		b.WriteString(n.Text)
		b.WriteByte('\n')
		writeOutlineMarkdown(b, n.Children, depth+1)
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
