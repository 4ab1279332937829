package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/docservice"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider, *index.DB) {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := docservice.NewService(store, db, nil, false, logger)
	srv := New(svc)
	return srv, store, db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// Find the handler via the MCPServer's tool list. We call the handler directly.
	// Since mcp-go doesn't expose a direct "call tool" test helper, we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_toc":
		result, err = srv.getToC(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "read_section":
		result, err = srv.readSection(ctx, req)
	case "promote_headings":
		result, err = srv.promoteHeadings(ctx, req)
	case "demote_headings":
		result, err = srv.demoteHeadings(ctx, req)
	case "search_headings":
		result, err = srv.searchHeadings(ctx, req)
	case "duplicate_headings":
		result, err = srv.duplicateHeadings(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "get_outline_contract":
		result, err = srv.getOutlineContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestGetToC(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("guide.md", []byte("# Title\n## Alpha\n## Beta\n"))

	r := callTool(t, srv, "get_toc", map[string]interface{}{"path": "guide.md"})
	text := resultText(r)
	if !strings.Contains(text, `"text": "Alpha"`) || !strings.Contains(text, `"text": "Beta"`) {
		t.Errorf("toc missing section nodes: %s", text)
	}
	if strings.Contains(text, `"text": "Title"`) {
		t.Errorf("lone title should be hidden by default: %s", text)
	}
}

func TestGetToCShowTitle(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("guide.md", []byte("# Title\n## Alpha\n"))

	r := callTool(t, srv, "get_toc", map[string]interface{}{
		"path":       "guide.md",
		"show_title": "true",
	})
	text := resultText(r)
	if !strings.Contains(text, `"text": "Title"`) {
		t.Errorf("title should be a root node: %s", text)
	}
	if !strings.Contains(text, `"show_title": true`) {
		t.Errorf("snapshot should echo the switch: %s", text)
	}
}

func TestReadDocument(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("test.md", []byte("# Test\nHello\n"))

	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "test.md"})
	if text := resultText(r); text != "# Test\nHello\n" {
		t.Errorf("read result = %q", text)
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestReadSection(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("doc.md", []byte("# A\nalpha\n# B\nbeta\n"))

	r := callTool(t, srv, "read_section", map[string]interface{}{
		"path":    "doc.md",
		"section": "[1]",
	})
	if text := resultText(r); text != "# B\nbeta\n" {
		t.Errorf("section = %q", text)
	}
}

func TestPromoteHeadings(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("doc.md", []byte("# Title\n## Alpha\n### Child\n"))

	// Hidden-title tree: Alpha is [0], Child is [0,0].
	r := callTool(t, srv, "promote_headings", map[string]interface{}{
		"path":  "doc.md",
		"paths": "[[0,0]]",
	})
	text := resultText(r)
	if r.IsError {
		t.Fatalf("promote failed: %s", text)
	}
	if !strings.Contains(text, `"outcome": "applied"`) || !strings.Contains(text, `"applied": 1`) {
		t.Errorf("promote result = %s", text)
	}

	data, err := store.Read("doc.md")
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "# Title\n## Alpha\n## Child\n" {
		t.Errorf("document after promote = %q", got)
	}
}

func TestDemoteFirstChildRefused(t *testing.T) {
	srv, store, _ := testServer(t)
	content := "# Title\n## Alpha\n### Child\n"
	_ = store.Write("doc.md", []byte(content))

	// Child is the first child of Alpha; demoting it alone would reparent it.
	r := callTool(t, srv, "demote_headings", map[string]interface{}{
		"path":  "doc.md",
		"paths": "[[0,0]]",
	})
	text := resultText(r)
	if !strings.Contains(text, `"outcome": "noop"`) {
		t.Errorf("demote result = %s", text)
	}

	data, _ := store.Read("doc.md")
	if string(data) != content {
		t.Error("noop demote must leave the document untouched")
	}
}

func TestPromoteStalePath(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("doc.md", []byte("# Title\n## Alpha\n"))

	r := callTool(t, srv, "promote_headings", map[string]interface{}{
		"path":  "doc.md",
		"paths": "[[4]]",
	})
	if !r.IsError {
		t.Error("expected error for a path outside the tree")
	}
}

func TestSearchHeadings(t *testing.T) {
	srv, store, db := testServer(t)
	_ = store.Write("guide.md", []byte("# Guide\n## Alpha Setup\n"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "search_headings", map[string]interface{}{"query": "alpha"})
	text := resultText(r)
	if !strings.Contains(text, "guide.md") {
		t.Errorf("search = %s", text)
	}
}

func TestDuplicateHeadings(t *testing.T) {
	srv, store, db := testServer(t)
	_ = store.Write("doc.md", []byte("# Doc\n## Setup\ntext\n## Notes\n## Setup\n"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "duplicate_headings", map[string]interface{}{"path": "doc.md"})
	text := resultText(r)
	if !strings.Contains(text, "Setup") {
		t.Errorf("duplicates = %s", text)
	}

	_ = store.Write("clean.md", []byte("# Doc\n## One\n## Two\n"))
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}
	r = callTool(t, srv, "duplicate_headings", map[string]interface{}{"path": "clean.md"})
	if text := resultText(r); text != "no duplicate headings found" {
		t.Errorf("clean document duplicates = %q", text)
	}
}

func TestListDocuments(t *testing.T) {
	srv, store, db := testServer(t)
	_ = store.Write("a.md", []byte("# A\n"))
	_ = store.Write("b.md", []byte("# B\n"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "list_documents", map[string]interface{}{})
	if text := resultText(r); text != "a.md\nb.md" {
		t.Errorf("list = %q", text)
	}
}

func TestOutlineContract(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_outline_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "Tree paths") || !strings.Contains(text, "show_title") {
		t.Error("contract text incomplete")
	}
}
