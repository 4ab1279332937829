// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Raido outline tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/docservice"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all Raido tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_toc",
		mcp.WithDescription("Get the table of contents of a Markdown document as a nested tree. "+
			"Each node carries a tree path (child indices from the root) used to address it in "+
			"read_section, promote_headings, and demote_headings. Paths go stale whenever the "+
			"document changes; fetch a fresh tree before restructuring."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. guides/setup.md)")),
		mcp.WithString("show_title", mcp.Description("true or false; whether a lone level-1 title appears as an outline node (defaults to the service setting)")),
	), s.getToC)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full Markdown content of a document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("read_section",
		mcp.WithDescription("Read one heading's section: the heading line through the line before "+
			"its next sibling heading (or the document end for the last sibling)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("section", mcp.Required(), mcp.Description("Tree path of the heading as a JSON array, e.g. [0,2]")),
		mcp.WithString("show_title", mcp.Description("true or false; tree path interpretation (defaults to the service setting)")),
	), s.readSection)

	s.mcp.AddTool(mcp.NewTool("promote_headings",
		mcp.WithDescription("Shift the selected headings and all their sub-headings one level out "+
			"(## becomes #). Selections that would leave the 1..6 range are refused with a noop "+
			"outcome. Read the raido://outline-format resource for the full semantics."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("paths", mcp.Required(), mcp.Description("JSON array of tree paths, e.g. [[0],[1,2]]")),
		mcp.WithString("show_title", mcp.Description("true or false; tree path interpretation (defaults to the service setting)")),
	), s.promoteHeadings)

	s.mcp.AddTool(mcp.NewTool("demote_headings",
		mcp.WithDescription("Shift the selected headings and all their sub-headings one level in "+
			"(# becomes ##). A heading that is the first child of its parent can only be demoted "+
			"together with that parent. Read the raido://outline-format resource for the full semantics."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("paths", mcp.Required(), mcp.Description("JSON array of tree paths, e.g. [[0],[1,2]]")),
		mcp.WithString("show_title", mcp.Description("true or false; tree path interpretation (defaults to the service setting)")),
	), s.demoteHeadings)

	s.mcp.AddTool(mcp.NewTool("search_headings",
		mcp.WithDescription("Search heading text across all indexed documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchHeadings)

	s.mcp.AddTool(mcp.NewTool("duplicate_headings",
		mcp.WithDescription("List heading texts that occur more than once in a document. Duplicated "+
			"headings are located by text, so restructuring always lands on the first occurrence; "+
			"rename duplicates before promoting or demoting them."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
	), s.duplicateHeadings)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all indexed documents, one path per line."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_outline_contract",
		mcp.WithDescription("Returns the canonical Raido outline contract (heading conventions, "+
			"tree path addressing, promote/demote semantics). Call this before restructuring."),
	), s.getOutlineContract)

	// Resource: outline format contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://outline-format", "Outline Format Contract",
			mcp.WithResourceDescription("Heading conventions and restructuring semantics for Raido documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readOutlineFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// showTitleArg reads the optional show_title argument, falling back to the
// service default.
func (s *Server) showTitleArg(req mcp.CallToolRequest) bool {
	if v, err := req.RequireString("show_title"); err == nil && v != "" {
		if parsed, perr := strconv.ParseBool(v); perr == nil {
			return parsed
		}
	}
	return s.svc.DefaultShowTitle()
}

func parseTreePath(arg string) ([]int, error) {
	var p []int
	if err := json.Unmarshal([]byte(arg), &p); err != nil {
		return nil, fmt.Errorf("invalid tree path %q: expected a JSON array like [0,2]", arg)
	}
	return p, nil
}

func parseTreePaths(arg string) ([][]int, error) {
	var ps [][]int
	if err := json.Unmarshal([]byte(arg), &ps); err != nil {
		return nil, fmt.Errorf("invalid tree paths %q: expected a JSON array like [[0],[1,2]]", arg)
	}
	return ps, nil
}

func (s *Server) getToC(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.svc.GetToC(ctx, path, s.showTitleArg(req))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(t, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDocument(ctx, path, false)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) readSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sectionArg, err := req.RequireString("section")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	treePath, err := parseTreePath(sectionArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sec, err := s.svc.Section(ctx, path, treePath, s.showTitleArg(req))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("section %s not found in %s", sectionArg, path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(sec.Markdown), nil
}

func (s *Server) promoteHeadings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.restructure(ctx, req, false)
}

func (s *Server) demoteHeadings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.restructure(ctx, req, true)
}

func (s *Server) restructure(ctx context.Context, req mcp.CallToolRequest, demote bool) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pathsArg, err := req.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	treePaths, err := parseTreePaths(pathsArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	showTitle := s.showTitleArg(req)

	var res *docservice.RestructureResult
	if demote {
		res, err = s.svc.Demote(ctx, path, treePaths, showTitle, "")
	} else {
		res, err = s.svc.Promote(ctx, path, treePaths, showTitle, "")
	}
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		case errors.Is(err, apperr.ErrInvalid):
			return mcp.NewToolResultError("selection does not resolve in the current tree; fetch a fresh toc"), nil
		default:
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchHeadings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.SearchHeadings(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) duplicateHeadings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dups, err := s.svc.DuplicateHeadings(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(dups) == 0 {
		return mcp.NewToolResultText("no duplicate headings found"), nil
	}
	out, _ := json.MarshalIndent(dups, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, _, err := s.svc.ListDocuments(ctx, 1000, 0, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getOutlineContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(OutlineFormatContract), nil
}

func (s *Server) readOutlineFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://outline-format",
			MIMEType: "text/markdown",
			Text:     OutlineFormatContract,
		},
	}, nil
}
