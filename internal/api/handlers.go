package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/docservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. guides%2Fsetup.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// resolveShowTitle applies the service default when a request leaves the
// title policy unset.
func (h *Handler) resolveShowTitle(v *bool) bool {
	if v != nil {
		return *v
	}
	return h.svc.DefaultShowTitle()
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List indexed documents with pagination
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			sort	query		string	false	"Sort field"	Enums(path, title, updated_at)
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	sort := q.Get("sort")

	items, total, err := h.svc.ListDocuments(r.Context(), limit, offset, sort)
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": items,
		"total":     total,
	})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a single document by path
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Param			render	query		string	false	"Set to html for a rendered body"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	renderHTML := r.URL.Query().Get("render") == "html"

	doc, err := h.svc.GetDocument(r.Context(), path, renderHTML)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get document failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("ETag", checksum.ETag(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// GetToC handles GET /api/toc/*.
//
//	@Summary		Get a document's table of contents
//	@Tags			toc
//	@Produce		json
//	@Param			path		path		string	true	"Document path"
//	@Param			show_title	query		bool	false	"Show a lone level-1 title as an outline node"
//	@Param			format		query		string	false	"Export format"	Enums(markdown, json)
//	@Success		200			{object}	ToC
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/toc/{path} [get]
func (h *Handler) GetToC(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	q := r.URL.Query()
	showTitle := h.svc.DefaultShowTitle()
	if v := q.Get("show_title"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			showTitle = parsed
		}
	}

	if format := q.Get("format"); format != "" {
		out, contentType, err := h.svc.ExportToC(r.Context(), path, format, showTitle)
		if err != nil {
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				writeJSON(w, http.StatusNotFound, errorBody("not found"))
			case errors.Is(err, apperr.ErrInvalid):
				writeJSON(w, http.StatusBadRequest, errorBody("unknown format"))
			default:
				slog.Error("export toc failed", slog.String("path", path), slog.String("error", err.Error()))
				writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			}
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
		return
	}

	t, err := h.svc.GetToC(r.Context(), path, showTitle)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get toc failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("ETag", checksum.ETag(t.Checksum))
	writeJSON(w, http.StatusOK, t)
}

// Navigate handles POST /api/sections/navigate/*.
//
//	@Summary		Resolve a tree path to its heading's document line
//	@Tags			sections
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Document path"
//	@Param			body	body		NavigateRequest	true	"Tree path to resolve"
//	@Success		200		{object}	NavigateResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sections/navigate/{path} [post]
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Path) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("path selection is required"))
		return
	}

	line, err := h.svc.Navigate(r.Context(), path, req.Path, h.resolveShowTitle(req.ShowTitle))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("heading not found"))
		} else {
			slog.Error("navigate failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, NavigateResponse{Line: line})
}

// Section handles POST /api/sections/select/*.
//
//	@Summary		Select a heading's section span and Markdown slice
//	@Tags			sections
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Document path"
//	@Param			body	body		NavigateRequest	true	"Tree path to select"
//	@Success		200		{object}	Section
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sections/select/{path} [post]
func (h *Handler) Section(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Path) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("path selection is required"))
		return
	}

	sec, err := h.svc.Section(r.Context(), path, req.Path, h.resolveShowTitle(req.ShowTitle))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("section not found"))
		} else {
			slog.Error("select section failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, sec)
}

// Promote handles POST /api/sections/promote/*.
//
//	@Summary		Promote selected headings and their subtrees one level out
//	@Tags			sections
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string				true	"Document path"
//	@Param			If-Match	header		string				false	"Document checksum for optimistic concurrency"
//	@Param			body		body		RestructureRequest	true	"Tree paths to promote"
//	@Success		200			{object}	RestructureResult
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sections/promote/{path} [post]
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	h.restructure(w, r, false)
}

// Demote handles POST /api/sections/demote/*.
//
//	@Summary		Demote selected headings and their subtrees one level in
//	@Tags			sections
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string				true	"Document path"
//	@Param			If-Match	header		string				false	"Document checksum for optimistic concurrency"
//	@Param			body		body		RestructureRequest	true	"Tree paths to demote"
//	@Success		200			{object}	RestructureResult
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sections/demote/{path} [post]
func (h *Handler) Demote(w http.ResponseWriter, r *http.Request) {
	h.restructure(w, r, true)
}

func (h *Handler) restructure(w http.ResponseWriter, r *http.Request, demote bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req RestructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ifMatch := checksum.Unquote(r.Header.Get("If-Match"))
	showTitle := h.resolveShowTitle(req.ShowTitle)

	var res *RestructureResult
	var err error
	if demote {
		res, err = h.svc.Demote(r.Context(), path, req.Paths, showTitle, ifMatch)
	} else {
		res, err = h.svc.Promote(r.Context(), path, req.Paths, showTitle, ifMatch)
	}
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		case errors.Is(err, apperr.ErrInvalid):
			writeJSON(w, http.StatusUnprocessableEntity, errorBody("selection does not resolve"))
		default:
			slog.Error("restructure failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("ETag", checksum.ETag(res.Checksum))
	writeJSON(w, http.StatusOK, res)
}

// SearchHeadings handles GET /api/outline/search.
//
//	@Summary		Search heading text across the vault
//	@Tags			outline
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/outline/search [get]
func (h *Handler) SearchHeadings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.SearchHeadings(r.Context(), q, limit)
	if err != nil {
		slog.Error("heading search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	results := make([]SearchResult, len(hits))
	for i, s := range hits {
		results[i] = SearchResult{Path: s.Path, Level: s.Level, Text: s.Text, Snippet: s.Snippet}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// DuplicateHeadings handles GET /api/outline/duplicates.
//
//	@Summary		List heading texts occurring more than once in a document
//	@Tags			outline
//	@Produce		json
//	@Param			path	query		string	true	"Document path"
//	@Success		200		{object}	DuplicatesResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/outline/duplicates [get]
func (h *Handler) DuplicateHeadings(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	dups, err := h.svc.DuplicateHeadings(r.Context(), path)
	if err != nil {
		slog.Error("duplicate headings failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	out := make([]DuplicateHeading, len(dups))
	for i, d := range dups {
		out[i] = DuplicateHeading{Text: d.Text, Count: d.Count}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document":   path,
		"duplicates": out,
	})
}
