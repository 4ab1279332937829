package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/raido/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents.
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocument)

	// Table of contents snapshots and exports.
	r.Get("/toc/*", h.GetToC)

	// Section operations addressed by tree path. The operation verb comes
	// before the document-path wildcard, which must be trailing in chi.
	r.Route("/sections", func(r chi.Router) {
		r.Post("/navigate/*", h.Navigate)
		r.Post("/select/*", h.Section)
		r.Post("/promote/*", h.Promote)
		r.Post("/demote/*", h.Demote)
	})

	// Outline-wide queries.
	r.Get("/outline/search", h.SearchHeadings)
	r.Get("/outline/duplicates", h.DuplicateHeadings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
