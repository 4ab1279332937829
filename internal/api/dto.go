package api

import (
	"time"

	"github.com/starford/raido/internal/docservice"
)

// NavigateRequest selects one outline node by tree path.
type NavigateRequest struct {
	Path      []int `json:"path" example:"0,2" validate:"required"`
	ShowTitle *bool `json:"show_title,omitempty"`
}

// RestructureRequest selects outline nodes for a promote or demote batch.
type RestructureRequest struct {
	Paths     [][]int `json:"paths" validate:"required"`
	ShowTitle *bool   `json:"show_title,omitempty"`
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = docservice.DocumentDetail

// DocumentListItem is a lightweight item in a list response (aliased from the domain layer).
type DocumentListItem = docservice.DocumentListItem

// ToC is a table of contents snapshot (aliased from the domain layer).
type ToC = docservice.ToC

// Section is a heading's document slice (aliased from the domain layer).
type Section = docservice.Section

// RestructureResult is the outcome of a promote/demote (aliased from the domain layer).
type RestructureResult = docservice.RestructureResult

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// NavigateResponse carries the resolved document line of a heading.
type NavigateResponse struct {
	Line int `json:"line" example:"12" validate:"required"`
}

// SearchResult is a single heading search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"guides/setup.md" validate:"required"`
	Level   int    `json:"level" example:"2" validate:"required"`
	Text    string `json:"text" example:"Install dependencies" validate:"required"`
	Snippet string `json:"snippet" example:"Install <b>dependencies</b>"`
}

// SearchResponse wraps heading search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// DuplicateHeading is a heading text occurring more than once in a document.
type DuplicateHeading struct {
	Text  string `json:"text" example:"Notes" validate:"required"`
	Count int    `json:"count" example:"2" validate:"required"`
}

// DuplicatesResponse wraps the duplicate heading diagnostic for one document.
type DuplicatesResponse struct {
	Document   string             `json:"document" example:"guides/setup.md" validate:"required"`
	Duplicates []DuplicateHeading `json:"duplicates" validate:"required"`
}

// DocumentListItemDTO mirrors DocumentListItem for swag.
type DocumentListItemDTO struct {
	Path         string    `json:"path" example:"guides/setup.md"`
	Title        string    `json:"title" example:"Setup"`
	Checksum     string    `json:"checksum" example:"abc123..."`
	HeadingCount int       `json:"heading_count" example:"7"`
	UpdatedAt    time.Time `json:"updated_at"`
}
