package index

import "github.com/starford/raido/internal/outline"

// OutlineIndex defines the interface for document and heading index
// operations.
type OutlineIndex interface {
	UpsertDocument(row DocumentRow, headings []outline.Heading) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListDocuments(limit, offset int, sort string) ([]DocumentRow, int, error)
	HeadingsFor(path string) ([]outline.Heading, error)
	DuplicateHeadings(path string) ([]DuplicateHeading, error)
	SearchHeadings(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies OutlineIndex at compile time.
var _ OutlineIndex = (*DB)(nil)
