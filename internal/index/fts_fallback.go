//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/raido/internal/outline"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; heading search uses a LIKE fallback on the
	// headings table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ string, _ []outline.Heading) error {
	// Headings are already stored in the headings table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// SearchHeadings performs a LIKE-based heading search (fallback when FTS5
// is not compiled in).
func (db *DB) SearchHeadings(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT doc_path, level, text, text
		FROM headings
		WHERE text LIKE ?
		ORDER BY doc_path, seq
		LIMIT ?
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search headings: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Level, &r.Text, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
