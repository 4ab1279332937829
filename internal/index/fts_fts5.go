//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/raido/internal/outline"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS headings_fts USING fts5(
			doc_path UNINDEXED,
			level UNINDEXED,
			text,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path string, headings []outline.Heading) error {
	_, _ = tx.Exec(`DELETE FROM headings_fts WHERE doc_path = ?`, path)
	if len(headings) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT INTO headings_fts (doc_path, level, text) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare fts insert: %w", err)
	}
	defer stmt.Close()
	for _, h := range headings {
		if _, err := stmt.Exec(path, h.Level, h.Text); err != nil {
			return fmt.Errorf("index: upsert fts: %w", err)
		}
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM headings_fts WHERE doc_path = ?`, path)
}

// SearchHeadings performs an FTS5 search over heading text and returns
// matches with snippets.
func (db *DB) SearchHeadings(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT doc_path,
		       level,
		       text,
		       snippet(headings_fts, 2, '<b>', '</b>', '...', 32)
		FROM headings_fts
		WHERE headings_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
