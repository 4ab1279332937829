package index

import (
	"fmt"
	"time"

	"github.com/starford/raido/internal/outline"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path         string
	Title        string
	Checksum     string
	HeadingCount int
	UpdatedAt    time.Time
}

// SearchResult represents one heading search hit.
type SearchResult struct {
	Path    string
	Level   int
	Text    string
	Snippet string
}

// DuplicateHeading is a heading text that occurs more than once in a single
// document. Such headings cannot be told apart when located by text, so
// restructuring always resolves them to the first occurrence.
type DuplicateHeading struct {
	Text  string
	Count int
}

var listSortColumns = map[string]string{
	"path":       "path ASC",
	"title":      "title ASC",
	"updated_at": "updated_at DESC",
}

// UpsertDocument inserts or replaces a document and its heading rows within
// a transaction. HeadingCount is derived from headings, not taken from row.
func (db *DB) UpsertDocument(row DocumentRow, headings []outline.Heading) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, heading_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title         = excluded.title,
			checksum      = excluded.checksum,
			heading_count = excluded.heading_count,
			updated_at    = excluded.updated_at
	`, row.Path, row.Title, row.Checksum, len(headings), row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// Replace heading rows: delete old then bulk insert in document order.
	_, _ = tx.Exec(`DELETE FROM headings WHERE doc_path = ?`, row.Path)
	if len(headings) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO headings (doc_path, seq, level, text) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare heading insert: %w", err)
		}
		defer stmt.Close()
		for i, h := range headings {
			if _, err := stmt.Exec(row.Path, i, h.Level, h.Text); err != nil {
				return fmt.Errorf("index: insert heading: %w", err)
			}
		}
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Path, headings); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its heading rows, and its FTS entries.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM headings WHERE doc_path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if
// not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path to checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListDocuments returns a page of documents plus the total count. sort is
// one of "path", "title", "updated_at"; anything else falls back to "path".
func (db *DB) ListDocuments(limit, offset int, sort string) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	order, ok := listSortColumns[sort]
	if !ok {
		order = listSortColumns["path"]
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, title, checksum, heading_count, updated_at
		FROM documents
		ORDER BY `+order+`
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var r DocumentRow
		if err := rows.Scan(&r.Path, &r.Title, &r.Checksum, &r.HeadingCount, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// HeadingsFor returns the stored heading sequence of one document.
func (db *DB) HeadingsFor(path string) ([]outline.Heading, error) {
	rows, err := db.conn.Query(`SELECT level, text FROM headings WHERE doc_path = ? ORDER BY seq`, path)
	if err != nil {
		return nil, fmt.Errorf("index: headings for %s: %w", path, err)
	}
	defer rows.Close()

	var out []outline.Heading
	for rows.Next() {
		var h outline.Heading
		if err := rows.Scan(&h.Level, &h.Text); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// DuplicateHeadings returns heading texts that occur more than once in the
// given document, in order of first occurrence.
func (db *DB) DuplicateHeadings(path string) ([]DuplicateHeading, error) {
	rows, err := db.conn.Query(`
		SELECT text, count(*) AS n
		FROM headings
		WHERE doc_path = ?
		GROUP BY text
		HAVING n > 1
		ORDER BY min(seq)
	`, path)
	if err != nil {
		return nil, fmt.Errorf("index: duplicate headings: %w", err)
	}
	defer rows.Close()

	var out []DuplicateHeading
	for rows.Next() {
		var d DuplicateHeading
		if err := rows.Scan(&d.Text, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
