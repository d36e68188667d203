//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not compiled in; Search falls back to LIKE over notes.
	return nil
}

func (db *DB) searchRows(ctx context.Context, ownerID int64, query string, limit int) (*sql.Rows, error) {
	like := likePattern(query)
	return db.conn.QueryContext(ctx, `
		SELECT n.id, n.title, n.note_type, substr(n.content, 1, 200)
		FROM notes n
		WHERE n.owner_id = ? AND n.is_deleted = 0
		  AND (n.title LIKE ? ESCAPE '\' OR n.content LIKE ? ESCAPE '\' OR `+tagMatchSQL+`)
		ORDER BY n.updated_at DESC, n.id DESC
		LIMIT ?
	`, ownerID, like, like, query, limit)
}
