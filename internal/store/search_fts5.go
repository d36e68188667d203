//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const ftsSchemaSQL = `
CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
	title,
	content,
	content = 'notes',
	content_rowid = 'id',
	tokenize = 'unicode61 remove_diacritics 2'
);

CREATE TRIGGER IF NOT EXISTS notes_fts_ai AFTER INSERT ON notes BEGIN
	INSERT INTO notes_fts (rowid, title, content) VALUES (new.id, new.title, new.content);
END;

CREATE TRIGGER IF NOT EXISTS notes_fts_ad AFTER DELETE ON notes BEGIN
	INSERT INTO notes_fts (notes_fts, rowid, title, content) VALUES ('delete', old.id, old.title, old.content);
END;

CREATE TRIGGER IF NOT EXISTS notes_fts_au AFTER UPDATE OF title, content ON notes BEGIN
	INSERT INTO notes_fts (notes_fts, rowid, title, content) VALUES ('delete', old.id, old.title, old.content);
	INSERT INTO notes_fts (rowid, title, content) VALUES (new.id, new.title, new.content);
END;
`

func initFTS(conn *sql.DB) error {
	var exists int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'notes_fts'`).Scan(&exists); err != nil {
		return err
	}
	if _, err := conn.Exec(ftsSchemaSQL); err != nil {
		return err
	}
	if exists == 0 {
		// Index notes written before the table existed.
		if _, err := conn.Exec(`INSERT INTO notes_fts (notes_fts) VALUES ('rebuild')`); err != nil {
			return fmt.Errorf("rebuild fts: %w", err)
		}
	}
	return nil
}

// ftsQuery quotes every term so user input cannot inject FTS5 syntax.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

func (db *DB) searchRows(ctx context.Context, ownerID int64, query string, limit int) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, `
		SELECT n.id, n.title, n.note_type,
		       COALESCE((SELECT snippet(notes_fts, 1, '<b>', '</b>', '...', 32)
		                 FROM notes_fts WHERE notes_fts MATCH ? AND notes_fts.rowid = n.id),
		                substr(n.content, 1, 200))
		FROM notes n
		WHERE n.owner_id = ? AND n.is_deleted = 0
		  AND (n.id IN (SELECT rowid FROM notes_fts WHERE notes_fts MATCH ?) OR `+tagMatchSQL+`)
		ORDER BY n.updated_at DESC, n.id DESC
		LIMIT ?
	`, ftsQuery(query), ownerID, ftsQuery(query), query, limit)
}
