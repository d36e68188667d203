package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/telenote/internal/models"
)

const defaultSearchLimit = 20

// Search finds an owner's non-deleted notes whose title or content matches
// query, or that carry a tag named exactly query.
func (db *DB) Search(ctx context.Context, ownerID int64, query string, limit int) ([]models.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchHit{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit, _ = pageBounds(limit, 0)

	rows, err := db.searchRows(ctx, ownerID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	out := []models.SearchHit{}
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(&h.NoteID, &h.Title, &h.NoteType, &h.Snippet); err != nil {
			return nil, fmt.Errorf("store: scan search hit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

const tagMatchSQL = `EXISTS (
	SELECT 1 FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
	WHERE nt.note_id = n.id AND t.name = ?)`

// likePattern escapes LIKE wildcards for use with ESCAPE '\'.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
