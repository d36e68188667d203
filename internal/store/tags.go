package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
)

func scanTags(rows *sql.Rows) ([]models.Tag, error) {
	defer rows.Close()
	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.CreatedAt = t.CreatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetOrCreateTag returns the tag called name, creating it with color when
// absent. An existing tag keeps its color. The insert is conflict-tolerant
// on the unique name index, so concurrent callers all observe one row;
// duplicate in-process calls share a single round trip.
func (db *DB) GetOrCreateTag(ctx context.Context, name, color string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if err := models.ValidateTag(name, color); err != nil {
		return nil, fmt.Errorf("store: get or create tag: %w", apperr.Validation(err))
	}
	if color == "" {
		color = models.DefaultTagColor
	}

	v, err, _ := db.tagCreate.Do(name, func() (any, error) {
		// Runs on behalf of every merged caller.
		return upsertTag(context.WithoutCancel(ctx), db.conn, name, color, db.timestamp())
	})
	if err != nil {
		return nil, fmt.Errorf("store: get or create tag: %w", err)
	}
	t := *v.(*models.Tag)
	return &t, nil
}

func upsertTag(ctx context.Context, q querier, name, color string, now time.Time) (*models.Tag, error) {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO tags (name, color, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, color, now); err != nil {
		return nil, classify(err)
	}
	return tagByName(ctx, q, name)
}

// tagNames trims, validates and de-duplicates tag names, keeping their order.
func tagNames(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if err := models.ValidateTag(name, ""); err != nil {
			return nil, apperr.Validation(err)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

func tagByName(ctx context.Context, q querier, name string) (*models.Tag, error) {
	var t models.Tag
	err := q.QueryRowContext(ctx, `SELECT id, name, color, created_at FROM tags WHERE name = ?`, name).
		Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err, "tag")
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// GetTag looks a tag up by name.
func (db *DB) GetTag(ctx context.Context, name string) (*models.Tag, error) {
	t, err := tagByName(ctx, db.conn, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("store: get tag: %w", err)
	}
	return t, nil
}

// AttachTag associates a tag with a note. Attaching twice is a no-op.
func (db *DB) AttachTag(ctx context.Context, noteID, tagID int64) error {
	if err := attachTag(ctx, db.conn, noteID, tagID, db.timestamp()); err != nil {
		return fmt.Errorf("store: attach tag: %w", err)
	}
	return nil
}

func attachTag(ctx context.Context, q querier, noteID, tagID int64, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO note_tags (note_id, tag_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(note_id, tag_id) DO NOTHING
	`, noteID, tagID, now)
	if err != nil {
		return classify(err)
	}
	return nil
}

// DetachTag removes the association; ErrNotFound when it did not exist.
func (db *DB) DetachTag(ctx context.Context, noteID, tagID int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ? AND tag_id = ?`, noteID, tagID)
	if err != nil {
		return fmt.Errorf("store: detach tag: %w", err)
	}
	if err := expectOne(res, "tag association"); err != nil {
		return fmt.Errorf("store: detach tag: %w", err)
	}
	return nil
}

// TagsForNote returns a note's tags ordered by name.
func (db *DB) TagsForNote(ctx context.Context, noteID int64) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.created_at
		FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id = ?
		ORDER BY t.name
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("store: tags for note: %w", err)
	}
	tags, err := scanTags(rows)
	if err != nil {
		return nil, fmt.Errorf("store: tags for note: %w", err)
	}
	return tags, nil
}

// ListTags returns every tag ordered by name.
func (db *DB) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, color, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list tags: %w", err)
	}
	tags, err := scanTags(rows)
	if err != nil {
		return nil, fmt.Errorf("store: list tags: %w", err)
	}
	return tags, nil
}
