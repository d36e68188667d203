package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
)

const linkColumns = `l.id, l.source_note_id, l.target_note_id, l.link_type, l.created_at`

func scanLinks(rows *sql.Rows) ([]models.NoteLink, error) {
	defer rows.Close()
	out := []models.NoteLink{}
	for rows.Next() {
		var l models.NoteLink
		if err := rows.Scan(&l.ID, &l.SourceNoteID, &l.TargetNoteID, &l.LinkType, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.CreatedAt = l.CreatedAt.UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}

// requireLive reports ErrReferentialIntegrity unless the note exists and is not soft-deleted.
func requireLive(ctx context.Context, tx *sql.Tx, id int64) error {
	var deleted bool
	err := tx.QueryRowContext(ctx, `SELECT is_deleted FROM notes WHERE id = ?`, id).Scan(&deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("note %d does not exist: %w", id, apperr.ErrReferentialIntegrity)
	}
	if err != nil {
		return err
	}
	if deleted {
		return fmt.Errorf("note %d is deleted: %w", id, apperr.ErrReferentialIntegrity)
	}
	return nil
}

// Link creates the edge source -> target of type t.
func (db *DB) Link(ctx context.Context, source, target int64, t models.LinkType) (*models.NoteLink, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("store: link: %w", apperr.Validation(fmt.Errorf("link_type: %w", err)))
	}
	if source == target && !db.allowSelfLinks {
		return nil, fmt.Errorf("store: link: %w", apperr.Validation(errors.New("a note cannot link to itself")))
	}

	link := &models.NoteLink{SourceNoteID: source, TargetNoteID: target, LinkType: t, CreatedAt: db.timestamp()}
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireLive(ctx, tx, source); err != nil {
			return err
		}
		if err := requireLive(ctx, tx, target); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO note_links (source_note_id, target_note_id, link_type, created_at)
			VALUES (?, ?, ?, ?)
		`, source, target, t, link.CreatedAt)
		if err != nil {
			err = classify(err)
			if errors.Is(err, apperr.ErrConflict) {
				return fmt.Errorf("%d -> %d (%s): %w", source, target, t, apperr.ErrDuplicateLink)
			}
			return err
		}
		link.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store: link: %w", err)
	}
	return link, nil
}

// Unlink removes exactly one edge.
func (db *DB) Unlink(ctx context.Context, source, target int64, t models.LinkType) error {
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM note_links WHERE source_note_id = ? AND target_note_id = ? AND link_type = ?
	`, source, target, t)
	if err != nil {
		return fmt.Errorf("store: unlink: %w", err)
	}
	if err := expectOne(res, "link"); err != nil {
		return fmt.Errorf("store: unlink: %w", err)
	}
	return nil
}

// Outgoing returns the edges leaving noteID, optionally of one type.
func (db *DB) Outgoing(ctx context.Context, noteID int64, t models.LinkType) ([]models.NoteLink, error) {
	return db.edges(ctx, "outgoing links", "l.source_note_id", noteID, t)
}

// Incoming returns the edges arriving at noteID (backlinks), optionally of one type.
func (db *DB) Incoming(ctx context.Context, noteID int64, t models.LinkType) ([]models.NoteLink, error) {
	return db.edges(ctx, "incoming links", "l.target_note_id", noteID, t)
}

func (db *DB) edges(ctx context.Context, op, column string, noteID int64, t models.LinkType) ([]models.NoteLink, error) {
	q := `SELECT ` + linkColumns + ` FROM note_links l WHERE ` + column + ` = ?`
	args := []any{noteID}
	if t != "" {
		q += ` AND l.link_type = ?`
		args = append(args, t)
	}
	rows, err := db.conn.QueryContext(ctx, q+` ORDER BY l.created_at, l.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	links, err := scanLinks(rows)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	return links, nil
}

// Direct returns every edge from source to target, one per link type.
func (db *DB) Direct(ctx context.Context, source, target int64) ([]models.NoteLink, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+linkColumns+` FROM note_links l
		WHERE l.source_note_id = ? AND l.target_note_id = ?
		ORDER BY l.created_at, l.id
	`, source, target)
	if err != nil {
		return nil, fmt.Errorf("store: direct links: %w", err)
	}
	links, err := scanLinks(rows)
	if err != nil {
		return nil, fmt.Errorf("store: direct links: %w", err)
	}
	return links, nil
}

// Graph returns an owner's non-deleted notes and the edges among them.
func (db *DB) Graph(ctx context.Context, ownerID int64) (*models.Graph, error) {
	g := &models.Graph{Nodes: []models.GraphNode{}}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, note_type FROM notes
		WHERE owner_id = ? AND is_deleted = 0
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: graph nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n models.GraphNode
		if err := rows.Scan(&n.ID, &n.Title, &n.NoteType); err != nil {
			return nil, fmt.Errorf("store: scan graph node: %w", err)
		}
		g.Nodes = append(g.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: graph nodes: %w", err)
	}

	linkRows, err := db.conn.QueryContext(ctx, `
		SELECT `+linkColumns+` FROM note_links l
		JOIN notes s ON s.id = l.source_note_id
		JOIN notes t ON t.id = l.target_note_id
		WHERE s.owner_id = ? AND s.is_deleted = 0
		  AND t.owner_id = ? AND t.is_deleted = 0
		ORDER BY l.id
	`, ownerID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: graph links: %w", err)
	}
	g.Links, err = scanLinks(linkRows)
	if err != nil {
		return nil, fmt.Errorf("store: graph links: %w", err)
	}
	return g, nil
}
