package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
)

const noteColumns = `n.id, n.owner_id, n.title, n.content, n.note_type, n.is_archived, n.is_deleted, n.created_at, n.updated_at`

func scanNote(s scanner) (*models.Note, error) {
	var n models.Note
	err := s.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.NoteType, &n.IsArchived, &n.IsDeleted,
		&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return &n, nil
}

func scanNotes(rows *sql.Rows) ([]models.Note, error) {
	defer rows.Close()
	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// CreateNote inserts a note owned by n.OwnerID. The title is trimmed.
func (db *DB) CreateNote(ctx context.Context, n models.NewNote) (*models.Note, error) {
	n.Title = strings.TrimSpace(n.Title)
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("store: create note: %w", apperr.Validation(err))
	}
	note, err := db.insertNote(ctx, db.conn, n)
	if err != nil {
		return nil, fmt.Errorf("store: create note: %w", err)
	}
	return note, nil
}

// CreateNoteWith inserts a note together with its tags (created on demand)
// and, for task notes, its task metadata. Nothing is stored unless every
// part succeeds.
func (db *DB) CreateNoteWith(ctx context.Context, n models.NewNote, tags []string, task *models.NewTask) (*models.Note, error) {
	n.Title = strings.TrimSpace(n.Title)
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("store: create note: %w", apperr.Validation(err))
	}
	names, err := tagNames(tags)
	if err != nil {
		return nil, fmt.Errorf("store: create note: %w", err)
	}
	var meta *models.TaskMeta
	if task != nil {
		if n.NoteType != models.NoteTypeTask {
			return nil, fmt.Errorf("store: create note: %w",
				apperr.Validation(fmt.Errorf("a %s note cannot carry task metadata", n.NoteType)))
		}
		if meta, err = db.newTaskMeta(0, *task); err != nil {
			return nil, fmt.Errorf("store: create note: %w", err)
		}
	}

	var out *models.Note
	err = db.inTx(ctx, func(tx *sql.Tx) error {
		note, err := db.insertNote(ctx, tx, n)
		if err != nil {
			return err
		}
		for _, name := range names {
			tag, err := upsertTag(ctx, tx, name, models.DefaultTagColor, note.CreatedAt)
			if err != nil {
				return err
			}
			if err := attachTag(ctx, tx, note.ID, tag.ID, note.CreatedAt); err != nil {
				return err
			}
		}
		if meta != nil {
			meta.NoteID = note.ID
			if err := insertTaskMeta(ctx, tx, meta); err != nil {
				return err
			}
		}
		out = note
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: create note: %w", err)
	}
	return out, nil
}

func (db *DB) insertNote(ctx context.Context, q querier, n models.NewNote) (*models.Note, error) {
	now := db.timestamp()
	res, err := q.ExecContext(ctx, `
		INSERT INTO notes (owner_id, title, content, note_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.OwnerID, n.Title, n.Content, n.NoteType, now, now)
	if err != nil {
		return nil, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Note{
		ID:        id,
		OwnerID:   n.OwnerID,
		Title:     n.Title,
		Content:   n.Content,
		NoteType:  n.NoteType,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetNote returns a note regardless of its deleted/archived flags.
func (db *DB) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	n, err := scanNote(db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes n WHERE n.id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("store: get note: %w", notFound(err, "note"))
	}
	return n, nil
}

func getNoteTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Note, error) {
	n, err := scanNote(tx.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes n WHERE n.id = ?`, id))
	if err != nil {
		return nil, notFound(err, "note")
	}
	return n, nil
}

// UpdateNote applies upd to a note and bumps updated_at. When ifMatch is
// non-empty it must equal the stored note's checksum. Changing the type away
// from task drops the note's task metadata.
func (db *DB) UpdateNote(ctx context.Context, id int64, upd models.NoteUpdate, ifMatch string) (*models.Note, error) {
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		upd.Title = &title
	}
	if err := upd.Validate(); err != nil {
		return nil, fmt.Errorf("store: update note: %w", apperr.Validation(err))
	}

	var out *models.Note
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		n, err := getNoteTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if ifMatch != "" && ifMatch != n.Checksum() {
			return fmt.Errorf("checksum mismatch: %w", apperr.ErrConflict)
		}

		wasTask := n.NoteType == models.NoteTypeTask
		if upd.Title != nil {
			n.Title = *upd.Title
		}
		if upd.Content != nil {
			n.Content = *upd.Content
		}
		if upd.NoteType != nil {
			n.NoteType = *upd.NoteType
		}
		n.UpdatedAt = db.timestamp()

		if _, err := tx.ExecContext(ctx, `
			UPDATE notes SET title = ?, content = ?, note_type = ?, updated_at = ? WHERE id = ?
		`, n.Title, n.Content, n.NoteType, n.UpdatedAt, n.ID); err != nil {
			return classify(err)
		}
		if wasTask && n.NoteType != models.NoteTypeTask {
			if _, err := tx.ExecContext(ctx, `DELETE FROM task_meta WHERE note_id = ?`, n.ID); err != nil {
				return err
			}
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: update note: %w", err)
	}
	return out, nil
}

// SoftDeleteNote flags a note as deleted. Links and tag associations stay;
// task metadata is removed in the same transaction.
func (db *DB) SoftDeleteNote(ctx context.Context, id int64) error {
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE notes SET is_deleted = 1, updated_at = ? WHERE id = ?`, db.timestamp(), id)
		if err != nil {
			return err
		}
		if err := expectOne(res, "note"); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM task_meta WHERE note_id = ?`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: soft delete note: %w", err)
	}
	return nil
}

// RestoreNote clears the deleted flag.
func (db *DB) RestoreNote(ctx context.Context, id int64) error {
	return db.setNoteFlag(ctx, "restore note", id, "is_deleted", false)
}

// ArchiveNote sets the archived flag; it is independent of the deleted flag.
func (db *DB) ArchiveNote(ctx context.Context, id int64) error {
	return db.setNoteFlag(ctx, "archive note", id, "is_archived", true)
}

// UnarchiveNote clears the archived flag.
func (db *DB) UnarchiveNote(ctx context.Context, id int64) error {
	return db.setNoteFlag(ctx, "unarchive note", id, "is_archived", false)
}

// column is one of the fixed flag names above, never user input.
func (db *DB) setNoteFlag(ctx context.Context, op string, id int64, column string, value bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE notes SET `+column+` = ?, updated_at = ? WHERE id = ?`, value, db.timestamp(), id)
	if err != nil {
		return fmt.Errorf("store: %s: %w", op, err)
	}
	if err := expectOne(res, "note"); err != nil {
		return fmt.Errorf("store: %s: %w", op, err)
	}
	return nil
}

// PurgeNote physically removes a note. Foreign keys cascade to its links,
// tag associations and task metadata. Administrative use only.
func (db *DB) PurgeNote(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: purge note: %w", err)
	}
	if err := expectOne(res, "note"); err != nil {
		return fmt.Errorf("store: purge note: %w", err)
	}
	return nil
}

// ListNotes returns one owner's notes matching f plus the total match count.
// Deleted and archived notes are excluded unless f asks for them.
func (db *DB) ListNotes(ctx context.Context, ownerID int64, f models.NoteFilter) ([]models.Note, int, error) {
	if ownerID <= 0 {
		return nil, 0, fmt.Errorf("store: list notes: owner is required: %w", apperr.ErrValidation)
	}
	return db.listNotes(ctx, ownerID, f)
}

// ListAllNotes is the cross-owner variant of ListNotes for administrative views.
func (db *DB) ListAllNotes(ctx context.Context, f models.NoteFilter) ([]models.Note, int, error) {
	return db.listNotes(ctx, 0, f)
}

// ListNotesByType returns notes of every owner with the given type, newest
// first, whatever their flags.
func (db *DB) ListNotesByType(ctx context.Context, t models.NoteType, limit, offset int) ([]models.Note, int, error) {
	return db.listNotes(ctx, 0, models.NoteFilter{
		NoteType: t,
		Deleted:  models.FlagAny,
		Archived: models.FlagAny,
		OrderBy:  models.OrderCreated,
		Limit:    limit,
		Offset:   offset,
	})
}

// ListNotesByFlags returns notes of every owner whose archived and deleted
// flags equal the given values, newest first.
func (db *DB) ListNotesByFlags(ctx context.Context, archived, deleted bool, limit, offset int) ([]models.Note, int, error) {
	return db.listNotes(ctx, 0, models.NoteFilter{
		Deleted:  flagOf(deleted),
		Archived: flagOf(archived),
		OrderBy:  models.OrderCreated,
		Limit:    limit,
		Offset:   offset,
	})
}

func flagOf(set bool) models.FlagFilter {
	if set {
		return models.FlagOnly
	}
	return models.FlagExclude
}

func (db *DB) listNotes(ctx context.Context, ownerID int64, f models.NoteFilter) ([]models.Note, int, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, fmt.Errorf("store: list notes: %w", apperr.Validation(err))
	}

	var (
		where []string
		args  []any
	)
	if ownerID > 0 {
		where = append(where, "n.owner_id = ?")
		args = append(args, ownerID)
	}
	if f.NoteType != "" {
		where = append(where, "n.note_type = ?")
		args = append(args, f.NoteType)
	}
	where = appendFlag(where, "n.is_deleted", f.Deleted)
	where = appendFlag(where, "n.is_archived", f.Archived)
	if f.Tag != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
			WHERE nt.note_id = n.id AND t.name = ?)`)
		args = append(args, f.Tag)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes n`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count notes: %w", err)
	}

	order := "n.updated_at DESC, n.id DESC"
	if f.OrderBy == models.OrderCreated {
		order = "n.created_at DESC, n.id DESC"
	}
	limit, offset := pageBounds(f.Limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes n`+clause+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list notes: %w", err)
	}
	notes, err := scanNotes(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list notes: %w", err)
	}
	return notes, total, nil
}

func appendFlag(where []string, column string, f models.FlagFilter) []string {
	switch f {
	case models.FlagExclude:
		return append(where, column+" = 0")
	case models.FlagOnly:
		return append(where, column+" = 1")
	}
	return where
}
