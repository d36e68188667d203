package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
)

const taskColumns = `t.note_id, t.priority, t.status, t.due_date, t.completed_at`

func scanTaskMeta(s scanner, extra ...any) (*models.TaskMeta, error) {
	var (
		m              models.TaskMeta
		due, completed sql.NullTime
	)
	dest := append([]any{&m.NoteID, &m.Priority, &m.Status, &due, &completed}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	m.DueDate = timePtr(due)
	m.CompletedAt = timePtr(completed)
	return &m, nil
}

// CreateTask attaches task metadata to a task note.
func (db *DB) CreateTask(ctx context.Context, noteID int64, t models.NewTask) (*models.TaskMeta, error) {
	m, err := db.newTaskMeta(noteID, t)
	if err != nil {
		return nil, fmt.Errorf("store: create task: %w", err)
	}

	err = db.inTx(ctx, func(tx *sql.Tx) error {
		var (
			noteType models.NoteType
			deleted  bool
		)
		err := tx.QueryRowContext(ctx, `SELECT note_type, is_deleted FROM notes WHERE id = ?`, noteID).Scan(&noteType, &deleted)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("note %d does not exist: %w", noteID, apperr.ErrReferentialIntegrity)
		}
		if err != nil {
			return err
		}
		if deleted {
			return fmt.Errorf("note %d is deleted: %w", noteID, apperr.ErrReferentialIntegrity)
		}
		if noteType != models.NoteTypeTask {
			return apperr.Validation(fmt.Errorf("note %d is a %s, not a task", noteID, noteType))
		}
		return insertTaskMeta(ctx, tx, m)
	})
	if err != nil {
		return nil, fmt.Errorf("store: create task: %w", err)
	}
	return m, nil
}

// newTaskMeta applies defaults, validates t and stamps completed_at for
// tasks created as completed.
func (db *DB) newTaskMeta(noteID int64, t models.NewTask) (*models.TaskMeta, error) {
	t = t.WithDefaults()
	if err := t.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	m := &models.TaskMeta{NoteID: noteID, Priority: t.Priority, Status: t.Status}
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		m.DueDate = &due
	}
	if t.Status == models.StatusCompleted && db.autoCompleteTimestamp {
		now := db.timestamp()
		m.CompletedAt = &now
	}
	return m, nil
}

func insertTaskMeta(ctx context.Context, q querier, m *models.TaskMeta) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO task_meta (note_id, priority, status, due_date, completed_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.NoteID, m.Priority, m.Status, nullTime(m.DueDate), nullTime(m.CompletedAt))
	if err != nil {
		err = classify(err)
		if errors.Is(err, apperr.ErrConflict) {
			return fmt.Errorf("task metadata for note %d already exists: %w", m.NoteID, apperr.ErrConflict)
		}
		return err
	}
	return nil
}

// GetTask returns the task metadata of a note.
func (db *DB) GetTask(ctx context.Context, noteID int64) (*models.TaskMeta, error) {
	m, err := scanTaskMeta(db.conn.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM task_meta t WHERE t.note_id = ?`, noteID))
	if err != nil {
		return nil, fmt.Errorf("store: get task: %w", notFound(err, "task"))
	}
	return m, nil
}

// UpdateTask applies upd. With automatic completion timestamps, entering
// completed stamps completed_at and leaving it clears the stamp.
func (db *DB) UpdateTask(ctx context.Context, noteID int64, upd models.TaskUpdate) (*models.TaskMeta, error) {
	if err := upd.Validate(); err != nil {
		return nil, fmt.Errorf("store: update task: %w", apperr.Validation(err))
	}

	var out *models.TaskMeta
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		m, err := scanTaskMeta(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM task_meta t WHERE t.note_id = ?`, noteID))
		if err != nil {
			return notFound(err, "task")
		}

		prev := m.Status
		if upd.Priority != nil {
			m.Priority = *upd.Priority
		}
		if upd.Status != nil {
			m.Status = *upd.Status
		}
		switch {
		case upd.ClearDueDate:
			m.DueDate = nil
		case upd.DueDate != nil:
			due := upd.DueDate.UTC()
			m.DueDate = &due
		}

		if db.autoCompleteTimestamp {
			switch {
			case m.Status == models.StatusCompleted && prev != models.StatusCompleted:
				now := db.timestamp()
				m.CompletedAt = &now
			case m.Status != models.StatusCompleted:
				m.CompletedAt = nil
			}
		} else if upd.CompletedAt != nil {
			done := upd.CompletedAt.UTC()
			m.CompletedAt = &done
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE task_meta SET priority = ?, status = ?, due_date = ?, completed_at = ? WHERE note_id = ?
		`, m.Priority, m.Status, nullTime(m.DueDate), nullTime(m.CompletedAt), noteID); err != nil {
			return classify(err)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: update task: %w", err)
	}
	return out, nil
}

const priorityRank = `CASE t.priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END`

// BoardQuery lists tasks by status and/or priority, most urgent first.
// Tasks of deleted notes never appear.
func (db *DB) BoardQuery(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	return db.queryTasks(ctx, "board query", f, priorityRank+`, t.due_date IS NULL, t.due_date, t.note_id`)
}

// DeadlineQuery lists tasks due strictly before f.DueBefore, soonest first.
func (db *DB) DeadlineQuery(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	if f.DueBefore == nil {
		return nil, fmt.Errorf("store: deadline query: due_before is required: %w", apperr.ErrValidation)
	}
	return db.queryTasks(ctx, "deadline query", f, `t.due_date, t.note_id`)
}

// PriorityDueQuery lists tasks of f.Priority due before f.DueBefore, the
// "high priority due soon" view.
func (db *DB) PriorityDueQuery(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	if f.Priority == "" || f.DueBefore == nil {
		return nil, fmt.Errorf("store: priority due query: priority and due_before are required: %w", apperr.ErrValidation)
	}
	return db.queryTasks(ctx, "priority due query", f, `t.due_date, t.note_id`)
}

func (db *DB) queryTasks(ctx context.Context, op string, f models.TaskFilter, order string) ([]models.Task, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("store: %s: %w", op, apperr.Validation(err))
	}

	where := []string{"n.is_deleted = 0"}
	var args []any
	if f.Status != "" {
		where = append(where, "t.status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "t.priority = ?")
		args = append(args, f.Priority)
	}
	if f.DueBefore != nil {
		where = append(where, "t.due_date IS NOT NULL AND t.due_date < ?")
		args = append(args, f.DueBefore.UTC())
	}
	if f.OwnerID > 0 {
		where = append(where, "n.owner_id = ?")
		args = append(args, f.OwnerID)
	}
	limit, offset := pageBounds(f.Limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+taskColumns+`, n.owner_id, n.title
		FROM task_meta t
		JOIN notes n ON n.id = t.note_id
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	defer rows.Close()

	out := []models.Task{}
	for rows.Next() {
		var t models.Task
		m, err := scanTaskMeta(rows, &t.OwnerID, &t.Title)
		if err != nil {
			return nil, fmt.Errorf("store: %s: %w", op, err)
		}
		t.TaskMeta = *m
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	return out, nil
}

// dueSoon is the default horizon of deadline views.
const dueSoon = 7 * 24 * time.Hour

// DueHorizon returns the default due_before cut-off relative to the store clock.
func (db *DB) DueHorizon() time.Time {
	return db.timestamp().Add(dueSoon)
}
