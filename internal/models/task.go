package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TaskMeta extends a task note with workflow state. NoteID is both its
// primary key and the owning note's id.
type TaskMeta struct {
	NoteID      int64      `json:"note_id"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewTask holds the fields for creating task metadata. Empty enums take
// their defaults (medium, todo).
type NewTask struct {
	Priority Priority   `json:"priority"`
	Status   TaskStatus `json:"status"`
	DueDate  *time.Time `json:"due_date,omitempty"`
}

// WithDefaults fills empty enums.
func (t NewTask) WithDefaults() NewTask {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	return t
}

// Validate validates the task after defaults are applied.
func (t NewTask) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Priority),
		validation.Field(&t.Status),
	)
}

// TaskUpdate lists mutable task fields; nil means unchanged.
// ClearDueDate removes the due date. CompletedAt is honoured only when
// completion timestamps are caller-managed.
type TaskUpdate struct {
	Priority     *Priority   `json:"priority,omitempty"`
	Status       *TaskStatus `json:"status,omitempty"`
	DueDate      *time.Time  `json:"due_date,omitempty"`
	ClearDueDate bool        `json:"clear_due_date,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// Validate validates the update.
func (u TaskUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Priority),
		validation.Field(&u.Status),
		validation.Field(&u.DueDate, validation.When(u.ClearDueDate, validation.Nil.Error("cannot be set together with clear_due_date"))),
	)
}

// TaskFilter selects task metadata for board and deadline views.
// Zero fields are unconstrained; OwnerID 0 means all owners.
type TaskFilter struct {
	OwnerID   int64
	Status    TaskStatus
	Priority  Priority
	DueBefore *time.Time
	Limit     int
	Offset    int
}

// Validate validates the filter.
func (f TaskFilter) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Status, validation.Skip.When(f.Status == "")),
		validation.Field(&f.Priority, validation.Skip.When(f.Priority == "")),
		validation.Field(&f.Limit, validation.Min(0)),
		validation.Field(&f.Offset, validation.Min(0)),
	)
}

// Task is task metadata joined with the identifying fields of its note,
// as returned by board and deadline queries.
type Task struct {
	TaskMeta
	OwnerID int64  `json:"owner_id"`
	Title   string `json:"title"`
}
