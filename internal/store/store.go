package store

import (
	"context"
	"time"

	"github.com/starford/telenote/internal/models"
)

// UserStore resolves messaging-platform identities to users.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, id models.Identity) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID int64) (*models.User, error)
	SetUserActive(ctx context.Context, id int64, active bool) error
}

// NoteStore persists notes.
type NoteStore interface {
	CreateNote(ctx context.Context, n models.NewNote) (*models.Note, error)
	CreateNoteWith(ctx context.Context, n models.NewNote, tags []string, task *models.NewTask) (*models.Note, error)
	GetNote(ctx context.Context, id int64) (*models.Note, error)
	UpdateNote(ctx context.Context, id int64, upd models.NoteUpdate, ifMatch string) (*models.Note, error)
	SoftDeleteNote(ctx context.Context, id int64) error
	RestoreNote(ctx context.Context, id int64) error
	PurgeNote(ctx context.Context, id int64) error
	ArchiveNote(ctx context.Context, id int64) error
	UnarchiveNote(ctx context.Context, id int64) error
	ListNotes(ctx context.Context, ownerID int64, f models.NoteFilter) ([]models.Note, int, error)
	ListAllNotes(ctx context.Context, f models.NoteFilter) ([]models.Note, int, error)
	ListNotesByType(ctx context.Context, t models.NoteType, limit, offset int) ([]models.Note, int, error)
	ListNotesByFlags(ctx context.Context, archived, deleted bool, limit, offset int) ([]models.Note, int, error)
	Search(ctx context.Context, ownerID int64, query string, limit int) ([]models.SearchHit, error)
}

// LinkStore persists the typed edges between notes.
type LinkStore interface {
	Link(ctx context.Context, source, target int64, t models.LinkType) (*models.NoteLink, error)
	Unlink(ctx context.Context, source, target int64, t models.LinkType) error
	Outgoing(ctx context.Context, noteID int64, t models.LinkType) ([]models.NoteLink, error)
	Incoming(ctx context.Context, noteID int64, t models.LinkType) ([]models.NoteLink, error)
	Direct(ctx context.Context, source, target int64) ([]models.NoteLink, error)
	Graph(ctx context.Context, ownerID int64) (*models.Graph, error)
}

// TaskStore persists task metadata.
type TaskStore interface {
	CreateTask(ctx context.Context, noteID int64, t models.NewTask) (*models.TaskMeta, error)
	GetTask(ctx context.Context, noteID int64) (*models.TaskMeta, error)
	UpdateTask(ctx context.Context, noteID int64, upd models.TaskUpdate) (*models.TaskMeta, error)
	BoardQuery(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	DeadlineQuery(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	PriorityDueQuery(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	DueHorizon() time.Time
}

// TagStore persists tags and their note associations.
type TagStore interface {
	GetOrCreateTag(ctx context.Context, name, color string) (*models.Tag, error)
	GetTag(ctx context.Context, name string) (*models.Tag, error)
	AttachTag(ctx context.Context, noteID, tagID int64) error
	DetachTag(ctx context.Context, noteID, tagID int64) error
	TagsForNote(ctx context.Context, noteID int64) ([]models.Tag, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
}

// Store is everything the note service needs. Consumers should depend on it
// rather than on *DB.
type Store interface {
	UserStore
	NoteStore
	LinkStore
	TaskStore
	TagStore
	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*DB)(nil)
