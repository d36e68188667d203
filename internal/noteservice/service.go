// Package noteservice is the authorization and orchestration layer over the
// stores: it resolves identities to users, scopes every note operation to
// its owner and publishes change events.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
	"github.com/starford/telenote/internal/store"
)

// Event kinds published by the service.
const (
	EventCreated    = "created"
	EventUpdated    = "updated"
	EventDeleted    = "deleted"
	EventRestored   = "restored"
	EventArchived   = "archived"
	EventUnarchived = "unarchived"
)

// Publisher receives change notifications. *sse.Broker implements it.
type Publisher interface {
	PublishNoteEvent(kind string, noteID, ownerID int64)
	PublishLinkEvent(kind string, ownerID int64, link models.NoteLink)
}

type nopPublisher struct{}

func (nopPublisher) PublishNoteEvent(string, int64, int64)           {}
func (nopPublisher) PublishLinkEvent(string, int64, models.NoteLink) {}

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	models.Note
	Checksum string            `json:"checksum"`
	Tags     []models.Tag      `json:"tags"`
	Task     *models.TaskMeta  `json:"task,omitempty"`
	Outgoing []models.NoteLink `json:"outgoing"`
	Incoming []models.NoteLink `json:"incoming"`
}

// NoteInput is what a caller supplies to create a note. Task is only
// honoured for task notes.
type NoteInput struct {
	Title    string          `json:"title"`
	Content  string          `json:"content"`
	NoteType models.NoteType `json:"note_type"`
	Tags     []string        `json:"tags,omitempty"`
	Task     *models.NewTask `json:"task,omitempty"`
}

const defaultMaxDepth = 3

// Service coordinates the stores on behalf of an acting user.
type Service struct {
	store    store.Store
	events   Publisher
	maxDepth int
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithMaxDepth caps neighbourhood traversals.
func WithMaxDepth(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// NewService creates a new note service.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, events: nopPublisher{}, maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Authenticate resolves an identity to a user, creating it on first sight.
// Deactivated users are refused.
func (s *Service) Authenticate(ctx context.Context, id models.Identity) (*models.User, error) {
	u, err := s.store.GetOrCreateUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("user %d is deactivated: %w", u.ExternalID, apperr.ErrForbidden)
	}
	return u, nil
}

// owned loads a note and hides it unless u owns it.
func (s *Service) owned(ctx context.Context, u *models.User, id int64) (*models.Note, error) {
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.OwnerID != u.ID {
		return nil, fmt.Errorf("note %d: %w", id, apperr.ErrNotFound)
	}
	return n, nil
}

func requireStaff(u *models.User) error {
	if !u.IsStaff {
		return fmt.Errorf("staff only: %w", apperr.ErrForbidden)
	}
	return nil
}

// CreateNote creates a note owned by u, tagging it and attaching task
// metadata when asked to.
func (s *Service) CreateNote(ctx context.Context, u *models.User, in NoteInput) (*NoteDetail, error) {
	if in.NoteType == "" {
		in.NoteType = models.NoteTypeNote
	}
	var task *models.NewTask
	if in.Task != nil && in.NoteType == models.NoteTypeTask {
		t := in.Task.WithDefaults()
		if err := t.Validate(); err != nil {
			return nil, apperr.Validation(err)
		}
		task = &t
	}
	tags := make([]string, 0, len(in.Tags))
	for _, name := range in.Tags {
		name = strings.TrimSpace(name)
		if err := models.ValidateTag(name, ""); err != nil {
			return nil, apperr.Validation(err)
		}
		tags = append(tags, name)
	}

	n, err := s.store.CreateNoteWith(ctx, models.NewNote{
		OwnerID:  u.ID,
		Title:    in.Title,
		Content:  in.Content,
		NoteType: in.NoteType,
	}, tags, task)
	if err != nil {
		return nil, err
	}
	s.events.PublishNoteEvent(EventCreated, n.ID, u.ID)
	return s.detail(ctx, n)
}

// GetNote returns an owned note with its tags, task metadata and edges.
// Soft-deleted notes are returned flagged so they can be restored.
func (s *Service) GetNote(ctx context.Context, u *models.User, id int64) (*NoteDetail, error) {
	n, err := s.owned(ctx, u, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, n)
}

func (s *Service) detail(ctx context.Context, n *models.Note) (*NoteDetail, error) {
	d := &NoteDetail{Note: *n, Checksum: n.Checksum()}
	var err error
	if d.Tags, err = s.store.TagsForNote(ctx, n.ID); err != nil {
		return nil, err
	}
	if d.Outgoing, err = s.store.Outgoing(ctx, n.ID, ""); err != nil {
		return nil, err
	}
	if d.Incoming, err = s.store.Incoming(ctx, n.ID, ""); err != nil {
		return nil, err
	}
	if n.NoteType == models.NoteTypeTask {
		d.Task, err = s.store.GetTask(ctx, n.ID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}
	return d, nil
}

// UpdateNote edits an owned note. ifMatch, when set, must be the checksum
// the caller last saw.
func (s *Service) UpdateNote(ctx context.Context, u *models.User, id int64, upd models.NoteUpdate, ifMatch string) (*NoteDetail, error) {
	n, err := s.owned(ctx, u, id)
	if err != nil {
		return nil, err
	}
	if n.IsDeleted {
		return nil, fmt.Errorf("note %d is deleted: %w", id, apperr.ErrConflict)
	}
	if upd.Empty() {
		return s.detail(ctx, n)
	}
	n, err = s.store.UpdateNote(ctx, id, upd, ifMatch)
	if err != nil {
		return nil, err
	}
	s.events.PublishNoteEvent(EventUpdated, n.ID, u.ID)
	return s.detail(ctx, n)
}

// DeleteNote soft-deletes an owned note.
func (s *Service) DeleteNote(ctx context.Context, u *models.User, id int64) error {
	if _, err := s.owned(ctx, u, id); err != nil {
		return err
	}
	if err := s.store.SoftDeleteNote(ctx, id); err != nil {
		return err
	}
	s.events.PublishNoteEvent(EventDeleted, id, u.ID)
	return nil
}

// RestoreNote undoes a soft delete.
func (s *Service) RestoreNote(ctx context.Context, u *models.User, id int64) error {
	if _, err := s.owned(ctx, u, id); err != nil {
		return err
	}
	if err := s.store.RestoreNote(ctx, id); err != nil {
		return err
	}
	s.events.PublishNoteEvent(EventRestored, id, u.ID)
	return nil
}

// SetArchived archives or unarchives an owned note.
func (s *Service) SetArchived(ctx context.Context, u *models.User, id int64, archived bool) error {
	if _, err := s.owned(ctx, u, id); err != nil {
		return err
	}
	kind := EventArchived
	op := s.store.ArchiveNote
	if !archived {
		kind = EventUnarchived
		op = s.store.UnarchiveNote
	}
	if err := op(ctx, id); err != nil {
		return err
	}
	s.events.PublishNoteEvent(kind, id, u.ID)
	return nil
}

// PurgeNote physically removes any note. Staff only.
func (s *Service) PurgeNote(ctx context.Context, u *models.User, id int64) error {
	if err := requireStaff(u); err != nil {
		return err
	}
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.PurgeNote(ctx, id); err != nil {
		return err
	}
	s.events.PublishNoteEvent(EventDeleted, id, n.OwnerID)
	return nil
}

// ListNotes lists u's notes.
func (s *Service) ListNotes(ctx context.Context, u *models.User, f models.NoteFilter) ([]models.Note, int, error) {
	return s.store.ListNotes(ctx, u.ID, f)
}

// AdminListNotes lists notes across owners, including deleted ones when
// asked. Staff only.
func (s *Service) AdminListNotes(ctx context.Context, u *models.User, f models.NoteFilter) ([]models.Note, int, error) {
	if err := requireStaff(u); err != nil {
		return nil, 0, err
	}
	return s.store.ListAllNotes(ctx, f)
}

// Search searches u's notes.
func (s *Service) Search(ctx context.Context, u *models.User, query string, limit int) ([]models.SearchHit, error) {
	return s.store.Search(ctx, u.ID, query, limit)
}
