package noteservice

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
	"github.com/starford/telenote/internal/store"
	"github.com/starford/telenote/internal/testutil"
)

type recordedEvent struct {
	kind    string
	noteID  int64
	ownerID int64
	link    bool
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) PublishNoteEvent(kind string, noteID, ownerID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: kind, noteID: noteID, ownerID: ownerID})
}

func (r *recorder) PublishLinkEvent(kind string, ownerID int64, l models.NoteLink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: kind, noteID: l.SourceNoteID, ownerID: ownerID, link: true})
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.kind
		if e.link {
			out[i] = "link." + e.kind
		}
	}
	return out
}

func newTestService(t *testing.T, opts ...store.Option) (*Service, *store.DB, *recorder) {
	t.Helper()
	db := testutil.TestStore(t, opts...)
	rec := &recorder{}
	return NewService(db, WithPublisher(rec), WithMaxDepth(2)), db, rec
}

func login(t *testing.T, svc *Service, externalID int64) *models.User {
	t.Helper()
	u, err := svc.Authenticate(context.Background(), models.Identity{ExternalID: externalID, Username: "u"})
	require.NoError(t, err)
	return u
}

func create(t *testing.T, svc *Service, u *models.User, title string, nt models.NoteType) *NoteDetail {
	t.Helper()
	d, err := svc.CreateNote(context.Background(), u, NoteInput{Title: title, NoteType: nt})
	require.NoError(t, err)
	return d
}

func TestAuthenticate(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	u := login(t, svc, 10)
	again := login(t, svc, 10)
	assert.Equal(t, u.ID, again.ID)

	require.NoError(t, db.SetUserActive(ctx, u.ID, false))
	_, err := svc.Authenticate(ctx, models.Identity{ExternalID: 10})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Authenticate(ctx, models.Identity{})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateNoteWithTagsAndTask(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()
	u := login(t, svc, 1)

	d, err := svc.CreateNote(ctx, u, NoteInput{
		Title:    "Release",
		Content:  "cut the tag",
		NoteType: models.NoteTypeTask,
		Tags:     []string{"work", "release"},
		Task:     &models.NewTask{Priority: models.PriorityHigh},
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, d.OwnerID)
	assert.Equal(t, d.Note.Checksum(), d.Checksum)
	require.Len(t, d.Tags, 2)
	assert.Equal(t, "release", d.Tags[0].Name)
	require.NotNil(t, d.Task)
	assert.Equal(t, models.PriorityHigh, d.Task.Priority)
	assert.Equal(t, models.StatusTodo, d.Task.Status)
	assert.Equal(t, []string{EventCreated}, rec.kinds())

	plain, err := svc.CreateNote(ctx, u, NoteInput{Title: "Defaults"})
	require.NoError(t, err)
	assert.Equal(t, models.NoteTypeNote, plain.NoteType)
	assert.Nil(t, plain.Task)

	_, err = svc.CreateNote(ctx, u, NoteInput{Title: "bad tag", Tags: []string{""}})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestFailedCreateLeavesNoNote(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()
	u := login(t, svc, 1)

	_, err := svc.CreateNote(ctx, u, NoteInput{Title: "Orphan", Tags: []string{"ok", "   "}})
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.CreateNote(ctx, u, NoteInput{Title: "   "})
	require.ErrorIs(t, err, apperr.ErrValidation)

	notes, total, err := svc.ListNotes(ctx, u, models.NoteFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, notes)
	assert.Empty(t, rec.kinds())
	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestCreateNoteTrimsTags(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := login(t, svc, 1)

	d, err := svc.CreateNote(context.Background(), u, NoteInput{Title: "Купить хлеб", Tags: []string{" дом ", "дом"}})
	require.NoError(t, err)
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "дом", d.Tags[0].Name)
}

func TestOwnershipIsolation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	alice := login(t, svc, 1)
	bob := login(t, svc, 2)
	n := create(t, svc, alice, "private", models.NoteTypeNote)

	_, err := svc.GetNote(ctx, bob, n.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.UpdateNote(ctx, bob, n.ID, models.NoteUpdate{Title: ptr("mine")}, "")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.ErrorIs(t, svc.DeleteNote(ctx, bob, n.ID), apperr.ErrNotFound)
	require.ErrorIs(t, svc.SetArchived(ctx, bob, n.ID, true), apperr.ErrNotFound)
	_, err = svc.TagNote(ctx, bob, n.ID, "x", "")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	bobs := create(t, svc, bob, "bob's", models.NoteTypeNote)
	_, err = svc.Link(ctx, bob, bobs.ID, n.ID, models.LinkReference)
	require.ErrorIs(t, err, apperr.ErrReferentialIntegrity)
	_, err = svc.Link(ctx, bob, n.ID, bobs.ID, models.LinkReference)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	notes, total, err := svc.ListNotes(ctx, bob, models.NoteFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, bobs.ID, notes[0].ID)

	hits, err := svc.Search(ctx, bob, "private", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestUpdateNote(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()
	u := login(t, svc, 1)
	n := create(t, svc, u, "draft", models.NoteTypeNote)

	d, err := svc.UpdateNote(ctx, u, n.ID, models.NoteUpdate{Content: ptr("v2")}, n.Checksum)
	require.NoError(t, err)
	assert.Equal(t, "v2", d.Content)
	assert.NotEqual(t, n.Checksum, d.Checksum)

	_, err = svc.UpdateNote(ctx, u, n.ID, models.NoteUpdate{Content: ptr("v3")}, n.Checksum)
	require.ErrorIs(t, err, apperr.ErrConflict)

	same, err := svc.UpdateNote(ctx, u, n.ID, models.NoteUpdate{}, "")
	require.NoError(t, err)
	assert.Equal(t, d.UpdatedAt, same.UpdatedAt)

	require.NoError(t, svc.DeleteNote(ctx, u, n.ID))
	_, err = svc.UpdateNote(ctx, u, n.ID, models.NoteUpdate{Content: ptr("v4")}, "")
	require.ErrorIs(t, err, apperr.ErrConflict)

	assert.Equal(t, []string{EventCreated, EventUpdated, EventDeleted}, rec.kinds())
}

func TestDeleteRestoreArchive(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()
	u := login(t, svc, 1)
	n := create(t, svc, u, "n", models.NoteTypeNote)

	require.NoError(t, svc.DeleteNote(ctx, u, n.ID))
	_, total, err := svc.ListNotes(ctx, u, models.NoteFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	trash, _, err := svc.ListNotes(ctx, u, models.NoteFilter{Deleted: models.FlagOnly})
	require.NoError(t, err)
	require.Len(t, trash, 1)

	require.NoError(t, svc.RestoreNote(ctx, u, n.ID))
	require.NoError(t, svc.SetArchived(ctx, u, n.ID, true))
	d, err := svc.GetNote(ctx, u, n.ID)
	require.NoError(t, err)
	assert.True(t, d.IsArchived)
	require.NoError(t, svc.SetArchived(ctx, u, n.ID, false))

	assert.Equal(t, []string{EventCreated, EventDeleted, EventRestored, EventArchived, EventUnarchived}, rec.kinds())
}

func TestStaffOnlyOperations(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	u := login(t, svc, 1)
	n := create(t, svc, u, "n", models.NoteTypeNote)

	require.ErrorIs(t, svc.PurgeNote(ctx, u, n.ID), apperr.ErrForbidden)
	_, _, err := svc.AdminListNotes(ctx, u, models.NoteFilter{})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	staff := &models.User{ID: u.ID + 100, IsStaff: true, IsActive: true}
	notes, total, err := svc.AdminListNotes(ctx, staff, models.NoteFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, n.ID, notes[0].ID)

	require.NoError(t, svc.PurgeNote(ctx, staff, n.ID))
	_, err = db.GetNote(ctx, n.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTagsThroughService(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	u := login(t, svc, 1)
	n := create(t, svc, u, "n", models.NoteTypeNote)

	tag, err := svc.TagNote(ctx, u, n.ID, "go", "#00ADD8")
	require.NoError(t, err)
	_, err = svc.TagNote(ctx, u, n.ID, "go", "")
	require.NoError(t, err)

	tags, err := svc.NoteTags(ctx, u, n.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "#00ADD8", tags[0].Color)

	all, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.UntagNote(ctx, u, n.ID, tag.ID))
	require.ErrorIs(t, svc.UntagNote(ctx, u, n.ID, tag.ID), apperr.ErrNotFound)
}

func ptr[T any](v T) *T { return &v }
