package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
)

func TestLinkAndDuplicate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := mkUser(t, db, 1)
	a := mkNote(t, db, u.ID, "A", models.NoteTypeNote)
	b := mkNote(t, db, u.ID, "B", models.NoteTypeNote)

	l, err := db.Link(ctx, a.ID, b.ID, models.LinkReference)
	require.NoError(t, err)
	assert.NotZero(t, l.ID)
	assert.Equal(t, a.ID, l.SourceNoteID)
	assert.Equal(t, b.ID, l.TargetNoteID)

	_, err = db.Link(ctx, a.ID, b.ID, models.LinkReference)
	require.ErrorIs(t, err, apperr.ErrDuplicateLink)
	require.ErrorIs(t, err, apperr.ErrConflict)

	// Parallel edges of a different type and the reverse edge are distinct.
	_, err = db.Link(ctx, a.ID, b.ID, models.LinkParent)
	require.NoError(t, err)
	_, err = db.Link(ctx, b.ID, a.ID, models.LinkReference)
	require.NoError(t, err)

	direct, err := db.Direct(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Len(t, direct, 2)
}

func TestLinkConcurrentDuplicate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := mkUser(t, db, 1)
	a := mkNote(t, db, u.ID, "A", models.NoteTypeNote)
	b := mkNote(t, db, u.ID, "B", models.NoteTypeNote)

	errs := make([]error, 8)
	var g errgroup.Group
	for i := range errs {
		g.Go(func() error {
			_, errs[i] = db.Link(ctx, a.ID, b.ID, models.LinkRelated)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, apperr.ErrDuplicateLink)
	}
	assert.Equal(t, 1, ok)
}

func TestLinkValidation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := mkUser(t, db, 1)
	a := mkNote(t, db, u.ID, "A", models.NoteTypeNote)
	b := mkNote(t, db, u.ID, "B", models.NoteTypeNote)

	_, err := db.Link(ctx, a.ID, b.ID, "cites")
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = db.Link(ctx, a.ID, b.ID, "")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLinkEndpointIntegrity(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := mkUser(t, db, 1)
	a := mkNote(t, db, u.ID, "A", models.NoteTypeNote)
	b := mkNote(t, db, u.ID, "B", models.NoteTypeNote)

	_, err := db.Link(ctx, a.ID, 9999, models.LinkReference)
	require.ErrorIs(t, err, apperr.ErrReferentialIntegrity)
	_, err = db.Link(ctx, 9999, a.ID, models.LinkReference)
	require.ErrorIs(t, err, apperr.ErrReferentialIntegrity)

	require.NoError(t, db.SoftDeleteNote(ctx, b.ID))
	_, err = db.Link(ctx, a.ID, b.ID, models.LinkReference)
	require.ErrorIs(t, err, apperr.ErrReferentialIntegrity)
}

func TestSelfLinks(t *testing.T) {
	ctx := context.Background()

	db := testDB(t)
	u := mkUser(t, db, 1)
	a := mkNote(t, db, u.ID, "A", models.NoteTypeNote)
	_, err := db.Link(ctx, a.ID, a.ID, models.LinkRelated)
	require.NoError(t, err)

	strict := testDB(t, WithSelfLinks(false))
	u = mkUser(t, strict, 1)
	a = mkNote(t, strict, u.ID, "A", models.NoteTypeNote)
	_, err = strict.Link(ctx, a.ID, a.ID, models.LinkRelated)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUnlink(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := mkUser(t, db, 1)
	a := mkNote(t, db, u.ID, "A", models.NoteTypeNote)
	b := mkNote(t, db, u.ID, "B", models.NoteTypeNote)
	_, err := db.Link(ctx, a.ID, b.ID, models.LinkReference)
	require.NoError(t, err)
	_, err = db.Link(ctx, a.ID, b.ID, models.LinkChild)
	require.NoError(t, err)

	require.NoError(t, db.Unlink(ctx, a.ID, b.ID, models.LinkReference))
	require.ErrorIs(t, db.Unlink(ctx, a.ID, b.ID, models.LinkReference), apperr.ErrNotFound)

	rest, err := db.Direct(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, models.LinkChild, rest[0].LinkType)
}

func TestOutgoingIncoming(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := mkUser(t, db, 1)
	hub := mkNote(t, db, u.ID, "hub", models.NoteTypeProject)
	x := mkNote(t, db, u.ID, "x", models.NoteTypeNote)
	y := mkNote(t, db, u.ID, "y", models.NoteTypeNote)

	_, err := db.Link(ctx, hub.ID, x.ID, models.LinkChild)
	require.NoError(t, err)
	_, err = db.Link(ctx, hub.ID, y.ID, models.LinkReference)
	require.NoError(t, err)
	_, err = db.Link(ctx, x.ID, hub.ID, models.LinkParent)
	require.NoError(t, err)

	out, err := db.Outgoing(ctx, hub.ID, "")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, x.ID, out[0].TargetNoteID, "ordered by creation")

	children, err := db.Outgoing(ctx, hub.ID, models.LinkChild)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, x.ID, children[0].TargetNoteID)

	in, err := db.Incoming(ctx, hub.ID, "")
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, x.ID, in[0].SourceNoteID)

	in, err = db.Incoming(ctx, y.ID, models.LinkChild)
	require.NoError(t, err)
	assert.Empty(t, in)
}

func TestGraph(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := mkUser(t, db, 1)
	other := mkUser(t, db, 2)
	a := mkNote(t, db, u.ID, "a", models.NoteTypeNote)
	b := mkNote(t, db, u.ID, "b", models.NoteTypeNote)
	c := mkNote(t, db, u.ID, "c", models.NoteTypeNote)
	mkNote(t, db, other.ID, "foreign", models.NoteTypeNote)

	ab, err := db.Link(ctx, a.ID, b.ID, models.LinkReference)
	require.NoError(t, err)
	_, err = db.Link(ctx, b.ID, c.ID, models.LinkReference)
	require.NoError(t, err)
	require.NoError(t, db.SoftDeleteNote(ctx, c.ID))

	g, err := db.Graph(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Links, 1)
	assert.Equal(t, ab.ID, g.Links[0].ID)
}

func TestEdgeDirectionConsistency(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := mkUser(t, db, 1)

	ids := make([]int64, 5)
	for i := range ids {
		ids[i] = mkNote(t, db, u.ID, "n", models.NoteTypeNote).ID
	}
	types := []models.LinkType{models.LinkReference, models.LinkParent, models.LinkChild, models.LinkRelated}
	for i, src := range ids {
		for j, dst := range ids {
			if (i+j)%2 == 0 {
				continue
			}
			_, err := db.Link(ctx, src, dst, types[(i*3+j)%len(types)])
			require.NoError(t, err)
		}
	}

	var edges []models.NoteLink
	for _, id := range ids {
		out, err := db.Outgoing(ctx, id, "")
		require.NoError(t, err)
		edges = append(edges, out...)
	}
	require.NotEmpty(t, edges)

	for _, e := range edges {
		out, err := db.Outgoing(ctx, e.SourceNoteID, e.LinkType)
		require.NoError(t, err)
		assert.Contains(t, targetsOf(out), e.TargetNoteID)

		in, err := db.Incoming(ctx, e.TargetNoteID, e.LinkType)
		require.NoError(t, err)
		assert.Contains(t, sourcesOf(in), e.SourceNoteID)

		direct, err := db.Direct(ctx, e.SourceNoteID, e.TargetNoteID)
		require.NoError(t, err)
		assert.Contains(t, direct, e)
	}
}

func targetsOf(links []models.NoteLink) []int64 {
	out := make([]int64, len(links))
	for i, l := range links {
		out[i] = l.TargetNoteID
	}
	return out
}

func sourcesOf(links []models.NoteLink) []int64 {
	out := make([]int64, len(links))
	for i, l := range links {
		out[i] = l.SourceNoteID
	}
	return out
}
