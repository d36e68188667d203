package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/telenote/internal/models"
)

func TestSearch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := mkUser(t, db, 1)
	other := mkUser(t, db, 2)

	kafka, err := db.CreateNote(ctx, models.NewNote{OwnerID: u.ID, Title: "Kafka notes", Content: "partitions and offsets", NoteType: models.NoteTypeNote})
	require.NoError(t, err)
	body, err := db.CreateNote(ctx, models.NewNote{OwnerID: u.ID, Title: "Misc", Content: "consumer offsets explained", NoteType: models.NoteTypeNote})
	require.NoError(t, err)
	tagged := mkNote(t, db, u.ID, "Untitled", models.NoteTypeNote)
	gone, err := db.CreateNote(ctx, models.NewNote{OwnerID: u.ID, Title: "Kafka old", NoteType: models.NoteTypeNote})
	require.NoError(t, err)
	require.NoError(t, db.SoftDeleteNote(ctx, gone.ID))
	_, err = db.CreateNote(ctx, models.NewNote{OwnerID: other.ID, Title: "Kafka elsewhere", NoteType: models.NoteTypeNote})
	require.NoError(t, err)

	tag, err := db.GetOrCreateTag(ctx, "streaming", "")
	require.NoError(t, err)
	require.NoError(t, db.AttachTag(ctx, tagged.ID, tag.ID))

	hits, err := db.Search(ctx, u.ID, "kafka", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, kafka.ID, hits[0].NoteID)

	hits, err = db.Search(ctx, u.ID, "offsets", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{kafka.ID, body.ID}, hitIDs(hits))

	hits, err = db.Search(ctx, u.ID, "streaming", 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{tagged.ID}, hitIDs(hits))

	hits, err = db.Search(ctx, u.ID, "  ", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = db.Search(ctx, u.ID, "offsets", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchFollowsUpdates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := mkUser(t, db, 1)
	n := mkNote(t, db, u.ID, "Before", models.NoteTypeNote)

	_, err := db.UpdateNote(ctx, n.ID, models.NoteUpdate{Title: ptr("Afterwards")}, "")
	require.NoError(t, err)

	hits, err := db.Search(ctx, u.ID, "afterwards", 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{n.ID}, hitIDs(hits))

	hits, err = db.Search(ctx, u.ID, "before", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func hitIDs(hits []models.SearchHit) []int64 {
	out := make([]int64, len(hits))
	for i, h := range hits {
		out[i] = h.NoteID
	}
	return out
}
