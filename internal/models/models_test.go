package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumValidation(t *testing.T) {
	for _, nt := range []NoteType{NoteTypeNote, NoteTypeTask, NoteTypeProject} {
		assert.NoError(t, nt.Validate(), nt)
	}
	assert.Error(t, NoteType("journal").Validate())
	assert.Error(t, NoteType("").Validate())

	for _, lt := range []LinkType{LinkReference, LinkParent, LinkChild, LinkRelated} {
		assert.NoError(t, lt.Validate(), lt)
	}
	assert.Error(t, LinkType("sibling").Validate())

	assert.NoError(t, PriorityUrgent.Validate())
	assert.Error(t, Priority("critical").Validate())
	assert.NoError(t, StatusInProgress.Validate())
	assert.Error(t, TaskStatus("done").Validate())
}

func TestNewNoteValidate(t *testing.T) {
	ok := NewNote{OwnerID: 1, Title: "Ship release", NoteType: NoteTypeTask}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.NoteType = "memo"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Title = ""
	assert.Error(t, bad.Validate())
}

func TestNoteUpdateValidate(t *testing.T) {
	empty := ""
	assert.Error(t, NoteUpdate{Title: &empty}.Validate())

	nt := NoteType("bogus")
	assert.Error(t, NoteUpdate{NoteType: &nt}.Validate())

	title := "New"
	u := NoteUpdate{Title: &title}
	assert.NoError(t, u.Validate())
	assert.False(t, u.Empty())
	assert.True(t, NoteUpdate{}.Empty())
}

func TestNoteFilterValidate(t *testing.T) {
	assert.NoError(t, NoteFilter{}.Validate())
	assert.NoError(t, NoteFilter{NoteType: NoteTypeProject, OrderBy: OrderCreated}.Validate())
	assert.Error(t, NoteFilter{NoteType: "x"}.Validate())
	assert.Error(t, NoteFilter{OrderBy: "title"}.Validate())
	assert.Error(t, NoteFilter{Limit: -1}.Validate())
}

func TestParseFlagFilter(t *testing.T) {
	cases := map[string]FlagFilter{"": FlagExclude, "exclude": FlagExclude, "only": FlagOnly, "any": FlagAny, "all": FlagAny}
	for in, want := range cases {
		got, err := ParseFlagFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFlagFilter("sometimes")
	assert.Error(t, err)
}

func TestTaskValidation(t *testing.T) {
	nt := NewTask{}.WithDefaults()
	assert.Equal(t, PriorityMedium, nt.Priority)
	assert.Equal(t, StatusTodo, nt.Status)
	require.NoError(t, nt.Validate())

	assert.Error(t, NewTask{Priority: "p0", Status: StatusTodo}.Validate())

	due := time.Now()
	assert.Error(t, TaskUpdate{DueDate: &due, ClearDueDate: true}.Validate())
	assert.NoError(t, TaskUpdate{ClearDueDate: true}.Validate())

	assert.NoError(t, TaskFilter{}.Validate())
	assert.Error(t, TaskFilter{Status: "later"}.Validate())
}

func TestValidateTag(t *testing.T) {
	assert.NoError(t, ValidateTag("urgent", ""))
	assert.NoError(t, ValidateTag("urgent", "#3776ab"))
	assert.Error(t, ValidateTag("", "#3776ab"))
	assert.Error(t, ValidateTag("urgent", "blue"))
}

func TestNoteChecksumTracksTitleContentAndType(t *testing.T) {
	a := Note{Title: "A", Content: "body", NoteType: NoteTypeNote}
	b := a
	assert.Equal(t, a.Checksum(), b.Checksum())
	b.Title = "B"
	assert.NotEqual(t, a.Checksum(), b.Checksum())
	b = a
	b.NoteType = NoteTypeTask
	assert.NotEqual(t, a.Checksum(), b.Checksum())
}

func TestDisplayName(t *testing.T) {
	u := User{ExternalID: 123456789}
	assert.Equal(t, "123456789", u.DisplayName())
	u.Username = "testuser"
	assert.Equal(t, "testuser", u.DisplayName())
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	title := strings.Repeat("д", MaxTitleLength)
	assert.NoError(t, NewNote{OwnerID: 1, Title: title, NoteType: NoteTypeNote}.Validate())
	assert.NoError(t, NoteUpdate{Title: &title}.Validate())
	assert.Error(t, NewNote{OwnerID: 1, Title: title + "д", NoteType: NoteTypeNote}.Validate())

	assert.NoError(t, ValidateTag(strings.Repeat("я", MaxTagNameLength), ""))
	assert.Error(t, ValidateTag(strings.Repeat("я", MaxTagNameLength+1), ""))

	assert.NoError(t, Identity{ExternalID: 1, FirstName: strings.Repeat("ж", 200)}.Validate())
}

func TestBlankTitlesAndTagsRejected(t *testing.T) {
	blank := "   "
	assert.Error(t, NewNote{OwnerID: 1, Title: blank, NoteType: NoteTypeNote}.Validate())
	assert.Error(t, NoteUpdate{Title: &blank}.Validate())
	assert.Error(t, ValidateTag("\t ", ""))
}
