package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/telenote/internal/checksum"
)

// MaxTitleLength bounds Note.Title in characters.
const MaxTitleLength = 500

var notBlank = validation.NewStringRule(func(s string) bool {
	return strings.TrimSpace(s) != ""
}, "cannot be blank")

// Note is a markdown document owned by exactly one user.
type Note struct {
	ID         int64     `json:"id"`
	OwnerID    int64     `json:"owner_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	NoteType   NoteType  `json:"note_type"`
	IsArchived bool      `json:"is_archived"`
	IsDeleted  bool      `json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Checksum identifies the current title, content and type for optimistic concurrency.
func (n *Note) Checksum() string {
	return checksum.Fields(n.Title, n.Content, string(n.NoteType))
}

// NewNote holds the fields needed to create a note.
type NewNote struct {
	OwnerID  int64    `json:"owner_id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	NoteType NoteType `json:"note_type"`
}

// Validate validates the new note. An empty NoteType is rejected; callers
// that want the default should set NoteTypeNote explicitly.
func (n NewNote) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.OwnerID, validation.Required),
		validation.Field(&n.Title, validation.Required, notBlank, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&n.NoteType),
	)
}

// NoteUpdate lists the mutable note fields; nil means unchanged.
// The owner is deliberately absent.
type NoteUpdate struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	NoteType *NoteType `json:"note_type,omitempty"`
}

// Validate validates the update.
func (u NoteUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Title, validation.NilOrNotEmpty, notBlank, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&u.NoteType),
	)
}

// Empty reports whether the update changes nothing.
func (u NoteUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil && u.NoteType == nil
}

// NoteOrder is the sort column of a listing; both sort descending.
type NoteOrder string

// Listing orders.
const (
	OrderUpdated NoteOrder = "updated_at"
	OrderCreated NoteOrder = "created_at"
)

// NoteFilter narrows an owner-scoped listing.
type NoteFilter struct {
	NoteType NoteType
	Deleted  FlagFilter
	Archived FlagFilter
	Tag      string
	OrderBy  NoteOrder
	Limit    int
	Offset   int
}

// Validate validates the filter.
func (f NoteFilter) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.NoteType, validation.Skip.When(f.NoteType == "")),
		validation.Field(&f.OrderBy, validation.In(OrderUpdated, OrderCreated)),
		validation.Field(&f.Limit, validation.Min(0)),
		validation.Field(&f.Offset, validation.Min(0)),
	)
}
