package api

import (
	"github.com/starford/telenote/internal/models"
	"github.com/starford/telenote/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest = noteservice.NoteInput

// UpdateNoteRequest is the request body for PATCH /notes/{id}; omitted fields stay unchanged.
type UpdateNoteRequest = models.NoteUpdate

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchHit `json:"results" validate:"required"`
}

// LinkRequest is the request body for creating a link from the path note.
type LinkRequest struct {
	TargetNoteID int64           `json:"target_note_id" example:"42" validate:"required"`
	LinkType     models.LinkType `json:"link_type" example:"reference"`
}

// LinkListResponse wraps edges of a note.
type LinkListResponse struct {
	Links []models.NoteLink `json:"links" validate:"required"`
}

// GraphResponse wraps a graph or neighbourhood.
type GraphResponse = models.Graph

// TagRequest is the request body for tagging a note.
type TagRequest struct {
	Name  string `json:"name" example:"work" validate:"required"`
	Color string `json:"color,omitempty" example:"#808080"`
}

// TagListResponse wraps tags.
type TagListResponse struct {
	Tags []models.Tag `json:"tags" validate:"required"`
}

// TaskListResponse wraps board and deadline views.
type TaskListResponse struct {
	Tasks []models.Task `json:"tasks" validate:"required"`
}
