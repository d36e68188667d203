package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
	"github.com/starford/telenote/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Me handles GET /api/me.
//
//	@Summary		Current user
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	models.User
//	@Security		BearerAuth
//	@Router			/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func noteFilter(r *http.Request) (models.NoteFilter, error) {
	q := r.URL.Query()
	f := models.NoteFilter{
		NoteType: models.NoteType(q.Get("type")),
		Tag:      q.Get("tag"),
		OrderBy:  models.NoteOrder(q.Get("order")),
	}
	var err error
	if f.Deleted, err = models.ParseFlagFilter(q.Get("deleted")); err != nil {
		return f, apperr.Validation(fmt.Errorf("deleted: %w", err))
	}
	if f.Archived, err = models.ParseFlagFilter(q.Get("archived")); err != nil {
		return f, apperr.Validation(fmt.Errorf("archived: %w", err))
	}
	if f.Limit, err = intQuery(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intQuery(r, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List the caller's notes with optional pagination and filtering
//	@Tags			notes
//	@Produce		json
//	@Param			type		query		string	false	"Note type"	Enums(note, task, project)
//	@Param			deleted		query		string	false	"Deleted filter"	Enums(exclude, only, any)
//	@Param			archived	query		string	false	"Archived filter"	Enums(exclude, only, any)
//	@Param			tag			query		string	false	"Filter by tag"
//	@Param			order		query		string	false	"Sort field"	Enums(updated_at, created_at)
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	NoteListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	f, err := noteFilter(r)
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	notes, total, err := h.svc.ListNotes(r.Context(), currentUser(r), f)
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: total})
}

// AdminListNotes handles GET /api/admin/notes. Staff only.
func (h *Handler) AdminListNotes(w http.ResponseWriter, r *http.Request) {
	f, err := noteFilter(r)
	if err != nil {
		writeError(w, "admin list notes", err)
		return
	}
	notes, total, err := h.svc.AdminListNotes(r.Context(), currentUser(r), f)
	if err != nil {
		writeError(w, "admin list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: total})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note with tags, task metadata and links
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	note, err := h.svc.GetNote(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.CreateNote(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PATCH /api/notes/{id}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		int					true	"Note id"
//	@Param			If-Match	header		string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		UpdateNoteRequest	true	"Fields to change"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [patch]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, err := h.svc.UpdateNote(r.Context(), currentUser(r), id, req, ifMatch)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id} (soft delete).
//
//	@Summary		Move a note to the trash
//	@Tags			notes
//	@Param			id	path	int	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	h.noteAction(w, r, "delete note", h.svc.DeleteNote)
}

// RestoreNote handles POST /api/notes/{id}/restore.
func (h *Handler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	h.noteAction(w, r, "restore note", h.svc.RestoreNote)
}

// ArchiveNote handles POST /api/notes/{id}/archive.
func (h *Handler) ArchiveNote(w http.ResponseWriter, r *http.Request) {
	h.noteAction(w, r, "archive note", func(ctx context.Context, u *models.User, id int64) error {
		return h.svc.SetArchived(ctx, u, id, true)
	})
}

// UnarchiveNote handles DELETE /api/notes/{id}/archive.
func (h *Handler) UnarchiveNote(w http.ResponseWriter, r *http.Request) {
	h.noteAction(w, r, "unarchive note", func(ctx context.Context, u *models.User, id int64) error {
		return h.svc.SetArchived(ctx, u, id, false)
	})
}

// PurgeNote handles DELETE /api/admin/notes/{id}. Staff only.
func (h *Handler) PurgeNote(w http.ResponseWriter, r *http.Request) {
	h.noteAction(w, r, "purge note", h.svc.PurgeNote)
}

func (h *Handler) noteAction(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, *models.User, int64) error) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := fn(r.Context(), currentUser(r), id); err != nil {
		writeError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Search the caller's notes by title, content or tag
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, "search", err)
		return
	}
	results, err := h.svc.Search(r.Context(), currentUser(r), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
