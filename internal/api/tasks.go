package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
)

// GetTask handles GET /api/notes/{id}/task.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	m, err := h.svc.GetTask(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// CreateTask handles POST /api/notes/{id}/task.
//
//	@Summary		Attach task metadata to a task note
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Note id"
//	@Param			body	body		models.NewTask	true	"Priority, status, due date"
//	@Success		201		{object}	models.TaskMeta
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/task [post]
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req models.NewTask
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.CreateTask(r.Context(), currentUser(r), id, req)
	if err != nil {
		writeError(w, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// UpdateTask handles PATCH /api/notes/{id}/task.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req models.TaskUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.UpdateTask(r.Context(), currentUser(r), id, req)
	if err != nil {
		writeError(w, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func taskFilter(r *http.Request) (models.TaskFilter, error) {
	q := r.URL.Query()
	f := models.TaskFilter{
		Status:   models.TaskStatus(q.Get("status")),
		Priority: models.Priority(q.Get("priority")),
	}
	if v := q.Get("due_before"); v != "" {
		due, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, apperr.Validation(fmt.Errorf("due_before must be RFC 3339: %w", err))
		}
		f.DueBefore = &due
	}
	var err error
	if f.Limit, err = intQuery(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intQuery(r, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

// Board handles GET /api/tasks/board?status=&priority=.
//
//	@Summary		Task board of the caller
//	@Tags			tasks
//	@Produce		json
//	@Param			status		query		string	false	"Status"	Enums(todo, in_progress, blocked, completed, cancelled)
//	@Param			priority	query		string	false	"Priority"	Enums(low, medium, high, urgent)
//	@Success		200			{object}	TaskListResponse
//	@Security		BearerAuth
//	@Router			/tasks/board [get]
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	f, err := taskFilter(r)
	if err != nil {
		writeError(w, "task board", err)
		return
	}
	tasks, err := h.svc.Board(r.Context(), currentUser(r), f)
	if err != nil {
		writeError(w, "task board", err)
		return
	}
	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// Deadlines handles GET /api/tasks/deadlines?due_before=&status=&priority=.
func (h *Handler) Deadlines(w http.ResponseWriter, r *http.Request) {
	f, err := taskFilter(r)
	if err != nil {
		writeError(w, "task deadlines", err)
		return
	}
	tasks, err := h.svc.Deadlines(r.Context(), currentUser(r), f)
	if err != nil {
		writeError(w, "task deadlines", err)
		return
	}
	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// NoteTags handles GET /api/notes/{id}/tags.
func (h *Handler) NoteTags(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	tags, err := h.svc.NoteTags(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, "note tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// TagNote handles POST /api/notes/{id}/tags.
func (h *Handler) TagNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tag, err := h.svc.TagNote(r.Context(), currentUser(r), id, req.Name, req.Color)
	if err != nil {
		writeError(w, "tag note", err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// UntagNote handles DELETE /api/notes/{id}/tags/{tagID}.
func (h *Handler) UntagNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	tagID, ok := idParam(w, r, "tagID")
	if !ok {
		return
	}
	if err := h.svc.UntagNote(r.Context(), currentUser(r), id, tagID); err != nil {
		writeError(w, "untag note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}
