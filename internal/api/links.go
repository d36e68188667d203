package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/telenote/internal/models"
)

// ListLinks handles GET /api/notes/{id}/links?direction=outgoing|incoming&type=.
//
//	@Summary		Edges of a note
//	@Tags			links
//	@Produce		json
//	@Param			id			path		int		true	"Note id"
//	@Param			direction	query		string	false	"Direction"	Enums(outgoing, incoming)
//	@Param			type		query		string	false	"Link type"	Enums(reference, parent, child, related)
//	@Success		200			{object}	LinkListResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/links [get]
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	links, err := h.svc.Links(r.Context(), currentUser(r), id,
		models.Direction(q.Get("direction")), models.LinkType(q.Get("type")))
	if err != nil {
		writeError(w, "list links", err)
		return
	}
	writeJSON(w, http.StatusOK, LinkListResponse{Links: links})
}

// CreateLink handles POST /api/notes/{id}/links.
//
//	@Summary		Link the note to another note
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int			true	"Source note id"
//	@Param			body	body		LinkRequest	true	"Target and type"
//	@Success		201		{object}	models.NoteLink
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/links [post]
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req LinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	link, err := h.svc.Link(r.Context(), currentUser(r), id, req.TargetNoteID, req.LinkType)
	if err != nil {
		writeError(w, "create link", err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

// DeleteLink handles DELETE /api/notes/{id}/links/{target}/{type}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	target, ok := idParam(w, r, "target")
	if !ok {
		return
	}
	t := models.LinkType(chi.URLParam(r, "type"))
	if err := h.svc.Unlink(r.Context(), currentUser(r), id, target, t); err != nil {
		writeError(w, "delete link", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Neighborhood handles GET /api/notes/{id}/graph?depth=&type=.
func (h *Handler) Neighborhood(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	depth, err := intQuery(r, "depth")
	if err != nil {
		writeError(w, "neighborhood", err)
		return
	}
	g, err := h.svc.Neighborhood(r.Context(), currentUser(r), id, depth, models.LinkType(r.URL.Query().Get("type")))
	if err != nil {
		writeError(w, "neighborhood", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the caller's knowledge graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
