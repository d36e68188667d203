package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/telenote/internal/noteservice"
)

// EventStream serves a per-owner event stream. *sse.Broker implements it.
type EventStream interface {
	Stream(w http.ResponseWriter, r *http.Request, ownerID int64)
}

// NewRouter creates a chi router with all API routes mounted.
// resolve decides who the caller is; events, if non-nil, is mounted at
// GET /events behind the same authentication.
func NewRouter(svc *noteservice.Service, resolve IdentityResolver, events EventStream) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(svc, resolve))

	r.Get("/me", h.Me)

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Patch("/", h.UpdateNote)
			r.Delete("/", h.DeleteNote)

			r.Post("/archive", h.ArchiveNote)
			r.Delete("/archive", h.UnarchiveNote)
			r.Post("/restore", h.RestoreNote)

			r.Get("/links", h.ListLinks)
			r.Post("/links", h.CreateLink)
			r.Delete("/links/{target}/{type}", h.DeleteLink)
			r.Get("/graph", h.Neighborhood)

			r.Get("/task", h.GetTask)
			r.Post("/task", h.CreateTask)
			r.Patch("/task", h.UpdateTask)

			r.Get("/tags", h.NoteTags)
			r.Post("/tags", h.TagNote)
			r.Delete("/tags/{tagID}", h.UntagNote)
		})
	})

	r.Get("/graph", h.Graph)
	r.Get("/tags", h.ListTags)
	r.Get("/tasks/board", h.Board)
	r.Get("/tasks/deadlines", h.Deadlines)
	r.Get("/search", h.Search)

	r.Get("/admin/notes", h.AdminListNotes)
	r.Delete("/admin/notes/{id}", h.PurgeNote)

	if events != nil {
		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			events.Stream(w, r, currentUser(r).ID)
		})
	}

	return r
}
