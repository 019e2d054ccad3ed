// internal/app/features/comments/routes.go
package comments

import (
	"github.com/go-chi/chi/v5"

	"github.com/tewell/reelhub/internal/app/system/gate"
)

// Routes returns the comments subrouter, mounted under
// /api/movies/{movieID}/comments. Reads are public; the write sits behind
// the session gate.
func Routes(h *Handler, g *gate.Gate) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeAll)
	r.Get("/mine", h.ServeOwn)
	r.Group(func(pr chi.Router) {
		pr.Use(g.RequireSession)
		pr.Post("/", h.HandleAdd)
	})
	return r
}
