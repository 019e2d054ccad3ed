// internal/app/features/sessionstate/routes.go
package sessionstate

import "github.com/go-chi/chi/v5"

// Routes returns the session-state subrouter, mounted under /api/session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
