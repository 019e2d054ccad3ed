// internal/app/features/profile/routes.go
package profile

import "github.com/go-chi/chi/v5"

// Routes returns the profile subrouter, mounted under /api/profile behind
// the session gate.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeProfile)
	r.Patch("/", h.HandleUpdate)
	r.Get("/preferences", h.ServePreferences)
	r.Put("/preferences", h.HandleSetPreferences)
	r.Get("/logins", h.ServeLogins)
	return r
}
