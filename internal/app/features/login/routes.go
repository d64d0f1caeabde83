// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns the /auth router: login, check-session and logout.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Get("/check-session", h.CheckSession)
	r.Post("/logout", h.Logout)
	return r
}
