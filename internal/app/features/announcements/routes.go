// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the announcements router. Listing is public; creating,
// updating and deleting go through the auth gate.
func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)

	r.Group(func(pr chi.Router) {
		pr.Use(gate.Require)
		pr.Post("/", h.Create)
		pr.Put("/{id}", h.Update)
		pr.Delete("/{id}", h.Delete)
	})

	return r
}
