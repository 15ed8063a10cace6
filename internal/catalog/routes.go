package catalog

import (
	"github.com/go-chi/chi/v5"

	"github.com/atlas-retail/atlas-retail/internal/auth"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// MountRoutes mounts product management routes. Reads are open to all
// authenticated roles; writes are admin-only.
func (h *Handler) MountRoutes(r chi.Router, authn *auth.Middleware) {
	r.Group(func(r chi.Router) {
		r.Get("/products", h.List)
		r.Get("/products/{id}", h.Get)
	})
	r.Group(func(r chi.Router) {
		r.Use(authn.RequireRole(shared.RoleAdmin, shared.RoleSuperAdmin))
		r.Post("/products", h.Create)
		r.Patch("/products/{id}", h.Update)
		r.Delete("/products/{id}", h.Delete)
	})
}
