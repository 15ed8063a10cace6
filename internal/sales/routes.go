package sales

import (
	"github.com/go-chi/chi/v5"

	"github.com/atlas-retail/atlas-retail/internal/auth"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// MountRoutes mounts sale engine routes. Sellers create and read; edits and
// deletions compensate stock and are admin-only.
func (h *Handler) MountRoutes(r chi.Router, authn *auth.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authn.RequireRole(shared.RoleSeller, shared.RoleAdmin, shared.RoleSuperAdmin))
		r.Post("/sales", h.Create)
		r.Get("/sales", h.List)
		r.Get("/sales/{id}", h.Get)
	})
	r.Group(func(r chi.Router) {
		r.Use(authn.RequireRole(shared.RoleAdmin, shared.RoleSuperAdmin))
		r.Patch("/sales/{id}", h.Update)
		r.Delete("/sales/{id}", h.Remove)
	})
}
