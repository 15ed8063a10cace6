package inventory

import (
	"github.com/go-chi/chi/v5"

	"github.com/atlas-retail/atlas-retail/internal/auth"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// MountRoutes mounts variant management routes. Mutations are admin-only;
// the service re-checks the role so the gate holds even for internal callers.
func (h *Handler) MountRoutes(r chi.Router, authn *auth.Middleware) {
	r.Get("/products/{productID}/variants", h.ListVariants)

	r.Group(func(r chi.Router) {
		r.Use(authn.RequireRole(shared.RoleAdmin, shared.RoleSuperAdmin))
		r.Put("/products/{productID}/variants", h.SyncVariants)
		r.Post("/products/{productID}/variants", h.AddVariants)
		r.Post("/variants/{variantID}/stock", h.AdjustStock)
	})
}
