package storefront

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/atlas-retail/atlas-retail/internal/auth"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// MountPublicRoutes mounts the unauthenticated storefront surface. Checkout
// gets its own tight rate limit on top of the global one.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/checkout", h.Checkout)
	})
	r.Get("/availability/{productID}", h.Availability)
	r.Get("/orders/{orderRef}", h.GetOrder)
}

// MountAdminRoutes mounts the back-office order management surface.
func (h *Handler) MountAdminRoutes(r chi.Router, authn *auth.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authn.RequireRole(shared.RoleAdmin, shared.RoleSuperAdmin))
		r.Post("/orders/{orderRef}/cancel", h.CancelOrder)
		r.Patch("/orders/{orderRef}/payment", h.UpdatePaymentStatus)
		r.Patch("/orders/{orderRef}/shipping", h.UpdateShippingStatus)
	})
}
