package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-retail/atlas-retail/internal/auth"
	"github.com/atlas-retail/atlas-retail/internal/catalog"
	"github.com/atlas-retail/atlas-retail/internal/inventory"
	"github.com/atlas-retail/atlas-retail/internal/observability"
	"github.com/atlas-retail/atlas-retail/internal/platform/httpx"
	"github.com/atlas-retail/atlas-retail/internal/sales"
	"github.com/atlas-retail/atlas-retail/internal/storefront"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Pool              *pgxpool.Pool
	AuthMiddleware    *auth.Middleware
	CatalogHandler    *catalog.Handler
	InventoryHandler  *inventory.Handler
	SalesHandler      *sales.Handler
	StorefrontHandler *storefront.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Atlas defaults: the shared
// middleware stack, a public storefront surface and an API-key protected
// back office.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				httpx.Problem(w, http.StatusServiceUnavailable, "Unhealthy", "database unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// public storefront surface plus receipt verification
		r.Route("/store", func(r chi.Router) {
			params.StorefrontHandler.MountPublicRoutes(r)
		})
		r.Get("/receipts/{code}", params.SalesHandler.Verify)

		// back office, API-key authenticated
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Authenticate)
			params.CatalogHandler.MountRoutes(r, params.AuthMiddleware)
			params.InventoryHandler.MountRoutes(r, params.AuthMiddleware)
			params.SalesHandler.MountRoutes(r, params.AuthMiddleware)
			r.Route("/store/admin", func(r chi.Router) {
				params.StorefrontHandler.MountAdminRoutes(r, params.AuthMiddleware)
			})
		})
	})

	return r
}
