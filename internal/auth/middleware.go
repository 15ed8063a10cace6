package auth

import (
	"log/slog"
	"net/http"

	"github.com/atlas-retail/atlas-retail/internal/platform/httpx"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

const headerAPIKey = "X-API-Key"

// Middleware resolves the caller identity for protected routes.
type Middleware struct {
	service *Service
	logger  *slog.Logger
}

// NewMiddleware constructs Middleware.
func NewMiddleware(service *Service, logger *slog.Logger) *Middleware {
	return &Middleware{service: service, logger: logger}
}

// Authenticate resolves the X-API-Key header into an actor and stores it in
// the request context. Requests without a valid key are rejected.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(headerAPIKey)
		if raw == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		actor, err := m.service.Resolve(r.Context(), raw)
		if err != nil {
			m.logger.Warn("api key rejected", slog.String("path", r.URL.Path))
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

// RequireRole gates a route group to the given roles. It assumes
// Authenticate already ran.
func (m *Middleware) RequireRole(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := shared.ActorFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !actor.HasRole(roles...) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
