// Package middleware contains HTTP middleware for the catalog admin shell.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/catalogadmin/internal/auth"
	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/handler"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// DefaultRoleHeader carries the actor role set by the upstream gateway.
	DefaultRoleHeader = "X-Actor-Role"

	// DefaultTenantHeader carries the actor's company ID.
	DefaultTenantHeader = "X-Actor-Tenant"
)

// =============================================================================
// Actor Middleware
// =============================================================================

// ActorMiddleware resolves the acting admin from gateway headers.
//
// Authentication itself happens upstream; this service only trusts the
// headers the gateway forwards.
type ActorMiddleware struct {
	roleHeader   string
	tenantHeader string
	logger       *slog.Logger
}

// NewActorMiddleware creates a new ActorMiddleware. Empty header names fall
// back to DefaultRoleHeader and DefaultTenantHeader.
func NewActorMiddleware(roleHeader, tenantHeader string, logger *slog.Logger) *ActorMiddleware {
	if roleHeader == "" {
		roleHeader = DefaultRoleHeader
	}
	if tenantHeader == "" {
		tenantHeader = DefaultTenantHeader
	}
	return &ActorMiddleware{
		roleHeader:   roleHeader,
		tenantHeader: tenantHeader,
		logger:       logger,
	}
}

// RequireActor is middleware that stores the actor in the request context.
//
// Requests without a recognised role get 401. A standard admin must also
// name its tenant, since every product it creates is assigned to it.
//
// Flow:
//
//	Request -> RequireActor -> Handler
//	           |
//	           +-> Read role header (401 if missing or unknown)
//	           +-> Read tenant header (401 if a standard admin has none)
//	           +-> Set actor in context
func (m *ActorMiddleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := domain.ParseRole(r.Header.Get(m.roleHeader))
		if !ok {
			m.logger.Debug("missing or unknown actor role",
				"path", r.URL.Path,
				"header", m.roleHeader,
			)
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		tenant := strings.TrimSpace(r.Header.Get(m.tenantHeader))
		if !role.Elevated() && tenant == "" {
			m.logger.Debug("standard actor without tenant", "path", r.URL.Path)
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		actor := &auth.Actor{Role: role, TenantID: tenant}
		recordActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(auth.SetActor(r.Context(), actor)))
	})
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, so the first middleware
// is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw.Handler, actorMw.RequireActor)
//	mux.Handle("GET /catalog", stack(catalogHandler))
//
// This is equivalent to:
//
//	mux.Handle("GET /catalog",
//	    loggingMw.Handler(actorMw.RequireActor(catalogHandler)))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Ensure middleware functions have correct signature
var (
	_ func(http.Handler) http.Handler = (&ActorMiddleware{}).RequireActor
	_ func(http.Handler) http.Handler = (&RequestLoggingMiddleware{}).Handler
	_ func(http.Handler) http.Handler = (&WriteLimiter{}).Limit
	_ func(http.Handler) http.Handler = (&CSRFMiddleware{}).Protect
)
