package middleware

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/catalogadmin/internal/csrf"
	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/handler"
)

// CSRFMiddleware issues the double-submit token on every catalog page and
// rejects writes that do not echo it.
type CSRFMiddleware struct {
	secure bool
	logger *slog.Logger
}

// NewCSRFMiddleware creates a new CSRFMiddleware. secure marks the cookie
// HTTPS-only.
func NewCSRFMiddleware(secure bool, logger *slog.Logger) *CSRFMiddleware {
	return &CSRFMiddleware{secure: secure, logger: logger}
}

// Protect is middleware that stores the token in the request context and
// verifies it on POST, PUT, PATCH and DELETE.
func (m *CSRFMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			token, err := csrf.EnsureToken(w, r, m.secure)
			if err != nil {
				handler.ErrorResponse(w, r, m.logger, domain.Internal(err, "middleware.csrf", "failed to generate CSRF token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(csrf.WithToken(r.Context(), token)))
			return
		}

		if !csrf.ValidateRequest(r) {
			m.logger.Warn("csrf token mismatch",
				"path", r.URL.Path,
				"method", r.Method,
			)
			handler.ErrorResponse(w, r, m.logger,
				domain.Forbidden("middleware.csrf", "Your session expired. Reload the page and try again."))
			return
		}

		// Re-rendered forms echo the same token.
		ctx := csrf.WithToken(r.Context(), csrf.GetTokenFromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
