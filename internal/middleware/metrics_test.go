package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Metrics Auth Middleware Tests
// =============================================================================

func metricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics data"))
	})
}

func TestMetricsAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		setAuth    func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "valid credentials",
			setAuth:    func(r *http.Request) { r.SetBasicAuth("prom", "secret123") },
			wantStatus: http.StatusOK,
		},
		{
			name:       "no credentials",
			setAuth:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong username",
			setAuth:    func(r *http.Request) { r.SetBasicAuth("admin", "secret123") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong password",
			setAuth:    func(r *http.Request) { r.SetBasicAuth("prom", "secret124") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			setAuth:    func(r *http.Request) { r.Header.Set("Authorization", "Basic !!!") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty credentials",
			setAuth:    func(r *http.Request) { r.SetBasicAuth("", "") },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewMetricsAuthMiddleware("prom", "secret123", discardLogger())
			assert.True(t, mw.Enabled())

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			tt.setAuth(req)
			rec := httptest.NewRecorder()
			mw.Handler(metricsHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
				assert.NotContains(t, rec.Body.String(), "metrics data")
			}
		})
	}
}

func TestMetricsAuthMiddleware_DisabledWhenNoCredentials(t *testing.T) {
	mw := NewMetricsAuthMiddleware("", "", discardLogger())
	assert.False(t, mw.Enabled())

	rec := httptest.NewRecorder()
	mw.Handler(metricsHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "metrics data", rec.Body.String())
}
