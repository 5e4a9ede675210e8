package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/catalogadmin/internal/auth"
	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/handler"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter tracks request counts per key with a fixed window.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		entries:     make(map[string]*rateLimitEntry),
	}
}

// Allow checks if a request from the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.entries[key]

	if !exists || now.Sub(entry.windowStart) > rl.window {
		rl.entries[key] = &rateLimitEntry{count: 1, windowStart: now}
		return true
	}

	if entry.count < rl.maxAttempts {
		entry.count++
		return true
	}

	return false
}

// TimeUntilReset returns how long until the rate limit resets for a key.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.entries[key]
	if !exists {
		return 0
	}

	elapsed := rl.now().Sub(entry.windowStart)
	if elapsed >= rl.window {
		return 0
	}

	return rl.window - elapsed
}

// Sweep removes expired entries and returns how many were dropped.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	dropped := 0
	for key, entry := range rl.entries {
		if now.Sub(entry.windowStart) > rl.window {
			delete(rl.entries, key)
			dropped++
		}
	}
	return dropped
}

// =============================================================================
// Write Limiter
// =============================================================================

// WriteLimiter rate limits catalog writes (create, update, delete).
//
// Requests are keyed by tenant and client IP, so one busy tenant cannot
// exhaust the catalog API for the others. Reads pass through untouched.
type WriteLimiter struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewWriteLimiter creates a WriteLimiter allowing maxWrites per window.
// A non-positive maxWrites disables limiting.
func NewWriteLimiter(maxWrites int, window time.Duration, logger *slog.Logger) *WriteLimiter {
	var limiter *RateLimiter
	if maxWrites > 0 {
		limiter = NewRateLimiter(maxWrites, window)
	}
	return &WriteLimiter{limiter: limiter, logger: logger}
}

// Limit returns middleware that rate limits non-GET requests.
func (m *WriteLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		key := writeKey(r)
		if !m.limiter.Allow(key) {
			retryAfter := int(m.limiter.TimeUntilReset(key).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			m.logger.Warn("rate limit exceeded",
				"key", key,
				"path", r.URL.Path,
				"method", r.Method,
			)
			handler.ErrorResponse(w, r, m.logger,
				domain.Errorf(domain.ERATELIMIT, "middleware.write_limit", "Too many changes. Please wait a moment and try again."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Run sweeps expired entries every interval until stop is closed.
func (m *WriteLimiter) Run(interval time.Duration, stop <-chan struct{}) {
	if m.limiter == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := m.limiter.Sweep(); n > 0 {
				m.logger.Debug("rate limit entries swept", "count", n)
			}
		}
	}
}

func writeKey(r *http.Request) string {
	tenant := "*"
	if actor := auth.GetActorFromRequest(r); actor != nil && actor.TenantID != "" {
		tenant = actor.TenantID
	}
	return tenant + "|" + getClientIP(r)
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP extracts the client IP from the request, considering proxy headers.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: client, proxy1, proxy2
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if clientIP := strings.TrimSpace(ips[0]); clientIP != "" {
			return clientIP
		}
	}

	// Check X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}

	return ip
}
