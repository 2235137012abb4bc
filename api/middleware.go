package api

import (
	"net/http"
	"time"

	"github.com/arlo-ai/arlo/internal/log"
)

// tenantHeader carries the tenant scope for every /api route.
const tenantHeader = "X-Tenant-ID"

// tenantID extracts the tenant from the request, writing a 400 when absent.
func tenantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenant := r.Header.Get(tenantHeader)
	if tenant == "" {
		writeError(w, http.StatusBadRequest, "missing_tenant", "the X-Tenant-ID header is required")
		return "", false
	}
	return tenant, true
}

// loggingMiddleware logs requests with method, path and duration.
func loggingMiddleware(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start))
		})
	}
}

// recoveryMiddleware turns panics into 500 responses.
func recoveryMiddleware(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// chain applies middleware in order: first middleware wraps outermost.
func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
