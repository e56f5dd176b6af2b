package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/finledger/internal/infrastructure/metrics"
)

// Metrics records request counts, latency, and in-flight requests.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.HTTPInFlight.Inc()
			defer m.HTTPInFlight.Dec()

			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := normalizePath(r.URL.Path)

			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// idPrefixes are the collections whose next path segment is an identifier.
var idPrefixes = []string{"/api/v1/entries/", "/api/v1/users/"}

// normalizePath replaces identifiers with :id to keep label cardinality low.
//
//	/api/v1/entries/01ABC/status -> /api/v1/entries/:id/status
func normalizePath(path string) string {
	for _, prefix := range idPrefixes {
		if !strings.HasPrefix(path, prefix) {
			continue
		}

		rest := path[len(prefix):]
		if rest == "" || rest[0] == '/' {
			return path
		}

		segment, suffix, found := strings.Cut(rest, "/")
		if segment == "authenticate" && !found {
			return path
		}
		if found {
			suffix = "/" + suffix
		}

		return prefix + ":id" + suffix
	}

	return path
}
