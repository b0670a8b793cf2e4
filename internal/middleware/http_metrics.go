package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

var staticRoutes = map[string]bool{
	"/":                   true,
	"/health":             true,
	"/ready":              true,
	"/metrics":            true,
	"/graph":              true,
	"/graph/components":   true,
	"/rankings":           true,
	"/modes":              true,
	"/stream":             true,
	"/internal/snapshots": true,
	"/internal/ingest":    true,
}

// normalizePath maps request paths to route patterns so metric label
// cardinality stays bounded. Unknown paths collapse to "other".
func normalizePath(path string) string {
	if staticRoutes[path] {
		return path
	}
	if id, ok := strings.CutPrefix(path, "/entities/"); ok && id != "" && !strings.Contains(id, "/") {
		return "/entities/{id}"
	}
	return "other"
}

// HTTPMetrics records request duration, sizes and counts. /health and
// /ready are skipped.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newResponseRecorder(w)

			requestSize := r.ContentLength
			if requestSize < 0 {
				requestSize = 0
			}

			next.ServeHTTP(rw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(rw.statusCode),
				time.Since(start).Seconds(),
				requestSize,
				rw.size,
			)
		})
	}
}
