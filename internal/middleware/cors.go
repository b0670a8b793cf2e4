package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	AllowedOrigins   []string // Exact origins; wildcards are not supported
	AllowedMethods   []string // Defaults to GET, POST, OPTIONS
	AllowedHeaders   []string // Defaults to Content-Type, Authorization, X-Request-ID
	AllowCredentials bool
	MaxAge           int // Preflight cache duration in seconds
}

// DefaultCORSMethods are the methods the graph API serves.
var DefaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}

// DefaultCORSHeaders are the request headers browsers may send.
var DefaultCORSHeaders = []string{"Content-Type", "Authorization", RequestIDHeader}

// CORS validates the Origin header against an allowlist. With no origins
// configured the middleware is a pass-through. Requests without an Origin
// header are same-origin and pass. Disallowed origins get 403 and preflight
// requests are answered with 204.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}

	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = DefaultCORSMethods
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = DefaultCORSHeaders
	}
	methodsValue := strings.Join(methods, ", ")
	headersValue := strings.Join(headers, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if len(allowed) == 0 || origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			if !allowed[origin] {
				http.Error(w, "Origin not allowed", http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", methodsValue)
			w.Header().Set("Access-Control-Allow-Headers", headersValue)
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
