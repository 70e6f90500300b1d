package api

import (
	"net/http"
	"net/url"

	"github.com/gatezh/contactform/pkg/config"
)

const (
	corsAllowMethods = "POST, OPTIONS"
	corsAllowHeaders = "Content-Type"
	corsMaxAge       = "86400"
)

// CorsHandler wraps a handler with CORS headers for the contact form.
//
// OPTIONS requests on any path are answered here with 204 and no body. Every
// other request reaches h with the headers already set, so error responses
// carry them too.
//
// The ALLOWED_ORIGINS environment variable controls which origins are echoed.
// Local development origins are accepted unless ALLOW_LOCAL_ORIGINS=false.
func CorsHandler(cfg *config.Config, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCorsHeaders(w, cfg, r.Header.Get("Origin"))

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return // Preflight only
		}
		h(w, r)
	}
}

func setCorsHeaders(w http.ResponseWriter, cfg *config.Config, origin string) {
	allowedOrigin := getAllowedOrigin(origin, cfg.AllowedOrigins, cfg.AllowLocalOrigins)

	w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
	w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
	w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
	w.Header().Set("Access-Control-Max-Age", corsMaxAge)

	if allowedOrigin != "*" {
		w.Header().Add("Vary", "Origin")
	}
}

// getAllowedOrigin determines what to return in Access-Control-Allow-Origin.
//
// Logic:
//   - If "*" is in the allowed list, return "*"
//   - If the request origin matches an allowed origin, echo it back
//   - If allowLocal is set and the origin is localhost or 127.0.0.1 on any
//     port, echo it back
//   - If specific origins are configured but none match, return the first
//     configured origin
//   - If no origins are configured, return "*"
//
// Falling back to the first origin means a browser on a foreign origin sees
// a mismatched value and blocks the response. It is not an access control:
// the request itself is still processed.
func getAllowedOrigin(origin string, allowedOrigins []string, allowLocal bool) string {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && allowed == origin {
			return origin
		}
	}
	if allowLocal && isLocalOrigin(origin) {
		return origin
	}
	if len(allowedOrigins) > 0 {
		return allowedOrigins[0]
	}
	return "*"
}

// isLocalOrigin matches http(s)://localhost[:port] and http(s)://127.0.0.1[:port].
func isLocalOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Path != "" || u.RawQuery != "" || u.User != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}
