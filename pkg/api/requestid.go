package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
)

type requestIDKey struct{}

type loggerKey struct{}

// requestIDHeaders are checked in order for a caller-supplied ID. CF-Ray is
// set by Cloudflare when the form endpoint sits behind it.
var requestIDHeaders = []string{"X-Request-ID", "CF-Ray"}

// maxRequestIDLen caps accepted client-provided request IDs.
const maxRequestIDLen = 128

// RequestID assigns an ID to each request and stores it, together with a
// logger tagged with that ID, in the request context. The ID is echoed in
// the X-Request-ID response header.
func RequestID(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := incomingRequestID(r)
		w.Header().Set("X-Request-ID", id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		ctx = context.WithValue(ctx, loggerKey{}, logger.With("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func incomingRequestID(r *http.Request) string {
	for _, h := range requestIDHeaders {
		if id := r.Header.Get(h); isValidRequestID(id) {
			return id
		}
	}
	return generateRequestID()
}

// isValidRequestID accepts non-empty IDs up to maxRequestIDLen made of
// alphanumerics, hyphens, underscores and dots.
func isValidRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.') {
			return false
		}
	}
	return true
}

// GetRequestID returns the request ID from the context, or empty string if not set.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// requestLogger returns the request-scoped logger, or fallback when the
// request did not pass through RequestID.
func requestLogger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}

func generateRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}
