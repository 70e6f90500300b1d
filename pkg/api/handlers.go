package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gatezh/contactform/pkg/models"
)

// encodeResponse encodes a response as JSON
func encodeResponse(w http.ResponseWriter, r *http.Request, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	if r.URL.Query().Get("pretty") == "true" {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(data); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// encodeError sends a JSON error response
func encodeError(w http.ResponseWriter, message string, statusCode int) {
	encodeErrorDetails(w, message, "", statusCode)
}

// encodeErrorDetails sends a JSON error response with an optional details field
func encodeErrorDetails(w http.ResponseWriter, message, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Error: message, Details: details}); err != nil {
		slog.Warn("failed to encode error response", "error", err)
	}
}
