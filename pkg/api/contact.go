package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gatezh/contactform/pkg/config"
	"github.com/gatezh/contactform/pkg/contact"
)

const msgBodyTooLarge = "Request body too large"

// ContactHandler accepts contact form submissions.
// POST /
//
// Wrap it with CorsHandler so that preflight requests and every response,
// including errors, carry the CORS headers.
func ContactHandler(cfg *config.Config) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		logger := requestLogger(r.Context(), cfg.Logger)
		w := &headerTracker{ResponseWriter: rw}
		defer recoverContact(w, logger)

		if r.URL.Path != "/" {
			encodeError(w, "Not found", http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST, OPTIONS")
			encodeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if cfg.Pipeline == nil {
			logger.Error("contact pipeline not initialised")
			encodeError(w, contact.MsgConfiguration, http.StatusInternalServerError)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, cfg.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				encodeError(w, msgBodyTooLarge, http.StatusRequestEntityTooLarge)
				return
			}
			encodeError(w, contact.MsgMalformedBody, http.StatusBadRequest)
			return
		}

		result, err := cfg.Pipeline.Submit(r.Context(), contact.Input{
			Body:     body,
			RemoteIP: r.Header.Get(cfg.ConnectingIPHeader),
			Logger:   logger,
		})
		if err != nil {
			writeContactError(w, logger, err)
			return
		}

		encodeResponse(w, r, result)
	}
}

// headerTracker records whether a status line has gone out.
type headerTracker struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *headerTracker) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerTracker) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// recoverContact turns a panic into a 500, unless a response was already
// started, in which case it is only logged.
func recoverContact(w *headerTracker, logger *slog.Logger) {
	rec := recover()
	if rec == nil {
		return
	}
	if w.wroteHeader {
		logger.Error("recovered from panic after response was written", "panic", rec)
		return
	}
	logger.Error("recovered from panic in contact handler", "panic", rec)
	encodeError(w, contact.MsgUnexpected, http.StatusInternalServerError)
}

func writeContactError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ce *contact.Error
	if !errors.As(err, &ce) {
		logger.Error("contact submission failed", "error", err)
		encodeError(w, contact.MsgUnexpected, http.StatusInternalServerError)
		return
	}

	status := statusFor(ce.Kind)
	if status < http.StatusInternalServerError {
		logger.Info("contact submission rejected", "kind", ce.Kind.String(), "details", ce.Details)
	}
	encodeErrorDetails(w, ce.Message, ce.Details, status)
}

// statusFor maps a pipeline failure to its HTTP status.
func statusFor(kind contact.Kind) int {
	switch kind {
	case contact.KindMalformedBody, contact.KindInvalidField, contact.KindCaptchaRejected:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
