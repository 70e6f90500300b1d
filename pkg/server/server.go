package server

import (
	"net/http"

	"github.com/gatezh/contactform/pkg/airtable"
	"github.com/gatezh/contactform/pkg/api"
	"github.com/gatezh/contactform/pkg/config"
	"github.com/gatezh/contactform/pkg/contact"
	"github.com/gatezh/contactform/pkg/email"
	"github.com/gatezh/contactform/pkg/turnstile"
)

// SetupServer initializes config and routes, returning the config and handler.
// This allows tests to reuse the exact same setup logic.
func SetupServer() (*config.Config, http.Handler, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, err
	}
	cfg.Pipeline = NewPipeline(cfg)

	return cfg, NewHandler(cfg), nil
}

// NewPipeline builds the contact pipeline from cfg. The email client is
// always attached so it can serve as the follow-up notification when the
// table sink is primary.
func NewPipeline(cfg *config.Config) *contact.Pipeline {
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	opts := contact.Options{
		CaptchaRequired: cfg.CaptchaRequired,
		Mailer:          email.NewResendSender(cfg.ResendAPIKey, httpClient),
		Notify: email.NotifyConfig{
			From:     cfg.EmailFrom,
			FromName: cfg.FromName,
			To:       cfg.EmailTo,
			SiteName: cfg.SiteName,
		},
		Timeout: cfg.UpstreamTimeout,
		Logger:  cfg.Logger,
	}

	verifier := turnstile.NewClient(cfg.TurnstileSecret)
	verifier.HTTPClient = httpClient
	opts.Verifier = verifier

	if cfg.Sink == config.SinkAirtable {
		table := airtable.NewClient(cfg.AirtableAPIKey, cfg.AirtableBaseID, cfg.AirtableTable)
		table.HTTPClient = httpClient
		opts.Table = table
	}

	return contact.NewPipeline(opts)
}

// NewHandler registers routes and wraps them with the shared middleware.
func NewHandler(cfg *config.Config) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(cfg, mux)

	var handler http.Handler = mux
	handler = api.GzipHandler(handler)
	handler = api.SecurityHeaders(handler)
	handler = api.RequestLogging(cfg.Logger, handler)
	handler = api.RequestID(cfg.Logger, handler)
	return handler
}

// RegisterRoutes registers the contact endpoint on the given mux. The
// handler owns every path so that unknown paths and OPTIONS requests still
// get CORS headers.
func RegisterRoutes(cfg *config.Config, mux *http.ServeMux) {
	mux.HandleFunc("/", api.CorsHandler(cfg, api.ContactHandler(cfg)))
}
