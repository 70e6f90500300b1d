package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatezh/contactform/pkg/airtable"
	"github.com/gatezh/contactform/pkg/email"
	"github.com/gatezh/contactform/pkg/models"
	"github.com/gatezh/contactform/pkg/turnstile"
)

// Verifier checks a CAPTCHA token with the provider.
type Verifier interface {
	Configured() bool
	Verify(ctx context.Context, token, remoteIP string) (*turnstile.Result, error)
}

// RecordWriter stores one submission as a table row.
type RecordWriter interface {
	Configured() bool
	CreateRecord(ctx context.Context, fields map[string]interface{}) (*airtable.Record, error)
}

// Mailer delivers the owner notification.
type Mailer interface {
	email.Sender
	Configured() bool
}

// Options selects which stages and sinks run. A nil Table makes email the
// primary sink; a non-nil Table makes the table write primary and email a
// best-effort follow-up.
type Options struct {
	CaptchaRequired bool
	Verifier        Verifier
	Mailer          Mailer
	Notify          email.NotifyConfig
	Table           RecordWriter
	Timeout         time.Duration
	Logger          *slog.Logger
	Now             func() time.Time
}

// Input is one inbound submission.
type Input struct {
	Body     []byte
	RemoteIP string
	Logger   *slog.Logger
}

// Pipeline runs validate, verify, dispatch for a single request. It holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	opts      Options
	validator *Validator
}

func NewPipeline(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		opts:      opts,
		validator: NewValidator(opts.CaptchaRequired),
	}
}

// Submit validates the body, checks configuration, verifies the CAPTCHA
// token and dispatches to the configured sinks, in that order. Any stage
// failure ends the request with a *Error.
func (p *Pipeline) Submit(ctx context.Context, in Input) (*models.NotificationResult, error) {
	logger := in.Logger
	if logger == nil {
		logger = p.opts.Logger
	}

	sub, err := p.validator.Parse(in.Body)
	if err != nil {
		return nil, err
	}

	if err := p.CheckConfig(); err != nil {
		logger.Error("contact pipeline misconfigured", "error", err)
		return nil, err
	}

	if err := p.verifyCaptcha(ctx, logger, sub, in.RemoteIP); err != nil {
		return nil, err
	}

	return p.Dispatch(ctx, logger, sub)
}

// CheckConfig reports missing credentials as a KindConfiguration error.
func (p *Pipeline) CheckConfig() error {
	if p.opts.CaptchaRequired && (p.opts.Verifier == nil || !p.opts.Verifier.Configured()) {
		return newError(KindConfiguration, MsgConfiguration, turnstile.ErrNotConfigured)
	}
	if p.opts.Table != nil {
		if !p.opts.Table.Configured() {
			return newError(KindConfiguration, MsgConfiguration, airtable.ErrNotConfigured)
		}
		return nil
	}
	if !p.emailConfigured() {
		return newError(KindConfiguration, MsgConfiguration, email.ErrNotConfigured)
	}
	return nil
}

func (p *Pipeline) emailConfigured() bool {
	return p.opts.Mailer != nil && p.opts.Mailer.Configured() &&
		p.opts.Notify.From != "" && p.opts.Notify.To != ""
}

// withTimeout bounds a single outbound call.
func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.opts.Timeout)
}

func (p *Pipeline) verifyCaptcha(ctx context.Context, logger *slog.Logger, sub *models.Submission, remoteIP string) error {
	if !p.opts.CaptchaRequired {
		return nil
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	result, err := p.opts.Verifier.Verify(ctx, sub.CaptchaToken, remoteIP)
	if err != nil {
		logger.Error("captcha verification unavailable", "error", err)
		return newError(KindUpstreamUnavailable, MsgCaptchaUnavailable, err)
	}
	if !result.Success {
		logger.Info("captcha rejected", "reason", result.Reason())
		return newError(KindCaptchaRejected, MsgCaptchaRejected, fmt.Errorf("turnstile: %s", result.Reason()))
	}
	return nil
}

// Dispatch forwards a validated submission to the configured sinks.
func (p *Pipeline) Dispatch(ctx context.Context, logger *slog.Logger, sub *models.Submission) (*models.NotificationResult, error) {
	if p.opts.Table != nil {
		return p.dispatchTable(ctx, logger, sub)
	}
	return p.dispatchEmail(ctx, logger, sub)
}

// RecordFields maps a submission to the table's column names.
func RecordFields(sub *models.Submission, submittedAt time.Time) map[string]interface{} {
	return map[string]interface{}{
		"Name":         sub.Name,
		"Email":        sub.Email,
		"Subject":      sub.Subject,
		"Message":      sub.Message,
		"Submitted At": submittedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func (p *Pipeline) dispatchTable(ctx context.Context, logger *slog.Logger, sub *models.Submission) (*models.NotificationResult, error) {
	writeCtx, cancel := p.withTimeout(ctx)
	rec, err := p.opts.Table.CreateRecord(writeCtx, RecordFields(sub, p.opts.Now()))
	cancel()
	if err != nil {
		logUpstream(logger, slog.LevelError, "failed to save submission", err)
		return nil, newError(KindSinkUnavailable, MsgSaveFailed, err)
	}

	emailSent := false
	if p.emailConfigured() {
		emailSent = p.notifyBestEffort(ctx, logger, sub)
	}

	logger.Info("contact submission saved", "record_id", rec.ID, "email_sent", emailSent)
	return &models.NotificationResult{
		Success:   true,
		Message:   MsgReceived,
		ID:        rec.ID,
		EmailSent: &emailSent,
	}, nil
}

// notifyBestEffort sends the follow-up email. Failures and panics are logged
// and reported only through the return value.
func (p *Pipeline) notifyBestEffort(ctx context.Context, logger *slog.Logger, sub *models.Submission) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("email notification panicked", "kind", KindNotificationFailed.String(), "panic", r)
			sent = false
		}
	}()

	if _, err := p.send(ctx, sub); err != nil {
		logUpstream(logger, slog.LevelWarn, "email notification failed", newError(KindNotificationFailed, "", err))
		return false
	}
	return true
}

func (p *Pipeline) dispatchEmail(ctx context.Context, logger *slog.Logger, sub *models.Submission) (*models.NotificationResult, error) {
	id, err := p.send(ctx, sub)
	if err != nil {
		logUpstream(logger, slog.LevelError, "failed to send contact email", err)
		return nil, newError(KindSinkUnavailable, MsgSendFailed, err)
	}

	logger.Info("contact email sent", "email_id", id)
	return &models.NotificationResult{
		Success: true,
		Message: MsgSent,
		ID:      id,
	}, nil
}

func (p *Pipeline) send(ctx context.Context, sub *models.Submission) (string, error) {
	msg, err := email.BuildContactMessage(&p.opts.Notify, sub)
	if err != nil {
		return "", err
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.opts.Mailer.Send(ctx, msg)
}

// logUpstream logs a sink failure, including a truncated upstream body when
// the sink returned one.
func logUpstream(logger *slog.Logger, level slog.Level, msg string, err error) {
	attrs := []any{"error", err}
	var apiErr *airtable.APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs, "status", apiErr.StatusCode, "upstream_body", apiErr.Body)
	}
	logger.Log(context.Background(), level, msg, attrs...)
}
