package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/resend/resend-go/v2"
)

// ErrNotConfigured is returned when the sender has no API key.
var ErrNotConfigured = errors.New("email: api key not configured")

// Message represents an email to be sent.
type Message struct {
	To      []string
	From    string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Sender sends email messages and returns the provider-assigned message id.
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	apiKey string
}

// NewResendSender creates a Sender backed by Resend. A nil httpClient uses
// http.DefaultClient.
func NewResendSender(apiKey string, httpClient *http.Client) *ResendSender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ResendSender{
		client: resend.NewCustomClient(httpClient, apiKey),
		apiKey: apiKey,
	}
}

// SetBaseURL points the sender at a different Resend-compatible endpoint.
func (s *ResendSender) SetBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
		u.Path += "/"
	}
	s.client.BaseURL = u
	return nil
}

// Configured reports whether an API key is set.
func (s *ResendSender) Configured() bool {
	return s.apiKey != ""
}

func (s *ResendSender) Send(ctx context.Context, msg *Message) (string, error) {
	if s.apiKey == "" {
		return "", ErrNotConfigured
	}

	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.ReplyTo != "" {
		params.ReplyTo = msg.ReplyTo
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}
