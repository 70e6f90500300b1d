package turnstile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// ErrNotConfigured is returned when no secret key is set.
var ErrNotConfigured = errors.New("turnstile: secret key not configured")

type Client struct {
	VerifyURL  string
	Secret     string
	HTTPClient *http.Client
}

// Result is the provider's verdict on a token.
type Result struct {
	Success     bool     `json:"success"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
}

// Reason summarises the error codes for logs.
func (r *Result) Reason() string {
	if len(r.ErrorCodes) == 0 {
		return "unknown error"
	}
	return strings.Join(r.ErrorCodes, ", ")
}

func NewClient(secret string) *Client {
	return &Client{
		VerifyURL: DefaultVerifyURL,
		Secret:    secret,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether a secret key is set.
func (c *Client) Configured() bool {
	return c.Secret != ""
}

// Verify posts the token to the verification endpoint. A rejected token is
// reported through Result.Success, not as an error; errors mean the provider
// could not be asked or did not answer intelligibly.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) (*Result, error) {
	if c.Secret == "" {
		return nil, ErrNotConfigured
	}

	form := url.Values{}
	form.Set("secret", c.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("turnstile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("turnstile: HTTP %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing turnstile response: %w", err)
	}
	return &result, nil
}
