package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.airtable.com/v0"

// maxErrorBody caps how much of an error response is kept for logging.
const maxErrorBody = 4096

// ErrNotConfigured is returned when the API key, base or table is missing.
var ErrNotConfigured = errors.New("airtable: api key, base id and table name are required")

type Client struct {
	BaseURL    string
	APIKey     string
	BaseID     string
	Table      string
	HTTPClient *http.Client
}

// Record is a created Airtable row.
type Record struct {
	ID          string                 `json:"id"`
	CreatedTime string                 `json:"createdTime,omitempty"`
	Fields      map[string]interface{} `json:"fields"`
}

// APIError is a non-2xx reply from Airtable. Body is truncated and meant for
// server-side logs only.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable: HTTP %d", e.StatusCode)
}

func NewClient(apiKey, baseID, table string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		BaseID:  baseID,
		Table:   table,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether every credential needed to write is present.
func (c *Client) Configured() bool {
	return c.APIKey != "" && c.BaseID != "" && c.Table != ""
}

func (c *Client) tableURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + url.PathEscape(c.BaseID) + "/" + url.PathEscape(c.Table)
}

// CreateRecord writes one row with the given fields and returns it with the
// Airtable-assigned id.
func (c *Client) CreateRecord(ctx context.Context, fields map[string]interface{}) (*Record, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(struct {
		Fields map[string]interface{} `json:"fields"`
	}{Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airtable request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("parsing airtable response: %w", err)
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("airtable response missing record id")
	}
	return &rec, nil
}
