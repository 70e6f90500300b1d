package contactcli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gatezh/contactform/pkg/models"
)

// Client posts submissions to a contact form endpoint
type Client struct {
	BaseURL    string
	Origin     string
	HTTPClient *http.Client
}

// NewClientWithConfig creates a client with explicit config
func NewClientWithConfig(cfg *Config) *Client {
	return &Client{
		BaseURL: cfg.GetServer(),
		Origin:  cfg.Origin,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the endpoint
type APIError struct {
	Message    string
	Details    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("API error (%d): %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// doRequest performs an HTTP request with a JSON body
func (c *Client) doRequest(method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, strings.TrimSuffix(c.BaseURL, "/")+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The endpoint only echoes CORS headers; sending Origin mirrors a browser
	if c.Origin != "" {
		req.Header.Set("Origin", c.Origin)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return nil, &APIError{Message: errResp.Error, Details: errResp.Details, StatusCode: resp.StatusCode}
		}
		return nil, &APIError{Message: string(respBody), StatusCode: resp.StatusCode}
	}

	return respBody, nil
}

// Submit sends a submission and returns the endpoint's result
func (c *Client) Submit(sub *models.Submission) (*models.NotificationResult, error) {
	data, err := c.doRequest(http.MethodPost, "/", sub)
	if err != nil {
		return nil, err
	}

	var result models.NotificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}

	return &result, nil
}
