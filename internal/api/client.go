// Package api is the typed client for the remote caption service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmallet/capgen/internal/logging"
)

// HTTPClient interface for HTTP requests (enables testing)
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Verify http.Client implements HTTPClient
var _ HTTPClient = (*http.Client)(nil)

// Client talks to one caption service instance.
type Client struct {
	baseURL string
	http    HTTPClient
	log     *logging.Logger
}

// New creates a client with a default http.Client.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithClient creates a client with an injected HTTP transport.
func NewWithClient(baseURL string, httpClient HTTPClient) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     logging.New("api"),
	}
}

// newRequest builds a request with the bearer token attached when present.
func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// doJSON executes a request and decodes a 2xx JSON body into out.
// Non-2xx responses become *APIError.
func (c *Client) doJSON(req *http.Request, out interface{}) error {
	requestID := uuid.NewString()
	log := c.log.WithRequestID(requestID)
	start := time.Now()

	res, err := c.http.Do(req)
	if err != nil {
		log.Error("request_failed", map[string]interface{}{
			"method": req.Method,
			"path":   req.URL.Path,
		}, err)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	log.TimedEvent("request_done", start, map[string]interface{}{
		"method": req.Method,
		"path":   req.URL.Path,
		"status": res.StatusCode,
	})

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return parseAPIError(res.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// postJSON sends a JSON body and decodes the JSON response.
func (c *Client) postJSON(ctx context.Context, path, token string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, token, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(req, out)
}
