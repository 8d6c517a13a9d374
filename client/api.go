package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// APIError describes a non-2xx answer from a platform endpoint. Message is
// pulled from the response body when the server sent one. RequestID echoes
// the X-Request-ID the request carried so failures can be correlated with
// server-side logs.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("API request failed with HTTP %d: %s (request-id: %s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("API request failed with HTTP %d: %s", e.StatusCode, e.Message)
}

// newAPIError drains the response body and extracts a human-readable
// message from it. Error payloads are opaque; the common `message` and
// `error` fields are probed without binding to a schema.
func newAPIError(resp *http.Response) *APIError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	if err != nil {
		body = nil
	}

	message := gjson.GetBytes(body, "message").String()
	if message == "" {
		message = gjson.GetBytes(body, "error").String()
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	requestID := ""
	if resp.Request != nil {
		requestID = resp.Request.Header.Get("X-Request-ID")
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message, RequestID: requestID}
}

// Client issues authenticated calls against the platform API. All requests
// flow through the authenticating transport, so expired credentials are
// refreshed and retried transparently.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout overrides the per-request timeout. Defaults to 30 seconds.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New is the constructor for the platform API client.
func New(baseURL string, transport http.RoundTripper, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends a request with the given method, path, and body and returns the
// raw response. Callers own the response body. Non-2xx statuses are
// returned as-is; use Get/PostJSON for calls that want them converted to
// errors.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("Failed to create request")
		return nil, err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	log.Debug().Str("method", method).Str("path", path).Msg("Sending API request")
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("API request failed")
		return nil, err
	}
	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("API request answered")
	return resp, nil
}

// Get issues a GET and returns the response body. Non-2xx statuses become
// an *APIError.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return readBody(resp)
}

// PostJSON issues a POST with a JSON payload and returns the response
// body. Non-2xx statuses become an *APIError.
func (c *Client) PostJSON(ctx context.Context, path string, payload []byte) ([]byte, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	resp, err := c.Do(ctx, http.MethodPost, path, bytes.NewReader(payload), header)
	if err != nil {
		return nil, err
	}
	return readBody(resp)
}

// Call issues a request with an arbitrary method and an optional JSON
// payload, returning the raw response body. Non-2xx statuses become an
// *APIError.
func (c *Client) Call(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	var header http.Header
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
		header = http.Header{}
		header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(ctx, method, path, body, header)
	if err != nil {
		return nil, err
	}
	return readBody(resp)
}

// GetJSON issues a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.Error().Err(err).Str("body_preview", string(body[:min(len(body), 200)])).Msg("Failed to parse API response")
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// readBody reads and closes the response body, converting non-2xx
// statuses into an *APIError.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read response body")
		return nil, err
	}
	return body, nil
}
