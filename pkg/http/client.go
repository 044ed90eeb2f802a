package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	MethodGet  = http.MethodGet
	MethodPost = http.MethodPost
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// ClientOption configures Client.
type ClientOption func(*Client)

// RequestOptions holds HTTP request parameters.
type RequestOptions struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string][]string
	Body        interface{}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Temporary reports whether retrying later can succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// IsTemporary is true for transport failures and 429/5xx responses.
func IsTemporary(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return err != nil
}

// Client is a small JSON-over-HTTP client.
type Client struct {
	timeout   time.Duration
	userAgent string
	transport http.RoundTripper
	client    *http.Client
}

// NewClient creates a new HTTP client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:   30 * time.Second,
		userAgent: "momentumpull",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = &http.Client{Timeout: c.timeout, Transport: c.transport}
	return c
}

// SendRequest sends an HTTP request and returns the raw response.
func (c *Client) SendRequest(ctx context.Context, opts *RequestOptions) (*http.Response, error) {
	req, err := c.buildRequest(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// SendAndParse sends the request and decodes a JSON response into dest.
// Non-2xx responses become *StatusError.
func (c *Client) SendAndParse(ctx context.Context, opts *RequestOptions, dest interface{}) error {
	resp, err := c.SendRequest(ctx, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if raw, ok := dest.(*[]byte); ok {
		if *raw, err = io.ReadAll(resp.Body); err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, opts *RequestOptions) (*http.Request, error) {
	var body io.Reader
	switch v := opts.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(v)
	case io.Reader:
		body = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	if len(opts.QueryParams) > 0 {
		q := req.URL.Query()
		for key, values := range opts.QueryParams {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

// WithTimeout sets client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTransport swaps the round tripper, mostly for tests.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}
