// Package apiclient is the single gateway to the StudyMate REST API. It
// attaches the bearer token to every outgoing request, enforces a fixed
// per-request timeout and normalizes every failure into the APIError
// taxonomy. The client is stateless between calls.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultRatePerSecond = 5
	defaultRateBurst     = 10
)

// TokenSource provides the current API bearer token. It is consulted on
// every request, never cached, so a re-login mid-session is respected.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client interfaces with the StudyMate API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	Tokens        TokenSource
	RatePerSecond float64
	RateBurst     int
}

// NewClient creates a new StudyMate API client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	perSecond := opts.RatePerSecond
	if perSecond <= 0 {
		perSecond = defaultRatePerSecond
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens:  opts.Tokens,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Request performs one API call and returns the raw response body.
// Failures are always *APIError: transport errors and timeouts map to
// KindNetwork, non-2xx statuses map through the taxonomy with the body's
// "message" field as the user-facing text.
func (c *Client) Request(ctx context.Context, method, path string, body any, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Fresh token lookup on every call so re-login is picked up mid-session.
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newNetworkError()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError()
	}

	if resp.StatusCode >= 400 {
		return nil, newStatusError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// GetJSON issues a GET request and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, query, out)
}

// PostJSON issues a POST request with a JSON body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, nil, out)
}

// PutJSON issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) PutJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, nil, out)
}

// DeleteJSON issues a DELETE request and decodes the response into out.
func (c *Client) DeleteJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, query url.Values, out any) error {
	respBody, err := c.Request(ctx, method, path, body, query)
	if err != nil {
		return err
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
