// Package gql is the GraphQL transport for the Srclight API. It is not a
// general-purpose GraphQL client: requests are raw query strings and responses
// expose the top-level data/errors envelope so callers can apply their own
// error-aggregation rules.
package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every request so a hung remote cannot hang the
// caller indefinitely.
const DefaultTimeout = 30 * time.Second

// Request is a single GraphQL query or mutation.
type Request struct {
	// Query is the raw GraphQL document. Its first operation is executed.
	Query string
	// Variables are marshaled as the "variables" field of the POST body.
	Variables map[string]any
	// PrivateInfo marks requests whose variables may contain user data.
	// Such variables are never included in error or log output.
	PrivateInfo bool
}

// Error is one entry of the response's top-level errors array.
type Error struct {
	Message string `json:"message"`
}

// Response is the raw GraphQL response envelope.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors"`
}

// TokenProvider supplies the bearer token for authenticated requests.
// An empty token means the request is sent anonymously.
type TokenProvider interface {
	Token() (string, error)
}

// Doer abstracts *http.Client for tests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues GraphQL requests against a Srclight endpoint.
type Client struct {
	httpClient Doer
	tokens     TokenProvider
	timeout    time.Duration
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.httpClient = d }
}

// WithTokenProvider attaches bearer tokens to every request.
func WithTokenProvider(tp TokenProvider) Option {
	return func(c *Client) { c.tokens = tp }
}

// WithTimeout overrides DefaultTimeout. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient returns a Client with the default timeout applied.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		userAgent:  "srclight-cli",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query executes a GraphQL query against url (the instance base URL).
func (c *Client) Query(ctx context.Context, url string, req Request) (*Response, error) {
	return c.do(ctx, url, req)
}

// Mutate executes a GraphQL mutation against url. The wire shape is identical
// to Query; the split exists so callers and fakes can distinguish reads from
// writes.
func (c *Client) Mutate(ctx context.Context, url string, req Request) (*Response, error) {
	return c.do(ctx, url, req)
}

func (c *Client) do(ctx context.Context, url string, req Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(map[string]any{
		"query":     req.Query,
		"variables": req.Variables,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode graphql request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/.api/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to load access token: %w", err)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "token "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The body is not included for private requests since some servers
		// echo variables back in error pages.
		if req.PrivateInfo {
			return nil, fmt.Errorf("graphql request failed: %s", resp.Status)
		}
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("graphql request failed: %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid graphql response: %w", err)
	}
	return &out, nil
}
