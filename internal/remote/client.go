// Package remote talks to the catalog REST API.
//
// Every call goes through Client.do, which encodes the request, records
// metrics, and turns non-2xx statuses or `success: false` envelopes into a
// *domain.RemoteError carrying the server's messages.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/metrics"
)

const (
	// DefaultTimeout bounds a single catalog API request.
	DefaultTimeout = 15 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 10 * 1024 * 1024
)

// Config contains configuration for the catalog API client.
type Config struct {
	BaseURL    string        // e.g. "https://catalog.internal"
	Token      string        // Optional bearer token
	Timeout    time.Duration // Per-request timeout
	HTTPClient *http.Client  // Optional, mainly for tests
}

// Client is a JSON client for the catalog API.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a catalog API client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("catalog API base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog API base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("catalog API base URL must be absolute, got %q", cfg.BaseURL)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL: base,
		token:   cfg.Token,
		http:    httpClient,
		logger:  logger,
	}, nil
}

// envelope is the response shape shared by every catalog API endpoint.
type envelope struct {
	Success *bool           `json:"success,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
	Docs    json.RawMessage `json:"docs,omitempty"`
	Pages   int             `json:"pages"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// do executes one request and decodes the envelope.
// op labels metrics and errors, e.g. "catalog.list".
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) (*envelope, error) {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build catalog API request")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RemoteRequest(op, 0, time.Since(start))
		c.logger.Error("catalog API request failed", "op", op, "method", method, "path", path, "error", err)
		return nil, domain.Unavailable(err, op, "The catalog service is unreachable. Please try again.")
	}
	defer resp.Body.Close()
	metrics.RemoteRequest(op, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, domain.Unavailable(err, op, "The catalog service response could not be read.")
	}

	var env envelope
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("catalog API returned error status",
			"op", op,
			"status", resp.StatusCode,
			"errors", env.Errors,
		)
		return nil, &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Messages: env.Errors}
	}
	if decodeErr != nil {
		return nil, domain.Internal(decodeErr, op, "failed to decode catalog API response")
	}
	if env.Success != nil && !*env.Success {
		return nil, &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Messages: env.Errors}
	}

	return &env, nil
}

// newRequest expects path to be escaped already; segments built from
// caller input go through url.PathEscape.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := *c.baseURL
	rawPath := c.baseURL.EscapedPath() + path
	unescaped, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", path, err)
	}
	u.Path = unescaped
	u.RawPath = rawPath
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// decodeInto unmarshals raw into out, treating an absent payload as empty.
func decodeInto(op string, raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.Internal(err, op, "failed to decode catalog API payload")
	}
	return nil
}
