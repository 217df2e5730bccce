// ABOUTME: HTTP implementation of the Documents interface
// ABOUTME: Talks JSON to the hosted document store with bearer auth and structured logging

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is an HTTP-backed Documents implementation.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures the Client during construction.
type ClientOption func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cfg *clientConfig) { cfg.httpClient = c }
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) ClientOption {
	return func(cfg *clientConfig) { cfg.logger = l }
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(cfg *clientConfig) { cfg.timeout = d }
}

// NewClient creates a Documents client for the store at baseURL. The bearer
// token, when set, is sent on every request.
func NewClient(baseURL, token string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("remote: baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	// Copy an injected client so construction never mutates the caller's.
	httpClient := &http.Client{}
	if cfg.httpClient != nil {
		clone := *cfg.httpClient
		httpClient = &clone
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		logger:     logger.With("component", "remote"),
	}, nil
}

// ReadDoc implements Documents.
func (c *Client) ReadDoc(ctx context.Context, path string) (Document, error) {
	var doc Document
	err := c.doJSON(ctx, http.MethodGet, c.docURL(path), "read doc", nil, &doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// WriteDoc implements Documents. Merge writes use PATCH, replacements PUT.
func (c *Client) WriteDoc(ctx context.Context, path string, doc Document, merge bool) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("write doc: encode body: %w", err)
	}
	method := http.MethodPut
	if merge {
		method = http.MethodPatch
	}
	return c.doJSON(ctx, method, c.docURL(path), "write doc", bytes.NewReader(body), nil)
}

// ReadCollection implements Documents.
func (c *Client) ReadCollection(ctx context.Context, path, orderField string) ([]Snapshot, error) {
	u := c.docURL(path) + "?orderBy=" + url.QueryEscape(orderField)
	var payload struct {
		Documents []struct {
			ID   string   `json:"id"`
			Data Document `json:"data"`
		} `json:"documents"`
	}
	if err := c.doJSON(ctx, http.MethodGet, u, "read collection", nil, &payload); err != nil {
		return nil, err
	}
	snaps := make([]Snapshot, 0, len(payload.Documents))
	for _, d := range payload.Documents {
		snaps = append(snaps, Snapshot{ID: d.ID, Data: d.Data})
	}
	return snaps, nil
}

// DeleteDoc implements Documents.
func (c *Client) DeleteDoc(ctx context.Context, path string) error {
	err := c.doJSON(ctx, http.MethodDelete, c.docURL(path), "delete doc", nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (c *Client) docURL(path string) string {
	return c.baseURL + "/v1/" + strings.TrimPrefix(path, "/")
}

// doJSON executes a request and decodes the JSON response into dst when dst
// is non-nil. A 404 maps to ErrNotFound; other error statuses return a
// status error.
func (c *Client) doJSON(ctx context.Context, method, u, operation string, body io.Reader, dst any) error {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("document store request", "operation", operation, "method", method, "url", u)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: unexpected status %d", operation, resp.StatusCode)
	}

	if dst == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}
