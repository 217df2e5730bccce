// ABOUTME: HTTP client for the generative content API
// ABOUTME: Builds part-based requests with JSON or plain-text response contracts and hard timeouts

package analysis

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
)

// DefaultEndpoint is the generateContent endpoint used when none is
// configured.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

// Default client-side timeouts. The JSON contract is used for structured
// analysis, the text contract for chat.
const (
	DefaultJSONTimeout = 20 * time.Second
	DefaultTextTimeout = 30 * time.Second
)

// Part is one segment of a structured prompt: either text or an inline
// binary attachment.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries a base64 attachment with its mime type.
type InlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Generator is the content-generation surface the analyzer and chat consume.
// Implementations must enforce their own timeouts and return an error for
// HTTP non-success, malformed envelopes, and empty text alike.
type Generator interface {
	GenerateJSON(ctx context.Context, parts []Part) (map[string]any, error)
	GenerateText(ctx context.Context, parts []Part) (string, error)
}

// Client calls the remote generative content API.
type Client struct {
	endpoint    string
	apiKey      string
	httpClient  *http.Client
	logger      *slog.Logger
	jsonTimeout time.Duration
	textTimeout time.Duration
}

// ClientOption configures the Client during construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// WithTimeouts overrides the JSON and plain-text call timeouts.
func WithTimeouts(jsonTimeout, textTimeout time.Duration) ClientOption {
	return func(cl *Client) {
		cl.jsonTimeout = jsonTimeout
		cl.textTimeout = textTimeout
	}
}

// NewClient creates a content client. An empty endpoint selects
// DefaultEndpoint; the API key is appended as a query parameter on every
// call.
func NewClient(endpoint, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		apiKey:      apiKey,
		jsonTimeout: DefaultJSONTimeout,
		textTimeout: DefaultTextTimeout,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.logger = c.logger.With("component", "content")
	return c
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []Part `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string   `json:"response_mime_type"`
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
}

type envelope struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateJSON sends the parts with a JSON response hint and parses the
// returned text as a JSON object. Fails uniformly on HTTP errors, malformed
// envelopes, empty text, and non-JSON content.
func (c *Client) GenerateJSON(ctx context.Context, parts []Part) (map[string]any, error) {
	text, err := c.generate(ctx, parts, generationConfig{
		ResponseMIMEType: "application/json",
	}, c.jsonTimeout)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(cleanJSON([]byte(text)), &doc); err != nil {
		return nil, fmt.Errorf("content API returned non-JSON content: %w", err)
	}
	return doc, nil
}

// GenerateText sends the parts with a plain-text response hint.
func (c *Client) GenerateText(ctx context.Context, parts []Part) (string, error) {
	temperature := 0.7
	return c.generate(ctx, parts, generationConfig{
		ResponseMIMEType: "text/plain",
		Temperature:      &temperature,
		MaxOutputTokens:  2048,
	}, c.textTimeout)
}

func (c *Client) generate(ctx context.Context, parts []Part, cfg generationConfig, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Contents:         []requestContent{{Parts: parts}},
		GenerationConfig: cfg,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	u := c.endpoint + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("content API request", "parts", len(parts), "mime", cfg.ResponseMIMEType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("content API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("content API error %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("content API invalid envelope: %w", err)
	}
	text := envelopeText(env)
	if text == "" {
		return "", fmt.Errorf("content API empty response")
	}
	return text, nil
}

func envelopeText(env envelope) string {
	if len(env.Candidates) == 0 {
		return ""
	}
	parts := env.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}

// cleanJSON strips markdown code fences and surrounding whitespace from
// model output. Models often wrap JSON in ```json ... ``` blocks.
func cleanJSON(data []byte) []byte {
	s := bytes.TrimSpace(data)
	if len(s) == 0 {
		return s
	}
	if bytes.HasPrefix(s, []byte("```")) {
		if idx := bytes.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		if bytes.HasSuffix(s, []byte("```")) {
			s = s[:len(s)-3]
		}
		s = bytes.TrimSpace(s)
	}
	return s
}

// DataURLPart converts a data URL into an inline attachment part. Returns
// nil when the value is not a data URL.
func DataURLPart(dataURL string) *Part {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil
	}
	meta, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return nil
	}
	mime := "application/octet-stream"
	if rest, found := strings.CutPrefix(meta, "data:"); found {
		if m, _, _ := strings.Cut(rest, ";"); m != "" {
			mime = m
		}
	}
	return &Part{InlineData: &InlineData{MIMEType: mime, Data: payload}}
}
