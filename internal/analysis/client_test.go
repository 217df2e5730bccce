// ABOUTME: Tests for the generative content HTTP client
// ABOUTME: Covers request shape, envelope parsing, fence stripping, and failures

package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentServer(t *testing.T, text string, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			*capture = body
			(*capture)["_key"] = r.URL.Query().Get("key")
		}
		resp := map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"parts": []any{map[string]any{"text": text}},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGenerateJSON(t *testing.T) {
	var captured map[string]any
	srv := contentServer(t, `{"recommended":"Lean"}`, &captured)
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	doc, err := c.GenerateJSON(context.Background(), []Part{{Text: "analyze"}})
	require.NoError(t, err)
	assert.Equal(t, "Lean", doc["recommended"])

	assert.Equal(t, "secret", captured["_key"])
	contents := captured["contents"].([]any)
	require.Len(t, contents, 1)
	cfg := captured["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", cfg["response_mime_type"])
}

func TestGenerateJSONStripsFences(t *testing.T) {
	srv := contentServer(t, "```json\n{\"notes\":\"ok\"}\n```", nil)
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	doc, err := c.GenerateJSON(context.Background(), []Part{{Text: "x"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", doc["notes"])
}

func TestGenerateJSONNonJSONContent(t *testing.T) {
	srv := contentServer(t, "sorry, I cannot do that", nil)
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	_, err := c.GenerateJSON(context.Background(), []Part{{Text: "x"}})
	assert.ErrorContains(t, err, "non-JSON")
}

func TestGenerateEmptyEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	_, err := c.GenerateJSON(context.Background(), []Part{{Text: "x"}})
	assert.ErrorContains(t, err, "empty response")
}

func TestGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	_, err := c.GenerateJSON(context.Background(), []Part{{Text: "x"}})
	assert.ErrorContains(t, err, "429")
}

func TestGenerateText(t *testing.T) {
	var captured map[string]any
	srv := contentServer(t, "Start with a small pilot in Banani.", &captured)
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	text, err := c.GenerateText(context.Background(), []Part{{Text: "advise"}})
	require.NoError(t, err)
	assert.Equal(t, "Start with a small pilot in Banani.", text)

	cfg := captured["generationConfig"].(map[string]any)
	assert.Equal(t, "text/plain", cfg["response_mime_type"])
	assert.Equal(t, 0.7, cfg["temperature"])
	assert.Equal(t, float64(2048), cfg["maxOutputTokens"])
}

func TestDataURLPart(t *testing.T) {
	p := DataURLPart("data:image/png;base64,aGVsbG8=")
	require.NotNil(t, p)
	require.NotNil(t, p.InlineData)
	assert.Equal(t, "image/png", p.InlineData.MIMEType)
	assert.Equal(t, "aGVsbG8=", p.InlineData.Data)

	assert.Nil(t, DataURLPart("https://example.com/a.png"))
	assert.Nil(t, DataURLPart("data:image/png;base64"))
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(cleanJSON([]byte("```json\n{\"a\":1}\n```"))))
	assert.Equal(t, `{"a":1}`, string(cleanJSON([]byte(`  {"a":1}  `))))
	assert.Equal(t, "", string(cleanJSON([]byte("   "))))
}
